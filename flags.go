package arachne

import "flag"

// ParseFlags recognizes the subset of command-line flags an embedder
// commonly wants to forward into InitOptions. It returns the parsed options
// rather than mutating global state, so callers compose it with their own
// flag.FlagSet instead of being forced to own the process's
// flag.CommandLine.
func ParseFlags(fs *flag.FlagSet, args []string) (InitOptions, error) {
	var (
		minCores = fs.Int("minNumCores", 0, "minimum number of arachne cores to create")
		maxCores = fs.Int("maxNumCores", 0, "maximum number of arachne cores to create (0 = unbounded)")
		affinity = fs.Bool("pinCores", true, "pin each core's dispatcher to a dedicated logical CPU")
	)
	if err := fs.Parse(args); err != nil {
		return InitOptions{}, err
	}

	o := InitOptions{affinity: true}
	if *minCores > 0 {
		o.numCores = *minCores
	}
	if *maxCores > 0 {
		o.maxCores = *maxCores
	}
	o.affinity = *affinity
	return o, nil
}
