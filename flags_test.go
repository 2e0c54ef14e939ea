package arachne

import (
	"flag"
	"testing"
)

func TestParseFlagsMinNumCores(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o, err := ParseFlags(fs, []string{"--minNumCores=4", "--pinCores=false"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if o.numCores != 4 {
		t.Fatalf("numCores = %d, want 4", o.numCores)
	}
	if o.affinity {
		t.Fatalf("affinity = true, want false")
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o, err := ParseFlags(fs, nil)
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if o.numCores != 0 {
		t.Fatalf("numCores = %d, want 0 (unset)", o.numCores)
	}
	if !o.affinity {
		t.Fatalf("affinity default should be true")
	}
}
