package arachne

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/arachne-go/arachne/internal/cycles"
	"github.com/arachne-go/arachne/internal/stackalloc"
	"github.com/arachne-go/arachne/internal/xorshift"
)

// InitOptions configures Init. Built up via the functional-options pattern
// rather than a struct literal, so new knobs can be added without breaking
// existing call sites.
type InitOptions struct {
	numCores       int
	maxCores       int
	affinity       bool
	allowIdleSleep bool
	seed           uint64
	logger         Logger
	clock          cycles.Clock
	rng            xorshift.Source

	// stackSizeHint is carried for diagnostics only; see internal/stackalloc.
	stackSizeHint int
}

// Option mutates an InitOptions being built up by Init.
type Option func(*InitOptions)

// WithCores sets the number of cores to create. Defaults to
// runtime.GOMAXPROCS(0) if unset or non-positive.
func WithCores(n int) Option {
	return func(o *InitOptions) { o.numCores = n }
}

// WithMaxCores clamps the core count chosen by WithCores (or the default)
// to at most n.
func WithMaxCores(n int) Option {
	return func(o *InitOptions) { o.maxCores = n }
}

// WithAffinity enables or disables pinning each core's OS thread to a
// dedicated logical CPU. Defaults to enabled; has no effect on platforms
// where internal/affinity.Available is false.
func WithAffinity(enabled bool) Option {
	return func(o *InitOptions) { o.affinity = enabled }
}

// WithIdleSleep opts a core's dispatcher into a bounded exponential sleep
// on passes that find nothing runnable, trading wakeup latency for lower
// CPU draw on an oversubscribed or shared machine. The default is a bare
// busy-wait: a dedicated core with nothing to do costs nothing but the CPU
// it already owns outright, so most embedders should leave this disabled.
func WithIdleSleep(enabled bool) Option {
	return func(o *InitOptions) { o.allowIdleSleep = enabled }
}

// WithSeed fixes the load balancer's xorshift seed, for reproducible core
// selection in tests. Ignored if WithRNGSource is also given.
func WithSeed(seed uint64) Option {
	return func(o *InitOptions) { o.seed = seed }
}

// WithLogger installs l as the destination for dispatcher diagnostics.
// Defaults to a no-op logger.
func WithLogger(l Logger) Option {
	return func(o *InitOptions) { o.logger = l }
}

// WithClock overrides the cycle clock, chiefly for tests that need to
// control Sleep deadlines deterministically.
func WithClock(c cycles.Clock) Option {
	return func(o *InitOptions) { o.clock = c }
}

// WithRNGSource overrides the load balancer's probe source, for tests that
// need deterministic power-of-two-choices decisions; see
// internal/xorshift.NewQueue.
func WithRNGSource(s xorshift.Source) Option {
	return func(o *InitOptions) { o.rng = s }
}

// WithStackSizeHint records a hint about expected per-task stack needs, for
// diagnostics and logging only: tasks run on the Go runtime's own growable
// coroutine stacks (internal/lowlevel), not a hand-sized fixed buffer, so
// this hint bounds nothing and is never consulted to allocate memory. Init
// rejects a hint below internal/stackalloc.MinHint as almost certainly a
// mistake.
func WithStackSizeHint(bytes int) Option {
	return func(o *InitOptions) { o.stackSizeHint = bytes }
}

// Merge returns an Option that applies every field o carries, for use with
// flags parsed via ParseFlags: arachne.Init(parsed.Merge(), arachne.WithLogger(l)).
func (o InitOptions) Merge() Option {
	return func(dst *InitOptions) {
		if o.numCores != 0 {
			dst.numCores = o.numCores
		}
		if o.maxCores != 0 {
			dst.maxCores = o.maxCores
		}
		dst.affinity = o.affinity
		if o.allowIdleSleep {
			dst.allowIdleSleep = o.allowIdleSleep
		}
		if o.seed != 0 {
			dst.seed = o.seed
		}
		if o.logger != nil {
			dst.logger = o.logger
		}
		if o.clock != nil {
			dst.clock = o.clock
		}
		if o.rng != nil {
			dst.rng = o.rng
		}
		if o.stackSizeHint != 0 {
			dst.stackSizeHint = o.stackSizeHint
		}
	}
}

type schedulerState struct {
	cores []*Core
	rng   xorshift.Source
}

var (
	stateMu sync.Mutex
	state   *schedulerState
)

// Init brings up the scheduler: one Core per requested logical core, each
// running its dispatcher on its own locked, optionally pinned OS thread.
// Init returns an error instead of panicking when the scheduler is already
// initialized or the stack size hint is below internal/stackalloc.MinHint.
// A zero or negative core count falls back to runtime.GOMAXPROCS(0), and a
// failed affinity pin is logged by the core, which then runs unpinned.
func Init(opts ...Option) error {
	stateMu.Lock()
	defer stateMu.Unlock()

	if state != nil {
		return fmt.Errorf("arachne: Init called while already initialized")
	}

	o := InitOptions{
		numCores: runtime.GOMAXPROCS(0),
		affinity: true,
		logger:   noopLogger{},
		clock:    cycles.New(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.numCores <= 0 {
		o.numCores = runtime.GOMAXPROCS(0)
	}
	if o.maxCores > 0 && o.numCores > o.maxCores {
		o.numCores = o.maxCores
	}
	if o.numCores <= 0 {
		return fmt.Errorf("arachne: resolved core count must be positive, got %d", o.numCores)
	}

	stackHint, err := stackalloc.ValidateHint(o.stackSizeHint)
	if err != nil {
		return fmt.Errorf("arachne: %w", err)
	}
	o.logger.Debug("resolved stack size hint", "bytes", stackHint)

	rng := o.rng
	if rng == nil {
		rng = xorshift.New(o.seed)
	}

	cores := make([]*Core, o.numCores)
	for i := range cores {
		cores[i] = newCore(i, o.clock, o.logger, o.allowIdleSleep)
		cores[i].affinityEnabled = o.affinity
	}

	state = &schedulerState{cores: cores, rng: rng}
	for _, c := range cores {
		c.start()
	}
	return nil
}

// Shutdown requests that every core drain: each dispatcher finishes the
// tasks it already has, while CreateThreadOn refuses every new one,
// including those the running tasks try to create, and exits once its last
// slot empties. Shutdown
// does not block; call WaitForTermination to wait for drain to complete.
func Shutdown() {
	s := snapshotState()
	if s == nil {
		return
	}
	for _, c := range s.cores {
		c.requestShutdown()
	}
}

// WaitForTermination blocks until every core has drained and exited
// following a Shutdown call, then resets internal state so a later Init
// call can bring the scheduler back up.
func WaitForTermination() {
	s := snapshotState()
	if s == nil {
		return
	}
	for _, c := range s.cores {
		<-c.done
	}
	stateMu.Lock()
	if state == s {
		state = nil
	}
	stateMu.Unlock()
}

// NumCores reports how many cores the scheduler was brought up with, or 0
// if Init has not been called.
func NumCores() int {
	s := snapshotState()
	if s == nil {
		return 0
	}
	return len(s.cores)
}

// CoreLoad reports the number of occupied slots on the given core. Returns
// 0 for an out-of-range core or if Init has not been called.
func CoreLoad(core int) int {
	c := runtimeCore(core)
	if c == nil {
		return 0
	}
	return c.load()
}

func snapshotState() *schedulerState {
	stateMu.Lock()
	defer stateMu.Unlock()
	return state
}

func runtimeCore(id int) *Core {
	s := snapshotState()
	if s == nil || id < 0 || id >= len(s.cores) {
		return nil
	}
	return s.cores[id]
}
