package arachne

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/arachne-go/arachne/internal/affinity"
	"github.com/arachne-go/arachne/internal/cacheline"
	"github.com/arachne-go/arachne/internal/cycles"
	"github.com/arachne-go/arachne/internal/slotmap"
)

// Core is one kernel-thread-bound scheduling context. Each Core owns
// exactly MaxThreadsPerCore slots and runs its dispatcher on its own locked
// OS thread, pinned to a dedicated logical CPU when affinity pinning is
// available.
type Core struct {
	id    int
	slots [MaxThreadsPerCore]Slot

	occupancy slotmap.MaskAndCount
	_         cacheline.Pad

	clock  cycles.Clock
	logger Logger

	lastScheduled int

	shutdown        atomic.Bool
	allowIdleSleep  bool
	affinityEnabled bool

	done chan struct{}
}

func newCore(id int, clock cycles.Clock, logger Logger, allowIdleSleep bool) *Core {
	c := &Core{
		id:             id,
		clock:          clock,
		logger:         logger,
		allowIdleSleep: allowIdleSleep,
		done:           make(chan struct{}),
	}
	c.slots = newSlots(c)
	return c
}

// load reports the number of occupied slots on this core; exported via the
// package-level CoreLoad and used internally by the load balancer.
func (c *Core) load() int {
	return c.occupancy.Load().NumOccupied
}

// start locks an OS thread to this core's dispatcher goroutine, pins it if
// affinity pinning is available, and runs the scan loop until Shutdown is
// requested and every slot has drained.
func (c *Core) start() {
	go func() {
		defer close(c.done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if c.affinityEnabled {
			if err := affinity.Pin(c.id); err != nil {
				c.logger.Warn("affinity pin failed, continuing unpinned",
					"core", c.id, "error", err)
			}
		}

		c.run()
	}()
}

// run is the dispatcher's round-robin scan: sweep every slot once per pass
// starting just after the last one that ran, resuming any slot whose wakeup
// deadline has passed. A pass that finds nothing runnable spins straight
// into the next one by default, never sleeping the OS thread it owns;
// exits once shutdown has been requested and the core has no occupied
// slots left.
func (c *Core) run() {
	backoff := newIdleBackoff(c.allowIdleSleep)
	for {
		if c.shutdown.Load() && c.load() == 0 {
			return
		}

		now := c.clock.NowCycles()
		ranAny := false
		for i := 0; i < MaxThreadsPerCore; i++ {
			idx := (c.lastScheduled + 1 + i) % MaxThreadsPerCore
			slot := &c.slots[idx]
			if !slot.runnableAt(now) {
				continue
			}
			c.lastScheduled = idx
			slot.coro.Resume()
			ranAny = true
		}

		if ranAny {
			backoff.reset()
		} else {
			backoff.pause()
		}
	}
}

// requestShutdown marks the core as draining: its dispatcher keeps running
// existing tasks to completion but CreateThreadOn will refuse new ones
// (thread.go), and run exits once the last one finishes.
func (c *Core) requestShutdown() {
	c.shutdown.Store(true)
}

// idleBackoff governs what a core's dispatcher does on a pass that finds
// nothing runnable. A dedicated core spinning with nothing to do costs
// nothing but the CPU it already owns outright, so the default is a bare
// busy-wait: pause is a no-op and run's loop immediately starts the next
// pass. An embedder that would rather trade latency for lower CPU draw on
// an oversubscribed or shared machine can opt into a bounded exponential
// sleep instead; once opted in, every miss doubles the pause up to a small
// cap, and a hit resets it back to zero.
type idleBackoff struct {
	sleepEnabled bool
	current      time.Duration
}

const (
	idleBackoffMin = 50 * time.Microsecond
	idleBackoffMax = 5 * time.Millisecond
)

func newIdleBackoff(sleepEnabled bool) *idleBackoff {
	return &idleBackoff{sleepEnabled: sleepEnabled}
}

func (b *idleBackoff) pause() {
	if !b.sleepEnabled {
		return
	}
	if b.current == 0 {
		b.current = idleBackoffMin
	}
	time.Sleep(b.current)
	b.current *= 2
	if b.current > idleBackoffMax {
		b.current = idleBackoffMax
	}
}

func (b *idleBackoff) reset() {
	b.current = 0
}
