package arachne

import (
	"sync/atomic"

	"github.com/arachne-go/arachne/internal/cacheline"
	"github.com/arachne-go/arachne/internal/cycles"
	"github.com/arachne-go/arachne/internal/lowlevel"
)

// Slot is one fixed record per task slot, holding the resumable execution
// (Coro, standing in for the saved stack pointer), the wakeup/occupancy
// sentinel, the generation counter, and the join machinery. Exactly
// MaxThreadsPerCore of these exist per core, allocated once at Init and
// reused -- never freed -- across however many task generations pass
// through them.
type Slot struct {
	core *Core
	idx  int // idInCore: read-only after Init.

	// wakeup multiplexes runnable/blocked/unoccupied/sleeping into a single
	// field. Writers use release stores; the dispatcher uses acquire loads,
	// which is what sync/atomic.Uint64 gives by default in Go.
	wakeup atomic.Uint64

	// generation increases by one every time this slot's task terminates.
	// Combined with the slot's address it forms a ThreadId.
	generation atomic.Uint32

	joinLock SpinLock
	joinCV   ConditionVariable

	// coro is the currently loaded task's resumable execution, or nil if
	// the slot is unoccupied. Only the owning core's dispatcher ever reads
	// or writes this, except CreateThread, which constructs a fresh one into
	// a slot it has just reserved, before the slot is marked runnable.
	coro *lowlevel.Coro

	// fn is the task closure for the slot's current generation. Go closures
	// already carry their captured environment on the heap, so there is no
	// separate inline storage to manage the way a hand-rolled placement-new
	// closure would need.
	fn func(*Task)

	_ cacheline.Pad
}

func newSlots(core *Core) [MaxThreadsPerCore]Slot {
	var slots [MaxThreadsPerCore]Slot
	for i := range slots {
		slots[i].core = core
		slots[i].idx = i
		slots[i].wakeup.Store(cycles.Unoccupied)
	}
	return slots
}

// id returns the ThreadId naming this slot's current generation.
func (s *Slot) id() ThreadId {
	return ThreadId{slot: s, generation: s.generation.Load()}
}

// runnableAt reports whether the slot is eligible to run at cycle time now.
func (s *Slot) runnableAt(now uint64) bool {
	return s.wakeup.Load() <= now
}

// trampoline is the per-slot bootstrap: run the task closure (recovering a
// panic rather than letting it escape and take the dispatcher down with
// it), mark the slot unoccupied, bump the generation, wake joiners, and
// release the occupancy bit. The generation is bumped before any joiner is
// woken, so a joiner resumed on another core never observes a stale
// generation when it rechecks it.
func (s *Slot) trampoline(t *Task) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.core.logger.Error("task panic recovered",
					"core", s.core.id, "slot", s.idx, "panic", r)
			}
		}()
		s.fn(t)
	}()

	s.wakeup.Store(cycles.Unoccupied)
	s.generation.Add(1)

	s.joinLock.Lock()
	s.joinCV.NotifyAll()
	s.joinLock.Unlock()

	s.core.occupancy.Release(s.idx)
}
