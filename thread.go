package arachne

import (
	"unsafe"

	"github.com/arachne-go/arachne/internal/cycles"
	"github.com/arachne-go/arachne/internal/lowlevel"
)

// maxClosureSize bounds the size of the argument CreateThread accepts. Go
// closures already live on the heap rather than in a fixed inline buffer --
// see slot.go's note on Slot.fn -- so this module has no hard capacity to
// enforce, but an oversized argument is usually a sign the caller meant to
// pass a pointer instead of a value, so CreateThread still carries the
// check as a runtime (not compile-time, generics over arbitrary T make that
// impossible) guard: a panic at creation time, not a surprising heap escape
// discovered later.
const maxClosureSize = 48

// CreateThread creates a new task on the given core, running fn(arg) once
// dispatched, and returns its ThreadId, or NullThread if core has no free
// slot. T's size is checked against maxClosureSize and CreateThread panics
// if it is exceeded.
func CreateThread[T any](core int, fn func(*Task, T), arg T) ThreadId {
	if sz := unsafe.Sizeof(arg); sz > maxClosureSize {
		panic("arachne: CreateThread argument exceeds inline closure size budget")
	}
	return CreateThreadOn(core, func(t *Task) { fn(t, arg) })
}

// CreateThreadOn creates a new task on the given core running fn, and
// returns its ThreadId, or NullThread if core has no free slot. The slot's
// occupancy bit and resumable execution are established atomically from
// the creator's perspective before CreateThreadOn returns, so a concurrent
// Join issued right after can never observe a half-initialized slot.
func CreateThreadOn(core int, fn func(*Task)) ThreadId {
	c := runtimeCore(core)
	if c == nil || c.shutdown.Load() {
		return NullThread
	}
	idx, ok := c.occupancy.Reserve()
	if !ok {
		return NullThread
	}

	slot := &c.slots[idx]
	gen := slot.generation.Load()
	t := &Task{slot: slot}
	slot.fn = fn
	// newcoro's body does not run until the owning core's dispatcher first
	// calls Resume, so constructing it here -- possibly from a different
	// core than the one that will run it -- is safe.
	slot.coro = lowlevel.NewCoro(func() { slot.trampoline(t) })
	slot.wakeup.Store(cycles.Runnable)

	return ThreadId{slot: slot, generation: gen}
}

// Go creates a zero-argument task on the given core: the convenience
// variant for the common case of a closure with no separately-typed
// argument.
func Go(core int, fn func(*Task)) ThreadId {
	return CreateThreadOn(core, fn)
}
