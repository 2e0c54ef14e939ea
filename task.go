package arachne

import (
	"time"

	"github.com/arachne-go/arachne/internal/cycles"
)

// Task is the handle a running task uses to cooperate with the scheduler.
// Go has no safe, portable way to recover "the currently running task" from
// an arbitrary point in a call stack without either hand-rolled
// thread-local storage or relying on undocumented runtime internals, so
// this module threads the handle explicitly instead: every task closure
// receives its own *Task, and the cooperative operations are methods on it.
// This is the idiomatic Go substitute for implicit thread-locals, the same
// way context.Context is threaded explicitly rather than recovered from
// ambient state.
type Task struct {
	slot *Slot
}

// ID returns the ThreadId naming this task's own current generation.
func (t *Task) ID() ThreadId {
	return t.slot.id()
}

// Dispatch is the only suspension point: it saves the task's resumable
// execution and returns control to the scheduler, which immediately resumes
// its scan. Yield, Sleep, Block, and ConditionVariable.Wait are all defined
// in terms of Dispatch.
func (t *Task) Dispatch() {
	t.slot.coro.Resume()
}

// Block is an alias for Dispatch, kept as a distinct method so call sites
// read as "I am blocking," even though the mechanics are identical to any
// other dispatch.
func (t *Task) Block() {
	t.Dispatch()
}

// Yield sets this task's wakeup to Runnable and dispatches: a cooperative
// reschedule that keeps the slot (does not relinquish it), giving every
// other runnable slot on this core a turn first.
func (t *Task) Yield() {
	t.slot.wakeup.Store(cycles.Runnable)
	t.Dispatch()
}

// Sleep sets this task's wakeup to now + d (converted through the core's
// clock) and dispatches. Only Sleep carries a deadline; Block and
// ConditionVariable.Wait are indefinite by design -- they wake only on a
// Signal or Notify, never on a timeout.
func (t *Task) Sleep(d time.Duration) {
	clk := t.slot.core.clock
	deadline := clk.NowCycles() + uint64(float64(d.Nanoseconds())*clk.CyclesPerNanosecond())
	t.slot.wakeup.Store(deadline)
	t.Dispatch()
}

// BlockToken is returned by PrepareBlock and committed by CommitBlock, or by
// the lower-level pair markBlocked/dispatch used internally by
// ConditionVariable.Wait. It exists to give callers building their own
// blocking primitives on top of raw Block/Signal a way to notice that the
// slot's task has already moved on to a new generation between deciding to
// block and actually doing so.
type BlockToken struct {
	t          *Task
	generation uint32
}

// PrepareBlock captures the task's current generation before a cooperative
// block. See BlockToken.
func (t *Task) PrepareBlock() BlockToken {
	return BlockToken{t: t, generation: t.slot.generation.Load()}
}

// markBlocked sets the task's wakeup to Blocked, unless the slot's
// generation has already advanced past the one captured by PrepareBlock (in
// which case it is a no-op: the slot belongs to a different task generation
// now and blocking it would be a stale operation on the wrong task). It
// reports whether the store happened. Split out from CommitBlock so a
// caller that must hold an external lock across the transition can set the
// sentinel while still holding that lock, then release the lock, then
// dispatch, never the other way around: releasing the lock before the
// sentinel is visibly Blocked would let a concurrent notifier observe the
// waiter queued but still marked Runnable and deliver a wakeup that this
// task's own dispatch would otherwise clobber.
func (tok BlockToken) markBlocked() bool {
	if tok.t.slot.generation.Load() != tok.generation {
		return false
	}
	tok.t.slot.wakeup.Store(cycles.Blocked)
	return true
}

// CommitBlock sets the task's wakeup to Blocked and dispatches, unless the
// slot's generation has already advanced past the one captured by
// PrepareBlock, in which case it is a no-op.
func (tok BlockToken) CommitBlock() {
	if tok.markBlocked() {
		tok.t.Dispatch()
	}
}

// Join blocks the calling task until the task named by id terminates, or
// returns immediately if it already has. Multiple joiners, on the same or
// different cores, are permitted.
func (t *Task) Join(id ThreadId) {
	if id.IsNull() {
		return
	}
	if id.slot.generation.Load() != id.generation {
		return
	}
	id.slot.joinLock.Lock()
	for id.slot.generation.Load() == id.generation {
		id.slot.joinCV.Wait(t, &id.slot.joinLock)
	}
	id.slot.joinLock.Unlock()
}

// Signal releases a peer that self-blocked via Block/Dispatch after setting
// its own wakeup to Blocked. Safe to call from any core; a no-op if id's
// generation no longer matches. Signal does not require a Task receiver
// because the caller need not itself be a running task -- the embedder's
// own goroutine may call it to kick off work, the same way
// WaitForTermination is called from outside any task.
func Signal(id ThreadId) {
	if id.IsNull() {
		return
	}
	if id.slot.generation.Load() == id.generation {
		id.slot.wakeup.Store(cycles.Runnable)
	}
}
