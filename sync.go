package arachne

import "sync/atomic"

// SpinLock is a pure busy-wait mutex: CompareAndSwap in a tight loop, no
// backoff and no Gosched. It never parks the underlying OS thread, which is
// the point -- a core's dispatcher must never block on anything but the
// cooperative primitives in task.go, and a SpinLock held only briefly (the
// convention every user of it here follows) is cheaper than a full
// park/wake cycle.
type SpinLock struct {
	locked atomic.Bool
}

// Lock spins until the lock is acquired.
func (s *SpinLock) Lock() {
	for !s.locked.CompareAndSwap(false, true) {
	}
}

// TryLock attempts to acquire the lock without spinning.
func (s *SpinLock) TryLock() bool {
	return s.locked.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlock on an unheld lock is a caller error and,
// like sync.Mutex, is not checked for.
func (s *SpinLock) Unlock() {
	s.locked.Store(false)
}

// ConditionVariable is a FIFO queue of parked ThreadIds. Unlike sync.Cond it
// carries no internal mutex of its own: callers are required to hold an
// external SpinLock across both Wait and every Notify, which is also what
// makes the Wait/Notify race impossible -- a Notify that runs between a
// waiter's enqueue and its Dispatch would otherwise be lost, but both
// operations already run under the same lock the waiter only releases right
// before dispatching.
type ConditionVariable struct {
	waiters []ThreadId
}

// Wait enqueues the calling task, marks it blocked, releases lock, and
// dispatches. lock is re-acquired before Wait returns, so the caller's
// critical section resumes exactly where it left off. The caller must
// already hold lock.
//
// The wakeup sentinel is set to Blocked before lock is released, not after:
// releasing the lock first would let a concurrent Notify on another core
// dequeue this waiter and deliver a wakeup while the sentinel still read
// Runnable, a wakeup this task's own subsequent store would then silently
// overwrite, parking it forever with no queue entry left to rescue it.
func (cv *ConditionVariable) Wait(t *Task, lock *SpinLock) {
	cv.waiters = append(cv.waiters, t.ID())
	tok := t.PrepareBlock()
	tok.markBlocked()
	lock.Unlock()
	t.Dispatch()
	lock.Lock()
}

// NotifyOne wakes the longest-waiting task, if any. The caller must hold the
// same lock passed to the waiters' Wait calls.
func (cv *ConditionVariable) NotifyOne() {
	for len(cv.waiters) > 0 {
		id := cv.waiters[0]
		cv.waiters = cv.waiters[1:]
		if signalIfCurrent(id) {
			return
		}
	}
}

// NotifyAll wakes every currently waiting task. The caller must hold the
// same lock passed to the waiters' Wait calls.
func (cv *ConditionVariable) NotifyAll() {
	waiters := cv.waiters
	cv.waiters = nil
	for _, id := range waiters {
		signalIfCurrent(id)
	}
}

// signalIfCurrent wakes id unless its generation has already moved on,
// dropping stale entries the way Signal does for any other caller.
func signalIfCurrent(id ThreadId) bool {
	if id.slot.generation.Load() != id.generation {
		return false
	}
	Signal(id)
	return true
}
