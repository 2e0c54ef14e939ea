// Package lowlevel provides the cooperative context-switch primitive the
// rest of this module is built on top of.
//
// A hand-rolled per-GOARCH register swap that saves callee-preserved
// registers onto the current stack and resumes execution on a stack this
// package owns outright is not safe for ordinary (non-nosplit, allocating)
// Go code: every goroutine stack is registered with the runtime for growth
// and GC scanning, and a raw register swap onto a buffer outside that
// bookkeeping would corrupt both. So instead of re-deriving an unsafe
// version of what the runtime already does, this package reaches for the
// runtime's own coroutine primitive -- the mechanism that has powered
// iter.Pull / range-over-func since Go 1.23 -- via go:linkname.
package lowlevel

import (
	_ "unsafe" // for go:linkname
)

// coro is the runtime's own opaque coroutine handle.
type coro struct{}

//go:linkname newcoro runtime.newcoro
func newcoro(func(*coro)) *coro

//go:linkname coroswitch runtime.coroswitch
func coroswitch(*coro)

//go:linkname coroexit runtime.coroexit
func coroexit(*coro)

// Coro is one task generation's resumable execution. A Coro is built once
// per task generation and is never reused across generations -- a fresh
// task gets a fresh Coro, backed by a fresh runtime-managed stack.
type Coro struct {
	c    *coro
	done bool
}

// NewCoro wraps body so it runs on its own coroutine. body does not start
// running until the first call to Resume; when body returns, the coroutine
// exits permanently and every subsequent Resume is a silent no-op (callers
// are expected to have already observed Done() by then via the normal
// termination protocol, so this is a safety net, not a path exercised in
// practice).
func NewCoro(body func()) *Coro {
	co := &Coro{}
	co.c = newcoro(func(c *coro) {
		body()
		co.done = true
		coroexit(c)
	})
	return co
}

// Resume transfers control into, or back out of, the coroutine. The
// scheduler calls it to run a task; the running task calls the identical
// operation (via Task.Dispatch) to yield back to the scheduler. coroswitch
// is a symmetric toggle, so both directions are this one call.
func (co *Coro) Resume() {
	if co.done {
		return
	}
	coroswitch(co.c)
}

// Done reports whether the coroutine's body has returned.
func (co *Coro) Done() bool {
	return co.done
}
