// Package arachne is a cooperative M:N user-space threading scheduler:
// lightweight tasks multiplexed over a fixed set of kernel-thread-bound
// cores, with lock-free slot allocation and power-of-two-choices load
// balancing.
//
// A task is created with CreateThreadOn (pinned to a specific core),
// CreateThreadBalanced (power-of-two-choices placement), or the generic
// CreateThread. Every task closure receives a *Task handle through which it
// cooperates with the scheduler: Yield, Sleep, Block, Dispatch, and Join
// are all methods on *Task rather than free functions, since Go has no safe
// way to recover "the currently running task" implicitly from within a
// cooperatively-switched call stack. Signal is the one exception: it can be
// called from any goroutine, not just from within a task, so it is a
// package-level function.
//
// Call Init once at startup to bring the scheduler up, and Shutdown plus
// WaitForTermination to drain it at exit.
package arachne
