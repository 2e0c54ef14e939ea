// Package cycles supplies the monotonic "cycle counter" the scheduler times
// wakeups against. Rather than reading the TSC via inline assembly,
// nanoseconds since an epoch captured at Init stand in for "cycles"
// directly, so CyclesPerNanosecond is always 1.0. A deadline is always
// computed as now + ns*cyclesPerNs and compared with wakeup <= now; only the
// unit backing that arithmetic changes relative to a TSC-based clock, not
// the arithmetic itself. A real TSC implementation would additionally
// calibrate tick rate against wall time once at startup; that calibration
// step is unnecessary here because the unit is already nanoseconds.
package cycles

import "time"

// Clock is the external collaborator the dispatcher and Sleep read from.
type Clock interface {
	// NowCycles returns the current time in "cycles" (nanoseconds since the
	// clock was created).
	NowCycles() uint64
	// CyclesPerNanosecond converts a nanosecond duration to a cycle delta.
	CyclesPerNanosecond() float64
}

type monotonic struct {
	start time.Time
}

// New returns a Clock whose epoch is the moment it is created.
func New() Clock {
	return &monotonic{start: time.Now()}
}

func (c *monotonic) NowCycles() uint64 {
	return uint64(time.Since(c.start))
}

func (c *monotonic) CyclesPerNanosecond() float64 {
	return 1.0
}

// Sentinel values multiplexed into a slot's wakeup-time field: a value at or
// below the current cycle count means runnable, and these three reserved
// values mark the states that aren't a real deadline.
const (
	// Runnable marks a slot eligible to run immediately.
	Runnable uint64 = 0
	// Blocked marks a slot as parked indefinitely, awaiting a Signal or
	// ConditionVariable notify.
	Blocked uint64 = ^uint64(0)
	// Unoccupied marks a slot with no live task.
	Unoccupied uint64 = ^uint64(0) - 1
)
