//go:build linux

// Package affinity pins the calling OS thread to a single logical CPU, so
// each core's kernel thread gets a dedicated CPU binding. Split by GOOS,
// with a portable no-op fallback for platforms without a pinning syscall.
package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Pin binds the calling OS thread to logical CPU cpuID. Callers must have
// already called runtime.LockOSThread, since affinity is a property of the
// OS thread, not the goroutine.
func Pin(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: pin to cpu %d: %w", cpuID, err)
	}
	return nil
}

// Available reports whether affinity pinning is supported on this platform.
const Available = true
