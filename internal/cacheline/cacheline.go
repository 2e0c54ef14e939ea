// Package cacheline wires golang.org/x/sys/cpu's cache-line geometry into
// the places that need cache-line-sized/aligned padding: the per-slot and
// per-core occupancy words, so adjacent cores polling their own
// MaskAndCount never false-share a line with a neighbor.
package cacheline

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Pad is embedded after a field that must not share a cache line with
// whatever follows it in an array of otherwise-small structs.
type Pad = cpu.CacheLinePad

// Size is the padding granularity golang.org/x/sys/cpu assumes for the
// current GOARCH.
const Size = unsafe.Sizeof(cpu.CacheLinePad{})
