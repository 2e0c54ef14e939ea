// Package slotmap implements the per-core occupancy map: a lock-free
// bitmask plus population count, CAS-updated so any core can reserve or
// release a slot on any other core without a lock.
package slotmap

import (
	"math/bits"
	"sync/atomic"
)

// MaxSlots is the number of slots a single core can host. The mask is 56
// bits rather than 64 to leave room for the population count in the high
// bits of the same machine word.
const MaxSlots = 56

const occupiedMask = (uint64(1) << MaxSlots) - 1

// Full is returned by Reserve when every slot is occupied.
const Full = -1

// Snapshot is a point-in-time read of a MaskAndCount, used by the load
// balancer and by tests that cross-check numOccupied against popcount.
type Snapshot struct {
	Occupied    uint64
	NumOccupied int
}

// MaskAndCount is one core's occupancy state: a 56-bit "slot occupied"
// bitmap and a population-count cache, packed into one machine word so both
// can be updated together with a single CAS.
type MaskAndCount struct {
	word atomic.Uint64
}

// Reserve finds the lowest-numbered free slot, marks it occupied, and
// returns its index. It returns (Full, false) if every slot is occupied.
// Acquire-ordered (via CompareAndSwap) so that writes the caller makes into
// the reserved slot after Reserve returns are visible to the owning core's
// next acquire-load of that slot's wakeup field.
func (m *MaskAndCount) Reserve() (idx int, ok bool) {
	for {
		old := m.word.Load()
		occ := old & occupiedMask
		if occ == occupiedMask {
			return Full, false
		}
		idx = bits.TrailingZeros64(^occ & occupiedMask)
		count := (old >> MaxSlots) + 1
		next := (occ | (uint64(1) << uint(idx))) | (count << MaxSlots)
		if m.word.CompareAndSwap(old, next) {
			return idx, true
		}
	}
}

// Release clears idx's occupied bit and decrements the population count.
// Called only by the owning core when one of its tasks terminates.
func (m *MaskAndCount) Release(idx int) {
	for {
		old := m.word.Load()
		occ := (old &^ (uint64(1) << uint(idx))) & occupiedMask
		count := (old >> MaxSlots) - 1
		next := occ | (count << MaxSlots)
		if m.word.CompareAndSwap(old, next) {
			return
		}
	}
}

// Load is a plain atomic read, used by the load balancer to compare core
// occupancy without taking part in any CAS.
func (m *MaskAndCount) Load() Snapshot {
	v := m.word.Load()
	return Snapshot{
		Occupied:    v & occupiedMask,
		NumOccupied: int(v >> MaxSlots),
	}
}
