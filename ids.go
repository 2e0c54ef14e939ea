package arachne

// ThreadId stably identifies one task generation on one slot: a (slot,
// generation) pair. Equality is componentwise (ordinary struct equality),
// and a ThreadId remains meaningful forever -- comparing
// it against the slot's current generation tells you whether the task it
// named is still the one running there, or has long since finished and the
// slot been handed to somebody else.
type ThreadId struct {
	slot       *Slot
	generation uint32
}

// NullThread is the sentinel "no thread" value, returned by CreateThread on
// resource exhaustion.
var NullThread = ThreadId{}

// IsNull reports whether id is the NullThread sentinel.
func (id ThreadId) IsNull() bool {
	return id.slot == nil
}

// MaxThreadsPerCore is the fixed number of slots hosted by each core.
const MaxThreadsPerCore = 56
