package arachne

// CreateThreadBalanced balances fn onto one of two randomly probed cores,
// picking whichever is less loaded: power-of-two-choices placement, the
// default way to create a task when the caller has no reason to pin it to a
// particular core. Returns NullThread if the scheduler
// has not been Init'd, or if both probed cores turn out to be full by the
// time Reserve is attempted (CreateThreadBalanced does not retry against a
// third core; a caller that cares should retry at a higher level).
func CreateThreadBalanced(fn func(*Task)) ThreadId {
	s := snapshotState()
	if s == nil {
		return NullThread
	}
	a, b := probeTwoCores(s)
	// Ties go to the second pick.
	target := a
	if b.load() <= a.load() {
		target = b
	}
	return CreateThreadOn(target.id, fn)
}

// probeTwoCores picks two distinct core indices uniformly at random from
// the scheduler's shared xorshift source, resampling the second pick until
// it differs from the first. With only one core, the only possible choice
// is itself.
func probeTwoCores(s *schedulerState) (*Core, *Core) {
	n := len(s.cores)
	if n == 1 {
		return s.cores[0], s.cores[0]
	}
	i := int(s.rng.Next() % uint64(n))
	j := i
	for j == i {
		j = int(s.rng.Next() % uint64(n))
	}
	return s.cores[i], s.cores[j]
}
