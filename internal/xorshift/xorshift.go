// Package xorshift implements the deterministic RNG the load balancer uses
// to pick its two probe cores: a xorshift-like 64-bit generator seeded
// once per process, with a pre-seeded-queue override for deterministic
// tests. math/rand is deliberately not used here: its global generator is
// not process-seed deterministic across goroutines the way the balancer
// needs, and it has no equivalent of the test-override queue short of
// wrapping it anyway.
package xorshift

import "sync/atomic"

// Source produces the next pseudo-random uint64 in the load balancer's
// probe sequence.
type Source interface {
	Next() uint64
}

// Generator is a xorshift64* generator, seeded once at process start.
type Generator struct {
	state atomic.Uint64
}

// New returns a Generator seeded with seed. A zero seed is remapped to a
// fixed nonzero value, since an all-zero xorshift state never advances.
func New(seed uint64) *Generator {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	g := &Generator{}
	g.state.Store(seed)
	return g
}

// Next advances the generator and returns the next value. Safe for
// concurrent use by multiple cores creating threads simultaneously.
func (g *Generator) Next() uint64 {
	for {
		old := g.state.Load()
		x := old
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
		if g.state.CompareAndSwap(old, x) {
			return x * 0x2545F4914F6CDD1D
		}
	}
}

// Queue is a test-only Source that replays a fixed sequence of values
// instead of generating them, so balancing decisions in tests are
// reproducible. Once exhausted it falls back to a Generator.
type Queue struct {
	values   []uint64
	idx      atomic.Uint64
	fallback *Generator
}

// NewQueue returns a Source that yields values in order, then falls back to
// a freshly seeded Generator once values is exhausted.
func NewQueue(values []uint64) *Queue {
	return &Queue{values: values, fallback: New(1)}
}

func (q *Queue) Next() uint64 {
	i := q.idx.Add(1) - 1
	if int(i) < len(q.values) {
		return q.values[i]
	}
	return q.fallback.Next()
}
