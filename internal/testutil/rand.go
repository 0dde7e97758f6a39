package testutil

import (
	"math/rand/v2"
	"sync"
)

// SeededRand is a reproducible source for engine.WithRand.
//
// Two SeededRand values built from the same seed produce the same sequence,
// so CreateNew yields the same array on every test run. Reset rewinds the
// sequence so one scenario can be generated twice with identical values.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SeededRand struct {
	mu   sync.Mutex
	seed uint64
	rng  *rand.Rand
}

// NewSeededRand creates a source seeded with seed.
func NewSeededRand(seed uint64) *SeededRand {
	r := &SeededRand{seed: seed}
	r.rng = rand.New(rand.NewPCG(seed, seed))
	return r
}

// IntN returns a value in [0, n). Panics if n <= 0.
func (r *SeededRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// Seed returns the seed the source was created with.
func (r *SeededRand) Seed() uint64 {
	return r.seed
}

// Reset rewinds the source to its initial state.
func (r *SeededRand) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng = rand.New(rand.NewPCG(r.seed, r.seed))
}
