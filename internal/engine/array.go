package engine

import (
	"math/rand/v2"
	"slices"
)

// Rand is the randomness source used to draw permutations.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// globalRand draws from the math/rand/v2 top-level generator.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// ArrayState holds the working array and the pristine backup captured when
// the array was generated.
//
// The working array is mutated live while an algorithm records swaps and
// again while those swaps are replayed. The backup is only ever replaced by
// Generate or Load.
type ArrayState struct {
	rng     Rand
	working []int
	backup  []int
}

// NewArrayState creates an empty ArrayState drawing from rng.
// A nil rng uses the math/rand/v2 global generator.
func NewArrayState(rng Rand) *ArrayState {
	if rng == nil {
		rng = globalRand{}
	}
	return &ArrayState{rng: rng}
}

// Generate produces a uniformly random permutation of 1..n by repeatedly
// drawing a random remaining candidate until none remain. The result becomes
// both the working array and the new backup.
//
// Returns an INVALID_ARGUMENT RuntimeError if n <= 0.
func (s *ArrayState) Generate(n int) ([]int, error) {
	if n <= 0 {
		return nil, NewInvalidArgumentError(n)
	}

	candidates := make([]int, n)
	for i := range candidates {
		candidates[i] = i + 1
	}

	// The drawn slot is refilled with the last candidate.
	out := make([]int, 0, n)
	for len(candidates) > 0 {
		idx := s.rng.IntN(len(candidates))
		out = append(out, candidates[idx])
		last := len(candidates) - 1
		candidates[idx] = candidates[last]
		candidates = candidates[:last]
	}

	s.working = out
	s.backup = slices.Clone(out)
	return slices.Clone(out), nil
}

// Load seeds the working array and backup with explicit values.
// Returns an INVALID_ARGUMENT RuntimeError for an empty slice.
func (s *ArrayState) Load(values []int) error {
	if len(values) == 0 {
		return NewInvalidArgumentError(0)
	}
	s.working = slices.Clone(values)
	s.backup = slices.Clone(values)
	return nil
}

// Swap exchanges two positions of the working array in place.
// Returns an INDEX_OUT_OF_RANGE RuntimeError if either position is outside
// [0, Len); the array is left untouched in that case.
func (s *ArrayState) Swap(a, b int) error {
	if err := s.checkIndex(a); err != nil {
		return err
	}
	if err := s.checkIndex(b); err != nil {
		return err
	}
	s.working[a], s.working[b] = s.working[b], s.working[a]
	return nil
}

// At returns the working value at position i.
func (s *ArrayState) At(i int) (int, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, err
	}
	return s.working[i], nil
}

// Len returns the working array length.
func (s *ArrayState) Len() int {
	return len(s.working)
}

// RestoreFromBackup overwrites the working array with a copy of the backup.
// No-op if no backup exists yet.
func (s *ArrayState) RestoreFromBackup() {
	if s.backup == nil {
		return
	}
	s.working = slices.Clone(s.backup)
}

// Snapshot returns a copy of the working array.
func (s *ArrayState) Snapshot() []int {
	return slices.Clone(s.working)
}

// Backup returns a copy of the pristine backup.
func (s *ArrayState) Backup() []int {
	return slices.Clone(s.backup)
}

// HasBackup reports whether Generate or Load has run.
func (s *ArrayState) HasBackup() bool {
	return s.backup != nil
}

func (s *ArrayState) checkIndex(i int) error {
	if i < 0 || i >= len(s.working) {
		return NewIndexError(i, len(s.working))
	}
	return nil
}
