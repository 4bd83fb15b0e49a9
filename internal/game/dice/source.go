package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// SeededSource is a deterministic Source. Two SeededSources built from the same
// seed produce the same sequence, which makes whole encounters replayable.
//
// Invariant: Draws() equals the number of Intn calls made so far.
type SeededSource struct {
	seed  int64
	draws uint64
	rng   *rand.Rand
}

// NewSeededSource returns a SeededSource positioned at the start of seed's sequence.
func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a value in [0, n) and advances the draw counter.
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" otherwise.
func (s *SeededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.draws++
	return s.rng.Intn(n)
}

// Seed returns the seed the source was built from.
func (s *SeededSource) Seed() int64 { return s.seed }

// Draws returns how many values have been drawn.
func (s *SeededSource) Draws() uint64 { return s.draws }

// NewSeed generates a random seed using crypto/rand, for encounters that are not
// given an explicit seed.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("dice: reading random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
