// Package fair implements seeded, reproducible random selection.
//
// All randomness flows through a PCG generator from math/rand/v2 seeded with
// a persisted int64. Given the same seed and input size, Shuffle and
// DrawIndex always return the same result, so any published seed can be
// replayed by a third party to verify a draw.
//
// Shuffle(seed, n) runs a Fisher-Yates shuffle over [0, n).
// DrawIndex(seed, n) returns int(rng.Uint64() % uint64(n)).
package fair

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand/v2"
)

const seedMix = 0x9e3779b97f4a7c15

// NewSeed returns a non-negative int64 from the OS entropy source.
func NewSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("reading entropy: %w", err)
	}
	seed := int64(binary.BigEndian.Uint64(buf[:]) >> 1)
	return seed, nil
}

func rng(seed int64) *mathrand.Rand {
	return mathrand.New(mathrand.NewPCG(uint64(seed), uint64(seed)^seedMix))
}

// Shuffle returns a permutation of [0, n) produced by a Fisher-Yates shuffle
// seeded with seed. The same seed and n always yield the same permutation.
func Shuffle(seed int64, n int) []int {
	r := rng(seed)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// DrawIndex returns a single index in [0, n) for the given seed. n must be
// positive.
func DrawIndex(seed int64, n int) int {
	if n <= 0 {
		panic("fair: DrawIndex requires n > 0")
	}
	return int(rng(seed).Uint64() % uint64(n))
}
