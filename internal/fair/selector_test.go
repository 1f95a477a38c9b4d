package fair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeedNonNegative(t *testing.T) {
	t.Parallel()

	for i := 0; i < 64; i++ {
		seed, err := NewSeed()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, seed, int64(0))
	}
}

func TestShuffleDeterministic(t *testing.T) {
	t.Parallel()

	first := Shuffle(42, 16)
	second := Shuffle(42, 16)
	assert.Equal(t, first, second)
}

func TestShuffleIsPermutation(t *testing.T) {
	t.Parallel()

	perm := Shuffle(7, 32)
	require.Len(t, perm, 32)

	seen := make(map[int]bool, 32)
	for _, v := range perm {
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 32)
		assert.False(t, seen[v], "duplicate index %d", v)
		seen[v] = true
	}
}

func TestShuffleDifferentSeeds(t *testing.T) {
	t.Parallel()

	// Two seeds producing identical permutations of 32 elements would be
	// astronomically unlikely with a working generator.
	assert.NotEqual(t, Shuffle(1, 32), Shuffle(2, 32))
}

func TestShuffleEmptyAndSingle(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Shuffle(99, 0))
	assert.Equal(t, []int{0}, Shuffle(99, 1))
}

func TestDrawIndexDeterministic(t *testing.T) {
	t.Parallel()

	first := DrawIndex(1234, 10)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DrawIndex(1234, 10))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 10)
}

func TestDrawIndexSingleEntry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, DrawIndex(555, 1))
}

func TestDrawIndexPanicsOnEmpty(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { DrawIndex(1, 0) })
}
