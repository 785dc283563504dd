package rngutil_test

import (
	"testing"

	"github.com/minieda/minieda/rngutil"
	"github.com/stretchr/testify/assert"
)

func TestFromSeedIsDeterministic(t *testing.T) {
	a := rngutil.FromSeed(42)
	b := rngutil.FromSeed(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestFromSeedZeroMapsToDefault(t *testing.T) {
	zero := rngutil.FromSeed(0)
	one := rngutil.FromSeed(1)
	assert.Equal(t, one.Float64(), zero.Float64())
}

func TestDeriveStreamsAreIndependent(t *testing.T) {
	base1 := rngutil.FromSeed(7)
	base2 := rngutil.FromSeed(7)

	s0 := rngutil.Derive(base1, 0)
	s1 := rngutil.Derive(base1, 1)
	first := s0.Int63()
	assert.NotEqual(t, first, s1.Int63())

	// Re-deriving stream 0 from a fresh copy of the same base seed must
	// reproduce the same child stream (determinism across runs).
	s0Again := rngutil.Derive(base2, 0)
	assert.Equal(t, first, s0Again.Int63())
}

func TestShuffleIntsIsDeterministicAndPermutation(t *testing.T) {
	a := []int{0, 1, 2, 3, 4, 5, 6, 7}
	b := append([]int{}, a...)

	rngutil.ShuffleInts(a, rngutil.FromSeed(99))
	rngutil.ShuffleInts(b, rngutil.FromSeed(99))

	assert.Equal(t, a, b)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, a)
}

func TestShuffleIntsShortSlicesAreNoop(t *testing.T) {
	var empty []int
	one := []int{5}
	rngutil.ShuffleInts(empty, nil)
	rngutil.ShuffleInts(one, nil)
	assert.Equal(t, []int{5}, one)
}
