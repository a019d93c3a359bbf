package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHammingDistanceIdenticalIsZero(t *testing.T) {
	dist, err := HammingDistance("0123456789abcdef", "0123456789abcdef")
	assert.NoError(t, err)
	assert.Equal(t, 0, dist)
}

func TestHammingDistanceCountsBits(t *testing.T) {
	// 0x0 vs 0x1 differ by exactly one bit.
	dist, err := HammingDistance("0000000000000000", "0000000000000001")
	assert.NoError(t, err)
	assert.Equal(t, 1, dist)
}

func TestHammingDistanceMismatchedLengthErrors(t *testing.T) {
	_, err := HammingDistance("ab", "abcd")
	assert.Error(t, err)
}

func TestHammingDistanceInvalidHexErrors(t *testing.T) {
	_, err := HammingDistance("zzzzzzzzzzzzzzzz", "0000000000000000")
	assert.Error(t, err)
}

func TestSimilarityFullMatchIsOne(t *testing.T) {
	sim, err := Similarity("ffffffffffffffff", "ffffffffffffffff")
	assert.NoError(t, err)
	assert.Equal(t, 1.0, sim)
}

func TestSimilarityFullMismatchIsZero(t *testing.T) {
	sim, err := Similarity("0000000000000000", "ffffffffffffffff")
	assert.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestIsDuplicateRespectsThreshold(t *testing.T) {
	dup, err := IsDuplicate("0000000000000000", "0000000000000003", 2)
	assert.NoError(t, err)
	assert.True(t, dup)

	dup, err = IsDuplicate("0000000000000000", "0000000000000007", 2)
	assert.NoError(t, err)
	assert.False(t, dup)
}
