package video

import (
	"fmt"
	"math/bits"
)

// HammingDistance returns the number of differing bits between two
// hex-encoded hashes of equal width. Hashes of mismatched width return
// an error rather than a silently truncated comparison, grounded on the
// CineVault reference's hex-pair distance helper generalized to a
// single parse-and-XOR pass over the full 64-bit value.
func HammingDistance(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("video: hash length mismatch: %d != %d", len(a), len(b))
	}

	av, err := parseHashHex(a)
	if err != nil {
		return 0, err
	}
	bv, err := parseHashHex(b)
	if err != nil {
		return 0, err
	}

	return bits.OnesCount64(av ^ bv), nil
}

// Similarity converts a Hamming distance over HashBits total bits into a
// 0..1 fraction of matching bits.
func Similarity(a, b string) (float64, error) {
	dist, err := HammingDistance(a, b)
	if err != nil {
		return 0, err
	}
	return 1.0 - float64(dist)/float64(HashBits), nil
}

// IsDuplicate reports whether two hashes are within maxDistance bits of
// each other.
func IsDuplicate(a, b string, maxDistance int) (bool, error) {
	dist, err := HammingDistance(a, b)
	if err != nil {
		return false, err
	}
	return dist <= maxDistance, nil
}

func parseHashHex(h string) (uint64, error) {
	var v uint64
	_, err := fmt.Sscanf(h, "%x", &v)
	if err != nil {
		return 0, fmt.Errorf("video: invalid hash %q: %w", h, err)
	}
	return v, nil
}
