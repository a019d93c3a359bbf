package video

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSplitBandsCount(t *testing.T) {
	bands, err := SplitBands("0123456789abcdef")
	assert.NoError(t, err)
	assert.Len(t, bands, BandCount)
	assert.Equal(t, Band{Index: 0, Value: 0x0123}, bands[0])
	assert.Equal(t, Band{Index: 1, Value: 0x4567}, bands[1])
	assert.Equal(t, Band{Index: 2, Value: 0x89ab}, bands[2])
	assert.Equal(t, Band{Index: 3, Value: 0xcdef}, bands[3])
}

func TestSplitBandsWrongWidthErrors(t *testing.T) {
	_, err := SplitBands("0123")
	assert.Error(t, err)
}

func TestSplitBandsInvalidHexErrors(t *testing.T) {
	_, err := SplitBands("zzzzzzzzzzzzzzzz")
	assert.Error(t, err)
}

func TestSplitBandsCoversEveryHexChar(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint64().Draw(t, "hash")
		hash := fmt.Sprintf("%016x", v)

		bands, err := SplitBands(hash)
		assert.NoError(t, err)
		assert.Len(t, bands, BandCount)

		reassembled := ""
		for _, b := range bands {
			reassembled += fmt.Sprintf("%04x", b.Value)
		}
		assert.Equal(t, hash, reassembled)
	})
}
