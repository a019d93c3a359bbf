package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestPackLandmarkRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f1 := rapid.IntRange(0, 2047).Draw(t, "f1")
		f2 := rapid.IntRange(0, 2047).Draw(t, "f2")
		deltaT := rapid.IntRange(AnchorOffset, TargetZoneSize+AnchorOffset).Draw(t, "deltaT")

		hash := PackLandmark(f1, f2, deltaT)

		gotF1 := int(hash >> 23)
		gotF2 := int((hash >> 9) & 0x3FFF)
		gotDeltaT := int(hash & 0x1FF)

		assert.Equal(t, f1, gotF1)
		assert.Equal(t, f2, gotF2)
		assert.Equal(t, deltaT, gotDeltaT)
	})
}

func TestGenerateLandmarksRespectsTimeCone(t *testing.T) {
	peaks := []Peak{
		{Window: 0, Bin: 20},
		{Window: 0, Bin: 55},
		{Window: 3, Bin: 90},
		{Window: 6, Bin: 200},
		{Window: 20, Bin: 300}, // far outside every anchor's cone
	}

	landmarks := GenerateLandmarks(peaks)

	for _, lm := range landmarks {
		deltaT := lm.Hash & 0x1FF
		assert.GreaterOrEqual(t, deltaT, uint64(AnchorOffset))
		assert.LessOrEqual(t, deltaT, uint64(TargetZoneSize+AnchorOffset))
	}

	// the last peak is farther than TargetZoneSize+AnchorOffset from every
	// earlier peak, so it never appears as a target.
	for _, lm := range landmarks {
		_, f2, _ := UnpackLandmark(lm.Hash)
		assert.NotEqual(t, 300, f2)
	}
}

func TestGenerateLandmarksSkipsZeroDelta(t *testing.T) {
	peaks := []Peak{
		{Window: 5, Bin: 20},
		{Window: 5, Bin: 55}, // same window as anchor -> deltaT 0, must be skipped
		{Window: 6, Bin: 90},
	}

	landmarks := GenerateLandmarks(peaks)
	for _, lm := range landmarks {
		assert.NotZero(t, lm.Hash&0x1FF)
	}
}

func TestGenerateLandmarksMonotoneBreak(t *testing.T) {
	// peaks sorted by window; once deltaT exceeds the cone the scan must
	// stop consuming that anchor rather than skip-and-continue.
	peaks := make([]Peak, 0, 10)
	for w := 0; w < 10; w++ {
		peaks = append(peaks, Peak{Window: w, Bin: w + 1})
	}

	landmarks := GenerateLandmarks(peaks)
	assert.NotEmpty(t, landmarks)
	for _, lm := range landmarks {
		assert.LessOrEqual(t, lm.Hash&0x1FF, uint64(TargetZoneSize+AnchorOffset))
	}
}
