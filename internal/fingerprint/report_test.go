package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clipguard/videofp/internal/audio"
)

func TestSortedLandmarksOrdersByTimeOffsetThenFields(t *testing.T) {
	r := &Report{
		Landmarks: []audio.Landmark{
			{Hash: audio.PackLandmark(5, 10, 2), TimeOffset: 3},
			{Hash: audio.PackLandmark(1, 2, 1), TimeOffset: 1},
			{Hash: audio.PackLandmark(9, 9, 3), TimeOffset: 1},
		},
	}

	sorted := r.SortedLandmarks()

	assert.Equal(t, uint32(1), sorted[0].TimeOffset)
	assert.Equal(t, uint32(1), sorted[1].TimeOffset)
	assert.Equal(t, uint32(3), sorted[2].TimeOffset)

	f1a, _, _ := audio.UnpackLandmark(sorted[0].Hash)
	f1b, _, _ := audio.UnpackLandmark(sorted[1].Hash)
	assert.Less(t, f1a, f1b, "within equal time_offset, ordering falls back to f1")
}

func TestSortedLandmarksDoesNotMutateOriginal(t *testing.T) {
	original := []audio.Landmark{
		{Hash: audio.PackLandmark(5, 10, 2), TimeOffset: 3},
		{Hash: audio.PackLandmark(1, 2, 1), TimeOffset: 1},
	}
	r := &Report{Landmarks: append([]audio.Landmark(nil), original...)}

	_ = r.SortedLandmarks()

	assert.Equal(t, original, r.Landmarks)
}

func TestSortedLandmarksEmpty(t *testing.T) {
	r := &Report{}
	assert.Empty(t, r.SortedLandmarks())
}
