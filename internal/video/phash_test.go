package video

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func solidImage(w, h int, c color.Gray) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, c)
		}
	}
	return img
}

func checkerboardImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			} else {
				img.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return img
}

func TestHashIsDeterministic(t *testing.T) {
	img := checkerboardImage(64, 64)
	h1 := Hash(img)
	h2 := Hash(img)
	assert.Equal(t, h1, h2)
}

func TestHashIsFixedWidthHex(t *testing.T) {
	img := checkerboardImage(64, 64)
	h := Hash(img)
	assert.Len(t, h, HashHexWidth)
	_, err := parseHashHex(h)
	assert.NoError(t, err)
}

func TestHashDiffersForDifferentImages(t *testing.T) {
	solid := solidImage(64, 64, color.Gray{Y: 128})
	checker := checkerboardImage(64, 64)

	dist, err := HammingDistance(Hash(solid), Hash(checker))
	assert.NoError(t, err)
	assert.Greater(t, dist, 0)
}

func TestHashStableUnderMinorResize(t *testing.T) {
	a := checkerboardImage(64, 64)
	b := checkerboardImage(66, 62)

	dist, err := HammingDistance(Hash(a), Hash(b))
	assert.NoError(t, err)
	assert.Less(t, dist, HashBits/4, "hash should be largely stable under a small resolution change")
}
