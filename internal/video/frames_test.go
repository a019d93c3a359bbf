package video

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrameExtractorDefaultsTempDir(t *testing.T) {
	f := NewFrameExtractor("")
	assert.Equal(t, os.TempDir(), f.tempDir)
}

func TestNewFrameExtractorCreatesConfiguredDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "frames")
	f := NewFrameExtractor(dir)
	assert.Equal(t, dir, f.tempDir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDecodeFramePNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame_000001.png")

	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(0, 0, color.Gray{Y: 200})

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	decoded, err := decodeFrame(path)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
	assert.Equal(t, 4, decoded.Bounds().Dy())
}

func TestDecodeFrameMissingFileErrors(t *testing.T) {
	_, err := decodeFrame(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
