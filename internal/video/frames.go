// Package video implements the visual side of the fingerprinting core:
// frame decimation (C4), DCT-based perceptual hashing (C5), and LSH band
// splitting (C6).
package video

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/clipguard/videofp/internal/errors"
)

// FPS is the fixed decimation rate C4 extracts frames at (spec.md §4.4).
const FPS = 1

// FrameExtractor decimates a source video to FPS frames per second using
// ffmpeg, grounded on the same subprocess-and-tempdir shape as the
// teacher's audio FFmpegProcessor.
type FrameExtractor struct {
	ffmpegPath string
	tempDir    string
}

// NewFrameExtractor returns an extractor that writes intermediate PNGs
// under tempDir (created if missing).
func NewFrameExtractor(tempDir string) *FrameExtractor {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	os.MkdirAll(tempDir, 0755)
	return &FrameExtractor{ffmpegPath: "ffmpeg", tempDir: tempDir}
}

// Extract decodes videoPath to an ordered sequence of RGB images, one
// per second of source time starting at t=0 (frame_index = 0 is the
// first). Fails with ExtractError if the demuxer can't be opened or zero
// frames result.
func (f *FrameExtractor) Extract(ctx context.Context, videoPath string) ([]image.Image, error) {
	dir, err := os.MkdirTemp(f.tempDir, "frames-*")
	if err != nil {
		return nil, errors.Extract("failed to create frame temp dir", err)
	}
	defer os.RemoveAll(dir)

	pattern := filepath.Join(dir, "frame_%06d.png")
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%d", FPS),
		"-loglevel", "error",
		"-y",
		pattern,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, errors.Extract(fmt.Sprintf("ffmpeg frame extraction failed for %q", videoPath), fmt.Errorf("%w: %s", err, out))
	}

	files, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	if err != nil {
		return nil, errors.Extract("failed to list extracted frames", err)
	}
	if len(files) == 0 {
		return nil, errors.Extract(fmt.Sprintf("no frames extracted from %q", videoPath), nil)
	}
	sort.Strings(files)

	frames := make([]image.Image, len(files))
	for i, path := range files {
		img, err := decodeFrame(path)
		if err != nil {
			return nil, errors.Extract(fmt.Sprintf("failed to decode frame %d", i), err)
		}
		frames[i] = img
	}

	return frames, nil
}

func decodeFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
