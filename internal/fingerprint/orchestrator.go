package fingerprint

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/clipguard/videofp/internal/audio"
	"github.com/clipguard/videofp/internal/errors"
	"github.com/clipguard/videofp/internal/logger"
	"github.com/clipguard/videofp/internal/video"
)

// Pipeline drives the audio and visual fingerprint pipelines over one
// source file (C8). It holds only process-wide, read-only
// collaborators — the decoder and frame extractor carry no per-job
// state — so a single Pipeline is shared across concurrent jobs,
// grounded on the teacher's own AudioQueue holding one shared
// S3Uploader across its worker goroutines.
type Pipeline struct {
	decoder   *audio.Decoder
	extractor *video.FrameExtractor
}

// NewPipeline builds a Pipeline whose frame extractor stages
// intermediate PNGs under tempDir (per-job subdirectories are created
// and cleaned up inside video.FrameExtractor.Extract).
func NewPipeline(tempDir string) *Pipeline {
	return &Pipeline{
		decoder:   audio.NewDecoder(),
		extractor: video.NewFrameExtractor(tempDir),
	}
}

type audioResult struct {
	landmarks []audio.Landmark
	failed    bool
}

type visualResult struct {
	frames []FrameHash
	err    error
}

// Run runs the audio and visual pipelines concurrently, each reading
// sourcePath on its own, and joins them into one Report. Audio failures
// are demoted to a warning (spec.md §4.8): the report proceeds with
// visual-only fingerprints and AudioFailed set. Visual failures abort
// the job — the caller must leave video_status at processing and
// retry or garbage-collect, per spec.md §4.8/§7.
func (p *Pipeline) Run(ctx context.Context, videoID, sourcePath string) (*Report, error) {
	var wg sync.WaitGroup
	wg.Add(2)

	var audioOut audioResult
	var visualOut visualResult

	go func() {
		defer wg.Done()
		audioOut = p.runAudio(ctx, videoID, sourcePath)
	}()

	go func() {
		defer wg.Done()
		visualOut = p.runVisual(ctx, sourcePath)
	}()

	wg.Wait()

	if visualOut.err != nil {
		return nil, visualOut.err
	}

	return &Report{
		VideoID:     videoID,
		FrameHashes: visualOut.frames,
		Landmarks:   audioOut.landmarks,
		AudioFailed: audioOut.failed,
	}, nil
}

func (p *Pipeline) runAudio(ctx context.Context, videoID, sourcePath string) audioResult {
	samples, err := p.decoder.Decode(ctx, sourcePath)
	if err != nil {
		logger.Log.Warn("audio pipeline failed, proceeding visual-only",
			logger.WithVideoID(videoID), logger.WithStage("decode"), zap.Error(err))
		return audioResult{failed: true}
	}

	peaks := audio.ExtractPeaks(samples)
	landmarks := audio.GenerateLandmarks(peaks)
	return audioResult{landmarks: landmarks}
}

func (p *Pipeline) runVisual(ctx context.Context, sourcePath string) visualResult {
	frames, err := p.extractor.Extract(ctx, sourcePath)
	if err != nil {
		return visualResult{err: err}
	}

	hashes := make([]FrameHash, len(frames))
	for i, frame := range frames {
		hash := video.Hash(frame)
		bands, err := video.SplitBands(hash)
		if err != nil {
			return visualResult{err: errors.Extract("failed to band-split frame hash", err)}
		}

		reportBands := make([]Band, len(bands))
		for j, b := range bands {
			reportBands[j] = Band{Index: b.Index, Value: b.Value}
		}

		hashes[i] = FrameHash{FrameIndex: i, Hash: hash, Bands: reportBands}
	}

	return visualResult{frames: hashes}
}
