// Package audio implements the audio side of the fingerprinting core:
// decode + resample (C1), spectral peak extraction (C2), and landmark
// hashing (C3).
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/clipguard/videofp/internal/errors"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleRate is the fixed target sample rate C1 resamples every source
// to (spec.md §4.1 "SR = 44100").
const SampleRate = 44100

// Decoder produces a mono float PCM stream in [-1, 1] at SampleRate from
// an arbitrary container.
type Decoder struct {
	// ffmpegPath is overridable in tests; defaults to "ffmpeg" on PATH.
	ffmpegPath string
}

// NewDecoder returns a Decoder that shells out to the system ffmpeg.
func NewDecoder() *Decoder {
	return &Decoder{ffmpegPath: "ffmpeg"}
}

// Decode reads path and returns mono float64 samples at SampleRate.
// Multi-channel sources are downmixed by taking channel 0 — the spec's
// documented reference policy (spec.md §4.1); this must be applied
// identically at index time and query time, which it is since every
// caller goes through this one function. WAV sources already at
// SampleRate are decoded in-process via go-audio/wav, skipping the
// ffmpeg subprocess; anything else (or a WAV at a different rate) is
// piped through ffmpeg's "pan=mono|c0=c0" filter, which selects channel
// 0 explicitly rather than averaging.
func (d *Decoder) Decode(ctx context.Context, path string) ([]float64, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if samples, err := d.decodeWAVFastPath(path); err == nil {
			return samples, nil
		}
	}
	return d.decodeViaFFmpeg(ctx, path)
}

// decodeWAVFastPath decodes a PCM WAV file directly, skipping ffmpeg.
// It only succeeds when the file is already at SampleRate; any other
// case (including a non-PCM or malformed WAV) returns an error so the
// caller falls back to the ffmpeg path, which resamples.
func (d *Decoder) decodeWAVFastPath(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode failed: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("wav decode produced no data")
	}
	if buf.Format.SampleRate != SampleRate {
		return nil, fmt.Errorf("wav sample rate %d does not match target %d", buf.Format.SampleRate, SampleRate)
	}

	return downmixIntBuffer(buf), nil
}

// downmixIntBuffer takes channel 0 of every frame and normalizes by the
// buffer's bit depth. 8-bit samples are unsigned and re-centered at 128;
// everything else is treated as signed and scaled by its full-scale
// constant (spec.md §4.1).
func downmixIntBuffer(buf *goaudio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	numFrames := len(buf.Data) / channels
	out := make([]float64, numFrames)

	if bitDepth == 8 {
		for i := 0; i < numFrames; i++ {
			raw := buf.Data[i*channels]
			out[i] = (float64(raw) - 128.0) / 128.0
		}
		return out
	}

	fullScale := float64(int64(1) << (bitDepth - 1))
	for i := 0; i < numFrames; i++ {
		raw := buf.Data[i*channels]
		out[i] = float64(raw) / fullScale
	}
	return out
}

// decodeViaFFmpeg pipes path through ffmpeg, explicitly selecting
// channel 0 and resampling to SampleRate, and reads back raw f32le
// samples.
func (d *Decoder) decodeViaFFmpeg(ctx context.Context, path string) ([]float64, error) {
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-i", path,
		"-af", "pan=mono|c0=c0",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-loglevel", "error",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Decode(fmt.Sprintf("ffmpeg decode failed for %q", path), fmt.Errorf("%w: %s", err, stderr.String()))
	}

	return bytesToFloat64(stdout.Bytes()), nil
}

func bytesToFloat64(raw []byte) []float64 {
	numSamples := len(raw) / 4
	samples := make([]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4 : (i+1)*4])
		samples[i] = float64(math.Float32frombits(bits))
	}
	return samples
}
