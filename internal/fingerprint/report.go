// Package fingerprint assembles the per-video Fingerprint Report: C8
// drives the audio (C1→C2→C3) and visual (C4→C5→C6) pipelines
// concurrently over one source file and joins their output into the
// immutable bundle the duplicate decider (internal/decider) consumes.
package fingerprint

import (
	"sort"

	"github.com/clipguard/videofp/internal/audio"
)

// FrameHash is one entry of a report's ordered visual sequence.
type FrameHash struct {
	FrameIndex int
	Hash       string
	Bands      []Band
}

// Band mirrors video.Band without importing internal/video into the
// data-model package; the orchestrator fills it in from video.SplitBands.
type Band struct {
	Index int
	Value uint16
}

// Report is the immutable bundle C8 produces and C7 consumes exactly
// once: an ordered sequence of frame hashes (index = seconds since
// start) plus an unordered multiset of audio landmarks.
type Report struct {
	VideoID     string
	FrameHashes []FrameHash
	Landmarks   []audio.Landmark

	// AudioFailed records that the audio pipeline was demoted to a
	// warning (spec.md §4.8/§7) rather than aborting the job. The
	// report still proceeds with visual-only fingerprints.
	AudioFailed bool
}

// SortedLandmarks returns a copy of r.Landmarks ordered by
// (time_offset, f1, f2, Δt), the debug/replay order spec.md §5 requires
// without constraining index-insertion order.
func (r *Report) SortedLandmarks() []audio.Landmark {
	out := append([]audio.Landmark(nil), r.Landmarks...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimeOffset != out[j].TimeOffset {
			return out[i].TimeOffset < out[j].TimeOffset
		}
		f1i, f2i, dti := audio.UnpackLandmark(out[i].Hash)
		f1j, f2j, dtj := audio.UnpackLandmark(out[j].Hash)
		if f1i != f1j {
			return f1i < f1j
		}
		if f2i != f2j {
			return f2i < f2j
		}
		return dti < dtj
	})
	return out
}
