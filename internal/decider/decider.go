// Package decider implements the duplicate-decision protocol (C7): it
// consults the fingerprint index for candidates, applies the
// declared-deterministic-symmetric threshold policy, and performs the
// terminal video_status transition.
package decider

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/clipguard/videofp/internal/cache"
	"github.com/clipguard/videofp/internal/errors"
	"github.com/clipguard/videofp/internal/fingerprint"
	"github.com/clipguard/videofp/internal/logger"
	"github.com/clipguard/videofp/internal/metrics"
	"github.com/clipguard/videofp/internal/models"
	"github.com/clipguard/videofp/internal/repository"
)

// Outcome is one of the two terminal decisions C7 produces.
type Outcome string

const (
	OutcomeAdmitted  Outcome = "admitted"
	OutcomeDuplicate Outcome = "duplicate"
)

// Decision is the result of running Decide on one Fingerprint Report.
type Decision struct {
	Outcome    Outcome
	OriginalID string // set only when Outcome == OutcomeDuplicate
}

// Policy bundles the candidate-generation thresholds spec.md §4.7
// requires to be "declared, deterministic, and symmetric". These are
// the reference values (K_v=5 frame hashes, K_a=20 landmarks, any
// matching hash triggers duplicate); nothing in the decider depends on
// the specific numbers beyond treating them as fixed inputs, so
// tightening the policy (e.g. requiring >=M matches) only touches this
// struct and visualCandidates/bandCandidates/audioCandidates, never the
// transaction/ordering logic below.
type Policy struct {
	CandidateKVisual int
	CandidateKAudio  int
	BatchSize        int
}

// DefaultPolicy returns spec.md §4.7's reference policy.
func DefaultPolicy() Policy {
	return Policy{CandidateKVisual: 5, CandidateKAudio: 20, BatchSize: 100}
}

// Decider orchestrates candidate lookup, threshold test, and terminal
// state transition in the index (spec.md §4.7). It is the only writer
// of video_status beyond Admit.
type Decider struct {
	index  repository.FingerprintIndex
	bands  *cache.BandCache
	policy Policy
}

// New builds a Decider. bands may be nil — a nil *cache.BandCache is a
// safe no-op accelerator, so BandCandidates always falls back to the
// index's own band_index table (spec.md §3's cache is optional).
func New(index repository.FingerprintIndex, bands *cache.BandCache, policy Policy) *Decider {
	return &Decider{index: index, bands: bands, policy: policy}
}

// Decide consults the index for candidates and performs the status
// transition, per spec.md §4.7. The write ordering invariant (status
// transition + hash-index writes as one transactional unit) is
// delegated entirely to repository.FingerprintIndex's
// CommitAdmission/CommitDuplicate — this function never issues a raw
// write itself. The whole candidate-query-then-commit sequence runs
// inside index.Serialized, so two videos with identical content
// submitted at the same instant can never both observe zero candidates
// and both get admitted (spec.md §5 Scenario 5) — the second one to
// acquire the lock always sees the first one's committed hashes.
func (d *Decider) Decide(ctx context.Context, report *fingerprint.Report) (*Decision, error) {
	videoID := report.VideoID
	var decision *Decision

	err := d.index.Serialized(ctx, func(ctx context.Context) error {
		visualCandidates, err := d.visualCandidates(ctx, videoID, report)
		if err != nil {
			return errors.Index("failed to query visual candidates", err)
		}

		audioCandidates, err := d.audioCandidates(ctx, videoID, report)
		if err != nil {
			return errors.Index("failed to query audio candidates", err)
		}

		candidates := mergeSorted(visualCandidates, audioCandidates)
		m := metrics.GetManager().Fingerprint
		m.CandidatesPerDecision.WithLabelValues("visual").Observe(float64(len(visualCandidates)))
		m.CandidatesPerDecision.WithLabelValues("audio").Observe(float64(len(audioCandidates)))

		if len(candidates) > 0 {
			original := candidates[0] // lowest video_id lexicographically (spec.md §4.7 tie-break)
			if err := d.index.CommitDuplicate(ctx, videoID, original); err != nil {
				return errors.Index("failed to commit duplicate decision", err)
			}
			m.DecisionsTotal.WithLabelValues(string(OutcomeDuplicate)).Inc()
			logger.Log.Info("video marked duplicate",
				logger.WithVideoID(videoID), zap.String("original_id", original))
			decision = &Decision{Outcome: OutcomeDuplicate, OriginalID: original}
			return nil
		}

		hashes, bandRows, landmarks := d.indexRows(report)
		if err := d.index.CommitAdmission(ctx, videoID, hashes, bandRows, landmarks, d.policy.BatchSize); err != nil {
			return errors.Index("failed to commit admission", err)
		}

		m.DecisionsTotal.WithLabelValues(string(OutcomeAdmitted)).Inc()
		logger.Log.Info("video admitted", logger.WithVideoID(videoID))
		decision = &Decision{Outcome: OutcomeAdmitted}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if decision.Outcome == OutcomeAdmitted {
		if err := d.warmBandCache(ctx, videoID, report); err != nil {
			logger.Log.Warn("failed to warm band cache after admission",
				logger.WithVideoID(videoID), zap.Error(err))
		}
	}

	return decision, nil
}

func (d *Decider) visualCandidates(ctx context.Context, videoID string, report *fingerprint.Report) ([]string, error) {
	k := d.policy.CandidateKVisual
	if k > len(report.FrameHashes) {
		k = len(report.FrameHashes)
	}

	hashes := make([]string, 0, k)
	for _, fh := range report.FrameHashes[:k] {
		hashes = append(hashes, fh.Hash)
	}

	fromHashes, err := d.index.FrameHashCandidates(ctx, videoID, hashes)
	if err != nil {
		return nil, err
	}

	fromBands, err := d.bandCandidates(ctx, videoID, report)
	if err != nil {
		return nil, err
	}

	return mergeSorted(fromHashes, fromBands), nil
}

func (d *Decider) bandCandidates(ctx context.Context, videoID string, report *fingerprint.Report) ([]string, error) {
	var lookups []repository.BandLookup
	seen := make(map[string]struct{})
	var cached []string

	for _, fh := range report.FrameHashes {
		for _, b := range fh.Bands {
			if d.bands != nil {
				if hits, err := d.bands.Lookup(ctx, b.Index, b.Value); err == nil {
					for _, v := range hits {
						if v != videoID {
							if _, ok := seen[v]; !ok {
								seen[v] = struct{}{}
								cached = append(cached, v)
							}
						}
					}
				}
			}
			lookups = append(lookups, repository.BandLookup{BandIndex: b.Index, BandValue: b.Value})
		}
	}

	fromIndex, err := d.index.BandCandidates(ctx, videoID, lookups)
	if err != nil {
		return nil, err
	}

	return mergeSorted(cached, fromIndex), nil
}

func (d *Decider) audioCandidates(ctx context.Context, videoID string, report *fingerprint.Report) ([]string, error) {
	k := d.policy.CandidateKAudio
	if k > len(report.Landmarks) {
		k = len(report.Landmarks)
	}

	hashes := make([]uint64, 0, k)
	for _, lm := range report.Landmarks[:k] {
		hashes = append(hashes, lm.Hash)
	}

	return d.index.AudioHashCandidates(ctx, videoID, hashes)
}

func (d *Decider) indexRows(report *fingerprint.Report) ([]models.VideoHash, []models.VideoLSHBand, []models.AudioHash) {
	hashes := make([]models.VideoHash, 0, len(report.FrameHashes))
	var bandRows []models.VideoLSHBand
	for _, fh := range report.FrameHashes {
		hashes = append(hashes, models.VideoHash{
			VideoID:    report.VideoID,
			FrameIndex: fh.FrameIndex,
			HashValue:  fh.Hash,
		})
		for _, b := range fh.Bands {
			bandRows = append(bandRows, models.VideoLSHBand{
				VideoID:   report.VideoID,
				BandIndex: b.Index,
				BandValue: b.Value,
			})
		}
	}

	landmarks := make([]models.AudioHash, 0, len(report.Landmarks))
	for _, lm := range report.Landmarks {
		landmarks = append(landmarks, models.AudioHash{
			VideoID:    report.VideoID,
			Hash:       lm.Hash,
			TimeOffset: lm.TimeOffset,
		})
	}

	return hashes, bandRows, landmarks
}

func (d *Decider) warmBandCache(ctx context.Context, videoID string, report *fingerprint.Report) error {
	if d.bands == nil {
		return nil
	}
	for _, fh := range report.FrameHashes {
		for _, b := range fh.Bands {
			if err := d.bands.Add(ctx, b.Index, b.Value, videoID); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeSorted returns the deduplicated, lexicographically sorted union
// of two already-sorted-or-unsorted id slices. Candidate sets from the
// hash index, the band index, and the optional cache are unioned this
// way before the tie-break picks the lowest id.
func mergeSorted(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range a {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
