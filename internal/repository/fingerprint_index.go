// Package repository exposes the five abstract relations spec.md §3
// requires of the external metadata store (frame_hash_index,
// audio_hash_index, band_index, video_status, plus video admission)
// behind a single interface, backed by GORM/Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/clipguard/videofp/internal/models"
	"gorm.io/gorm"
)

var ErrVideoNotFound = errors.New("video not found")

// FingerprintIndex is the store-facing boundary of the duplicate decider
// (C7). Every method that mutates state is safe to call concurrently
// with other deciders: CommitAdmission and CommitDuplicate each run
// inside one transaction, so a status flip and its hash-index writes are
// never observed half-done (spec.md §5's "no half-written index").
type FingerprintIndex interface {
	// Admit registers video_id in video_status as processing. Must be
	// called before any hash of video_id appears in any hash index.
	Admit(ctx context.Context, videoID, r2Key, userID string) error

	// Status returns the current video_status row, or ErrVideoNotFound.
	Status(ctx context.Context, videoID string) (*models.Video, error)

	// FrameHashCandidates looks up frame_hash_index for each hash and
	// returns the distinct video_ids found, excluding self.
	FrameHashCandidates(ctx context.Context, self string, hashes []string) ([]string, error)

	// BandCandidates looks up band_index for each (band_index,
	// band_value) pair and returns the distinct video_ids found,
	// excluding self.
	BandCandidates(ctx context.Context, self string, bands []BandLookup) ([]string, error)

	// AudioHashCandidates looks up audio_hash_index for each landmark
	// hash and returns the distinct video_ids found, excluding self.
	AudioHashCandidates(ctx context.Context, self string, hashes []uint64) ([]string, error)

	// CommitAdmission transitions video_status[videoID] -> active and
	// inserts every frame hash, band, and landmark in one transaction,
	// batched at batchSize rows per INSERT statement (spec.md §4.7).
	CommitAdmission(ctx context.Context, videoID string, hashes []models.VideoHash, bands []models.VideoLSHBand, landmarks []models.AudioHash, batchSize int) error

	// CommitDuplicate transitions video_status[videoID] -> duplicate(originalID)
	// without touching any hash index.
	CommitDuplicate(ctx context.Context, videoID, originalID string) error

	// Serialized runs fn holding a single global decision lock for its
	// whole duration, and rebinds every FingerprintIndex call fn makes
	// against the ctx it is given to one shared transaction. This closes
	// the race where two videos with identical content, submitted at the
	// same instant, each query candidates before either has committed:
	// without a lock spanning query-then-commit, both observe zero
	// candidates and both get admitted (spec.md §5 Scenario 5 requires
	// exactly one admitted, one marked duplicate). Callers must issue
	// every candidate query and every Commit{Admission,Duplicate} call
	// for one decision through the ctx fn receives, not the ctx Serialized
	// itself was called with.
	Serialized(ctx context.Context, fn func(ctx context.Context) error) error
}

// BandLookup is one (band_index, band_value) pair to resolve against
// band_index.
type BandLookup struct {
	BandIndex int
	BandValue uint16
}

type gormFingerprintIndex struct {
	db *gorm.DB
}

// NewFingerprintIndex builds a FingerprintIndex backed by db.
func NewFingerprintIndex(db *gorm.DB) FingerprintIndex {
	return &gormFingerprintIndex{db: db}
}

// fingerprintTxKey is the context key Serialized uses to hand its
// transaction down to every FingerprintIndex call made with the ctx it
// passes to fn.
type fingerprintTxKey struct{}

// decisionLockKey is the fixed Postgres advisory-lock key serializing
// every decider's query-then-commit sequence. A single global key (not
// one derived per content hash) is deliberate: admission volume is low
// enough that serializing all decisions is cheap, and it is trivially
// correct where a per-hash key would need its own proof that no two
// distinct hashes of the same video ever map to the same lock.
const decisionLockKey = 726152

// session returns the transaction Serialized bound to ctx, if any,
// otherwise a fresh session scoped to ctx.
func (r *gormFingerprintIndex) session(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(fingerprintTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Serialized opens one transaction, takes a Postgres transaction-scoped
// advisory lock for its entire duration (released automatically at
// commit or rollback), and runs fn with that transaction bound to its
// ctx. SQLite (used in tests) has no advisory locks; SQLite's own
// single-writer transaction semantics already serialize concurrent
// commits, so the lock step is skipped there and the transaction alone
// closes the race.
func (r *gormFingerprintIndex) Serialized(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", decisionLockKey).Error; err != nil {
				return fmt.Errorf("failed to acquire decision lock: %w", err)
			}
		}
		return fn(context.WithValue(ctx, fingerprintTxKey{}, tx))
	})
}

func (r *gormFingerprintIndex) Admit(ctx context.Context, videoID, r2Key, userID string) error {
	v := &models.Video{
		ID:     videoID,
		R2Key:  r2Key,
		UserID: userID,
		Status: models.StatusProcessing,
	}
	return r.session(ctx).Create(v).Error
}

func (r *gormFingerprintIndex) Status(ctx context.Context, videoID string) (*models.Video, error) {
	var v models.Video
	err := r.session(ctx).Where("id = ?", videoID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *gormFingerprintIndex) FrameHashCandidates(ctx context.Context, self string, hashes []string) ([]string, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	var videoIDs []string
	err := r.session(ctx).
		Model(&models.VideoHash{}).
		Distinct("video_id").
		Where("hash_value IN ? AND video_id <> ?", hashes, self).
		Pluck("video_id", &videoIDs).Error
	if err != nil {
		return nil, err
	}
	return dedupeSorted(videoIDs), nil
}

func (r *gormFingerprintIndex) BandCandidates(ctx context.Context, self string, bands []BandLookup) ([]string, error) {
	if len(bands) == 0 {
		return nil, nil
	}
	var videoIDs []string
	group := r.db.Session(&gorm.Session{NewDB: true}).Where("band_index = ? AND band_value = ?", bands[0].BandIndex, bands[0].BandValue)
	for _, b := range bands[1:] {
		group = group.Or("band_index = ? AND band_value = ?", b.BandIndex, b.BandValue)
	}
	err := r.session(ctx).
		Model(&models.VideoLSHBand{}).
		Distinct("video_id").
		Where("video_id <> ?", self).
		Where(group).
		Pluck("video_id", &videoIDs).Error
	if err != nil {
		return nil, err
	}
	return dedupeSorted(videoIDs), nil
}

func (r *gormFingerprintIndex) AudioHashCandidates(ctx context.Context, self string, hashes []uint64) ([]string, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	var videoIDs []string
	err := r.session(ctx).
		Model(&models.AudioHash{}).
		Distinct("video_id").
		Where("hash IN ? AND video_id <> ?", hashes, self).
		Pluck("video_id", &videoIDs).Error
	if err != nil {
		return nil, err
	}
	return dedupeSorted(videoIDs), nil
}

func (r *gormFingerprintIndex) CommitAdmission(ctx context.Context, videoID string, hashes []models.VideoHash, bands []models.VideoLSHBand, landmarks []models.AudioHash, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	return r.session(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Video{}).
			Where("id = ? AND status = ?", videoID, models.StatusProcessing).
			Update("status", models.StatusActive)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("video %q is not in processing state", videoID)
		}
		if len(hashes) > 0 {
			if err := tx.CreateInBatches(hashes, batchSize).Error; err != nil {
				return err
			}
		}
		if len(bands) > 0 {
			if err := tx.CreateInBatches(bands, batchSize).Error; err != nil {
				return err
			}
		}
		if len(landmarks) > 0 {
			if err := tx.CreateInBatches(landmarks, batchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormFingerprintIndex) CommitDuplicate(ctx context.Context, videoID, originalID string) error {
	return r.session(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Video{}).
			Where("id = ? AND status = ?", videoID, models.StatusProcessing).
			Updates(map[string]interface{}{
				"status":             models.StatusDuplicate,
				"original_video_id": originalID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("video %q is not in processing state", videoID)
		}
		return nil
	})
}

// dedupeSorted returns ids deduplicated and sorted lexicographically, so
// the decider's "lowest video_id" tie-break (spec.md §4.7) is reproducible
// without re-sorting at every call site.
func dedupeSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
