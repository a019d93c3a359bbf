// Package models holds the GORM row types backing the four relations named
// in spec.md §6 ("Persisted state layout").
package models

import "time"

// VideoStatus is the lifecycle state of a video row (spec.md §3 "video_status").
// Active and Duplicate are terminal and write-once; Processing is the only
// state a row may transition away from.
type VideoStatus string

const (
	StatusProcessing VideoStatus = "processing"
	StatusActive      VideoStatus = "active"
	StatusDuplicate   VideoStatus = "duplicate"
)

// Video is the `videos` relation: videos(id PK, r2_key, user_id, status,
// uploaded_at, original_video_id NULL).
type Video struct {
	ID               string      `gorm:"primaryKey;type:varchar(255)" json:"id"`
	R2Key            string      `gorm:"not null" json:"r2_key"`
	UserID           string      `gorm:"index" json:"user_id"`
	Status           VideoStatus `gorm:"not null;default:processing;index" json:"status"`
	UploadedAt       time.Time   `json:"uploaded_at"`
	OriginalVideoID  *string     `gorm:"index" json:"original_video_id,omitempty"`
}

// VideoHash is the `video_hashes` relation: video_hashes(video_id,
// frame_index, hash_value). Backs frame_hash_index: (hash_value) →
// set of (video_id, frame_index).
type VideoHash struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	VideoID    string `gorm:"not null;index" json:"video_id"`
	FrameIndex int    `gorm:"not null" json:"frame_index"`
	HashValue  string `gorm:"not null;index:idx_video_hashes_value" json:"hash_value"`
}

// VideoLSHBand is the `video_lsh_bands` relation: video_lsh_bands(video_id,
// band_index, band_value). Backs band_index: (band_index, band_value) →
// set of video_id — the optional LSH accelerator of spec.md §3.
type VideoLSHBand struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	VideoID   string `gorm:"not null;index" json:"video_id"`
	BandIndex int    `gorm:"not null;index:idx_lsh_band,priority:1" json:"band_index"`
	BandValue uint16 `gorm:"not null;index:idx_lsh_band,priority:2" json:"band_value"`
}

// AudioHash is the `audio_hashes` relation: audio_hashes(video_id, hash,
// time_offset). Backs audio_hash_index: (hash) → set of (video_id,
// time_offset).
type AudioHash struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	VideoID    string `gorm:"not null;index" json:"video_id"`
	Hash       uint64 `gorm:"not null;index:idx_audio_hashes_hash" json:"hash"`
	TimeOffset uint32 `gorm:"not null" json:"time_offset"`
}

func (Video) TableName() string        { return "videos" }
func (VideoHash) TableName() string    { return "video_hashes" }
func (VideoLSHBand) TableName() string { return "video_lsh_bands" }
func (AudioHash) TableName() string    { return "audio_hashes" }
