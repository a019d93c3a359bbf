package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipguard/videofp/internal/kernel"
	"github.com/clipguard/videofp/internal/models"
	"github.com/clipguard/videofp/internal/queue"
	"github.com/clipguard/videofp/internal/repository"
)

// fakeIndex is a minimal repository.FingerprintIndex double: no database,
// no fingerprinting, just enough to exercise the handler's branches.
type fakeIndex struct {
	statusResult *models.Video
	statusErr    error
	admitErr     error
}

func (f *fakeIndex) Admit(ctx context.Context, videoID, r2Key, userID string) error {
	return f.admitErr
}
func (f *fakeIndex) Status(ctx context.Context, videoID string) (*models.Video, error) {
	if f.statusResult != nil {
		return f.statusResult, nil
	}
	return nil, f.statusErr
}
func (f *fakeIndex) FrameHashCandidates(ctx context.Context, self string, hashes []string) ([]string, error) {
	return nil, nil
}
func (f *fakeIndex) BandCandidates(ctx context.Context, self string, bands []repository.BandLookup) ([]string, error) {
	return nil, nil
}
func (f *fakeIndex) AudioHashCandidates(ctx context.Context, self string, hashes []uint64) ([]string, error) {
	return nil, nil
}
func (f *fakeIndex) CommitAdmission(ctx context.Context, videoID string, hashes []models.VideoHash, bands []models.VideoLSHBand, landmarks []models.AudioHash, batchSize int) error {
	return nil
}
func (f *fakeIndex) CommitDuplicate(ctx context.Context, videoID, originalID string) error {
	return nil
}
func (f *fakeIndex) Serialized(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestRouter(idx repository.FingerprintIndex) (*gin.Engine, *Handlers) {
	gin.SetMode(gin.TestMode)

	q := queue.NewFingerprintQueue(nil, nil, nil, idx, nil)
	k := kernel.New().SetIndex(idx).SetQueue(q)
	h := NewHandlers(k)

	r := gin.New()
	r.GET("/health", h.Health)
	r.POST("/internal/process", h.Process)
	r.GET("/internal/status/:video_id", h.Status)
	return r, h
}

func TestHealthReturnsOK(t *testing.T) {
	r, _ := newTestRouter(&fakeIndex{statusErr: repository.ErrVideoNotFound})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProcessAcceptsNewVideo(t *testing.T) {
	r, _ := newTestRouter(&fakeIndex{statusErr: repository.ErrVideoNotFound})

	body, _ := json.Marshal(processRequest{
		VideoID:   "v1",
		SourceKey: "source/v1.mp4",
		R2Key:     "r2/v1.mp4",
		UserID:    "u1",
	})
	req := httptest.NewRequest(http.MethodPost, "/internal/process", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "v1", resp["video_id"])
}

func TestProcessRejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(&fakeIndex{statusErr: repository.ErrVideoNotFound})

	req := httptest.NewRequest(http.MethodPost, "/internal/process", bytes.NewReader([]byte(`{"video_id":"v1"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessReturnsConflictForAlreadyDecidedVideo(t *testing.T) {
	r, _ := newTestRouter(&fakeIndex{statusResult: &models.Video{ID: "v1", Status: models.StatusActive}})

	body, _ := json.Marshal(processRequest{
		VideoID:   "v1",
		SourceKey: "source/v1.mp4",
		R2Key:     "r2/v1.mp4",
		UserID:    "u1",
	})
	req := httptest.NewRequest(http.MethodPost, "/internal/process", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStatusReturnsNotFoundForUnknownJob(t *testing.T) {
	r, _ := newTestRouter(&fakeIndex{statusErr: repository.ErrVideoNotFound})

	req := httptest.NewRequest(http.MethodGet, "/internal/status/unknown", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
