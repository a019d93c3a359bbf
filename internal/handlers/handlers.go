// Package handlers implements the HTTP-facing external interfaces of
// spec.md §6/§8: an async ingress endpoint that hands off to the
// fingerprint queue, a status lookup, and a health check, grounded on
// the teacher's own gin handler layer and dependency-injected Handlers
// struct.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipguard/videofp/internal/kernel"
	"github.com/clipguard/videofp/internal/repository"
)

// Handlers contains all HTTP handlers for the service. Dependencies are
// accessed exclusively through the kernel.
type Handlers struct {
	kernel *kernel.Kernel
}

// NewHandlers creates a new handlers instance with dependency injection.
func NewHandlers(k *kernel.Kernel) *Handlers {
	return &Handlers{
		kernel: k,
	}
}

// Kernel returns the underlying dependency injection kernel. Used for
// testing and access to all services.
func (h *Handlers) Kernel() *kernel.Kernel {
	return h.kernel
}

// processRequest is the body of POST /internal/process.
type processRequest struct {
	VideoID   string `json:"video_id" binding:"required"`
	SourceKey string `json:"source_key" binding:"required"`
	R2Key     string `json:"r2_key" binding:"required"`
	UserID    string `json:"user_id" binding:"required"`
}

// Process handles POST /internal/process (spec.md §6's admit_video,
// framed as an async HTTP endpoint per the decided external interface).
// It enqueues the job and returns 202 immediately; fingerprinting and
// duplicate detection run off the HTTP reactor inside the worker pool.
func (h *Handlers) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}
	c.Set("video_id", req.VideoID)

	existing, err := h.kernel.Index().Status(c.Request.Context(), req.VideoID)
	if err != nil && !errors.Is(err, repository.ErrVideoNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "status_lookup_failed",
			"message": err.Error(),
		})
		return
	}
	if existing != nil {
		// Idempotent re-submission (spec.md Open Question 3): the video
		// already has a status row (processing, active or duplicate), so
		// re-admitting it would race its own hash rows. Report the
		// existing status without re-fingerprinting.
		c.JSON(http.StatusConflict, gin.H{
			"video_id": req.VideoID,
			"status":   existing.Status,
		})
		return
	}

	job, err := h.kernel.Queue().SubmitJob(c.Request.Context(), req.VideoID, req.SourceKey, req.R2Key, req.UserID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "submit_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"video_id": job.VideoID,
		"status":   job.Status,
	})
}

// Status handles GET /internal/status/:video_id, reporting the current
// job state for polling clients.
func (h *Handlers) Status(c *gin.Context) {
	videoID := c.Param("video_id")

	job, err := h.kernel.Queue().GetJobStatus(videoID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "job_not_found",
			"message": err.Error(),
		})
		return
	}

	resp := gin.H{
		"video_id": job.VideoID,
		"status":   job.Status,
	}
	if job.Error != "" {
		resp["error_detail"] = job.Error
	}
	if job.Decision != nil {
		resp["outcome"] = job.Decision.Outcome
		if job.Decision.OriginalID != "" {
			resp["original_video_id"] = job.Decision.OriginalID
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Health handles GET /health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   "videofp",
	})
}
