// Package queue runs the job ingress operation spec.md §6 names —
// process(video_id, source_key) — on a bounded worker pool, grounded on
// the teacher's own internal/queue.AudioQueue channel-based pool shape.
package queue

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clipguard/videofp/internal/callback"
	"github.com/clipguard/videofp/internal/decider"
	"github.com/clipguard/videofp/internal/fingerprint"
	"github.com/clipguard/videofp/internal/logger"
	"github.com/clipguard/videofp/internal/metrics"
	"github.com/clipguard/videofp/internal/repository"
	"github.com/clipguard/videofp/internal/storage"
)

// Job is one process(video_id, source_key) request (spec.md §6).
type Job struct {
	VideoID     string
	SourceKey   string
	R2Key       string
	UserID      string
	Status      string // pending, processing, complete, failed
	CreatedAt   time.Time
	CompletedAt *time.Time
	Error       string
	Decision    *decider.Decision
}

const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusComplete   = "complete"
	statusFailed     = "failed"
)

// perJobTimeout bounds a single fingerprinting job — a decoder hang
// must not starve other jobs sharing the pool (spec.md §5
// "Cancellation").
const perJobTimeout = 5 * time.Minute

// FingerprintQueue is a bounded worker pool running process(video_id,
// source_key) jobs concurrently, one goroutine per worker reading from
// a shared buffered channel — the same shape as the teacher's
// AudioQueue, generalized from FFmpeg-normalize-and-upload to
// fetch-fingerprint-decide-callback.
type FingerprintQueue struct {
	jobs       chan *Job
	results    map[string]*Job
	resultsMux sync.RWMutex
	workers    int
	ctx        context.Context
	cancel     context.CancelFunc

	fetcher  storage.Fetcher
	pipeline *fingerprint.Pipeline
	decider  *decider.Decider
	index    repository.FingerprintIndex
	callback *callback.Client

	jobCompleted chan string // for tests
}

// NewFingerprintQueue builds a queue with one worker per CPU, capped at
// 8, matching the teacher's own AudioQueue sizing policy.
func NewFingerprintQueue(
	fetcher storage.Fetcher,
	pipeline *fingerprint.Pipeline,
	d *decider.Decider,
	index repository.FingerprintIndex,
	callbackClient *callback.Client,
) *FingerprintQueue {
	ctx, cancel := context.WithCancel(context.Background())

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	return &FingerprintQueue{
		jobs:         make(chan *Job, 100),
		results:      make(map[string]*Job),
		workers:      workers,
		ctx:          ctx,
		cancel:       cancel,
		fetcher:      fetcher,
		pipeline:     pipeline,
		decider:      d,
		index:        index,
		callback:     callbackClient,
		jobCompleted: make(chan string, 100),
	}
}

// Start launches the worker pool.
func (q *FingerprintQueue) Start() {
	logger.Log.Info("starting fingerprint queue", zap.Int("workers", q.workers))
	for i := 0; i < q.workers; i++ {
		go q.worker(i)
	}
}

// Stop cancels in-flight work and closes the job channel.
func (q *FingerprintQueue) Stop() {
	q.cancel()
	close(q.jobs)
}

// SubmitJob admits videoID in the index (spec.md §3's invariant that a
// video_id appears in video_status before any of its hashes appear in
// any hash index) and enqueues the fingerprinting job.
func (q *FingerprintQueue) SubmitJob(ctx context.Context, videoID, sourceKey, r2Key, userID string) (*Job, error) {
	if err := q.index.Admit(ctx, videoID, r2Key, userID); err != nil {
		return nil, fmt.Errorf("queue: failed to admit video %q: %w", videoID, err)
	}

	job := &Job{
		VideoID:   videoID,
		SourceKey: sourceKey,
		R2Key:     r2Key,
		UserID:    userID,
		Status:    statusPending,
		CreatedAt: time.Now(),
	}

	q.resultsMux.Lock()
	q.results[videoID] = job
	q.resultsMux.Unlock()

	select {
	case q.jobs <- job:
		m := metrics.GetManager().Fingerprint
		m.JobsSubmittedTotal.WithLabelValues().Inc()
		m.QueuePendingJobs.WithLabelValues().Set(float64(len(q.jobs)))
		return job, nil
	default:
		return nil, fmt.Errorf("queue: fingerprint queue is full")
	}
}

// GetJobStatus returns the current state of a submitted job.
func (q *FingerprintQueue) GetJobStatus(videoID string) (*Job, error) {
	q.resultsMux.RLock()
	defer q.resultsMux.RUnlock()

	job, ok := q.results[videoID]
	if !ok {
		return nil, fmt.Errorf("queue: job %q not found", videoID)
	}
	return job, nil
}

// WaitForJobCompletion blocks until videoID's job completes or timeout
// elapses. Exists for tests, mirroring the teacher's own
// WaitForJobCompletion helper.
func (q *FingerprintQueue) WaitForJobCompletion(videoID string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case completed := <-q.jobCompleted:
			if completed == videoID {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("queue: timeout waiting for job %q", videoID)
		case <-q.ctx.Done():
			return fmt.Errorf("queue: queue stopped")
		}
	}
}

func (q *FingerprintQueue) worker(workerID int) {
	for {
		select {
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			q.processJob(workerID, job)
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *FingerprintQueue) processJob(workerID int, job *Job) {
	m := metrics.GetManager().Fingerprint
	start := time.Now()
	defer func() {
		m.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
		m.QueuePendingJobs.WithLabelValues().Set(float64(len(q.jobs)))
	}()

	q.setStatus(job.VideoID, statusProcessing, "")
	logger.Log.Info("processing fingerprint job",
		logger.WithVideoID(job.VideoID), logger.WithUserID(job.UserID), zap.Int("worker", workerID))

	ctx, cancel := context.WithTimeout(q.ctx, perJobTimeout)
	defer cancel()

	fetchStart := time.Now()
	localPath, cleanup, err := q.fetcher.Fetch(ctx, job.SourceKey)
	m.JobProcessingDuration.WithLabelValues("fetch").Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		m.JobProcessingFailures.WithLabelValues("fetch").Inc()
		q.fail(job.VideoID, fmt.Sprintf("fetch failed: %v", err))
		return
	}
	defer cleanup()

	pipelineStart := time.Now()
	report, err := q.pipeline.Run(ctx, job.VideoID, localPath)
	m.JobProcessingDuration.WithLabelValues("pipeline").Observe(time.Since(pipelineStart).Seconds())
	if err != nil {
		// Visual pipeline failure: the job fails and video_status stays
		// processing for an external janitor to retry (spec.md §4.8/§7).
		m.JobProcessingFailures.WithLabelValues("pipeline").Inc()
		q.fail(job.VideoID, fmt.Sprintf("fingerprint pipeline failed: %v", err))
		return
	}

	decision, err := q.decider.Decide(ctx, report)
	if err != nil {
		m.JobProcessingFailures.WithLabelValues("decision").Inc()
		q.fail(job.VideoID, fmt.Sprintf("decision failed: %v", err))
		return
	}

	q.notifyCallback(ctx, job.VideoID, report, decision, workerID)

	q.resultsMux.Lock()
	if j, ok := q.results[job.VideoID]; ok {
		j.Status = statusComplete
		j.Decision = decision
		now := time.Now()
		j.CompletedAt = &now
	}
	q.resultsMux.Unlock()

	logger.Log.Info("fingerprint job completed",
		logger.WithVideoID(job.VideoID), zap.String("outcome", string(decision.Outcome)),
		logger.WithDuration(time.Since(start)))

	q.signalCompletion(job.VideoID)
}

func (q *FingerprintQueue) notifyCallback(ctx context.Context, videoID string, report *fingerprint.Report, decision *decider.Decision, workerID int) {
	if q.callback == nil {
		return
	}

	payload := callback.Payload{VideoID: videoID}
	for _, fh := range report.FrameHashes {
		payload.Hashes = append(payload.Hashes, fh.Hash)
	}
	for _, lm := range report.Landmarks {
		payload.AudioHashes = append(payload.AudioHashes, callback.AudioHashEntry{
			Hash:       lm.Hash,
			TimeOffset: lm.TimeOffset,
		})
	}

	if _, err := q.callback.Complete(ctx, payload); err != nil {
		logger.Log.Warn("completion callback failed",
			logger.WithVideoID(videoID), zap.Int("worker", workerID), zap.Error(err))
	}
}

func (q *FingerprintQueue) setStatus(videoID, status, errMsg string) {
	q.resultsMux.Lock()
	defer q.resultsMux.Unlock()
	if job, ok := q.results[videoID]; ok {
		job.Status = status
		job.Error = errMsg
	}
}

func (q *FingerprintQueue) fail(videoID, message string) {
	logger.Log.Error("fingerprint job failed", logger.WithVideoID(videoID), zap.String("error", message))
	q.resultsMux.Lock()
	if job, ok := q.results[videoID]; ok {
		job.Status = statusFailed
		job.Error = message
		now := time.Now()
		job.CompletedAt = &now
	}
	q.resultsMux.Unlock()
	q.signalCompletion(videoID)
}

func (q *FingerprintQueue) signalCompletion(videoID string) {
	select {
	case q.jobCompleted <- videoID:
	default:
	}
}
