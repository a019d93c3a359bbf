package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipguard/videofp/internal/models"
	"github.com/clipguard/videofp/internal/repository"
)

// fakeIndex admits videos without touching a database, so queue
// mechanics (submission, status tracking, overflow) can be tested
// without the worker pool ever running.
type fakeIndex struct {
	mu        sync.Mutex
	admits    int
	failAdmit bool
}

func (f *fakeIndex) Admit(ctx context.Context, videoID, r2Key, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdmit {
		return fmt.Errorf("admit failed")
	}
	f.admits++
	return nil
}

func (f *fakeIndex) Status(ctx context.Context, videoID string) (*models.Video, error) {
	return nil, repository.ErrVideoNotFound
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

func TestSubmitJobAdmitsAndEnqueues(t *testing.T) {
	idx := &fakeIndex{}
	q := &FingerprintQueue{
		jobs:         make(chan *Job, 10),
		results:      make(map[string]*Job),
		index:        idx,
		jobCompleted: make(chan string, 10),
	}

	job, err := q.SubmitJob(context.Background(), "v1", "key1", "r2/key1", "user1")
	require.NoError(t, err)
	assert.Equal(t, "v1", job.VideoID)
	assert.Equal(t, statusPending, job.Status)
	assert.Equal(t, 1, idx.admits)

	status, err := q.GetJobStatus("v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", status.VideoID)
}

func TestSubmitJobPropagatesAdmitError(t *testing.T) {
	idx := &fakeIndex{failAdmit: true}
	q := &FingerprintQueue{
		jobs:         make(chan *Job, 10),
		results:      make(map[string]*Job),
		index:        idx,
		jobCompleted: make(chan string, 10),
	}

	_, err := q.SubmitJob(context.Background(), "v1", "key1", "r2/key1", "user1")
	assert.Error(t, err)
}

func TestGetJobStatusUnknownVideoErrors(t *testing.T) {
	q := &FingerprintQueue{
		jobs:    make(chan *Job, 10),
		results: make(map[string]*Job),
	}

	_, err := q.GetJobStatus("missing")
	assert.Error(t, err)
}

func TestSubmitJobQueueFullErrors(t *testing.T) {
	idx := &fakeIndex{}
	q := &FingerprintQueue{
		jobs:         make(chan *Job, 1),
		results:      make(map[string]*Job),
		index:        idx,
		jobCompleted: make(chan string, 10),
	}

	_, err := q.SubmitJob(context.Background(), "v1", "key1", "r2", "user")
	require.NoError(t, err)

	_, err = q.SubmitJob(context.Background(), "v2", "key2", "r2", "user")
	assert.Error(t, err, "the channel buffer is exhausted and no worker is draining it")
}

func TestFailMarksJobFailedAndSignalsCompletion(t *testing.T) {
	q := &FingerprintQueue{
		jobs:         make(chan *Job, 10),
		results:      map[string]*Job{"v1": {VideoID: "v1", Status: statusProcessing}},
		jobCompleted: make(chan string, 10),
		ctx:          context.Background(),
	}

	q.fail("v1", "boom")

	status, err := q.GetJobStatus("v1")
	require.NoError(t, err)
	assert.Equal(t, statusFailed, status.Status)
	assert.Equal(t, "boom", status.Error)
	assert.NotNil(t, status.CompletedAt)

	err = q.WaitForJobCompletion("v1", 50*time.Millisecond)
	assert.NoError(t, err)
}

func TestConcurrentSubmitJobsGetUniqueEntries(t *testing.T) {
	idx := &fakeIndex{}
	q := &FingerprintQueue{
		jobs:         make(chan *Job, 100),
		results:      make(map[string]*Job),
		index:        idx,
		jobCompleted: make(chan string, 100),
	}

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := q.SubmitJob(context.Background(), fmt.Sprintf("v%d", i), "key", "r2", "user")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	assert.Equal(t, n, idx.admits)
}
