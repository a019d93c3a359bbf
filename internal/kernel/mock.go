package kernel

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clipguard/videofp/internal/cache"
	"github.com/clipguard/videofp/internal/callback"
	"github.com/clipguard/videofp/internal/decider"
	"github.com/clipguard/videofp/internal/fingerprint"
	"github.com/clipguard/videofp/internal/logger"
	"github.com/clipguard/videofp/internal/queue"
	"github.com/clipguard/videofp/internal/repository"
	"github.com/clipguard/videofp/internal/storage"
)

// MockKernel is a kernel designed for testing. It allows easy
// overriding of dependencies with test doubles (mocks, stubs, fakes).
type MockKernel struct {
	*Kernel
	overrides map[string]interface{}
}

// NewMock creates a new mock kernel pre-populated with nothing — every
// dependency must be set explicitly or left nil.
func NewMock() *MockKernel {
	return &MockKernel{
		Kernel:    New(),
		overrides: make(map[string]interface{}),
	}
}

// WithMockDB sets the database for testing.
func (m *MockKernel) WithMockDB(db *gorm.DB) *MockKernel {
	m.SetDB(db)
	return m
}

// WithMockLogger sets a test logger.
func (m *MockKernel) WithMockLogger(l *zap.Logger) *MockKernel {
	m.SetLogger(l)
	return m
}

// WithMockCache sets a test Redis client (or leaves it nil — BandCache
// is nil-safe).
func (m *MockKernel) WithMockCache(c *cache.RedisClient) *MockKernel {
	m.SetCache(c)
	return m
}

// WithMockFetcher sets a test storage.Fetcher.
func (m *MockKernel) WithMockFetcher(f storage.Fetcher) *MockKernel {
	m.SetFetcher(f)
	return m
}

// WithMockIndex sets a test repository.FingerprintIndex.
func (m *MockKernel) WithMockIndex(idx repository.FingerprintIndex) *MockKernel {
	m.SetIndex(idx)
	return m
}

// WithMockPipeline sets a test fingerprint.Pipeline.
func (m *MockKernel) WithMockPipeline(p *fingerprint.Pipeline) *MockKernel {
	m.SetPipeline(p)
	return m
}

// WithMockDecider sets a test decider.Decider.
func (m *MockKernel) WithMockDecider(d *decider.Decider) *MockKernel {
	m.SetDecider(d)
	return m
}

// WithMockQueue sets a test queue.FingerprintQueue.
func (m *MockKernel) WithMockQueue(q *queue.FingerprintQueue) *MockKernel {
	m.SetQueue(q)
	return m
}

// WithMockCallback sets a test callback.Client.
func (m *MockKernel) WithMockCallback(c *callback.Client) *MockKernel {
	m.SetCallback(c)
	return m
}

// Override sets a custom override for a specific dependency by key,
// for test doubles that don't have a dedicated Set* method.
func (m *MockKernel) Override(key string, value interface{}) *MockKernel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[key] = value
	return m
}

// GetOverride retrieves an override if set.
func (m *MockKernel) GetOverride(key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.overrides[key]
	return val, ok
}

// MinimalMock creates a mock kernel with only a logger set, for tests
// that exercise a single isolated component.
func MinimalMock() *MockKernel {
	mock := NewMock()
	mock.SetLogger(logger.Log)
	return mock
}

// Clean cleans up test kernels after tests complete.
func (m *MockKernel) Clean(ctx context.Context) error {
	return m.Cleanup(ctx)
}
