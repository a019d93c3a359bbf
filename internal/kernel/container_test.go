package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKernelValidateReportsAllMissingDeps(t *testing.T) {
	k := New()
	err := k.Validate()
	require.Error(t, err)

	initErr, ok := err.(*InitializationError)
	require.True(t, ok)
	assert.Contains(t, initErr.MissingDeps, "database")
	assert.Contains(t, initErr.MissingDeps, "source fetcher")
	assert.Contains(t, initErr.MissingDeps, "fingerprint index")
	assert.Contains(t, initErr.MissingDeps, "pipeline orchestrator")
	assert.Contains(t, initErr.MissingDeps, "duplicate decider")
	assert.Contains(t, initErr.MissingDeps, "job queue")
	assert.Contains(t, initErr.MissingDeps, "completion callback client")
}

func TestKernelLoggerFallsBackToGlobal(t *testing.T) {
	k := New()
	assert.NotNil(t, k.Logger(), "nil logger should fall back to the package-global logger.Log")
}

func TestKernelCacheDefaultsToNil(t *testing.T) {
	k := New()
	assert.Nil(t, k.Cache(), "a kernel with no Redis configured should return a nil cache, which BandCache treats as a no-op")
}

func TestOnCleanupRunsInLIFOOrder(t *testing.T) {
	k := New()
	var order []int

	k.OnCleanup(func(ctx context.Context) error { order = append(order, 1); return nil })
	k.OnCleanup(func(ctx context.Context) error { order = append(order, 2); return nil })
	k.OnCleanup(func(ctx context.Context) error { order = append(order, 3); return nil })

	require.NoError(t, k.Cleanup(context.Background()))
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestMockKernelOverride(t *testing.T) {
	mock := NewMock()
	mock.Override("custom-thing", 42)

	val, ok := mock.GetOverride("custom-thing")
	require.True(t, ok)
	assert.Equal(t, 42, val)

	_, ok = mock.GetOverride("missing")
	assert.False(t, ok)
}

func TestMinimalMockSetsLogger(t *testing.T) {
	mock := MinimalMock()
	assert.NotNil(t, mock.Logger())
}
