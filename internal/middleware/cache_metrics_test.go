package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/clipguard/videofp/internal/metrics"
)

// readMetricSample returns the current sample of one counter or histogram.
func readMetricSample(t *testing.T, metric prometheus.Metric) *dto.Metric {
	t.Helper()
	var out dto.Metric
	if err := metric.Write(&out); err != nil {
		t.Fatalf("failed to read metric: %v", err)
	}
	return &out
}

func TestCacheMetrics(t *testing.T) {
	// Initialize metrics
	m := metrics.Initialize()

	t.Run("RecordCacheHit increments counter", func(t *testing.T) {
		// Reset metrics for clean test
		m.CacheHitsTotal.Reset()

		RecordCacheHit("test_cache")
		RecordCacheHit("test_cache")

		// Verify counter was incremented by reading its current value
		counter := m.CacheHitsTotal.WithLabelValues("test_cache")
		assert.NotNil(t, counter, "Cache hits counter should exist")
		assert.Equal(t, 2.0, readMetricSample(t, counter).GetCounter().GetValue())
	})

	t.Run("RecordCacheMiss increments counter", func(t *testing.T) {
		// Reset metrics for clean test
		m.CacheMissesTotal.Reset()

		RecordCacheMiss("test_cache")
		RecordCacheMiss("test_cache")
		RecordCacheMiss("test_cache")

		// Verify counter exists and was incremented
		counter := m.CacheMissesTotal.WithLabelValues("test_cache")
		assert.NotNil(t, counter, "Cache misses counter should exist")
		assert.Equal(t, 3.0, readMetricSample(t, counter).GetCounter().GetValue())
	})

	t.Run("RecordCacheOperation increments operations counter", func(t *testing.T) {
		// Reset metrics for clean test
		m.CacheOperationsTotal.Reset()

		RecordCacheOperation("GET", "test_cache", 10*time.Millisecond)
		RecordCacheOperation("GET", "test_cache", 20*time.Millisecond)
		RecordCacheOperation("SET", "test_cache", 15*time.Millisecond)

		// Verify counters exist
		getCounter := m.CacheOperationsTotal.WithLabelValues("GET", "test_cache")
		setCounter := m.CacheOperationsTotal.WithLabelValues("SET", "test_cache")

		assert.NotNil(t, getCounter, "GET operations counter should exist")
		assert.NotNil(t, setCounter, "SET operations counter should exist")
		assert.Equal(t, 2.0, readMetricSample(t, getCounter).GetCounter().GetValue())
		assert.Equal(t, 1.0, readMetricSample(t, setCounter).GetCounter().GetValue())
	})

	t.Run("RecordCacheOperation records duration histogram", func(t *testing.T) {
		// Reset metrics for clean test
		m.CacheOperationDuration.Reset()

		RecordCacheOperation("GET", "test_cache", 50*time.Millisecond)
		RecordCacheOperation("GET", "test_cache", 100*time.Millisecond)

		// Verify histogram exists and holds both observations
		histogram := m.CacheOperationDuration.WithLabelValues("GET", "test_cache")
		assert.NotNil(t, histogram, "Cache operation duration histogram should exist")
		assert.Equal(t, uint64(2), readMetricSample(t, histogram.(prometheus.Metric)).GetHistogram().GetSampleCount())
	})

	t.Run("Multiple cache names are tracked separately", func(t *testing.T) {
		// Reset metrics for clean test
		m.CacheHitsTotal.Reset()

		RecordCacheHit("cache1")
		RecordCacheHit("cache2")
		RecordCacheHit("cache1")

		// Verify separate counters exist
		cache1Counter := m.CacheHitsTotal.WithLabelValues("cache1")
		cache2Counter := m.CacheHitsTotal.WithLabelValues("cache2")

		assert.NotNil(t, cache1Counter, "cache1 counter should exist")
		assert.NotNil(t, cache2Counter, "cache2 counter should exist")
		assert.NotEqual(t, cache1Counter, cache2Counter, "Different cache names should have different counters")
		assert.Equal(t, 2.0, readMetricSample(t, cache1Counter).GetCounter().GetValue())
		assert.Equal(t, 1.0, readMetricSample(t, cache2Counter).GetCounter().GetValue())
	})

	t.Run("Cache metrics are properly initialized", func(t *testing.T) {
		// Verify metrics are not nil
		assert.NotNil(t, m.CacheHitsTotal, "CacheHitsTotal should be initialized")
		assert.NotNil(t, m.CacheMissesTotal, "CacheMissesTotal should be initialized")
		assert.NotNil(t, m.CacheOperationsTotal, "CacheOperationsTotal should be initialized")
		assert.NotNil(t, m.CacheOperationDuration, "CacheOperationDuration should be initialized")
	})

	t.Run("Cache operations record both counter and histogram", func(t *testing.T) {
		// Reset metrics
		m.CacheOperationsTotal.Reset()
		m.CacheOperationDuration.Reset()

		// Record an operation
		RecordCacheOperation("GET", "test_cache", 25*time.Millisecond)

		// Verify both metrics exist
		opCounter := m.CacheOperationsTotal.WithLabelValues("GET", "test_cache")
		opHistogram := m.CacheOperationDuration.WithLabelValues("GET", "test_cache")

		assert.NotNil(t, opCounter, "Operations counter should exist")
		assert.NotNil(t, opHistogram, "Operations duration histogram should exist")
		assert.Equal(t, 1.0, readMetricSample(t, opCounter).GetCounter().GetValue())
		assert.Equal(t, uint64(1), readMetricSample(t, opHistogram.(prometheus.Metric)).GetHistogram().GetSampleCount())
	})
}
