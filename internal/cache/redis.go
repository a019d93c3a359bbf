// Package cache provides the optional Redis-backed band-index accelerator
// described in spec.md §3 ("band_index ... optional accelerator"): a
// thin cache beside the Postgres band_index table whose hits the decider
// merges into its band candidates during candidate generation (C7); the
// store is still queried for every band.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/clipguard/videofp/internal/logger"
	"github.com/clipguard/videofp/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// RedisClient wraps redis.Client with centralized connection pooling and
// the tracing/metrics instrumentation the teacher applies to every Redis
// call.
type RedisClient struct {
	client *redis.Client
}

var globalRedis *RedisClient

// NewRedisClient creates and initializes a Redis client with connection
// pooling. An empty host or port defaults to localhost or 6379; the
// password may be empty.
func NewRedisClient(host string, port string, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("failed to connect to Redis", err)
		return nil, err
	}

	rc := &RedisClient{client: client}
	globalRedis = rc

	logger.Log.Info("redis client connected", zap.String("address", addr))

	return rc, nil
}

// GetRedisClient returns the global Redis client instance, or nil if the
// accelerator cache was never configured.
func GetRedisClient() *RedisClient {
	return globalRedis
}

// Close closes the Redis connection gracefully.
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// Ping tests the Redis connection.
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// SAdd adds members to a set, instrumented like the teacher's Get/Set.
func (rc *RedisClient) SAdd(ctx context.Context, key string, members ...interface{}) error {
	_, span := otel.Tracer("redis").Start(ctx, "redis.sadd")
	defer span.End()
	span.SetAttributes(
		attribute.String("cache.key", maskSensitiveKey(key)),
		attribute.String("cache.operation", "sadd"),
	)

	start := time.Now()
	err := rc.client.SAdd(ctx, key, members...).Err()
	duration := time.Since(start).Seconds()
	metrics.Get().RedisOperationDuration.WithLabelValues("sadd", extractKeyPattern(key)).Observe(duration)

	status := "success"
	if err != nil {
		status = "error"
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	metrics.Get().RedisOperationsTotal.WithLabelValues("sadd", status).Inc()

	return err
}

// SMembers returns the members of a set.
func (rc *RedisClient) SMembers(ctx context.Context, key string) ([]string, error) {
	_, span := otel.Tracer("redis").Start(ctx, "redis.smembers")
	defer span.End()
	span.SetAttributes(
		attribute.String("cache.key", maskSensitiveKey(key)),
		attribute.String("cache.operation", "smembers"),
	)

	start := time.Now()
	result, err := rc.client.SMembers(ctx, key).Result()
	duration := time.Since(start).Seconds()
	metrics.Get().RedisOperationDuration.WithLabelValues("smembers", extractKeyPattern(key)).Observe(duration)

	status := "success"
	hit := len(result) > 0
	if err != nil {
		status = "error"
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	metrics.Get().RedisOperationsTotal.WithLabelValues("smembers", status).Inc()

	return result, err
}

// Expire sets an expiration timeout on a key.
func (rc *RedisClient) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return rc.client.Expire(ctx, key, ttl).Err()
}

// BandCache is the band_index accelerator of spec.md §3: a
// (band_index, band_value) pair maps to a Redis set of video_ids,
// mirroring the same relation Postgres holds durably. A miss here is not
// an error — the decider queries the store for every band anyway, so BandCache never
// returns an error the caller must treat as fatal; it degrades to "no
// candidates from cache" instead.
type BandCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewBandCache wraps an already-connected RedisClient. ttl bounds how
// long a band's cached member set lives in Redis; the decider queries
// Postgres for every band whether or not the cache holds it.
func NewBandCache(redis *RedisClient, ttl time.Duration) *BandCache {
	return &BandCache{redis: redis, ttl: ttl}
}

func bandKey(bandIndex int, bandValue uint16) string {
	return "band:" + strconv.Itoa(bandIndex) + ":" + strconv.Itoa(int(bandValue))
}

// Add records that videoID owns the given band, refreshing the key's TTL.
func (c *BandCache) Add(ctx context.Context, bandIndex int, bandValue uint16, videoID string) error {
	if c == nil || c.redis == nil {
		return nil
	}
	key := bandKey(bandIndex, bandValue)
	if err := c.redis.SAdd(ctx, key, videoID); err != nil {
		return err
	}
	return c.redis.Expire(ctx, key, c.ttl)
}

// Lookup returns the video_ids cached against a band. An empty, nil-error
// result means "cache miss or genuinely no candidates" — the caller
// cannot distinguish the two and must consult Postgres either way when it
// needs an authoritative answer.
func (c *BandCache) Lookup(ctx context.Context, bandIndex int, bandValue uint16) ([]string, error) {
	if c == nil || c.redis == nil {
		return nil, nil
	}
	return c.redis.SMembers(ctx, bandKey(bandIndex, bandValue))
}

// extractKeyPattern groups cache keys by prefix for metrics labeling,
// e.g. "band:2:4821" → "band:*".
func extractKeyPattern(key string) string {
	if len(key) == 0 {
		return "other"
	}
	const prefix = "band:"
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return "band:*"
	}
	return "other"
}

// maskSensitiveKey returns a pattern-based representation of a key for
// logging, avoiding verbatim video_ids in spans.
func maskSensitiveKey(key string) string {
	pattern := extractKeyPattern(key)
	if pattern == "other" {
		if len(key) < 10 {
			return key + "..."
		}
		return key[:10] + "..."
	}
	return pattern
}
