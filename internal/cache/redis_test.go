package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBandKeyFormat(t *testing.T) {
	assert.Equal(t, "band:2:4821", bandKey(2, 4821))
	assert.Equal(t, "band:0:0", bandKey(0, 0))
}

func TestExtractKeyPattern(t *testing.T) {
	assert.Equal(t, "band:*", extractKeyPattern("band:2:4821"))
	assert.Equal(t, "other", extractKeyPattern("unrelated:key"))
	assert.Equal(t, "other", extractKeyPattern(""))
}

func TestBandCacheNilRedisIsNoop(t *testing.T) {
	c := NewBandCache(nil, time.Minute)
	ctx := context.Background()

	assert.NoError(t, c.Add(ctx, 1, 42, "video-a"))

	members, err := c.Lookup(ctx, 1, 42)
	assert.NoError(t, err)
	assert.Nil(t, members)
}

func TestNilBandCacheLookup(t *testing.T) {
	var c *BandCache
	members, err := c.Lookup(context.Background(), 1, 42)
	assert.NoError(t, err)
	assert.Nil(t, members)
}
