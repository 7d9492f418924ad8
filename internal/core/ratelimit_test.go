package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbelik/shortly/internal/cache"
)

func newTestLimiter(limit int) (*Limiter, *fakeFast) {
	fc := newFakeFast()
	l := NewLimiter(fc, limit, 100*time.Millisecond)
	l.now = func() time.Time { return testNow }
	return l, fc
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(3)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		assert.True(t, l.Allow(ctx, "1.2.3.4"), "call %d", i)
	}
	assert.False(t, l.Allow(ctx, "1.2.3.4"), "call above the limit")
}

func TestLimiterResetsOnWindowRollover(t *testing.T) {
	l, _ := newTestLimiter(1)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "1.2.3.4"))
	assert.False(t, l.Allow(ctx, "1.2.3.4"))

	// next minute bucket, counter starts over
	l.now = func() time.Time { return testNow.Add(time.Minute) }
	assert.True(t, l.Allow(ctx, "1.2.3.4"))
}

func TestLimiterIsolatesIdentities(t *testing.T) {
	l, _ := newTestLimiter(1)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "1.2.3.4"))
	assert.False(t, l.Allow(ctx, "1.2.3.4"))
	assert.True(t, l.Allow(ctx, "5.6.7.8"))
}

func TestLimiterAttachesWindowTTL(t *testing.T) {
	l, fc := newTestLimiter(10)

	require.True(t, l.Allow(context.Background(), "1.2.3.4"))

	key := cache.WindowKey("1.2.3.4", testNow.UTC().Format(windowBucketFormat))
	ttl, ok := fc.ttl(key)
	require.True(t, ok, "first hit in a bucket must attach a ttl")
	assert.Equal(t, time.Minute, ttl)
}

func TestLimiterFailsOpenWhenCacheDown(t *testing.T) {
	l, fc := newTestLimiter(1)
	fc.failing = true

	// availability over strict limiting
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow(context.Background(), "1.2.3.4"))
	}
}
