package cache

import (
	"context"
	"time"

	"github.com/Dishantydv7/OrderBook-implementation/engine"
)

const depthKey = "orderbook:depth"

// DepthCache caches point-in-time book depth snapshots so market-data
// readers never touch the engine.
type DepthCache struct {
	redis      *RedisCache
	defaultTTL time.Duration
}

// CachedDepth wraps a depth snapshot with the time it was taken
type CachedDepth struct {
	Depth     engine.BookDepth `json:"depth"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewDepthCache(redis *RedisCache, ttl time.Duration) *DepthCache {
	if ttl == 0 {
		ttl = 2 * time.Second
	}
	return &DepthCache{
		redis:      redis,
		defaultTTL: ttl,
	}
}

// Set stores the current depth snapshot
func (dc *DepthCache) Set(ctx context.Context, depth engine.BookDepth) error {
	return dc.redis.SetJSON(ctx, depthKey, CachedDepth{
		Depth:     depth,
		Timestamp: time.Now(),
	}, dc.defaultTTL)
}

// Get retrieves the most recent cached depth snapshot
func (dc *DepthCache) Get(ctx context.Context) (*CachedDepth, error) {
	var cached CachedDepth
	if err := dc.redis.GetJSON(ctx, depthKey, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}
