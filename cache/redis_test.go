package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dishantydv7/OrderBook-implementation/engine"
)

func testCache(t *testing.T) *RedisCache {
	t.Helper()
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set; skipping Redis integration test")
	}
	rc, err := NewRedisCache(ConfigFromEnv())
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })
	return rc
}

func TestSetGetJSONRoundTrip(t *testing.T) {
	rc := testCache(t)
	ctx := context.Background()

	in := CachedDepth{
		Depth: engine.BookDepth{
			Bids: []engine.LevelInfo{{Price: 100, Quantity: 5}},
			Asks: []engine.LevelInfo{{Price: 101, Quantity: 3}},
		},
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, rc.SetJSON(ctx, "test:depth", in, 5*time.Second))

	var out CachedDepth
	require.NoError(t, rc.GetJSON(ctx, "test:depth", &out))
	require.Equal(t, in.Depth, out.Depth)
}

func TestDepthCacheRoundTrip(t *testing.T) {
	rc := testCache(t)
	dc := NewDepthCache(rc, time.Second)
	ctx := context.Background()

	depth := engine.BookDepth{
		Bids: []engine.LevelInfo{{Price: 99, Quantity: 10}},
		Asks: []engine.LevelInfo{},
	}
	require.NoError(t, dc.Set(ctx, depth))

	cached, err := dc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, depth.Bids, cached.Depth.Bids)
}
