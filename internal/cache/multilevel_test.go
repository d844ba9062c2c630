package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMultiLevel(t *testing.T) (*MultiLevelCache, *RedisCache) {
	t.Helper()
	redis, _ := setupTestRedis(t)
	c := NewMultiLevelCache(redis, &MultiLevelConfig{
		L1TTL: time.Minute,
		Breaker: &BreakerConfig{
			Name:             "test",
			MaxFailures:      2,
			OpenTimeout:      time.Hour,
			HalfOpenMaxCalls: 1,
		},
	})
	return c, redis
}

func TestMultiLevelCache_WritesThroughBothLevels(t *testing.T) {
	c, redis := setupMultiLevel(t)
	ctx := context.Background()

	in := cachedList{Owner: "u1", Items: []string{"a"}}
	require.NoError(t, c.Set(ctx, "todos:u1", in, 10*time.Minute))

	var fromL2 cachedList
	require.NoError(t, redis.Get(ctx, "todos:u1", &fromL2))
	assert.Equal(t, in, fromL2)

	var out cachedList
	require.NoError(t, c.Get(ctx, "todos:u1", &out))
	assert.Equal(t, in, out)
	assert.Equal(t, int64(1), c.Metrics().L1Hits)
}

func TestMultiLevelCache_PromotesL2Hits(t *testing.T) {
	c, redis := setupMultiLevel(t)
	ctx := context.Background()

	require.NoError(t, redis.Set(ctx, "todos:u2", cachedList{Owner: "u2"}, time.Minute))

	var out cachedList
	require.NoError(t, c.Get(ctx, "todos:u2", &out))
	assert.Equal(t, "u2", out.Owner)
	assert.Equal(t, int64(1), c.Metrics().L2Hits)

	require.NoError(t, c.Get(ctx, "todos:u2", &out))
	assert.Equal(t, int64(1), c.Metrics().L1Hits)
}

func TestMultiLevelCache_Miss(t *testing.T) {
	c, _ := setupMultiLevel(t)

	var out cachedList
	assert.ErrorIs(t, c.Get(context.Background(), "nope", &out), ErrCacheMiss)

	m := c.Metrics()
	assert.Equal(t, int64(1), m.Misses)
	assert.Zero(t, m.Errors)
	assert.Equal(t, BreakerClosed, c.breaker.State(), "misses do not count as failures")
}

func TestMultiLevelCache_DeleteInvalidatesBothLevels(t *testing.T) {
	c, redis := setupMultiLevel(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "todos:u1", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "todos:u2", 2, time.Minute))

	require.NoError(t, c.Delete(ctx, "todos:u1"))
	var v int
	assert.ErrorIs(t, c.Get(ctx, "todos:u1", &v), ErrCacheMiss)
	assert.ErrorIs(t, redis.Get(ctx, "todos:u1", &v), ErrCacheMiss)

	require.NoError(t, c.DeletePattern(ctx, "todos:*"))
	assert.ErrorIs(t, c.Get(ctx, "todos:u2", &v), ErrCacheMiss)
}

func TestMultiLevelCache_DegradesWhenRedisIsDown(t *testing.T) {
	redis, mr := setupTestRedis(t)
	c := NewMultiLevelCache(redis, &MultiLevelConfig{
		Breaker: &BreakerConfig{Name: "test", MaxFailures: 2, OpenTimeout: time.Hour, HalfOpenMaxCalls: 1},
	})
	ctx := context.Background()
	mr.Close()

	assert.NoError(t, c.Set(ctx, "k", "v", time.Minute), "L2 write failures are not surfaced")

	var v string
	require.NoError(t, c.Get(ctx, "k", &v), "L1 still serves")
	assert.Equal(t, "v", v)

	assert.ErrorIs(t, c.Get(ctx, "absent", &v), ErrCacheMiss)
	assert.Equal(t, BreakerOpen, c.breaker.State())
	assert.Error(t, c.Health(ctx))
}

func TestMultiLevelCache_WithoutL2(t *testing.T) {
	c := NewMultiLevelCache(nil, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 42, 0))
	var v int
	require.NoError(t, c.Get(ctx, "k", &v))
	assert.Equal(t, 42, v)
	assert.NoError(t, c.Health(ctx))
	assert.NotContains(t, c.Stats(), "l2")
	assert.NoError(t, c.Close())
}

func TestMultiLevelCache_PurgeExpired(t *testing.T) {
	c := NewMultiLevelCache(nil, &MultiLevelConfig{L1TTL: time.Minute})
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	c.l1.now = clock.Now
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", 1, 30*time.Second))
	require.NoError(t, c.Set(ctx, "long", 2, time.Hour))

	clock.Advance(45 * time.Second)
	assert.Equal(t, 1, c.PurgeExpired())
	assert.Equal(t, 1, c.l1.Len())
}
