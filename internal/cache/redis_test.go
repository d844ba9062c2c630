package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedList struct {
	Owner string   `json:"owner"`
	Items []string `json:"items"`
}

func TestDefaultCacheConfig(t *testing.T) {
	config := DefaultCacheConfig()

	if config.Addr != "localhost:6379" {
		t.Errorf("Expected Addr to be localhost:6379, got %s", config.Addr)
	}

	if config.PoolSize != 10 {
		t.Errorf("Expected PoolSize to be 10, got %d", config.PoolSize)
	}

	if config.MinIdleConns != 5 {
		t.Errorf("Expected MinIdleConns to be 5, got %d", config.MinIdleConns)
	}

	if config.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries to be 3, got %d", config.MaxRetries)
	}

	if config.DialTimeout != 5*time.Second {
		t.Errorf("Expected DialTimeout to be 5s, got %v", config.DialTimeout)
	}

	if config.ReadTimeout != 3*time.Second || config.WriteTimeout != 3*time.Second {
		t.Errorf("Expected read/write timeouts of 3s, got %v/%v", config.ReadTimeout, config.WriteTimeout)
	}

	if config.KeyPrefix != "todo:" {
		t.Errorf("Expected KeyPrefix to be todo:, got %s", config.KeyPrefix)
	}
}

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cache := NewRedisCache(&CacheConfig{
		Addr:         mr.Addr(),
		PoolSize:     10,
		MinIdleConns: 1,
		MaxRetries:   -1,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		KeyPrefix:    "test:",
	})
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestNewRedisCache_WithNilConfig(t *testing.T) {
	cache := NewRedisCache(nil)
	defer cache.Close()

	if cache.client == nil {
		t.Error("Expected Redis client to be initialized")
	}
	if cache.prefix != "todo:" {
		t.Errorf("Expected default prefix, got %q", cache.prefix)
	}
}

func TestRedisCache_SetGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	in := cachedList{Owner: "u1", Items: []string{"a", "b"}}
	require.NoError(t, cache.Set(ctx, "todos:u1", in, time.Minute))

	assert.True(t, mr.Exists("test:todos:u1"), "keys are namespaced by the prefix")
	assert.Equal(t, time.Minute, mr.TTL("test:todos:u1"))

	var out cachedList
	require.NoError(t, cache.Get(ctx, "todos:u1", &out))
	assert.Equal(t, in, out)
}

func TestRedisCache_GetMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	var out cachedList
	err := cache.Get(context.Background(), "missing", &out)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Expiry(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", "v", time.Second))
	mr.FastForward(2 * time.Second)

	var out string
	assert.ErrorIs(t, cache.Get(ctx, "short", &out), ErrCacheMiss)
}

func TestRedisCache_Set_InvalidData(t *testing.T) {
	cache, _ := setupTestRedis(t)

	err := cache.Set(context.Background(), "bad", make(chan int), time.Minute)
	assert.Error(t, err)
}

func TestRedisCache_Get_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("test:broken", "{not json"))

	var out cachedList
	err := cache.Get(context.Background(), "broken", &out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", 1, 0))
	require.NoError(t, cache.Set(ctx, "b", 2, 0))
	require.NoError(t, cache.Set(ctx, "c", 3, 0))

	require.NoError(t, cache.Delete(ctx, "a", "b"))
	require.NoError(t, cache.Delete(ctx))

	assert.False(t, mr.Exists("test:a"))
	assert.False(t, mr.Exists("test:b"))
	assert.True(t, mr.Exists("test:c"))
}

func TestRedisCache_DeletePattern(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	for _, k := range []string{"todos:u1", "todos:u2", "todos:u3", "profile:u1"} {
		require.NoError(t, cache.Set(ctx, k, k, 0))
	}
	require.NoError(t, mr.Set("other:todos:u1", "foreign"))

	require.NoError(t, cache.DeletePattern(ctx, "todos:*"))

	assert.False(t, mr.Exists("test:todos:u1"))
	assert.False(t, mr.Exists("test:todos:u2"))
	assert.False(t, mr.Exists("test:todos:u3"))
	assert.True(t, mr.Exists("test:profile:u1"))
	assert.True(t, mr.Exists("other:todos:u1"), "keys outside the prefix are untouched")
}

func TestRedisCache_Health(t *testing.T) {
	cache, mr := setupTestRedis(t)

	assert.NoError(t, cache.Health(context.Background()))

	mr.Close()
	err := cache.Health(context.Background())
	assert.ErrorIs(t, err, ErrCacheDown)
}

func TestRedisCache_Stats(t *testing.T) {
	cache, _ := setupTestRedis(t)
	require.NoError(t, cache.Set(context.Background(), "k", "v", 0))

	stats := cache.Stats()
	for _, key := range []string{"pool_hits", "pool_misses", "pool_timeouts", "pool_total", "pool_idle", "pool_stale"} {
		assert.Contains(t, stats, key)
	}
}

func TestErrCacheMiss(t *testing.T) {
	if ErrCacheMiss.Error() != "cache miss" {
		t.Errorf("Expected 'cache miss', got %q", ErrCacheMiss.Error())
	}
	if ErrCacheDown.Error() != "cache unavailable" {
		t.Errorf("Expected 'cache unavailable', got %q", ErrCacheDown.Error())
	}
}
