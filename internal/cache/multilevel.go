package cache

import (
	"context"
	"errors"
	"log"
	"time"
)

// MultiLevelCache keeps a short-lived in-process copy (L1) in front of a
// shared store (L2). L2 failures degrade to misses and are fenced off by a
// circuit breaker so a dead redis never slows requests down.
type MultiLevelCache struct {
	l1      *MemoryCache
	l2      Cache
	l1TTL   time.Duration
	breaker *CircuitBreaker
	metrics *Metrics
}

type MultiLevelConfig struct {
	L1TTL   time.Duration
	Breaker *BreakerConfig
}

func NewMultiLevelCache(l2 Cache, config *MultiLevelConfig) *MultiLevelCache {
	if config == nil {
		config = &MultiLevelConfig{}
	}
	l1TTL := config.L1TTL
	if l1TTL <= 0 {
		l1TTL = time.Minute
	}

	return &MultiLevelCache{
		l1:      NewMemoryCache(),
		l2:      l2,
		l1TTL:   l1TTL,
		breaker: NewCircuitBreaker(config.Breaker),
		metrics: NewMetrics(),
	}
}

func (c *MultiLevelCache) l1Expiry(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < c.l1TTL {
		return ttl
	}
	return c.l1TTL
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, c.l1Expiry(ttl)); err != nil {
		return err
	}
	c.metrics.RecordSet()

	if c.l2 == nil {
		return nil
	}
	err := c.breaker.Execute(func() error {
		return c.l2.Set(ctx, key, value, ttl)
	})
	if err != nil {
		c.metrics.RecordError()
		if !errors.Is(err, ErrBreakerOpen) {
			log.Printf("[cache] l2 set %s: %v", key, err)
		}
	}
	return nil
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.l1.Get(ctx, key, dest); err == nil {
		c.metrics.RecordL1Hit()
		return nil
	}

	if c.l2 == nil {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	missed := false
	err := c.breaker.Execute(func() error {
		err := c.l2.Get(ctx, key, dest)
		if errors.Is(err, ErrCacheMiss) {
			// a miss says nothing about redis health
			missed = true
			return nil
		}
		return err
	})
	if err != nil {
		c.metrics.RecordError()
		c.metrics.RecordMiss()
		if !errors.Is(err, ErrBreakerOpen) {
			log.Printf("[cache] l2 get %s: %v", key, err)
		}
		return ErrCacheMiss
	}
	if missed {
		c.metrics.RecordMiss()
		return ErrCacheMiss
	}

	c.metrics.RecordL2Hit()
	_ = c.l1.Set(ctx, key, dest, c.l1TTL)
	return nil
}

func (c *MultiLevelCache) Delete(ctx context.Context, keys ...string) error {
	_ = c.l1.Delete(ctx, keys...)
	c.metrics.RecordDelete(len(keys))

	if c.l2 == nil {
		return nil
	}
	return c.breaker.Execute(func() error {
		return c.l2.Delete(ctx, keys...)
	})
}

func (c *MultiLevelCache) DeletePattern(ctx context.Context, pattern string) error {
	if err := c.l1.DeletePattern(ctx, pattern); err != nil {
		return err
	}

	if c.l2 == nil {
		return nil
	}
	return c.breaker.Execute(func() error {
		return c.l2.DeletePattern(ctx, pattern)
	})
}

// PurgeExpired drops expired entries from the in-process level.
func (c *MultiLevelCache) PurgeExpired() int {
	return c.l1.Purge()
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	if c.l2 == nil {
		return nil
	}
	return c.l2.Health(ctx)
}

func (c *MultiLevelCache) Metrics() MetricsSnapshot {
	return c.metrics.Snapshot()
}

func (c *MultiLevelCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"l1":      c.l1.Stats(),
		"metrics": c.metrics.Snapshot(),
		"breaker": c.breaker.Stats(),
	}
	if c.l2 != nil {
		stats["l2"] = c.l2.Stats()
	}
	return stats
}

func (c *MultiLevelCache) Close() error {
	_ = c.l1.Close()
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}
