package cache

import (
	"context"
	"errors"
	"time"

	"blogapi/pkg/circuitbreaker"
)

// BreakerCache fails fast while the wrapped cache keeps erroring, so a dead
// Redis costs one short-circuited call per request instead of a timeout.
type BreakerCache struct {
	next    Cache
	breaker *circuitbreaker.CircuitBreaker
}

func NewBreakerCache(next Cache, breaker *circuitbreaker.CircuitBreaker) Cache {
	return &BreakerCache{
		next:    next,
		breaker: breaker,
	}
}

// IsCacheSuccess treats a miss as a healthy answer.
func IsCacheSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrCacheMiss)
}

func (b *BreakerCache) run(fn func() error) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (b *BreakerCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return b.run(func() error { return b.next.Set(ctx, key, value, expiration) })
}

func (b *BreakerCache) Get(ctx context.Context, key string, dest interface{}) error {
	return b.run(func() error { return b.next.Get(ctx, key, dest) })
}

func (b *BreakerCache) Delete(ctx context.Context, key string) error {
	return b.run(func() error { return b.next.Delete(ctx, key) })
}

func (b *BreakerCache) SetMultiple(ctx context.Context, items map[string]interface{}, expiration time.Duration) error {
	return b.run(func() error { return b.next.SetMultiple(ctx, items, expiration) })
}

func (b *BreakerCache) DeleteMultiple(ctx context.Context, keys []string) error {
	return b.run(func() error { return b.next.DeleteMultiple(ctx, keys) })
}

// Ping bypasses the breaker so health checks see the real state.
func (b *BreakerCache) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}
