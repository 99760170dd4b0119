package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blogapi/pkg/logger"
	"blogapi/pkg/metrics"
)

const (
	UserPrefix  = "user"
	UserByIDKey = "user:id:%d"
)

const DefaultExpiration = 30 * time.Minute

type CacheStrategy interface {
	// ReadThrough serves dest from the cache, falling back to fetchFunc and
	// caching its result on a miss. Cache failures never fail the read.
	ReadThrough(ctx context.Context, key string, dest interface{}, fetchFunc func() (interface{}, error), expiration time.Duration) error

	// WriteThrough writes to the source first and then refreshes the cache.
	WriteThrough(ctx context.Context, key string, value interface{}, writeFunc func(value interface{}) error, expiration time.Duration) error
}

type CacheManager struct {
	cache  Cache
	logger logger.Logger
}

func NewCacheManager(cache Cache, logger logger.Logger) CacheStrategy {
	return &CacheManager{
		cache:  cache,
		logger: logger,
	}
}

func (cm *CacheManager) ReadThrough(ctx context.Context, key string, dest interface{}, fetchFunc func() (interface{}, error), expiration time.Duration) error {
	err := cm.cache.Get(ctx, key, dest)
	if err == nil {
		metrics.RecordCacheHit()
		return nil
	}

	metrics.RecordCacheMiss()
	if !errors.Is(err, ErrCacheMiss) {
		cm.logger.Warn("Cache indisponível, a ler da origem", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	data, err := fetchFunc()
	if err != nil {
		return err
	}

	if err := cm.cache.Set(ctx, key, data, expiration); err != nil {
		cm.logger.Warn("Resultado não pôde ser guardado na cache", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	return copyData(data, dest)
}

func (cm *CacheManager) WriteThrough(ctx context.Context, key string, value interface{}, writeFunc func(value interface{}) error, expiration time.Duration) error {
	if err := writeFunc(value); err != nil {
		return err
	}

	if err := cm.cache.Set(ctx, key, value, expiration); err != nil {
		// The source is already updated; drop the stale entry instead.
		cm.logger.Warn("Cache não atualizada após escrita, a invalidar", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		_ = cm.cache.Delete(ctx, key)
	}

	return nil
}

func UserCacheKey(userID int64) string {
	return fmt.Sprintf(UserByIDKey, userID)
}

func UserCacheKeys(userIDs []int64) []string {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = UserCacheKey(id)
	}
	return keys
}

func copyData(src, dest interface{}) error {
	switch d := dest.(type) {
	case *interface{}:
		*d = src
		return nil
	default:
		data, err := json.Marshal(src)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, dest)
	}
}
