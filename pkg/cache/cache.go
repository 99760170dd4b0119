package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"blogapi/pkg/logger"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON encoded values under string keys.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error

	SetMultiple(ctx context.Context, items map[string]interface{}, expiration time.Duration) error
	DeleteMultiple(ctx context.Context, keys []string) error

	Ping(ctx context.Context) error
}

type RedisCache struct {
	client *redis.Client
	logger logger.Logger
	prefix string
}

func NewRedisCache(client *redis.Client, logger logger.Logger, prefix string) Cache {
	return &RedisCache{
		client: client,
		logger: logger,
		prefix: prefix,
	}
}

func (r *RedisCache) makeKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("valor da cache não serializável: %w", err)
	}

	fullKey := r.makeKey(key)
	if err := r.client.Set(ctx, fullKey, data, expiration).Err(); err != nil {
		r.logger.Error("Erro ao gravar na cache", map[string]interface{}{
			"key":   fullKey,
			"error": err.Error(),
		})
		return err
	}

	r.logger.Debug("Valor gravado na cache", map[string]interface{}{
		"key":        fullKey,
		"expiration": expiration.String(),
	})
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	fullKey := r.makeKey(key)
	data, err := r.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		r.logger.Error("Erro ao ler da cache", map[string]interface{}{
			"key":   fullKey,
			"error": err.Error(),
		})
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("valor da cache ilegível em %s: %w", fullKey, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.DeleteMultiple(ctx, []string{key})
}

func (r *RedisCache) SetMultiple(ctx context.Context, items map[string]interface{}, expiration time.Duration) error {
	if len(items) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for key, value := range items {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("valor da cache não serializável (%s): %w", key, err)
		}
		pipe.Set(ctx, r.makeKey(key), data, expiration)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Erro ao gravar vários valores na cache", map[string]interface{}{
			"count": len(items),
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func (r *RedisCache) DeleteMultiple(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = r.makeKey(key)
	}

	if err := r.client.Del(ctx, fullKeys...).Err(); err != nil {
		r.logger.Error("Erro ao remover chaves da cache", map[string]interface{}{
			"keys":  len(keys),
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
