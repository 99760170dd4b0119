package cache

import (
	"context"
	"fmt"
	"time"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

// WarmUpManager preloads user records so the first reads after start hit
// the cache.
type WarmUpManager struct {
	cache      Cache
	logger     logger.Logger
	users      domain.UserRepository
	expiration time.Duration
}

func NewWarmUpManager(cache Cache, logger logger.Logger, users domain.UserRepository, expiration time.Duration) *WarmUpManager {
	return &WarmUpManager{
		cache:      cache,
		logger:     logger,
		users:      users,
		expiration: expiration,
	}
}

func (w *WarmUpManager) WarmUpUsers(ctx context.Context) error {
	start := time.Now()

	users, err := w.users.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("utilizadores não puderam ser lidos para a cache: %w", err)
	}

	items := make(map[string]interface{}, len(users))
	for _, u := range users {
		items[UserCacheKey(u.ID)] = u
	}

	if err := w.cache.SetMultiple(ctx, items, w.expiration); err != nil {
		w.logger.Error("Pré-carregamento da cache falhou", map[string]interface{}{
			"users": len(items),
			"error": err.Error(),
		})
		return err
	}

	w.logger.Info("Cache de utilizadores pré-carregada", map[string]interface{}{
		"users":    len(items),
		"duration": time.Since(start).String(),
	})
	return nil
}
