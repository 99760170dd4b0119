package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"blogapi/internal/domain"
	"blogapi/pkg/cache"
	"blogapi/pkg/logger"
)

var errUserAbsent = errors.New("user absent")

// CachedUserRepository serves FindByID from the cache. Misses are not
// cached, and every write refreshes or drops the affected keys.
//
// Each id carries a generation bumped after every store write. A read that
// filled the cache while the generation moved drops its entry again, so a
// record read before an update or removal never outlives that write.
type CachedUserRepository struct {
	next       domain.UserRepository
	cache      cache.Cache
	strategy   cache.CacheStrategy
	expiration time.Duration
	logger     logger.Logger

	genMu       sync.Mutex
	generations map[int64]uint64
}

func NewCachedUserRepository(
	next domain.UserRepository,
	cacheInstance cache.Cache,
	strategy cache.CacheStrategy,
	expiration time.Duration,
	logger logger.Logger,
) domain.UserRepository {
	if expiration <= 0 {
		expiration = cache.DefaultExpiration
	}
	return &CachedUserRepository{
		next:        next,
		cache:       cacheInstance,
		strategy:    strategy,
		expiration:  expiration,
		logger:      logger,
		generations: make(map[int64]uint64),
	}
}

func (r *CachedUserRepository) generation(id int64) uint64 {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	return r.generations[id]
}

func (r *CachedUserRepository) bump(ids ...int64) {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	for _, id := range ids {
		r.generations[id]++
	}
}

func (r *CachedUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	key := cache.UserCacheKey(id)
	gen := r.generation(id)
	fetched := false

	var user domain.User
	err := r.strategy.ReadThrough(ctx, key, &user, func() (interface{}, error) {
		fetched = true
		u, err := r.next.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, errUserAbsent
		}
		return u, nil
	}, r.expiration)

	if fetched && r.generation(id) != gen {
		if delErr := r.cache.Delete(ctx, key); delErr != nil {
			r.logger.Warn("Entrada desatualizada não removida da cache", map[string]interface{}{
				"id":    id,
				"error": delErr.Error(),
			})
		}
	}

	if errors.Is(err, errUserAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *CachedUserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.strategy.WriteThrough(ctx, cache.UserCacheKey(user.ID), user, func(interface{}) error {
		if err := r.next.Update(ctx, user); err != nil {
			return err
		}
		r.bump(user.ID)
		return nil
	}, r.expiration)
}

func (r *CachedUserRepository) RemoveByIDs(ctx context.Context, ids []int64) error {
	if err := r.next.RemoveByIDs(ctx, ids); err != nil {
		return err
	}
	r.bump(ids...)

	if err := r.cache.DeleteMultiple(ctx, cache.UserCacheKeys(ids)); err != nil {
		r.logger.Error("Cache de utilizadores removidos não invalidada", map[string]interface{}{
			"ids":   ids,
			"error": err.Error(),
		})
	}
	return nil
}

func (r *CachedUserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	return r.next.FindAll(ctx)
}

func (r *CachedUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.next.FindByEmail(ctx, email)
}

func (r *CachedUserRepository) Count(ctx context.Context) (int, error) {
	return r.next.Count(ctx)
}
