package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/internal/domain"
	"blogapi/pkg/cache"
	"blogapi/pkg/logger"
)

// memoryCache is a JSON round-tripping stand-in for Redis.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = data
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	data, ok := c.items[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return c.err
}

func (c *memoryCache) SetMultiple(ctx context.Context, items map[string]interface{}, expiration time.Duration) error {
	for k, v := range items {
		if err := c.Set(ctx, k, v, expiration); err != nil {
			return err
		}
	}
	return nil
}

func (c *memoryCache) DeleteMultiple(ctx context.Context, keys []string) error {
	for _, k := range keys {
		if err := c.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (c *memoryCache) Ping(ctx context.Context) error {
	return c.err
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

func newCachedUsers(c cache.Cache) domain.UserRepository {
	log := logger.Nop()
	return NewCachedUserRepository(
		NewUserRepository(SeedUsers(), log),
		c,
		cache.NewCacheManager(c, log),
		time.Minute,
		log,
	)
}

func TestCachedUserRepository_ReadThrough(t *testing.T) {
	c := newMemoryCache()
	repo := newCachedUsers(c)
	ctx := context.Background()

	u, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Thiago", u.Name)
	assert.True(t, c.has(cache.UserCacheKey(1)))

	u, err = repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Thiago", u.Name)
}

func TestCachedUserRepository_MissIsNotCached(t *testing.T) {
	c := newMemoryCache()
	repo := newCachedUsers(c)

	u, err := repo.FindByID(context.Background(), 50)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.False(t, c.has(cache.UserCacheKey(50)))
}

func TestCachedUserRepository_UpdateRefreshesCache(t *testing.T) {
	c := newMemoryCache()
	repo := newCachedUsers(c)
	ctx := context.Background()

	u, err := repo.FindByID(ctx, 2)
	require.NoError(t, err)

	u.Email = "novo@gmail.com"
	require.NoError(t, repo.Update(ctx, u))

	cached, err := repo.FindByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "novo@gmail.com", cached.Email)
}

func TestCachedUserRepository_RemoveInvalidates(t *testing.T) {
	c := newMemoryCache()
	repo := newCachedUsers(c)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	require.True(t, c.has(cache.UserCacheKey(3)))

	require.NoError(t, repo.RemoveByIDs(ctx, []int64{3}))
	assert.False(t, c.has(cache.UserCacheKey(3)))

	u, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestCachedUserRepository_BrokenCacheFallsThrough(t *testing.T) {
	c := newMemoryCache()
	c.err = errors.New("connection refused")
	repo := newCachedUsers(c)
	ctx := context.Background()

	u, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(1), u.ID)

	u.Age = 31
	require.NoError(t, repo.Update(ctx, u))
	require.NoError(t, repo.RemoveByIDs(ctx, []int64{2}))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// pausingUsers holds the first FindByID after it has read the store until
// release is closed.
type pausingUsers struct {
	domain.UserRepository
	armed   atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func newPausingUsers() *pausingUsers {
	p := &pausingUsers{
		UserRepository: NewUserRepository(SeedUsers(), logger.Nop()),
		read:           make(chan struct{}),
		release:        make(chan struct{}),
	}
	p.armed.Store(true)
	return p
}

func (p *pausingUsers) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := p.UserRepository.FindByID(ctx, id)
	if p.armed.CompareAndSwap(true, false) {
		close(p.read)
		<-p.release
	}
	return u, err
}

func TestCachedUserRepository_ReadRacingWrite(t *testing.T) {
	tests := []struct {
		name  string
		write func(ctx context.Context, repo domain.UserRepository) error
		check func(t *testing.T, u *domain.User)
	}{
		{
			name: "removal",
			write: func(ctx context.Context, repo domain.UserRepository) error {
				return repo.RemoveByIDs(ctx, []int64{2})
			},
			check: func(t *testing.T, u *domain.User) {
				assert.Nil(t, u)
			},
		},
		{
			name: "update",
			write: func(ctx context.Context, repo domain.UserRepository) error {
				u := &domain.User{ID: 2, Name: "Gabriel", Email: "gabriel@gmail.com", Age: 23, Role: domain.UserRoleUser}
				return repo.Update(ctx, u)
			},
			check: func(t *testing.T, u *domain.User) {
				require.NotNil(t, u)
				assert.Equal(t, "gabriel@gmail.com", u.Email)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMemoryCache()
			inner := newPausingUsers()
			log := logger.Nop()
			repo := NewCachedUserRepository(inner, c, cache.NewCacheManager(c, log), time.Minute, log)
			ctx := context.Background()

			done := make(chan error, 1)
			go func() {
				_, err := repo.FindByID(ctx, 2)
				done <- err
			}()

			<-inner.read
			require.NoError(t, tt.write(ctx, repo))
			close(inner.release)
			require.NoError(t, <-done)

			u, err := repo.FindByID(ctx, 2)
			require.NoError(t, err)
			tt.check(t, u)
		})
	}
}
