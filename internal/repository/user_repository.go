package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
	"blogapi/pkg/metrics"
)

// UserRepository keeps users in insertion order. Every method hands out
// copies, so callers cannot mutate stored records behind the lock.
type UserRepository struct {
	mu     sync.RWMutex
	users  []*domain.User
	logger logger.Logger
}

func NewUserRepository(seed []*domain.User, logger logger.Logger) domain.UserRepository {
	users := make([]*domain.User, 0, len(seed))
	for _, u := range seed {
		users = append(users, cloneUser(u))
	}
	metrics.SetUserCount(len(users))

	return &UserRepository{
		users:  users,
		logger: logger,
	}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	defer observe("find_all", "user", time.Now())

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	defer observe("find_by_id", "user", time.Now())

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer observe("find_by_email", "user", time.Now())

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	defer observe("update", "user", time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.users {
		if u.ID == user.ID {
			r.users[i] = cloneUser(user)
			return nil
		}
	}

	r.logger.Error("Utilizador a atualizar não existe", map[string]interface{}{"id": user.ID})
	return fmt.Errorf("utilizador %d não pôde ser atualizado: %w", user.ID, domain.ErrNotFound)
}

func (r *UserRepository) RemoveByIDs(ctx context.Context, ids []int64) error {
	defer observe("remove", "user", time.Now())

	if len(ids) == 0 {
		return nil
	}

	remove := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.users[:0]
	for _, u := range r.users {
		if _, ok := remove[u.ID]; !ok {
			kept = append(kept, u)
		}
	}
	for i := len(kept); i < len(r.users); i++ {
		r.users[i] = nil
	}
	r.users = kept
	metrics.SetUserCount(len(r.users))

	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}
