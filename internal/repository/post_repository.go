package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
	"blogapi/pkg/metrics"
)

// PostRepository keeps posts in an ordered slice rather than a map: under
// the length id policy two posts can share an id, and lookups resolve to the
// first one in store order.
type PostRepository struct {
	mu     sync.RWMutex
	posts  []*domain.Post
	policy domain.PostIDPolicy
	seq    int64
	logger logger.Logger
}

func NewPostRepository(policy domain.PostIDPolicy, logger logger.Logger) domain.PostRepository {
	if !policy.Valid() {
		policy = domain.PostIDPolicyLength
	}
	metrics.SetPostCount(0)

	return &PostRepository{
		posts:  make([]*domain.Post, 0),
		policy: policy,
		logger: logger,
	}
}

func clonePost(p *domain.Post) *domain.Post {
	c := *p
	return &c
}

func (r *PostRepository) FindAll(ctx context.Context) ([]*domain.Post, error) {
	defer observe("find_all", "post", time.Now())

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, clonePost(p))
	}
	return out, nil
}

func (r *PostRepository) FindByID(ctx context.Context, id int64) (*domain.Post, error) {
	defer observe("find_by_id", "post", time.Now())

	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return clonePost(r.posts[i]), nil
	}
	return nil, nil
}

// Create assigns post.ID according to the policy and appends a copy.
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	defer observe("create", "post", time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.policy {
	case domain.PostIDPolicySequence:
		r.seq++
		post.ID = r.seq
	default:
		post.ID = int64(len(r.posts)) + 1
	}

	r.posts = append(r.posts, clonePost(post))
	metrics.SetPostCount(len(r.posts))

	r.logger.Debug("Post armazenado", map[string]interface{}{
		"id":     post.ID,
		"policy": string(r.policy),
	})
	return nil
}

func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	defer observe("update", "post", time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(post.ID)
	if i < 0 {
		return fmt.Errorf("post %d não pôde ser atualizado: %w", post.ID, domain.ErrNotFound)
	}
	r.posts[i] = clonePost(post)
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	defer observe("delete", "post", time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("post %d não pôde ser apagado: %w", id, domain.ErrNotFound)
	}

	copy(r.posts[i:], r.posts[i+1:])
	r.posts[len(r.posts)-1] = nil
	r.posts = r.posts[:len(r.posts)-1]
	metrics.SetPostCount(len(r.posts))

	return nil
}

func (r *PostRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts), nil
}

// indexOf must be called with the lock held.
func (r *PostRepository) indexOf(id int64) int {
	for i, p := range r.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}
