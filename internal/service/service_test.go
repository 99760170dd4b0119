package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/internal/domain"
	"blogapi/internal/repository"
	"blogapi/pkg/logger"
)

type auditCall struct {
	entityType domain.EntityType
	entityID   int64
	action     domain.ActionType
}

// auditSpy records LogAction calls and can be told to fail.
type auditSpy struct {
	mu    sync.Mutex
	calls []auditCall
	err   error
}

func (a *auditSpy) LogAction(ctx context.Context, entityType domain.EntityType, entityID int64, action domain.ActionType, details string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, auditCall{entityType, entityID, action})
	return a.err
}

func (a *auditSpy) GetEntityLogs(ctx context.Context, entityType domain.EntityType, entityID int64) ([]*domain.AuditLog, error) {
	return nil, nil
}

func (a *auditSpy) GetAllLogs(ctx context.Context) ([]*domain.AuditLog, error) {
	return nil, nil
}

func (a *auditSpy) recorded() []auditCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]auditCall(nil), a.calls...)
}

type fixture struct {
	users domain.UserRepository
	posts domain.PostRepository
	audit *auditSpy
	userS domain.UserService
	postS domain.PostService
}

func newFixture(t *testing.T, seed []*domain.User, policy domain.PostIDPolicy) *fixture {
	t.Helper()
	log := logger.Nop()
	f := &fixture{
		users: repository.NewUserRepository(seed, log),
		posts: repository.NewPostRepository(policy, log),
		audit: &auditSpy{},
	}
	f.userS = NewUserService(f.users, f.posts, f.audit, log)
	f.postS = NewPostService(f.posts, f.users, f.audit, log)
	return f
}

func newSeededFixture(t *testing.T) *fixture {
	return newFixture(t, repository.SeedUsers(), domain.PostIDPolicyLength)
}

// body builds a request body the way the handlers decode it.
func body(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	m := make(map[string]json.RawMessage)
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

// assertGate checks both the error kind and the client message.
func assertGate(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "want %v, got %v", kind, err)
	assert.Equal(t, msg, err.Error())
}

func (f *fixture) createPost(t *testing.T, authorID int64) *domain.Post {
	t.Helper()
	p, err := f.postS.CreatePost(context.Background(), map[string]json.RawMessage{
		"title":    json.RawMessage(`"Primeiro post"`),
		"content":  json.RawMessage(`"Conteúdo suficientemente longo"`),
		"authorId": json.RawMessage(jsonInt(authorID)),
	})
	require.NoError(t, err)
	return p
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
