package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/internal/api/middleware"
	"blogapi/internal/config"
	"blogapi/internal/domain"
	"blogapi/pkg/factory"
	"blogapi/pkg/logger"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{
		AppEnv:      "test",
		ServiceName: "blogapi-test",
		LogLevel:    "error",
		Server:      config.ServerConfig{Port: "3003", Timeout: 5 * time.Second},
		Posts:       config.PostsConfig{IDPolicy: "length"},
		Audit: config.AuditConfig{
			Driver:    "sqlite3",
			DSN:       ":memory:",
			Workers:   1,
			QueueSize: 16,
		},
	}

	f, err := factory.NewFactory(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { f.Close(context.Background()) })

	return NewRouter(f)
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var msg messageResponse
	decode(t, rec, &msg)
	return msg.Message
}

func TestUserRoutes(t *testing.T) {
	h := newTestServer(t)

	t.Run("get by id", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/users/2", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var user domain.User
		decode(t, rec, &user)
		assert.Equal(t, int64(2), user.ID)
		assert.Equal(t, "mgm@gmail.com", user.Email)
	})

	t.Run("id gates", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/users/abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, domain.MsgInvalidUserID, messageOf(t, rec))

		rec = do(t, h, http.MethodGet, "/users/99", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, domain.MsgUserNotFound, messageOf(t, rec))

		rec = do(t, h, http.MethodGet, "/users/1.0", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, h, http.MethodGet, "/users/2.5", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("age range", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/users/age-range?min=20&max=30", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var users []domain.User
		decode(t, rec, &users)
		require.Len(t, users, 2)
		assert.Equal(t, int64(1), users[0].ID)
		assert.Equal(t, int64(2), users[1].ID)

		rec = do(t, h, http.MethodGet, "/users/age-range?min=90&max=99", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())

		rec = do(t, h, http.MethodGet, "/users/age-range?min=20", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, domain.MsgAgeRangeRequired, messageOf(t, rec))

		rec = do(t, h, http.MethodGet, "/users/age-range?min=a&max=30", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, domain.MsgAgeRangeNotNumeric, messageOf(t, rec))
	})

	t.Run("update", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/users/3",
			`{"name":"Maria","email":"Mavi.Nova@Gmail.com","role":"admin","age":20}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Message string      `json:"message"`
			User    domain.User `json:"user"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, domain.MsgUserUpdated, resp.Message)
		assert.Equal(t, "mavi.nova@gmail.com", resp.User.Email)
		assert.Equal(t, domain.UserRoleAdmin, resp.User.Role)

		rec = do(t, h, http.MethodPut, "/users/2",
			`{"name":"Gabriel","email":"mavi.nova@gmail.com","role":"user","age":22}`, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, domain.MsgEmailInUse, messageOf(t, rec))

		rec = do(t, h, http.MethodPut, "/users/2", `{"name":"Gabriel"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, domain.MsgUpdateFieldsRequired, messageOf(t, rec))

		rec = do(t, h, http.MethodPut, "/users/2", `{"name":`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, domain.MsgInvalidBody, messageOf(t, rec))
	})
}

func TestPostLifecycle(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/posts",
		`{"title":"Primeiro","content":"Conteúdo com tamanho suficiente","authorId":2}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Message string      `json:"message"`
		Post    domain.Post `json:"post"`
	}
	decode(t, rec, &created)
	assert.Equal(t, domain.MsgPostCreated, created.Message)
	assert.Equal(t, int64(1), created.Post.ID)
	assert.Equal(t, int64(2), created.Post.AuthorID)
	assert.False(t, created.Post.Published)

	rec = do(t, h, http.MethodPatch, "/posts/1", `{"published":true}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var patched struct {
		Message string      `json:"message"`
		Post    domain.Post `json:"post"`
	}
	decode(t, rec, &patched)
	assert.Equal(t, domain.MsgPostUpdated, patched.Message)
	assert.True(t, patched.Post.Published)
	assert.Equal(t, "Primeiro", patched.Post.Title)

	rec = do(t, h, http.MethodPatch, "/posts/1", `{"authorId":3}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Não é permitido alterar o campo 'authorId'.", messageOf(t, rec))

	// User 3 is neither the author nor an admin.
	rec = do(t, h, http.MethodDelete, "/posts/1", "", map[string]string{UserIDHeader: "3"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.MsgDeleteForbidden, messageOf(t, rec))

	rec = do(t, h, http.MethodDelete, "/posts/1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.MsgInvalidUserIDHeader, messageOf(t, rec))

	rec = do(t, h, http.MethodDelete, "/posts/1", "", map[string]string{UserIDHeader: "1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.MsgPostDeleted, messageOf(t, rec))

	rec = do(t, h, http.MethodDelete, "/posts/1", "", map[string]string{UserIDHeader: "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.MsgPostToDeleteNotFound, messageOf(t, rec))
}

func TestCreatePostGates(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"empty body", ``, http.StatusBadRequest, domain.MsgPostFieldsRequired},
		{"short title", `{"title":"Hi","content":"Conteúdo suficiente","authorId":1}`, http.StatusBadRequest, domain.MsgPostTitleTooShort},
		{"short content", `{"title":"Título","content":"curto","authorId":1}`, http.StatusBadRequest, domain.MsgPostContentTooShort},
		{"wrong type", `{"title":["Título"],"content":"Conteúdo suficiente","authorId":1}`, http.StatusBadRequest, domain.MsgInvalidTypes},
		{"string author", `{"title":"Título","content":"Conteúdo suficiente","authorId":"9"}`, http.StatusNotFound, "Autor com id 9 não foi encontrado."},
		{"unknown author", `{"title":"Título","content":"Conteúdo suficiente","authorId":42}`, http.StatusNotFound, "Autor com id 42 não foi encontrado."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/posts", tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, messageOf(t, rec))
		})
	}
}

func TestCleanupInactiveUsers(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodDelete, "/users/cleanup-inactive", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.MsgCleanupConfirm, messageOf(t, rec))

	rec = do(t, h, http.MethodPost, "/posts",
		`{"title":"Post do Gabriel","content":"Conteúdo com tamanho suficiente","authorId":2}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodDelete, "/users/cleanup-inactive?confirm=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message      string        `json:"message"`
		RemovedUsers []domain.User `json:"removedUsers"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, domain.MsgCleanupDone, resp.Message)
	require.Len(t, resp.RemovedUsers, 1)
	assert.Equal(t, int64(3), resp.RemovedUsers[0].ID)

	rec = do(t, h, http.MethodGet, "/users/3", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuditLogRoutes(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/posts",
		`{"title":"Auditado","content":"Conteúdo com tamanho suficiente","authorId":1}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Audit writes are asynchronous.
	require.Eventually(t, func() bool {
		rec := do(t, h, http.MethodGet, "/audit-logs?entity_type=post&entity_id=1", "", nil)
		if rec.Code != http.StatusOK {
			return false
		}
		var logs []domain.AuditLog
		if err := json.Unmarshal(rec.Body.Bytes(), &logs); err != nil {
			return false
		}
		return len(logs) == 1 && logs[0].Action == domain.ActionTypeCreate
	}, 2*time.Second, 20*time.Millisecond)

	rec = do(t, h, http.MethodGet, "/audit-logs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []domain.AuditLog
	decode(t, rec, &all)
	assert.Len(t, all, 1)

	tests := []struct {
		query string
		msg   string
	}{
		{"?entity_type=post", domain.MsgAuditFilterIncomplete},
		{"?entity_id=1", domain.MsgAuditFilterIncomplete},
		{"?entity_type=comment&entity_id=1", domain.MsgInvalidAuditEntity},
		{"?entity_type=user&entity_id=x", domain.MsgInvalidAuditEntityID},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodGet, "/audit-logs"+tt.query, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.query)
		assert.Equal(t, tt.msg, messageOf(t, rec), tt.query)
	}
}

func TestHealthRoutes(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status   string                            `json:"status"`
		Services map[string]map[string]interface{} `json:"services"`
	}
	decode(t, rec, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Services["audit_db"]["status"])
	assert.Equal(t, "disabled", health.Services["cache"]["status"])
	assert.Equal(t, "healthy", health.Services["audit_pool"]["status"])
	assert.EqualValues(t, 3, health.Services["stores"]["users"])
	assert.EqualValues(t, 0, health.Services["stores"]["posts"])

	rec = do(t, h, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready"`)
}

func TestMiddlewareAndMetrics(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/users/1", "", map[string]string{middleware.RequestIDHeader: "req-123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(middleware.RequestIDHeader))

	rec = do(t, h, http.MethodGet, "/users/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "blogapi_http_requests_total")
	assert.Contains(t, body, `route="GET /users/{id}"`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind   error
		status int
		label  string
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{domain.ErrConflict, http.StatusConflict, "conflict"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{nil, http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		status, label := statusFor(tt.kind)
		assert.Equal(t, tt.status, status)
		assert.Equal(t, tt.label, label)
	}
}

func TestDecodeBody(t *testing.T) {
	body, err := decodeBody(httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader("null")))
	require.NoError(t, err)
	assert.Empty(t, body)

	body, err = decodeBody(httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"title":"x"}`)))
	require.NoError(t, err)
	assert.JSONEq(t, `"x"`, string(body["title"]))

	_, err = decodeBody(httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`[1,2]`)))
	assert.EqualError(t, err, domain.MsgInvalidBody)
}
