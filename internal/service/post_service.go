package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
	"blogapi/pkg/tracing"
)

type PostService struct {
	repo     domain.PostRepository
	users    domain.UserRepository
	auditLog domain.AuditLogService
	logger   logger.Logger
	now      func() time.Time

	writeMu sync.Mutex
}

func NewPostService(
	repo domain.PostRepository,
	users domain.UserRepository,
	auditLog domain.AuditLogService,
	logger logger.Logger,
) domain.PostService {
	return &PostService{
		repo:     repo,
		users:    users,
		auditLog: auditLog,
		logger:   logger,
		now:      time.Now,
	}
}

// CreatePost checks, in order: all fields filled in, title and content
// types, title length, content length and finally that the author exists.
func (s *PostService) CreatePost(ctx context.Context, body map[string]json.RawMessage) (*domain.Post, error) {
	ctx, span := tracing.StartSpan(ctx, "PostService.CreatePost")
	defer span.End()

	if isFalsy(body, "title") || isFalsy(body, "content") || isFalsy(body, "authorId") {
		return nil, domain.InvalidInput(domain.MsgPostFieldsRequired)
	}

	title, okTitle := decodeString(body["title"])
	content, okContent := decodeString(body["content"])
	if !okTitle || !okContent {
		return nil, domain.InvalidInput(domain.MsgInvalidTypes)
	}

	if !hasMinLength(title, domain.MinPostTitleLength) {
		return nil, domain.InvalidInput(domain.MsgPostTitleTooShort)
	}
	if !hasMinLength(content, domain.MinPostContentLength) {
		return nil, domain.InvalidInput(domain.MsgPostContentTooShort)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Only an integer can match a user id; any other value is a miss.
	authorID, isInt := decodeInt(body["authorId"])
	var author *domain.User
	if isInt {
		var err error
		author, err = s.users.FindByID(ctx, authorID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Autor não pôde ser lido", map[string]interface{}{"author_id": authorID, "error": err.Error()})
			return nil, fmt.Errorf("post não criado: %w", err)
		}
	}
	if author == nil {
		return nil, domain.NotFound(domain.MsgAuthorNotFound, displayValue(body["authorId"]))
	}

	post := &domain.Post{
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: s.now().UTC(),
		Published: false,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.logger.ErrorContext(ctx, "Post não pôde ser criado", map[string]interface{}{"author_id": authorID, "error": err.Error()})
		return nil, fmt.Errorf("post não criado: %w", err)
	}

	s.logger.InfoContext(ctx, "Post criado", map[string]interface{}{"id": post.ID, "author_id": authorID})
	s.audit(ctx, post.ID, domain.ActionTypeCreate, fmt.Sprintf("Post criado: %s", post.Title))

	return post, nil
}

// PatchPost merges title, content and published into an existing post. The
// whole patch is checked before anything is stored: protected keys, then
// unknown keys, then value types, then the create length minimums.
func (s *PostService) PatchPost(ctx context.Context, rawID string, body map[string]json.RawMessage) (*domain.Post, error) {
	ctx, span := tracing.StartSpan(ctx, "PostService.PatchPost")
	defer span.End()

	id, err := parseID(rawID, domain.MsgInvalidPostID)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	post, err := s.findPost(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Post não pôde ser lido", map[string]interface{}{"id": id.value, "error": err.Error()})
		return nil, fmt.Errorf("post não atualizado: %w", err)
	}
	if post == nil {
		return nil, domain.NotFound(domain.MsgPostNotFound)
	}

	if err := applyPostPatch(post, body); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, post); err != nil {
		s.logger.ErrorContext(ctx, "Post não pôde ser atualizado", map[string]interface{}{"id": post.ID, "error": err.Error()})
		return nil, fmt.Errorf("post não atualizado: %w", err)
	}

	s.logger.InfoContext(ctx, "Post atualizado", map[string]interface{}{"id": post.ID, "fields": len(body)})
	s.audit(ctx, post.ID, domain.ActionTypeUpdate, fmt.Sprintf("Post atualizado: %s", post.Title))

	return post, nil
}

// mutablePostFields are the keys a patch may carry.
var mutablePostFields = map[string]bool{"title": true, "content": true, "published": true}

// applyPostPatch mutates post only when every key in body is acceptable.
// Keys are checked in sorted order, one pass per gate.
func applyPostPatch(post *domain.Post, body map[string]json.RawMessage) error {
	for _, key := range domain.ProtectedPostFields {
		if _, ok := body[key]; ok {
			return domain.InvalidInput(domain.MsgProtectedField, key)
		}
	}

	keys := make([]string, 0, len(body))
	for key := range body {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !mutablePostFields[key] {
			return domain.InvalidInput(domain.MsgUnknownPostField, key)
		}
	}

	patched := *post
	for _, key := range keys {
		var ok bool
		switch key {
		case "title":
			patched.Title, ok = decodeString(body[key])
		case "content":
			patched.Content, ok = decodeString(body[key])
		case "published":
			patched.Published, ok = decodeBool(body[key])
		}
		if !ok {
			return domain.InvalidInput(domain.MsgInvalidFieldType, key)
		}
	}

	if !hasMinLength(patched.Title, domain.MinPostTitleLength) {
		return domain.InvalidInput(domain.MsgPostTitleTooShort)
	}
	if !hasMinLength(patched.Content, domain.MinPostContentLength) {
		return domain.InvalidInput(domain.MsgPostContentTooShort)
	}

	*post = patched
	return nil
}

// DeletePost removes the post when the requesting user is its author or an
// admin.
func (s *PostService) DeletePost(ctx context.Context, rawID, rawUserID string) error {
	ctx, span := tracing.StartSpan(ctx, "PostService.DeletePost")
	defer span.End()

	id, err := parseID(rawID, domain.MsgInvalidPostID)
	if err != nil {
		return err
	}

	userID, err := parseID(rawUserID, domain.MsgInvalidUserIDHeader)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	post, err := s.findPost(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Post não pôde ser lido", map[string]interface{}{"id": id.value, "error": err.Error()})
		return fmt.Errorf("post não apagado: %w", err)
	}
	if post == nil {
		return domain.NotFound(domain.MsgPostToDeleteNotFound)
	}

	var user *domain.User
	if userID.integral {
		user, err = s.users.FindByID(ctx, userID.value)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Utilizador da requisição não pôde ser lido", map[string]interface{}{"user_id": userID.value, "error": err.Error()})
		return fmt.Errorf("post não apagado: %w", err)
	}
	if user == nil {
		return domain.NotFound(domain.MsgRequestUserNotFound)
	}

	if post.AuthorID != user.ID && !user.IsAdmin() {
		s.logger.WarnContext(ctx, "Remoção de post recusada", map[string]interface{}{"id": post.ID, "user_id": user.ID})
		return domain.Forbidden(domain.MsgDeleteForbidden)
	}

	if err := s.repo.Delete(ctx, post.ID); err != nil {
		s.logger.ErrorContext(ctx, "Post não pôde ser apagado", map[string]interface{}{"id": post.ID, "error": err.Error()})
		return fmt.Errorf("post não apagado: %w", err)
	}

	s.logger.InfoContext(ctx, "Post apagado", map[string]interface{}{"id": post.ID, "user_id": user.ID})
	s.audit(ctx, post.ID, domain.ActionTypeDelete, fmt.Sprintf("Post apagado pelo utilizador %d", user.ID))

	return nil
}

// findPost treats a non-integer id as a miss.
func (s *PostService) findPost(ctx context.Context, id recordID) (*domain.Post, error) {
	if !id.integral {
		return nil, nil
	}
	return s.repo.FindByID(ctx, id.value)
}

func (s *PostService) audit(ctx context.Context, postID int64, action domain.ActionType, details string) {
	if err := s.auditLog.LogAction(ctx, domain.EntityTypePost, postID, action, details); err != nil {
		s.logger.WarnContext(ctx, "Auditoria do post em falta", map[string]interface{}{"post_id": postID, "error": err.Error()})
	}
}
