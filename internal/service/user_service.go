package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
	"blogapi/pkg/tracing"
)

type UserService struct {
	repo     domain.UserRepository
	posts    domain.PostRepository
	auditLog domain.AuditLogService
	logger   logger.Logger

	// writeMu makes each check-then-write pipeline atomic.
	writeMu sync.Mutex
}

func NewUserService(
	repo domain.UserRepository,
	posts domain.PostRepository,
	auditLog domain.AuditLogService,
	logger logger.Logger,
) domain.UserService {
	return &UserService{
		repo:     repo,
		posts:    posts,
		auditLog: auditLog,
		logger:   logger,
	}
}

// findUser treats a non-integer id as a miss.
func (s *UserService) findUser(ctx context.Context, id recordID) (*domain.User, error) {
	if !id.integral {
		return nil, nil
	}
	return s.repo.FindByID(ctx, id.value)
}

func (s *UserService) GetUserByID(ctx context.Context, rawID string) (*domain.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserService.GetUserByID")
	defer span.End()

	id, err := parseID(rawID, domain.MsgInvalidUserID)
	if err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Utilizador não pôde ser lido", map[string]interface{}{"id": id.value, "error": err.Error()})
		return nil, fmt.Errorf("utilizador não lido: %w", err)
	}

	if user == nil {
		return nil, domain.NotFound(domain.MsgUserNotFound)
	}

	return user, nil
}

// GetUsersByAgeRange returns users with min <= age <= max in store order.
// An empty or inverted range yields an empty slice.
func (s *UserService) GetUsersByAgeRange(ctx context.Context, rawMin, rawMax string) ([]*domain.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserService.GetUsersByAgeRange")
	defer span.End()

	if rawMin == "" || rawMax == "" {
		return nil, domain.InvalidInput(domain.MsgAgeRangeRequired)
	}

	min, okMin := parseNumber(rawMin)
	max, okMax := parseNumber(rawMax)
	if !okMin || !okMax {
		return nil, domain.InvalidInput(domain.MsgAgeRangeNotNumeric)
	}

	users, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Utilizadores não puderam ser listados", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("utilizadores não listados: %w", err)
	}

	result := make([]*domain.User, 0, len(users))
	for _, u := range users {
		age := float64(u.Age)
		if age >= min && age <= max {
			result = append(result, u)
		}
	}

	return result, nil
}

type userUpdate struct {
	name  string
	email string
	role  domain.Role
	age   int
}

// decodeUserUpdate runs the body gates of UpdateUser in order: required
// fields, then types, then role.
func decodeUserUpdate(body map[string]json.RawMessage) (*userUpdate, error) {
	_, hasAge := body["age"]
	if isFalsy(body, "name") || isFalsy(body, "email") || isFalsy(body, "role") || !hasAge {
		return nil, domain.InvalidInput(domain.MsgUpdateFieldsRequired)
	}

	name, okName := decodeString(body["name"])
	email, okEmail := decodeString(body["email"])
	role, okRole := decodeString(body["role"])
	age, okAge := decodeInt(body["age"])
	if !okName || !okEmail || !okRole || !okAge || !isValidAge(age) {
		return nil, domain.InvalidInput(domain.MsgInvalidTypes)
	}

	if !isValidRole(role) {
		return nil, domain.InvalidInput(domain.MsgInvalidRole)
	}

	return &userUpdate{
		name:  name,
		email: email,
		role:  domain.Role(role),
		age:   int(age),
	}, nil
}

// UpdateUser replaces name, email, role and age of an existing user. The
// stored email is lower-cased and must not belong to anybody else.
func (s *UserService) UpdateUser(ctx context.Context, rawID string, body map[string]json.RawMessage) (*domain.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserService.UpdateUser")
	defer span.End()

	id, err := parseID(rawID, domain.MsgInvalidUserID)
	if err != nil {
		return nil, err
	}

	update, err := decodeUserUpdate(body)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	user, err := s.findUser(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Utilizador não pôde ser lido", map[string]interface{}{"id": id.value, "error": err.Error()})
		return nil, fmt.Errorf("utilizador não atualizado: %w", err)
	}
	if user == nil {
		return nil, domain.NotFound(domain.MsgUserNotFound)
	}

	owner, err := s.repo.FindByEmail(ctx, update.email)
	if err != nil {
		s.logger.ErrorContext(ctx, "Verificação de e-mail falhou", map[string]interface{}{"email": update.email, "error": err.Error()})
		return nil, fmt.Errorf("utilizador não atualizado: %w", err)
	}
	if owner != nil && owner.ID != user.ID {
		return nil, domain.Conflict(domain.MsgEmailInUse)
	}

	user.Name = update.name
	user.Email = strings.ToLower(update.email)
	user.Role = update.role
	user.Age = update.age

	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "Utilizador não pôde ser atualizado", map[string]interface{}{"id": user.ID, "error": err.Error()})
		return nil, fmt.Errorf("utilizador não atualizado: %w", err)
	}

	s.logger.InfoContext(ctx, "Utilizador atualizado", map[string]interface{}{"id": user.ID, "role": user.Role})
	s.audit(ctx, user.ID, domain.ActionTypeUpdate, fmt.Sprintf("Utilizador atualizado: %s", user.Email))

	return user, nil
}

// CleanupInactiveUsers removes every non-admin user that authored no post
// and returns them in store order.
//
// writeMu only serialises user writes. PostService creates posts under its
// own lock, so a post created between the author scan and the removal can
// reference a user this call removes. Posts are allowed to outlive their
// author.
func (s *UserService) CleanupInactiveUsers(ctx context.Context, confirm string) ([]*domain.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserService.CleanupInactiveUsers")
	defer span.End()

	if confirm != "true" {
		return nil, domain.InvalidInput(domain.MsgCleanupConfirm)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	posts, err := s.posts.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Posts não puderam ser listados", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("limpeza não executada: %w", err)
	}

	authors := make(map[int64]struct{}, len(posts))
	for _, p := range posts {
		authors[p.AuthorID] = struct{}{}
	}

	users, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Utilizadores não puderam ser listados", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("limpeza não executada: %w", err)
	}

	removed := make([]*domain.User, 0)
	ids := make([]int64, 0)
	for _, u := range users {
		if u.IsAdmin() {
			continue
		}
		if _, active := authors[u.ID]; active {
			continue
		}
		removed = append(removed, u)
		ids = append(ids, u.ID)
	}

	if len(ids) == 0 {
		return removed, nil
	}

	if err := s.repo.RemoveByIDs(ctx, ids); err != nil {
		s.logger.ErrorContext(ctx, "Utilizadores inativos não puderam ser removidos", map[string]interface{}{"ids": ids, "error": err.Error()})
		return nil, fmt.Errorf("limpeza não executada: %w", err)
	}

	s.logger.InfoContext(ctx, "Utilizadores inativos removidos", map[string]interface{}{"count": len(ids), "ids": ids})
	for _, u := range removed {
		s.audit(ctx, u.ID, domain.ActionTypeDelete, fmt.Sprintf("Utilizador inativo removido: %s", u.Email))
	}

	return removed, nil
}

func (s *UserService) audit(ctx context.Context, userID int64, action domain.ActionType, details string) {
	if err := s.auditLog.LogAction(ctx, domain.EntityTypeUser, userID, action, details); err != nil {
		s.logger.WarnContext(ctx, "Auditoria do utilizador em falta", map[string]interface{}{"user_id": userID, "error": err.Error()})
	}
}
