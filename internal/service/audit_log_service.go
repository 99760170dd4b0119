package service

import (
	"context"
	"fmt"
	"time"

	"blogapi/internal/concurrent"
	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

type AuditLogService struct {
	repo   domain.AuditLogRepository
	pool   *concurrent.WorkerPool
	logger logger.Logger
}

// NewAuditLogService writes through pool when one is given. pool may be nil,
// in which case every entry is written before LogAction returns.
func NewAuditLogService(repo domain.AuditLogRepository, pool *concurrent.WorkerPool, logger logger.Logger) domain.AuditLogService {
	return &AuditLogService{
		repo:   repo,
		pool:   pool,
		logger: logger,
	}
}

func (s *AuditLogService) LogAction(ctx context.Context, entityType domain.EntityType, entityID int64, action domain.ActionType, details string) error {
	auditLog := &domain.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}

	if s.pool != nil && s.pool.Submit(auditLog) {
		return nil
	}

	if err := s.repo.Create(ctx, auditLog); err != nil {
		s.logger.ErrorContext(ctx, "Registo de auditoria não pôde ser criado", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"action":      action,
			"error":       err.Error(),
		})
		return fmt.Errorf("registo de auditoria não criado: %w", err)
	}

	return nil
}

func (s *AuditLogService) GetEntityLogs(ctx context.Context, entityType domain.EntityType, entityID int64) ([]*domain.AuditLog, error) {
	logs, err := s.repo.FindByEntityID(ctx, entityType, entityID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Registos de auditoria não encontrados", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("registos de auditoria não encontrados: %w", err)
	}

	return logs, nil
}

func (s *AuditLogService) GetAllLogs(ctx context.Context) ([]*domain.AuditLog, error) {
	logs, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Registos de auditoria não encontrados", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("registos de auditoria não encontrados: %w", err)
	}

	return logs, nil
}
