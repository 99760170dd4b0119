package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

type AuditLogRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewAuditLogRepository(db *sql.DB, logger logger.Logger) domain.AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	defer observe("create", "audit_log", time.Now())

	query := `
		INSERT INTO audit_logs (entity_type, entity_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(
		ctx,
		query,
		string(log.EntityType),
		log.EntityID,
		string(log.Action),
		log.Details,
		log.CreatedAt,
	).Scan(&log.ID)

	if err != nil {
		r.logger.Error("Registo de auditoria não pôde ser criado", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("registo de auditoria não pôde ser criado: %w", err)
	}

	return nil
}

func (r *AuditLogRepository) FindByEntityID(ctx context.Context, entityType domain.EntityType, entityID int64) ([]*domain.AuditLog, error) {
	defer observe("find_by_entity", "audit_log", time.Now())

	query := `
		SELECT id, entity_type, entity_id, action, details, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, string(entityType), entityID)
	if err != nil {
		r.logger.Error("Registos de auditoria não encontrados", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("registos de auditoria não encontrados: %w", err)
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func (r *AuditLogRepository) FindAll(ctx context.Context) ([]*domain.AuditLog, error) {
	defer observe("find_all", "audit_log", time.Now())

	query := `
		SELECT id, entity_type, entity_id, action, details, created_at
		FROM audit_logs
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Registos de auditoria não encontrados", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("registos de auditoria não encontrados: %w", err)
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func (r *AuditLogRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanAuditLogs(rows *sql.Rows) ([]*domain.AuditLog, error) {
	logs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		var (
			log                     domain.AuditLog
			entityTypeStr, actionStr string
			details                 sql.NullString
		)

		if err := rows.Scan(
			&log.ID,
			&entityTypeStr,
			&log.EntityID,
			&actionStr,
			&details,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("registo de auditoria ilegível: %w", err)
		}

		log.EntityType = domain.EntityType(entityTypeStr)
		log.Action = domain.ActionType(actionStr)
		log.Details = details.String
		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leitura dos registos de auditoria falhou: %w", err)
	}

	return logs, nil
}
