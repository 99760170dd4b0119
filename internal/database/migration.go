package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blogapi/pkg/logger"
)

type Migration struct {
	Name string
	Func func(ctx context.Context, tx *sql.Tx, dialect Dialect) error
}

// Dialect holds the few DDL fragments that differ between drivers.
type Dialect struct {
	AutoIncrementPK string
	BigInt          string
}

func DialectFor(driver string) Dialect {
	if driver == DriverPostgres {
		return Dialect{AutoIncrementPK: "BIGSERIAL PRIMARY KEY", BigInt: "BIGINT"}
	}
	return Dialect{AutoIncrementPK: "INTEGER PRIMARY KEY AUTOINCREMENT", BigInt: "INTEGER"}
}

type MigrationService struct {
	db      *sql.DB
	dialect Dialect
	logger  logger.Logger
}

func NewMigrationService(db *sql.DB, driver string, logger logger.Logger) *MigrationService {
	return &MigrationService{
		db:      db,
		dialect: DialectFor(driver),
		logger:  logger,
	}
}

func Migrations() []Migration {
	return []Migration{
		{Name: "create_audit_logs_table", Func: CreateAuditLogsTable},
		{Name: "create_audit_logs_entity_index", Func: CreateAuditLogsEntityIndex},
	}
}

func (m *MigrationService) InitMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS migrations (
        id %s,
        name TEXT NOT NULL UNIQUE,
        applied_at TIMESTAMP NOT NULL
    )
    `, m.dialect.AutoIncrementPK)

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		m.logger.Error("Tabela de migrações não pôde ser criada", map[string]interface{}{"error": err.Error()})
		return err
	}

	return nil
}

func (m *MigrationService) IsMigrationApplied(ctx context.Context, name string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM migrations WHERE name = $1"
	if err := m.db.QueryRowContext(ctx, query, name).Scan(&count); err != nil {
		m.logger.Error("Estado da migração não pôde ser verificado", map[string]interface{}{"name": name, "error": err.Error()})
		return false, err
	}

	return count > 0, nil
}

// ApplyMigration runs the migration and records it in one transaction.
func (m *MigrationService) ApplyMigration(ctx context.Context, migration Migration) (err error) {
	applied, err := m.IsMigrationApplied(ctx, migration.Name)
	if err != nil {
		return err
	}

	if applied {
		m.logger.Debug("Migração já aplicada", map[string]interface{}{"name": migration.Name})
		return nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transação não pôde ser iniciada: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			m.logger.Error("Migração revertida", map[string]interface{}{"name": migration.Name, "error": err.Error()})
		}
	}()

	if err = migration.Func(ctx, tx, m.dialect); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, "INSERT INTO migrations (name, applied_at) VALUES ($1, $2)", migration.Name, time.Now().UTC()); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("transação não pôde ser confirmada: %w", err)
	}

	m.logger.Info("Migração aplicada", map[string]interface{}{"name": migration.Name})
	return nil
}

func (m *MigrationService) RunMigrations(ctx context.Context) error {
	if err := m.InitMigrationTable(ctx); err != nil {
		return fmt.Errorf("tabela de migrações não pôde ser criada: %w", err)
	}

	for _, migration := range Migrations() {
		if err := m.ApplyMigration(ctx, migration); err != nil {
			return fmt.Errorf("migração %s falhou: %w", migration.Name, err)
		}
	}

	return nil
}

func CreateAuditLogsTable(ctx context.Context, tx *sql.Tx, dialect Dialect) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS audit_logs (
        id %s,
        entity_type TEXT NOT NULL,
        entity_id %s NOT NULL,
        action TEXT NOT NULL,
        details TEXT,
        created_at TIMESTAMP NOT NULL
    )
    `, dialect.AutoIncrementPK, dialect.BigInt)

	_, err := tx.ExecContext(ctx, query)
	return err
}

func CreateAuditLogsEntityIndex(ctx context.Context, tx *sql.Tx, dialect Dialect) error {
	_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS audit_logs_entity_idx ON audit_logs (entity_type, entity_id)`)
	return err
}
