package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rfid-access-console/internal/config"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

type SQLProvider struct {
	db *sqlx.DB

	config *config.Storage

	logger *slog.Logger
}

func NewSQLProvider(config *config.Storage, driverName string, dataSource string) (*SQLProvider, error) {
	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName, err)
	}

	logger := slog.With("component", "storage")

	return &SQLProvider{
		db:     db,
		config: config,
		logger: logger,
	}, nil
}

func (p *SQLProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

const createSchemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL
)`

func (p *SQLProvider) GetSchemaVersion(ctx context.Context) (int, error) {
	if _, err := p.db.ExecContext(ctx, createSchemaMigrationsTable); err != nil {
		return -1, fmt.Errorf("create schema_migrations: %w", err)
	}
	var version int
	if err := p.db.GetContext(ctx, &version, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return -1, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (p *SQLProvider) runMigrations(ctx context.Context, driver string) error {
	return p.migrate(ctx, driver, -1)
}

// migrate moves the schema to target. -1 means the latest version, 0 the
// empty schema.
func (p *SQLProvider) migrate(ctx context.Context, driver string, target int) error {
	current, err := p.GetSchemaVersion(ctx)
	if err != nil {
		return err
	}

	runner := NewMigrationRunner(driver)
	migrations, err := runner.LoadMigrations(current, target)
	if errors.Is(err, ErrMigrateCurrentVersionSameAsTarget) {
		p.logger.Debug("Schema is up to date", "version", current)
		return nil
	}
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if err := p.applyMigration(ctx, m); err != nil {
			return err
		}
		p.logger.Info("Applied migration", "version", m.Version, "name", m.Name, "up", m.Up, "schema_version", m.After())
	}
	return nil
}

func (p *SQLProvider) applyMigration(ctx context.Context, m SchemaMigration) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %04d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("migration %04d_%s: %w", m.Version, m.Name, err)
	}

	if m.Up {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			m.Version, m.Name, time.Now().UTC())
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, m.Version)
	}
	if err != nil {
		return fmt.Errorf("record migration %04d: %w", m.Version, err)
	}

	return tx.Commit()
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}

func (p *SQLProvider) RecordRefresh(ctx context.Context, record RefreshRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = time.Now()
	}
	record.StartedAt = record.StartedAt.UTC()

	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO refresh_log (id, snapshot_id, started_at, duration_ms, products, cards, entries, success, error)
		VALUES (:id, :snapshot_id, :started_at, :duration_ms, :products, :cards, :entries, :success, :error)`,
		record)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListRefreshes returns the most recent refreshes first.
func (p *SQLProvider) ListRefreshes(ctx context.Context, limit int) ([]RefreshRecord, error) {
	records := []RefreshRecord{}
	err := p.db.SelectContext(ctx, &records, `
		SELECT id, snapshot_id, started_at, duration_ms, products, cards, entries, success, error
		FROM refresh_log
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return records, nil
}

func (p *SQLProvider) RecordToggle(ctx context.Context, record ToggleRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.CreatedAt = record.CreatedAt.UTC()

	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO toggle_log (id, product_id, uid, active, operator, success, error, created_at)
		VALUES (:id, :product_id, :uid, :active, :operator, :success, :error, :created_at)`,
		record)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListToggles returns the most recent toggles first.
func (p *SQLProvider) ListToggles(ctx context.Context, limit int) ([]ToggleRecord, error) {
	records := []ToggleRecord{}
	err := p.db.SelectContext(ctx, &records, `
		SELECT id, product_id, uid, active, operator, success, error, created_at
		FROM toggle_log
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return records, nil
}
