package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rfid-access-console/internal/config"
)

var ErrUnsupportedStorage = errors.New("unsupported storage configuration")

type Provider interface {
	Close() error
	GetSchemaVersion(ctx context.Context) (int, error)

	// Refresh audit
	RecordRefresh(ctx context.Context, record RefreshRecord) error
	ListRefreshes(ctx context.Context, limit int) ([]RefreshRecord, error)

	// Toggle audit
	RecordToggle(ctx context.Context, record ToggleRecord) error
	ListToggles(ctx context.Context, limit int) ([]ToggleRecord, error)
}

// NewProvider opens the configured storage and migrates it to the latest
// schema version.
func NewProvider(config *config.Storage) (Provider, error) {
	switch {
	case config != nil && config.SQLite != nil:
		provider, err := NewSQLiteProvider(config)
		if err != nil {
			return nil, err
		}
		if err := provider.runMigrations(context.Background(), "sqlite3"); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			provider.Close()
			return nil, fmt.Errorf("migrate storage: %w", err)
		}
		return provider, nil

	default:
		slog.Error("Unsupported storage configuration", "config", config)
	}

	return nil, ErrUnsupportedStorage
}
