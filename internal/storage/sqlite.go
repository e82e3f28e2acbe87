package storage

import (
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"rfid-access-console/internal/config"
)

const memoryDSN = ":memory:"

type SQLiteProvider struct {
	SQLProvider
}

func NewSQLiteProvider(config *config.Storage) (*SQLiteProvider, error) {
	path := config.SQLite.Path
	if path == "" {
		path = memoryDSN
	}

	dsn := memoryDSN
	if path != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_busy_timeout=5000&_journal_mode=WAL"
	}

	sqlProvider, err := NewSQLProvider(config, "sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a separate database.
	if path == memoryDSN {
		sqlProvider.db.SetMaxOpenConns(1)
	}

	return &SQLiteProvider{SQLProvider: *sqlProvider}, nil
}
