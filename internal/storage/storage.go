// Package storage provides durable single-record backends for the
// client-side cart: a JSON file, an SQLite database and a Postgres table.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("record not found")

// RecordStore persists opaque named records.
type RecordStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config selects and parameterises a backend.
type Config struct {
	Driver        string
	Path          string // file directory or SQLite database file
	DSN           string // Postgres
	RunMigrations bool
}

// Open builds the configured backend. The returned close function releases
// any underlying connections.
func Open(ctx context.Context, cfg Config) (RecordStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case DriverFile, "":
		fs, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil

	case DriverSQLite:
		db, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		if cfg.RunMigrations {
			if err := MigrateSQLite(db); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return NewSQLiteStore(db), db.Close, nil

	case DriverPostgres:
		if cfg.RunMigrations {
			if err := MigratePostgres(cfg.DSN); err != nil {
				return nil, nil, err
			}
		}
		pool, err := NewPool(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		return NewPostgresStore(pool), func() error { pool.Close(); return nil }, nil

	case DriverMemory:
		return NewMemoryStore(), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
