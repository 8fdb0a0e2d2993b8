// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package commons

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const (
	DbImplementationSqlite   = "sqlite"
	DbImplementationPostgres = "postgres"
	DbImplementationNone     = "none"
)

// Open the database used by the persistent response cache.
// For sqlite, source is a file path or ":memory:". For postgres it is a
// connection url.
func OpenDB(implementation string, source string) (*sqlx.DB, error) {
	switch implementation {
	case DbImplementationSqlite:
		slog.Debug("db: opening sqlite", "file", source)
		db, err := sqlx.Connect("sqlite3", source)
		if err != nil {
			return nil, fmt.Errorf("db: connect sqlite: %w", err)
		}
		// sqlite does not handle concurrent writers
		db.SetMaxOpenConns(1)
		return db, nil
	case DbImplementationPostgres:
		slog.Debug("db: opening postgres")
		db, err := sqlx.Connect("postgres", source)
		if err != nil {
			return nil, fmt.Errorf("db: connect postgres: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("db: unknown implementation %q", implementation)
	}
}

type DbFactory struct {
	TempDir string
	Timeout time.Duration
}

const TimeoutInSeconds = 10

func NewDbFactory() *DbFactory {
	tempDir, err := os.MkdirTemp("", "moviegraph-test-*")
	if err != nil {
		slog.Error("Error creating temp dir", "err", err)
		panic(err)
	}

	return &DbFactory{
		TempDir: tempDir,
		Timeout: TimeoutInSeconds * time.Second,
	}
}

func (d *DbFactory) CreateDb(sqliteFileName string) *sqlx.DB {
	sqlitePath := filepath.Join(d.TempDir, sqliteFileName)
	slog.Info("Creating db attempting", "sqlitePath", sqlitePath)
	db, err := OpenDB(DbImplementationSqlite, sqlitePath)
	if err != nil {
		panic(err)
	}
	return db
}

func (d *DbFactory) Cleanup() {
	if d.TempDir != "" {
		slog.Info("Cleaning up temp dir", "tempDir", d.TempDir)
		err := os.RemoveAll(d.TempDir)
		if err != nil {
			slog.Error("Error removing temp dir", "err", err)
		}
	}
}
