// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

// Package db opens the SQLite database shared by the SQL item store and the
// SQLite KV backend.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultDBPath returns <data dir>/arc-review/review.sqlite, honoring
// ARC_REVIEW_DB when set.
func DefaultDBPath() string {
	if p := os.Getenv("ARC_REVIEW_DB"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "arc-review", "review.sqlite")
}

// Open opens (creating if needed) the SQLite database at path.
//
// The connection is configured with:
//   - a single open connection, since SQLite has one writer
//   - WAL journal mode
//   - a 5 second busy timeout
//   - foreign key enforcement
//
// Use ":memory:" for a throwaway database.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return db, nil
}
