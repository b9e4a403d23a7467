// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

// Package kv provides the small key/value contract behind deck.KVStore,
// with an in-memory backend and a SQLite backend.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("kv: key not found")

// Store is a flat byte-valued key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Apply runs ops in order as one unit: either all of them take effect
	// or none do.
	Apply(ctx context.Context, ops ...Op) error
}

// Op is one write in a batch passed to Apply.
type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

// Put returns an Op that sets key to value.
func Put(key string, value []byte) Op { return Op{Key: key, Value: value} }

// Del returns an Op that removes key.
func Del(key string) Op { return Op{Key: key, Delete: true} }

// MemoryStore keeps everything in a map. Nothing survives the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.mu.Lock()
	m.data[key] = v
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Apply(_ context.Context, ops ...Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		if op.Delete {
			delete(m.data, op.Key)
			continue
		}
		v := make([]byte, len(op.Value))
		copy(v, op.Value)
		m.data[op.Key] = v
	}
	return nil
}

// SQLiteStore persists keys in a single table of an open database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the kv table if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %q: %w", key, err)
	}
	return v, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Apply(ctx context.Context, ops ...Op) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kv apply: %w", err)
	}
	defer tx.Rollback()

	for _, op := range ops {
		if op.Delete {
			_, err = tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, op.Key)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO kv (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, op.Key, op.Value)
		}
		if err != nil {
			return fmt.Errorf("kv apply %q: %w", op.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("kv apply: %w", err)
	}
	return nil
}
