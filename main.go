// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mtreilly/arc-review/internal/cmd"
	"github.com/mtreilly/arc-review/internal/config"
	"github.com/mtreilly/arc-review/internal/db"
	"github.com/mtreilly/arc-review/internal/deck"
	"github.com/mtreilly/arc-review/internal/fsrs"
	"github.com/mtreilly/arc-review/internal/kv"
	"github.com/mtreilly/arc-review/internal/queue"
)

func main() {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, level); err != nil {
		// Cobra already printed command errors.
		if !errors.Is(err, errCommandFailed) {
			fmt.Fprintf(os.Stderr, "arc-review: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

var errCommandFailed = errors.New("command failed")

func run(ctx context.Context, logger *slog.Logger, level *slog.LevelVar) error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	provider, err := config.Load(path, logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := provider.Config()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	oracle, err := fsrs.NewScheduler(fsrs.Config{})
	if err != nil {
		return fmt.Errorf("failed to init scheduler: %w", err)
	}

	guarded := deck.NewBreaker(store, deck.BreakerConfig{
		MaxFailures: cfg.Breaker.MaxFailures,
		Timeout:     cfg.Breaker.Timeout,
	})
	engine, err := queue.New(ctx, guarded, oracle, provider,
		queue.WithLocation(loc),
		queue.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to build review queue: %w", err)
	}

	if err := cmd.NewRootCmd(provider, engine, level).ExecuteContext(ctx); err != nil {
		return errCommandFailed
	}
	return nil
}

// openStore selects the item store backend.
//
// sql is the dedicated relational schema. If SQLite cannot be opened
// (missing, corrupted, permissions) it falls back to the in-memory store
// so the tool stays usable without persistence. kv keeps JSON values in a
// single SQLite table. memory persists nothing.
func openStore(cfg config.Config, logger *slog.Logger) (deck.ItemStore, func(), error) {
	dbPath := cfg.Database
	if dbPath == "" {
		dbPath = db.DefaultDBPath()
	}
	noop := func() {}

	switch cfg.Storage {
	case config.StorageSQL:
		database, err := db.Open(dbPath)
		if err != nil {
			logger.Warn("cannot open SQLite database, falling back to in-memory store (no persistence)", "path", dbPath, "error", err)
			s, err := deck.NewKVStore(kv.NewMemoryStore())
			return s, noop, err
		}
		s, err := deck.NewStore(database)
		if err != nil {
			database.Close()
			return nil, noop, fmt.Errorf("failed to init SQL store: %w", err)
		}
		return s, func() { database.Close() }, nil

	case config.StorageKV:
		database, err := db.Open(dbPath)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open KV SQLite: %w", err)
		}
		backend, err := kv.NewSQLiteStore(database)
		if err != nil {
			database.Close()
			return nil, noop, fmt.Errorf("failed to init KV store: %w", err)
		}
		s, err := deck.NewKVStore(backend)
		return s, func() { database.Close() }, err

	case config.StorageMemory:
		s, err := deck.NewKVStore(kv.NewMemoryStore())
		return s, noop, err
	}
	return nil, noop, fmt.Errorf("unknown storage backend %q (choose sql, kv, or memory)", cfg.Storage)
}
