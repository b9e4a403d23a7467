// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

// Package queue implements the review queue engine: it caches the ordered
// set of eligible items across every collection and drives reviews through
// the scheduling oracle.
//
// Every mutation writes through the item store and then rebuilds the whole
// cache before the write lock is released, so readers never observe a
// queue that disagrees with the store contents they could read.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mtreilly/arc-review/internal/deck"
)

// ErrEmpty is returned by SubmitNext when nothing is due.
var ErrEmpty = errors.New("queue: no eligible item")

// Oracle computes scheduling states. Next must be deterministic for
// identical inputs.
type Oracle interface {
	Initial(now time.Time) deck.Scheduling
	Next(cur deck.Scheduling, outcome deck.Outcome, now time.Time) (deck.Scheduling, error)
}

// CapProvider supplies the daily new-item cap. It is read on every rebuild.
type CapProvider interface {
	NewItemCap() (int, error)
}

// StaticCap is a CapProvider with a fixed value.
type StaticCap int

// NewItemCap returns the fixed cap.
func (c StaticCap) NewItemCap() (int, error) { return int(c), nil }

// Entry is one eligible item in queue order.
type Entry struct {
	Collection string     `json:"collection" yaml:"collection"`
	Item       *deck.Item `json:"item" yaml:"item"`
}

func (e Entry) clone() Entry {
	return Entry{Collection: e.Collection, Item: e.Item.Clone()}
}

// Engine owns the cached queue. All methods are safe for concurrent use.
type Engine struct {
	store  deck.ItemStore
	oracle Oracle
	caps   CapProvider
	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger

	mu    sync.RWMutex
	queue []Entry
	err   error // last rebuild failure, nil when queue is current
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now. Tests use it to pin the clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone whose midnight resets the daily new-item
// budget. Default: time.Local
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger sets the logger. Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine and performs the initial build.
func New(ctx context.Context, store deck.ItemStore, oracle Oracle, caps CapProvider, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:  store,
		oracle: oracle,
		caps:   caps,
		now:    time.Now,
		loc:    time.Local,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.rebuildLocked(ctx, e.now()); err != nil {
		return nil, err
	}
	return e, nil
}

// Count returns the number of eligible items.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.queue)
}

// PeekNext returns the head of the queue. ok is false when nothing is due.
func (e *Engine) PeekNext() (entry Entry, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.queue) == 0 {
		return Entry{}, false
	}
	return e.queue[0].clone(), true
}

// Snapshot returns a copy of the whole queue in order.
func (e *Engine) Snapshot() []Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Entry, len(e.queue))
	for i, entry := range e.queue {
		out[i] = entry.clone()
	}
	return out
}

// Err returns the error of the most recent rebuild, or nil if the cached
// queue reflects the store.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}

// Refresh rebuilds the queue without mutating anything. Use it when the
// clock has moved or the store was changed behind the engine's back.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rebuildLocked(ctx, e.now())
}

// mutate runs fn under the write lock and rebuilds if it succeeded. A
// failing fn leaves the cached queue untouched.
func (e *Engine) mutate(ctx context.Context, fn func(now time.Time) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	if err := fn(now); err != nil {
		return err
	}
	return e.rebuildLocked(ctx, now)
}

func (e *Engine) rebuildLocked(ctx context.Context, now time.Time) error {
	q, err := build(ctx, e.store, e.caps, now, e.loc)
	if err != nil {
		e.err = err
		e.logger.Warn("queue rebuild failed", "error", err, "kept", len(e.queue))
		return err
	}
	e.queue = q
	e.err = nil
	e.logger.Debug("queue rebuilt", "items", len(q))
	return nil
}

// Read-through queries. They take the read lock so they never observe a
// store write whose rebuild is still running.

// ListCollections returns collection names in store order.
func (e *Engine) ListCollections(ctx context.Context) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.ListCollections(ctx)
}

// ReadCollection returns every item of a collection in insertion order.
func (e *Engine) ReadCollection(ctx context.Context, name string) ([]*deck.Item, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.ReadAll(ctx, name)
}

// GetItem reads one item from the store.
func (e *Engine) GetItem(ctx context.Context, collection string, id int64) (*deck.Item, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Get(ctx, collection, id)
}
