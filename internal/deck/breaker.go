// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package deck

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig holds the configuration for the store circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive StoreUnavailable failures
	// that trip the circuit. Default: 5
	MaxFailures uint32

	// Timeout is how long the circuit stays open before letting a probe
	// through. Default: 30 seconds
	Timeout time.Duration
}

// Breaker decorates an ItemStore with a circuit breaker. While open, every
// call fails at once with StoreUnavailable instead of hitting the backend.
// Only StoreUnavailable results count as failures; NotFound, Conflict and
// the rest are answers, not outages.
type Breaker struct {
	next    ItemStore
	breaker *gobreaker.CircuitBreaker
}

// NewBreaker wraps next. Zero config fields take their defaults.
func NewBreaker(next ItemStore, cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        "ItemStore",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsStoreUnavailable(err)
		},
	}
	return &Breaker{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// State returns "closed", "open" or "half-open".
func (b *Breaker) State() string {
	return b.breaker.State().String()
}

func (b *Breaker) do(op string, fn func() (any, error)) (any, error) {
	v, err := b.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &Error{Kind: KindStoreUnavailable, Op: op, Err: err}
	}
	return v, err
}

func (b *Breaker) exec(op string, fn func() error) error {
	_, err := b.do(op, func() (any, error) { return nil, fn() })
	return err
}

func (b *Breaker) ListCollections(ctx context.Context) ([]string, error) {
	v, err := b.do("list collections", func() (any, error) { return b.next.ListCollections(ctx) })
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (b *Breaker) CreateCollection(ctx context.Context, name string) error {
	return b.exec("create collection", func() error { return b.next.CreateCollection(ctx, name) })
}

func (b *Breaker) RenameCollection(ctx context.Context, oldName, newName string) error {
	return b.exec("rename collection", func() error { return b.next.RenameCollection(ctx, oldName, newName) })
}

func (b *Breaker) DeleteCollection(ctx context.Context, name string) error {
	return b.exec("delete collection", func() error { return b.next.DeleteCollection(ctx, name) })
}

func (b *Breaker) ReadAll(ctx context.Context, collection string) ([]*Item, error) {
	v, err := b.do("read items", func() (any, error) { return b.next.ReadAll(ctx, collection) })
	if err != nil {
		return nil, err
	}
	return v.([]*Item), nil
}

func (b *Breaker) Get(ctx context.Context, collection string, id int64) (*Item, error) {
	v, err := b.do("get item", func() (any, error) { return b.next.Get(ctx, collection, id) })
	if err != nil {
		return nil, err
	}
	return v.(*Item), nil
}

func (b *Breaker) Insert(ctx context.Context, collection string, item *Item) (int64, error) {
	v, err := b.do("insert item", func() (any, error) { return b.next.Insert(ctx, collection, item) })
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (b *Breaker) Update(ctx context.Context, collection string, id int64, item *Item) error {
	return b.exec("update item", func() error { return b.next.Update(ctx, collection, id, item) })
}

func (b *Breaker) Delete(ctx context.Context, collection string, id int64) error {
	return b.exec("delete item", func() error { return b.next.Delete(ctx, collection, id) })
}
