// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mtreilly/arc-review/internal/deck"
)

// CreateItem inserts a New item and returns its id.
func (e *Engine) CreateItem(ctx context.Context, collection, front, back string) (int64, error) {
	var id int64
	err := e.mutate(ctx, func(now time.Time) error {
		var err error
		id, err = e.store.Insert(ctx, collection, e.newItem(front, back, now))
		return err
	})
	return id, err
}

func (e *Engine) newItem(front, back string, now time.Time) *deck.Item {
	return &deck.Item{Front: front, Back: back, Scheduling: e.oracle.Initial(now)}
}

// EditItem replaces the content of an item. Scheduling is untouched.
func (e *Engine) EditItem(ctx context.Context, collection string, id int64, front, back string) error {
	return e.mutate(ctx, func(time.Time) error {
		it, err := e.store.Get(ctx, collection, id)
		if err != nil {
			return err
		}
		it.Front, it.Back = front, back
		return e.store.Update(ctx, collection, id, it)
	})
}

// DeleteItem removes an item. Its id is not handed out again.
func (e *Engine) DeleteItem(ctx context.Context, collection string, id int64) error {
	return e.mutate(ctx, func(time.Time) error {
		return e.store.Delete(ctx, collection, id)
	})
}

// CreateCollection adds an empty collection.
func (e *Engine) CreateCollection(ctx context.Context, name string) error {
	return e.mutate(ctx, func(time.Time) error {
		return e.store.CreateCollection(ctx, name)
	})
}

// DeleteCollection drops a collection with all its items.
func (e *Engine) DeleteCollection(ctx context.Context, name string) error {
	return e.mutate(ctx, func(time.Time) error {
		return e.store.DeleteCollection(ctx, name)
	})
}

// RenameCollection renames a collection. Item ids are preserved.
func (e *Engine) RenameCollection(ctx context.Context, oldName, newName string) error {
	return e.mutate(ctx, func(time.Time) error {
		return e.store.RenameCollection(ctx, oldName, newName)
	})
}

// maxImportSuffix bounds the name(n) search in ImportCollection.
const maxImportSuffix = 1000

// ImportCollection creates a collection from pairs, each becoming a New
// item in order. If name is taken, name(1), name(2)... are tried. It
// returns the name actually used. The queue is rebuilt once at the end.
func (e *Engine) ImportCollection(ctx context.Context, name string, pairs []deck.Pair) (string, error) {
	if err := deck.ValidateName(name); err != nil {
		return "", err
	}

	var used string
	err := e.mutate(ctx, func(now time.Time) error {
		var err error
		if used, err = e.claimName(ctx, name); err != nil {
			return err
		}
		for i, p := range pairs {
			if _, err := e.store.Insert(ctx, used, e.newItem(p.Front, p.Back, now)); err != nil {
				err = fmt.Errorf("import %q item %d: %w", used, i, err)
				return e.abortImport(ctx, used, err, now)
			}
		}
		e.logger.Info("collection imported", "collection", used, "items", len(pairs))
		return nil
	})
	if err != nil {
		return "", err
	}
	return used, nil
}

// abortImport drops a partially imported collection. If the drop fails too,
// the queue is rebuilt so it still mirrors whatever the store now holds.
func (e *Engine) abortImport(ctx context.Context, name string, cause error, now time.Time) error {
	rbErr := e.store.DeleteCollection(ctx, name)
	if rbErr == nil {
		return cause
	}
	e.logger.Warn("import rollback failed", "collection", name, "error", rbErr)
	err := errors.Join(cause, fmt.Errorf("rollback %q: %w", name, rbErr))
	if buildErr := e.rebuildLocked(ctx, now); buildErr != nil {
		err = errors.Join(err, buildErr)
	}
	return err
}

func (e *Engine) claimName(ctx context.Context, name string) (string, error) {
	candidate := name
	for n := 1; ; n++ {
		err := e.store.CreateCollection(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if deck.KindOf(err) != deck.KindConflict || n > maxImportSuffix {
			return "", err
		}
		candidate = fmt.Sprintf("%s(%d)", name, n)
	}
}
