// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package queue

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/mtreilly/arc-review/internal/deck"
)

// build scans every collection in store order and concatenates the
// per-collection runs of eligible items, each run ascending by due.
func build(ctx context.Context, store deck.ItemStore, caps CapProvider, now time.Time, loc *time.Location) ([]Entry, error) {
	limit, err := caps.NewItemCap()
	if err != nil {
		return nil, &deck.Error{Kind: deck.KindStoreUnavailable, Op: "read new-item cap", Err: err}
	}
	if limit < 0 {
		return nil, &deck.Error{Kind: deck.KindInvalidArgument, Op: "read new-item cap", Err: fmt.Errorf("negative cap %d", limit)}
	}

	names, err := store.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	midnight := startOfDay(now, loc)
	var out []Entry
	for _, name := range names {
		items, err := store.ReadAll(ctx, name)
		if err != nil {
			return nil, err
		}
		run, err := scanCollection(name, items, limit, now, midnight)
		if err != nil {
			return nil, err
		}
		out = append(out, run...)
	}
	return out, nil
}

// scanCollection applies the daily new-item budget to one collection.
//
// The budget starts at the number of items first studied since midnight.
// Every New item met during the scan spends one unit whether or not it was
// admitted. Items are visited in due order, so the scan stops at the first
// item that is not yet due; New items beyond that point spend nothing.
func scanCollection(name string, items []*deck.Item, limit int, now, midnight time.Time) ([]Entry, error) {
	introduced := 0
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return nil, err
		}
		if it.FirstStudiedAt != nil && it.FirstStudiedAt.After(midnight) {
			introduced++
		}
	}

	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b *deck.Item) int { return a.Due.Compare(b.Due) })

	var run []Entry
	for _, it := range sorted {
		if !it.IsDue(now) {
			break
		}
		if it.State != deck.New || introduced < limit {
			run = append(run, Entry{Collection: name, Item: it})
		}
		if it.State == deck.New {
			introduced++
		}
	}
	return run, nil
}

// startOfDay returns the most recent midnight in loc.
func startOfDay(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
