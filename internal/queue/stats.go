// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package queue

import (
	"context"

	"github.com/mtreilly/arc-review/internal/deck"
)

// CollectionStats summarizes one collection.
type CollectionStats struct {
	Name       string `json:"name" yaml:"name"`
	Total      int    `json:"total" yaml:"total"`
	New        int    `json:"new" yaml:"new"`
	Learning   int    `json:"learning" yaml:"learning"`
	Review     int    `json:"review" yaml:"review"`
	Relearning int    `json:"relearning" yaml:"relearning"`
	Due        int    `json:"due" yaml:"due"`
	Queued     int    `json:"queued" yaml:"queued"`
}

// Stats counts items per state for every collection. Due counts every item
// past its due time; Queued counts the items the cap let into the queue.
func (e *Engine) Stats(ctx context.Context) ([]CollectionStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	queued := make(map[string]int)
	for _, entry := range e.queue {
		queued[entry.Collection]++
	}

	names, err := e.store.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now()
	out := make([]CollectionStats, 0, len(names))
	for _, name := range names {
		items, err := e.store.ReadAll(ctx, name)
		if err != nil {
			return nil, err
		}
		st := CollectionStats{Name: name, Total: len(items), Queued: queued[name]}
		for _, it := range items {
			switch it.State {
			case deck.New:
				st.New++
			case deck.Learning:
				st.Learning++
			case deck.Review:
				st.Review++
			case deck.Relearning:
				st.Relearning++
			}
			if it.IsDue(now) {
				st.Due++
			}
		}
		out = append(out, st)
	}
	return out, nil
}
