// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/mtreilly/arc-review/internal/deck"
)

// SubmitOutcome reviews an item: the oracle computes the next scheduling
// state, the engine records the review and writes it back, then rebuilds.
// It returns the item as written.
func (e *Engine) SubmitOutcome(ctx context.Context, collection string, id int64, outcome deck.Outcome) (*deck.Item, error) {
	var out *deck.Item
	err := e.mutate(ctx, func(now time.Time) error {
		it, err := e.review(ctx, collection, id, outcome, now)
		out = it
		return err
	})
	return out, err
}

// SubmitNext reviews the head of the queue. It returns ErrEmpty when no
// item is eligible.
func (e *Engine) SubmitNext(ctx context.Context, outcome deck.Outcome) (*deck.Item, error) {
	var out *deck.Item
	err := e.mutate(ctx, func(now time.Time) error {
		if len(e.queue) == 0 {
			return ErrEmpty
		}
		head := e.queue[0]
		it, err := e.review(ctx, head.Collection, head.Item.ID, outcome, now)
		out = it
		return err
	})
	return out, err
}

func (e *Engine) review(ctx context.Context, collection string, id int64, outcome deck.Outcome, now time.Time) (*deck.Item, error) {
	const op = "submit outcome"
	if !outcome.Valid() {
		return nil, &deck.Error{Kind: deck.KindSchedulingFailure, Op: op, Err: fmt.Errorf("invalid outcome %d", int(outcome))}
	}

	it, err := e.store.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if err := it.Validate(); err != nil {
		return nil, err
	}

	next, err := e.oracle.Next(it.Scheduling, outcome, now)
	if err != nil {
		return nil, &deck.Error{Kind: deck.KindSchedulingFailure, Op: op, Err: err}
	}
	if !next.State.Valid() || next.State == deck.New {
		return nil, &deck.Error{Kind: deck.KindSchedulingFailure, Op: op, Err: fmt.Errorf("oracle returned state %s", next.State)}
	}

	prev := it.State
	it.Scheduling = next
	it.PreviousState = prev
	it.LastReview = now
	it.Log = &deck.OutcomeLog{
		Outcome:       outcome,
		ElapsedDays:   next.ElapsedDays,
		ScheduledDays: next.ScheduledDays,
		State:         next.State,
		ReviewedAt:    now,
	}
	if it.FirstStudiedAt == nil {
		t := now
		it.FirstStudiedAt = &t
	}

	if err := e.store.Update(ctx, collection, id, it); err != nil {
		return nil, err
	}
	e.logger.Debug("item reviewed",
		"collection", collection,
		"id", id,
		"outcome", outcome,
		"from", prev,
		"to", next.State,
		"due", next.Due)
	return it, nil
}

// ResetItem puts an item back to New: fresh scheduling, no review log and
// no first-study time.
func (e *Engine) ResetItem(ctx context.Context, collection string, id int64) (*deck.Item, error) {
	var out *deck.Item
	err := e.mutate(ctx, func(now time.Time) error {
		it, err := e.store.Get(ctx, collection, id)
		if err != nil {
			return err
		}
		it.Scheduling = e.oracle.Initial(now)
		it.FirstStudiedAt = nil
		if err := e.store.Update(ctx, collection, id, it); err != nil {
			return err
		}
		out = it
		return nil
	})
	return out, err
}
