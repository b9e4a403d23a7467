// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

// Package fsrs is the deterministic FSRS scheduler used to advance items
// after a review. It has no fuzz and no hidden state: the same input
// always yields the same schedule.
package fsrs

import (
	"fmt"
	"time"

	"github.com/mtreilly/arc-review/internal/deck"
)

// Short-term steps used while an item is Learning or Relearning.
const (
	againStep      = time.Minute
	hardStep       = 5 * time.Minute
	goodStep       = 10 * time.Minute
	learnAgainStep = 5 * time.Minute
	learnHardStep  = 10 * time.Minute
	relearnStep    = 5 * time.Minute
	defaultMaxIvl  = 36500
	defaultRecall  = 0.9
	hoursPerDay    = 24.0
)

// Config configures a Scheduler. Zero values take the defaults.
type Config struct {
	Weights          [21]float64 // zero → DefaultWeights
	DesiredRetention float64     // zero → 0.9
	MaximumInterval  int         // zero → 36500 days
}

// Scheduler computes next scheduling states. It is safe for concurrent use.
type Scheduler struct {
	algo      algo
	retention float64
	maxIvl    int
}

// NewScheduler validates cfg and builds a Scheduler.
func NewScheduler(cfg Config) (*Scheduler, error) {
	w := cfg.Weights
	if w == [21]float64{} {
		w = DefaultWeights
	}
	if err := validateWeights(w); err != nil {
		return nil, err
	}
	retention := cfg.DesiredRetention
	if retention == 0 {
		retention = defaultRecall
	}
	if retention <= 0 || retention >= 1 {
		return nil, fmt.Errorf("fsrs: desired retention %f out of range (0, 1)", retention)
	}
	maxIvl := cfg.MaximumInterval
	if maxIvl == 0 {
		maxIvl = defaultMaxIvl
	}
	if maxIvl < 1 {
		return nil, fmt.Errorf("fsrs: maximum interval %d must be positive", maxIvl)
	}
	return &Scheduler{algo: newAlgo(w), retention: retention, maxIvl: maxIvl}, nil
}

// Initial returns the scheduling state of a freshly created item.
func (s *Scheduler) Initial(now time.Time) deck.Scheduling {
	return deck.Scheduling{Due: now, State: deck.New, PreviousState: deck.New}
}

// Next returns the scheduling state after reviewing an item in state cur
// with outcome o at now. LastReview, PreviousState and Log are carried
// over untouched; recording the review is the caller's job.
func (s *Scheduler) Next(cur deck.Scheduling, o deck.Outcome, now time.Time) (deck.Scheduling, error) {
	if !o.Valid() {
		return deck.Scheduling{}, failure("invalid outcome %d", int(o))
	}
	if !cur.State.Valid() {
		return deck.Scheduling{}, failure("invalid memory state %d", int(cur.State))
	}
	if cur.State != deck.New && cur.Stability <= 0 {
		return deck.Scheduling{}, failure("%s item has no stability", cur.State)
	}

	next := cur
	next.Reps++
	next.ElapsedDays = 0
	if cur.State != deck.New && !cur.LastReview.IsZero() && now.After(cur.LastReview) {
		next.ElapsedDays = int(now.Sub(cur.LastReview).Hours() / hoursPerDay)
	}

	switch cur.State {
	case deck.New:
		s.fromNew(&next, o, now)
	case deck.Learning, deck.Relearning:
		s.fromLearning(&next, cur, o, now)
	case deck.Review:
		s.fromReview(&next, cur, o, now)
	}
	return next, nil
}

func (s *Scheduler) fromNew(next *deck.Scheduling, o deck.Outcome, now time.Time) {
	next.Stability = s.algo.initStability(o)
	next.Difficulty = s.algo.initDifficulty(o, true)

	switch o {
	case deck.Again:
		s.step(next, deck.Learning, againStep, now)
	case deck.Hard:
		s.step(next, deck.Learning, hardStep, now)
	case deck.Good:
		s.step(next, deck.Learning, goodStep, now)
	case deck.Easy:
		goodIvl := s.algo.nextInterval(s.algo.initStability(deck.Good), s.retention, s.maxIvl)
		easyIvl := s.algo.nextInterval(next.Stability, s.retention, s.maxIvl)
		s.graduate(next, max(easyIvl, min(goodIvl+1, s.maxIvl)), now)
	}
}

func (s *Scheduler) fromLearning(next *deck.Scheduling, cur deck.Scheduling, o deck.Outcome, now time.Time) {
	next.Stability = s.algo.shortTermStability(cur.Stability, o)
	next.Difficulty = s.algo.nextDifficulty(cur.Difficulty, o)

	switch o {
	case deck.Again:
		s.step(next, cur.State, learnAgainStep, now)
	case deck.Hard:
		s.step(next, cur.State, learnHardStep, now)
	case deck.Good, deck.Easy:
		goodIvl := s.algo.nextInterval(s.algo.shortTermStability(cur.Stability, deck.Good), s.retention, s.maxIvl)
		ivl := goodIvl
		if o == deck.Easy {
			easyIvl := s.algo.nextInterval(next.Stability, s.retention, s.maxIvl)
			ivl = max(easyIvl, min(goodIvl+1, s.maxIvl))
		}
		s.graduate(next, ivl, now)
	}
}

func (s *Scheduler) fromReview(next *deck.Scheduling, cur deck.Scheduling, o deck.Outcome, now time.Time) {
	r := s.algo.retrievability(float64(next.ElapsedDays), cur.Stability)
	next.Stability = s.algo.nextStability(cur.Difficulty, cur.Stability, r, o)
	next.Difficulty = s.algo.nextDifficulty(cur.Difficulty, o)

	if o == deck.Again {
		next.Lapses++
		s.step(next, deck.Relearning, relearnStep, now)
		return
	}

	hard := s.algo.nextInterval(s.algo.recallStability(cur.Difficulty, cur.Stability, r, deck.Hard), s.retention, s.maxIvl)
	good := s.algo.nextInterval(s.algo.recallStability(cur.Difficulty, cur.Stability, r, deck.Good), s.retention, s.maxIvl)
	easy := s.algo.nextInterval(s.algo.recallStability(cur.Difficulty, cur.Stability, r, deck.Easy), s.retention, s.maxIvl)
	hard = min(hard, good)
	good = min(max(good, hard+1), s.maxIvl)
	easy = min(max(easy, good+1), s.maxIvl)

	switch o {
	case deck.Hard:
		s.graduate(next, hard, now)
	case deck.Good:
		s.graduate(next, good, now)
	case deck.Easy:
		s.graduate(next, easy, now)
	}
}

func (s *Scheduler) step(next *deck.Scheduling, state deck.State, d time.Duration, now time.Time) {
	next.State = state
	next.ScheduledDays = 0
	next.Due = now.Add(d)
}

func (s *Scheduler) graduate(next *deck.Scheduling, days int, now time.Time) {
	next.State = deck.Review
	next.ScheduledDays = days
	next.Due = now.Add(time.Duration(days) * hoursPerDay * time.Hour)
}

func failure(format string, args ...any) error {
	return &deck.Error{Kind: deck.KindSchedulingFailure, Op: "fsrs next", Err: fmt.Errorf(format, args...)}
}
