// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package fsrs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtreilly/arc-review/internal/deck"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(Config{})
	require.NoError(t, err)
	return s
}

func TestNewSchedulerRejectsBadConfig(t *testing.T) {
	_, err := NewScheduler(Config{DesiredRetention: 1.5})
	assert.Error(t, err)

	_, err = NewScheduler(Config{MaximumInterval: -1})
	assert.Error(t, err)

	w := DefaultWeights
	w[4] = 50
	_, err = NewScheduler(Config{Weights: w})
	assert.Error(t, err)
}

func TestInitial(t *testing.T) {
	s := newTestScheduler(t)
	got := s.Initial(t0)
	assert.Equal(t, deck.New, got.State)
	assert.Equal(t, deck.New, got.PreviousState)
	assert.True(t, got.Due.Equal(t0))
	assert.Zero(t, got.Stability)
	assert.Zero(t, got.Reps)
	assert.Nil(t, got.Log)
}

func TestNextFromNew(t *testing.T) {
	s := newTestScheduler(t)

	tests := []struct {
		outcome deck.Outcome
		state   deck.State
		due     time.Duration
	}{
		{deck.Again, deck.Learning, time.Minute},
		{deck.Hard, deck.Learning, 5 * time.Minute},
		{deck.Good, deck.Learning, 10 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			got, err := s.Next(s.Initial(t0), tt.outcome, t0)
			require.NoError(t, err)
			assert.Equal(t, tt.state, got.State)
			assert.WithinDuration(t, t0.Add(tt.due), got.Due, 0)
			assert.Equal(t, 1, got.Reps)
			assert.Equal(t, 0, got.ScheduledDays)
			assert.InDelta(t, DefaultWeights[tt.outcome-1], got.Stability, 1e-9)
		})
	}

	t.Run("Easy", func(t *testing.T) {
		got, err := s.Next(s.Initial(t0), deck.Easy, t0)
		require.NoError(t, err)
		assert.Equal(t, deck.Review, got.State)
		assert.GreaterOrEqual(t, got.ScheduledDays, 1)
		assert.WithinDuration(t, t0.AddDate(0, 0, got.ScheduledDays), got.Due, 0)
	})
}

func TestNextFromLearning(t *testing.T) {
	s := newTestScheduler(t)
	learning, err := s.Next(s.Initial(t0), deck.Good, t0)
	require.NoError(t, err)
	now := learning.Due

	again, err := s.Next(learning, deck.Again, now)
	require.NoError(t, err)
	assert.Equal(t, deck.Learning, again.State)
	assert.WithinDuration(t, now.Add(5*time.Minute), again.Due, 0)

	hard, err := s.Next(learning, deck.Hard, now)
	require.NoError(t, err)
	assert.Equal(t, deck.Learning, hard.State)
	assert.WithinDuration(t, now.Add(10*time.Minute), hard.Due, 0)

	good, err := s.Next(learning, deck.Good, now)
	require.NoError(t, err)
	easy, err := s.Next(learning, deck.Easy, now)
	require.NoError(t, err)
	assert.Equal(t, deck.Review, good.State)
	assert.Equal(t, deck.Review, easy.State)
	assert.Greater(t, easy.ScheduledDays, good.ScheduledDays)
	assert.Equal(t, 2, good.Reps)
}

func TestNextFromReview(t *testing.T) {
	s := newTestScheduler(t)
	review := deck.Scheduling{
		Due:           t0,
		Stability:     10,
		Difficulty:    5,
		ScheduledDays: 10,
		Reps:          4,
		State:         deck.Review,
		LastReview:    t0.AddDate(0, 0, -10),
		PreviousState: deck.Learning,
	}

	again, err := s.Next(review, deck.Again, t0)
	require.NoError(t, err)
	assert.Equal(t, deck.Relearning, again.State)
	assert.Equal(t, 1, again.Lapses)
	assert.Equal(t, 10, again.ElapsedDays)
	assert.Less(t, again.Stability, review.Stability)

	var ivl [5]int
	for _, o := range []deck.Outcome{deck.Hard, deck.Good, deck.Easy} {
		got, err := s.Next(review, o, t0)
		require.NoError(t, err)
		assert.Equal(t, deck.Review, got.State)
		assert.Equal(t, 0, got.Lapses)
		assert.Equal(t, 5, got.Reps)
		ivl[o] = got.ScheduledDays
	}
	assert.LessOrEqual(t, ivl[deck.Hard], ivl[deck.Good])
	assert.Less(t, ivl[deck.Good], ivl[deck.Easy])
}

func TestNextFromRelearning(t *testing.T) {
	s := newTestScheduler(t)
	relearning := deck.Scheduling{
		Due: t0, Stability: 2, Difficulty: 7, Reps: 6, Lapses: 1,
		State: deck.Relearning, LastReview: t0.Add(-5 * time.Minute), PreviousState: deck.Review,
	}

	got, err := s.Next(relearning, deck.Hard, t0)
	require.NoError(t, err)
	assert.Equal(t, deck.Relearning, got.State)

	got, err = s.Next(relearning, deck.Good, t0)
	require.NoError(t, err)
	assert.Equal(t, deck.Review, got.State)
	assert.Equal(t, 1, got.Lapses)
}

func TestNextIsDeterministic(t *testing.T) {
	s := newTestScheduler(t)
	cur := deck.Scheduling{
		Due: t0, Stability: 3.3, Difficulty: 6.1, Reps: 2,
		State: deck.Review, LastReview: t0.AddDate(0, 0, -4), PreviousState: deck.Learning,
	}
	for _, o := range []deck.Outcome{deck.Again, deck.Hard, deck.Good, deck.Easy} {
		a, err := s.Next(cur, o, t0)
		require.NoError(t, err)
		b, err := s.Next(cur, o, t0)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestNextRejectsBadInput(t *testing.T) {
	s := newTestScheduler(t)

	_, err := s.Next(s.Initial(t0), deck.Outcome(9), t0)
	assert.ErrorIs(t, err, deck.ErrSchedulingFailure)

	_, err = s.Next(deck.Scheduling{State: deck.State(7)}, deck.Good, t0)
	assert.ErrorIs(t, err, deck.ErrSchedulingFailure)

	_, err = s.Next(deck.Scheduling{State: deck.Review}, deck.Good, t0)
	assert.ErrorIs(t, err, deck.ErrSchedulingFailure)
}
