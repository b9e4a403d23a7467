// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package deck

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutcome(t *testing.T) {
	cases := map[string]Outcome{
		"again": Again, "1": Again,
		"Hard": Hard, "2": Hard,
		" GOOD ": Good, "3": Good,
		"easy": Easy, "4": Easy,
	}
	for in, want := range cases {
		got, err := ParseOutcome(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOutcome("5")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStateAndOutcomeValidity(t *testing.T) {
	assert.False(t, State(0).Valid())
	assert.False(t, State(5).Valid())
	assert.True(t, Relearning.Valid())
	assert.Equal(t, "Relearning", Relearning.String())
	assert.Equal(t, "State(9)", State(9).String())

	assert.False(t, Outcome(0).Valid())
	assert.Equal(t, "Easy", Easy.String())
	assert.Equal(t, "Outcome(7)", Outcome(7).String())
}

func TestItemValidate(t *testing.T) {
	assert.NoError(t, newTestItem("a", "b").Validate())
	assert.NoError(t, studied(newTestItem("a", "b"), t0).Validate())

	broken := map[string]func(*Item){
		"undefined state":     func(it *Item) { it.State = 9 },
		"undefined previous":  func(it *Item) { it.PreviousState = 0 },
		"studied without log": func(it *Item) { it.Log = nil },
		"bad log outcome":     func(it *Item) { it.Log.Outcome = 0 },
		"missing first study": func(it *Item) { it.FirstStudiedAt = nil },
		"negative reps":       func(it *Item) { it.Reps = -1 },
	}
	for name, mutate := range broken {
		it := studied(newTestItem("a", "b"), t0)
		mutate(it)
		assert.ErrorIs(t, it.Validate(), ErrInvalidState, name)
	}

	fresh := newTestItem("a", "b")
	fresh.FirstStudiedAt = &t0
	assert.ErrorIs(t, fresh.Validate(), ErrInvalidState)
}

func TestItemClone_IsDeep(t *testing.T) {
	it := studied(newTestItem("a", "b"), t0)
	c := it.Clone()
	c.Log.Outcome = Again
	*c.FirstStudiedAt = t0.AddDate(1, 0, 0)

	assert.Equal(t, Good, it.Log.Outcome)
	assert.True(t, it.FirstStudiedAt.Equal(t0))
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", notFound("get item", "item %d", 3))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrConflict))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.EqualError(t, notFound("get item", "item %d", 3), "get item: NOT_FOUND: item 3")

	assert.Nil(t, unavailable("x", nil))
	assert.True(t, IsStoreUnavailable(unavailable("x", errors.New("disk"))))
	// Typed errors pass through unchanged.
	assert.True(t, IsNotFound(unavailable("x", notFound("y", "z"))))
}
