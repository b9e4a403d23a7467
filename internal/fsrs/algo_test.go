// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package fsrs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtreilly/arc-review/internal/deck"
)

func TestRetrievability(t *testing.T) {
	a := newAlgo(DefaultWeights)
	assert.InDelta(t, 1.0, a.retrievability(0, 5), 1e-9)
	// Stability is defined as the interval at which recall falls to 90%.
	assert.InDelta(t, 0.9, a.retrievability(5, 5), 1e-9)
	assert.Greater(t, a.retrievability(1, 5), a.retrievability(10, 5))
}

func TestInitDifficulty(t *testing.T) {
	a := newAlgo(DefaultWeights)
	want := DefaultWeights[4] - math.Exp(DefaultWeights[5]*2) + 1
	assert.InDelta(t, want, a.initDifficulty(deck.Good, true), 1e-9)
	assert.GreaterOrEqual(t, a.initDifficulty(deck.Easy, true), 1.0)
}

func TestNextIntervalClamps(t *testing.T) {
	a := newAlgo(DefaultWeights)
	assert.Equal(t, 1, a.nextInterval(0.001, 0.9, 36500))
	assert.Equal(t, 100, a.nextInterval(1e6, 0.9, 100))
	// At 90% retention the interval equals the stability.
	assert.Equal(t, 20, a.nextInterval(20, 0.9, 36500))
}

func TestNextDifficultyDirection(t *testing.T) {
	a := newAlgo(DefaultWeights)
	assert.Greater(t, a.nextDifficulty(5, deck.Again), a.nextDifficulty(5, deck.Easy))
	assert.LessOrEqual(t, a.nextDifficulty(10, deck.Again), 10.0)
}
