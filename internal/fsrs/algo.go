// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package fsrs

import (
	"math"

	"github.com/mtreilly/arc-review/internal/deck"
)

// algo holds the weights and the constants derived from them.
type algo struct {
	w      [21]float64
	decay  float64 // -w[20]
	factor float64 // 0.9^(1/decay) - 1
}

func newAlgo(w [21]float64) algo {
	decay := -w[20]
	return algo{w: w, decay: decay, factor: math.Pow(0.9, 1.0/decay) - 1.0}
}

// retrievability is R(t, S) = (1 + factor*t/S)^decay.
func (a *algo) retrievability(elapsedDays, stability float64) float64 {
	return math.Pow(1+a.factor*elapsedDays/stability, a.decay)
}

func (a *algo) initStability(o deck.Outcome) float64 {
	return clampS(a.w[o-1])
}

// initDifficulty is D0(G) = w[4] - e^(w[5]*(G-1)) + 1.
func (a *algo) initDifficulty(o deck.Outcome, clamp bool) float64 {
	d := a.w[4] - math.Exp(a.w[5]*float64(o-1)) + 1
	if clamp {
		return clampD(d)
	}
	return d
}

// nextInterval is the whole-day interval at which recall probability
// falls to retention, clamped to [1, maxIvl].
func (a *algo) nextInterval(stability, retention float64, maxIvl int) int {
	ivl := stability / a.factor * (math.Pow(retention, 1.0/a.decay) - 1)
	days := int(math.Round(ivl))
	return min(max(days, 1), maxIvl)
}

// shortTermStability applies a same-day review.
func (a *algo) shortTermStability(s float64, o deck.Outcome) float64 {
	inc := math.Exp(a.w[17]*(float64(o)-3+a.w[18])) * math.Pow(s, -a.w[19])
	if o == deck.Good || o == deck.Easy {
		inc = math.Max(inc, 1.0)
	}
	return clampS(s * inc)
}

// nextDifficulty applies linear damping then mean reversion toward D0(Easy).
func (a *algo) nextDifficulty(d float64, o deck.Outcome) float64 {
	delta := -a.w[6] * (float64(o) - 3)
	damped := d + (10-d)*delta/9
	return clampD(a.w[7]*a.initDifficulty(deck.Easy, false) + (1-a.w[7])*damped)
}

func (a *algo) nextStability(d, s, r float64, o deck.Outcome) float64 {
	if o == deck.Again {
		return a.forgetStability(d, s, r)
	}
	return a.recallStability(d, s, r, o)
}

func (a *algo) recallStability(d, s, r float64, o deck.Outcome) float64 {
	hardPenalty, easyBonus := 1.0, 1.0
	switch o {
	case deck.Hard:
		hardPenalty = a.w[15]
	case deck.Easy:
		easyBonus = a.w[16]
	}
	return clampS(s * (1 + math.Exp(a.w[8])*
		(11-d)*
		math.Pow(s, -a.w[9])*
		(math.Exp((1-r)*a.w[10])-1)*
		hardPenalty*easyBonus))
}

func (a *algo) forgetStability(d, s, r float64) float64 {
	long := a.w[11] *
		math.Pow(d, -a.w[12]) *
		(math.Pow(s+1, a.w[13]) - 1) *
		math.Exp((1-r)*a.w[14])
	short := s / math.Exp(a.w[17]*a.w[18])
	return clampS(math.Min(long, short))
}

func clampS(s float64) float64 { return math.Max(s, 0.001) }

func clampD(d float64) float64 { return math.Min(math.Max(d, 1), 10) }
