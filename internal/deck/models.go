// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package deck

import (
	"fmt"
	"strings"
	"time"
)

// State is the memory state of an item. The numeric codes are the values
// persisted by the stores.
type State int

const (
	New        State = iota + 1 // Never reviewed.
	Learning                    // In initial learning steps.
	Review                      // In the long-term review cycle.
	Relearning                  // Forgotten, back in short steps.
)

var stateNames = [...]string{New: "New", Learning: "Learning", Review: "Review", Relearning: "Relearning"}

// Valid reports whether s is one of the four defined states.
func (s State) Valid() bool {
	return s >= New && s <= Relearning
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome is the reviewer's graded response to an item.
type Outcome int

const (
	Again Outcome = iota + 1 // Failed to recall.
	Hard                     // Recalled with serious difficulty.
	Good                     // Recalled with some effort.
	Easy                     // Recalled effortlessly.
)

var outcomeNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

// Valid reports whether o is one of Again, Hard, Good or Easy.
func (o Outcome) Valid() bool {
	return o >= Again && o <= Easy
}

func (o Outcome) String() string {
	if o.Valid() {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// ParseOutcome accepts an outcome name (case-insensitive) or its code 1-4.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "again", "1":
		return Again, nil
	case "hard", "2":
		return Hard, nil
	case "good", "3":
		return Good, nil
	case "easy", "4":
		return Easy, nil
	}
	return 0, &Error{Kind: KindInvalidArgument, Op: "parse outcome", Err: fmt.Errorf("unknown outcome %q", s)}
}

// OutcomeLog records the most recent review of an item. Only one is kept.
type OutcomeLog struct {
	Outcome       Outcome   `json:"outcome" yaml:"outcome"`
	ElapsedDays   int       `json:"elapsed_days" yaml:"elapsed_days"`
	ScheduledDays int       `json:"scheduled_days" yaml:"scheduled_days"`
	State         State     `json:"state" yaml:"state"` // state after the review
	ReviewedAt    time.Time `json:"reviewed_at" yaml:"reviewed_at"`
}

// Scheduling is the part of an item owned by the scheduling oracle.
type Scheduling struct {
	Due           time.Time   `json:"due" yaml:"due"`
	Stability     float64     `json:"stability" yaml:"stability"`
	Difficulty    float64     `json:"difficulty" yaml:"difficulty"`
	ElapsedDays   int         `json:"elapsed_days" yaml:"elapsed_days"`
	ScheduledDays int         `json:"scheduled_days" yaml:"scheduled_days"`
	Reps          int         `json:"reps" yaml:"reps"`
	Lapses        int         `json:"lapses" yaml:"lapses"`
	State         State       `json:"state" yaml:"state"`
	LastReview    time.Time   `json:"last_review,omitempty" yaml:"last_review,omitempty"` // zero while New
	PreviousState State       `json:"previous_state" yaml:"previous_state"`
	Log           *OutcomeLog `json:"log,omitempty" yaml:"log,omitempty"`
}

// Item is a single reviewable unit. ID is scoped to its collection and is
// never reused after deletion.
type Item struct {
	ID         int64  `json:"id" yaml:"id"`
	Collection string `json:"collection" yaml:"collection"`
	Front      string `json:"front" yaml:"front"`
	Back       string `json:"back" yaml:"back"`
	Scheduling `yaml:",inline"`

	// FirstStudiedAt is set once, when the item first leaves New, and only
	// cleared by a reset. It feeds the daily new-item cap.
	FirstStudiedAt *time.Time `json:"first_studied_at,omitempty" yaml:"first_studied_at,omitempty"`
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	out := *it
	if it.Log != nil {
		l := *it.Log
		out.Log = &l
	}
	if it.FirstStudiedAt != nil {
		t := *it.FirstStudiedAt
		out.FirstStudiedAt = &t
	}
	return &out
}

// Validate checks the invariants an item read back from a store must hold.
func (it *Item) Validate() error {
	op := fmt.Sprintf("validate item %s/%d", it.Collection, it.ID)
	switch {
	case !it.State.Valid():
		return &Error{Kind: KindInvalidState, Op: op, Err: fmt.Errorf("undefined memory state %d", int(it.State))}
	case !it.PreviousState.Valid():
		return &Error{Kind: KindInvalidState, Op: op, Err: fmt.Errorf("undefined previous state %d", int(it.PreviousState))}
	case it.Log == nil && it.State != New:
		return &Error{Kind: KindInvalidState, Op: op, Err: fmt.Errorf("state %s without outcome log", it.State)}
	case it.Log != nil && (!it.Log.Outcome.Valid() || !it.Log.State.Valid()):
		return &Error{Kind: KindInvalidState, Op: op, Err: fmt.Errorf("malformed outcome log")}
	case it.FirstStudiedAt == nil && it.State != New:
		return &Error{Kind: KindInvalidState, Op: op, Err: fmt.Errorf("state %s without first study time", it.State)}
	case it.FirstStudiedAt != nil && it.State == New:
		return &Error{Kind: KindInvalidState, Op: op, Err: fmt.Errorf("new item with first study time")}
	case it.Stability < 0 || it.Difficulty < 0 || it.ElapsedDays < 0 || it.ScheduledDays < 0 || it.Reps < 0 || it.Lapses < 0:
		return &Error{Kind: KindInvalidState, Op: op, Err: fmt.Errorf("negative scheduling field")}
	}
	return nil
}

// IsDue reports whether the item has come due at now.
func (it *Item) IsDue(now time.Time) bool {
	return !it.Due.After(now)
}

// Pair is the portable content of an item used by import and export.
type Pair struct {
	Front string
	Back  string
}
