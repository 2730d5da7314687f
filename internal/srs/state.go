package srs

import "time"

// State holds the spaced repetition scheduling state for a single exercise.
// The zero values of EaseFactor and NextDue are not meaningful; use NewState
// to initialize state for a freshly created exercise.
type State struct {
	EaseFactor   float64   `json:"ease_factor"`
	IntervalDays int       `json:"interval_days"`
	Repetitions  int       `json:"repetitions"`
	LastReviewed time.Time `json:"last_reviewed,omitzero"` // zero until first review
	NextDue      time.Time `json:"next_due"`
}

// NewState returns the scheduling state of an exercise that has never been
// reviewed: default ease, zero interval, due immediately at creation time.
func NewState(createdAt time.Time) State {
	return State{
		EaseFactor: InitialEase,
		NextDue:    createdAt,
	}
}

// IsDue returns true if the exercise is due for review (at or past NextDue).
func (s State) IsDue(now time.Time) bool {
	return !now.Before(s.NextDue)
}

// OverdueDays returns how many days past due the exercise is.
// Returns 0 if not yet due.
func (s State) OverdueDays(now time.Time) float64 {
	if now.Before(s.NextDue) {
		return 0
	}
	return now.Sub(s.NextDue).Hours() / 24.0
}

// DaysUntilDue returns the number of whole days until the next review.
// Returns 0 if already due.
func (s State) DaysUntilDue(now time.Time) int {
	if s.IsDue(now) {
		return 0
	}
	return int(s.NextDue.Sub(now).Hours()/24.0) + 1
}

// Valid reports whether the state satisfies the scheduling invariants.
// Persisted records that fail this check are treated as corrupt.
func (s State) Valid() bool {
	return s.EaseFactor >= MinEase &&
		s.IntervalDays >= 0 &&
		s.Repetitions >= 0 &&
		!s.NextDue.IsZero()
}
