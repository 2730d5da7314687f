// Package streak derives the daily practice streak from completed session
// history. The streak is never stored; it is recomputed on demand, so it
// can always be rebuilt after a restart or a clock change.
package streak

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/maestro/internal/store"
)

// State is the derived streak for a given evaluation time.
type State struct {
	// CurrentStreakDays counts consecutive calendar days with at least one
	// completed session, ending today or yesterday. A day without practice
	// breaks the chain; if neither today nor yesterday has a completed
	// session the count is zero.
	CurrentStreakDays int
	// LastPracticeDate is the most recent calendar day (midnight in the
	// tracker's time zone) with a completed session. Zero if there is none.
	LastPracticeDate time.Time
}

// SessionSource provides the completed-session history the streak derives
// from. *store.Store satisfies it.
type SessionSource interface {
	ListCompletedSessions(ctx context.Context) ([]*store.SessionRecord, error)
}

// Tracker computes streaks over a session source in a fixed time zone.
// The time zone decides where the calendar-day boundary falls and is
// configuration, not an assumption.
type Tracker struct {
	source SessionSource
	loc    *time.Location

	mu   sync.Mutex
	last State
}

// New creates a tracker. A nil location defaults to time.Local.
func New(source SessionSource, loc *time.Location) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	return &Tracker{source: source, loc: loc}
}

// StreakFor recomputes the streak as of now and caches the result.
func (t *Tracker) StreakFor(ctx context.Context, now time.Time) (State, error) {
	sessions, err := t.source.ListCompletedSessions(ctx)
	if err != nil {
		return State{}, err
	}

	state := compute(sessions, now, t.loc)

	t.mu.Lock()
	t.last = state
	t.mu.Unlock()
	return state, nil
}

// Current returns the most recently computed state without touching the
// source. Useful for display between recomputations.
func (t *Tracker) Current() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func compute(sessions []*store.SessionRecord, now time.Time, loc *time.Location) State {
	practiced := make(map[time.Time]bool, len(sessions))
	var latest time.Time
	for _, rec := range sessions {
		if rec.CompletedAt == nil {
			continue
		}
		day := dayOf(*rec.CompletedAt, loc)
		practiced[day] = true
		if day.After(latest) {
			latest = day
		}
	}

	state := State{LastPracticeDate: latest}
	if len(practiced) == 0 {
		return state
	}

	// The chain may end today, or yesterday when today has no session yet.
	anchor := dayOf(now, loc)
	if !practiced[anchor] {
		anchor = anchor.AddDate(0, 0, -1)
		if !practiced[anchor] {
			return state
		}
	}

	for practiced[anchor] {
		state.CurrentStreakDays++
		anchor = anchor.AddDate(0, 0, -1)
	}
	return state
}

// dayOf truncates t to midnight of its calendar day in loc.
func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
