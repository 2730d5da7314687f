// Package session manages bounded practice blocks: which due exercises a
// block offers, which attempts it records, and when it is closed out. It
// records what happened, never when it was supposed to stop; the countdown
// belongs to the front-end.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/maestro/internal/exercise"
	"github.com/abhisek/maestro/internal/srs"
	"github.com/abhisek/maestro/internal/store"
	"github.com/abhisek/maestro/internal/streak"
)

// Duration bounds for a practice block, in minutes.
const (
	DefaultMinMinutes = 15
	DefaultMaxMinutes = 30
)

// DefaultBatchSize is the default cap on due exercises offered per session.
const DefaultBatchSize = 5

// Sentinel errors for session operations.
var (
	ErrInvalidDuration      = errors.New("session: duration outside allowed range")
	ErrSessionNotFound      = errors.New("session: not found")
	ErrSessionCompleted     = errors.New("session: already completed")
	ErrExerciseNotInSession = errors.New("session: exercise not part of this session")
)

// Config bounds session creation. Zero values fall back to the defaults.
type Config struct {
	MinMinutes int
	MaxMinutes int
	BatchSize  int
}

func (c Config) withDefaults() Config {
	if c.MinMinutes == 0 {
		c.MinMinutes = DefaultMinMinutes
	}
	if c.MaxMinutes == 0 {
		c.MaxMinutes = DefaultMaxMinutes
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

// Manager owns the SessionRecord lifecycle. All mutation of a given
// session serializes on a manager-wide mutex; reviews of distinct
// exercises still proceed independently inside the store.
type Manager struct {
	store   *store.Store
	tracker *streak.Tracker
	cfg     Config

	mu sync.Mutex
}

// NewManager creates a session manager. tracker may be nil if streak
// recomputation on completion is not wanted.
func NewManager(st *store.Store, tracker *streak.Tracker, cfg Config) *Manager {
	return &Manager{
		store:   st,
		tracker: tracker,
		cfg:     cfg.withDefaults(),
	}
}

// Start opens a new practice block of the given length. It selects up to
// the configured batch size of due exercises (optionally restricted to one
// domain), persists the session record with no completion time, and
// returns the record together with the selected exercises.
func (m *Manager) Start(ctx context.Context, durationMinutes int, domain string, now time.Time) (*store.SessionRecord, []*exercise.Exercise, error) {
	if durationMinutes < m.cfg.MinMinutes || durationMinutes > m.cfg.MaxMinutes {
		return nil, nil, fmt.Errorf("%w: %d minutes (allowed %d-%d)",
			ErrInvalidDuration, durationMinutes, m.cfg.MinMinutes, m.cfg.MaxMinutes)
	}

	due, err := m.store.ListDue(ctx, domain, now)
	if err != nil {
		return nil, nil, err
	}
	if len(due) > m.cfg.BatchSize {
		due = due[:m.cfg.BatchSize]
	}

	selected := make([]string, len(due))
	for i, ex := range due {
		selected[i] = ex.ID
	}

	rec := &store.SessionRecord{
		ID:              uuid.NewString(),
		StartedAt:       now.UTC(),
		DurationMinutes: durationMinutes,
		Domain:          domain,
		Selected:        selected,
	}
	if err := m.store.SaveSession(ctx, rec); err != nil {
		return nil, nil, err
	}
	return rec, due, nil
}

// RecordAttempt applies one review inside a session. The exercise must be
// part of the session's selected batch and the session must still be open.
// The review itself is delegated to the store, which persists the new
// scheduling state and the review event atomically.
func (m *Manager) RecordAttempt(ctx context.Context, sessionID, exerciseID string, quality srs.Quality, now time.Time) (*exercise.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec.Completed() {
		return nil, fmt.Errorf("%w: %q", ErrSessionCompleted, sessionID)
	}
	if !slices.Contains(rec.Selected, exerciseID) {
		return nil, fmt.Errorf("%w: %q in session %q", ErrExerciseNotInSession, exerciseID, sessionID)
	}

	ex, _, err := m.store.ApplyReview(ctx, exerciseID, quality, now)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(rec.Attempted, exerciseID) {
		rec.Attempted = append(rec.Attempted, exerciseID)
		if err := m.store.UpdateSession(ctx, rec); err != nil {
			return nil, err
		}
	}
	return ex, nil
}

// Complete closes a session out at now. Completing an already completed
// session is a no-op; the original completion time stands.
func (m *Manager) Complete(ctx context.Context, sessionID string, now time.Time) (*store.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec.Completed() {
		return rec, nil
	}

	completedAt := now.UTC()
	rec.CompletedAt = &completedAt
	if err := m.store.UpdateSession(ctx, rec); err != nil {
		return nil, err
	}

	if m.tracker != nil {
		// Completion changed the day's practice history; refresh the
		// derived streak. Failure here does not undo the completion.
		_, _ = m.tracker.StreakFor(ctx, now)
	}
	return rec, nil
}

// Get returns a session record by id.
func (m *Manager) Get(ctx context.Context, sessionID string) (*store.SessionRecord, error) {
	return m.getSession(ctx, sessionID)
}

func (m *Manager) getSession(ctx context.Context, sessionID string) (*store.SessionRecord, error) {
	rec, err := m.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
