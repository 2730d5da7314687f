package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/maestro/internal/exercise"
	"github.com/abhisek/maestro/internal/srs"
	"github.com/abhisek/maestro/internal/store"
	"github.com/abhisek/maestro/internal/streak"
)

var sessionNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, cfg Config) (*Manager, *store.Store, *streak.Tracker) {
	t.Helper()
	st, err := store.Open("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tracker := streak.New(st, time.UTC)
	return NewManager(st, tracker, cfg), st, tracker
}

func seedExercises(t *testing.T, st *store.Store, n int, domain string) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		id := domain + "-" + string(rune('a'+i))
		// Stagger creation so due ordering is deterministic.
		created := sessionNow.Add(time.Duration(i-n) * time.Hour)
		require.NoError(t, st.Create(ctx, exercise.New(id, "Exercise "+id, domain, 1, created)))
	}
}

func TestStart_RejectsInvalidDuration(t *testing.T) {
	m, _, _ := newTestManager(t, Config{})

	for _, minutes := range []int{0, 10, 14, 31, 45} {
		_, _, err := m.Start(context.Background(), minutes, "", sessionNow)
		assert.ErrorIs(t, err, ErrInvalidDuration, "duration %d", minutes)
	}
}

func TestStart_SelectsBoundedBatch(t *testing.T) {
	m, st, _ := newTestManager(t, Config{BatchSize: 3})
	seedExercises(t, st, 5, exercise.DomainGolang)
	ctx := context.Background()

	rec, selected, err := m.Start(ctx, 20, "", sessionNow)
	require.NoError(t, err)

	assert.Len(t, selected, 3)
	assert.Len(t, rec.Selected, 3)
	assert.Nil(t, rec.CompletedAt)
	assert.Equal(t, 20, rec.DurationMinutes)

	// The record is durable.
	persisted, err := st.GetSession(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Selected, persisted.Selected)
	assert.False(t, persisted.Completed())
}

func TestStart_DomainFilter(t *testing.T) {
	m, st, _ := newTestManager(t, Config{})
	seedExercises(t, st, 2, exercise.DomainGolang)
	seedExercises(t, st, 2, exercise.DomainLinux)

	_, selected, err := m.Start(context.Background(), 15, exercise.DomainLinux, sessionNow)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	for _, ex := range selected {
		assert.Equal(t, exercise.DomainLinux, ex.Domain)
	}
}

func TestRecordAttempt_AppliesReviewOnce(t *testing.T) {
	m, st, _ := newTestManager(t, Config{})
	seedExercises(t, st, 2, exercise.DomainGolang)
	ctx := context.Background()

	rec, selected, err := m.Start(ctx, 15, "", sessionNow)
	require.NoError(t, err)
	target := selected[0].ID

	ex, err := m.RecordAttempt(ctx, rec.ID, target, srs.QualityPerfect, sessionNow)
	require.NoError(t, err)
	assert.Equal(t, 1, ex.Schedule.Repetitions)
	assert.True(t, ex.Completed)

	// A second attempt at the same exercise reviews again but the
	// attempted list records the id once.
	_, err = m.RecordAttempt(ctx, rec.ID, target, srs.QualityHard, sessionNow.Add(time.Minute))
	require.NoError(t, err)

	persisted, err := st.GetSession(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{target}, persisted.Attempted)

	events, err := st.ListEvents(ctx, target)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestRecordAttempt_Guards(t *testing.T) {
	m, st, _ := newTestManager(t, Config{})
	seedExercises(t, st, 1, exercise.DomainGolang)
	ctx := context.Background()

	rec, selected, err := m.Start(ctx, 15, "", sessionNow)
	require.NoError(t, err)

	_, err = m.RecordAttempt(ctx, "no-such-session", selected[0].ID, srs.QualityGood, sessionNow)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.RecordAttempt(ctx, rec.ID, "not-selected", srs.QualityGood, sessionNow)
	assert.ErrorIs(t, err, ErrExerciseNotInSession)

	_, err = m.Complete(ctx, rec.ID, sessionNow.Add(15*time.Minute))
	require.NoError(t, err)
	_, err = m.RecordAttempt(ctx, rec.ID, selected[0].ID, srs.QualityGood, sessionNow)
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestComplete_Idempotent(t *testing.T) {
	m, _, _ := newTestManager(t, Config{})
	ctx := context.Background()

	rec, _, err := m.Start(ctx, 15, "", sessionNow)
	require.NoError(t, err)

	first := sessionNow.Add(15 * time.Minute)
	done, err := m.Complete(ctx, rec.ID, first)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(first))

	// Completing again changes nothing; the original time stands.
	again, err := m.Complete(ctx, rec.ID, first.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, again.CompletedAt)
	assert.True(t, again.CompletedAt.Equal(first))

	_, err = m.Complete(ctx, "missing", first)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestComplete_RefreshesStreak(t *testing.T) {
	m, _, tracker := newTestManager(t, Config{})
	ctx := context.Background()

	rec, _, err := m.Start(ctx, 15, "", sessionNow)
	require.NoError(t, err)

	assert.Zero(t, tracker.Current().CurrentStreakDays)

	_, err = m.Complete(ctx, rec.ID, sessionNow.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, tracker.Current().CurrentStreakDays)
}
