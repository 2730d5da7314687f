package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/abhisek/maestro/internal/srs"
)

// ReviewEvent is an immutable fact recording one review of one exercise.
// Events are append-only and survive deletion of their exercise, so the
// history stays auditable and streaks stay reconstructible.
type ReviewEvent struct {
	ID                string      `db:"id"`
	ExerciseID        string      `db:"exercise_id"`
	Timestamp         time.Time   `db:"-"`
	Quality           srs.Quality `db:"quality"`
	ResultingInterval int         `db:"resulting_interval"`
	ResultingEase     float64     `db:"resulting_ease"`
}

func newReviewEvent(exerciseID string, quality srs.Quality, state srs.State, now time.Time) *ReviewEvent {
	return &ReviewEvent{
		ID:                uuid.NewString(),
		ExerciseID:        exerciseID,
		Timestamp:         now.UTC(),
		Quality:           quality,
		ResultingInterval: state.IntervalDays,
		ResultingEase:     state.EaseFactor,
	}
}

func appendReviewEvent(ctx context.Context, tx *sqlx.Tx, ev *ReviewEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO review_events (id, exercise_id, timestamp, quality, resulting_interval, resulting_ease)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ExerciseID, encodeTime(ev.Timestamp), int(ev.Quality), ev.ResultingInterval, ev.ResultingEase)
	return err
}

type reviewEventRow struct {
	ID                string  `db:"id"`
	ExerciseID        string  `db:"exercise_id"`
	Timestamp         string  `db:"timestamp"`
	Quality           int     `db:"quality"`
	ResultingInterval int     `db:"resulting_interval"`
	ResultingEase     float64 `db:"resulting_ease"`
}

// ListEvents returns review events in chronological order, optionally
// restricted to a single exercise. Pass exerciseID == "" for all events.
// Events with an unparseable timestamp are skipped, the same policy
// List and ListDue apply to corrupt exercise records.
func (s *Store) ListEvents(ctx context.Context, exerciseID string) ([]*ReviewEvent, error) {
	query := `SELECT id, exercise_id, timestamp, quality, resulting_interval, resulting_ease
		FROM review_events`
	var args []any
	if exerciseID != "" {
		query += ` WHERE exercise_id = ?`
		args = append(args, exerciseID)
	}
	query += ` ORDER BY timestamp ASC, id ASC`

	var rows []reviewEventRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapErr(err)
	}

	events := make([]*ReviewEvent, 0, len(rows))
	for _, row := range rows {
		ts, err := decodeTime(row.Timestamp)
		if err != nil {
			continue
		}
		events = append(events, &ReviewEvent{
			ID:                row.ID,
			ExerciseID:        row.ExerciseID,
			Timestamp:         ts,
			Quality:           srs.Quality(row.Quality),
			ResultingInterval: row.ResultingInterval,
			ResultingEase:     row.ResultingEase,
		})
	}
	return events, nil
}

// CountEvents returns the number of review events per exercise id.
func (s *Store) CountEvents(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exercise_id, COUNT(*) FROM review_events GROUP BY exercise_id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, mapErr(err)
		}
		counts[id] = n
	}
	return counts, mapErr(rows.Err())
}
