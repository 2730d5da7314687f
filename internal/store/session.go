package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SessionRecord is one bounded practice block. Selected is the batch of
// due exercises offered at start; Attempted grows as reviews are recorded.
// CompletedAt is nil while the session is in progress.
type SessionRecord struct {
	ID              string
	StartedAt       time.Time
	DurationMinutes int
	Domain          string
	Selected        []string
	Attempted       []string
	CompletedAt     *time.Time
}

// Completed reports whether the session has been closed out.
func (r *SessionRecord) Completed() bool {
	return r.CompletedAt != nil
}

type sessionRow struct {
	ID              string         `db:"id"`
	StartedAt       string         `db:"started_at"`
	DurationMinutes int            `db:"duration_minutes"`
	Domain          string         `db:"domain"`
	Selected        string         `db:"selected"`
	Attempted       string         `db:"attempted"`
	CompletedAt     sql.NullString `db:"completed_at"`
}

func toSessionRow(rec *SessionRecord) (*sessionRow, error) {
	selected, err := json.Marshal(rec.Selected)
	if err != nil {
		return nil, fmt.Errorf("encode selected: %w", err)
	}
	attempted, err := json.Marshal(rec.Attempted)
	if err != nil {
		return nil, fmt.Errorf("encode attempted: %w", err)
	}

	row := &sessionRow{
		ID:              rec.ID,
		StartedAt:       encodeTime(rec.StartedAt),
		DurationMinutes: rec.DurationMinutes,
		Domain:          rec.Domain,
		Selected:        string(selected),
		Attempted:       string(attempted),
	}
	if rec.CompletedAt != nil {
		row.CompletedAt = sql.NullString{String: encodeTime(*rec.CompletedAt), Valid: true}
	}
	return row, nil
}

func fromSessionRow(row *sessionRow) (*SessionRecord, error) {
	corrupt := func(err error) error {
		return fmt.Errorf("%w: session %q: %v", ErrCorrupted, row.ID, err)
	}

	rec := &SessionRecord{
		ID:              row.ID,
		DurationMinutes: row.DurationMinutes,
		Domain:          row.Domain,
	}

	startedAt, err := decodeTime(row.StartedAt)
	if err != nil {
		return nil, corrupt(fmt.Errorf("parse started_at: %w", err))
	}
	rec.StartedAt = startedAt

	if err := json.Unmarshal([]byte(row.Selected), &rec.Selected); err != nil {
		return nil, corrupt(fmt.Errorf("decode selected: %w", err))
	}
	if err := json.Unmarshal([]byte(row.Attempted), &rec.Attempted); err != nil {
		return nil, corrupt(fmt.Errorf("decode attempted: %w", err))
	}

	if row.CompletedAt.Valid {
		completedAt, err := decodeTime(row.CompletedAt.String)
		if err != nil {
			return nil, corrupt(fmt.Errorf("parse completed_at: %w", err))
		}
		rec.CompletedAt = &completedAt
	}
	return rec, nil
}

const sessionColumns = `id, started_at, duration_minutes, domain, selected, attempted, completed_at`

// SaveSession inserts a new session record.
func (s *Store) SaveSession(ctx context.Context, rec *SessionRecord) error {
	row, err := toSessionRow(rec)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO sessions (`+sessionColumns+`)
		VALUES (:id, :started_at, :duration_minutes, :domain, :selected, :attempted, :completed_at)`, row)
	return mapErr(err)
}

// GetSession loads a session record by id.
func (s *Store) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return fromSessionRow(&row)
}

// UpdateSession rewrites the mutable fields of a session record.
func (s *Store) UpdateSession(ctx context.Context, rec *SessionRecord) error {
	row, err := toSessionRow(rec)
	if err != nil {
		return err
	}
	res, err := s.db.NamedExecContext(ctx, `UPDATE sessions SET
		attempted = :attempted,
		completed_at = :completed_at
		WHERE id = :id`, row)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: session %q", ErrNotFound, rec.ID)
	}
	return nil
}

// ListCompletedSessions returns all completed sessions ordered by
// completion time. This is the input the streak tracker derives from.
func (s *Store) ListCompletedSessions(ctx context.Context) ([]*SessionRecord, error) {
	var rows []sessionRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE completed_at IS NOT NULL ORDER BY completed_at ASC, id ASC`)
	if err != nil {
		return nil, mapErr(err)
	}

	records := make([]*SessionRecord, 0, len(rows))
	for i := range rows {
		rec, err := fromSessionRow(&rows[i])
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
