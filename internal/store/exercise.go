package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/maestro/internal/exercise"
	"github.com/abhisek/maestro/internal/srs"
)

// exerciseRow is the flat SQL shape of an exercise record.
type exerciseRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	Domain       string         `db:"domain"`
	Difficulty   int            `db:"difficulty"`
	Steps        string         `db:"steps"`
	Content      string         `db:"content"`
	Tests        string         `db:"tests"`
	EaseFactor   float64        `db:"ease_factor"`
	IntervalDays int            `db:"interval_days"`
	Repetitions  int            `db:"repetitions"`
	LastReviewed sql.NullString `db:"last_reviewed"`
	NextDue      string         `db:"next_due"`
	Completed    bool           `db:"completed"`
	CreatedAt    string         `db:"created_at"`
}

func toRow(ex *exercise.Exercise) (*exerciseRow, error) {
	steps, err := json.Marshal(ex.Steps)
	if err != nil {
		return nil, fmt.Errorf("encode steps: %w", err)
	}
	tests, err := json.Marshal(ex.Tests)
	if err != nil {
		return nil, fmt.Errorf("encode tests: %w", err)
	}

	row := &exerciseRow{
		ID:           ex.ID,
		Title:        ex.Title,
		Description:  ex.Description,
		Domain:       ex.Domain,
		Difficulty:   ex.Difficulty,
		Steps:        string(steps),
		Content:      ex.Content,
		Tests:        string(tests),
		EaseFactor:   ex.Schedule.EaseFactor,
		IntervalDays: ex.Schedule.IntervalDays,
		Repetitions:  ex.Schedule.Repetitions,
		NextDue:      encodeTime(ex.Schedule.NextDue),
		Completed:    ex.Completed,
		CreatedAt:    encodeTime(ex.CreatedAt),
	}
	if !ex.Schedule.LastReviewed.IsZero() {
		row.LastReviewed = sql.NullString{String: encodeTime(ex.Schedule.LastReviewed), Valid: true}
	}
	return row, nil
}

// fromRow rebuilds the domain exercise and validates the scheduling
// invariants. A record that fails validation is reported as ErrCorrupted.
func fromRow(row *exerciseRow) (*exercise.Exercise, error) {
	corrupt := func(err error) error {
		return fmt.Errorf("%w: exercise %q: %v", ErrCorrupted, row.ID, err)
	}

	ex := &exercise.Exercise{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Domain:      row.Domain,
		Difficulty:  row.Difficulty,
		Content:     row.Content,
		Completed:   row.Completed,
	}

	if err := json.Unmarshal([]byte(row.Steps), &ex.Steps); err != nil {
		return nil, corrupt(fmt.Errorf("decode steps: %w", err))
	}
	if err := json.Unmarshal([]byte(row.Tests), &ex.Tests); err != nil {
		return nil, corrupt(fmt.Errorf("decode tests: %w", err))
	}

	createdAt, err := decodeTime(row.CreatedAt)
	if err != nil {
		return nil, corrupt(fmt.Errorf("parse created_at: %w", err))
	}
	ex.CreatedAt = createdAt

	nextDue, err := decodeTime(row.NextDue)
	if err != nil {
		return nil, corrupt(fmt.Errorf("parse next_due: %w", err))
	}

	state := srs.State{
		EaseFactor:   row.EaseFactor,
		IntervalDays: row.IntervalDays,
		Repetitions:  row.Repetitions,
		NextDue:      nextDue,
	}
	if row.LastReviewed.Valid {
		lr, err := decodeTime(row.LastReviewed.String)
		if err != nil {
			return nil, corrupt(fmt.Errorf("parse last_reviewed: %w", err))
		}
		state.LastReviewed = lr
	}
	ex.Schedule = state

	if !state.Valid() {
		return nil, corrupt(errors.New("scheduling state violates invariants"))
	}
	if err := ex.Validate(); err != nil {
		return nil, corrupt(err)
	}
	return ex, nil
}

const exerciseColumns = `id, title, description, domain, difficulty, steps, content, tests,
	ease_factor, interval_days, repetitions, last_reviewed, next_due, completed, created_at`

const insertExercise = `INSERT INTO exercises (` + exerciseColumns + `) VALUES
	(:id, :title, :description, :domain, :difficulty, :steps, :content, :tests,
	 :ease_factor, :interval_days, :repetitions, :last_reviewed, :next_due, :completed, :created_at)`

// Create inserts a new exercise. It fails with ErrDuplicateID if the id is
// already taken and leaves the database untouched in that case.
func (s *Store) Create(ctx context.Context, ex *exercise.Exercise) error {
	if err := ex.Validate(); err != nil {
		return err
	}
	row, err := toRow(ex)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM exercises WHERE id = ?)`, ex.ID); err != nil {
		return mapErr(err)
	}
	if exists {
		return fmt.Errorf("%w: %q", ErrDuplicateID, ex.ID)
	}

	if _, err := tx.NamedExecContext(ctx, insertExercise, row); err != nil {
		return mapErr(fmt.Errorf("insert exercise: %w", err))
	}
	return mapErr(tx.Commit())
}

// Get loads a single exercise. It fails with ErrNotFound if the id is
// absent and ErrCorrupted if the persisted record violates invariants.
func (s *Store) Get(ctx context.Context, id string) (*exercise.Exercise, error) {
	var row exerciseRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: exercise %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return fromRow(&row)
}

// List returns all exercises, optionally filtered by domain, ordered by
// creation time then id. Corrupt records are skipped; use Get to inspect
// a specific record's corruption.
func (s *Store) List(ctx context.Context, domain string) ([]*exercise.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises`
	var args []any
	if domain != "" {
		query += ` WHERE domain = ?`
		args = append(args, domain)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	return s.selectExercises(ctx, query, args...)
}

// ListDue returns all exercises due at now (NextDue <= now), optionally
// filtered by domain. Ordering is deterministic: next_due ascending, then
// created_at ascending, then id ascending. Corrupt records are skipped.
func (s *Store) ListDue(ctx context.Context, domain string, now time.Time) ([]*exercise.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises WHERE next_due <= ?`
	args := []any{encodeTime(now)}
	if domain != "" {
		query += ` AND domain = ?`
		args = append(args, domain)
	}
	query += ` ORDER BY next_due ASC, created_at ASC, id ASC`

	return s.selectExercises(ctx, query, args...)
}

func (s *Store) selectExercises(ctx context.Context, query string, args ...any) ([]*exercise.Exercise, error) {
	var rows []exerciseRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapErr(err)
	}

	exercises := make([]*exercise.Exercise, 0, len(rows))
	for i := range rows {
		ex, err := fromRow(&rows[i])
		if err != nil {
			// Corruption is fatal for the record, not for the query.
			continue
		}
		exercises = append(exercises, ex)
	}
	return exercises, nil
}

// Delete removes an exercise. Its review events are retained for history.
func (s *Store) Delete(ctx context.Context, id string) error {
	lock := s.locks.forID(id)
	lock.Lock()
	defer lock.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: exercise %q", ErrNotFound, id)
	}
	return nil
}

// ApplyReview runs one SM-2 review against the exercise: it loads the
// current scheduling state, applies the transition, and persists the new
// state together with the review event in a single transaction. Reviews of
// the same exercise serialize on a per-exercise lock.
//
// The exercise is flagged completed exactly when quality meets the pass
// threshold on this call. On any error nothing is persisted.
func (s *Store) ApplyReview(ctx context.Context, id string, quality srs.Quality, now time.Time) (*exercise.Exercise, *ReviewEvent, error) {
	lock := s.locks.forID(id)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, mapErr(err)
	}
	defer tx.Rollback()

	var row exerciseRow
	err = tx.GetContext(ctx, &row,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: exercise %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, mapErr(err)
	}

	ex, err := fromRow(&row)
	if err != nil {
		return nil, nil, err
	}

	res, err := srs.Transition(ex.Schedule, quality, now)
	if err != nil {
		return nil, nil, err
	}
	ex.Schedule = res.State
	ex.Completed = quality >= s.passThreshold

	updated, err := toRow(ex)
	if err != nil {
		return nil, nil, err
	}
	_, err = tx.NamedExecContext(ctx, `UPDATE exercises SET
		ease_factor = :ease_factor,
		interval_days = :interval_days,
		repetitions = :repetitions,
		last_reviewed = :last_reviewed,
		next_due = :next_due,
		completed = :completed
		WHERE id = :id`, updated)
	if err != nil {
		return nil, nil, mapErr(fmt.Errorf("update exercise: %w", err))
	}

	event := newReviewEvent(id, quality, res.State, now)
	if err := appendReviewEvent(ctx, tx, event); err != nil {
		return nil, nil, mapErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, mapErr(err)
	}
	return ex, event, nil
}
