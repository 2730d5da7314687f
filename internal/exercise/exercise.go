// Package exercise defines the practice unit of maestro: a titled piece of
// work (a code kata, a shell drill, a design question) carrying its own
// spaced repetition schedule.
package exercise

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/maestro/internal/srs"
)

// Difficulty bounds, author-assigned and independent of the SM-2 ease factor.
const (
	MinDifficulty = 1
	MaxDifficulty = 3
)

// Well-known domains. The domain field is an open enum: these are the tags
// the seed content uses, but any non-empty string is accepted.
const (
	DomainGolang       = "golang"
	DomainLinux        = "linux"
	DomainArchitecture = "architecture"
)

// TestCase is a single test for an exercise. Opaque to the scheduler;
// consumed by the kata execution collaborator.
type TestCase struct {
	Name  string `json:"name"`
	Input string `json:"input,omitempty"`
	Want  string `json:"want"`
}

// Exercise is a practice unit together with its scheduling state.
//
// Schedule is owned by the review scheduler and must only change through
// srs.Transition; everything else is author-provided content.
type Exercise struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Domain      string     `json:"domain"`
	Difficulty  int        `json:"difficulty"`
	Steps       []string   `json:"steps,omitempty"`
	Content     string     `json:"content,omitempty"`
	Tests       []TestCase `json:"tests,omitempty"`

	Schedule  srs.State `json:"schedule"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrInvalid is wrapped by all validation failures.
var ErrInvalid = errors.New("invalid exercise")

// New creates an exercise with default scheduling state: never reviewed,
// due immediately.
func New(id, title, domain string, difficulty int, createdAt time.Time) *Exercise {
	return &Exercise{
		ID:         id,
		Title:      title,
		Domain:     domain,
		Difficulty: difficulty,
		Schedule:   srs.NewState(createdAt),
		CreatedAt:  createdAt,
	}
}

// Validate checks the author-provided fields.
func (e *Exercise) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalid)
	}
	if e.Title == "" {
		return fmt.Errorf("%w: %s: missing title", ErrInvalid, e.ID)
	}
	if e.Domain == "" {
		return fmt.Errorf("%w: %s: missing domain", ErrInvalid, e.ID)
	}
	if e.Difficulty < MinDifficulty || e.Difficulty > MaxDifficulty {
		return fmt.Errorf("%w: %s: difficulty %d outside %d-%d",
			ErrInvalid, e.ID, e.Difficulty, MinDifficulty, MaxDifficulty)
	}
	return nil
}
