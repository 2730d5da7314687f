package store

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors returned by store operations. All are errors.Is-matchable
// through any wrapping the store adds.
var (
	// ErrNotFound is returned when no record exists for the given id.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateID is returned by Create when the exercise id already exists.
	ErrDuplicateID = errors.New("store: duplicate id")

	// ErrCorrupted is returned when a persisted record fails invariant
	// validation on load. It is fatal for that record only; the store
	// remains usable for everything else.
	ErrCorrupted = errors.New("store: corrupted record")

	// ErrTimeout is returned when a caller-supplied deadline expires during
	// a persistence operation.
	ErrTimeout = errors.New("store: timeout")
)

// mapErr translates driver-level failures into store sentinels. Context
// deadline expiry becomes ErrTimeout so callers do not have to know about
// the database layer; everything else passes through for wrapping at the
// call site.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
