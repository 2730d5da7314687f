// Package srs implements the SM-2 spaced repetition algorithm as a pure
// state transition. It holds no clock and performs no I/O; callers supply
// the current time and persist the returned state themselves.
package srs

import (
	"errors"
	"math"
	"time"
)

const (
	// InitialEase is the ease factor assigned to a new exercise.
	InitialEase = 2.5
	// MinEase is the SM-2 floor below which the ease factor never drops.
	MinEase = 1.3

	// firstInterval and secondInterval are the fixed SM-2 intervals (in days)
	// for the first two successful repetitions.
	firstInterval  = 1
	secondInterval = 6
	// lapseInterval is the interval assigned after failing recall.
	lapseInterval = 1
)

// ErrInvalidRating is returned when a quality rating is outside 0-5.
var ErrInvalidRating = errors.New("srs: quality rating must be between 0 and 5")

// Result is the outcome of a single review transition.
type Result struct {
	State State
	// Lapse is true when the review failed and the repetition count was reset.
	Lapse bool
}

// Transition applies one SM-2 review to s and returns the next scheduling
// state. It never mutates s. The only possible error is ErrInvalidRating.
//
// A passing review (quality >= 3) grows the interval through the fixed
// 1-day / 6-day ladder and then multiplicatively by the ease factor. A
// failing review resets the repetition count and schedules a 1-day retry.
// The ease factor is adjusted on every review, passing or not, and is
// clamped to MinEase.
func Transition(s State, quality Quality, now time.Time) (Result, error) {
	if !quality.Valid() {
		return Result{}, ErrInvalidRating
	}

	next := s

	if quality.Lapse() {
		next.Repetitions = 0
		next.IntervalDays = lapseInterval
	} else {
		switch s.Repetitions {
		case 0:
			next.IntervalDays = firstInterval
		case 1:
			next.IntervalDays = secondInterval
		default:
			next.IntervalDays = int(math.Round(float64(s.IntervalDays) * s.EaseFactor))
		}
		next.Repetitions = s.Repetitions + 1
	}

	next.EaseFactor = nextEase(s.EaseFactor, quality)
	next.LastReviewed = now
	next.NextDue = now.AddDate(0, 0, next.IntervalDays)

	return Result{State: next, Lapse: quality.Lapse()}, nil
}

// nextEase applies the standard SM-2 ease adjustment:
//
//	EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02))
//
// clamped to MinEase. There is no ceiling.
func nextEase(ease float64, quality Quality) float64 {
	q := float64(quality)
	ease += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	return math.Max(ease, MinEase)
}
