package srs

import (
	"errors"
	"math"
	"testing"
	"time"
)

var reviewTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestTransition_RejectsInvalidRating(t *testing.T) {
	s := NewState(reviewTime)

	for _, q := range []Quality{-1, 6, 42} {
		_, err := Transition(s, q, reviewTime)
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("quality %d: got err %v, want ErrInvalidRating", q, err)
		}
	}
}

func TestTransition_FirstReviewPerfect(t *testing.T) {
	created := reviewTime.AddDate(0, 0, -1)
	s := NewState(created)

	res, err := Transition(s, QualityPerfect, reviewTime)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}

	if res.Lapse {
		t.Error("quality 5 should not be a lapse")
	}
	if res.State.Repetitions != 1 {
		t.Errorf("repetitions = %d, want 1", res.State.Repetitions)
	}
	if res.State.IntervalDays != 1 {
		t.Errorf("interval = %d, want 1", res.State.IntervalDays)
	}
	if math.Abs(res.State.EaseFactor-2.6) > 1e-9 {
		t.Errorf("ease = %v, want 2.6", res.State.EaseFactor)
	}
	wantDue := reviewTime.AddDate(0, 0, 1)
	if !res.State.NextDue.Equal(wantDue) {
		t.Errorf("next due = %v, want %v", res.State.NextDue, wantDue)
	}
	if !res.State.LastReviewed.Equal(reviewTime) {
		t.Errorf("last reviewed = %v, want %v", res.State.LastReviewed, reviewTime)
	}
}

// TestTransition_PassingSequence walks the 1-day / 6-day / multiplicative
// ladder and then fails the exercise, checking the full lifecycle.
func TestTransition_PassingSequence(t *testing.T) {
	s := NewState(reviewTime)

	// First pass.
	res, err := Transition(s, QualityPerfect, reviewTime)
	if err != nil {
		t.Fatalf("first review: %v", err)
	}

	// Second pass the next day.
	day2 := reviewTime.AddDate(0, 0, 1)
	res, err = Transition(res.State, QualityPerfect, day2)
	if err != nil {
		t.Fatalf("second review: %v", err)
	}
	if res.State.Repetitions != 2 {
		t.Errorf("repetitions = %d, want 2", res.State.Repetitions)
	}
	if res.State.IntervalDays != 6 {
		t.Errorf("interval = %d, want 6", res.State.IntervalDays)
	}
	if math.Abs(res.State.EaseFactor-2.7) > 1e-9 {
		t.Errorf("ease = %v, want 2.7", res.State.EaseFactor)
	}

	// Third pass: multiplicative growth, round(6 * 2.7) = 16.
	day8 := day2.AddDate(0, 0, 6)
	res, err = Transition(res.State, QualityGood, day8)
	if err != nil {
		t.Fatalf("third review: %v", err)
	}
	if res.State.IntervalDays != 16 {
		t.Errorf("interval = %d, want 16", res.State.IntervalDays)
	}
	if res.State.Repetitions != 3 {
		t.Errorf("repetitions = %d, want 3", res.State.Repetitions)
	}

	// Lapse: repetitions and interval reset, ease drops.
	prevEase := res.State.EaseFactor
	res, err = Transition(res.State, QualityWrongEasy, day8.AddDate(0, 0, 16))
	if err != nil {
		t.Fatalf("lapse review: %v", err)
	}
	if !res.Lapse {
		t.Error("quality 2 should be a lapse")
	}
	if res.State.Repetitions != 0 {
		t.Errorf("repetitions after lapse = %d, want 0", res.State.Repetitions)
	}
	if res.State.IntervalDays != 1 {
		t.Errorf("interval after lapse = %d, want 1", res.State.IntervalDays)
	}
	if res.State.EaseFactor >= prevEase {
		t.Errorf("ease after lapse = %v, want < %v", res.State.EaseFactor, prevEase)
	}
}

func TestTransition_EaseNeverBelowFloor(t *testing.T) {
	for q := QualityBlackout; q <= QualityPerfect; q++ {
		s := NewState(reviewTime)
		// Hammer the same quality repeatedly; the floor must hold.
		for i := 0; i < 50; i++ {
			res, err := Transition(s, q, reviewTime.AddDate(0, 0, i))
			if err != nil {
				t.Fatalf("quality %d iteration %d: %v", q, i, err)
			}
			if res.State.EaseFactor < MinEase {
				t.Fatalf("quality %d: ease %v dropped below %v", q, res.State.EaseFactor, MinEase)
			}
			s = res.State
		}
	}
}

func TestTransition_IntervalNonDecreasingWhilePassing(t *testing.T) {
	for q := QualityHard; q <= QualityPerfect; q++ {
		s := NewState(reviewTime)
		now := reviewTime
		prev := 0
		for i := 0; i < 20; i++ {
			res, err := Transition(s, q, now)
			if err != nil {
				t.Fatalf("quality %d iteration %d: %v", q, i, err)
			}
			if res.State.Repetitions >= 2 && res.State.IntervalDays < prev {
				t.Fatalf("quality %d: interval shrank from %d to %d while passing",
					q, prev, res.State.IntervalDays)
			}
			prev = res.State.IntervalDays
			s = res.State
			now = res.State.NextDue
		}
	}
}

func TestTransition_LapseAdjustsEase(t *testing.T) {
	tests := []struct {
		name    string
		quality Quality
		ease    float64
		want    float64
	}{
		{"blackout full penalty", QualityBlackout, 2.5, 1.7},
		{"wrong", QualityWrong, 2.5, 1.96},
		{"wrong but easy", QualityWrongEasy, 2.5, 2.18},
		{"penalty clamps at floor", QualityBlackout, 1.4, MinEase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := State{EaseFactor: tt.ease, IntervalDays: 10, Repetitions: 4, NextDue: reviewTime}
			res, err := Transition(s, tt.quality, reviewTime)
			if err != nil {
				t.Fatalf("transition: %v", err)
			}
			if math.Abs(res.State.EaseFactor-tt.want) > 1e-9 {
				t.Errorf("ease = %v, want %v", res.State.EaseFactor, tt.want)
			}
		})
	}
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	s := State{EaseFactor: 2.0, IntervalDays: 12, Repetitions: 3, NextDue: reviewTime}
	orig := s

	if _, err := Transition(s, QualityGood, reviewTime); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if s != orig {
		t.Errorf("input state mutated: %+v != %+v", s, orig)
	}
}

func TestState_IsDue(t *testing.T) {
	s := NewState(reviewTime)

	if !s.IsDue(reviewTime) {
		t.Error("new state should be due at creation time")
	}
	if s.IsDue(reviewTime.Add(-time.Minute)) {
		t.Error("state should not be due before creation time")
	}
	if !s.IsDue(reviewTime.AddDate(0, 0, 3)) {
		t.Error("state should be due after creation time")
	}
}

func TestState_DaysUntilDue(t *testing.T) {
	s := NewState(reviewTime)
	s.NextDue = reviewTime.AddDate(0, 0, 6)

	if got := s.DaysUntilDue(reviewTime.Add(time.Hour)); got != 6 {
		t.Errorf("six days out = %d, want 6", got)
	}
	if got := s.DaysUntilDue(reviewTime.AddDate(0, 0, 5).Add(12 * time.Hour)); got != 1 {
		t.Errorf("half a day out = %d, want 1", got)
	}
	if got := s.DaysUntilDue(s.NextDue); got != 0 {
		t.Errorf("at due time = %d, want 0", got)
	}
	if got := s.DaysUntilDue(s.NextDue.AddDate(0, 0, 3)); got != 0 {
		t.Errorf("past due = %d, want 0", got)
	}
}

func TestState_Valid(t *testing.T) {
	good := NewState(reviewTime)
	if !good.Valid() {
		t.Error("new state should be valid")
	}

	bad := good
	bad.EaseFactor = 1.1
	if bad.Valid() {
		t.Error("ease below floor should be invalid")
	}

	bad = good
	bad.IntervalDays = -1
	if bad.Valid() {
		t.Error("negative interval should be invalid")
	}

	if (State{}).Valid() {
		t.Error("zero state should be invalid")
	}
}
