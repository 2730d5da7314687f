// Package kata defines the capability boundary to the code execution
// collaborator. The core never compiles or runs user code; it hands an
// exercise across this interface and receives a recall-quality rating
// back. How quality is derived from test results is the collaborator's
// business.
package kata

import (
	"context"

	"github.com/abhisek/maestro/internal/exercise"
	"github.com/abhisek/maestro/internal/srs"
)

// Executor runs an exercise's content against its tests and rates the
// attempt on the SM-2 scale.
type Executor interface {
	Run(ctx context.Context, ex *exercise.Exercise) (srs.Quality, error)
}

// QualityFromResults is a default pass-ratio heuristic for executors that
// only know how many tests passed. All tests green maps to a perfect
// rating, a majority to a hesitant pass, anything under half to a lapse.
// Executors with richer signals (timing, partial output) are free to
// ignore it.
func QualityFromResults(passed, total int) srs.Quality {
	if total <= 0 || passed <= 0 {
		return srs.QualityBlackout
	}
	if passed > total {
		passed = total
	}

	switch ratio := float64(passed) / float64(total); {
	case ratio == 1:
		return srs.QualityPerfect
	case ratio >= 0.75:
		return srs.QualityGood
	case ratio >= 0.5:
		return srs.QualityHard
	case ratio >= 0.25:
		return srs.QualityWrongEasy
	default:
		return srs.QualityWrong
	}
}
