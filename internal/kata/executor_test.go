package kata

import (
	"testing"

	"github.com/abhisek/maestro/internal/srs"
)

func TestQualityFromResults(t *testing.T) {
	tests := []struct {
		name   string
		passed int
		total  int
		want   srs.Quality
	}{
		{"all pass", 8, 8, srs.QualityPerfect},
		{"three quarters", 3, 4, srs.QualityGood},
		{"half", 2, 4, srs.QualityHard},
		{"one of three", 1, 3, srs.QualityWrongEasy},
		{"one of four", 1, 4, srs.QualityWrongEasy},
		{"one of ten", 1, 10, srs.QualityWrong},
		{"none pass", 0, 6, srs.QualityBlackout},
		{"no tests", 0, 0, srs.QualityBlackout},
		{"over-reported passes clamp", 9, 8, srs.QualityPerfect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QualityFromResults(tt.passed, tt.total)
			if got != tt.want {
				t.Errorf("QualityFromResults(%d, %d) = %d, want %d",
					tt.passed, tt.total, got, tt.want)
			}
			if !got.Valid() {
				t.Errorf("rating %d is outside the SM-2 scale", got)
			}
		})
	}
}
