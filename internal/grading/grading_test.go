package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrade(t *testing.T) {
	tests := []struct {
		name       string
		score      float64
		maxMarks   float64
		percentage float64
		grade      string
	}{
		{"full marks", 100, 100, 100, "A+"},
		{"boundary A+", 90, 100, 90, "A+"},
		{"just below A+", 89.99, 100, 89.99, "A"},
		{"A", 80, 100, 80, "A"},
		{"B+", 70, 100, 70, "B+"},
		{"B", 60, 100, 60, "B"},
		{"C+", 50, 100, 50, "C+"},
		{"C", 40, 100, 40, "C"},
		{"D", 30, 100, 30, "D"},
		{"just below D", 29.99, 100, 29.99, "F"},
		{"zero", 0, 100, 0, "F"},
		{"rounds to two decimals", 1, 3, 33.33, "D"},
		{"rounds up", 2, 3, 66.67, "B"},
		{"grade uses rounded percentage", 26.99, 29.99, 90, "A+"},
		{"largest marks", 99999.99, 99999.99, 100, "A+"},
		{"cents", 85.55, 100, 85.55, "A"},
		{"out of fifty", 45, 50, 90, "A+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, grade, err := Grade(tt.score, tt.maxMarks)
			require.NoError(t, err)
			assert.Equal(t, tt.percentage, pct)
			assert.Equal(t, tt.grade, grade)
		})
	}
}

func TestGradeRejectsInvalidMarks(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		maxMarks float64
		want     error
	}{
		{"score above max", 101, 100, ErrScoreExceedsMax},
		{"negative score", -1, 100, ErrNegativeScore},
		{"zero max", 0, 0, ErrInvalidMaxMarks},
		{"negative max", 10, -5, ErrInvalidMaxMarks},
		{"nan score", math.NaN(), 100, ErrNonFiniteMeasures},
		{"infinite max", 10, math.Inf(1), ErrNonFiniteMeasures},
		{"max too large", 10, 1000000, ErrMeasureTooLarge},
		{"score too large", 100000, 100000, ErrMeasureTooLarge},
		{"max below a cent", 0, 0.001, ErrTooManyDecimals},
		{"score with three decimals", 85.555, 100, ErrTooManyDecimals},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Grade(tt.score, tt.maxMarks)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLetterGradeIsMonotonic(t *testing.T) {
	order := map[string]int{"F": 0, "D": 1, "C": 2, "C+": 3, "B": 4, "B+": 5, "A": 6, "A+": 7}
	prev := -1
	for p := 0.0; p <= 100; p += 0.25 {
		rank := order[LetterGrade(p)]
		assert.GreaterOrEqual(t, rank, prev, "grade dropped at %.2f", p)
		prev = rank
	}
}
