// Package grading turns raw marks into percentages and letter grades.
package grading

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNegativeScore     = errors.New("score must not be negative")
	ErrInvalidMaxMarks   = errors.New("max marks must be greater than zero")
	ErrScoreExceedsMax   = errors.New("score exceeds max marks")
	ErrNonFiniteMeasures = errors.New("score and max marks must be finite numbers")
	ErrMeasureTooLarge   = errors.New("score and max marks must not exceed 99999.99")
	ErrTooManyDecimals   = errors.New("score and max marks allow at most two decimals")
)

// MaxMeasure is the largest score or max marks a result can hold.
const MaxMeasure = 99999.99

// band is a lower bound (inclusive) on the rounded percentage.
type band struct {
	min   float64
	grade string
}

// bands are evaluated top-down; the first match wins.
var bands = []band{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C+"},
	{40, "C"},
	{30, "D"},
}

// FailGrade is awarded below the lowest band.
const FailGrade = "F"

// Round2 rounds x half away from zero to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Percentage returns score/maxMarks*100 rounded to two decimals.
func Percentage(score, maxMarks float64) (float64, error) {
	if err := Validate(score, maxMarks); err != nil {
		return 0, err
	}
	return Round2(score / maxMarks * 100), nil
}

// LetterGrade maps a percentage to a letter grade.
func LetterGrade(percentage float64) string {
	for _, b := range bands {
		if percentage >= b.min {
			return b.grade
		}
	}
	return FailGrade
}

// Grade computes both the rounded percentage and the grade derived from it.
func Grade(score, maxMarks float64) (float64, string, error) {
	pct, err := Percentage(score, maxMarks)
	if err != nil {
		return 0, "", err
	}
	return pct, LetterGrade(pct), nil
}

// Validate checks marks without computing anything.
func Validate(score, maxMarks float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) || math.IsNaN(maxMarks) || math.IsInf(maxMarks, 0) {
		return ErrNonFiniteMeasures
	}
	if score > MaxMeasure || maxMarks > MaxMeasure {
		return ErrMeasureTooLarge
	}
	if !hasTwoDecimals(score) || !hasTwoDecimals(maxMarks) {
		return ErrTooManyDecimals
	}
	if maxMarks <= 0 {
		return ErrInvalidMaxMarks
	}
	if score < 0 {
		return ErrNegativeScore
	}
	if score > maxMarks {
		return fmt.Errorf("%w: %.2f > %.2f", ErrScoreExceedsMax, score, maxMarks)
	}
	return nil
}

// hasTwoDecimals reports whether x survives rounding to cents unchanged.
func hasTwoDecimals(x float64) bool {
	scaled := x * 100
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}
