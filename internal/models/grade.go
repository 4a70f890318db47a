package models

import (
	"fmt"
	"regexp"
	"strconv"

	appErrors "github.com/gradeloop/gradeloop-api/pkg/errors"
)

// UngradedSentinel is the grade string marking an item as not yet graded.
const UngradedSentinel = "-1/100"

var gradePattern = regexp.MustCompile(`^(-?\d+)/(\d+)$`)

// GradeFraction is a parsed "<correct>/<possible>" grade value.
type GradeFraction struct {
	Correct  int64
	Possible int64
}

// ParseGradeFraction parses a fraction-form grade string. The ungraded
// sentinel "-1/100" is accepted as-is; any other negative numerator, a
// non-positive denominator, or non-matching input fails with ErrMalformedGrade.
func ParseGradeFraction(raw string) (GradeFraction, error) {
	match := gradePattern.FindStringSubmatch(raw)
	if match == nil {
		return GradeFraction{}, appErrors.Clone(appErrors.ErrMalformedGrade, fmt.Sprintf("grade %q does not match <correct>/<possible>", raw))
	}
	correct, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return GradeFraction{}, appErrors.Wrap(err, appErrors.ErrMalformedGrade.Code, appErrors.ErrMalformedGrade.Status, "grade numerator out of range")
	}
	possible, err := strconv.ParseInt(match[2], 10, 64)
	if err != nil {
		return GradeFraction{}, appErrors.Wrap(err, appErrors.ErrMalformedGrade.Code, appErrors.ErrMalformedGrade.Status, "grade denominator out of range")
	}
	if raw == UngradedSentinel {
		return GradeFraction{Correct: correct, Possible: possible}, nil
	}
	if correct < 0 {
		return GradeFraction{}, appErrors.Clone(appErrors.ErrMalformedGrade, "grade numerator must be non-negative")
	}
	if possible <= 0 {
		return GradeFraction{}, appErrors.Clone(appErrors.ErrMalformedGrade, "grade denominator must be positive")
	}
	return GradeFraction{Correct: correct, Possible: possible}, nil
}

// Ungraded reports whether the fraction is the ungraded sentinel.
func (f GradeFraction) Ungraded() bool {
	return f.Correct < 0
}

// Percentage returns the fraction as a percentage value.
func (f GradeFraction) Percentage() float64 {
	return float64(f.Correct) / float64(f.Possible) * 100
}

// String renders the fraction back into wire form.
func (f GradeFraction) String() string {
	return fmt.Sprintf("%d/%d", f.Correct, f.Possible)
}
