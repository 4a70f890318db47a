package service

import (
	"math"
	"sort"

	"github.com/gradeloop/gradeloop-api/internal/models"
)

// Trend computes the Pearson correlation of item start time against per-item
// percentage for one scope's graded items. The result is naturally bounded in
// [-1, 1]; a perfectly monotonic series yields exactly ±1 regardless of the
// magnitude of the changes. Fewer than 2 points, or a series with zero
// variance on either axis, yields nil.
func Trend(items []models.Homework) (*float64, error) {
	if len(items) < 2 {
		return nil, nil
	}
	ordered := make([]models.Homework, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartAt.Before(ordered[j].StartAt)
	})

	times := make([]float64, 0, len(ordered))
	percentages := make([]float64, 0, len(ordered))
	for _, item := range ordered {
		fraction, err := models.ParseGradeFraction(item.Grade)
		if err != nil {
			return nil, err
		}
		times = append(times, float64(item.StartAt.Unix()))
		percentages = append(percentages, fraction.Percentage())
	}
	return pearson(times, percentages), nil
}

// pearson returns the correlation coefficient of two equally sized series,
// or nil when either series has zero variance.
func pearson(xs, ys []float64) *float64 {
	n := float64(len(xs))
	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	var covariance, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		covariance += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return nil
	}
	r := covariance / math.Sqrt(varX*varY)
	return &r
}

// BuildGradePoints builds the cumulative unweighted running-mean series of a
// course's graded items ordered by start time. The series is
// presentation-only and never feeds current_grade or trend.
func BuildGradePoints(items []models.Homework) (models.GradePoints, error) {
	if len(items) == 0 {
		return models.GradePoints{}, nil
	}
	ordered := make([]models.Homework, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartAt.Before(ordered[j].StartAt)
	})

	points := make(models.GradePoints, 0, len(ordered))
	var runningSum float64
	for i, item := range ordered {
		fraction, err := models.ParseGradeFraction(item.Grade)
		if err != nil {
			return nil, err
		}
		runningSum += fraction.Percentage()
		points = append(points, models.GradePoint{
			Time:  item.StartAt,
			Value: runningSum / float64(i+1),
		})
	}
	return points, nil
}
