package service

import (
	"github.com/gradeloop/gradeloop-api/internal/models"
)

// CategoryStats holds the derived fields of one category recompute.
type CategoryStats struct {
	AverageGrade  float64
	GradeByWeight float64
	NumGraded     int
}

// CourseStats holds the derived fields of one course recompute.
type CourseStats struct {
	CurrentGrade       float64
	HasWeightedGrading bool
}

// AggregateCategory computes a category's pooled-points average over its
// graded items. The average is Σcorrect/Σpossible, never a mean of per-item
// percentages, so heavier assignments weigh more.
func AggregateCategory(weight float64, items []models.Homework) (CategoryStats, error) {
	if len(items) == 0 {
		return CategoryStats{AverageGrade: -1, GradeByWeight: 0, NumGraded: 0}, nil
	}
	var correctSum, possibleSum int64
	for _, item := range items {
		fraction, err := models.ParseGradeFraction(item.Grade)
		if err != nil {
			return CategoryStats{}, err
		}
		correctSum += fraction.Correct
		possibleSum += fraction.Possible
	}
	average := float64(correctSum) / float64(possibleSum) * 100
	return CategoryStats{
		AverageGrade:  average,
		GradeByWeight: average * weight / 100,
		NumGraded:     len(items),
	}, nil
}

// AggregateCourse computes a course's current grade from its already
// recomputed categories, falling back to pooling every graded item of the
// course when the category weights do not total exactly 100.
//
// Weighting is all-or-nothing: a course whose weights sum to 99 or 145 is
// treated identically to one with no weights at all. In weighted mode the
// contribution of graded categories is renormalized by the weight share they
// cover, so categories with no graded work yet do not depress the grade.
func AggregateCourse(categories []models.Category, items []models.Homework) (CourseStats, error) {
	var weightSum float64
	for _, category := range categories {
		weightSum += category.Weight
	}
	weighted := weightSum == 100

	if weighted {
		var gradeByWeightSum, coveredWeight float64
		var anyGraded bool
		for _, category := range categories {
			if category.NumGraded == 0 {
				continue
			}
			anyGraded = true
			gradeByWeightSum += category.GradeByWeight
			coveredWeight += category.Weight / 100
		}
		if anyGraded {
			return CourseStats{CurrentGrade: gradeByWeightSum / coveredWeight, HasWeightedGrading: true}, nil
		}
		return CourseStats{CurrentGrade: -1, HasWeightedGrading: true}, nil
	}

	if len(items) == 0 {
		return CourseStats{CurrentGrade: -1, HasWeightedGrading: false}, nil
	}
	var correctSum, possibleSum int64
	for _, item := range items {
		fraction, err := models.ParseGradeFraction(item.Grade)
		if err != nil {
			return CourseStats{}, err
		}
		correctSum += fraction.Correct
		possibleSum += fraction.Possible
	}
	return CourseStats{
		CurrentGrade:       float64(correctSum) / float64(possibleSum) * 100,
		HasWeightedGrading: false,
	}, nil
}

// AggregateCourseGroup computes the plain mean of the group's graded courses.
// Unlike the course-level fallback this never pools points across courses.
func AggregateCourseGroup(courses []models.Course) float64 {
	var sum float64
	var graded int
	for _, course := range courses {
		if course.CurrentGrade == -1 {
			continue
		}
		sum += course.CurrentGrade
		graded++
	}
	if graded == 0 {
		return -1
	}
	return sum / float64(graded)
}
