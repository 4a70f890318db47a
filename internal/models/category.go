package models

import "time"

// DefaultCategoryTitle is the title of the implicit per-course category that
// absorbs items without an explicit category and items of deleted categories.
const DefaultCategoryTitle = "Uncategorized"

// Category groups homework inside a course and carries derived statistics.
// AverageGrade is always the pooled-points ratio over the category's own
// graded items, never a mean of per-item percentages.
type Category struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	Title         string    `db:"title" json:"title"`
	Weight        float64   `db:"weight" json:"weight"`
	AverageGrade  float64   `db:"average_grade" json:"average_grade"`
	GradeByWeight float64   `db:"grade_by_weight" json:"grade_by_weight"`
	Trend         *float64  `db:"trend" json:"trend"`
	NumGraded     int       `db:"num_graded" json:"num_graded"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
