package models

import "time"

// CourseGroup owns courses (a semester, a school year, ...) and carries the
// mean grade over its graded courses.
type CourseGroup struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Title        string    `db:"title" json:"title"`
	AverageGrade float64   `db:"average_grade" json:"average_grade"`
	Trend        *float64  `db:"trend" json:"trend"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
