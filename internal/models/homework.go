package models

import "time"

// Homework is a graded leaf work item. It belongs to exactly one category
// and one course. An item counts toward averages only when it is completed
// and its grade is not the ungraded sentinel.
type Homework struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	CategoryID string    `db:"category_id" json:"category_id"`
	Title      string    `db:"title" json:"title"`
	Grade      string    `db:"grade" json:"grade"`
	Completed  bool      `db:"completed" json:"completed"`
	StartAt    time.Time `db:"start_at" json:"start_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Graded reports whether the item participates in grade aggregation.
func (h Homework) Graded() bool {
	return h.Completed && h.Grade != UngradedSentinel
}

// HomeworkFilter scopes homework list queries.
type HomeworkFilter struct {
	CourseID   string
	CategoryID string
	Completed  *bool
	Page       int
	PageSize   int
}
