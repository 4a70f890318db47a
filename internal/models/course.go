package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GradePoint is one point of the cumulative running-average chart series.
type GradePoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// GradePoints is a JSONB-persisted chart series.
type GradePoints []GradePoint

// Value implements driver.Valuer for JSONB storage.
func (p GradePoints) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal grade points: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner for JSONB retrieval.
func (p *GradePoints) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan grade points: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Course owns categories and carries course-level derived statistics.
// HasWeightedGrading is a structural property: the category weights of the
// course sum to exactly 100, regardless of how many have graded work.
type Course struct {
	ID                 string      `db:"id" json:"id"`
	CourseGroupID      string      `db:"course_group_id" json:"course_group_id"`
	Title              string      `db:"title" json:"title"`
	CurrentGrade       float64     `db:"current_grade" json:"current_grade"`
	Trend              *float64    `db:"trend" json:"trend"`
	HasWeightedGrading bool        `db:"has_weighted_grading" json:"has_weighted_grading"`
	GradePoints        GradePoints `db:"grade_points" json:"grade_points"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}
