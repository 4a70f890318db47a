package models

// CategoryOverview is the read-API projection of a category. Numeric fields
// are rounded to 4 fractional digits by the overview service.
type CategoryOverview struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	OverallGrade  float64  `json:"overall_grade"`
	Weight        float64  `json:"weight"`
	GradeByWeight float64  `json:"grade_by_weight"`
	Trend         *float64 `json:"trend"`
	NumGraded     int      `json:"num_graded"`
}

// CourseOverview is the read-API projection of a course.
type CourseOverview struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	OverallGrade       float64            `json:"overall_grade"`
	Trend              *float64           `json:"trend"`
	HasWeightedGrading bool               `json:"has_weighted_grading"`
	GradePoints        GradePoints        `json:"grade_points"`
	Categories         []CategoryOverview `json:"categories"`
}

// CourseGroupOverview is the read-API projection of a course group.
type CourseGroupOverview struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	OverallGrade float64          `json:"overall_grade"`
	Trend        *float64         `json:"trend"`
	Courses      []CourseOverview `json:"courses"`
}

// GradeOverview is the full nested hierarchy for one user.
type GradeOverview struct {
	UserID       string                `json:"user_id"`
	CourseGroups []CourseGroupOverview `json:"course_groups"`
}
