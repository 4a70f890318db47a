package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gradeloop/gradeloop-api/internal/models"
)

const courseColumns = "id, course_group_id, title, current_grade, trend, has_weighted_grading, grade_points, created_at, updated_at"

// CourseRepository handles course persistence.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a course row.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	course.CurrentGrade = -1
	course.Trend = nil
	course.HasWeightedGrading = false
	course.GradePoints = models.GradePoints{}
	const query = `INSERT INTO courses (id, course_group_id, title, current_grade, trend, has_weighted_grading, grade_points, created_at, updated_at)
        VALUES (:id, :course_group_id, :title, :current_grade, :trend, :has_weighted_grading, :grade_points, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID returns one course row.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// ListByGroup returns all courses of one course group.
func (r *CourseRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE course_group_id = $1 ORDER BY created_at", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, groupID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// UpdateStats persists the derived aggregation fields.
func (r *CourseRepository) UpdateStats(ctx context.Context, id string, currentGrade float64, trend *float64, hasWeightedGrading bool, points models.GradePoints) error {
	const query = `UPDATE courses
        SET current_grade = $1, trend = $2, has_weighted_grading = $3, grade_points = $4, updated_at = $5
        WHERE id = $6`
	if _, err := r.db.ExecContext(ctx, query, currentGrade, trend, hasWeightedGrading, points, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update course stats: %w", err)
	}
	return nil
}

// Delete removes a course row.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
