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

const courseGroupColumns = "id, user_id, title, average_grade, trend, created_at, updated_at"

// CourseGroupRepository handles course-group persistence.
type CourseGroupRepository struct {
	db *sqlx.DB
}

// NewCourseGroupRepository creates a new course-group repository.
func NewCourseGroupRepository(db *sqlx.DB) *CourseGroupRepository {
	return &CourseGroupRepository{db: db}
}

// Create inserts a course-group row.
func (r *CourseGroupRepository) Create(ctx context.Context, group *models.CourseGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	group.AverageGrade = -1
	group.Trend = nil
	const query = `INSERT INTO course_groups (id, user_id, title, average_grade, trend, created_at, updated_at)
        VALUES (:id, :user_id, :title, :average_grade, :trend, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create course group: %w", err)
	}
	return nil
}

// FindByID returns one course-group row.
func (r *CourseGroupRepository) FindByID(ctx context.Context, id string) (*models.CourseGroup, error) {
	var group models.CourseGroup
	query := fmt.Sprintf("SELECT %s FROM course_groups WHERE id = $1", courseGroupColumns)
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find course group: %w", err)
	}
	return &group, nil
}

// ListByUser returns a user's course groups.
func (r *CourseGroupRepository) ListByUser(ctx context.Context, userID string) ([]models.CourseGroup, error) {
	query := fmt.Sprintf("SELECT %s FROM course_groups WHERE user_id = $1 ORDER BY created_at", courseGroupColumns)
	var groups []models.CourseGroup
	if err := r.db.SelectContext(ctx, &groups, query, userID); err != nil {
		return nil, fmt.Errorf("list course groups: %w", err)
	}
	return groups, nil
}

// UpdateStats persists the derived aggregation fields.
func (r *CourseGroupRepository) UpdateStats(ctx context.Context, id string, averageGrade float64, trend *float64) error {
	const query = `UPDATE course_groups SET average_grade = $1, trend = $2, updated_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, averageGrade, trend, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update course group stats: %w", err)
	}
	return nil
}

// Delete removes a course-group row.
func (r *CourseGroupRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM course_groups WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete course group: %w", err)
	}
	return nil
}
