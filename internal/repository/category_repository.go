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

const categoryColumns = "id, course_id, title, weight, average_grade, grade_by_weight, trend, num_graded, created_at, updated_at"

// CategoryRepository handles category persistence.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category row.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	// derived fields start empty until the first recompute
	category.AverageGrade = -1
	category.GradeByWeight = 0
	category.Trend = nil
	category.NumGraded = 0
	const query = `INSERT INTO categories (id, course_id, title, weight, average_grade, grade_by_weight, trend, num_graded, created_at, updated_at)
        VALUES (:id, :course_id, :title, :weight, :average_grade, :grade_by_weight, :trend, :num_graded, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// FindByID returns one category row.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	query := fmt.Sprintf("SELECT %s FROM categories WHERE id = $1", categoryColumns)
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &category, nil
}

// ListByCourse returns all categories of one course.
func (r *CategoryRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Category, error) {
	query := fmt.Sprintf("SELECT %s FROM categories WHERE course_id = $1 ORDER BY created_at", categoryColumns)
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, courseID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Update persists title and weight.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET title = :title, weight = :weight, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// UpdateStats persists the derived aggregation fields.
func (r *CategoryRepository) UpdateStats(ctx context.Context, id string, averageGrade, gradeByWeight float64, trend *float64, numGraded int) error {
	const query = `UPDATE categories
        SET average_grade = $1, grade_by_weight = $2, trend = $3, num_graded = $4, updated_at = $5
        WHERE id = $6`
	if _, err := r.db.ExecContext(ctx, query, averageGrade, gradeByWeight, trend, numGraded, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update category stats: %w", err)
	}
	return nil
}

// Delete removes a category row.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// GetOrCreateDefault returns the course's "Uncategorized" category, creating
// it with weight 0 on first use. The (course_id, title) uniqueness constraint
// makes concurrent first-use triggers converge on a single row.
func (r *CategoryRepository) GetOrCreateDefault(ctx context.Context, courseID string) (*models.Category, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO categories (id, course_id, title, weight, average_grade, grade_by_weight, trend, num_graded, created_at, updated_at)
        VALUES ($1, $2, $3, 0, -1, 0, NULL, 0, $4, $4)
        ON CONFLICT (course_id, title) DO UPDATE SET updated_at = categories.updated_at
        RETURNING %s`, categoryColumns)
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, uuid.NewString(), courseID, models.DefaultCategoryTitle, now); err != nil {
		return nil, fmt.Errorf("get or create default category: %w", err)
	}
	return &category, nil
}
