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

const homeworkColumns = "id, user_id, course_id, category_id, title, grade, completed, start_at, created_at, updated_at"

// HomeworkRepository handles graded-item persistence.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository creates a new homework repository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

// Create inserts a homework row.
func (r *HomeworkRepository) Create(ctx context.Context, hw *models.Homework) error {
	if hw.ID == "" {
		hw.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	hw.CreatedAt = now
	hw.UpdatedAt = now
	const query = `INSERT INTO homeworks (id, user_id, course_id, category_id, title, grade, completed, start_at, created_at, updated_at)
        VALUES (:id, :user_id, :course_id, :category_id, :title, :grade, :completed, :start_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hw); err != nil {
		return fmt.Errorf("create homework: %w", err)
	}
	return nil
}

// FindByID returns one homework row.
func (r *HomeworkRepository) FindByID(ctx context.Context, id string) (*models.Homework, error) {
	var hw models.Homework
	query := fmt.Sprintf("SELECT %s FROM homeworks WHERE id = $1", homeworkColumns)
	if err := r.db.GetContext(ctx, &hw, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find homework: %w", err)
	}
	return &hw, nil
}

// Update persists grade-affecting and descriptive fields.
func (r *HomeworkRepository) Update(ctx context.Context, hw *models.Homework) error {
	hw.UpdatedAt = time.Now().UTC()
	const query = `UPDATE homeworks
        SET title = :title, grade = :grade, completed = :completed, category_id = :category_id, start_at = :start_at, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, hw); err != nil {
		return fmt.Errorf("update homework: %w", err)
	}
	return nil
}

// Delete removes a homework row.
func (r *HomeworkRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM homeworks WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete homework: %w", err)
	}
	return nil
}

// List returns a user's homework page plus the unpaged total.
func (r *HomeworkRepository) List(ctx context.Context, userID string, filter models.HomeworkFilter) ([]models.Homework, int, error) {
	where := "WHERE user_id = $1"
	args := []interface{}{userID}
	if filter.CourseID != "" {
		where += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, filter.CourseID)
	}
	if filter.CategoryID != "" {
		where += fmt.Sprintf(" AND category_id = $%d", len(args)+1)
		args = append(args, filter.CategoryID)
	}
	if filter.Completed != nil {
		where += fmt.Sprintf(" AND completed = $%d", len(args)+1)
		args = append(args, *filter.Completed)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM homeworks "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count homeworks: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM homeworks %s ORDER BY start_at", homeworkColumns, where)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	}

	var items []models.Homework
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list homeworks: %w", err)
	}
	return items, total, nil
}

// ListGradedByCategory returns the category's graded items ordered by start time.
func (r *HomeworkRepository) ListGradedByCategory(ctx context.Context, categoryID string) ([]models.Homework, error) {
	query := fmt.Sprintf(`SELECT %s FROM homeworks
        WHERE category_id = $1 AND completed = TRUE AND grade <> $2
        ORDER BY start_at`, homeworkColumns)
	var items []models.Homework
	if err := r.db.SelectContext(ctx, &items, query, categoryID, models.UngradedSentinel); err != nil {
		return nil, fmt.Errorf("list graded homeworks by category: %w", err)
	}
	return items, nil
}

// ListGradedByCourse returns the course's graded items across all categories,
// ordered by start time.
func (r *HomeworkRepository) ListGradedByCourse(ctx context.Context, courseID string) ([]models.Homework, error) {
	query := fmt.Sprintf(`SELECT %s FROM homeworks
        WHERE course_id = $1 AND completed = TRUE AND grade <> $2
        ORDER BY start_at`, homeworkColumns)
	var items []models.Homework
	if err := r.db.SelectContext(ctx, &items, query, courseID, models.UngradedSentinel); err != nil {
		return nil, fmt.Errorf("list graded homeworks by course: %w", err)
	}
	return items, nil
}

// ListGradedByCourseGroup returns graded items across all courses of a group,
// ordered by start time.
func (r *HomeworkRepository) ListGradedByCourseGroup(ctx context.Context, groupID string) ([]models.Homework, error) {
	const query = `SELECT h.id, h.user_id, h.course_id, h.category_id, h.title, h.grade, h.completed, h.start_at, h.created_at, h.updated_at
        FROM homeworks h
        JOIN courses c ON c.id = h.course_id
        WHERE c.course_group_id = $1 AND h.completed = TRUE AND h.grade <> $2
        ORDER BY h.start_at`
	var items []models.Homework
	if err := r.db.SelectContext(ctx, &items, query, groupID, models.UngradedSentinel); err != nil {
		return nil, fmt.Errorf("list graded homeworks by course group: %w", err)
	}
	return items, nil
}

// ListByCategory returns every item of a category regardless of grading state.
func (r *HomeworkRepository) ListByCategory(ctx context.Context, categoryID string) ([]models.Homework, error) {
	query := fmt.Sprintf("SELECT %s FROM homeworks WHERE category_id = $1 ORDER BY start_at", homeworkColumns)
	var items []models.Homework
	if err := r.db.SelectContext(ctx, &items, query, categoryID); err != nil {
		return nil, fmt.Errorf("list homeworks by category: %w", err)
	}
	return items, nil
}

// ReassignCategory moves one item to another category.
func (r *HomeworkRepository) ReassignCategory(ctx context.Context, itemID, categoryID string) error {
	const query = "UPDATE homeworks SET category_id = $1, updated_at = $2 WHERE id = $3"
	if _, err := r.db.ExecContext(ctx, query, categoryID, time.Now().UTC(), itemID); err != nil {
		return fmt.Errorf("reassign homework category: %w", err)
	}
	return nil
}
