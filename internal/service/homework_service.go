package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gradeloop/gradeloop-api/internal/models"
	appErrors "github.com/gradeloop/gradeloop-api/pkg/errors"
)

type homeworkRepo interface {
	Create(ctx context.Context, hw *models.Homework) error
	FindByID(ctx context.Context, id string) (*models.Homework, error)
	Update(ctx context.Context, hw *models.Homework) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, userID string, filter models.HomeworkFilter) ([]models.Homework, int, error)
}

type homeworkCategoryReader interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
	GetOrCreateDefault(ctx context.Context, courseID string) (*models.Category, error)
}

type homeworkCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type homeworkGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseGroup, error)
}

type homeworkRecalcHooks interface {
	OnHomeworkSaved(ctx context.Context, itemID string) error
	OnHomeworkDeleted(ctx context.Context, itemID, previousCategoryID string) error
	OnCategoryReassigned(ctx context.Context, itemID, oldCategoryID, newCategoryID string) error
}

// CreateHomeworkRequest is the payload for a new graded item.
type CreateHomeworkRequest struct {
	CourseID   string    `json:"course_id" validate:"required"`
	CategoryID string    `json:"category_id"`
	Title      string    `json:"title" validate:"required"`
	Grade      string    `json:"grade"`
	Completed  bool      `json:"completed"`
	StartAt    time.Time `json:"start_at" validate:"required"`
}

// UpdateHomeworkRequest is the payload for updating a graded item.
type UpdateHomeworkRequest struct {
	CategoryID string    `json:"category_id"`
	Title      string    `json:"title" validate:"required"`
	Grade      string    `json:"grade"`
	Completed  bool      `json:"completed"`
	StartAt    time.Time `json:"start_at" validate:"required"`
}

// HomeworkService orchestrates graded-item lifecycle and fires the
// recalculation hooks.
type HomeworkService struct {
	homeworks  homeworkRepo
	categories homeworkCategoryReader
	courses    homeworkCourseReader
	groups     homeworkGroupReader
	recalc     homeworkRecalcHooks
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewHomeworkService constructs a HomeworkService.
func NewHomeworkService(homeworks homeworkRepo, categories homeworkCategoryReader, courses homeworkCourseReader, groups homeworkGroupReader, recalc homeworkRecalcHooks, validate *validator.Validate, logger *zap.Logger) *HomeworkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HomeworkService{
		homeworks:  homeworks,
		categories: categories,
		courses:    courses,
		groups:     groups,
		recalc:     recalc,
		validator:  validate,
		logger:     logger,
	}
}

// Create inserts a graded item and enqueues the recompute of its category.
func (s *HomeworkService) Create(ctx context.Context, userID string, req CreateHomeworkRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
	}
	grade := req.Grade
	if grade == "" {
		grade = models.UngradedSentinel
	}
	if _, err := models.ParseGradeFraction(grade); err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, userID, req.CourseID)
	if err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, course.ID, req.CategoryID)
	if err != nil {
		return nil, err
	}
	hw := &models.Homework{
		UserID:     userID,
		CourseID:   course.ID,
		CategoryID: categoryID,
		Title:      req.Title,
		Grade:      grade,
		Completed:  req.Completed,
		StartAt:    req.StartAt.UTC(),
	}
	if err := s.homeworks.Create(ctx, hw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create homework")
	}
	if err := s.recalc.OnHomeworkSaved(ctx, hw.ID); err != nil {
		return nil, err
	}
	return hw, nil
}

// Update persists changes to a graded item. A category change recomputes the
// vacated category synchronously before this call returns; all other
// grade-affecting changes go through the asynchronous path.
func (s *HomeworkService) Update(ctx context.Context, userID, id string, req UpdateHomeworkRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
	}
	hw, err := s.ownedHomework(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	grade := req.Grade
	if grade == "" {
		grade = models.UngradedSentinel
	}
	if _, err := models.ParseGradeFraction(grade); err != nil {
		return nil, err
	}
	categoryID := hw.CategoryID
	if req.CategoryID != "" && req.CategoryID != hw.CategoryID {
		categoryID, err = s.resolveCategory(ctx, hw.CourseID, req.CategoryID)
		if err != nil {
			return nil, err
		}
	}

	previousCategoryID := hw.CategoryID
	gradeAffecting := grade != hw.Grade ||
		req.Completed != hw.Completed ||
		categoryID != hw.CategoryID ||
		!req.StartAt.UTC().Equal(hw.StartAt)

	hw.Title = req.Title
	hw.Grade = grade
	hw.Completed = req.Completed
	hw.CategoryID = categoryID
	hw.StartAt = req.StartAt.UTC()
	if err := s.homeworks.Update(ctx, hw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update homework")
	}

	if categoryID != previousCategoryID {
		if err := s.recalc.OnCategoryReassigned(ctx, hw.ID, previousCategoryID, categoryID); err != nil {
			return nil, err
		}
	}
	if gradeAffecting {
		if err := s.recalc.OnHomeworkSaved(ctx, hw.ID); err != nil {
			return nil, err
		}
	}
	return hw, nil
}

// Delete removes a graded item and enqueues the recompute of its category.
func (s *HomeworkService) Delete(ctx context.Context, userID, id string) error {
	hw, err := s.ownedHomework(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.homeworks.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete homework")
	}
	return s.recalc.OnHomeworkDeleted(ctx, id, hw.CategoryID)
}

// Get returns one owned graded item.
func (s *HomeworkService) Get(ctx context.Context, userID, id string) (*models.Homework, error) {
	return s.ownedHomework(ctx, userID, id)
}

// List returns a page of the user's homework.
func (s *HomeworkService) List(ctx context.Context, userID string, filter models.HomeworkFilter) ([]models.Homework, *models.Pagination, error) {
	items, total, err := s.homeworks.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list homework")
	}
	var pagination *models.Pagination
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		pagination = &models.Pagination{Page: page, PageSize: filter.PageSize, TotalCount: total}
	}
	return items, pagination, nil
}

func (s *HomeworkService) ownedHomework(ctx context.Context, userID, id string) (*models.Homework, error) {
	hw, err := s.homeworks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	if hw.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "homework belongs to another user")
	}
	return hw, nil
}

func (s *HomeworkService) ownedCourse(ctx context.Context, userID, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	group, err := s.groups.FindByID(ctx, course.CourseGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course group")
	}
	if group.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another user")
	}
	return course, nil
}

func (s *HomeworkService) resolveCategory(ctx context.Context, courseID, categoryID string) (string, error) {
	if categoryID == "" {
		category, err := s.categories.GetOrCreateDefault(ctx, courseID)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve default category")
		}
		return category.ID, nil
	}
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if category.CourseID != courseID {
		return "", appErrors.Clone(appErrors.ErrValidation, "category does not belong to the course")
	}
	return category.ID, nil
}
