package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gradeloop/gradeloop-api/internal/models"
	appErrors "github.com/gradeloop/gradeloop-api/pkg/errors"
)

type categoryRepo interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id string) (*models.Category, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
}

type categoryCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type categoryGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseGroup, error)
}

type categoryRecalcHooks interface {
	OnCategoryDeleted(ctx context.Context, categoryID string) error
	EnqueueCategory(categoryID string) error
}

// CreateCategoryRequest is the payload for a new category.
type CreateCategoryRequest struct {
	CourseID string  `json:"course_id" validate:"required"`
	Title    string  `json:"title" validate:"required"`
	Weight   float64 `json:"weight" validate:"gte=0,lte=100"`
}

// UpdateCategoryRequest is the payload for updating a category.
type UpdateCategoryRequest struct {
	Title  string  `json:"title" validate:"required"`
	Weight float64 `json:"weight" validate:"gte=0,lte=100"`
}

// CategoryService orchestrates category lifecycle. Weight changes alter the
// structural weighted/pooled decision of the owning course, so every mutation
// re-enters the recalculation pipeline.
type CategoryService struct {
	categories categoryRepo
	courses    categoryCourseReader
	groups     categoryGroupReader
	recalc     categoryRecalcHooks
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(categories categoryRepo, courses categoryCourseReader, groups categoryGroupReader, recalc categoryRecalcHooks, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		categories: categories,
		courses:    courses,
		groups:     groups,
		recalc:     recalc,
		validator:  validate,
		logger:     logger,
	}
}

// Create inserts a category into an owned course.
func (s *CategoryService) Create(ctx context.Context, userID string, req CreateCategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	course, err := s.ownedCourse(ctx, userID, req.CourseID)
	if err != nil {
		return nil, err
	}
	category := &models.Category{
		CourseID: course.ID,
		Title:    req.Title,
		Weight:   req.Weight,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	// a new weight can flip the course in or out of weighted mode
	if err := s.recalc.EnqueueCategory(category.ID); err != nil {
		return nil, err
	}
	return category, nil
}

// Update persists title and weight of an owned category.
func (s *CategoryService) Update(ctx context.Context, userID, id string, req UpdateCategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	category, err := s.ownedCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	weightChanged := category.Weight != req.Weight
	category.Title = req.Title
	category.Weight = req.Weight
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	if weightChanged {
		if err := s.recalc.EnqueueCategory(category.ID); err != nil {
			return nil, err
		}
	}
	return category, nil
}

// Delete removes an owned category. Its items are reassigned to the course's
// "Uncategorized" category before the row disappears.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.ownedCategory(ctx, userID, id); err != nil {
		return err
	}
	return s.recalc.OnCategoryDeleted(ctx, id)
}

// ListByCourse returns the categories of an owned course.
func (s *CategoryService) ListByCourse(ctx context.Context, userID, courseID string) ([]models.Category, error) {
	if _, err := s.ownedCourse(ctx, userID, courseID); err != nil {
		return nil, err
	}
	categories, err := s.categories.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

func (s *CategoryService) ownedCategory(ctx context.Context, userID, id string) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if _, err := s.ownedCourse(ctx, userID, category.CourseID); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) ownedCourse(ctx context.Context, userID, courseID string) (*models.Course, error) {
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
