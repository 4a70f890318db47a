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

type courseRepo interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Course, error)
	Delete(ctx context.Context, id string) error
}

type courseGroupRepo interface {
	Create(ctx context.Context, group *models.CourseGroup) error
	FindByID(ctx context.Context, id string) (*models.CourseGroup, error)
	ListByUser(ctx context.Context, userID string) ([]models.CourseGroup, error)
	Delete(ctx context.Context, id string) error
}

// CreateCourseRequest is the payload for a new course.
type CreateCourseRequest struct {
	CourseGroupID string `json:"course_group_id" validate:"required"`
	Title         string `json:"title" validate:"required"`
}

// CreateCourseGroupRequest is the payload for a new course group.
type CreateCourseGroupRequest struct {
	Title string `json:"title" validate:"required"`
}

// CourseService manages courses and course groups, the aggregate roots the
// recalculation engine reads but never creates.
type CourseService struct {
	courses   courseRepo
	groups    courseGroupRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(courses courseRepo, groups courseGroupRepo, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, groups: groups, validator: validate, logger: logger}
}

// CreateGroup inserts a course group for the user.
func (s *CourseService) CreateGroup(ctx context.Context, userID string, req CreateCourseGroupRequest) (*models.CourseGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course group payload")
	}
	group := &models.CourseGroup{UserID: userID, Title: req.Title}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course group")
	}
	return group, nil
}

// ListGroups returns the user's course groups.
func (s *CourseService) ListGroups(ctx context.Context, userID string) ([]models.CourseGroup, error) {
	groups, err := s.groups.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course groups")
	}
	return groups, nil
}

// DeleteGroup removes an owned course group.
func (s *CourseService) DeleteGroup(ctx context.Context, userID, id string) error {
	if _, err := s.ownedGroup(ctx, userID, id); err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course group")
	}
	return nil
}

// Create inserts a course into an owned group.
func (s *CourseService) Create(ctx context.Context, userID string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	group, err := s.ownedGroup(ctx, userID, req.CourseGroupID)
	if err != nil {
		return nil, err
	}
	course := &models.Course{CourseGroupID: group.ID, Title: req.Title}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// ListByGroup returns the courses of an owned group.
func (s *CourseService) ListByGroup(ctx context.Context, userID, groupID string) ([]models.Course, error) {
	if _, err := s.ownedGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}
	courses, err := s.courses.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns one owned course.
func (s *CourseService) Get(ctx context.Context, userID, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.ownedGroup(ctx, userID, course.CourseGroupID); err != nil {
		return nil, err
	}
	return course, nil
}

// Delete removes an owned course.
func (s *CourseService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

func (s *CourseService) ownedGroup(ctx context.Context, userID, groupID string) (*models.CourseGroup, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course group")
	}
	if group.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course group belongs to another user")
	}
	return group, nil
}
