package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/gradeloop/gradeloop-api/internal/models"
	appErrors "github.com/gradeloop/gradeloop-api/pkg/errors"
)

type overviewGroupReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.CourseGroup, error)
}

type overviewCourseReader interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.Course, error)
}

type overviewCategoryReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Category, error)
}

// OverviewService assembles the nested grade hierarchy consumed by the
// presentation layer. All numeric fields are rounded to 4 fractional digits.
type OverviewService struct {
	groups     overviewGroupReader
	courses    overviewCourseReader
	categories overviewCategoryReader
	cache      *CacheService
	logger     *zap.Logger
}

// NewOverviewService constructs an OverviewService.
func NewOverviewService(groups overviewGroupReader, courses overviewCourseReader, categories overviewCategoryReader, cache *CacheService, logger *zap.Logger) *OverviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverviewService{groups: groups, courses: courses, categories: categories, cache: cache, logger: logger}
}

// GradeData returns the user's full hierarchy with derived statistics.
// Values read here may be stale while an asynchronous recompute is in
// flight; the recompute invalidates the cache when it settles.
func (s *OverviewService) GradeData(ctx context.Context, userID string) (*models.GradeOverview, error) {
	key := overviewCacheKey(userID)
	if s.cache.Enabled() {
		var cached models.GradeOverview
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	groups, err := s.groups.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course groups")
	}

	overview := &models.GradeOverview{UserID: userID, CourseGroups: make([]models.CourseGroupOverview, 0, len(groups))}
	for _, group := range groups {
		groupOverview := models.CourseGroupOverview{
			ID:           group.ID,
			Title:        group.Title,
			OverallGrade: round4(group.AverageGrade),
			Trend:        roundPtr4(group.Trend),
		}
		courses, err := s.courses.ListByGroup(ctx, group.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		groupOverview.Courses = make([]models.CourseOverview, 0, len(courses))
		for _, course := range courses {
			courseOverview := models.CourseOverview{
				ID:                 course.ID,
				Title:              course.Title,
				OverallGrade:       round4(course.CurrentGrade),
				Trend:              roundPtr4(course.Trend),
				HasWeightedGrading: course.HasWeightedGrading,
				GradePoints:        roundGradePoints(course.GradePoints),
			}
			categories, err := s.categories.ListByCourse(ctx, course.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
			}
			courseOverview.Categories = make([]models.CategoryOverview, 0, len(categories))
			for _, category := range categories {
				courseOverview.Categories = append(courseOverview.Categories, models.CategoryOverview{
					ID:            category.ID,
					Title:         category.Title,
					OverallGrade:  round4(category.AverageGrade),
					Weight:        category.Weight,
					GradeByWeight: round4(category.GradeByWeight),
					Trend:         roundPtr4(category.Trend),
					NumGraded:     category.NumGraded,
				})
			}
			groupOverview.Courses = append(groupOverview.Courses, courseOverview)
		}
		overview.CourseGroups = append(overview.CourseGroups, groupOverview)
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, overview, 0); err != nil {
			s.logger.Warn("failed to cache overview", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return overview, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func roundPtr4(v *float64) *float64 {
	if v == nil {
		return nil
	}
	rounded := round4(*v)
	return &rounded
}

func roundGradePoints(points models.GradePoints) models.GradePoints {
	if len(points) == 0 {
		return models.GradePoints{}
	}
	rounded := make(models.GradePoints, 0, len(points))
	for _, point := range points {
		rounded = append(rounded, models.GradePoint{Time: point.Time, Value: round4(point.Value)})
	}
	return rounded
}
