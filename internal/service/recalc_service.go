package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gradeloop/gradeloop-api/internal/models"
	appErrors "github.com/gradeloop/gradeloop-api/pkg/errors"
	"github.com/gradeloop/gradeloop-api/pkg/jobs"
)

// JobTypeRecalcCategory is the queue message type carrying a category ID.
const JobTypeRecalcCategory = "recalc_category"

type recalcHomeworkRepo interface {
	FindByID(ctx context.Context, id string) (*models.Homework, error)
	ListGradedByCategory(ctx context.Context, categoryID string) ([]models.Homework, error)
	ListGradedByCourse(ctx context.Context, courseID string) ([]models.Homework, error)
	ListGradedByCourseGroup(ctx context.Context, groupID string) ([]models.Homework, error)
	ListByCategory(ctx context.Context, categoryID string) ([]models.Homework, error)
	ReassignCategory(ctx context.Context, itemID, categoryID string) error
}

type recalcCategoryRepo interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Category, error)
	UpdateStats(ctx context.Context, id string, averageGrade, gradeByWeight float64, trend *float64, numGraded int) error
	GetOrCreateDefault(ctx context.Context, courseID string) (*models.Category, error)
	Delete(ctx context.Context, id string) error
}

type recalcCourseRepo interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Course, error)
	UpdateStats(ctx context.Context, id string, currentGrade float64, trend *float64, hasWeightedGrading bool, points models.GradePoints) error
}

type recalcCourseGroupRepo interface {
	FindByID(ctx context.Context, id string) (*models.CourseGroup, error)
	UpdateStats(ctx context.Context, id string, averageGrade float64, trend *float64) error
}

type recalcQueue interface {
	Enqueue(job jobs.Job) error
}

// RecalcService drives the bottom-up recomputation cascade
// (category → course → course group) after graded-item mutations.
//
// Ordinary create/update/delete lifecycle events enqueue an asynchronous
// recompute with at-least-once delivery; category reassignment and category
// deletion run the same cascade synchronously so the vacated category never
// shows a stale grade to the caller. Both paths funnel into
// RecomputeCategoryCascade, which re-derives every level entirely from
// current child state and is therefore idempotent under duplicate or
// reordered deliveries.
type RecalcService struct {
	homeworks  recalcHomeworkRepo
	categories recalcCategoryRepo
	courses    recalcCourseRepo
	groups     recalcCourseGroupRepo
	queue      recalcQueue
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewRecalcService constructs a RecalcService.
func NewRecalcService(homeworks recalcHomeworkRepo, categories recalcCategoryRepo, courses recalcCourseRepo, groups recalcCourseGroupRepo, queue recalcQueue, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *RecalcService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecalcService{
		homeworks:  homeworks,
		categories: categories,
		courses:    courses,
		groups:     groups,
		queue:      queue,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

// SetQueue attaches the job queue after construction. The queue consumer is
// HandleJob, so the service has to exist before the queue does.
func (s *RecalcService) SetQueue(queue recalcQueue) {
	s.queue = queue
}

// OnHomeworkSaved enqueues a recompute of the item's current category after a
// create or an update that changed grade, completion or category.
func (s *RecalcService) OnHomeworkSaved(ctx context.Context, itemID string) error {
	hw, err := s.homeworks.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// deleted between save and hook; the delete hook covers it
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load saved homework")
	}
	return s.EnqueueCategory(hw.CategoryID)
}

// OnHomeworkDeleted enqueues a recompute of the category the item belonged to.
func (s *RecalcService) OnHomeworkDeleted(ctx context.Context, itemID, previousCategoryID string) error {
	if previousCategoryID == "" {
		return nil
	}
	return s.EnqueueCategory(previousCategoryID)
}

// OnCategoryReassigned recomputes the vacated category synchronously, before
// the triggering request returns. The destination category is picked up by
// the item's ordinary save hook through the asynchronous path.
func (s *RecalcService) OnCategoryReassigned(ctx context.Context, itemID, oldCategoryID, newCategoryID string) error {
	if oldCategoryID == "" || oldCategoryID == newCategoryID {
		return nil
	}
	return s.RecomputeCategoryCascade(ctx, oldCategoryID)
}

// OnCategoryDeleted moves every item of the category to the course's
// "Uncategorized" category (created lazily), removes the category row, and
// recomputes the default category synchronously. Each reassigned item also
// re-enters the standard save path so the asynchronous recompute backstops
// the synchronous one.
func (s *RecalcService) OnCategoryDeleted(ctx context.Context, categoryID string) error {
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	fallback, err := s.categories.GetOrCreateDefault(ctx, category.CourseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve default category")
	}
	if fallback.ID == categoryID {
		return appErrors.Clone(appErrors.ErrValidation, "default category cannot be deleted")
	}

	items, err := s.homeworks.ListByCategory(ctx, categoryID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list category items")
	}
	for _, item := range items {
		if err := s.homeworks.ReassignCategory(ctx, item.ID, fallback.ID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign item")
		}
		if err := s.OnHomeworkSaved(ctx, item.ID); err != nil {
			s.logger.Warn("failed to enqueue recompute for reassigned item", zap.String("item_id", item.ID), zap.Error(err))
		}
	}

	if err := s.categories.Delete(ctx, categoryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}

	// the structural weight sum of the course changed, surface it immediately
	return s.RecomputeCategoryCascade(ctx, fallback.ID)
}

// EnqueueCategory dispatches an asynchronous recompute message for a category.
func (s *RecalcService) EnqueueCategory(categoryID string) error {
	if s.queue == nil {
		return nil
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeRecalcCategory,
		Payload: categoryID,
	}
	if err := s.queue.Enqueue(job); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue recompute")
	}
	return nil
}

// HandleJob is the queue consumer entry point.
func (s *RecalcService) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeRecalcCategory {
		s.logger.Warn("unknown job type", zap.String("type", job.Type))
		return nil
	}
	categoryID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("recalc job %s: payload is not a category id", job.ID)
	}
	return s.RecomputeCategoryCascade(ctx, categoryID)
}

// RecomputeCategoryCascade recomputes one category, then its owning course,
// then the owning course group. Every stage re-reads its children from the
// persistence layer rather than adjusting values incrementally, which keeps
// the cascade idempotent under at-least-once delivery. A missing aggregate at
// any stage is a no-op, not an error; that is expected when entities are
// deleted between enqueue and processing.
func (s *RecalcService) RecomputeCategoryCascade(ctx context.Context, categoryID string) error {
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("category vanished before recompute", zap.String("category_id", categoryID))
			return nil
		}
		return fmt.Errorf("load category %s: %w", categoryID, err)
	}

	if err := s.recomputeCategory(ctx, category); err != nil {
		return err
	}

	course, err := s.courses.FindByID(ctx, category.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load course %s: %w", category.CourseID, err)
	}

	if err := s.recomputeCourse(ctx, course); err != nil {
		return err
	}

	group, err := s.groups.FindByID(ctx, course.CourseGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load course group %s: %w", course.CourseGroupID, err)
	}

	if err := s.recomputeCourseGroup(ctx, group); err != nil {
		return err
	}

	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, overviewCacheKey(group.UserID)); err != nil {
			s.logger.Warn("failed to invalidate overview cache", zap.String("user_id", group.UserID), zap.Error(err))
		}
	}
	return nil
}

func (s *RecalcService) recomputeCategory(ctx context.Context, category *models.Category) error {
	start := time.Now()
	items, err := s.homeworks.ListGradedByCategory(ctx, category.ID)
	if err != nil {
		return fmt.Errorf("load graded items of category %s: %w", category.ID, err)
	}
	stats, err := AggregateCategory(category.Weight, items)
	if err != nil {
		return err
	}
	trend, err := Trend(items)
	if err != nil {
		return err
	}
	if err := s.categories.UpdateStats(ctx, category.ID, stats.AverageGrade, stats.GradeByWeight, trend, stats.NumGraded); err != nil {
		return fmt.Errorf("persist category stats %s: %w", category.ID, err)
	}
	if s.metrics != nil {
		s.metrics.ObserveRecalc("category", time.Since(start))
	}
	return nil
}

func (s *RecalcService) recomputeCourse(ctx context.Context, course *models.Course) error {
	start := time.Now()
	categories, err := s.categories.ListByCourse(ctx, course.ID)
	if err != nil {
		return fmt.Errorf("load categories of course %s: %w", course.ID, err)
	}
	items, err := s.homeworks.ListGradedByCourse(ctx, course.ID)
	if err != nil {
		return fmt.Errorf("load graded items of course %s: %w", course.ID, err)
	}
	stats, err := AggregateCourse(categories, items)
	if err != nil {
		return err
	}
	trend, err := Trend(items)
	if err != nil {
		return err
	}
	points, err := BuildGradePoints(items)
	if err != nil {
		return err
	}
	if err := s.courses.UpdateStats(ctx, course.ID, stats.CurrentGrade, trend, stats.HasWeightedGrading, points); err != nil {
		return fmt.Errorf("persist course stats %s: %w", course.ID, err)
	}
	if s.metrics != nil {
		s.metrics.ObserveRecalc("course", time.Since(start))
	}
	return nil
}

func (s *RecalcService) recomputeCourseGroup(ctx context.Context, group *models.CourseGroup) error {
	start := time.Now()
	courses, err := s.courses.ListByGroup(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("load courses of group %s: %w", group.ID, err)
	}
	items, err := s.homeworks.ListGradedByCourseGroup(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("load graded items of group %s: %w", group.ID, err)
	}
	average := AggregateCourseGroup(courses)
	trend, err := Trend(items)
	if err != nil {
		return err
	}
	if err := s.groups.UpdateStats(ctx, group.ID, average, trend); err != nil {
		return fmt.Errorf("persist course group stats %s: %w", group.ID, err)
	}
	if s.metrics != nil {
		s.metrics.ObserveRecalc("course_group", time.Since(start))
	}
	return nil
}

func overviewCacheKey(userID string) string {
	return "overview:user:" + userID
}
