package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradeloop/gradeloop-api/internal/models"
	"github.com/gradeloop/gradeloop-api/pkg/jobs"
)

type fakeRecalcHomeworks struct {
	byID             map[string]*models.Homework
	gradedByCategory map[string][]models.Homework
	gradedByCourse   map[string][]models.Homework
	gradedByGroup    map[string][]models.Homework
	byCategory       map[string][]models.Homework
	reassigned       map[string]string
}

func (f *fakeRecalcHomeworks) FindByID(_ context.Context, id string) (*models.Homework, error) {
	hw, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return hw, nil
}

func (f *fakeRecalcHomeworks) ListGradedByCategory(_ context.Context, categoryID string) ([]models.Homework, error) {
	return f.gradedByCategory[categoryID], nil
}

func (f *fakeRecalcHomeworks) ListGradedByCourse(_ context.Context, courseID string) ([]models.Homework, error) {
	return f.gradedByCourse[courseID], nil
}

func (f *fakeRecalcHomeworks) ListGradedByCourseGroup(_ context.Context, groupID string) ([]models.Homework, error) {
	return f.gradedByGroup[groupID], nil
}

func (f *fakeRecalcHomeworks) ListByCategory(_ context.Context, categoryID string) ([]models.Homework, error) {
	return f.byCategory[categoryID], nil
}

func (f *fakeRecalcHomeworks) ReassignCategory(_ context.Context, itemID, categoryID string) error {
	if f.reassigned == nil {
		f.reassigned = map[string]string{}
	}
	f.reassigned[itemID] = categoryID
	return nil
}

type categoryStatsUpdate struct {
	averageGrade  float64
	gradeByWeight float64
	trend         *float64
	numGraded     int
}

type fakeRecalcCategories struct {
	byID     map[string]*models.Category
	byCourse map[string][]models.Category
	fallback *models.Category
	updates  map[string]categoryStatsUpdate
	deleted  []string
}

func (f *fakeRecalcCategories) FindByID(_ context.Context, id string) (*models.Category, error) {
	category, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return category, nil
}

func (f *fakeRecalcCategories) ListByCourse(_ context.Context, courseID string) ([]models.Category, error) {
	return f.byCourse[courseID], nil
}

func (f *fakeRecalcCategories) UpdateStats(_ context.Context, id string, averageGrade, gradeByWeight float64, trend *float64, numGraded int) error {
	if f.updates == nil {
		f.updates = map[string]categoryStatsUpdate{}
	}
	f.updates[id] = categoryStatsUpdate{averageGrade, gradeByWeight, trend, numGraded}
	return nil
}

func (f *fakeRecalcCategories) GetOrCreateDefault(_ context.Context, _ string) (*models.Category, error) {
	return f.fallback, nil
}

func (f *fakeRecalcCategories) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}

type courseStatsUpdate struct {
	currentGrade       float64
	trend              *float64
	hasWeightedGrading bool
	points             models.GradePoints
}

type fakeRecalcCourses struct {
	byID    map[string]*models.Course
	byGroup map[string][]models.Course
	updates map[string]courseStatsUpdate
}

func (f *fakeRecalcCourses) FindByID(_ context.Context, id string) (*models.Course, error) {
	course, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return course, nil
}

func (f *fakeRecalcCourses) ListByGroup(_ context.Context, groupID string) ([]models.Course, error) {
	return f.byGroup[groupID], nil
}

func (f *fakeRecalcCourses) UpdateStats(_ context.Context, id string, currentGrade float64, trend *float64, hasWeightedGrading bool, points models.GradePoints) error {
	if f.updates == nil {
		f.updates = map[string]courseStatsUpdate{}
	}
	f.updates[id] = courseStatsUpdate{currentGrade, trend, hasWeightedGrading, points}
	return nil
}

type groupStatsUpdate struct {
	averageGrade float64
	trend        *float64
}

type fakeRecalcGroups struct {
	byID    map[string]*models.CourseGroup
	updates map[string]groupStatsUpdate
}

func (f *fakeRecalcGroups) FindByID(_ context.Context, id string) (*models.CourseGroup, error) {
	group, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return group, nil
}

func (f *fakeRecalcGroups) UpdateStats(_ context.Context, id string, averageGrade float64, trend *float64) error {
	if f.updates == nil {
		f.updates = map[string]groupStatsUpdate{}
	}
	f.updates[id] = groupStatsUpdate{averageGrade, trend}
	return nil
}

type fakeRecalcQueue struct {
	jobs []jobs.Job
	err  error
}

func (f *fakeRecalcQueue) Enqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func newCascadeFixture() (*fakeRecalcHomeworks, *fakeRecalcCategories, *fakeRecalcCourses, *fakeRecalcGroups) {
	items := []models.Homework{hwAt("8/10", 8), hwAt("9/10", 9)}
	homeworks := &fakeRecalcHomeworks{
		gradedByCategory: map[string][]models.Homework{"cat-1": items},
		gradedByCourse:   map[string][]models.Homework{"course-1": items},
		gradedByGroup:    map[string][]models.Homework{"group-1": items},
	}
	categories := &fakeRecalcCategories{
		byID: map[string]*models.Category{
			"cat-1": {ID: "cat-1", CourseID: "course-1", Title: "Exams", Weight: 100},
		},
		byCourse: map[string][]models.Category{
			"course-1": {{ID: "cat-1", CourseID: "course-1", Weight: 100, GradeByWeight: 85, NumGraded: 2}},
		},
	}
	courses := &fakeRecalcCourses{
		byID: map[string]*models.Course{
			"course-1": {ID: "course-1", CourseGroupID: "group-1", Title: "Math"},
		},
		byGroup: map[string][]models.Course{
			"group-1": {{ID: "course-1", CurrentGrade: 85}},
		},
	}
	groups := &fakeRecalcGroups{
		byID: map[string]*models.CourseGroup{
			"group-1": {ID: "group-1", UserID: "user-1", Title: "Semester 1"},
		},
	}
	return homeworks, categories, courses, groups
}

func TestOnHomeworkSavedEnqueuesCategory(t *testing.T) {
	homeworks := &fakeRecalcHomeworks{
		byID: map[string]*models.Homework{"hw-1": {ID: "hw-1", CategoryID: "cat-1"}},
	}
	queue := &fakeRecalcQueue{}
	svc := NewRecalcService(homeworks, &fakeRecalcCategories{}, &fakeRecalcCourses{}, &fakeRecalcGroups{}, queue, nil, nil, nil)

	require.NoError(t, svc.OnHomeworkSaved(context.Background(), "hw-1"))

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeRecalcCategory, queue.jobs[0].Type)
	assert.Equal(t, "cat-1", queue.jobs[0].Payload)
	assert.NotEmpty(t, queue.jobs[0].ID)
}

func TestOnHomeworkSavedMissingItemIsNoop(t *testing.T) {
	queue := &fakeRecalcQueue{}
	svc := NewRecalcService(&fakeRecalcHomeworks{}, &fakeRecalcCategories{}, &fakeRecalcCourses{}, &fakeRecalcGroups{}, queue, nil, nil, nil)

	require.NoError(t, svc.OnHomeworkSaved(context.Background(), "gone"))
	assert.Empty(t, queue.jobs)
}

func TestOnHomeworkDeletedEnqueuesPreviousCategory(t *testing.T) {
	queue := &fakeRecalcQueue{}
	svc := NewRecalcService(&fakeRecalcHomeworks{}, &fakeRecalcCategories{}, &fakeRecalcCourses{}, &fakeRecalcGroups{}, queue, nil, nil, nil)

	require.NoError(t, svc.OnHomeworkDeleted(context.Background(), "hw-1", "cat-1"))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "cat-1", queue.jobs[0].Payload)

	require.NoError(t, svc.OnHomeworkDeleted(context.Background(), "hw-2", ""))
	assert.Len(t, queue.jobs, 1)
}

func TestHandleJobRunsFullCascade(t *testing.T) {
	homeworks, categories, courses, groups := newCascadeFixture()
	svc := NewRecalcService(homeworks, categories, courses, groups, nil, nil, nil, nil)

	job := jobs.Job{ID: "job-1", Type: JobTypeRecalcCategory, Payload: "cat-1"}
	require.NoError(t, svc.HandleJob(context.Background(), job))

	catUpdate, ok := categories.updates["cat-1"]
	require.True(t, ok)
	assert.InDelta(t, 85, catUpdate.averageGrade, 1e-9)
	assert.InDelta(t, 85, catUpdate.gradeByWeight, 1e-9)
	assert.Equal(t, 2, catUpdate.numGraded)
	require.NotNil(t, catUpdate.trend)
	assert.InDelta(t, 1.0, *catUpdate.trend, 1e-9)

	courseUpdate, ok := courses.updates["course-1"]
	require.True(t, ok)
	assert.True(t, courseUpdate.hasWeightedGrading)
	assert.InDelta(t, 85, courseUpdate.currentGrade, 1e-9)
	assert.Len(t, courseUpdate.points, 2)

	groupUpdate, ok := groups.updates["group-1"]
	require.True(t, ok)
	assert.InDelta(t, 85, groupUpdate.averageGrade, 1e-9)
}

func TestHandleJobUnknownTypeIgnored(t *testing.T) {
	categories := &fakeRecalcCategories{}
	svc := NewRecalcService(&fakeRecalcHomeworks{}, categories, &fakeRecalcCourses{}, &fakeRecalcGroups{}, nil, nil, nil, nil)

	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{Type: "something_else"}))
	assert.Empty(t, categories.updates)
}

func TestHandleJobBadPayload(t *testing.T) {
	svc := NewRecalcService(&fakeRecalcHomeworks{}, &fakeRecalcCategories{}, &fakeRecalcCourses{}, &fakeRecalcGroups{}, nil, nil, nil, nil)

	err := svc.HandleJob(context.Background(), jobs.Job{ID: "job-1", Type: JobTypeRecalcCategory, Payload: 42})
	require.Error(t, err)
}

func TestRecomputeCascadeEmptiedCategory(t *testing.T) {
	homeworks, categories, courses, groups := newCascadeFixture()
	// every graded item has been removed from the category
	homeworks.gradedByCategory = nil
	homeworks.gradedByCourse = nil
	homeworks.gradedByGroup = nil
	categories.byCourse["course-1"] = []models.Category{
		{ID: "cat-1", CourseID: "course-1", Weight: 100, GradeByWeight: 0, NumGraded: 0},
	}
	courses.byGroup["group-1"] = []models.Course{{ID: "course-1", CurrentGrade: -1}}

	svc := NewRecalcService(homeworks, categories, courses, groups, nil, nil, nil, nil)
	require.NoError(t, svc.RecomputeCategoryCascade(context.Background(), "cat-1"))

	catUpdate := categories.updates["cat-1"]
	assert.Equal(t, -1.0, catUpdate.averageGrade)
	assert.Equal(t, 0.0, catUpdate.gradeByWeight)
	assert.Equal(t, 0, catUpdate.numGraded)
	assert.Nil(t, catUpdate.trend)

	courseUpdate := courses.updates["course-1"]
	assert.Equal(t, -1.0, courseUpdate.currentGrade)
	assert.Empty(t, courseUpdate.points)

	groupUpdate := groups.updates["group-1"]
	assert.Equal(t, -1.0, groupUpdate.averageGrade)
}

func TestRecomputeCascadeMissingCategoryIsNoop(t *testing.T) {
	categories := &fakeRecalcCategories{}
	courses := &fakeRecalcCourses{}
	svc := NewRecalcService(&fakeRecalcHomeworks{}, categories, courses, &fakeRecalcGroups{}, nil, nil, nil, nil)

	require.NoError(t, svc.RecomputeCategoryCascade(context.Background(), "gone"))
	assert.Empty(t, categories.updates)
	assert.Empty(t, courses.updates)
}

func TestOnCategoryReassignedRecomputesOldSynchronously(t *testing.T) {
	homeworks, categories, courses, groups := newCascadeFixture()
	svc := NewRecalcService(homeworks, categories, courses, groups, nil, nil, nil, nil)

	require.NoError(t, svc.OnCategoryReassigned(context.Background(), "hw-1", "cat-1", "cat-2"))
	assert.Contains(t, categories.updates, "cat-1")
}

func TestOnCategoryReassignedSameCategoryIsNoop(t *testing.T) {
	categories := &fakeRecalcCategories{}
	svc := NewRecalcService(&fakeRecalcHomeworks{}, categories, &fakeRecalcCourses{}, &fakeRecalcGroups{}, nil, nil, nil, nil)

	require.NoError(t, svc.OnCategoryReassigned(context.Background(), "hw-1", "cat-1", "cat-1"))
	require.NoError(t, svc.OnCategoryReassigned(context.Background(), "hw-1", "", "cat-2"))
	assert.Empty(t, categories.updates)
}

func TestOnCategoryDeletedReassignsToDefault(t *testing.T) {
	homeworks, categories, courses, groups := newCascadeFixture()
	fallback := &models.Category{ID: "cat-default", CourseID: "course-1", Title: models.DefaultCategoryTitle}
	categories.byID["cat-default"] = fallback
	categories.fallback = fallback
	homeworks.byCategory = map[string][]models.Homework{
		"cat-1": {{ID: "hw-1", CategoryID: "cat-1"}, {ID: "hw-2", CategoryID: "cat-1"}},
	}
	queue := &fakeRecalcQueue{}
	svc := NewRecalcService(homeworks, categories, courses, groups, queue, nil, nil, nil)

	require.NoError(t, svc.OnCategoryDeleted(context.Background(), "cat-1"))

	assert.Equal(t, "cat-default", homeworks.reassigned["hw-1"])
	assert.Equal(t, "cat-default", homeworks.reassigned["hw-2"])
	assert.Equal(t, []string{"cat-1"}, categories.deleted)
	// the fallback category was recomputed before the call returned
	assert.Contains(t, categories.updates, "cat-default")
}

func TestOnCategoryDeletedRejectsDefault(t *testing.T) {
	fallback := &models.Category{ID: "cat-default", CourseID: "course-1", Title: models.DefaultCategoryTitle}
	categories := &fakeRecalcCategories{
		byID:     map[string]*models.Category{"cat-default": fallback},
		fallback: fallback,
	}
	svc := NewRecalcService(&fakeRecalcHomeworks{}, categories, &fakeRecalcCourses{}, &fakeRecalcGroups{}, nil, nil, nil, nil)

	err := svc.OnCategoryDeleted(context.Background(), "cat-default")
	require.Error(t, err)
	assert.Empty(t, categories.deleted)
}

func TestOnCategoryDeletedMissingCategoryIsNoop(t *testing.T) {
	categories := &fakeRecalcCategories{}
	svc := NewRecalcService(&fakeRecalcHomeworks{}, categories, &fakeRecalcCourses{}, &fakeRecalcGroups{}, nil, nil, nil, nil)

	require.NoError(t, svc.OnCategoryDeleted(context.Background(), "gone"))
}
