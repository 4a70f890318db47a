package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradeloop/gradeloop-api/internal/models"
	appErrors "github.com/gradeloop/gradeloop-api/pkg/errors"
)

type fakeOverviewGroups struct {
	groups []models.CourseGroup
}

func (f *fakeOverviewGroups) ListByUser(_ context.Context, _ string) ([]models.CourseGroup, error) {
	return f.groups, nil
}

type fakeOverviewCourses struct {
	byGroup map[string][]models.Course
}

func (f *fakeOverviewCourses) ListByGroup(_ context.Context, groupID string) ([]models.Course, error) {
	return f.byGroup[groupID], nil
}

type fakeOverviewCategories struct {
	byCourse map[string][]models.Category
}

func (f *fakeOverviewCategories) ListByCourse(_ context.Context, courseID string) ([]models.Category, error) {
	return f.byCourse[courseID], nil
}

type memoryCache struct {
	data map[string][]byte
	gets int
	sets int
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func newOverviewFixture() (*fakeOverviewGroups, *fakeOverviewCourses, *fakeOverviewCategories) {
	trend := 0.123456789
	groups := &fakeOverviewGroups{
		groups: []models.CourseGroup{
			{ID: "group-1", UserID: "user-1", Title: "Semester 1", AverageGrade: 76.666666, Trend: &trend},
		},
	}
	courses := &fakeOverviewCourses{
		byGroup: map[string][]models.Course{
			"group-1": {
				{
					ID:                 "course-1",
					CourseGroupID:      "group-1",
					Title:              "Math",
					CurrentGrade:       78.26086956,
					HasWeightedGrading: false,
					GradePoints: models.GradePoints{
						{Time: time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC), Value: 83.3333333},
					},
				},
			},
		},
	}
	categories := &fakeOverviewCategories{
		byCourse: map[string][]models.Category{
			"course-1": {
				{ID: "cat-1", Title: "Exams", Weight: 60, AverageGrade: 81.81818, GradeByWeight: 49.0909090, NumGraded: 3},
				{ID: "cat-2", Title: "Homework", Weight: 40, AverageGrade: -1, GradeByWeight: 0, NumGraded: 0, Trend: nil},
			},
		},
	}
	return groups, courses, categories
}

func TestGradeDataRoundsToFourDigits(t *testing.T) {
	groups, courses, categories := newOverviewFixture()
	svc := NewOverviewService(groups, courses, categories, nil, nil)

	overview, err := svc.GradeData(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, overview.CourseGroups, 1)

	group := overview.CourseGroups[0]
	assert.Equal(t, 76.6667, group.OverallGrade)
	require.NotNil(t, group.Trend)
	assert.Equal(t, 0.1235, *group.Trend)

	require.Len(t, group.Courses, 1)
	course := group.Courses[0]
	assert.Equal(t, 78.2609, course.OverallGrade)
	assert.Nil(t, course.Trend)
	require.Len(t, course.GradePoints, 1)
	assert.Equal(t, 83.3333, course.GradePoints[0].Value)

	require.Len(t, course.Categories, 2)
	assert.Equal(t, 81.8182, course.Categories[0].OverallGrade)
	assert.Equal(t, 49.0909, course.Categories[0].GradeByWeight)
	assert.Equal(t, 3, course.Categories[0].NumGraded)
	// ungraded category keeps its sentinel untouched
	assert.Equal(t, -1.0, course.Categories[1].OverallGrade)
	assert.Nil(t, course.Categories[1].Trend)
}

func TestGradeDataUsesCache(t *testing.T) {
	groups, courses, categories := newOverviewFixture()
	repo := &memoryCache{}
	cacheSvc := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := NewOverviewService(groups, courses, categories, cacheSvc, nil)

	first, err := svc.GradeData(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.sets)

	// second call is served from cache, the readers are not consulted again
	groups.groups = nil
	second, err := svc.GradeData(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.CourseGroups[0].ID, second.CourseGroups[0].ID)
	assert.Equal(t, 1, repo.sets)
	assert.Equal(t, 2, repo.gets)
}

func TestGradeDataEmptyHierarchy(t *testing.T) {
	svc := NewOverviewService(&fakeOverviewGroups{}, &fakeOverviewCourses{}, &fakeOverviewCategories{}, nil, nil)

	overview, err := svc.GradeData(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, overview.CourseGroups)
	assert.Equal(t, "user-1", overview.UserID)
}
