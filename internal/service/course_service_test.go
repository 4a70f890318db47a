package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradeloop/gradeloop-api/internal/models"
	appErrors "github.com/gradeloop/gradeloop-api/pkg/errors"
)

type fakeCourseRepo struct {
	byID    map[string]*models.Course
	byGroup map[string][]models.Course
	created []*models.Course
	deleted []string
}

func (f *fakeCourseRepo) Create(_ context.Context, course *models.Course) error {
	course.ID = "course-new"
	f.created = append(f.created, course)
	return nil
}

func (f *fakeCourseRepo) FindByID(_ context.Context, id string) (*models.Course, error) {
	course, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return course, nil
}

func (f *fakeCourseRepo) ListByGroup(_ context.Context, groupID string) ([]models.Course, error) {
	return f.byGroup[groupID], nil
}

func (f *fakeCourseRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCourseGroupRepo struct {
	byID    map[string]*models.CourseGroup
	byUser  map[string][]models.CourseGroup
	created []*models.CourseGroup
	deleted []string
}

func (f *fakeCourseGroupRepo) Create(_ context.Context, group *models.CourseGroup) error {
	group.ID = "group-new"
	f.created = append(f.created, group)
	return nil
}

func (f *fakeCourseGroupRepo) FindByID(_ context.Context, id string) (*models.CourseGroup, error) {
	group, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return group, nil
}

func (f *fakeCourseGroupRepo) ListByUser(_ context.Context, userID string) ([]models.CourseGroup, error) {
	return f.byUser[userID], nil
}

func (f *fakeCourseGroupRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func newCourseFixture() (*fakeCourseRepo, *fakeCourseGroupRepo) {
	courses := &fakeCourseRepo{
		byID: map[string]*models.Course{
			"course-1": {ID: "course-1", CourseGroupID: "group-1", Title: "Math"},
		},
	}
	groups := &fakeCourseGroupRepo{
		byID: map[string]*models.CourseGroup{
			"group-1": {ID: "group-1", UserID: "user-1", Title: "Semester 1"},
		},
	}
	return courses, groups
}

func TestCourseCreateIntoOwnedGroup(t *testing.T) {
	courses, groups := newCourseFixture()
	svc := NewCourseService(courses, groups, nil, nil)

	course, err := svc.Create(context.Background(), "user-1", CreateCourseRequest{
		CourseGroupID: "group-1",
		Title:         "Physics",
	})
	require.NoError(t, err)
	assert.Equal(t, "course-new", course.ID)
	assert.Equal(t, "group-1", course.CourseGroupID)
}

func TestCourseCreateForeignGroup(t *testing.T) {
	courses, groups := newCourseFixture()
	svc := NewCourseService(courses, groups, nil, nil)

	_, err := svc.Create(context.Background(), "user-2", CreateCourseRequest{
		CourseGroupID: "group-1",
		Title:         "Physics",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Empty(t, courses.created)
}

func TestCourseGetChecksOwnership(t *testing.T) {
	courses, groups := newCourseFixture()
	svc := NewCourseService(courses, groups, nil, nil)

	course, err := svc.Get(context.Background(), "user-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, "Math", course.Title)

	_, err = svc.Get(context.Background(), "user-2", "course-1")
	require.Error(t, err)

	_, err = svc.Get(context.Background(), "user-1", "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseGroupLifecycle(t *testing.T) {
	courses, groups := newCourseFixture()
	groups.byUser = map[string][]models.CourseGroup{
		"user-1": {{ID: "group-1"}},
	}
	svc := NewCourseService(courses, groups, nil, nil)

	group, err := svc.CreateGroup(context.Background(), "user-1", CreateCourseGroupRequest{Title: "Semester 2"})
	require.NoError(t, err)
	assert.Equal(t, "group-new", group.ID)
	assert.Equal(t, "user-1", group.UserID)

	listed, err := svc.ListGroups(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, svc.DeleteGroup(context.Background(), "user-1", "group-1"))
	assert.Equal(t, []string{"group-1"}, groups.deleted)

	err = svc.DeleteGroup(context.Background(), "user-2", "group-1")
	require.Error(t, err)
}
