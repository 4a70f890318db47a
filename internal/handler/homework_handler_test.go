package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradeloop/gradeloop-api/internal/middleware"
	"github.com/gradeloop/gradeloop-api/internal/models"
	"github.com/gradeloop/gradeloop-api/internal/service"
	appErrors "github.com/gradeloop/gradeloop-api/pkg/errors"
)

type fakeHomeworkSrv struct {
	created    *models.Homework
	createErr  error
	lastUser   string
	lastFilter models.HomeworkFilter
	items      []models.Homework
}

func (f *fakeHomeworkSrv) Create(_ context.Context, userID string, _ service.CreateHomeworkRequest) (*models.Homework, error) {
	f.lastUser = userID
	return f.created, f.createErr
}

func (f *fakeHomeworkSrv) Update(_ context.Context, _, _ string, _ service.UpdateHomeworkRequest) (*models.Homework, error) {
	return f.created, f.createErr
}

func (f *fakeHomeworkSrv) Delete(context.Context, string, string) error {
	return f.createErr
}

func (f *fakeHomeworkSrv) Get(context.Context, string, string) (*models.Homework, error) {
	return f.created, f.createErr
}

func (f *fakeHomeworkSrv) List(_ context.Context, userID string, filter models.HomeworkFilter) ([]models.Homework, *models.Pagination, error) {
	f.lastUser = userID
	f.lastFilter = filter
	return f.items, nil, nil
}

func authedContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	if body != "" {
		c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, target, nil)
	}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	return c, rec
}

func TestHomeworkHandlerCreate(t *testing.T) {
	srv := &fakeHomeworkSrv{created: &models.Homework{ID: "hw-1", Title: "Quiz"}}
	h := NewHomeworkHandler(srv)

	c, rec := authedContext(t, http.MethodPost, "/homeworks",
		`{"course_id":"course-1","title":"Quiz","grade":"8/10","start_at":"2026-03-10T09:00:00Z"}`)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-1", srv.lastUser)
}

func TestHomeworkHandlerCreateInvalidJSON(t *testing.T) {
	h := NewHomeworkHandler(&fakeHomeworkSrv{})

	c, rec := authedContext(t, http.MethodPost, "/homeworks", `{"title":`)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHomeworkHandlerCreateMalformedGrade(t *testing.T) {
	srv := &fakeHomeworkSrv{createErr: appErrors.Clone(appErrors.ErrMalformedGrade, "")}
	h := NewHomeworkHandler(srv)

	c, rec := authedContext(t, http.MethodPost, "/homeworks",
		`{"course_id":"course-1","title":"Quiz","grade":"8 of 10","start_at":"2026-03-10T09:00:00Z"}`)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, appErrors.ErrMalformedGrade.Code, envelope.Error.Code)
}

func TestHomeworkHandlerListParsesFilters(t *testing.T) {
	srv := &fakeHomeworkSrv{items: []models.Homework{{ID: "hw-1"}}}
	h := NewHomeworkHandler(srv)

	c, rec := authedContext(t, http.MethodGet, "/homeworks?courseId=course-1&completed=true&page=2&pageSize=10", "")
	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "course-1", srv.lastFilter.CourseID)
	require.NotNil(t, srv.lastFilter.Completed)
	assert.True(t, *srv.lastFilter.Completed)
	assert.Equal(t, 2, srv.lastFilter.Page)
	assert.Equal(t, 10, srv.lastFilter.PageSize)
}

func TestHomeworkHandlerListRejectsBadCompleted(t *testing.T) {
	h := NewHomeworkHandler(&fakeHomeworkSrv{})

	c, rec := authedContext(t, http.MethodGet, "/homeworks?completed=maybe", "")
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHomeworkHandlerDeleteNotFound(t *testing.T) {
	srv := &fakeHomeworkSrv{createErr: appErrors.Clone(appErrors.ErrNotFound, "homework not found")}
	h := NewHomeworkHandler(srv)

	c, rec := authedContext(t, http.MethodDelete, "/homeworks/hw-404", "")
	c.Params = gin.Params{{Key: "id", Value: "hw-404"}}
	h.Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
