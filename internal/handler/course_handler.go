package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradeloop/gradeloop-api/internal/models"
	"github.com/gradeloop/gradeloop-api/internal/service"
	appErrors "github.com/gradeloop/gradeloop-api/pkg/errors"
	"github.com/gradeloop/gradeloop-api/pkg/response"
)

type courseService interface {
	CreateGroup(ctx context.Context, userID string, req service.CreateCourseGroupRequest) (*models.CourseGroup, error)
	ListGroups(ctx context.Context, userID string) ([]models.CourseGroup, error)
	DeleteGroup(ctx context.Context, userID, id string) error
	Create(ctx context.Context, userID string, req service.CreateCourseRequest) (*models.Course, error)
	ListByGroup(ctx context.Context, userID, groupID string) ([]models.Course, error)
	Get(ctx context.Context, userID, id string) (*models.Course, error)
	Delete(ctx context.Context, userID, id string) error
}

// CourseHandler exposes course and course-group endpoints.
type CourseHandler struct {
	courses courseService
}

// NewCourseHandler constructs handler.
func NewCourseHandler(courses courseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// ListGroups godoc
// @Summary List course groups
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /course-groups [get]
func (h *CourseHandler) ListGroups(c *gin.Context) {
	groups, err := h.courses.ListGroups(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// CreateGroup godoc
// @Summary Create course group
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseGroupRequest true "Course group payload"
// @Success 201 {object} response.Envelope
// @Router /course-groups [post]
func (h *CourseHandler) CreateGroup(c *gin.Context) {
	var req service.CreateCourseGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.courses.CreateGroup(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// DeleteGroup godoc
// @Summary Delete course group
// @Tags Courses
// @Param id path string true "Course group ID"
// @Success 204
// @Router /course-groups/{id} [delete]
func (h *CourseHandler) DeleteGroup(c *gin.Context) {
	if err := h.courses.DeleteGroup(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByGroup godoc
// @Summary List courses of a group
// @Tags Courses
// @Produce json
// @Param groupId query string true "Course group ID"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) ListByGroup(c *gin.Context) {
	groupID := c.Query("groupId")
	if groupID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "groupId is required"))
		return
	}
	courses, err := h.courses.ListByGroup(c.Request.Context(), currentUserID(c), groupID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// GradePoints godoc
// @Summary Get the chart series of a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/grade-points [get]
func (h *CourseHandler) GradePoints(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course.GradePoints, nil)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
