package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gradeloop/gradeloop-api/internal/models"
	"github.com/gradeloop/gradeloop-api/internal/service"
	appErrors "github.com/gradeloop/gradeloop-api/pkg/errors"
	"github.com/gradeloop/gradeloop-api/pkg/response"
)

type homeworkService interface {
	Create(ctx context.Context, userID string, req service.CreateHomeworkRequest) (*models.Homework, error)
	Update(ctx context.Context, userID, id string, req service.UpdateHomeworkRequest) (*models.Homework, error)
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, userID, id string) (*models.Homework, error)
	List(ctx context.Context, userID string, filter models.HomeworkFilter) ([]models.Homework, *models.Pagination, error)
}

// HomeworkHandler exposes graded-item endpoints.
type HomeworkHandler struct {
	homeworks homeworkService
}

// NewHomeworkHandler constructs handler.
func NewHomeworkHandler(homeworks homeworkService) *HomeworkHandler {
	return &HomeworkHandler{homeworks: homeworks}
}

// List godoc
// @Summary List homework
// @Tags Homework
// @Produce json
// @Param courseId query string false "Filter by course"
// @Param categoryId query string false "Filter by category"
// @Param completed query bool false "Filter by completion"
// @Success 200 {object} response.Envelope
// @Router /homeworks [get]
func (h *HomeworkHandler) List(c *gin.Context) {
	filter := models.HomeworkFilter{
		CourseID:   c.Query("courseId"),
		CategoryID: c.Query("categoryId"),
	}
	if raw := c.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "completed must be a boolean"))
			return
		}
		filter.Completed = &completed
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "0"))

	items, pagination, err := h.homeworks.List(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get one homework item
// @Tags Homework
// @Produce json
// @Param id path string true "Homework ID"
// @Success 200 {object} response.Envelope
// @Router /homeworks/{id} [get]
func (h *HomeworkHandler) Get(c *gin.Context) {
	hw, err := h.homeworks.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hw, nil)
}

// Create godoc
// @Summary Create homework
// @Tags Homework
// @Accept json
// @Produce json
// @Param payload body service.CreateHomeworkRequest true "Homework payload"
// @Success 201 {object} response.Envelope
// @Router /homeworks [post]
func (h *HomeworkHandler) Create(c *gin.Context) {
	var req service.CreateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hw, err := h.homeworks.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, hw)
}

// Update godoc
// @Summary Update homework
// @Tags Homework
// @Accept json
// @Produce json
// @Param id path string true "Homework ID"
// @Param payload body service.UpdateHomeworkRequest true "Homework payload"
// @Success 200 {object} response.Envelope
// @Router /homeworks/{id} [put]
func (h *HomeworkHandler) Update(c *gin.Context) {
	var req service.UpdateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hw, err := h.homeworks.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hw, nil)
}

// Delete godoc
// @Summary Delete homework
// @Tags Homework
// @Param id path string true "Homework ID"
// @Success 204
// @Router /homeworks/{id} [delete]
func (h *HomeworkHandler) Delete(c *gin.Context) {
	if err := h.homeworks.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
