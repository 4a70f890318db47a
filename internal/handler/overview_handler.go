package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradeloop/gradeloop-api/internal/models"
	"github.com/gradeloop/gradeloop-api/pkg/response"
)

type overviewService interface {
	GradeData(ctx context.Context, userID string) (*models.GradeOverview, error)
}

// OverviewHandler serves the aggregated grade overview.
type OverviewHandler struct {
	overview overviewService
}

// NewOverviewHandler constructs handler.
func NewOverviewHandler(overview overviewService) *OverviewHandler {
	return &OverviewHandler{overview: overview}
}

// GradeData godoc
// @Summary Get the full grade overview
// @Description Returns every course group with its courses, categories, grades and trends.
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades/overview [get]
func (h *OverviewHandler) GradeData(c *gin.Context) {
	overview, err := h.overview.GradeData(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}
