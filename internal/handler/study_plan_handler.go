package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
	"github.com/noah-isme/study-sprint-api/pkg/response"
)

type studyPlanReader interface {
	GetWeek(ctx context.Context, userID, weekStart string) (*models.StudyPlanWeek, error)
}

type weekExporter interface {
	ExportWeek(ctx context.Context, req dto.ExportWeekRequest) (*dto.ExportResult, error)
}

// StudyPlanHandler serves week plans.
type StudyPlanHandler struct {
	plans   studyPlanReader
	exports weekExporter
}

// NewStudyPlanHandler constructs the handler.
func NewStudyPlanHandler(plans studyPlanReader, exports weekExporter) *StudyPlanHandler {
	return &StudyPlanHandler{plans: plans, exports: exports}
}

// GetWeek godoc
// @Summary Week plan of the caller
// @Tags StudyPlans
// @Produce json
// @Param weekStart path string true "Monday of the week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /study-plans/{weekStart} [get]
func (h *StudyPlanHandler) GetWeek(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNoUser)
		return
	}
	week, err := h.plans.GetWeek(c.Request.Context(), userID, strings.TrimSpace(c.Param("weekStart")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// Export godoc
// @Summary Download a week plan
// @Tags StudyPlans
// @Produce text/csv
// @Produce application/pdf
// @Param weekStart path string true "Monday of the week (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /study-plans/{weekStart}/export [get]
func (h *StudyPlanHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNoUser)
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(dto.ExportFormatCSV))))

	result, err := h.exports.ExportWeek(c.Request.Context(), dto.ExportWeekRequest{
		UserID:    userID,
		WeekStart: strings.TrimSpace(c.Param("weekStart")),
		Format:    dto.ExportFormat(format),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}
