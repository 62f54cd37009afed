package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/middleware"
	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
	"github.com/noah-isme/study-sprint-api/pkg/response"
)

type sprintService interface {
	Generate(ctx context.Context, req dto.GenerateSprintRequest) (*dto.GenerateSprintResponse, error)
	Estimate(ctx context.Context, sel dto.SprintSelection) (*dto.SprintEstimate, error)
	VideosForSelection(ctx context.Context, sel dto.SprintSelection) ([]dto.SprintSelectionVideo, error)
	ListByUser(ctx context.Context, userID string) ([]models.SprintSummary, bool, error)
	Delete(ctx context.Context, userID, sprintID string) error
}

// SprintHandler exposes sprint generation and management endpoints.
type SprintHandler struct {
	service sprintService
}

// NewSprintHandler constructs the handler.
func NewSprintHandler(service sprintService) *SprintHandler {
	return &SprintHandler{service: service}
}

// Generate godoc
// @Summary Generate a study sprint
// @Description Schedules the selected curriculum videos into day chunks and week plans starting at startDate.
// @Tags Sprints
// @Accept json
// @Produce json
// @Param payload body dto.GenerateSprintRequest true "Sprint selection and cadence"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /sprints [post]
func (h *SprintHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNoUser)
		return
	}
	var req dto.GenerateSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	req.UserID = userID

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Estimate godoc
// @Summary Estimate a selection
// @Tags Sprints
// @Accept json
// @Produce json
// @Param payload body dto.SprintSelection true "Selection"
// @Success 200 {object} response.Envelope
// @Router /sprints/estimate [post]
func (h *SprintHandler) Estimate(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		response.Error(c, appErrors.ErrNoUser)
		return
	}
	var sel dto.SprintSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}

	estimate, err := h.service.Estimate(c.Request.Context(), sel)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, estimate, nil)
}

// Videos godoc
// @Summary Ordered videos of a selection
// @Tags Sprints
// @Accept json
// @Produce json
// @Param payload body dto.SprintSelection true "Selection"
// @Success 200 {object} response.Envelope
// @Router /sprints/videos [post]
func (h *SprintHandler) Videos(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		response.Error(c, appErrors.ErrNoUser)
		return
	}
	var sel dto.SprintSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}

	videos, err := h.service.VideosForSelection(c.Request.Context(), sel)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(videos))
	response.JSON(c, http.StatusOK, videos, nil, middleware.ExtractMeta(c))
}

// List godoc
// @Summary List the caller's sprints
// @Tags Sprints
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sprints [get]
func (h *SprintHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNoUser)
		return
	}
	sprints, cacheHit, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, sprints, nil, middleware.ExtractMeta(c))
}

// Delete godoc
// @Summary Delete a sprint with its week plans
// @Tags Sprints
// @Param id path string true "Sprint ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /sprints/{id} [delete]
func (h *SprintHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNoUser)
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
