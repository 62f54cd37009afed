package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/models"
	"github.com/noah-isme/study-sprint-api/pkg/response"
)

type lessonTeacherLister interface {
	List(ctx context.Context, query dto.LessonTeachersQuery) ([]models.LessonTeacher, error)
}

// LessonTeacherHandler lists teachers per curriculum lesson.
type LessonTeacherHandler struct {
	service lessonTeacherLister
}

// NewLessonTeacherHandler constructs the handler.
func NewLessonTeacherHandler(service lessonTeacherLister) *LessonTeacherHandler {
	return &LessonTeacherHandler{service: service}
}

// List godoc
// @Summary Teachers available for lessons
// @Tags Curricula
// @Produce json
// @Param id path string true "Curriculum ID"
// @Param lessonIds query string false "Comma separated lesson ids"
// @Success 200 {object} response.Envelope
// @Router /curricula/{id}/teachers [get]
func (h *LessonTeacherHandler) List(c *gin.Context) {
	lessonIDs, err := parseIDList(c.Query("lessonIds"))
	if err != nil {
		response.Error(c, err)
		return
	}
	teachers, err := h.service.List(c.Request.Context(), dto.LessonTeachersQuery{
		CurriculumID: strings.TrimSpace(c.Param("id")),
		LessonIDs:    lessonIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}
