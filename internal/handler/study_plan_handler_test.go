package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

type fakePlanReader struct {
	week *models.StudyPlanWeek
	err  error
}

func (f fakePlanReader) GetWeek(context.Context, string, string) (*models.StudyPlanWeek, error) {
	return f.week, f.err
}

type fakeExporter struct {
	req dto.ExportWeekRequest
}

func (f *fakeExporter) ExportWeek(_ context.Context, req dto.ExportWeekRequest) (*dto.ExportResult, error) {
	f.req = req
	return &dto.ExportResult{Filename: "study-plan_2024-01-01.pdf", ContentType: "application/pdf", Payload: []byte("%PDF-1.3")}, nil
}

func TestStudyPlanHandlerGetWeek(t *testing.T) {
	h := NewStudyPlanHandler(fakePlanReader{week: &models.StudyPlanWeek{Plan: models.StudyPlan{ID: "plan-1"}}}, nil)

	c, rec := newAuthedContext(http.MethodGet, "/study-plans/2024-01-01", "")
	c.Params = gin.Params{{Key: "weekStart", Value: "2024-01-01"}}
	h.GetWeek(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	missing := NewStudyPlanHandler(fakePlanReader{err: appErrors.Clone(appErrors.ErrNotFound, "study plan not found")}, nil)
	c, rec = newAuthedContext(http.MethodGet, "/study-plans/2024-01-08", "")
	c.Params = gin.Params{{Key: "weekStart", Value: "2024-01-08"}}
	missing.GetWeek(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudyPlanHandlerExport(t *testing.T) {
	exporter := &fakeExporter{}
	h := NewStudyPlanHandler(fakePlanReader{}, exporter)

	c, rec := newAuthedContext(http.MethodGet, "/study-plans/2024-01-01/export?format=PDF", "")
	c.Params = gin.Params{{Key: "weekStart", Value: "2024-01-01"}}
	h.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ExportFormatPDF, exporter.req.Format)
	assert.Equal(t, "user-1", exporter.req.UserID)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "study-plan_2024-01-01.pdf")
}
