package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
	"github.com/noah-isme/study-sprint-api/pkg/export"
)

type weekReader interface {
	GetWeek(ctx context.Context, userID, weekStart string) (*models.StudyPlanWeek, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled  bool
	PDFTitle string
}

// ExportService renders week plans as downloadable files.
type ExportService struct {
	weeks     weekReader
	csv       datasetRenderer
	pdf       datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(weeks weekReader, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PDFTitle == "" {
		cfg.PDFTitle = "Weekly Study Plan"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{weeks: weeks, csv: csv, pdf: pdf, validator: validate, logger: logger, cfg: cfg}
}

// ExportWeek renders one week plan, grouped by weekday, in the requested format.
func (s *ExportService) ExportWeek(ctx context.Context, req dto.ExportWeekRequest) (*dto.ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	if req.UserID == "" {
		return nil, appErrors.ErrNoUser
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}

	week, err := s.weeks.GetWeek(ctx, req.UserID, req.WeekStart)
	if err != nil {
		return nil, err
	}
	dataset := s.buildWeekDataset(req.WeekStart, week)

	var (
		payload     []byte
		contentType string
	)
	switch req.Format {
	case dto.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case dto.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	default:
		err = appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", req.Format))
	}
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Debug("week plan exported",
		zap.String("user_id", req.UserID),
		zap.String("week_start", req.WeekStart),
		zap.String("format", string(req.Format)),
		zap.Int("rows", dataset.RowCount()),
	)

	return &dto.ExportResult{
		Filename:    fmt.Sprintf("study-plan_%s.%s", sanitizeFilename(req.WeekStart), req.Format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func (s *ExportService) buildWeekDataset(weekStart string, week *models.StudyPlanWeek) export.Dataset {
	monday, _ := time.Parse(models.DateLayout, weekStart)

	byDay := make(map[models.DayKey][]models.StudyTask)
	for _, task := range week.Tasks {
		byDay[task.Day] = append(byDay[task.Day], task)
	}

	groups := make([]export.Group, 0, len(models.DayKeys))
	for i, day := range models.DayKeys {
		heading := fmt.Sprintf("%s %s", dayTitle(day), monday.AddDate(0, 0, i).Format(models.DateLayout))
		rows := make([][]string, 0, len(byDay[day]))
		for _, task := range byDay[day] {
			done := "no"
			if task.Completed {
				done = "yes"
			}
			rows = append(rows, []string{task.Title, done, deref(task.Notes)})
		}
		groups = append(groups, export.Group{Heading: heading, Rows: rows})
	}

	return export.Dataset{
		Title:   fmt.Sprintf("%s %s", s.cfg.PDFTitle, weekStart),
		Headers: []string{"Task", "Completed", "Notes"},
		Groups:  groups,
	}
}

func dayTitle(day models.DayKey) string {
	return cases.Title(language.Und).String(string(day))
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
