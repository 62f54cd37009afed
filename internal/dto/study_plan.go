package dto

import "github.com/noah-isme/study-sprint-api/internal/models"

// ExportFormat selects the rendering of a week plan download.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// PersistWeekOptions controls how new tasks are combined with an existing week plan.
type PersistWeekOptions struct {
	SprintID *string
	Append   bool
}

// PersistWeekRequest writes one week of tasks for a user. Daily counters are always derived
// from the stored task set.
type PersistWeekRequest struct {
	UserID    string `validate:"required"`
	WeekStart string `validate:"required"`
	Tasks     []models.StudyTask
	Options   PersistWeekOptions
}

// ExportWeekRequest asks for a rendered week plan.
type ExportWeekRequest struct {
	UserID    string       `validate:"required"`
	WeekStart string       `validate:"required,datetime=2006-01-02"`
	Format    ExportFormat `validate:"required,oneof=csv pdf"`
}

// ExportResult carries a rendered export ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}
