package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

// LessonTeacherService lists the teachers that offer playlists for curriculum lessons.
type LessonTeacherService struct {
	playlists playlistReader
	lookups   lookupRunner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonTeacherService builds the service.
func NewLessonTeacherService(playlists playlistReader, timeout time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LessonTeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonTeacherService{
		playlists: playlists,
		lookups:   newLookupRunner(timeout, metrics),
		validator: validate,
		logger:    logger,
	}
}

// List returns one entry per lesson and teacher, ordered by lesson id and then teacher name.
// Teacher names differing only in case are reported once, keeping the first spelling seen.
func (s *LessonTeacherService) List(ctx context.Context, query dto.LessonTeachersQuery) ([]models.LessonTeacher, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson teacher query")
	}
	if len(query.LessonIDs) == 0 {
		return []models.LessonTeacher{}, nil
	}

	rows, err := lookup(ctx, s.lookups, "playlists_by_lessons", func(c context.Context) ([]models.Playlist, error) {
		return s.playlists.ListByCurriculumLessons(c, query.CurriculumID, query.LessonIDs, true)
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows))
	teachers := make([]models.LessonTeacher, 0, len(rows))
	for _, row := range rows {
		if row.LessonID == nil || *row.LessonID == 0 || row.Teacher == nil {
			continue
		}
		name := strings.TrimSpace(*row.Teacher)
		if name == "" {
			continue
		}
		key := fmt.Sprintf("%d::%s", *row.LessonID, teacherKey(name))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		teachers = append(teachers, models.LessonTeacher{
			LessonID:  *row.LessonID,
			SectionID: row.SectionID,
			Teacher:   name,
		})
	}

	col := newTurkishCollator()
	sort.SliceStable(teachers, func(i, j int) bool {
		if teachers[i].LessonID != teachers[j].LessonID {
			return teachers[i].LessonID < teachers[j].LessonID
		}
		return col.CompareString(teachers[i].Teacher, teachers[j].Teacher) < 0
	})
	return teachers, nil
}
