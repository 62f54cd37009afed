package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

type sprintStore interface {
	Create(ctx context.Context, sprint *models.Sprint) error
	ListByUser(ctx context.Context, userID string) ([]models.Sprint, error)
	PlanTotals(ctx context.Context, userID string, sprintIDs []string) ([]models.SprintPlanTotals, error)
	ContentStats(ctx context.Context, sprintID string) (*models.SprintContentStats, error)
	PlanIDs(ctx context.Context, exec sqlx.ExtContext, userID, sprintID string) ([]string, error)
	DeleteTasksByPlans(ctx context.Context, exec sqlx.ExtContext, planIDs []string) error
	DeleteDailyStatsByPlans(ctx context.Context, exec sqlx.ExtContext, planIDs []string) error
	DeletePlans(ctx context.Context, exec sqlx.ExtContext, userID, sprintID string) error
	Delete(ctx context.Context, exec sqlx.ExtContext, userID, sprintID string) (bool, error)
}

type weekPersister interface {
	PersistWeek(ctx context.Context, req dto.PersistWeekRequest) (string, error)
}

// SprintServiceConfig tunes lookups and summary caching.
type SprintServiceConfig struct {
	LookupTimeout     time.Duration
	BatchSize         int
	LookupConcurrency int
	SummaryCacheTTL   time.Duration
}

// SprintService generates study sprints from curriculum selections and manages their lifecycle.
type SprintService struct {
	resolver  *contentResolver
	playlists playlistReader
	sprints   sprintStore
	plans     weekPersister
	tx        txProvider
	allocator *SprintAllocator
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SprintServiceConfig
}

// NewSprintService wires the sprint engine.
func NewSprintService(
	curriculum curriculumReader,
	videos videoReader,
	playlists playlistReader,
	sprints sprintStore,
	plans weekPersister,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SprintServiceConfig,
) *SprintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = 4
	}
	if cfg.SummaryCacheTTL <= 0 {
		cfg.SummaryCacheTTL = 2 * time.Minute
	}
	return &SprintService{
		resolver: &contentResolver{
			curriculum:  curriculum,
			videos:      videos,
			lookups:     newLookupRunner(cfg.LookupTimeout, metrics),
			batchSize:   cfg.BatchSize,
			concurrency: cfg.LookupConcurrency,
		},
		playlists: playlists,
		sprints:   sprints,
		plans:     plans,
		tx:        tx,
		allocator: NewSprintAllocator(nil),
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// preparedSelection is a resolved, teacher-filtered and curriculum-ordered selection.
type preparedSelection struct {
	selection models.CurriculumSelection
	index     models.LessonIndex
	teachers  map[int64]string
	videos    []models.Video
}

func (s *SprintService) prepareOrderedVideos(ctx context.Context, sel dto.SprintSelection, extraLessonIDs []int64) (*preparedSelection, error) {
	resolved, err := s.resolver.expandSelectionToTopics(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(resolved.Topics) == 0 {
		return nil, appErrors.ErrNoTopics
	}

	teachers := normalizeLessonTeachers(sel.LessonTeachers)
	extra := append(sortedLessonIDs(teachers), extraLessonIDs...)
	index, err := s.resolver.loadLessonIndex(ctx, sel.CurriculumID, resolved, extra)
	if err != nil {
		return nil, err
	}

	allow, err := buildTeacherPlaylistAllowlist(ctx, s.playlists, s.resolver.lookups, sel.CurriculumID, teachers, index)
	if err != nil {
		return nil, err
	}

	videos, err := s.resolver.fetchVideosByTopics(ctx, resolved.TopicIDs())
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, appErrors.ErrNoVideos
	}

	filtered, err := filterVideosByTeacher(enrichVideos(videos, index), allow, index)
	if err != nil {
		return nil, err
	}

	return &preparedSelection{
		selection: resolved,
		index:     index,
		teachers:  teachers,
		videos:    orderVideosByCurriculum(filtered),
	}, nil
}

// Generate schedules the selection into day chunks, stores the sprint and writes one week plan
// per affected week. Weeks are persisted independently; a failure leaves earlier weeks in place.
func (s *SprintService) Generate(ctx context.Context, req dto.GenerateSprintRequest) (resp *dto.GenerateSprintResponse, err error) {
	start := time.Now()
	defer func() {
		tasks := 0
		if resp != nil {
			tasks = resp.TaskCount
		}
		s.metrics.RecordSprintGeneration(appErrors.CodeOf(err), tasks, time.Since(start))
	}()

	if req.UserID == "" {
		return nil, appErrors.ErrNoUser
	}
	if req.CurriculumID == "" {
		return nil, appErrors.ErrNoCurriculum
	}
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sprint payload")
	}

	prepared, err := s.prepareOrderedVideos(ctx, req.SprintSelection, sortedLessonIDs(req.LessonDailyMinutes))
	if err != nil {
		return nil, err
	}

	if ce := s.logger.Check(zap.DebugLevel, "sprint videos ordered"); ce != nil {
		ids := make([]string, 0, len(prepared.videos))
		for _, v := range prepared.videos {
			ids = append(ids, v.VideoID)
		}
		ce.Write(zap.String("user_id", req.UserID), zap.Int("count", len(ids)), zap.Strings("video_ids", ids))
	}

	allocation, err := s.allocator.Allocate(AllocationInput{
		CurriculumID:       req.CurriculumID,
		Videos:             prepared.videos,
		StartDate:          req.StartDate,
		DailyMinutes:       req.DailyMinutes,
		LessonDailyMinutes: req.LessonDailyMinutes,
		Lessons:            prepared.index,
	})
	if err != nil {
		return nil, err
	}

	sprint, err := newSprintRecord(req, prepared)
	if err != nil {
		return nil, err
	}
	if err = lookupExec(ctx, s.resolver.lookups, "sprint_insert", func(c context.Context) error {
		return s.sprints.Create(c, sprint)
	}); err != nil {
		return nil, err
	}

	sprintID := sprint.ID
	for _, week := range allocation.Weeks {
		if _, err = s.plans.PersistWeek(ctx, dto.PersistWeekRequest{
			UserID:    req.UserID,
			WeekStart: week.WeekStart,
			Tasks:     week.Tasks,
			Options:   dto.PersistWeekOptions{SprintID: &sprintID, Append: true},
		}); err != nil {
			s.logger.Warn("sprint week persist failed",
				zap.String("sprint_id", sprintID),
				zap.String("week_start", week.WeekStart),
				zap.Error(err),
			)
			return nil, err
		}
	}

	s.invalidateSummaries(ctx, req.UserID)

	s.logger.Info("sprint generated",
		zap.String("user_id", req.UserID),
		zap.String("sprint_id", sprintID),
		zap.Int("videos", len(prepared.videos)),
		zap.Int("tasks", allocation.TaskCount()),
		zap.Strings("weeks", allocation.WeekStarts()),
	)

	return &dto.GenerateSprintResponse{
		SprintID:              sprintID,
		Title:                 sprint.Title,
		CreatedPlanWeekStarts: allocation.WeekStarts(),
		TaskCount:             allocation.TaskCount(),
	}, nil
}

// Estimate previews topic count, video count and total minutes. A selection that resolves to
// no topics yields zeros instead of an error.
func (s *SprintService) Estimate(ctx context.Context, sel dto.SprintSelection) (*dto.SprintEstimate, error) {
	if sel.CurriculumID == "" {
		return nil, appErrors.ErrNoCurriculum
	}
	if err := s.validator.Struct(sel); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection")
	}

	resolved, err := s.resolver.expandSelectionToTopics(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(resolved.Topics) == 0 {
		return &dto.SprintEstimate{}, nil
	}

	teachers := normalizeLessonTeachers(sel.LessonTeachers)
	index, err := s.resolver.loadLessonIndex(ctx, sel.CurriculumID, resolved, sortedLessonIDs(teachers))
	if err != nil {
		return nil, err
	}
	allow, err := buildTeacherPlaylistAllowlist(ctx, s.playlists, s.resolver.lookups, sel.CurriculumID, teachers, index)
	if err != nil {
		return nil, err
	}
	totals, err := s.resolver.sumDurationsWithTeacherFilter(ctx, resolved.Topics, allow, index)
	if err != nil {
		return nil, err
	}

	return &dto.SprintEstimate{
		TopicCount:   len(resolved.Topics),
		VideoCount:   totals.VideoCount,
		TotalMinutes: int(math.Round(totals.Minutes)),
	}, nil
}

// VideosForSelection returns the ordered, teacher-filtered videos of a selection with their
// curriculum metadata.
func (s *SprintService) VideosForSelection(ctx context.Context, sel dto.SprintSelection) ([]dto.SprintSelectionVideo, error) {
	if sel.CurriculumID == "" {
		return nil, appErrors.ErrNoCurriculum
	}
	if err := s.validator.Struct(sel); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection")
	}

	prepared, err := s.prepareOrderedVideos(ctx, sel, nil)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SprintSelectionVideo, 0, len(prepared.videos))
	for i, v := range prepared.videos {
		item := dto.SprintSelectionVideo{
			Order:           i + 1,
			PlaylistID:      v.PlaylistID,
			VideoID:         v.VideoID,
			Title:           v.DisplayTitle(),
			DurationMinutes: v.ScheduledMinutes(),
			URL:             v.URL,
			TopicID:         v.TopicID,
			TopicTitle:      v.TopicTitle,
			LessonID:        v.LessonID,
			SectionID:       v.SectionID,
			SortOrder:       v.SortOrder,
		}
		if v.LessonID != nil {
			if lesson, ok := prepared.index.Lessons[*v.LessonID]; ok {
				name := lesson.Label()
				item.LessonName = &name
			}
		}
		if v.SectionID != nil {
			if section, ok := prepared.index.Sections[*v.SectionID]; ok {
				name := section.Name
				item.SectionName = &name
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// ListByUser returns the user's sprints newest first with task progress and content counts.
// The boolean reports whether the result came from cache.
func (s *SprintService) ListByUser(ctx context.Context, userID string) ([]models.SprintSummary, bool, error) {
	if userID == "" {
		return nil, false, appErrors.ErrNoUser
	}

	key := sprintSummaryCacheKey(userID)
	if s.cache != nil {
		var cached []models.SprintSummary
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("sprint summary cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if hit {
			return cached, true, nil
		}
	}

	lookups := s.resolver.lookups
	rows, err := lookup(ctx, lookups, "sprints_by_user", func(c context.Context) ([]models.Sprint, error) {
		return s.sprints.ListByUser(c, userID)
	})
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return []models.SprintSummary{}, false, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	totals, err := lookup(ctx, lookups, "sprint_plan_totals", func(c context.Context) ([]models.SprintPlanTotals, error) {
		return s.sprints.PlanTotals(c, userID, ids)
	})
	if err != nil {
		return nil, false, err
	}
	byID := make(map[string]models.SprintPlanTotals, len(totals))
	for _, t := range totals {
		byID[t.SprintID] = t
	}

	stats, err := fanOut(ctx, s.cfg.LookupConcurrency, ids, func(c context.Context, id string) (*models.SprintContentStats, error) {
		st, err := lookup(c, lookups, "sprint_content_stats", func(lc context.Context) (*models.SprintContentStats, error) {
			return s.sprints.ContentStats(lc, id)
		})
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return st, err
	})
	if err != nil {
		return nil, false, err
	}

	summaries := make([]models.SprintSummary, 0, len(rows))
	for i, row := range rows {
		scope := models.ParseSprintScope(row.Scope)
		total := byID[row.ID]
		summary := models.SprintSummary{
			ID:             row.ID,
			Title:          row.Title,
			Status:         row.Status,
			Scope:          scope,
			Cadence:        models.ParseSprintCadence(row.Cadence),
			CreatedAt:      row.CreatedAt,
			UpdatedAt:      row.UpdatedAt,
			TotalTasks:     total.TotalTasks,
			CompletedTasks: total.CompletedTasks,
			CompletionRate: completionRate(total.TotalTasks, total.CompletedTasks),
			SectionCount:   len(scope.Sections),
			LessonCount:    len(scope.Lessons),
			TopicCount:     len(scope.Topics),
		}
		if st := stats[i]; st != nil {
			summary.SectionCount = st.SectionCount
			summary.LessonCount = st.LessonCount
			summary.TopicCount = st.TopicCount
		}
		summaries = append(summaries, summary)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, summaries, s.cfg.SummaryCacheTTL)
	}
	return summaries, false, nil
}

// Delete removes a sprint with its week plans, tasks and daily counters in one transaction.
func (s *SprintService) Delete(ctx context.Context, userID, sprintID string) error {
	if userID == "" {
		return appErrors.ErrNoUser
	}
	if sprintID == "" {
		return appErrors.ErrNoSprint
	}
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	found := false
	err := lookupExec(ctx, s.resolver.lookups, "sprint_delete", func(c context.Context) (err error) {
		tx, err := s.tx.BeginTxx(c, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err != nil || !found {
				_ = tx.Rollback()
			}
		}()

		planIDs, err := s.sprints.PlanIDs(c, tx, userID, sprintID)
		if err != nil {
			return err
		}
		for _, batch := range chunkStrings(planIDs, s.cfg.BatchSize) {
			if err = s.sprints.DeleteTasksByPlans(c, tx, batch); err != nil {
				return err
			}
			if err = s.sprints.DeleteDailyStatsByPlans(c, tx, batch); err != nil {
				return err
			}
		}
		if err = s.sprints.DeletePlans(c, tx, userID, sprintID); err != nil {
			return err
		}
		if found, err = s.sprints.Delete(c, tx, userID, sprintID); err != nil || !found {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return err
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "sprint not found")
	}

	s.invalidateSummaries(ctx, userID)
	s.logger.Info("sprint deleted", zap.String("user_id", userID), zap.String("sprint_id", sprintID))
	return nil
}

func (s *SprintService) invalidateSummaries(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, sprintSummaryCacheKey(userID)); err != nil {
		s.logger.Warn("sprint summary cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func sprintSummaryCacheKey(userID string) string {
	return fmt.Sprintf("sprints:summary:%s", userID)
}

func newSprintRecord(req dto.GenerateSprintRequest, prepared *preparedSelection) (*models.Sprint, error) {
	curriculumID := req.CurriculumID
	startDate := req.StartDate
	daily := 1
	if !math.IsNaN(req.DailyMinutes) && !math.IsInf(req.DailyMinutes, 0) {
		daily = max(1, int(math.Floor(req.DailyMinutes)))
	}
	lessonCaps, _ := normalizeLessonCaps(req.LessonDailyMinutes)

	scope := models.SprintScope{
		CurriculumID:   &curriculumID,
		Sections:       nonNilInts(req.SectionIDs),
		Lessons:        nonNilInts(req.LessonIDs),
		Topics:         nonBlank(req.TopicIDs),
		LessonTeachers: prepared.teachers,
	}
	cadence := models.SprintCadence{
		StartDate:          &startDate,
		DailyMinutes:       &daily,
		LessonDailyMinutes: lessonCaps,
	}

	scopeJSON, err := json.Marshal(scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode sprint scope")
	}
	cadenceJSON, err := json.Marshal(cadence)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode sprint cadence")
	}

	return &models.Sprint{
		UserID:  req.UserID,
		Title:   buildSprintTitle(prepared.selection, prepared.index),
		Scope:   types.JSONText(scopeJSON),
		Cadence: types.JSONText(cadenceJSON),
		Status:  models.SprintStatusActive,
	}, nil
}

// buildSprintTitle summarises topic counts for up to three lessons, e.g.
// "Koşu - FIZ:4 konu, KIM:3 konu, MAT:2 konu, +1 ders • 10 konu".
func buildSprintTitle(sel models.CurriculumSelection, index models.LessonIndex) string {
	if len(sel.Topics) == 0 {
		return "Koşu - 0 konu"
	}

	counts := make(map[int64]int)
	for _, t := range sel.Topics {
		counts[t.LessonID]++
	}
	type lessonSummary struct {
		label string
		count int
	}
	summaries := make([]lessonSummary, 0, len(counts))
	for lessonID, count := range counts {
		label := models.LessonFallbackLabel(lessonID)
		if lesson, ok := index.Lessons[lessonID]; ok {
			label = lesson.ShortLabel()
		}
		summaries = append(summaries, lessonSummary{label: label, count: count})
	}
	col := newTurkishCollator()
	sort.SliceStable(summaries, func(i, j int) bool {
		if c := col.CompareString(summaries[i].label, summaries[j].label); c != 0 {
			return c < 0
		}
		return summaries[i].label < summaries[j].label
	})

	parts := make([]string, 0, 4)
	for _, sm := range summaries[:min(3, len(summaries))] {
		parts = append(parts, fmt.Sprintf("%s:%d konu", sm.label, sm.count))
	}
	if len(summaries) > 3 {
		parts = append(parts, fmt.Sprintf("+%d ders", len(summaries)-3))
	}
	return fmt.Sprintf("Koşu - %s • %d konu", strings.Join(parts, ", "), len(sel.Topics))
}

func nonNilInts(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

