package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type studyPlanStore interface {
	FindByUserWeek(ctx context.Context, exec sqlx.ExtContext, userID, weekStart string) (*models.StudyPlan, error)
	ListTasks(ctx context.Context, exec sqlx.ExtContext, planID string) ([]models.StudyTask, error)
	ListDailyStats(ctx context.Context, planID string) ([]models.DailyStat, error)
	UpsertPlan(ctx context.Context, exec sqlx.ExtContext, plan *models.StudyPlan) error
	UpsertTasks(ctx context.Context, exec sqlx.ExtContext, tasks []models.StudyTask) error
	DeleteTasksExcept(ctx context.Context, exec sqlx.ExtContext, planID string, keepIDs []string) error
	UpsertDailyStats(ctx context.Context, exec sqlx.ExtContext, stats []models.DailyStat) error
}

// StudyPlanService reads and writes week plans.
type StudyPlanService struct {
	plans     studyPlanStore
	tx        txProvider
	lookups   lookupRunner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudyPlanService wires the week plan store.
func NewStudyPlanService(plans studyPlanStore, tx txProvider, timeout time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StudyPlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudyPlanService{
		plans:     plans,
		tx:        tx,
		lookups:   newLookupRunner(timeout, metrics),
		validator: validate,
		logger:    logger,
	}
}

// PersistWeek writes one week inside its own transaction and returns the plan id.
// With Append, existing tasks are kept and merged by id with the new ones winning; otherwise
// tasks missing from the request are deleted. Counters are recomputed from the resulting set.
func (s *StudyPlanService) PersistWeek(ctx context.Context, req dto.PersistWeekRequest) (string, error) {
	if req.UserID == "" {
		return "", appErrors.ErrNoUser
	}
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week plan payload")
	}
	weekStart, err := time.Parse(models.DateLayout, req.WeekStart)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrBadDate, "week start must be a calendar date")
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	var planID string
	err = lookupExec(ctx, s.lookups, "persist_week", func(c context.Context) (err error) {
		tx, err := s.tx.BeginTxx(c, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()

		existing, err := s.plans.FindByUserWeek(c, tx, req.UserID, req.WeekStart)
		if err != nil {
			return err
		}

		tasks := req.Tasks
		if req.Options.Append && existing != nil {
			current, listErr := s.plans.ListTasks(c, tx, existing.ID)
			if listErr != nil {
				err = listErr
				return err
			}
			tasks = mergeTasks(current, req.Tasks)
		}

		counts := models.CountTasks(tasks)
		total, completed := counts.Totals()
		plan := &models.StudyPlan{
			UserID:         req.UserID,
			WeekStart:      weekStart,
			TotalTasks:     total,
			CompletedTasks: completed,
			CompletionRate: completionRate(total, completed),
			SprintID:       req.Options.SprintID,
		}
		if existing != nil {
			plan.ID = existing.ID
			plan.CreatedAt = existing.CreatedAt
		}
		if err = s.plans.UpsertPlan(c, tx, plan); err != nil {
			return err
		}

		rows := make([]models.StudyTask, len(tasks))
		copy(rows, tasks)
		for i := range rows {
			rows[i].PlanID = plan.ID
		}
		if err = s.plans.UpsertTasks(c, tx, rows); err != nil {
			return err
		}

		if !req.Options.Append {
			keep := make([]string, 0, len(rows))
			for _, t := range rows {
				keep = append(keep, t.ID)
			}
			if err = s.plans.DeleteTasksExcept(c, tx, plan.ID, keep); err != nil {
				return err
			}
		}

		stats := make([]models.DailyStat, 0, len(models.DayKeys))
		for _, day := range models.DayKeys {
			stat := counts[day]
			stat.PlanID = plan.ID
			stats = append(stats, stat)
		}
		if err = s.plans.UpsertDailyStats(c, tx, stats); err != nil {
			return err
		}

		if err = tx.Commit(); err != nil {
			return err
		}
		planID = plan.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Debug("week plan persisted",
		zap.String("user_id", req.UserID),
		zap.String("week_start", req.WeekStart),
		zap.String("plan_id", planID),
		zap.Int("new_tasks", len(req.Tasks)),
		zap.Bool("append", req.Options.Append),
	)
	return planID, nil
}

// GetWeek returns the plan, tasks and counters of one week. Every weekday has a counter.
func (s *StudyPlanService) GetWeek(ctx context.Context, userID, weekStart string) (*models.StudyPlanWeek, error) {
	if userID == "" {
		return nil, appErrors.ErrNoUser
	}
	if _, err := time.Parse(models.DateLayout, weekStart); err != nil {
		return nil, appErrors.Clone(appErrors.ErrBadDate, "week start must be a calendar date")
	}

	plan, err := lookup(ctx, s.lookups, "study_plan_by_week", func(c context.Context) (*models.StudyPlan, error) {
		return s.plans.FindByUserWeek(c, nil, userID, weekStart)
	})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
	}

	tasks, err := lookup(ctx, s.lookups, "study_plan_tasks", func(c context.Context) ([]models.StudyTask, error) {
		return s.plans.ListTasks(c, nil, plan.ID)
	})
	if err != nil {
		return nil, err
	}
	rows, err := lookup(ctx, s.lookups, "study_plan_daily_stats", func(c context.Context) ([]models.DailyStat, error) {
		return s.plans.ListDailyStats(c, plan.ID)
	})
	if err != nil {
		return nil, err
	}

	byDay := make(map[models.DayKey]models.DailyStat, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row
	}
	stats := make([]models.DailyStat, 0, len(models.DayKeys))
	for _, day := range models.DayKeys {
		stat, ok := byDay[day]
		if !ok {
			stat = models.DailyStat{PlanID: plan.ID, Day: day}
		}
		stats = append(stats, stat)
	}
	if tasks == nil {
		tasks = []models.StudyTask{}
	}

	return &models.StudyPlanWeek{Plan: *plan, Tasks: tasks, DailyStats: stats}, nil
}

// mergeTasks unions two task lists by id. Entries of incoming replace existing ones in place.
func mergeTasks(existing, incoming []models.StudyTask) []models.StudyTask {
	merged := make([]models.StudyTask, 0, len(existing)+len(incoming))
	position := make(map[string]int, len(existing)+len(incoming))
	for _, list := range [][]models.StudyTask{existing, incoming} {
		for _, t := range list {
			if idx, ok := position[t.ID]; ok {
				merged[idx] = t
				continue
			}
			position[t.ID] = len(merged)
			merged = append(merged, t)
		}
	}
	return merged
}

func completionRate(total, completed int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
