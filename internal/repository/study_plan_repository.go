package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/study-sprint-api/internal/models"
)

// StudyPlanRepository persists week plans, their tasks and daily counters.
type StudyPlanRepository struct {
	db *sqlx.DB
}

// NewStudyPlanRepository builds repository.
func NewStudyPlanRepository(db *sqlx.DB) *StudyPlanRepository {
	return &StudyPlanRepository{db: db}
}

func (r *StudyPlanRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByUserWeek returns the plan for a user and week start, or nil when none exists.
func (r *StudyPlanRepository) FindByUserWeek(ctx context.Context, exec sqlx.ExtContext, userID, weekStart string) (*models.StudyPlan, error) {
	const query = `SELECT id, user_id, week_start, total_tasks, completed_tasks, completion_rate, sprint_id, created_at, updated_at
FROM study_plans WHERE user_id = $1 AND week_start = $2`
	var plan models.StudyPlan
	if err := sqlx.GetContext(ctx, r.exec(exec), &plan, query, userID, weekStart); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get study plan: %w", err)
	}
	return &plan, nil
}

// ListTasks returns the tasks of a plan in creation order.
func (r *StudyPlanRepository) ListTasks(ctx context.Context, exec sqlx.ExtContext, planID string) ([]models.StudyTask, error) {
	const query = `SELECT id, plan_id, day, title, notes, completed, curriculum_id, section_id, lesson_id, topic_uuid, created_at, updated_at
FROM study_plan_tasks WHERE plan_id = $1 ORDER BY created_at ASC, id ASC`
	var tasks []models.StudyTask
	if err := sqlx.SelectContext(ctx, r.exec(exec), &tasks, query, planID); err != nil {
		return nil, fmt.Errorf("list study plan tasks: %w", err)
	}
	return tasks, nil
}

// ListDailyStats returns the per-day counters of a plan.
func (r *StudyPlanRepository) ListDailyStats(ctx context.Context, planID string) ([]models.DailyStat, error) {
	const query = `SELECT plan_id, day, total, completed FROM study_plan_daily_stats WHERE plan_id = $1`
	var stats []models.DailyStat
	if err := r.db.SelectContext(ctx, &stats, query, planID); err != nil {
		return nil, fmt.Errorf("list study plan daily stats: %w", err)
	}
	return stats, nil
}

// UpsertPlan inserts or updates the plan keyed by user and week start and sets plan.ID.
// An existing sprint link is kept when the plan carries none.
func (r *StudyPlanRepository) UpsertPlan(ctx context.Context, exec sqlx.ExtContext, plan *models.StudyPlan) error {
	now := time.Now().UTC()
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	const query = `
INSERT INTO study_plans (id, user_id, week_start, total_tasks, completed_tasks, completion_rate, sprint_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (user_id, week_start) DO UPDATE
SET total_tasks = EXCLUDED.total_tasks,
    completed_tasks = EXCLUDED.completed_tasks,
    completion_rate = EXCLUDED.completion_rate,
    sprint_id = COALESCE(EXCLUDED.sprint_id, study_plans.sprint_id),
    updated_at = EXCLUDED.updated_at
RETURNING id`

	row := r.exec(exec).QueryRowxContext(ctx, query,
		plan.ID, plan.UserID, plan.WeekStart.Format(models.DateLayout), plan.TotalTasks, plan.CompletedTasks,
		plan.CompletionRate, plan.SprintID, plan.CreatedAt, plan.UpdatedAt)
	if err := row.Scan(&plan.ID); err != nil {
		return fmt.Errorf("upsert study plan: %w", err)
	}
	return nil
}

// UpsertTasks inserts or updates tasks keyed by id.
func (r *StudyPlanRepository) UpsertTasks(ctx context.Context, exec sqlx.ExtContext, tasks []models.StudyTask) error {
	if len(tasks) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO study_plan_tasks (id, plan_id, day, title, notes, completed, curriculum_id, section_id, lesson_id, topic_uuid, created_at, updated_at)
VALUES (:id, :plan_id, :day, :title, :notes, :completed, :curriculum_id, :section_id, :lesson_id, :topic_uuid, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE
SET plan_id = EXCLUDED.plan_id,
    day = EXCLUDED.day,
    title = EXCLUDED.title,
    notes = EXCLUDED.notes,
    completed = EXCLUDED.completed,
    curriculum_id = EXCLUDED.curriculum_id,
    section_id = EXCLUDED.section_id,
    lesson_id = EXCLUDED.lesson_id,
    topic_uuid = EXCLUDED.topic_uuid,
    updated_at = EXCLUDED.updated_at`

	for i := range tasks {
		task := &tasks[i]
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		task.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, task); err != nil {
			return fmt.Errorf("upsert study plan task: %w", err)
		}
	}
	return nil
}

// DeleteTasksExcept removes tasks of a plan whose id is not in keepIDs. An empty keep list clears the plan.
func (r *StudyPlanRepository) DeleteTasksExcept(ctx context.Context, exec sqlx.ExtContext, planID string, keepIDs []string) error {
	target := r.exec(exec)
	if len(keepIDs) == 0 {
		if _, err := target.ExecContext(ctx, `DELETE FROM study_plan_tasks WHERE plan_id = $1`, planID); err != nil {
			return fmt.Errorf("clear study plan tasks: %w", err)
		}
		return nil
	}
	const query = `DELETE FROM study_plan_tasks WHERE plan_id = $1 AND NOT (id = ANY($2))`
	if _, err := target.ExecContext(ctx, query, planID, pq.Array(keepIDs)); err != nil {
		return fmt.Errorf("prune study plan tasks: %w", err)
	}
	return nil
}

// UpsertDailyStats inserts or updates counters keyed by plan and day.
func (r *StudyPlanRepository) UpsertDailyStats(ctx context.Context, exec sqlx.ExtContext, stats []models.DailyStat) error {
	target := r.exec(exec)
	const query = `
INSERT INTO study_plan_daily_stats (plan_id, day, total, completed)
VALUES (:plan_id, :day, :total, :completed)
ON CONFLICT (plan_id, day) DO UPDATE
SET total = EXCLUDED.total,
    completed = EXCLUDED.completed`

	for i := range stats {
		if _, err := sqlx.NamedExecContext(ctx, target, query, stats[i]); err != nil {
			return fmt.Errorf("upsert study plan daily stat: %w", err)
		}
	}
	return nil
}
