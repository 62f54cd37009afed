package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/study-sprint-api/internal/models"
)

// SprintRepository persists sprints and the cleanup of their week plans.
type SprintRepository struct {
	db *sqlx.DB
}

// NewSprintRepository builds repository.
func NewSprintRepository(db *sqlx.DB) *SprintRepository {
	return &SprintRepository{db: db}
}

func (r *SprintRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a sprint, assigning id and timestamps when missing.
func (r *SprintRepository) Create(ctx context.Context, sprint *models.Sprint) error {
	now := time.Now().UTC()
	if sprint.ID == "" {
		sprint.ID = uuid.NewString()
	}
	if sprint.CreatedAt.IsZero() {
		sprint.CreatedAt = now
	}
	sprint.UpdatedAt = now

	const query = `INSERT INTO sprints (id, user_id, title, scope, cadence, status, created_at, updated_at)
VALUES (:id, :user_id, :title, :scope, :cadence, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sprint); err != nil {
		return fmt.Errorf("insert sprint: %w", err)
	}
	return nil
}

// ListByUser returns a user's sprints newest first.
func (r *SprintRepository) ListByUser(ctx context.Context, userID string) ([]models.Sprint, error) {
	const query = `SELECT id, user_id, title, scope, cadence, status, created_at, updated_at
FROM sprints WHERE user_id = $1 ORDER BY created_at DESC`
	var sprints []models.Sprint
	if err := r.db.SelectContext(ctx, &sprints, query, userID); err != nil {
		return nil, fmt.Errorf("list sprints: %w", err)
	}
	return sprints, nil
}

// PlanTotals sums task counters of the user's week plans per sprint.
func (r *SprintRepository) PlanTotals(ctx context.Context, userID string, sprintIDs []string) ([]models.SprintPlanTotals, error) {
	if len(sprintIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT sprint_id, COALESCE(SUM(total_tasks), 0) AS total_tasks, COALESCE(SUM(completed_tasks), 0) AS completed_tasks
FROM study_plans WHERE user_id = $1 AND sprint_id = ANY($2) GROUP BY sprint_id`
	var totals []models.SprintPlanTotals
	if err := r.db.SelectContext(ctx, &totals, query, userID, pq.Array(sprintIDs)); err != nil {
		return nil, fmt.Errorf("sum sprint plan totals: %w", err)
	}
	return totals, nil
}

// ContentStats returns section, lesson and topic counts aggregated by the database for a sprint.
func (r *SprintRepository) ContentStats(ctx context.Context, sprintID string) (*models.SprintContentStats, error) {
	const query = `SELECT section_count, lesson_count, topic_count FROM get_sprint_content_stats($1)`
	var stats models.SprintContentStats
	if err := r.db.GetContext(ctx, &stats, query, sprintID); err != nil {
		return nil, fmt.Errorf("sprint content stats: %w", err)
	}
	return &stats, nil
}

// PlanIDs lists the week plans generated by a sprint.
func (r *SprintRepository) PlanIDs(ctx context.Context, exec sqlx.ExtContext, userID, sprintID string) ([]string, error) {
	const query = `SELECT id FROM study_plans WHERE user_id = $1 AND sprint_id = $2`
	var ids []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, userID, sprintID); err != nil {
		return nil, fmt.Errorf("list sprint plan ids: %w", err)
	}
	return ids, nil
}

// DeleteTasksByPlans removes the tasks of the given plans.
func (r *SprintRepository) DeleteTasksByPlans(ctx context.Context, exec sqlx.ExtContext, planIDs []string) error {
	if len(planIDs) == 0 {
		return nil
	}
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM study_plan_tasks WHERE plan_id = ANY($1)`, pq.Array(planIDs)); err != nil {
		return fmt.Errorf("delete sprint tasks: %w", err)
	}
	return nil
}

// DeleteDailyStatsByPlans removes the daily counters of the given plans.
func (r *SprintRepository) DeleteDailyStatsByPlans(ctx context.Context, exec sqlx.ExtContext, planIDs []string) error {
	if len(planIDs) == 0 {
		return nil
	}
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM study_plan_daily_stats WHERE plan_id = ANY($1)`, pq.Array(planIDs)); err != nil {
		return fmt.Errorf("delete sprint daily stats: %w", err)
	}
	return nil
}

// DeletePlans removes the week plans linked to a sprint.
func (r *SprintRepository) DeletePlans(ctx context.Context, exec sqlx.ExtContext, userID, sprintID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM study_plans WHERE user_id = $1 AND sprint_id = $2`, userID, sprintID); err != nil {
		return fmt.Errorf("delete sprint plans: %w", err)
	}
	return nil
}

// Delete removes the sprint row and reports whether it existed.
func (r *SprintRepository) Delete(ctx context.Context, exec sqlx.ExtContext, userID, sprintID string) (bool, error) {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM sprints WHERE id = $1 AND user_id = $2`, sprintID, userID)
	if err != nil {
		return false, fmt.Errorf("delete sprint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete sprint rows affected: %w", err)
	}
	return affected > 0, nil
}
