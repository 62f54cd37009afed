package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-sprint-api/internal/models"
)

func TestStudyPlanRepositoryFindByUserWeekMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM study_plans WHERE user_id = $1 AND week_start = $2")).
		WithArgs("user-1", "2024-01-01").
		WillReturnError(sql.ErrNoRows)

	plan, err := repo.FindByUserWeek(context.Background(), nil, "user-1", "2024-01-01")
	require.NoError(t, err)
	assert.Nil(t, plan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryUpsertPlanReturnsExistingID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	sprintID := "sprint-1"
	plan := &models.StudyPlan{
		UserID:         "user-1",
		WeekStart:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalTasks:     4,
		CompletedTasks: 1,
		CompletionRate: 25,
		SprintID:       &sprintID,
	}

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (user_id, week_start) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "user-1", "2024-01-01", 4, 1, 25.0, sprintID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("plan-existing"))

	require.NoError(t, repo.UpsertPlan(context.Background(), nil, plan))
	assert.Equal(t, "plan-existing", plan.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryUpsertTasks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO study_plan_tasks")).
		WithArgs("task-1", "plan-1", "monday", "Limit (Part 1/2)", sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO study_plan_tasks")).
		WithArgs(sqlmock.AnyArg(), "plan-1", "tuesday", "Limit (Part 2/2)", sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	tasks := []models.StudyTask{
		{ID: "task-1", PlanID: "plan-1", Day: models.DayMonday, Title: "Limit (Part 1/2)"},
		{PlanID: "plan-1", Day: models.DayTuesday, Title: "Limit (Part 2/2)"},
	}
	require.NoError(t, repo.UpsertTasks(context.Background(), nil, tasks))
	assert.NotEmpty(t, tasks[1].ID)
	assert.False(t, tasks[1].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryDeleteTasksExcept(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM study_plan_tasks WHERE plan_id = $1 AND NOT (id = ANY($2))")).
		WithArgs("plan-1", `{"task-1"}`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM study_plan_tasks WHERE plan_id = $1")).
		WithArgs("plan-2").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteTasksExcept(context.Background(), nil, "plan-1", []string{"task-1"}))
	require.NoError(t, repo.DeleteTasksExcept(context.Background(), nil, "plan-2", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryUpsertDailyStatsInTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (plan_id, day) DO UPDATE")).
		WithArgs("plan-1", "monday", 2, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.UpsertDailyStats(context.Background(), tx, []models.DailyStat{{PlanID: "plan-1", Day: models.DayMonday, Total: 2}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
