package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

type planStoreStub struct {
	plan      *models.StudyPlan
	tasks     []models.StudyTask
	stats     []models.DailyStat
	upsertErr error

	savedPlan    *models.StudyPlan
	savedTasks   []models.StudyTask
	savedStats   []models.DailyStat
	keptIDs      []string
	pruneCalled  bool
	listedPlanID string
}

func (s *planStoreStub) FindByUserWeek(ctx context.Context, exec sqlx.ExtContext, userID, weekStart string) (*models.StudyPlan, error) {
	return s.plan, nil
}

func (s *planStoreStub) ListTasks(ctx context.Context, exec sqlx.ExtContext, planID string) ([]models.StudyTask, error) {
	s.listedPlanID = planID
	return s.tasks, nil
}

func (s *planStoreStub) ListDailyStats(ctx context.Context, planID string) ([]models.DailyStat, error) {
	return s.stats, nil
}

func (s *planStoreStub) UpsertPlan(ctx context.Context, exec sqlx.ExtContext, plan *models.StudyPlan) error {
	if plan.ID == "" {
		plan.ID = "plan-new"
	}
	s.savedPlan = plan
	return nil
}

func (s *planStoreStub) UpsertTasks(ctx context.Context, exec sqlx.ExtContext, tasks []models.StudyTask) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.savedTasks = tasks
	return nil
}

func (s *planStoreStub) DeleteTasksExcept(ctx context.Context, exec sqlx.ExtContext, planID string, keepIDs []string) error {
	s.pruneCalled = true
	s.keptIDs = keepIDs
	return nil
}

func (s *planStoreStub) UpsertDailyStats(ctx context.Context, exec sqlx.ExtContext, stats []models.DailyStat) error {
	s.savedStats = stats
	return nil
}

func planTask(id string, day models.DayKey, completed bool) models.StudyTask {
	return models.StudyTask{ID: id, Day: day, Title: "Task " + id, Completed: completed}
}

func TestStudyPlanServicePersistWeekAppendsToExistingPlan(t *testing.T) {
	db, mock := newTxDB(t)
	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	store := &planStoreStub{
		plan: &models.StudyPlan{ID: "plan-1", UserID: "user-1", CreatedAt: created},
		tasks: []models.StudyTask{
			planTask("a", models.DayMonday, true),
			planTask("b", models.DayTuesday, false),
		},
	}
	svc := NewStudyPlanService(store, db, time.Second, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	sprintID := "sprint-1"
	replacement := planTask("b", models.DayTuesday, true)
	planID, err := svc.PersistWeek(context.Background(), dto.PersistWeekRequest{
		UserID:    "user-1",
		WeekStart: "2024-01-01",
		Tasks:     []models.StudyTask{replacement, planTask("c", models.DaySunday, false)},
		Options:   dto.PersistWeekOptions{SprintID: &sprintID, Append: true},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "plan-1", planID)
	assert.Equal(t, "plan-1", store.listedPlanID)
	assert.False(t, store.pruneCalled)

	require.Len(t, store.savedTasks, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{store.savedTasks[0].ID, store.savedTasks[1].ID, store.savedTasks[2].ID})
	assert.True(t, store.savedTasks[1].Completed)
	for _, task := range store.savedTasks {
		assert.Equal(t, "plan-1", task.PlanID)
	}

	require.NotNil(t, store.savedPlan)
	assert.Equal(t, created, store.savedPlan.CreatedAt)
	assert.Equal(t, 3, store.savedPlan.TotalTasks)
	assert.Equal(t, 2, store.savedPlan.CompletedTasks)
	assert.InDelta(t, 66.666, store.savedPlan.CompletionRate, 0.01)
	require.NotNil(t, store.savedPlan.SprintID)
	assert.Equal(t, "sprint-1", *store.savedPlan.SprintID)

	require.Len(t, store.savedStats, 7)
	assert.Equal(t, models.DayMonday, store.savedStats[0].Day)
	assert.Equal(t, models.DailyStat{PlanID: "plan-1", Day: models.DayTuesday, Total: 1, Completed: 1}, store.savedStats[1])
	assert.Equal(t, models.DailyStat{PlanID: "plan-1", Day: models.DaySunday, Total: 1}, store.savedStats[6])
	assert.Equal(t, models.DailyStat{PlanID: "plan-1", Day: models.DayFriday}, store.savedStats[4])
}

func TestStudyPlanServicePersistWeekReplacePrunesTasks(t *testing.T) {
	db, mock := newTxDB(t)
	store := &planStoreStub{
		plan:  &models.StudyPlan{ID: "plan-1", UserID: "user-1"},
		tasks: []models.StudyTask{planTask("old", models.DayMonday, false)},
	}
	svc := NewStudyPlanService(store, db, time.Second, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.PersistWeek(context.Background(), dto.PersistWeekRequest{
		UserID:    "user-1",
		WeekStart: "2024-01-01",
		Tasks:     []models.StudyTask{planTask("new", models.DayWednesday, false)},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Empty(t, store.listedPlanID)
	assert.True(t, store.pruneCalled)
	assert.Equal(t, []string{"new"}, store.keptIDs)
	assert.Equal(t, 1, store.savedPlan.TotalTasks)
	assert.Nil(t, store.savedPlan.SprintID)
}

func TestStudyPlanServicePersistWeekCreatesPlan(t *testing.T) {
	db, mock := newTxDB(t)
	store := &planStoreStub{}
	svc := NewStudyPlanService(store, db, time.Second, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	planID, err := svc.PersistWeek(context.Background(), dto.PersistWeekRequest{
		UserID:    "user-1",
		WeekStart: "2024-01-08",
		Tasks:     []models.StudyTask{planTask("x", models.DayMonday, false)},
		Options:   dto.PersistWeekOptions{Append: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "plan-new", planID)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), store.savedPlan.WeekStart)
	assert.Zero(t, store.savedPlan.CompletionRate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanServicePersistWeekRollsBackOnFailure(t *testing.T) {
	db, mock := newTxDB(t)
	store := &planStoreStub{upsertErr: fmt.Errorf("insert tasks: connection reset")}
	svc := NewStudyPlanService(store, db, time.Second, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.PersistWeek(context.Background(), dto.PersistWeekRequest{
		UserID:    "user-1",
		WeekStart: "2024-01-01",
		Tasks:     []models.StudyTask{planTask("x", models.DayMonday, false)},
	})
	require.Error(t, err)
	assert.Equal(t, "STORAGE_ERROR", appErrors.CodeOf(err))
	assert.Nil(t, store.savedStats)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanServicePersistWeekValidatesInput(t *testing.T) {
	db, _ := newTxDB(t)
	svc := NewStudyPlanService(&planStoreStub{}, db, time.Second, nil, nil, nil)

	_, err := svc.PersistWeek(context.Background(), dto.PersistWeekRequest{WeekStart: "2024-01-01"})
	assert.True(t, errors.Is(err, appErrors.ErrNoUser))

	_, err = svc.PersistWeek(context.Background(), dto.PersistWeekRequest{UserID: "user-1", WeekStart: "2024-02-30"})
	assert.True(t, errors.Is(err, appErrors.ErrBadDate))

	_, err = svc.PersistWeek(context.Background(), dto.PersistWeekRequest{UserID: "user-1"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	noTx := NewStudyPlanService(&planStoreStub{}, nil, time.Second, nil, nil, nil)
	_, err = noTx.PersistWeek(context.Background(), dto.PersistWeekRequest{UserID: "user-1", WeekStart: "2024-01-01"})
	assert.Equal(t, "INTERNAL_ERROR", appErrors.CodeOf(err))
}

func TestStudyPlanServiceGetWeekFillsEveryDay(t *testing.T) {
	store := &planStoreStub{
		plan:  &models.StudyPlan{ID: "plan-1", UserID: "user-1", TotalTasks: 2},
		stats: []models.DailyStat{{PlanID: "plan-1", Day: models.DayWednesday, Total: 2, Completed: 1}},
	}
	svc := NewStudyPlanService(store, nil, time.Second, nil, nil, nil)

	week, err := svc.GetWeek(context.Background(), "user-1", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "plan-1", week.Plan.ID)
	assert.NotNil(t, week.Tasks)
	assert.Empty(t, week.Tasks)
	require.Len(t, week.DailyStats, 7)
	assert.Equal(t, 2, week.DailyStats[2].Total)
	assert.Equal(t, models.DailyStat{PlanID: "plan-1", Day: models.DaySunday}, week.DailyStats[6])
}

func TestStudyPlanServiceGetWeekErrors(t *testing.T) {
	svc := NewStudyPlanService(&planStoreStub{}, nil, time.Second, nil, nil, nil)

	_, err := svc.GetWeek(context.Background(), "user-1", "2024-01-01")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.GetWeek(context.Background(), "user-1", "01-01-2024")
	assert.True(t, errors.Is(err, appErrors.ErrBadDate))

	_, err = svc.GetWeek(context.Background(), "", "2024-01-01")
	assert.True(t, errors.Is(err, appErrors.ErrNoUser))
}

func TestMergeTasksReplacesInPlace(t *testing.T) {
	merged := mergeTasks(
		[]models.StudyTask{planTask("a", models.DayMonday, false), planTask("b", models.DayMonday, false)},
		[]models.StudyTask{planTask("a", models.DayFriday, true), planTask("c", models.DayMonday, false)},
	)
	require.Len(t, merged, 3)
	assert.Equal(t, models.DayFriday, merged[0].Day)
	assert.True(t, merged[0].Completed)
	assert.Equal(t, "c", merged[2].ID)
}
