package models

import (
	"testing"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSprintScopeDropsMalformedEntries(t *testing.T) {
	raw := types.JSONText(`{
		"curriculum_id": 7,
		"sections": [1, "2", "abc", null],
		"lessons": ["NaN", 3],
		"topics": ["t-1", 42, "", null],
		"lesson_teachers": {"3": "  Ayşe Kaya ", "x": "Mehmet", "4": "   "}
	}`)

	scope := ParseSprintScope(raw)
	require.NotNil(t, scope.CurriculumID)
	assert.Equal(t, "7", *scope.CurriculumID)
	assert.Equal(t, []int64{1, 2}, scope.Sections)
	assert.Equal(t, []int64{3}, scope.Lessons)
	assert.Equal(t, []string{"t-1", "42"}, scope.Topics)
	assert.Equal(t, map[int64]string{3: "Ayşe Kaya"}, scope.LessonTeachers)
}

func TestParseSprintScopeInvalidJSON(t *testing.T) {
	scope := ParseSprintScope(types.JSONText(`not json`))
	assert.Nil(t, scope.CurriculumID)
	assert.Empty(t, scope.Sections)
	assert.NotNil(t, scope.LessonTeachers)
}

func TestParseSprintCadenceClampsMinutes(t *testing.T) {
	raw := types.JSONText(`{
		"start_date": "2024-01-01",
		"daily_minutes": -15,
		"lesson_daily_minutes": {"1": 29.6, "2": "-3", "oops": 10, "3": "many"}
	}`)

	cadence := ParseSprintCadence(raw)
	require.NotNil(t, cadence.StartDate)
	assert.Equal(t, "2024-01-01", *cadence.StartDate)
	require.NotNil(t, cadence.DailyMinutes)
	assert.Zero(t, *cadence.DailyMinutes)
	assert.Equal(t, map[int64]int{1: 30, 2: 0}, cadence.LessonDailyMinutes)
}

func TestParseSprintCadenceEmpty(t *testing.T) {
	cadence := ParseSprintCadence(nil)
	assert.Nil(t, cadence.StartDate)
	assert.Nil(t, cadence.DailyMinutes)
	assert.Empty(t, cadence.LessonDailyMinutes)
}
