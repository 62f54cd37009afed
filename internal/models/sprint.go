package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SprintStatus tracks the lifecycle of a sprint.
type SprintStatus string

const (
	SprintStatusActive    SprintStatus = "active"
	SprintStatusCompleted SprintStatus = "completed"
	SprintStatusArchived  SprintStatus = "archived"
)

// Sprint is the parent record of a generated multi-week plan.
type Sprint struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Title     string         `db:"title" json:"title"`
	Scope     types.JSONText `db:"scope" json:"scope"`
	Cadence   types.JSONText `db:"cadence" json:"cadence"`
	Status    SprintStatus   `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// SprintScope is the persisted selection a sprint was generated from.
type SprintScope struct {
	CurriculumID   *string          `json:"curriculum_id"`
	Sections       []int64          `json:"sections"`
	Lessons        []int64          `json:"lessons"`
	Topics         []string         `json:"topics"`
	LessonTeachers map[int64]string `json:"lesson_teachers"`
}

// SprintCadence is the persisted pacing a sprint was generated with.
type SprintCadence struct {
	StartDate          *string       `json:"start_date"`
	DailyMinutes       *int          `json:"daily_minutes"`
	LessonDailyMinutes map[int64]int `json:"lesson_daily_minutes"`
}

type rawScope struct {
	CurriculumID   interface{}            `json:"curriculum_id"`
	Sections       []interface{}          `json:"sections"`
	Lessons        []interface{}          `json:"lessons"`
	Topics         []interface{}          `json:"topics"`
	LessonTeachers map[string]interface{} `json:"lesson_teachers"`
}

type rawCadence struct {
	StartDate          interface{}            `json:"start_date"`
	DailyMinutes       interface{}            `json:"daily_minutes"`
	LessonDailyMinutes map[string]interface{} `json:"lesson_daily_minutes"`
}

// ParseSprintScope decodes stored scope JSON leniently, dropping malformed entries.
func ParseSprintScope(raw types.JSONText) SprintScope {
	scope := SprintScope{Sections: []int64{}, Lessons: []int64{}, Topics: []string{}, LessonTeachers: map[int64]string{}}
	var r rawScope
	if len(raw) == 0 || json.Unmarshal(raw, &r) != nil {
		return scope
	}
	if s := stringOf(r.CurriculumID); s != "" {
		scope.CurriculumID = &s
	}
	scope.Sections = intsOf(r.Sections)
	scope.Lessons = intsOf(r.Lessons)
	for _, v := range r.Topics {
		if s := stringOf(v); s != "" {
			scope.Topics = append(scope.Topics, s)
		}
	}
	for key, value := range r.LessonTeachers {
		id, ok := numberOf(key)
		teacher := strings.TrimSpace(stringOf(value))
		if ok && teacher != "" {
			scope.LessonTeachers[int64(id)] = teacher
		}
	}
	return scope
}

// ParseSprintCadence decodes stored cadence JSON leniently, clamping minutes at zero.
func ParseSprintCadence(raw types.JSONText) SprintCadence {
	cadence := SprintCadence{LessonDailyMinutes: map[int64]int{}}
	var r rawCadence
	if len(raw) == 0 || json.Unmarshal(raw, &r) != nil {
		return cadence
	}
	if s := stringOf(r.StartDate); s != "" {
		cadence.StartDate = &s
	}
	if daily, ok := numberOf(r.DailyMinutes); ok {
		minutes := int(math.Max(0, math.Round(daily)))
		cadence.DailyMinutes = &minutes
	}
	for key, value := range r.LessonDailyMinutes {
		id, okID := numberOf(key)
		minutes, okMinutes := numberOf(value)
		if okID && okMinutes {
			cadence.LessonDailyMinutes[int64(id)] = int(math.Max(0, math.Round(minutes)))
		}
	}
	return cadence
}

// SprintContentStats holds curriculum counts aggregated for a sprint.
type SprintContentStats struct {
	SectionCount int `db:"section_count" json:"section_count"`
	LessonCount  int `db:"lesson_count" json:"lesson_count"`
	TopicCount   int `db:"topic_count" json:"topic_count"`
}

// SprintPlanTotals sums task counters over the week plans of a sprint.
type SprintPlanTotals struct {
	SprintID       string `db:"sprint_id"`
	TotalTasks     int    `db:"total_tasks"`
	CompletedTasks int    `db:"completed_tasks"`
}

// SprintSummary is the listing view of a sprint.
type SprintSummary struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Status         SprintStatus  `json:"status"`
	Scope          SprintScope   `json:"scope"`
	Cadence        SprintCadence `json:"cadence"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	TotalTasks     int           `json:"total_tasks"`
	CompletedTasks int           `json:"completed_tasks"`
	CompletionRate float64       `json:"completion_rate"`
	SectionCount   int           `json:"section_count"`
	LessonCount    int           `json:"lesson_count"`
	TopicCount     int           `json:"topic_count"`
}

func stringOf(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

func numberOf(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, !math.IsNaN(val) && !math.IsInf(val, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func intsOf(values []interface{}) []int64 {
	out := make([]int64, 0, len(values))
	for _, v := range values {
		if n, ok := numberOf(v); ok {
			out = append(out, int64(n))
		}
	}
	return out
}
