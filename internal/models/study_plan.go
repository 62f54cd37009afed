package models

import "time"

// DayKey names a weekday inside a study plan week.
type DayKey string

const (
	DayMonday    DayKey = "monday"
	DayTuesday   DayKey = "tuesday"
	DayWednesday DayKey = "wednesday"
	DayThursday  DayKey = "thursday"
	DayFriday    DayKey = "friday"
	DaySaturday  DayKey = "saturday"
	DaySunday    DayKey = "sunday"
)

// DayKeys lists the weekdays in plan order.
var DayKeys = []DayKey{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday, DaySaturday, DaySunday}

// DateLayout is the calendar date format used for week starts and sprint start dates.
const DateLayout = "2006-01-02"

// StudyPlan is one user's plan for a Monday-started week.
type StudyPlan struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	WeekStart      time.Time `db:"week_start" json:"week_start"`
	TotalTasks     int       `db:"total_tasks" json:"total_tasks"`
	CompletedTasks int       `db:"completed_tasks" json:"completed_tasks"`
	CompletionRate float64   `db:"completion_rate" json:"completion_rate"`
	SprintID       *string   `db:"sprint_id" json:"sprint_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StudyTask is a single scheduled item in a week plan.
type StudyTask struct {
	ID           string    `db:"id" json:"id"`
	PlanID       string    `db:"plan_id" json:"plan_id"`
	Day          DayKey    `db:"day" json:"day"`
	Title        string    `db:"title" json:"title"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	Completed    bool      `db:"completed" json:"completed"`
	CurriculumID *string   `db:"curriculum_id" json:"curriculum_id,omitempty"`
	SectionID    *int64    `db:"section_id" json:"section_id,omitempty"`
	LessonID     *int64    `db:"lesson_id" json:"lesson_id,omitempty"`
	TopicID      *string   `db:"topic_uuid" json:"topic_uuid,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DailyStat counts tasks scheduled and completed on one weekday of a plan.
type DailyStat struct {
	PlanID    string `db:"plan_id" json:"plan_id"`
	Day       DayKey `db:"day" json:"day"`
	Total     int    `db:"total" json:"total"`
	Completed int    `db:"completed" json:"completed"`
}

// DailyCounts maps every weekday to its counters.
type DailyCounts map[DayKey]DailyStat

// CountTasks derives per-day totals from a task list. Every weekday is present.
func CountTasks(tasks []StudyTask) DailyCounts {
	counts := make(DailyCounts, len(DayKeys))
	for _, day := range DayKeys {
		counts[day] = DailyStat{Day: day}
	}
	for _, task := range tasks {
		stat, ok := counts[task.Day]
		if !ok {
			continue
		}
		stat.Total++
		if task.Completed {
			stat.Completed++
		}
		counts[task.Day] = stat
	}
	return counts
}

// Totals sums the counters across the week.
func (d DailyCounts) Totals() (total, completed int) {
	for _, stat := range d {
		total += stat.Total
		completed += stat.Completed
	}
	return total, completed
}

// StudyPlanWeek bundles a plan with its tasks and daily counters.
type StudyPlanWeek struct {
	Plan       StudyPlan   `json:"plan"`
	Tasks      []StudyTask `json:"tasks"`
	DailyStats []DailyStat `json:"daily_stats"`
}
