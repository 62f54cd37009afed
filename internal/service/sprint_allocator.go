package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

// minSliceMinutes is the smallest chunk worth placing on a day. Smaller gaps push the
// remainder of a video to the next day.
const minSliceMinutes = 5

// AllocationInput is everything the allocator needs. Videos must already be in curriculum order.
type AllocationInput struct {
	CurriculumID       string
	Videos             []models.Video
	StartDate          string
	DailyMinutes       float64
	LessonDailyMinutes map[int64]float64
	Lessons            models.LessonIndex
}

// ScheduledChunk is the part of one video placed on one day.
type ScheduledChunk struct {
	Video           models.Video
	Date            time.Time
	DayOffset       int
	Minutes         int
	OriginalMinutes int
	PartIndex       int
	TotalParts      int
}

// Title is the video title, annotated with the part counter when the video was split.
func (c ScheduledChunk) Title() string {
	base := c.Video.DisplayTitle()
	if c.TotalParts > 1 {
		return fmt.Sprintf("%s (Part %d/%d)", base, c.PartIndex, c.TotalParts)
	}
	return base
}

// Notes carries the source URL and, for split videos, the chunk and total minutes.
func (c ScheduledChunk) Notes() *string {
	var parts []string
	if c.Video.URL != nil && *c.Video.URL != "" {
		parts = append(parts, *c.Video.URL)
	}
	if c.TotalParts > 1 {
		parts = append(parts, fmt.Sprintf("Part: %d dk / Toplam: %d dk", c.Minutes, c.OriginalMinutes))
	}
	if len(parts) == 0 {
		return nil
	}
	notes := strings.Join(parts, " • ")
	return &notes
}

// WeekAllocation holds the tasks that fall into one Monday-started week.
type WeekAllocation struct {
	WeekStart   string
	Tasks       []models.StudyTask
	DailyCounts models.DailyCounts
}

// Allocation is the allocator output: chunks in day order and their week buckets.
type Allocation struct {
	Chunks []ScheduledChunk
	Weeks  []WeekAllocation
}

// WeekStarts lists the affected week starts in ascending order.
func (a *Allocation) WeekStarts() []string {
	starts := make([]string, 0, len(a.Weeks))
	for _, w := range a.Weeks {
		starts = append(starts, w.WeekStart)
	}
	return starts
}

// TaskCount is the number of study tasks produced.
func (a *Allocation) TaskCount() int {
	return len(a.Chunks)
}

type dayBin struct {
	date          time.Time
	minutesUsed   int
	lessonMinutes map[int64]int
}

type dayBins struct {
	start time.Time
	bins  []*dayBin
}

func (d *dayBins) at(offset int) (*dayBin, error) {
	for len(d.bins) <= offset {
		d.bins = append(d.bins, &dayBin{
			date:          d.start.AddDate(0, 0, len(d.bins)),
			lessonMinutes: make(map[int64]int),
		})
	}
	bin := d.bins[offset]
	if bin == nil {
		return nil, appErrors.Clone(appErrors.ErrBinInitFailed, fmt.Sprintf("day %d could not be initialised", offset))
	}
	return bin, nil
}

// SprintAllocator spreads ordered videos over consecutive days under daily minute caps.
type SprintAllocator struct {
	newID func() string
}

// NewSprintAllocator builds an allocator. A nil id generator defaults to random UUIDs.
func NewSprintAllocator(newID func() string) *SprintAllocator {
	if newID == nil {
		newID = uuid.NewString
	}
	return &SprintAllocator{newID: newID}
}

// Allocate places every video, splitting across days when a cap is reached, and groups the
// resulting tasks by week. The result depends only on the input.
func (a *SprintAllocator) Allocate(in AllocationInput) (*Allocation, error) {
	start, err := parseStartDate(in.StartDate)
	if err != nil {
		return nil, err
	}

	dailyCap := 1
	if !math.IsNaN(in.DailyMinutes) && !math.IsInf(in.DailyMinutes, 0) {
		dailyCap = max(1, int(math.Floor(in.DailyMinutes)))
	}

	caps, zeroCaps := normalizeLessonCaps(in.LessonDailyMinutes)
	for _, v := range in.Videos {
		if v.LessonID == nil {
			continue
		}
		if _, zero := zeroCaps[*v.LessonID]; zero {
			return nil, appErrors.Clone(appErrors.ErrLessonCapZero,
				fmt.Sprintf("daily minutes for %s cannot be zero", in.Lessons.LessonLabel(*v.LessonID)))
		}
	}

	bins := &dayBins{start: start}
	chunks := make([]ScheduledChunk, 0, len(in.Videos))
	partCounter := make(map[string]int, len(in.Videos))
	cursor := 0

	for _, v := range in.Videos {
		remaining := v.ScheduledMinutes()
		original := remaining

		var lessonID int64
		lessonCap, capped := 0, false
		if v.LessonID != nil {
			lessonID = *v.LessonID
			lessonCap, capped = caps[lessonID]
		}
		minSlice := min(minSliceMinutes, dailyCap)
		if capped {
			minSlice = min(minSlice, lessonCap)
		}

		for remaining > 0 {
			bin, err := bins.at(cursor)
			if err != nil {
				return nil, err
			}

			dayRemaining := max(0, dailyCap-bin.minutesUsed)
			lessonRemaining := dayRemaining
			if capped {
				lessonRemaining = max(0, lessonCap-bin.lessonMinutes[lessonID])
			}
			usable := min(dayRemaining, lessonRemaining)
			if usable < minSlice {
				cursor++
				continue
			}

			slice := min(remaining, usable)
			partCounter[v.VideoID]++
			chunks = append(chunks, ScheduledChunk{
				Video:           v,
				Date:            bin.date,
				DayOffset:       cursor,
				Minutes:         slice,
				OriginalMinutes: original,
				PartIndex:       partCounter[v.VideoID],
			})
			bin.minutesUsed += slice
			if capped {
				bin.lessonMinutes[lessonID] += slice
			}
			remaining -= slice
			if remaining > 0 {
				cursor++
			}
		}
	}

	for i := range chunks {
		chunks[i].TotalParts = partCounter[chunks[i].Video.VideoID]
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].DayOffset < chunks[j].DayOffset
	})

	return &Allocation{Chunks: chunks, Weeks: a.bucketWeeks(in.CurriculumID, chunks)}, nil
}

func (a *SprintAllocator) bucketWeeks(curriculumID string, chunks []ScheduledChunk) []WeekAllocation {
	byWeek := make(map[string]map[models.DayKey][]models.StudyTask)
	for _, chunk := range chunks {
		weekStart := mondayOf(chunk.Date).Format(models.DateLayout)
		day := dayKeyOf(chunk.Date)
		if byWeek[weekStart] == nil {
			byWeek[weekStart] = make(map[models.DayKey][]models.StudyTask)
		}
		byWeek[weekStart][day] = append(byWeek[weekStart][day], a.newTask(curriculumID, day, chunk))
	}

	weekStarts := make([]string, 0, len(byWeek))
	for ws := range byWeek {
		weekStarts = append(weekStarts, ws)
	}
	sort.Strings(weekStarts)

	weeks := make([]WeekAllocation, 0, len(weekStarts))
	for _, ws := range weekStarts {
		var tasks []models.StudyTask
		for _, day := range models.DayKeys {
			tasks = append(tasks, byWeek[ws][day]...)
		}
		weeks = append(weeks, WeekAllocation{
			WeekStart:   ws,
			Tasks:       tasks,
			DailyCounts: models.CountTasks(tasks),
		})
	}
	return weeks
}

func (a *SprintAllocator) newTask(curriculumID string, day models.DayKey, chunk ScheduledChunk) models.StudyTask {
	task := models.StudyTask{
		ID:        a.newID(),
		Day:       day,
		Title:     chunk.Title(),
		Notes:     chunk.Notes(),
		SectionID: chunk.Video.SectionID,
		LessonID:  chunk.Video.LessonID,
	}
	if curriculumID != "" {
		id := curriculumID
		task.CurriculumID = &id
	}
	if chunk.Video.TopicID != "" {
		topic := chunk.Video.TopicID
		task.TopicID = &topic
	}
	return task
}

// normalizeLessonCaps floors the caps. Negative and non-finite entries are dropped; caps of
// exactly zero are returned separately so videos in those lessons can be rejected.
func normalizeLessonCaps(raw map[int64]float64) (map[int64]int, map[int64]struct{}) {
	caps := make(map[int64]int, len(raw))
	zero := make(map[int64]struct{})
	for lessonID, minutes := range raw {
		if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
			continue
		}
		floored := int(math.Floor(minutes))
		switch {
		case floored > 0:
			caps[lessonID] = floored
		case floored == 0:
			zero[lessonID] = struct{}{}
		}
	}
	return caps, zero
}

// parseStartDate accepts a calendar date or an RFC3339 timestamp and returns its UTC date at midnight.
func parseStartDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(models.DateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrBadDate, fmt.Sprintf("start date %q is not a valid date", raw))
}

// mondayOf returns the Monday starting the ISO week of t. Sundays belong to the preceding Monday.
func mondayOf(t time.Time) time.Time {
	wd := int(t.Weekday())
	diff := 1 - wd
	if wd == 0 {
		diff = -6
	}
	return t.AddDate(0, 0, diff)
}

func dayKeyOf(t time.Time) models.DayKey {
	return models.DayKeys[(int(t.Weekday())+6)%7]
}
