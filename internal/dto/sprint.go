package dto

// SprintSelection describes which curriculum content a sprint should cover.
type SprintSelection struct {
	CurriculumID   string           `json:"curriculumId"`
	SectionIDs     []int64          `json:"sectionIds" validate:"omitempty,dive,gt=0"`
	LessonIDs      []int64          `json:"lessonIds" validate:"omitempty,dive,gt=0"`
	TopicIDs       []string         `json:"topicIds"`
	LessonTeachers map[int64]string `json:"lessonTeachers"`
}

// GenerateSprintRequest creates a sprint and schedules its videos into week plans.
type GenerateSprintRequest struct {
	SprintSelection
	UserID             string            `json:"-"`
	StartDate          string            `json:"startDate"`
	DailyMinutes       float64           `json:"dailyMinutes"`
	LessonDailyMinutes map[int64]float64 `json:"lessonDailyMinutes"`
}

// GenerateSprintResponse returns the created sprint and the weeks that received tasks.
type GenerateSprintResponse struct {
	SprintID              string   `json:"sprintId"`
	Title                 string   `json:"title"`
	CreatedPlanWeekStarts []string `json:"createdPlanWeekStarts"`
	TaskCount             int      `json:"taskCount"`
}

// SprintEstimate previews the size of a selection without scheduling it.
type SprintEstimate struct {
	TopicCount   int `json:"topicCount"`
	VideoCount   int `json:"videoCount"`
	TotalMinutes int `json:"totalMinutes"`
}

// SprintSelectionVideo is one entry of the ordered video preview.
type SprintSelectionVideo struct {
	Order           int      `json:"order"`
	PlaylistID      string   `json:"playlistId"`
	VideoID         string   `json:"videoId"`
	Title           string   `json:"title"`
	DurationMinutes int      `json:"durationMinutes"`
	URL             *string  `json:"url,omitempty"`
	TopicID         string   `json:"topicId"`
	TopicTitle      *string  `json:"topicTitle,omitempty"`
	LessonID        *int64   `json:"lessonId,omitempty"`
	LessonName      *string  `json:"lessonName,omitempty"`
	SectionID       *int64   `json:"sectionId,omitempty"`
	SectionName     *string  `json:"sectionName,omitempty"`
	SortOrder       *float64 `json:"sortOrder,omitempty"`
}

// LessonTeachersQuery lists the teachers available for lessons of a curriculum.
type LessonTeachersQuery struct {
	CurriculumID string  `validate:"required"`
	LessonIDs    []int64 `validate:"omitempty,dive,gt=0"`
}
