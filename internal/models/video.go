package models

import "math"

// Video is a playlist item tagged with a curriculum topic.
type Video struct {
	PlaylistID      string   `db:"playlist_id" json:"playlist_id"`
	VideoID         string   `db:"video_id" json:"video_id"`
	Title           *string  `db:"title" json:"title,omitempty"`
	DurationMinutes *float64 `db:"duration_minutes" json:"duration_minutes,omitempty"`
	URL             *string  `db:"url" json:"url,omitempty"`
	TopicID         string   `db:"topic_uuid" json:"topic_uuid"`
	SortOrder       *float64 `db:"sort_order" json:"sort_order,omitempty"`

	LessonID   *int64  `db:"-" json:"lesson_id,omitempty"`
	SectionID  *int64  `db:"-" json:"section_id,omitempty"`
	TopicTitle *string `db:"-" json:"topic_title,omitempty"`
}

// ScheduledMinutes is the number of minutes the video occupies in a plan, never less than one.
func (v Video) ScheduledMinutes() int {
	if v.DurationMinutes == nil {
		return 1
	}
	d := *v.DurationMinutes
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 1
	}
	rounded := int(math.Round(d))
	if rounded < 1 {
		return 1
	}
	return rounded
}

// OrderKey returns the explicit sort order, or +Inf when missing or non-finite.
func (v Video) OrderKey() float64 {
	if v.SortOrder == nil || math.IsNaN(*v.SortOrder) || math.IsInf(*v.SortOrder, 0) {
		return math.Inf(1)
	}
	return *v.SortOrder
}

// DisplayTitle falls back to the topic title and then to a generic label.
func (v Video) DisplayTitle() string {
	if v.Title != nil && *v.Title != "" {
		return *v.Title
	}
	if v.TopicTitle != nil && *v.TopicTitle != "" {
		return *v.TopicTitle
	}
	return "Video"
}

// VideoDuration is the duration-only projection used for estimates.
type VideoDuration struct {
	TopicID         string   `db:"topic_uuid"`
	PlaylistID      string   `db:"playlist_id"`
	DurationMinutes *float64 `db:"duration_minutes"`
}

// Playlist groups videos from a single teacher.
type Playlist struct {
	ID           string  `db:"id" json:"id"`
	CurriculumID *string `db:"curriculum_id" json:"curriculum_id,omitempty"`
	SectionID    *int64  `db:"section_id" json:"section_id,omitempty"`
	LessonID     *int64  `db:"lesson_id" json:"lesson_id,omitempty"`
	Teacher      *string `db:"teacher" json:"teacher,omitempty"`
}

// LessonTeacher is a distinct teacher offering playlists for a lesson.
type LessonTeacher struct {
	LessonID  int64  `json:"lesson_id"`
	SectionID *int64 `json:"section_id,omitempty"`
	Teacher   string `json:"teacher"`
}
