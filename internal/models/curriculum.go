package models

import "fmt"

// Section is a top-level grouping of lessons inside a curriculum.
type Section struct {
	ID           int64   `db:"id" json:"id"`
	CurriculumID string  `db:"curriculum_id" json:"curriculum_id"`
	Code         *string `db:"code" json:"code,omitempty"`
	Name         string  `db:"name" json:"name"`
}

// Lesson belongs to a section and owns topics.
type Lesson struct {
	ID        int64   `db:"id" json:"id"`
	SectionID int64   `db:"section_id" json:"section_id"`
	Code      *string `db:"code" json:"code,omitempty"`
	Name      string  `db:"name" json:"name"`
}

// Label returns the lesson name or a numbered fallback when the name is blank.
func (l Lesson) Label() string {
	if l.Name != "" {
		return l.Name
	}
	return LessonFallbackLabel(l.ID)
}

// ShortLabel prefers the lesson code, as used in sprint titles.
func (l Lesson) ShortLabel() string {
	if l.Code != nil && *l.Code != "" {
		return *l.Code
	}
	return l.Label()
}

// LessonFallbackLabel names a lesson that could not be resolved.
func LessonFallbackLabel(id int64) string {
	return fmt.Sprintf("Ders #%d", id)
}

// Topic is the smallest curriculum unit videos are tagged with.
type Topic struct {
	ID        string `db:"new_id" json:"id"`
	LessonID  int64  `db:"lesson_id" json:"lesson_id"`
	Title     string `db:"title" json:"title"`
	SortOrder *int   `db:"sort_order" json:"sort_order,omitempty"`
}

// CurriculumSelection is a resolved selection: deduplicated sections, lessons and topics.
type CurriculumSelection struct {
	Sections []Section
	Lessons  []Lesson
	Topics   []Topic
}

// TopicIDs returns the ids of the resolved topics in order.
func (s CurriculumSelection) TopicIDs() []string {
	ids := make([]string, 0, len(s.Topics))
	for _, t := range s.Topics {
		ids = append(ids, t.ID)
	}
	return ids
}

// LessonIndex looks up lesson and section metadata for enrichment and labelling.
type LessonIndex struct {
	Lessons    map[int64]Lesson
	Sections   map[int64]Section
	Topics     map[string]Topic
	TopicOrder map[string]int
}

// NewLessonIndex builds an index over a resolved selection.
func NewLessonIndex(sel CurriculumSelection) LessonIndex {
	idx := LessonIndex{
		Lessons:    make(map[int64]Lesson, len(sel.Lessons)),
		Sections:   make(map[int64]Section, len(sel.Sections)),
		Topics:     make(map[string]Topic, len(sel.Topics)),
		TopicOrder: make(map[string]int, len(sel.Topics)),
	}
	for _, s := range sel.Sections {
		idx.Sections[s.ID] = s
	}
	for _, l := range sel.Lessons {
		idx.Lessons[l.ID] = l
	}
	for i, t := range sel.Topics {
		idx.Topics[t.ID] = t
		idx.TopicOrder[t.ID] = i
	}
	return idx
}

// LessonLabel returns a display label for the lesson id.
func (idx LessonIndex) LessonLabel(id int64) string {
	if l, ok := idx.Lessons[id]; ok {
		return l.Label()
	}
	return LessonFallbackLabel(id)
}
