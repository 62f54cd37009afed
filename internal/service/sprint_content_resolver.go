package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

const defaultBatchSize = 99

type curriculumReader interface {
	SectionsByCurriculum(ctx context.Context, curriculumID string) ([]models.Section, error)
	LessonsBySection(ctx context.Context, sectionID int64) ([]models.Lesson, error)
	LessonsByIDs(ctx context.Context, ids []int64) ([]models.Lesson, error)
	TopicsByLesson(ctx context.Context, lessonID int64) ([]models.Topic, error)
	TopicByID(ctx context.Context, id string) (*models.Topic, error)
}

type videoReader interface {
	ListByTopics(ctx context.Context, topicIDs []string) ([]models.Video, error)
	DurationsByTopics(ctx context.Context, topicIDs []string) ([]models.VideoDuration, error)
	DurationsByTopicsInPlaylists(ctx context.Context, topicIDs, playlistIDs []string) ([]models.VideoDuration, error)
}

// contentResolver expands a selection into curriculum topics and loads their videos.
type contentResolver struct {
	curriculum  curriculumReader
	videos      videoReader
	lookups     lookupRunner
	batchSize   int
	concurrency int
}

// expandSelectionToTopics resolves sections, lessons and topic ids into a deduplicated union.
// Independent lookups run concurrently; results are merged in a fixed order.
func (r *contentResolver) expandSelectionToTopics(ctx context.Context, sel dto.SprintSelection) (models.CurriculumSelection, error) {
	var out models.CurriculumSelection
	if sel.CurriculumID == "" {
		return out, appErrors.ErrNoCurriculum
	}

	acc := newSelectionAccumulator()

	var curriculumSections []models.Section
	if len(sel.SectionIDs) > 0 || len(sel.LessonIDs) > 0 {
		sections, err := lookup(ctx, r.lookups, "sections_by_curriculum", func(c context.Context) ([]models.Section, error) {
			return r.curriculum.SectionsByCurriculum(c, sel.CurriculumID)
		})
		if err != nil {
			return out, err
		}
		curriculumSections = sections
	}

	if len(sel.SectionIDs) > 0 {
		wanted := int64Set(sel.SectionIDs)
		var sections []models.Section
		for _, s := range curriculumSections {
			if _, ok := wanted[s.ID]; ok {
				sections = append(sections, s)
			}
		}
		lessons, err := r.lessonsOf(ctx, sections)
		if err != nil {
			return out, err
		}
		topics, err := r.topicsOf(ctx, lessons)
		if err != nil {
			return out, err
		}
		acc.addSections(sections...)
		acc.addLessons(lessons...)
		acc.addTopics(topics...)
	}

	if len(sel.LessonIDs) > 0 {
		wanted := int64Set(sel.LessonIDs)
		all, err := r.lessonsOf(ctx, curriculumSections)
		if err != nil {
			return out, err
		}
		var lessons []models.Lesson
		for _, l := range all {
			if _, ok := wanted[l.ID]; ok {
				lessons = append(lessons, l)
			}
		}
		topics, err := r.topicsOf(ctx, lessons)
		if err != nil {
			return out, err
		}
		acc.addLessons(lessons...)
		acc.addTopics(topics...)
	}

	if topicIDs := nonBlank(sel.TopicIDs); len(topicIDs) > 0 {
		topics, err := fanOut(ctx, r.concurrency, topicIDs, func(c context.Context, id string) (*models.Topic, error) {
			topic, err := lookup(c, r.lookups, "topic_by_id", func(lc context.Context) (*models.Topic, error) {
				return r.curriculum.TopicByID(lc, id)
			})
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return topic, err
		})
		if err != nil {
			return out, err
		}
		for _, t := range topics {
			if t != nil {
				acc.addTopics(*t)
			}
		}
	}

	return acc.result(), nil
}

func (r *contentResolver) lessonsOf(ctx context.Context, sections []models.Section) ([]models.Lesson, error) {
	perSection, err := fanOut(ctx, r.concurrency, sections, func(c context.Context, s models.Section) ([]models.Lesson, error) {
		return lookup(c, r.lookups, "lessons_by_section", func(lc context.Context) ([]models.Lesson, error) {
			return r.curriculum.LessonsBySection(lc, s.ID)
		})
	})
	if err != nil {
		return nil, err
	}
	var lessons []models.Lesson
	for _, ls := range perSection {
		lessons = append(lessons, ls...)
	}
	return lessons, nil
}

func (r *contentResolver) topicsOf(ctx context.Context, lessons []models.Lesson) ([]models.Topic, error) {
	perLesson, err := fanOut(ctx, r.concurrency, lessons, func(c context.Context, l models.Lesson) ([]models.Topic, error) {
		return lookup(c, r.lookups, "topics_by_lesson", func(lc context.Context) ([]models.Topic, error) {
			return r.curriculum.TopicsByLesson(lc, l.ID)
		})
	})
	if err != nil {
		return nil, err
	}
	var topics []models.Topic
	for _, ts := range perLesson {
		topics = append(topics, ts...)
	}
	return topics, nil
}

// loadLessonIndex completes lesson and section metadata for every lesson referenced by the
// resolved topics or by extra lesson ids such as teacher preferences.
func (r *contentResolver) loadLessonIndex(ctx context.Context, curriculumID string, sel models.CurriculumSelection, extraLessonIDs []int64) (models.LessonIndex, error) {
	index := models.NewLessonIndex(sel)

	missing := make(map[int64]struct{})
	for _, t := range sel.Topics {
		if _, ok := index.Lessons[t.LessonID]; !ok {
			missing[t.LessonID] = struct{}{}
		}
	}
	for _, id := range extraLessonIDs {
		if _, ok := index.Lessons[id]; !ok {
			missing[id] = struct{}{}
		}
	}
	if len(missing) > 0 {
		ids := make([]int64, 0, len(missing))
		for id := range missing {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		lessons, err := lookup(ctx, r.lookups, "lessons_by_ids", func(c context.Context) ([]models.Lesson, error) {
			return r.curriculum.LessonsByIDs(c, ids)
		})
		if err != nil {
			return index, err
		}
		for _, l := range lessons {
			index.Lessons[l.ID] = l
		}
	}

	needSections := false
	for _, l := range index.Lessons {
		if _, ok := index.Sections[l.SectionID]; !ok {
			needSections = true
			break
		}
	}
	if needSections {
		sections, err := lookup(ctx, r.lookups, "sections_by_curriculum", func(c context.Context) ([]models.Section, error) {
			return r.curriculum.SectionsByCurriculum(c, curriculumID)
		})
		if err != nil {
			return index, err
		}
		for _, s := range sections {
			if _, ok := index.Sections[s.ID]; !ok {
				index.Sections[s.ID] = s
			}
		}
	}
	return index, nil
}

// fetchVideosByTopics loads videos in batches. Videos without a topic are dropped.
func (r *contentResolver) fetchVideosByTopics(ctx context.Context, topicIDs []string) ([]models.Video, error) {
	batches, err := fanOut(ctx, r.concurrency, chunkStrings(topicIDs, r.batchSize), func(c context.Context, batch []string) ([]models.Video, error) {
		return lookup(c, r.lookups, "videos_by_topics", func(lc context.Context) ([]models.Video, error) {
			return r.videos.ListByTopics(lc, batch)
		})
	})
	if err != nil {
		return nil, err
	}
	var videos []models.Video
	for _, batch := range batches {
		for _, v := range batch {
			if v.TopicID == "" {
				continue
			}
			videos = append(videos, v)
		}
	}
	return videos, nil
}

// enrichVideos copies lesson, section and topic title from the index onto each video.
func enrichVideos(videos []models.Video, index models.LessonIndex) []models.Video {
	out := make([]models.Video, len(videos))
	for i, v := range videos {
		if topic, ok := index.Topics[v.TopicID]; ok {
			title := topic.Title
			v.TopicTitle = &title
			lessonID := topic.LessonID
			v.LessonID = &lessonID
			if lesson, ok := index.Lessons[lessonID]; ok {
				sectionID := lesson.SectionID
				v.SectionID = &sectionID
			}
		}
		out[i] = v
	}
	return out
}

type selectionAccumulator struct {
	sel      models.CurriculumSelection
	sections map[int64]struct{}
	lessons  map[int64]struct{}
	topics   map[string]struct{}
}

func newSelectionAccumulator() *selectionAccumulator {
	return &selectionAccumulator{
		sections: make(map[int64]struct{}),
		lessons:  make(map[int64]struct{}),
		topics:   make(map[string]struct{}),
	}
}

func (a *selectionAccumulator) addSections(sections ...models.Section) {
	for _, s := range sections {
		if _, seen := a.sections[s.ID]; !seen {
			a.sections[s.ID] = struct{}{}
			a.sel.Sections = append(a.sel.Sections, s)
		}
	}
}

func (a *selectionAccumulator) addLessons(lessons ...models.Lesson) {
	for _, l := range lessons {
		if _, seen := a.lessons[l.ID]; !seen {
			a.lessons[l.ID] = struct{}{}
			a.sel.Lessons = append(a.sel.Lessons, l)
		}
	}
}

func (a *selectionAccumulator) addTopics(topics ...models.Topic) {
	for _, t := range topics {
		if t.ID == "" {
			continue
		}
		if _, seen := a.topics[t.ID]; !seen {
			a.topics[t.ID] = struct{}{}
			a.sel.Topics = append(a.sel.Topics, t)
		}
	}
}

func (a *selectionAccumulator) result() models.CurriculumSelection {
	return a.sel
}

func int64Set(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// nonBlank drops empty topic ids; a selection still being edited may carry them.
func nonBlank(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			out = append(out, id)
		}
	}
	return out
}
