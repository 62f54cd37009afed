package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/study-sprint-api/internal/models"
)

// CurriculumRepository reads the section, lesson and topic tree of a curriculum.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository builds repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// SectionsByCurriculum returns all sections of a curriculum.
func (r *CurriculumRepository) SectionsByCurriculum(ctx context.Context, curriculumID string) ([]models.Section, error) {
	const query = `SELECT id, curriculum_id, code, name FROM curriculum_sections WHERE curriculum_id = $1 ORDER BY id ASC`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, curriculumID); err != nil {
		return nil, fmt.Errorf("list curriculum sections: %w", err)
	}
	return sections, nil
}

// LessonsBySection returns the lessons of one section.
func (r *CurriculumRepository) LessonsBySection(ctx context.Context, sectionID int64) ([]models.Lesson, error) {
	const query = `SELECT id, section_id, code, name FROM curriculum_lessons WHERE section_id = $1 ORDER BY id ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, sectionID); err != nil {
		return nil, fmt.Errorf("list lessons by section: %w", err)
	}
	return lessons, nil
}

// LessonsByIDs returns the lessons matching ids.
func (r *CurriculumRepository) LessonsByIDs(ctx context.Context, ids []int64) ([]models.Lesson, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, section_id, code, name FROM curriculum_lessons WHERE id = ANY($1) ORDER BY id ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list lessons by ids: %w", err)
	}
	return lessons, nil
}

// TopicsByLesson returns a lesson's topics in curriculum order.
func (r *CurriculumRepository) TopicsByLesson(ctx context.Context, lessonID int64) ([]models.Topic, error) {
	const query = `SELECT new_id, lesson_id, title, sort_order FROM curriculum_topics WHERE lesson_id = $1 ORDER BY sort_order ASC NULLS LAST, new_id ASC`
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, query, lessonID); err != nil {
		return nil, fmt.Errorf("list topics by lesson: %w", err)
	}
	return topics, nil
}

// TopicByID fetches a single topic. Missing topics surface as a wrapped sql.ErrNoRows.
func (r *CurriculumRepository) TopicByID(ctx context.Context, id string) (*models.Topic, error) {
	const query = `SELECT new_id, lesson_id, title, sort_order FROM curriculum_topics WHERE new_id = $1`
	var topic models.Topic
	if err := r.db.GetContext(ctx, &topic, query, id); err != nil {
		return nil, fmt.Errorf("get topic %s: %w", id, err)
	}
	return &topic, nil
}
