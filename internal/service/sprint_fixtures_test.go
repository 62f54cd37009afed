package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

type curriculumStub struct {
	sections []models.Section
	lessons  []models.Lesson
	topics   []models.Topic
	err      error

	mu           sync.Mutex
	lessonIDReqs [][]int64
	topicIDReqs  []string
}

func (s *curriculumStub) SectionsByCurriculum(ctx context.Context, curriculumID string) ([]models.Section, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Section
	for _, sec := range s.sections {
		if sec.CurriculumID == curriculumID {
			out = append(out, sec)
		}
	}
	return out, nil
}

func (s *curriculumStub) LessonsBySection(ctx context.Context, sectionID int64) ([]models.Lesson, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Lesson
	for _, l := range s.lessons {
		if l.SectionID == sectionID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *curriculumStub) LessonsByIDs(ctx context.Context, ids []int64) ([]models.Lesson, error) {
	s.mu.Lock()
	s.lessonIDReqs = append(s.lessonIDReqs, ids)
	s.mu.Unlock()
	wanted := int64Set(ids)
	var out []models.Lesson
	for _, l := range s.lessons {
		if _, ok := wanted[l.ID]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *curriculumStub) TopicsByLesson(ctx context.Context, lessonID int64) ([]models.Topic, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Topic
	for _, t := range s.topics {
		if t.LessonID == lessonID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *curriculumStub) TopicByID(ctx context.Context, id string) (*models.Topic, error) {
	s.mu.Lock()
	s.topicIDReqs = append(s.topicIDReqs, id)
	s.mu.Unlock()
	for _, t := range s.topics {
		if t.ID == id {
			topic := t
			return &topic, nil
		}
	}
	return nil, fmt.Errorf("get topic: %w", sql.ErrNoRows)
}

type videoStub struct {
	videos []models.Video

	mu             sync.Mutex
	listCalls      [][]string
	durationCalls  [][]string
	playlistCalls  [][]string
	playlistFilter [][]string
}

func (s *videoStub) ListByTopics(ctx context.Context, topicIDs []string) ([]models.Video, error) {
	s.mu.Lock()
	s.listCalls = append(s.listCalls, topicIDs)
	s.mu.Unlock()
	wanted := make(map[string]struct{}, len(topicIDs))
	for _, id := range topicIDs {
		wanted[id] = struct{}{}
	}
	var out []models.Video
	for _, v := range s.videos {
		if _, ok := wanted[v.TopicID]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *videoStub) DurationsByTopics(ctx context.Context, topicIDs []string) ([]models.VideoDuration, error) {
	s.mu.Lock()
	s.durationCalls = append(s.durationCalls, topicIDs)
	s.mu.Unlock()
	return s.durations(topicIDs, nil), nil
}

func (s *videoStub) DurationsByTopicsInPlaylists(ctx context.Context, topicIDs, playlistIDs []string) ([]models.VideoDuration, error) {
	s.mu.Lock()
	s.playlistCalls = append(s.playlistCalls, topicIDs)
	s.playlistFilter = append(s.playlistFilter, playlistIDs)
	s.mu.Unlock()
	return s.durations(topicIDs, playlistIDs), nil
}

func (s *videoStub) durations(topicIDs, playlistIDs []string) []models.VideoDuration {
	topics := make(map[string]struct{}, len(topicIDs))
	for _, id := range topicIDs {
		topics[id] = struct{}{}
	}
	playlists := make(map[string]struct{}, len(playlistIDs))
	for _, id := range playlistIDs {
		playlists[id] = struct{}{}
	}
	var out []models.VideoDuration
	for _, v := range s.videos {
		if _, ok := topics[v.TopicID]; !ok {
			continue
		}
		if len(playlistIDs) > 0 {
			if _, ok := playlists[v.PlaylistID]; !ok {
				continue
			}
		}
		out = append(out, models.VideoDuration{TopicID: v.TopicID, PlaylistID: v.PlaylistID, DurationMinutes: v.DurationMinutes})
	}
	return out
}

type playlistStub struct {
	rows  []models.Playlist
	calls int
}

func (s *playlistStub) ListByCurriculumLessons(ctx context.Context, curriculumID string, lessonIDs []int64, teacherOnly bool) ([]models.Playlist, error) {
	s.calls++
	wanted := int64Set(lessonIDs)
	var out []models.Playlist
	for _, p := range s.rows {
		if p.CurriculumID != nil && *p.CurriculumID != curriculumID {
			continue
		}
		if p.LessonID == nil {
			continue
		}
		if _, ok := wanted[*p.LessonID]; len(lessonIDs) > 0 && !ok {
			continue
		}
		if teacherOnly && p.Teacher == nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type sprintStoreStub struct {
	created  []*models.Sprint
	rows     []models.Sprint
	totals   []models.SprintPlanTotals
	stats    map[string]*models.SprintContentStats
	planIDs  []string
	found    bool
	listErr  error
	listHits int

	mu               sync.Mutex
	taskBatches      [][]string
	statBatches      [][]string
	deletedPlansFor  []string
	deletedSprintIDs []string
}

func (s *sprintStoreStub) Create(ctx context.Context, sprint *models.Sprint) error {
	if sprint.ID == "" {
		sprint.ID = fmt.Sprintf("sprint-%d", len(s.created)+1)
	}
	s.created = append(s.created, sprint)
	return nil
}

func (s *sprintStoreStub) ListByUser(ctx context.Context, userID string) ([]models.Sprint, error) {
	s.listHits++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.rows, nil
}

func (s *sprintStoreStub) PlanTotals(ctx context.Context, userID string, sprintIDs []string) ([]models.SprintPlanTotals, error) {
	return s.totals, nil
}

func (s *sprintStoreStub) ContentStats(ctx context.Context, sprintID string) (*models.SprintContentStats, error) {
	if st, ok := s.stats[sprintID]; ok {
		return st, nil
	}
	return nil, fmt.Errorf("sprint content stats: %w", sql.ErrNoRows)
}

func (s *sprintStoreStub) PlanIDs(ctx context.Context, exec sqlx.ExtContext, userID, sprintID string) ([]string, error) {
	return s.planIDs, nil
}

func (s *sprintStoreStub) DeleteTasksByPlans(ctx context.Context, exec sqlx.ExtContext, planIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskBatches = append(s.taskBatches, planIDs)
	return nil
}

func (s *sprintStoreStub) DeleteDailyStatsByPlans(ctx context.Context, exec sqlx.ExtContext, planIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statBatches = append(s.statBatches, planIDs)
	return nil
}

func (s *sprintStoreStub) DeletePlans(ctx context.Context, exec sqlx.ExtContext, userID, sprintID string) error {
	s.deletedPlansFor = append(s.deletedPlansFor, sprintID)
	return nil
}

func (s *sprintStoreStub) Delete(ctx context.Context, exec sqlx.ExtContext, userID, sprintID string) (bool, error) {
	s.deletedSprintIDs = append(s.deletedSprintIDs, sprintID)
	return s.found, nil
}

type weekPersisterStub struct {
	requests []dto.PersistWeekRequest
	failOn   string
}

func (s *weekPersisterStub) PersistWeek(ctx context.Context, req dto.PersistWeekRequest) (string, error) {
	if req.WeekStart == s.failOn {
		return "", appErrors.Clone(appErrors.ErrStorage, "persist_week failed")
	}
	s.requests = append(s.requests, req)
	return "plan-" + req.WeekStart, nil
}

// memoryCache is an in-process CacheRepository storing JSON payloads.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = payload
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
		m.deletes = append(m.deletes, key)
	}
	return nil
}

func newTxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

// mathCurriculum is a curriculum with two lessons in one section:
// lesson 10 (MAT, two topics) and lesson 20 (FIZ, one topic).
func mathCurriculum() *curriculumStub {
	return &curriculumStub{
		sections: []models.Section{{ID: 1, CurriculumID: "cur-1", Name: "TYT"}},
		lessons: []models.Lesson{
			{ID: 10, SectionID: 1, Code: strPtr("MAT"), Name: "Matematik"},
			{ID: 20, SectionID: 1, Code: strPtr("FIZ"), Name: "Fizik"},
		},
		topics: []models.Topic{
			{ID: "t-1", LessonID: 10, Title: "Sayılar"},
			{ID: "t-2", LessonID: 10, Title: "Bölünebilme"},
			{ID: "t-3", LessonID: 20, Title: "Hareket"},
		},
	}
}

func catalogVideo(id, topicID, playlistID string, minutes, sortOrder float64) models.Video {
	return models.Video{
		PlaylistID:      playlistID,
		VideoID:         id,
		Title:           strPtr("Video " + id),
		DurationMinutes: floatPtr(minutes),
		URL:             strPtr("https://example.com/" + id),
		TopicID:         topicID,
		SortOrder:       floatPtr(sortOrder),
	}
}

func teacherPlaylist(id string, lessonID int64, teacher string) models.Playlist {
	return models.Playlist{ID: id, CurriculumID: strPtr("cur-1"), SectionID: int64Ptr(1), LessonID: int64Ptr(lessonID), Teacher: strPtr(teacher)}
}

type sprintFixture struct {
	curriculum *curriculumStub
	videos     *videoStub
	playlists  *playlistStub
	sprints    *sprintStoreStub
	weeks      *weekPersisterStub
	cache      *memoryCache
	tx         txProvider
}

func newSprintServiceFixture(f *sprintFixture) *SprintService {
	if f.curriculum == nil {
		f.curriculum = mathCurriculum()
	}
	if f.videos == nil {
		f.videos = &videoStub{}
	}
	if f.playlists == nil {
		f.playlists = &playlistStub{}
	}
	if f.sprints == nil {
		f.sprints = &sprintStoreStub{}
	}
	if f.weeks == nil {
		f.weeks = &weekPersisterStub{}
	}
	var cache *CacheService
	if f.cache != nil {
		cache = NewCacheService(f.cache, nil, time.Minute, nil, true)
	}
	svc := NewSprintService(f.curriculum, f.videos, f.playlists, f.sprints, f.weeks, f.tx, cache, nil, nil, nil,
		SprintServiceConfig{LookupTimeout: time.Second, BatchSize: 2, LookupConcurrency: 2})
	svc.allocator = NewSprintAllocator(sequentialIDs())
	return svc
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
