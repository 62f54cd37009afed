package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

type playlistReader interface {
	ListByCurriculumLessons(ctx context.Context, curriculumID string, lessonIDs []int64, teacherOnly bool) ([]models.Playlist, error)
}

// teacherAllowlist maps teacher-constrained lessons to the playlists they may draw videos from.
type teacherAllowlist struct {
	playlists map[int64]map[string]struct{}
	teachers  map[int64]string
}

func (a teacherAllowlist) empty() bool {
	return len(a.playlists) == 0
}

func (a teacherAllowlist) constrained(lessonID int64) bool {
	_, ok := a.playlists[lessonID]
	return ok
}

func (a teacherAllowlist) allows(lessonID int64, playlistID string) bool {
	allowed, ok := a.playlists[lessonID]
	if !ok {
		return true
	}
	_, ok = allowed[playlistID]
	return ok
}

func (a teacherAllowlist) playlistIDs(lessonID int64) []string {
	ids := make([]string, 0, len(a.playlists[lessonID]))
	for id := range a.playlists[lessonID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (a teacherAllowlist) lessonIDs() []int64 {
	return sortedLessonIDs(a.teachers)
}

// normalizeLessonTeachers trims teacher names and drops blank entries.
func normalizeLessonTeachers(raw map[int64]string) map[int64]string {
	out := make(map[int64]string, len(raw))
	for lessonID, teacher := range raw {
		if trimmed := strings.TrimSpace(teacher); trimmed != "" {
			out[lessonID] = trimmed
		}
	}
	return out
}

// buildTeacherPlaylistAllowlist resolves the playlists matching each requested teacher. Every
// constrained lesson must end up with at least one playlist.
func buildTeacherPlaylistAllowlist(ctx context.Context, playlists playlistReader, lookups lookupRunner,
	curriculumID string, lessonTeachers map[int64]string, index models.LessonIndex) (teacherAllowlist, error) {
	allow := teacherAllowlist{
		playlists: make(map[int64]map[string]struct{}),
		teachers:  normalizeLessonTeachers(lessonTeachers),
	}
	if len(allow.teachers) == 0 {
		return allow, nil
	}

	lessonIDs := allow.lessonIDs()
	rows, err := lookup(ctx, lookups, "playlists_by_lessons", func(c context.Context) ([]models.Playlist, error) {
		return playlists.ListByCurriculumLessons(c, curriculumID, lessonIDs, true)
	})
	if err != nil {
		return allow, err
	}

	col := newTurkishCollator()
	for _, p := range rows {
		if p.LessonID == nil || p.Teacher == nil {
			continue
		}
		want, ok := allow.teachers[*p.LessonID]
		if !ok || !sameTeacher(col, *p.Teacher, want) {
			continue
		}
		if allow.playlists[*p.LessonID] == nil {
			allow.playlists[*p.LessonID] = make(map[string]struct{})
		}
		allow.playlists[*p.LessonID][p.ID] = struct{}{}
	}

	var missing []int64
	for _, id := range lessonIDs {
		if len(allow.playlists[id]) == 0 {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return allow, appErrors.Clone(appErrors.ErrTeacherPlaylistMissing,
			fmt.Sprintf("%s: %s", appErrors.ErrTeacherPlaylistMissing.Message, describeLessonTeachers(missing, allow.teachers, index)))
	}
	return allow, nil
}

// filterVideosByTeacher keeps only allowed playlists for constrained lessons. Unconstrained
// lessons pass through.
func filterVideosByTeacher(videos []models.Video, allow teacherAllowlist, index models.LessonIndex) ([]models.Video, error) {
	if allow.empty() {
		return videos, nil
	}

	kept := make([]models.Video, 0, len(videos))
	survivors := make(map[int64]int)
	for _, v := range videos {
		if v.LessonID == nil || !allow.constrained(*v.LessonID) {
			kept = append(kept, v)
			continue
		}
		if allow.allows(*v.LessonID, v.PlaylistID) {
			kept = append(kept, v)
			survivors[*v.LessonID]++
		}
	}

	var missing []int64
	for _, id := range allow.lessonIDs() {
		if survivors[id] == 0 {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrTeacherVideoMissing,
			fmt.Sprintf("%s: %s", appErrors.ErrTeacherVideoMissing.Message, describeLessonTeachers(missing, allow.teachers, index)))
	}
	if len(kept) == 0 {
		return nil, appErrors.ErrNoVideosTeacher
	}
	return kept, nil
}

// durationTotals is the aggregate returned by the estimate path.
type durationTotals struct {
	VideoCount int
	Minutes    float64
}

func (t *durationTotals) add(rows []models.VideoDuration) {
	for _, row := range rows {
		t.VideoCount++
		if row.DurationMinutes != nil && !math.IsNaN(*row.DurationMinutes) && !math.IsInf(*row.DurationMinutes, 0) {
			t.Minutes += *row.DurationMinutes
		}
	}
}

// sumDurationsWithTeacherFilter totals video durations for the topics without loading full
// video rows. Topics of constrained lessons are summed over their allowed playlists only.
func (r *contentResolver) sumDurationsWithTeacherFilter(ctx context.Context, topics []models.Topic,
	allow teacherAllowlist, index models.LessonIndex) (durationTotals, error) {
	var totals durationTotals

	var free []string
	byLesson := make(map[int64][]string)
	for _, t := range topics {
		if allow.constrained(t.LessonID) {
			byLesson[t.LessonID] = append(byLesson[t.LessonID], t.ID)
			continue
		}
		free = append(free, t.ID)
	}

	freeRows, err := fanOut(ctx, r.concurrency, chunkStrings(free, r.batchSize), func(c context.Context, batch []string) ([]models.VideoDuration, error) {
		return lookup(c, r.lookups, "video_durations_by_topics", func(lc context.Context) ([]models.VideoDuration, error) {
			return r.videos.DurationsByTopics(lc, batch)
		})
	})
	if err != nil {
		return totals, err
	}
	for _, rows := range freeRows {
		totals.add(rows)
	}

	var missing []int64
	for _, lessonID := range sortedLessonIDs(byLesson) {
		playlistIDs := allow.playlistIDs(lessonID)
		lessonRows, err := fanOut(ctx, r.concurrency, chunkStrings(byLesson[lessonID], r.batchSize), func(c context.Context, batch []string) ([]models.VideoDuration, error) {
			return lookup(c, r.lookups, "video_durations_by_playlists", func(lc context.Context) ([]models.VideoDuration, error) {
				return r.videos.DurationsByTopicsInPlaylists(lc, batch, playlistIDs)
			})
		})
		if err != nil {
			return totals, err
		}
		before := totals.VideoCount
		for _, rows := range lessonRows {
			totals.add(rows)
		}
		if totals.VideoCount == before {
			missing = append(missing, lessonID)
		}
	}
	if len(missing) > 0 {
		return totals, appErrors.Clone(appErrors.ErrTeacherVideoMissing,
			fmt.Sprintf("%s: %s", appErrors.ErrTeacherVideoMissing.Message, describeLessonTeachers(missing, allow.teachers, index)))
	}
	return totals, nil
}

// describeLessonTeachers renders "Lesson (Teacher)" pairs joined by ", ".
func describeLessonTeachers(lessonIDs []int64, teachers map[int64]string, index models.LessonIndex) string {
	parts := make([]string, 0, len(lessonIDs))
	for _, id := range lessonIDs {
		parts = append(parts, fmt.Sprintf("%s (%s)", index.LessonLabel(id), teachers[id]))
	}
	return strings.Join(parts, ", ")
}

func sortedLessonIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
