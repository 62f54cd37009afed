package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-sprint-api/internal/dto"
	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

func TestLessonTeacherServiceListDedupesAndSorts(t *testing.T) {
	playlists := &playlistStub{rows: []models.Playlist{
		teacherPlaylist("p-1", 20, "Zeynep"),
		teacherPlaylist("p-2", 10, "Şule"),
		teacherPlaylist("p-3", 10, "Ahmet"),
		teacherPlaylist("p-4", 10, "AHMET"),
		teacherPlaylist("p-5", 10, "Sinan"),
		teacherPlaylist("p-6", 10, "   "),
		teacherPlaylist("p-7", 20, "İlker"),
	}}
	svc := NewLessonTeacherService(playlists, time.Second, nil, nil, nil)

	teachers, err := svc.List(context.Background(), dto.LessonTeachersQuery{CurriculumID: "cur-1", LessonIDs: []int64{10, 20}})
	require.NoError(t, err)

	got := make([]string, 0, len(teachers))
	for _, lt := range teachers {
		got = append(got, lt.Teacher)
	}
	assert.Equal(t, []string{"Ahmet", "Sinan", "Şule", "İlker", "Zeynep"}, got)
	assert.Equal(t, int64(10), teachers[0].LessonID)
	require.NotNil(t, teachers[0].SectionID)
	assert.Equal(t, int64(1), *teachers[0].SectionID)
	assert.Equal(t, int64(20), teachers[3].LessonID)
}

func TestLessonTeacherServiceListEmptyLessons(t *testing.T) {
	playlists := &playlistStub{}
	svc := NewLessonTeacherService(playlists, time.Second, nil, nil, nil)

	teachers, err := svc.List(context.Background(), dto.LessonTeachersQuery{CurriculumID: "cur-1"})
	require.NoError(t, err)
	assert.NotNil(t, teachers)
	assert.Empty(t, teachers)
	assert.Zero(t, playlists.calls)

	_, err = svc.List(context.Background(), dto.LessonTeachersQuery{LessonIDs: []int64{10}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
