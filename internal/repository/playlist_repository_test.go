package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylistRepositoryListByCurriculumLessons(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlaylistRepository(db)

	rows := sqlmock.NewRows([]string{"id", "curriculum_id", "section_id", "lesson_id", "teacher"}).
		AddRow("pl-1", "cur-1", 1, 10, "Ahmet Hoca")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE curriculum_id = $1 AND lesson_id = ANY($2) AND teacher IS NOT NULL")).
		WithArgs("cur-1", "{10,11}").
		WillReturnRows(rows)

	playlists, err := repo.ListByCurriculumLessons(context.Background(), "cur-1", []int64{10, 11}, true)
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	assert.Equal(t, "Ahmet Hoca", *playlists[0].Teacher)
	assert.Equal(t, int64(10), *playlists[0].LessonID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaylistRepositoryWithoutLessonFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlaylistRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM playlists WHERE curriculum_id = $1 ORDER BY")).
		WithArgs("cur-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "curriculum_id", "section_id", "lesson_id", "teacher"}))

	playlists, err := repo.ListByCurriculumLessons(context.Background(), "cur-1", nil, false)
	require.NoError(t, err)
	assert.Empty(t, playlists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
