package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/study-sprint-api/internal/models"
)

// PlaylistRepository reads playlist metadata used for teacher preferences.
type PlaylistRepository struct {
	db *sqlx.DB
}

// NewPlaylistRepository builds repository.
func NewPlaylistRepository(db *sqlx.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// ListByCurriculumLessons returns playlists of a curriculum, optionally restricted to lessons.
// When teacherOnly is set, playlists without a teacher are skipped.
func (r *PlaylistRepository) ListByCurriculumLessons(ctx context.Context, curriculumID string, lessonIDs []int64, teacherOnly bool) ([]models.Playlist, error) {
	where := []string{"curriculum_id = $1"}
	args := []interface{}{curriculumID}
	if len(lessonIDs) > 0 {
		args = append(args, pq.Array(lessonIDs))
		where = append(where, fmt.Sprintf("lesson_id = ANY($%d)", len(args)))
	}
	if teacherOnly {
		where = append(where, "teacher IS NOT NULL")
	}

	query := fmt.Sprintf(`SELECT id, curriculum_id, section_id, lesson_id, teacher FROM playlists WHERE %s ORDER BY lesson_id ASC, id ASC`, strings.Join(where, " AND "))
	var playlists []models.Playlist
	if err := r.db.SelectContext(ctx, &playlists, query, args...); err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return playlists, nil
}
