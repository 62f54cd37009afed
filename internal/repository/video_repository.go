package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/study-sprint-api/internal/models"
)

// VideoRepository reads playlist videos tagged with curriculum topics.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository builds repository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// ListByTopics returns videos for a batch of topics ordered by sort order (nulls last) then video id.
func (r *VideoRepository) ListByTopics(ctx context.Context, topicIDs []string) ([]models.Video, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT playlist_id, video_id, title, duration_minutes, url, topic_uuid, sort_order
FROM playlist_videos WHERE topic_uuid = ANY($1) ORDER BY sort_order ASC NULLS LAST, video_id ASC`
	var videos []models.Video
	if err := r.db.SelectContext(ctx, &videos, query, pq.Array(topicIDs)); err != nil {
		return nil, fmt.Errorf("list videos by topics: %w", err)
	}
	return videos, nil
}

// DurationsByTopics returns only durations for a batch of topics.
func (r *VideoRepository) DurationsByTopics(ctx context.Context, topicIDs []string) ([]models.VideoDuration, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT topic_uuid, playlist_id, duration_minutes FROM playlist_videos WHERE topic_uuid = ANY($1)`
	var durations []models.VideoDuration
	if err := r.db.SelectContext(ctx, &durations, query, pq.Array(topicIDs)); err != nil {
		return nil, fmt.Errorf("list video durations: %w", err)
	}
	return durations, nil
}

// DurationsByTopicsInPlaylists returns durations for a batch of topics restricted to playlists.
func (r *VideoRepository) DurationsByTopicsInPlaylists(ctx context.Context, topicIDs, playlistIDs []string) ([]models.VideoDuration, error) {
	if len(topicIDs) == 0 || len(playlistIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT topic_uuid, playlist_id, duration_minutes FROM playlist_videos WHERE topic_uuid = ANY($1) AND playlist_id = ANY($2)`
	var durations []models.VideoDuration
	if err := r.db.SelectContext(ctx, &durations, query, pq.Array(topicIDs), pq.Array(playlistIDs)); err != nil {
		return nil, fmt.Errorf("list video durations in playlists: %w", err)
	}
	return durations, nil
}
