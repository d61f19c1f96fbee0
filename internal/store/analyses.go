package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Analysis is a generated write-up for a single video.
type Analysis struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	Model     string    `json:"model"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// InsertAnalysis stores a new analysis record.
func (s *Store) InsertAnalysis(ctx context.Context, a Analysis) error {
	const q = `INSERT INTO analyses (id, video_id, model, content, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, a.ID, a.VideoID, a.Model, a.Content, a.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store: insert analysis %s: %w", a.ID, err)
	}
	return nil
}

// GetAnalysisByVideo returns the most recent analysis for a video, or
// ErrNotFound when none has been generated yet.
func (s *Store) GetAnalysisByVideo(ctx context.Context, videoID string) (Analysis, error) {
	const q = `SELECT id, video_id, model, content, created_at
		FROM analyses WHERE video_id = ? ORDER BY created_at DESC, id LIMIT 1`
	var (
		a         Analysis
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, q, videoID).Scan(&a.ID, &a.VideoID, &a.Model, &a.Content, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	if err != nil {
		return Analysis{}, fmt.Errorf("store: get analysis for video %s: %w", videoID, err)
	}
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	return a, nil
}

// ListAnalyses returns every analysis for a video, newest first.
func (s *Store) ListAnalyses(ctx context.Context, videoID string) ([]Analysis, error) {
	const q = `SELECT id, video_id, model, content, created_at
		FROM analyses WHERE video_id = ? ORDER BY created_at DESC, id`
	rows, err := s.db.QueryContext(ctx, q, videoID)
	if err != nil {
		return nil, fmt.Errorf("store: list analyses for video %s: %w", videoID, err)
	}
	defer rows.Close()

	analyses := make([]Analysis, 0)
	for rows.Next() {
		var (
			a         Analysis
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.VideoID, &a.Model, &a.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan analysis: %w", err)
		}
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list analyses for video %s: %w", videoID, err)
	}
	return analyses, nil
}
