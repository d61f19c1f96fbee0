package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Video is a single video fetched from a tracked channel.
type Video struct {
	ID          string    `json:"id"`
	ChannelID   string    `json:"channelId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	ViewCount   int64     `json:"viewCount"`
	PublishedAt time.Time `json:"publishedAt"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// ListVideosParams narrows and pages a video listing. Zero values mean
// "no filter"; Limit 0 falls back to a server-side default.
type ListVideosParams struct {
	ChannelID      string
	PublishedAfter time.Time
	TitleQuery     string
	Limit          int
	Offset         int
}

const defaultVideoPageSize = 50

// UpsertVideos inserts or refreshes a batch of videos in one transaction.
func (s *Store) UpsertVideos(ctx context.Context, videos []Video) error {
	if len(videos) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: upsert videos: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO videos (id, channel_id, title, description, thumbnail, duration, view_count, published_at, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			thumbnail = excluded.thumbnail,
			duration = excluded.duration,
			view_count = excluded.view_count,
			fetched_at = excluded.fetched_at`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("store: upsert videos: %w", err)
	}
	defer stmt.Close()

	for _, v := range videos {
		_, err := stmt.ExecContext(ctx,
			v.ID, v.ChannelID, v.Title, v.Description, v.Thumbnail, v.Duration,
			v.ViewCount, v.PublishedAt.Unix(), v.FetchedAt.Unix())
		if err != nil {
			return fmt.Errorf("store: upsert video %s: %w", v.ID, err)
		}
	}
	return tx.Commit()
}

// GetVideo returns the video with the given id, or ErrNotFound.
func (s *Store) GetVideo(ctx context.Context, id string) (Video, error) {
	const q = `SELECT id, channel_id, title, description, thumbnail, duration, view_count, published_at, fetched_at
		FROM videos WHERE id = ?`
	var (
		v           Video
		publishedAt int64
		fetchedAt   int64
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&v.ID, &v.ChannelID, &v.Title, &v.Description, &v.Thumbnail, &v.Duration,
		&v.ViewCount, &publishedAt, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Video{}, ErrNotFound
	}
	if err != nil {
		return Video{}, fmt.Errorf("store: get video %s: %w", id, err)
	}
	v.PublishedAt = time.Unix(publishedAt, 0).UTC()
	v.FetchedAt = time.Unix(fetchedAt, 0).UTC()
	return v, nil
}

// ListVideos returns videos matching params, newest first.
func (s *Store) ListVideos(ctx context.Context, params ListVideosParams) ([]Video, error) {
	q, args := buildListVideosQuery(params)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]Video, 0)
	for rows.Next() {
		var (
			v           Video
			publishedAt int64
			fetchedAt   int64
		)
		err := rows.Scan(&v.ID, &v.ChannelID, &v.Title, &v.Description, &v.Thumbnail,
			&v.Duration, &v.ViewCount, &publishedAt, &fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("store: scan video: %w", err)
		}
		v.PublishedAt = time.Unix(publishedAt, 0).UTC()
		v.FetchedAt = time.Unix(fetchedAt, 0).UTC()
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list videos: %w", err)
	}
	return videos, nil
}

func buildListVideosQuery(params ListVideosParams) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, channel_id, title, description, thumbnail, duration, view_count, published_at, fetched_at FROM videos`)

	var (
		conds []string
		args  []interface{}
	)
	if params.ChannelID != "" {
		conds = append(conds, "channel_id = ?")
		args = append(args, params.ChannelID)
	}
	if !params.PublishedAfter.IsZero() {
		conds = append(conds, "published_at > ?")
		args = append(args, params.PublishedAfter.Unix())
	}
	if params.TitleQuery != "" {
		conds = append(conds, "title LIKE ?")
		args = append(args, "%"+params.TitleQuery+"%")
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY published_at DESC, id")

	limit := params.Limit
	if limit <= 0 {
		limit = defaultVideoPageSize
	}
	sb.WriteString(" LIMIT ?")
	args = append(args, limit)
	if params.Offset > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, params.Offset)
	}
	return sb.String(), args
}
