package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Channel is a tracked YouTube channel.
type Channel struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Handle     string    `json:"handle,omitempty"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
	VideoCount int64     `json:"videoCount"`
	AddedAt    time.Time `json:"addedAt"`
}

// UpsertChannel inserts the channel or refreshes its metadata if it is
// already tracked. The original added_at is kept on conflict.
func (s *Store) UpsertChannel(ctx context.Context, ch Channel) error {
	const q = `INSERT INTO channels (id, title, handle, thumbnail, video_count, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			handle = excluded.handle,
			thumbnail = excluded.thumbnail,
			video_count = excluded.video_count`
	_, err := s.db.ExecContext(ctx, q,
		ch.ID, ch.Title, ch.Handle, ch.Thumbnail, ch.VideoCount, ch.AddedAt.Unix())
	if err != nil {
		return fmt.Errorf("store: upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

// GetChannel returns the channel with the given id, or ErrNotFound.
func (s *Store) GetChannel(ctx context.Context, id string) (Channel, error) {
	const q = `SELECT id, title, handle, thumbnail, video_count, added_at
		FROM channels WHERE id = ?`
	var (
		ch      Channel
		addedAt int64
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&ch.ID, &ch.Title, &ch.Handle, &ch.Thumbnail, &ch.VideoCount, &addedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Channel{}, ErrNotFound
	}
	if err != nil {
		return Channel{}, fmt.Errorf("store: get channel %s: %w", id, err)
	}
	ch.AddedAt = time.Unix(addedAt, 0).UTC()
	return ch, nil
}

// ListChannels returns every tracked channel, most recently added first.
func (s *Store) ListChannels(ctx context.Context) ([]Channel, error) {
	const q = `SELECT id, title, handle, thumbnail, video_count, added_at
		FROM channels ORDER BY added_at DESC, id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list channels: %w", err)
	}
	defer rows.Close()

	channels := make([]Channel, 0)
	for rows.Next() {
		var (
			ch      Channel
			addedAt int64
		)
		if err := rows.Scan(&ch.ID, &ch.Title, &ch.Handle, &ch.Thumbnail, &ch.VideoCount, &addedAt); err != nil {
			return nil, fmt.Errorf("store: scan channel: %w", err)
		}
		ch.AddedAt = time.Unix(addedAt, 0).UTC()
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list channels: %w", err)
	}
	return channels, nil
}

// DeleteChannel removes the channel together with its videos and their
// analyses. Returns ErrNotFound when the channel is not tracked.
func (s *Store) DeleteChannel(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: delete channel %s: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM analyses WHERE video_id IN (SELECT id FROM videos WHERE channel_id = ?)`, id); err != nil {
		return fmt.Errorf("store: delete channel %s analyses: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE channel_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete channel %s videos: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete channel %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete channel %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
