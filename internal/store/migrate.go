package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schemaStatements are applied in order by Migrate. Each statement must be
// idempotent so Migrate can run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS channels (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		handle      TEXT NOT NULL DEFAULT '',
		thumbnail   TEXT NOT NULL DEFAULT '',
		video_count INTEGER NOT NULL DEFAULT 0,
		added_at    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id           TEXT PRIMARY KEY,
		channel_id   TEXT NOT NULL,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		thumbnail    TEXT NOT NULL DEFAULT '',
		duration     TEXT NOT NULL DEFAULT '',
		view_count   INTEGER NOT NULL DEFAULT 0,
		published_at INTEGER NOT NULL,
		fetched_at   INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_channel_published
		ON videos(channel_id, published_at DESC)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id         TEXT PRIMARY KEY,
		video_id   TEXT NOT NULL,
		model      TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_video
		ON analyses(video_id, created_at DESC)`,
}

// Migrate applies the schema. Safe to run on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate statement %d: %w", i, err)
		}
	}
	log.Debug().Int("statements", len(schemaStatements)).Msg("Store: schema migrated")
	return nil
}
