package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildListVideosQuery(t *testing.T) {
	t.Run("NoFilters", func(t *testing.T) {
		q, args := buildListVideosQuery(ListVideosParams{})

		require.NotContains(t, q, "WHERE")
		require.Contains(t, q, "ORDER BY published_at DESC")
		require.Contains(t, q, "LIMIT ?")
		require.NotContains(t, q, "OFFSET")
		require.Equal(t, []interface{}{defaultVideoPageSize}, args)
	})

	t.Run("ChannelFilter", func(t *testing.T) {
		q, args := buildListVideosQuery(ListVideosParams{ChannelID: "UC123", Limit: 10})

		require.Contains(t, q, "WHERE channel_id = ?")
		require.Equal(t, []interface{}{"UC123", 10}, args)
	})

	t.Run("AllFilters", func(t *testing.T) {
		after := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		q, args := buildListVideosQuery(ListVideosParams{
			ChannelID:      "UC123",
			PublishedAfter: after,
			TitleQuery:     "go",
			Limit:          5,
			Offset:         10,
		})

		require.Contains(t, q, "channel_id = ? AND published_at > ? AND title LIKE ?")
		require.Contains(t, q, "OFFSET ?")
		require.Equal(t, []interface{}{"UC123", after.Unix(), "%go%", 5, 10}, args)
	})

	t.Run("ZeroLimitUsesDefault", func(t *testing.T) {
		_, args := buildListVideosQuery(ListVideosParams{ChannelID: "UC123"})

		require.Equal(t, []interface{}{"UC123", defaultVideoPageSize}, args)
	})
}
