package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tubedash/tubedash/internal/store"
	"github.com/tubedash/tubedash/types"
)

func videosCacheKey(channelID string) string {
	return "videos:" + channelID
}

func (s *Server) invalidateVideos(ctx context.Context, channelID string) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Delete(ctx, videosCacheKey(channelID)); err != nil {
		log.Warn().Err(err).Str("channel_id", channelID).Msg("Failed to invalidate video cache")
	}
}

// handleListChannelVideos serves a channel's videos. The unfiltered listing
// is served cache-aside; any filter or paging parameter bypasses the cache.
func (s *Server) handleListChannelVideos(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	if _, err := s.deps.Store.GetChannel(r.Context(), channelID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "channel not found")
			return
		}
		log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to load channel")
		respondError(w, http.StatusInternalServerError, "failed to load channel")
		return
	}

	params := store.ListVideosParams{ChannelID: channelID}
	q := r.URL.Query()
	params.TitleQuery = q.Get("q")
	if raw := q.Get("publishedAfter"); raw != "" {
		after, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "publishedAfter must be RFC 3339")
			return
		}
		params.PublishedAfter = after
	}
	var err error
	if params.Limit, err = intParam(q.Get("limit")); err != nil {
		respondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if params.Offset, err = intParam(q.Get("offset")); err != nil {
		respondError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	filtered := params.TitleQuery != "" || !params.PublishedAfter.IsZero() ||
		params.Limit != 0 || params.Offset != 0

	if !filtered {
		if videos, ok := s.cachedVideos(r.Context(), channelID); ok {
			respondJSON(w, http.StatusOK, map[string]interface{}{"videos": videos, "cached": true})
			return
		}
	}

	videos, err := s.deps.Store.ListVideos(r.Context(), params)
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to list videos")
		respondError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	if !filtered {
		s.cacheVideos(r.Context(), channelID, videos)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"videos": videos, "cached": false})
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	v, err := s.deps.Store.GetVideo(r.Context(), videoID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "video not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to load video")
		respondError(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) cachedVideos(ctx context.Context, channelID string) ([]store.Video, bool) {
	if s.deps.Cache == nil {
		return nil, false
	}
	raw, err := s.deps.Cache.Get(ctx, videosCacheKey(channelID))
	if errors.Is(err, types.ErrCacheMiss) {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("channel_id", channelID).Msg("Video cache read failed")
		return nil, false
	}
	var videos []store.Video
	if err := json.Unmarshal(raw, &videos); err != nil {
		log.Warn().Err(err).Str("channel_id", channelID).Msg("Video cache entry is corrupt")
		return nil, false
	}
	return videos, true
}

func (s *Server) cacheVideos(ctx context.Context, channelID string, videos []store.Video) {
	if s.deps.Cache == nil {
		return
	}
	raw, err := json.Marshal(videos)
	if err != nil {
		return
	}
	if err := s.deps.Cache.Set(ctx, videosCacheKey(channelID), raw, s.deps.CacheTTL); err != nil {
		log.Warn().Err(err).Str("channel_id", channelID).Msg("Video cache write failed")
	}
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer parameter")
	}
	return n, nil
}
