package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tubedash/tubedash/internal/store"
	"github.com/tubedash/tubedash/internal/youtube"
)

type trackChannelRequest struct {
	// Channel is a UC-prefixed id or an @handle.
	Channel string `json:"channel"`
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.deps.Store.ListChannels(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list channels")
		respondError(w, http.StatusInternalServerError, "failed to list channels")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"channels": channels})
}

func (s *Server) handleTrackChannel(w http.ResponseWriter, r *http.Request) {
	var req trackChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Channel) == "" {
		respondError(w, http.StatusBadRequest, "channel is required")
		return
	}

	upstream, err := s.deps.YouTube.ResolveChannel(r.Context(), req.Channel)
	if errors.Is(err, youtube.ErrChannelNotFound) {
		respondError(w, http.StatusNotFound, "channel not found on YouTube")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("channel", req.Channel).Msg("Failed to resolve channel")
		respondError(w, http.StatusBadGateway, "failed to resolve channel")
		return
	}

	ch := store.Channel{
		ID:         upstream.ID,
		Title:      upstream.Title,
		Handle:     upstream.Handle,
		Thumbnail:  upstream.Thumbnail,
		VideoCount: upstream.VideoCount,
		AddedAt:    s.now().UTC(),
	}
	if err := s.deps.Store.UpsertChannel(r.Context(), ch); err != nil {
		log.Error().Err(err).Str("channel_id", ch.ID).Msg("Failed to save channel")
		respondError(w, http.StatusInternalServerError, "failed to save channel")
		return
	}

	log.Info().Str("channel_id", ch.ID).Str("title", ch.Title).Msg("Channel tracked")
	respondJSON(w, http.StatusCreated, ch)
}

func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	ch, err := s.deps.Store.GetChannel(r.Context(), channelID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "channel not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to load channel")
		respondError(w, http.StatusInternalServerError, "failed to load channel")
		return
	}
	respondJSON(w, http.StatusOK, ch)
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	err := s.deps.Store.DeleteChannel(r.Context(), channelID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "channel not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to delete channel")
		respondError(w, http.StatusInternalServerError, "failed to delete channel")
		return
	}

	s.invalidateVideos(r.Context(), channelID)
	log.Info().Str("channel_id", channelID).Msg("Channel deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefreshChannel(w http.ResponseWriter, r *http.Request) {
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

	upstream, err := s.deps.YouTube.ListLatestVideos(r.Context(), channelID, s.cfg.YouTube.MaxVideosPerFetch)
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to fetch latest videos")
		respondError(w, http.StatusBadGateway, "failed to fetch latest videos")
		return
	}

	fetchedAt := s.now().UTC()
	videos := make([]store.Video, 0, len(upstream))
	for _, v := range upstream {
		videos = append(videos, store.Video{
			ID:          v.ID,
			ChannelID:   channelID,
			Title:       v.Title,
			Description: v.Description,
			Thumbnail:   v.Thumbnail,
			Duration:    v.Duration,
			ViewCount:   v.ViewCount,
			PublishedAt: v.PublishedAt,
			FetchedAt:   fetchedAt,
		})
	}
	if err := s.deps.Store.UpsertVideos(r.Context(), videos); err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to save videos")
		respondError(w, http.StatusInternalServerError, "failed to save videos")
		return
	}

	s.invalidateVideos(r.Context(), channelID)
	log.Info().Str("channel_id", channelID).Int("videos", len(videos)).Msg("Channel refreshed")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"channelId":     channelID,
		"videosFetched": len(videos),
	})
}
