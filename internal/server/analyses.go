package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tubedash/tubedash/internal/gemini"
	"github.com/tubedash/tubedash/internal/store"
	"github.com/tubedash/tubedash/internal/webhook"
)

func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	a, ok := s.generateAnalysis(w, r, videoID)
	if !ok {
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	if _, err := s.deps.Store.GetVideo(r.Context(), videoID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "video not found")
			return
		}
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to load video")
		respondError(w, http.StatusInternalServerError, "failed to load video")
		return
	}

	if r.URL.Query().Get("all") == "true" {
		analyses, err := s.deps.Store.ListAnalyses(r.Context(), videoID)
		if err != nil {
			log.Error().Err(err).Str("video_id", videoID).Msg("Failed to list analyses")
			respondError(w, http.StatusInternalServerError, "failed to list analyses")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"analyses": analyses})
		return
	}

	a, err := s.deps.Store.GetAnalysisByVideo(r.Context(), videoID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no analysis for video")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to load analysis")
		respondError(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// generateAnalysis runs the full generation flow for a video and writes the
// error response itself when any step fails.
func (s *Server) generateAnalysis(w http.ResponseWriter, r *http.Request, videoID string) (store.Analysis, bool) {
	ctx := r.Context()

	video, err := s.deps.Store.GetVideo(ctx, videoID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "video not found")
		return store.Analysis{}, false
	}
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to load video")
		respondError(w, http.StatusInternalServerError, "failed to load video")
		return store.Analysis{}, false
	}

	var channelTitle string
	if ch, err := s.deps.Store.GetChannel(ctx, video.ChannelID); err == nil {
		channelTitle = ch.Title
	}

	text, err := s.deps.Gemini.GenerateAnalysis(ctx, gemini.AnalysisRequest{
		VideoTitle:       video.Title,
		VideoDescription: video.Description,
		ChannelTitle:     channelTitle,
	})
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Analysis generation failed")
		respondError(w, http.StatusBadGateway, "analysis generation failed")
		return store.Analysis{}, false
	}

	a := store.Analysis{
		ID:        uuid.NewString(),
		VideoID:   video.ID,
		Model:     s.deps.Gemini.Model(),
		Content:   text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.deps.Store.InsertAnalysis(ctx, a); err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to save analysis")
		respondError(w, http.StatusInternalServerError, "failed to save analysis")
		return store.Analysis{}, false
	}

	if s.deps.Notifier != nil && s.deps.Notifier.Enabled() {
		event := webhook.Event{
			Type:       webhook.EventAnalysisCompleted,
			ChannelID:  video.ChannelID,
			VideoID:    video.ID,
			AnalysisID: a.ID,
			OccurredAt: a.CreatedAt,
		}
		if err := s.deps.Notifier.Notify(ctx, event); err != nil {
			log.Warn().Err(err).Str("analysis_id", a.ID).Msg("Webhook delivery failed")
		}
	}

	log.Info().Str("video_id", video.ID).Str("analysis_id", a.ID).Str("model", a.Model).Msg("Analysis generated")
	return a, true
}
