package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

type webhookAnalysisRequest struct {
	VideoID string `json:"videoId"`
}

// handleWebhookAnalysis lets an automation pipeline trigger analysis
// generation for a video it just learned about.
func (s *Server) handleWebhookAnalysis(w http.ResponseWriter, r *http.Request) {
	var req webhookAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.VideoID) == "" {
		respondError(w, http.StatusBadRequest, "videoId is required")
		return
	}

	a, ok := s.generateAnalysis(w, r, req.VideoID)
	if !ok {
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":   "completed",
		"analysis": a,
	})
}
