package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tubedash/tubedash/middleware"
)

func (s *Server) registerRoutes(general, strict, webhook *middleware.RateLimit) {
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(general.Handler)

		r.Route("/channels", func(r chi.Router) {
			r.Get("/", s.handleListChannels)
			r.Post("/", s.handleTrackChannel)
			r.Route("/{channelID}", func(r chi.Router) {
				r.Get("/", s.handleGetChannel)
				r.Delete("/", s.handleDeleteChannel)
				r.Post("/refresh", s.handleRefreshChannel)
				r.Get("/videos", s.handleListChannelVideos)
			})
		})

		r.Route("/videos/{videoID}", func(r chi.Router) {
			r.Get("/", s.handleGetVideo)
			r.Get("/analysis", s.handleGetAnalysis)
			// Generation pays the strict tier on top of the general one.
			r.With(strict.Handler).Post("/analysis", s.handleCreateAnalysis)
		})

		r.With(webhook.Handler).Post("/webhooks/analysis", s.handleWebhookAnalysis)
	})
}
