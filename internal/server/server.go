// Package server exposes the dashboard HTTP API. Routes are grouped under
// per-tier rate limiters: the whole /api surface shares the general tier,
// analysis generation additionally pays the strict tier, and inbound
// webhooks additionally pay the webhook tier.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/tubedash/tubedash/config"
	"github.com/tubedash/tubedash/internal/gemini"
	"github.com/tubedash/tubedash/internal/ratelimit"
	"github.com/tubedash/tubedash/internal/store"
	"github.com/tubedash/tubedash/internal/webhook"
	"github.com/tubedash/tubedash/internal/youtube"
	"github.com/tubedash/tubedash/metrics"
	"github.com/tubedash/tubedash/middleware"
	"github.com/tubedash/tubedash/types"
)

// Store is the persistence surface the handlers use.
type Store interface {
	Ping(ctx context.Context) error
	UpsertChannel(ctx context.Context, ch store.Channel) error
	GetChannel(ctx context.Context, id string) (store.Channel, error)
	ListChannels(ctx context.Context) ([]store.Channel, error)
	DeleteChannel(ctx context.Context, id string) error
	UpsertVideos(ctx context.Context, videos []store.Video) error
	GetVideo(ctx context.Context, id string) (store.Video, error)
	ListVideos(ctx context.Context, params store.ListVideosParams) ([]store.Video, error)
	InsertAnalysis(ctx context.Context, a store.Analysis) error
	GetAnalysisByVideo(ctx context.Context, videoID string) (store.Analysis, error)
	ListAnalyses(ctx context.Context, videoID string) ([]store.Analysis, error)
}

// VideoAPI resolves channels and lists their latest uploads upstream.
type VideoAPI interface {
	ResolveChannel(ctx context.Context, ref string) (youtube.Channel, error)
	ListLatestVideos(ctx context.Context, channelID string, maxResults int) ([]youtube.Video, error)
}

// AnalysisGenerator produces analysis text for a video.
type AnalysisGenerator interface {
	Model() string
	GenerateAnalysis(ctx context.Context, req gemini.AnalysisRequest) (string, error)
}

// Notifier delivers outbound events after an analysis completes.
type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, event webhook.Event) error
}

// Deps carries the collaborators the server is wired with.
type Deps struct {
	Store    Store
	Cache    types.Cache
	CacheTTL time.Duration
	YouTube  VideoAPI
	Gemini   AnalysisGenerator
	Notifier Notifier
	Limiters map[string]*ratelimit.Limiter
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg    config.Config
	deps   Deps
	router *chi.Mux
	server *http.Server
	now    func() time.Time
}

// New builds the router with per-tier rate limiting applied. Every tier
// named by the configuration must be present in deps.Limiters.
func New(cfg config.Config, deps Deps) (*Server, error) {
	tiers := make(map[string]*middleware.RateLimit, 3)
	for _, name := range []string{config.GeneralLimiter, config.WebhookLimiter, config.StrictLimiter} {
		lim, ok := deps.Limiters[name]
		if !ok {
			return nil, fmt.Errorf("server: limiter %q missing from dependencies", name)
		}
		tiers[name] = middleware.NewRateLimit(name, lim, metrics.NewRateLimitMetrics(name), nil)
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: chi.NewRouter(),
		now:    time.Now,
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(chimw.Recoverer)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "resource not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.registerRoutes(tiers[config.GeneralLimiter], tiers[config.StrictLimiter], tiers[config.WebhookLimiter])
	return s, nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port and serves until Shutdown or error.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	log.Info().Str("address", addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// requestLogger emits one debug line per handled request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("Request handled")
	})
}
