package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/tubedash/tubedash/types"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleHealth probes the store and cache. Any failing probe degrades the
// overall status to 503 so orchestrators stop routing traffic here.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: map[string]string{}}

	if err := s.deps.Store.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Checks["store"] = err.Error()
	} else {
		resp.Checks["store"] = "ok"
	}

	if s.deps.Cache != nil {
		err := s.deps.Cache.Set(r.Context(), "health:probe", []byte("ok"), time.Minute)
		if err == nil {
			_, err = s.deps.Cache.Get(r.Context(), "health:probe")
		}
		if err != nil && !errors.Is(err, types.ErrCacheMiss) {
			resp.Status = "degraded"
			resp.Checks["cache"] = err.Error()
		} else {
			resp.Checks["cache"] = "ok"
		}
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, resp)
}
