package http

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Loaded  bool   `json:"loaded"`
	Records int    `json:"records"`
	Store   string `json:"store,omitempty"`

	Security map[string]int64 `json:"security"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports 503 until the store answers and one reload has
// succeeded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.ensureLoaded(r)
	resp := healthResponse{
		Status:   "ready",
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Loaded:   s.dash.Loaded(),
		Records:  s.dash.Count(),
		Security: s.security.snapshot(),
	}

	if s.ping != nil {
		ctx, cancel := s.storeContext(r)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			resp.Store = err.Error()
		}
	}

	status := http.StatusOK
	if resp.Store != "" || !resp.Loaded {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
