package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tally/internal/log"
	"tally/internal/services"
	"tally/internal/session"
	appweb "tally/web"
)

// ServerConfig tunes the HTTP surface.
type ServerConfig struct {
	Addr string
	// RequestTimeout bounds every store call a handler makes.
	RequestTimeout time.Duration
	// MutationsPerMinute is the POST budget per client IP.
	MutationsPerMinute int
	// DevMode relaxes the security headers for local work.
	DevMode bool
	// Ping checks the record store for /readyz. Optional.
	Ping func(context.Context) error
}

type Server struct {
	http.Server
	dash      *services.Dashboard
	sessions  *session.Manager
	templates *template.Template
	logger    *log.Logger
	requests  *log.StructuredLogger
	timeout   time.Duration
	ping      func(context.Context) error
	security  securityMetrics
	metrics   *metrics
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and mounts every route.
func NewServer(cfg ServerConfig, dash *services.Dashboard, sessions *session.Manager, logger *log.Logger) (*Server, error) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 7 * time.Second
	}
	if cfg.MutationsPerMinute <= 0 {
		cfg.MutationsPerMinute = 60
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs(dash.Location())).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		dash:      dash,
		sessions:  sessions,
		templates: t,
		logger:    logger,
		requests:  log.NewStructuredLogger(logger),
		timeout:   cfg.RequestTimeout,
		ping:      cfg.Ping,
		started:   time.Now(),
	}
	s.metrics = newMetrics(dash, &s.security)
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(cfg ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		log.Middleware(s.logger),
		log.RequestIDMiddleware(middleware.GetReqID),
		s.logRequests,
		suspiciousRequestLogger(&s.security, s.logger.WithComponent(log.ComponentSecurity)),
		middleware.Recoverer,
		secureHeaders(cfg.DevMode),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Page not found.").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		})
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)
		r.Use(mutationLimiter(cfg.MutationsPerMinute, &s.security, s.logger.WithComponent(log.ComponentRateLimit)))

		r.Get("/", s.handleIndex)
		r.Get("/ui/summary", s.handleSummaryPartial)
		r.Get("/ui/tally", s.handleTallyPartial)
		r.Get("/api/report", s.handleReportJSON)
		r.Get("/api/records", s.handleRecordsJSON)
		r.Get("/export/tally.xlsx", s.handleExportXLSX)
		r.Get("/export/tally.csv", s.handleExportCSV)

		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/records", s.handleCreateRecords)
			r.Post("/records/{id}", s.handleSaveRecord)
			r.Post("/records/{id}/edit", s.handleEditRecord)
			r.Post("/records/{id}/cancel", s.handleCancelEdit)
			r.Post("/records/{id}/delete", s.handleDeleteRecord)
		})
	})
	return r
}

// logRequests writes the start and completion lines for every request and
// records it in the metrics.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		s.requests.LogHTTPStart(r.Context(), r, clientIP)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.requests.LogHTTPEnd(r.Context(), r, status, elapsed.Milliseconds(), clientIP)
		s.metrics.observe(r, status, elapsed)
	})
}

// requireAdmin rejects non-admin sessions with 403.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).Admin {
			s.logger.WarnContext(r.Context(), "Admin route without admin session",
				log.FieldPath, r.URL.Path, log.FieldClientIP, extractClientIP(r))
			ForbiddenError("Admin access required.").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// storeContext bounds a store call made on behalf of r.
func (s *Server) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}
