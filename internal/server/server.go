// Package server serves trace waterfalls over HTTP.
//
// Traces are read from a directory of Zipkin JSON files. Every request goes
// through the pipeline runner, so renders share its cache and hooks.
//
// Routes:
//
//	GET    /healthz
//	GET    /traces                              list trace files
//	GET    /traces/{name}?format=&expand=       stateless render
//	GET    /traces/{name}/display?format=       read-only view, all panels open
//	POST   /views                               create an interactive view
//	GET    /views/{id}?format=                  render a view
//	POST   /views/{id}/toggle/{span}            toggle one row, redirect back
//	DELETE /views/{id}
//
// format is one of the pipeline formats and defaults to html.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/spantower/pkg/buildinfo"
	"github.com/matzehuels/spantower/pkg/pipeline"
	"github.com/matzehuels/spantower/pkg/session"
	"github.com/matzehuels/spantower/pkg/waterfall"
)

// Config holds server settings.
type Config struct {
	Addr       string
	TraceDir   string
	TrackWidth float64
	Rate       float64 // requests per second per client; 0 disables limiting
	Burst      int
	SessionTTL time.Duration
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8080"
	}
	if c.TraceDir == "" {
		c.TraceDir = "."
	}
	if c.TrackWidth == 0 {
		c.TrackWidth = waterfall.DefaultTrackWidth
	}
	if c.Burst == 0 {
		c.Burst = max(1, int(c.Rate))
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = session.DefaultTTL
	}
}

// Server is the HTTP front end.
type Server struct {
	cfg      Config
	runner   *pipeline.Runner
	sessions session.Store
	logger   *log.Logger
	limiter  *clientLimiter
	views    viewLocks
	router   chi.Router
}

// New creates a server. A nil store keeps views in memory.
func New(cfg Config, runner *pipeline.Runner, sessions session.Store, logger *log.Logger) *Server {
	cfg.setDefaults()
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:      cfg,
		runner:   runner,
		sessions: sessions,
		logger:   logger,
	}
	if cfg.Rate > 0 {
		s.limiter = newClientLimiter(cfg.Rate, cfg.Burst)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	if s.limiter != nil {
		r.Use(s.rateLimit)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, r, http.StatusOK, health{Status: "ok", Build: buildinfo.Get()})
	})

	r.Route("/traces", func(r chi.Router) {
		r.Get("/", s.handleListTraces)
		r.Get("/{name}", s.handleTrace)
		r.Get("/{name}/display", s.handleDisplay)
		r.Post("/{name}/display/toggle/{span}", s.handleDisplayToggle)
	})

	r.Route("/views", func(r chi.Router) {
		r.Post("/", s.handleCreateView)
		r.Get("/{id}", s.handleView)
		r.Delete("/{id}", s.handleDeleteView)
		r.Post("/{id}/toggle/{span}", s.handleToggle)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.housekeeping(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr, "traces", s.cfg.TraceDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// housekeeping drops expired views and idle client limiters.
func (s *Server) housekeeping(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sessions.Cleanup(ctx); err != nil {
				s.logger.Warn("session cleanup failed", "error", err)
			}
			if s.limiter != nil {
				s.limiter.sweep(10 * time.Minute)
			}
		}
	}
}
