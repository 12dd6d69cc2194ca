// Package server exposes the trend intelligence JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TobiSchelling/TrendIntel/internal/analysis"
	"github.com/TobiSchelling/TrendIntel/internal/config"
	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/feed"
	"github.com/TobiSchelling/TrendIntel/internal/insights"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/people"
	"github.com/TobiSchelling/TrendIntel/internal/recommend"
	"github.com/TobiSchelling/TrendIntel/internal/scrape"
	"github.com/TobiSchelling/TrendIntel/internal/sources"
	"github.com/TobiSchelling/TrendIntel/internal/trends"
)

// Server is the HTTP API server.
type Server struct {
	cfg      *config.Config
	db       *database.DB
	trends   *trends.Service
	sources  *sources.Service
	people   *people.Service
	scraper  *scrape.Scraper
	feed     *feed.Engine
	insights *insights.Job
	recs     *recommend.Service
	router   chi.Router
}

// New creates a Server. job may be nil, in which case the server owns its
// own insights job.
func New(cfg *config.Config, db *database.DB, ai *analysis.Service, scraper *scrape.Scraper, job *insights.Job) *Server {
	if job == nil {
		job = insights.New(db, ai)
	}
	s := &Server{
		cfg:      cfg,
		db:       db,
		trends:   trends.New(db, ai),
		sources:  sources.New(db, ai),
		people:   people.New(db),
		scraper:  scraper,
		feed:     feed.New(db),
		insights: job,
		recs:     recommend.New(db, ai),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.Server.CORSOrigins))
	r.Use(rateLimit(s.cfg.Server.RateLimit))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		notFound(w, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "Method Not Allowed")
	})

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/trends", s.trendRoutes)
		r.Route("/moodboards", s.moodBoardRoutes)
		r.Route("/monitoring", s.monitoringRoutes)
		r.Get("/dashboard/summary", s.handleDashboard)
		r.Route("/sources", s.sourceRoutes)
		r.Route("/people", s.peopleRoutes)
		r.Route("/feed", s.feedRoutes)
		r.Route("/insights", s.insightRoutes)
		r.Route("/recommendations", s.recommendationRoutes)
	})
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to " + s.cfg.App.Name,
		"version": s.cfg.App.Version,
		"docs":    "/docs",
		"health":  "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("Health check: database unreachable")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"app":     s.cfg.App.Name,
			"version": s.cfg.App.Version,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"app":     s.cfg.App.Name,
		"version": s.cfg.App.Version,
	})
}

// Service runs the API under a supervisor.
type Service struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

// NewService wraps s in an http.Server listening on the configured port.
func NewService(s *Server) *Service {
	return &Service{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: 10 * time.Second,
	}
}

// Serve listens until ctx is canceled, then shuts down gracefully.
func (svc *Service) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", svc.srv.Addr).Msg("Server listening")
		if err := svc.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), svc.shutdownTimeout)
		defer cancel()
		if err := svc.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (svc *Service) String() string {
	return "http-server"
}
