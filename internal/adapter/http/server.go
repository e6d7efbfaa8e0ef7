package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/wildfire-data-etl/internal/domain"
	"github.com/couchcryptid/wildfire-data-etl/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SnapshotService is the pipeline surface the API serves.
type SnapshotService interface {
	sharedobs.ReadinessChecker
	Current() (domain.Snapshot, bool)
	Region() string
	RunCycle(ctx context.Context, region string) (domain.Snapshot, error)
}

// Server exposes health, metrics, and the detections API over HTTP.
type Server struct {
	httpServer *http.Server
	svc        SnapshotService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes. allowedOrigins configures CORS for the map frontend.
func NewServer(addr string, svc SnapshotService, allowedOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(svc))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/detections", s.handleDetections)
		api.Post("/refresh", s.handleRefresh)
		api.Get("/regions", s.handleRegions)
	})

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// A refresh runs a full fetch cycle inside the request.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleDetections(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.svc.Current()
	if !ok {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"status": "no data"})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	region := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("region")))
	if region == "" {
		region = s.svc.Region()
	}
	if _, ok := domain.LookupRegion(region); !ok && region != domain.NoRegionFilter {
		s.logger.Warn("unknown region, refreshing without a region filter", "region", region)
	}

	snap, err := s.svc.RunCycle(r.Context(), region)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrNoDetections) {
			status = http.StatusBadGateway
		}
		s.logger.Warn("refresh failed", "region", region, "error", err)
		sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap.Metadata)
}

type regionsResponse struct {
	Current string                `json:"current"`
	Regions []domain.RegionBounds `json:"regions"`
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, regionsResponse{
		Current: s.svc.Region(),
		Regions: domain.Regions(),
	})
}
