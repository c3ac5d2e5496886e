package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/simulator"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Feed is the simulator surface the API drives.
type Feed interface {
	Points() ([]domain.HazardPoint, time.Time)
	Missions() []domain.Mission
	Assign(ctx context.Context, pointID, agency string) (domain.Mission, error)
	Complete(ctx context.Context, missionID string) (domain.Mission, error)
	Tick(ctx context.Context) int
	Initialize(ctx context.Context) []domain.HazardPoint
}

// Server exposes the feed API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	feed       Feed
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api routes, /health, /healthz,
// /readyz, and /metrics.
func NewServer(addr string, feed Feed, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      cors(requestLogger(logger, mux)),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		feed:   feed,
		logger: logger,
	}

	mux.HandleFunc("GET /api/points", s.handlePoints)
	mux.HandleFunc("GET /api/missions", s.handleMissions)
	mux.HandleFunc("POST /api/assign", s.handleAssign)
	mux.HandleFunc("POST /api/complete/{mission_id}", s.handleComplete)
	mux.HandleFunc("POST /api/update", s.handleUpdate)
	mux.HandleFunc("GET /api/init", s.handleInit)

	mux.HandleFunc("GET /{$}", handleRoot)
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

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

type pointsResponse struct {
	Points     []domain.HazardPoint `json:"points"`
	LastUpdate string               `json:"last_update"`
	Count      int                  `json:"count"`
}

type missionsResponse struct {
	Missions []domain.Mission `json:"missions"`
	Count    int              `json:"count"`
}

type assignRequest struct {
	PointID string `json:"point_id"`
	Agency  string `json:"agency"`
}

type missionResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Mission domain.Mission `json:"mission"`
}

type updateResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	PointsCount int    `json:"points_count"`
}

type initResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Points  []domain.HazardPoint `json:"points"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePoints(w http.ResponseWriter, _ *http.Request) {
	points, last := s.feed.Points()
	writeJSON(w, http.StatusOK, pointsResponse{
		Points:     points,
		LastUpdate: domain.FormatTime(last),
		Count:      len(points),
	})
}

func (s *Server) handleMissions(w http.ResponseWriter, _ *http.Request) {
	missions := s.feed.Missions()
	writeJSON(w, http.StatusOK, missionsResponse{Missions: missions, Count: len(missions)})
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	mission, err := s.feed.Assign(r.Context(), req.PointID, req.Agency)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, missionResponse{
		Success: true,
		Message: "Mission assigned to " + mission.Agency,
		Mission: mission,
	})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	mission, err := s.feed.Complete(r.Context(), r.PathValue("mission_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, missionResponse{
		Success: true,
		Message: "Mission completed at " + mission.Location,
		Mission: mission,
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	count := s.feed.Tick(r.Context())
	writeJSON(w, http.StatusOK, updateResponse{
		Success:     true,
		Message:     "Disaster points updated",
		PointsCount: count,
	})
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	points := s.feed.Initialize(r.Context())
	writeJSON(w, http.StatusOK, initResponse{
		Success: true,
		Message: fmt.Sprintf("Initialized %d disaster points", len(points)),
		Points:  points,
	})
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Disaster feed service is running"))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": "Server is running"})
}

// writeError maps simulator lookup failures to 404 and anything else to 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, simulator.ErrPointNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Point not found"})
	case errors.Is(err, simulator.ErrMissionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Mission not found"})
	case errors.Is(err, simulator.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // headers already sent
}
