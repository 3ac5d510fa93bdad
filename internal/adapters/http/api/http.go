// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/telematics/internal/adapters/stream"
	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/internal/domain/types"
)

// SessionDependencies covers the feedback session operations.
type SessionDependencies interface {
	CreateSession(ctx context.Context, policyholderID string) (types.Session, error)
	Session(ctx context.Context, id string) (types.Session, error)
	StartSimulation(ctx context.Context, id string) (bool, error)
	MarkRead(ctx context.Context, id, feedbackID string) (types.Session, error)
	CloseSession(ctx context.Context, id string) error
}

// DashboardDependencies covers the read-only dashboard data.
type DashboardDependencies interface {
	Dashboard(ctx context.Context, policyholderID string) (types.DashboardResponse, error)
	Tips(ctx context.Context) []model.Tip
}

// StreamDependencies opens live feedback subscriptions.
type StreamDependencies interface {
	Subscribe(ctx context.Context, id string) (*stream.Subscription, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	DashboardDependencies
	StreamDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dashboardHandler *DashboardHandler
	sessionsHandler  *SessionsHandler
	streamHandler    *StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...StreamOption) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		dashboardHandler: NewDashboardHandler(deps),
		sessionsHandler:  NewSessionsHandler(deps),
		streamHandler:    NewStreamHandler(deps, opts...),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/dashboard/{policyholder_id}", MetricsMiddleware(s.dashboardHandler.HandleGetDashboard, "dashboard"))
	mux.HandleFunc("GET /api/tips", MetricsMiddleware(s.dashboardHandler.HandleGetTips, "tips"))

	mux.HandleFunc("POST /api/sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions_create"))
	mux.HandleFunc("GET /api/sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "sessions_get"))
	mux.HandleFunc("DELETE /api/sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleDelete, "sessions_delete"))
	mux.HandleFunc("POST /api/sessions/{id}/simulation", MetricsMiddleware(s.sessionsHandler.HandleStart, "simulation"))
	mux.HandleFunc("POST /api/sessions/{id}/feedback/{feedback_id}/read", MetricsMiddleware(s.sessionsHandler.HandleMarkRead, "mark_read"))
	mux.HandleFunc("GET /api/sessions/{id}/stream", MetricsMiddleware(s.streamHandler.HandleStream, "stream"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {code, message} with the status of its kind.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.ErrorResponse{Code: code, Message: msg})
}
