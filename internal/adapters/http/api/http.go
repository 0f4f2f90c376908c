// Package api serves the read-only rating API and the refresh trigger.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/okian/thunder/internal/adapters/mq/queue"
	"github.com/okian/thunder/internal/adapters/repository"
	service "github.com/okian/thunder/internal/app"
	"github.com/okian/thunder/internal/domain/model"
	"github.com/okian/thunder/internal/domain/replay"
	"github.com/okian/thunder/internal/domain/stats"
	"github.com/okian/thunder/internal/domain/types"
)

const defaultMaxLimit = 100

// Dependencies required by HTTP handlers.
type Dependencies interface {
	LeaderboardDependencies
	PlayerDependencies
	LeagueDependencies
	RefreshDependencies
	StatsProvider
}

// RefreshDependencies queues asynchronous refreshes.
type RefreshDependencies interface {
	RequestRefresh(ctx context.Context, reason string) (model.RefreshRequest, error)
}

// Entry mirrors the leaderboard row shape.
type Entry = types.Entry

// Server wires HTTP routes for the rating API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	playerHandler      *PlayerHandler
	leagueHandler      *LeagueHandler
	refreshHandler     *RefreshHandler
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit     int
	refreshLimit *rate.Limiter
}

// WithMaxLimit caps the leaderboard limit parameter.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithRefreshRate allows perMinute refresh requests with a burst of burst.
// A non-positive rate disables limiting.
func WithRefreshRate(perMinute float64, burst int) Option {
	return func(c *serverConfig) {
		if perMinute > 0 && burst > 0 {
			c.refreshLimit = rate.NewLimiter(rate.Limit(perMinute/60), burst)
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.maxLimit),
		playerHandler:      NewPlayerHandler(deps),
		leagueHandler:      NewLeagueHandler(deps),
		refreshHandler:     NewRefreshHandler(deps, cfg.refreshLimit),
	}
}

// Routes builds the router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	s.Register(r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Get("/leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
	r.Get("/ratings/{player}", s.leaderboardHandler.HandleGetRating)
	r.Get("/players", s.playerHandler.HandleListPlayers)
	r.Get("/players/{player}/stats", s.playerHandler.HandlePlayerStats)
	r.Get("/compare/{p1}/{p2}", s.playerHandler.HandleCompare)
	r.Get("/seasons", s.leagueHandler.HandleSeasons)
	r.Get("/divisions", s.leagueHandler.HandleDivisions)
	r.Get("/audit", s.leagueHandler.HandleAudit)
	r.Post("/refresh", s.refreshHandler.HandleRefresh)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps domain errors onto HTTP statuses.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, stats.ErrUnknownPlayer):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, replay.ErrRefreshInProgress):
		writeError(w, http.StatusConflict, "refresh_in_progress", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
