package api

import (
	"context"
	"net/http"

	"github.com/okian/thunder/internal/domain/types"
)

// LeagueDependencies defines the interface for league-wide lists.
type LeagueDependencies interface {
	Seasons(ctx context.Context) []string
	Divisions(ctx context.Context) []string
	Issues(ctx context.Context) []types.Issue
}

// LeagueHandler handles season, division and audit requests.
type LeagueHandler struct {
	deps LeagueDependencies
}

// NewLeagueHandler creates a new league handler.
func NewLeagueHandler(deps LeagueDependencies) *LeagueHandler {
	return &LeagueHandler{deps: deps}
}

// HandleSeasons handles GET /seasons.
func (h *LeagueHandler) HandleSeasons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Seasons(r.Context()))
}

// HandleDivisions handles GET /divisions.
func (h *LeagueHandler) HandleDivisions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Divisions(r.Context()))
}

// HandleAudit handles GET /audit.
func (h *LeagueHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Issues(r.Context()))
}
