package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/thunder/internal/domain/stats"
	"github.com/okian/thunder/internal/domain/types"
)

// Accepted layouts for start and end query parameters.
var queryDateLayouts = []string{time.DateOnly, "02/01/2006"}

// PlayerDependencies defines the interface for per-player reads.
type PlayerDependencies interface {
	Players(ctx context.Context) []string
	PlayerStats(ctx context.Context, player string, f stats.Filter) (types.PlayerStats, error)
	HeadToHead(ctx context.Context, p1, p2 string) (types.HeadToHead, error)
}

// PlayerHandler handles player requests.
type PlayerHandler struct {
	deps PlayerDependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps PlayerDependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

// HandleListPlayers handles GET /players.
func (h *PlayerHandler) HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Players(r.Context()))
}

// HandlePlayerStats handles GET /players/{player}/stats?season&division&start&end.
func (h *PlayerHandler) HandlePlayerStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_stats"
	q := r.URL.Query()
	f := stats.Filter{Season: q.Get("season"), Division: q.Get("division")}

	var err error
	if f.Start, err = queryDate(q.Get("start")); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if f.End, err = queryDate(q.Get("end")); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	ps, err := h.deps.PlayerStats(r.Context(), chi.URLParam(r, "player"), f)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// HandleCompare handles GET /compare/{p1}/{p2}.
func (h *PlayerHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare"
	h2h, err := h.deps.HeadToHead(r.Context(), chi.URLParam(r, "p1"), chi.URLParam(r, "p2"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, h2h)
}

func queryDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	var err error
	for _, layout := range queryDateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
