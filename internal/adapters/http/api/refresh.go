package api

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type refreshResponse struct {
	Status      string `json:"status"`
	RequestID   string `json:"request_id"`
	RequestedAt string `json:"requested_at"`
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps    RefreshDependencies
	limiter *rate.Limiter // nil means unlimited
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies, limiter *rate.Limiter) *RefreshHandler {
	return &RefreshHandler{deps: deps, limiter: limiter}
}

// HandleRefresh handles POST /refresh?reason=... and answers 202 once the
// request is queued.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"
	if h.limiter != nil && !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind(op, ErrBackpressure))
		return
	}
	reason := strings.TrimSpace(r.URL.Query().Get("reason"))
	if reason == "" {
		reason = "api"
	}
	req, err := h.deps.RequestRefresh(r.Context(), reason)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{
		Status:      "accepted",
		RequestID:   req.ID,
		RequestedAt: req.RequestedAt.UTC().Format(time.RFC3339),
	})
}
