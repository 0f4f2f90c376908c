// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// MatchEvent is one singles result as delivered by ingestion. It is
// read-only once created.
type MatchEvent struct {
	PlayerA string
	PlayerB string
	SetsA   int
	SetsB   int
	Date    time.Time // zero when the row carried no usable date

	Season   string
	Division string
	Round    int
	FillInA  bool
	FillInB  bool

	// Seq is the discovery order, used to break ties between equal dates.
	Seq int
}

// IsTie reports whether both sides won the same number of sets.
func (m MatchEvent) IsTie() bool { return m.SetsA == m.SetsB }

// Played reports whether the row holds an actual result (0-0 is unplayed).
func (m MatchEvent) Played() bool { return m.SetsA != 0 || m.SetsB != 0 }

// Result orders the participants as winner and loser. ok is false for ties.
func (m MatchEvent) Result() (winner, loser string, winnerSets, loserSets int, ok bool) {
	switch {
	case m.SetsA > m.SetsB:
		return m.PlayerA, m.PlayerB, m.SetsA, m.SetsB, true
	case m.SetsB > m.SetsA:
		return m.PlayerB, m.PlayerA, m.SetsB, m.SetsA, true
	}
	return "", "", 0, 0, false
}

// SeedRecord is an externally supplied baseline for one player. Nil
// Deviation or Volatility keeps the configured default.
type SeedRecord struct {
	Player     string
	Rating     float64
	Deviation  *float64
	Volatility *float64
}

// RefreshRequest asks for one full rebuild of the rating snapshot.
type RefreshRequest struct {
	ID          string
	Reason      string
	RequestedAt time.Time
}

// NewRefreshRequest stamps a request with a fresh id.
func NewRefreshRequest(reason string) RefreshRequest {
	return RefreshRequest{ID: uuid.NewString(), Reason: reason, RequestedAt: time.Now()}
}

// Issue is one problem found while ingesting source data. Issues are
// surfaced through the audit report and never stop a refresh.
type Issue struct {
	Sheet  string
	Row    int // 1-based source row, 0 when not row-specific
	Kind   string
	Detail string
}
