// Package repository holds the per-cycle rating store and the read-only
// snapshot it exports.
package repository

import (
	"context"

	"github.com/okian/thunder/internal/domain/rating"
)

// Store owns every player's rating state for one refresh cycle.
type Store interface {
	// GetOrCreate returns the player's state, creating the default entry
	// for unseen players.
	GetOrCreate(ctx context.Context, player string) rating.State

	// Seed overwrites a player's baseline. nil deviation or volatility keep
	// the configured default. Only allowed before the first match.
	Seed(ctx context.Context, player string, r float64, deviation, volatility *float64) error

	// ApplyMatchResult updates both players from one decided match. Either
	// both new states are written or neither is.
	ApplyMatchResult(ctx context.Context, winner, loser string, winnerSets, loserSets int) (rating.Outcome, error)

	// Snapshot exports the current contents sorted by descending rating.
	Snapshot(ctx context.Context, cycleID string) *Snapshot

	// Count returns the number of players tracked.
	Count(ctx context.Context) int
}

// Updater computes post-match states; *rating.Engine satisfies it.
type Updater interface {
	Update(winner, loser rating.State, winnerSets, loserSets int) (rating.Outcome, error)
}
