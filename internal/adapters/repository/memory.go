package repository

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/thunder/internal/domain/rating"
	"github.com/okian/thunder/pkg/metrics"
)

// MemoryStore is the in-memory Store used for one refresh cycle.
type MemoryStore struct {
	mu       sync.Mutex
	states   map[string]rating.State
	defaults rating.State
	updater  Updater

	// replaying flips on the first match and closes seeding.
	replaying bool
}

// NewMemoryStore creates an empty store using the default engine.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		states:   make(map[string]rating.State),
		defaults: rating.DefaultState(),
		updater:  rating.NewEngine(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the player's state, inserting the default if unseen.
func (s *MemoryStore) GetOrCreate(_ context.Context, player string) rating.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[player]
	if !ok {
		st = s.defaults
		s.states[player] = st
	}
	return st
}

// Seed overwrites the baseline for player. Rejected input leaves the
// existing or default state in place.
func (s *MemoryStore) Seed(_ context.Context, player string, r float64, deviation, volatility *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.replaying {
		return fmt.Errorf("seed %q: %w", player, ErrSeedAfterReplay)
	}
	if player == "" {
		return fmt.Errorf("empty player: %w", ErrInvalidSeed)
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return fmt.Errorf("seed %q rating %v: %w", player, r, ErrInvalidSeed)
	}

	st := rating.State{Rating: r, Deviation: s.defaults.Deviation, Volatility: s.defaults.Volatility}
	if deviation != nil {
		st.Deviation = *deviation
	}
	if volatility != nil {
		st.Volatility = *volatility
	}
	if err := st.Validate(); err != nil {
		return fmt.Errorf("seed %q: %w: %w", player, ErrInvalidSeed, err)
	}
	s.states[player] = st
	return nil
}

// ApplyMatchResult runs the update for winner over loser and writes both
// states back. Ties and engine failures leave the store untouched.
func (s *MemoryStore) ApplyMatchResult(_ context.Context, winner, loser string, winnerSets, loserSets int) (rating.Outcome, error) {
	if winnerSets == loserSets {
		return rating.Outcome{}, fmt.Errorf("%s vs %s: %w", winner, loser, rating.ErrTie)
	}
	if winner == loser {
		return rating.Outcome{}, fmt.Errorf("%s: %w", winner, ErrSelfMatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaying = true

	w, ok := s.states[winner]
	if !ok {
		w = s.defaults
	}
	l, ok := s.states[loser]
	if !ok {
		l = s.defaults
	}

	out, err := s.updater.Update(w, l, winnerSets, loserSets)
	if err != nil {
		return rating.Outcome{}, fmt.Errorf("%s vs %s: %w", winner, loser, err)
	}
	s.states[winner] = out.Winner
	s.states[loser] = out.Loser
	return out, nil
}

// Count returns the number of tracked players.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Snapshot copies the current states into a read-only Snapshot.
func (s *MemoryStore) Snapshot(_ context.Context, cycleID string) *Snapshot {
	start := time.Now()
	s.mu.Lock()
	states := make(map[string]rating.State, len(s.states))
	for p, st := range s.states {
		states[p] = st
	}
	s.mu.Unlock()

	snap := newSnapshot(cycleID, states)
	metrics.RecordSnapshotBuild(float64(time.Since(start).Microseconds()) / 1000)
	return snap
}
