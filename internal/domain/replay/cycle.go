// Package replay rebuilds ratings by replaying every collected match in
// chronological order against a fresh rating store.
package replay

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/thunder/internal/adapters/repository"
	"github.com/okian/thunder/internal/domain/model"
	"github.com/okian/thunder/internal/domain/rating"
	"github.com/okian/thunder/pkg/logger"
	"github.com/okian/thunder/pkg/metrics"
)

// Phase is the lifecycle position of a Cycle.
type Phase int

// Cycle phases. Replaying is terminal.
const (
	Collecting Phase = iota
	Replaying
)

func (p Phase) String() string {
	if p == Replaying {
		return "replaying"
	}
	return "collecting"
}

// Cycle owns one rating store for exactly one replay.
type Cycle struct {
	id     string
	store  repository.Store
	cutoff time.Time
	logger logger.Logger

	mu     sync.Mutex
	phase  Phase
	events []model.MatchEvent
	seeds  []model.SeedRecord
	seq    int
}

// CycleOption configures a Cycle.
type CycleOption func(*Cycle)

// WithCutoff excludes events dated at or before t. A zero t disables the
// cutoff. Undated events count as at or before any cutoff.
func WithCutoff(t time.Time) CycleOption {
	return func(c *Cycle) { c.cutoff = t }
}

// WithCycleLogger sets the logger used for rejected matches and seeds.
func WithCycleLogger(l logger.Logger) CycleOption {
	return func(c *Cycle) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCycle starts collecting for a new cycle backed by store.
func NewCycle(id string, store repository.Store, opts ...CycleOption) *Cycle {
	c := &Cycle{
		id:     id,
		store:  store,
		logger: logger.Get().Named("replay"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the cycle id.
func (c *Cycle) ID() string { return c.id }

// Phase returns the current phase.
func (c *Cycle) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Add collects events. Events without a sequence number get the next one
// in arrival order.
func (c *Cycle) Add(events ...model.MatchEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Collecting {
		return ErrCycleClosed
	}
	for _, ev := range events {
		c.seq++
		if ev.Seq == 0 {
			ev.Seq = c.seq
		}
		c.events = append(c.events, ev)
	}
	return nil
}

// AddSeeds collects seed records. They are applied before any match.
func (c *Cycle) AddSeeds(seeds ...model.SeedRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Collecting {
		return ErrCycleClosed
	}
	c.seeds = append(c.seeds, seeds...)
	return nil
}

// Replay moves the cycle to Replaying and feeds every eligible event to
// the store in (date, sequence) order. It returns ErrCycleClosed when
// called twice. Once started the pass is not interrupted by ctx.
func (c *Cycle) Replay(ctx context.Context) (*repository.Snapshot, Report, error) {
	c.mu.Lock()
	if c.phase != Collecting {
		c.mu.Unlock()
		return nil, Report{}, ErrCycleClosed
	}
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		return nil, Report{}, err
	}
	c.phase = Replaying
	events, seeds := c.events, c.seeds
	c.events, c.seeds = nil, nil
	c.mu.Unlock()

	start := time.Now()
	rep := Report{CycleID: c.id, Collected: len(events)}

	for _, s := range seeds {
		if err := c.store.Seed(ctx, s.Player, s.Rating, s.Deviation, s.Volatility); err != nil {
			rep.SeedRejections = append(rep.SeedRejections, Rejection{Player: s.Player, Reason: err.Error()})
			metrics.RecordSeedRejected()
			c.logger.Warn(ctx, "seed rejected", logger.String("player", s.Player), logger.Error(err))
			continue
		}
		rep.Seeded++
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].Seq < events[j].Seq
	})

	for i := range events {
		c.apply(ctx, &events[i], &rep)
	}

	rep.Duration = time.Since(start)
	return c.store.Snapshot(ctx, c.id), rep, nil
}

func (c *Cycle) excluded(ev *model.MatchEvent) bool {
	if c.cutoff.IsZero() {
		return false
	}
	return ev.Date.IsZero() || !ev.Date.After(c.cutoff)
}

func (c *Cycle) apply(ctx context.Context, ev *model.MatchEvent, rep *Report) {
	if c.excluded(ev) {
		rep.CutoffExcluded++
		metrics.RecordMatchSkipped(metrics.SkipCutoff)
		return
	}
	winner, loser, ws, ls, ok := ev.Result()
	if !ok {
		rep.Ties++
		metrics.RecordMatchSkipped(metrics.SkipTie)
		return
	}

	out, err := c.store.ApplyMatchResult(ctx, winner, loser, ws, ls)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, rating.ErrNonFinite) {
			metrics.RecordMatchSkipped(metrics.SkipNonFinite)
			metrics.RecordErrorByComponent("replay", metrics.SkipNonFinite)
		} else {
			metrics.RecordErrorByComponent("replay", "rejected")
		}
		evCopy := *ev
		rep.Rejected = append(rep.Rejected, Rejection{Player: winner, Event: &evCopy, Reason: reason})
		c.logger.Warn(ctx, "match rejected",
			logger.String("winner", winner),
			logger.String("loser", loser),
			logger.String("score", fmt.Sprintf("%d-%d", ws, ls)),
			logger.Error(err),
		)
		return
	}

	rep.Replayed++
	metrics.RecordMatchReplayed()
	for _, s := range []rating.SolveResult{out.WinnerSolve, out.LoserSolve} {
		metrics.RecordSolve(s.Iterations, s.Converged)
		if !s.Converged {
			rep.SolverCapHits++
		}
	}
}
