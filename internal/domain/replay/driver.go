package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/thunder/internal/adapters/repository"
	"github.com/okian/thunder/internal/domain/model"
	"github.com/okian/thunder/internal/domain/rating"
	"github.com/okian/thunder/pkg/logger"
	"github.com/okian/thunder/pkg/metrics"
)

// Batch is everything a Source yields for one refresh.
type Batch struct {
	Matches []model.MatchEvent
	Seeds   []model.SeedRecord
	Issues  []model.Issue
}

// Source loads the full match history for a refresh.
type Source interface {
	Load(ctx context.Context) (Batch, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Batch, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (Batch, error) { return f(ctx) }

// Result is the output of one successful refresh.
type Result struct {
	Snapshot *repository.Snapshot
	Report   Report
	Batch    Batch
}

// Driver runs refreshes one at a time, each against a brand new store.
type Driver struct {
	source   Source
	engine   repository.Updater
	defaults rating.State
	cutoff   time.Time
	logger   logger.Logger

	running sync.Mutex
}

// Option configures a Driver.
type Option func(*Driver)

// WithEngine sets the match update function.
func WithEngine(e repository.Updater) Option {
	return func(d *Driver) {
		if e != nil {
			d.engine = e
		}
	}
}

// WithDefaultState sets the state of unseen players.
func WithDefaultState(s rating.State) Option {
	return func(d *Driver) { d.defaults = s }
}

// WithCutoffDate excludes matches dated at or before t from ratings.
func WithCutoffDate(t time.Time) Option {
	return func(d *Driver) { d.cutoff = t }
}

// WithLogger sets the driver logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDriver creates a driver reading from source.
func NewDriver(source Source, opts ...Option) *Driver {
	d := &Driver{
		source:   source,
		engine:   rating.NewEngine(),
		defaults: rating.DefaultState(),
		logger:   logger.Get().Named("replay"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Refresh loads a batch, replays it into a fresh store and returns the
// result. A Refresh issued while another one runs fails with
// ErrRefreshInProgress.
func (d *Driver) Refresh(ctx context.Context) (Result, error) {
	if !d.running.TryLock() {
		return Result{}, ErrRefreshInProgress
	}
	defer d.running.Unlock()

	start := time.Now()
	id := uuid.NewString()
	d.logger.Info(ctx, "refresh started", logger.String("cycle", id))

	res, err := d.refresh(ctx, id)
	if err != nil {
		metrics.RecordRefreshFailure()
		metrics.RecordErrorByComponent("replay", "refresh_failed")
		d.logger.Error(ctx, "refresh failed", logger.String("cycle", id), logger.Error(err))
		return Result{}, err
	}

	metrics.RecordRefresh(time.Since(start))
	metrics.UpdatePlayersTotal(res.Snapshot.Len())
	rep := res.Report
	d.logger.Info(ctx, "refresh finished",
		logger.String("cycle", id),
		logger.Int("players", res.Snapshot.Len()),
		logger.Int("collected", rep.Collected),
		logger.Int("replayed", rep.Replayed),
		logger.Int("cutoff_excluded", rep.CutoffExcluded),
		logger.Int("ties", rep.Ties),
		logger.Int("rejected", len(rep.Rejected)),
		logger.Int("seed_rejections", len(rep.SeedRejections)),
		logger.Int("issues", len(res.Batch.Issues)),
		logger.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (d *Driver) refresh(ctx context.Context, id string) (Result, error) {
	batch, err := d.source.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	store := repository.NewMemoryStore(
		repository.WithUpdater(d.engine),
		repository.WithDefaults(d.defaults),
	)
	c := NewCycle(id, store, WithCutoff(d.cutoff), WithCycleLogger(d.logger))
	if err := c.AddSeeds(batch.Seeds...); err != nil {
		return Result{}, err
	}
	if err := c.Add(batch.Matches...); err != nil {
		return Result{}, err
	}

	snap, rep, err := c.Replay(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Snapshot: snap, Report: rep, Batch: batch}, nil
}
