// Package service wires ingestion, replay and the refresh queue together
// and serves the published snapshot to the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/thunder/internal/adapters/mq/queue"
	"github.com/okian/thunder/internal/adapters/mq/worker"
	"github.com/okian/thunder/internal/adapters/repository"
	"github.com/okian/thunder/internal/domain/model"
	"github.com/okian/thunder/internal/domain/rating"
	"github.com/okian/thunder/internal/domain/replay"
	"github.com/okian/thunder/internal/domain/stats"
	"github.com/okian/thunder/internal/domain/types"
	"github.com/okian/thunder/pkg/logger"
	"github.com/okian/thunder/pkg/metrics"
)

const (
	defaultQueueSize = 4
	displayDate      = "02/01/2006"
	shutdownTimeout  = 30 * time.Second
)

// published is everything one successful refresh produced. It is swapped
// in whole so readers never see a mix of two cycles.
type published struct {
	snapshot    *repository.Snapshot
	ledger      *stats.Ledger
	report      replay.Report
	issues      []model.Issue
	refreshedAt time.Time
}

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	source   replay.Source
	engine   *rating.Engine
	defaults rating.State
	cutoff   time.Time
	driver   *replay.Driver

	queueSize       int
	refreshInterval time.Duration
	refreshQueue    *queue.InMemoryQueue
	worker          *worker.RefreshWorker

	current     atomic.Pointer[published]
	lastFailure atomic.Pointer[string]

	started bool
	cancel  context.CancelFunc
	stopCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where refreshes read matches from.
func WithSource(src replay.Source) Option {
	return func(s *Service) { s.source = src }
}

// WithEngine sets the match update function.
func WithEngine(e *rating.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithDefaultState sets the state of unseen players.
func WithDefaultState(st rating.State) Option {
	return func(s *Service) { s.defaults = st }
}

// WithCutoff excludes matches at or before t from ratings.
func WithCutoff(t time.Time) Option {
	return func(s *Service) { s.cutoff = t }
}

// WithQueueSize sets the refresh queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRefreshInterval enables periodic refreshes. Zero disables them.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshInterval = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Until the first refresh it serves an empty
// snapshot.
func New(opts ...Option) *Service {
	s := &Service{
		engine:    rating.NewEngine(),
		defaults:  rating.DefaultState(),
		queueSize: defaultQueueSize,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.current.Store(&published{snapshot: repository.EmptySnapshot(), ledger: stats.NewLedger(nil)})

	if s.source != nil {
		s.driver = replay.NewDriver(s.source,
			replay.WithEngine(s.engine),
			replay.WithDefaultState(s.defaults),
			replay.WithCutoffDate(s.cutoff),
			replay.WithLogger(s.logger.Named("replay")),
		)
	}
	return s
}

// Start launches the refresh worker and queues the initial refresh.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.driver == nil {
		return ErrNoSource
	}

	s.logger.Info(ctx, "starting rating service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.stopCh = make(chan struct{})
	s.refreshQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewRefreshWorker(s.refreshQueue, refreshHandler{s}, worker.WithLogger(s.logger.Named("worker")))
	go s.worker.Run(runCtx)

	if s.refreshInterval > 0 {
		go s.tick(runCtx)
	}

	s.started = true
	s.refreshQueue.Enqueue(ctx, model.NewRefreshRequest("startup"))
	s.logger.Info(ctx, "rating service started",
		logger.Int("queueSize", s.queueSize),
		logger.Duration("refreshInterval", s.refreshInterval),
	)
	return nil
}

func (s *Service) tick(ctx context.Context) {
	t := time.NewTicker(s.refreshInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-t.C:
			if _, err := s.RequestRefresh(ctx, "interval"); err != nil {
				s.logger.Debug(ctx, "periodic refresh skipped", logger.Error(err))
			}
		}
	}
}

// Stop shuts the worker down. The last snapshot stays readable.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping rating service...")

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	_ = s.refreshQueue.Close()

	sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.worker.Shutdown(sctx); err != nil {
		s.logger.Warn(ctx, "worker shutdown", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// refreshHandler lets the worker drive Service.Refresh.
type refreshHandler struct{ s *Service }

func (h refreshHandler) Refresh(ctx context.Context, req queue.Request) error {
	return h.s.Refresh(ctx)
}

// RequestRefresh queues an asynchronous refresh. A full queue returns
// queue.ErrQueueFull.
func (s *Service) RequestRefresh(ctx context.Context, reason string) (model.RefreshRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.RefreshRequest{}, ErrNotStarted
	}
	req := model.NewRefreshRequest(reason)
	if !s.refreshQueue.Enqueue(ctx, req) {
		return model.RefreshRequest{}, queue.ErrQueueFull
	}
	return req, nil
}

// Refresh rebuilds ratings now and publishes them. On failure the previous
// snapshot stays live.
func (s *Service) Refresh(ctx context.Context) error {
	if s.driver == nil {
		return ErrNoSource
	}
	res, err := s.driver.Refresh(ctx)
	if err != nil {
		msg := err.Error()
		s.lastFailure.Store(&msg)
		return fmt.Errorf("refresh: %w", err)
	}
	s.current.Store(&published{
		snapshot:    res.Snapshot,
		ledger:      stats.NewLedger(res.Batch.Matches),
		report:      res.Report,
		issues:      res.Batch.Issues,
		refreshedAt: time.Now(),
	})
	s.lastFailure.Store(nil)
	return nil
}

func (s *Service) live() *published { return s.current.Load() }

// TopN returns the first n leaderboard rows.
func (s *Service) TopN(_ context.Context, n int) ([]types.Entry, error) {
	rows, err := s.live().snapshot.TopN(n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(rows))
	for i, e := range rows {
		out[i] = toEntry(e)
	}
	return out, nil
}

// Rank returns the leaderboard row for player.
func (s *Service) Rank(_ context.Context, player string) (types.Entry, error) {
	e, err := s.live().snapshot.Rank(player)
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(e), nil
}

// Players returns every player known to the ledger, sorted.
func (s *Service) Players(_ context.Context) []string { return s.live().ledger.Players() }

// Seasons returns Career followed by every season.
func (s *Service) Seasons(_ context.Context) []string { return s.live().ledger.Seasons() }

// Divisions returns every division, sorted.
func (s *Service) Divisions(_ context.Context) []string { return s.live().ledger.Divisions() }

// PlayerStats returns the filtered win/loss record for player along with
// the current rating when the player is rated.
func (s *Service) PlayerStats(_ context.Context, player string, f stats.Filter) (types.PlayerStats, error) {
	p := s.live()
	ps, err := p.ledger.Player(player, f)
	if err != nil {
		return types.PlayerStats{}, err
	}
	out := types.PlayerStats{
		Name:     ps.Player,
		Regular:  toBucket(ps.Regular),
		FillIn:   toBucket(ps.FillIn),
		Combined: toBucket(ps.Combined),
	}
	if e, err := p.snapshot.Rank(player); err == nil {
		entry := toEntry(e)
		out.Rating = &entry
	}
	return out, nil
}

// HeadToHead returns the shared matches of p1 and p2.
func (s *Service) HeadToHead(_ context.Context, p1, p2 string) (types.HeadToHead, error) {
	h, err := s.live().ledger.HeadToHead(p1, p2)
	if err != nil {
		return types.HeadToHead{}, err
	}
	return types.HeadToHead{
		Player1: h.Player1,
		Player2: h.Player2,
		P1Wins:  h.Wins1,
		P2Wins:  h.Wins2,
		Matches: toMatches(h.Matches),
	}, nil
}

// Issues returns the ingestion audit of the last published refresh
// followed by the matches that refresh rejected.
func (s *Service) Issues(_ context.Context) []types.Issue {
	p := s.live()
	out := make([]types.Issue, 0, len(p.issues)+len(p.report.Rejected)+len(p.report.SeedRejections))
	for _, is := range p.issues {
		out = append(out, types.Issue{Sheet: is.Sheet, Row: is.Row, Type: is.Kind, Details: is.Detail})
	}
	for _, r := range p.report.Rejected {
		out = append(out, types.Issue{Sheet: r.Event.Season, Type: "Rejected Match", Details: r.Reason})
	}
	for _, r := range p.report.SeedRejections {
		out = append(out, types.Issue{Sheet: "seeds", Type: "Rejected Seed", Details: r.Reason})
	}
	return out
}

// Report returns the replay report of the last published refresh.
func (s *Service) Report() replay.Report { return s.live().report }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	p := s.live()
	out := map[string]interface{}{
		"started":       s.started,
		"queueSize":     s.queueSize,
		"players":       p.snapshot.Len(),
		"matches":       p.ledger.Matches(),
		"cycleId":       p.snapshot.CycleID,
		"replayed":      p.report.Replayed,
		"cutoffSkipped": p.report.CutoffExcluded,
		"ties":          p.report.Ties,
		"rejected":      len(p.report.Rejected),
		"issues":        len(p.issues),
	}
	if !p.refreshedAt.IsZero() {
		out["refreshedAt"] = p.refreshedAt.UTC().Format(time.RFC3339)
	}
	if msg := s.lastFailure.Load(); msg != nil {
		out["lastError"] = *msg
	}
	if s.started {
		out["queueLength"] = s.refreshQueue.Len(ctx)
	}
	metrics.UpdatePlayersTotal(p.snapshot.Len())
	return out
}

func toEntry(e repository.Entry) types.Entry {
	return types.Entry{
		Rank:       e.Rank,
		Player:     e.Player,
		Rating:     e.DisplayRating(),
		Deviation:  e.DisplayDeviation(),
		Volatility: e.DisplayVolatility(),
	}
}

func toBucket(b stats.Bucket) types.Bucket {
	return types.Bucket{
		Matches:      b.Matches,
		Wins:         b.Wins,
		Losses:       b.Losses,
		Draws:        b.Draws,
		WinRate:      fmt.Sprintf("%.1f%%", b.WinRate),
		SetsWon:      b.SetsWon,
		SetsLost:     b.SetsLost,
		MatchHistory: toMatches(b.History),
	}
}

func toMatches(hs []stats.HistoryEntry) []types.Match {
	out := make([]types.Match, len(hs))
	for i, h := range hs {
		d := ""
		if !h.Date.IsZero() {
			d = h.Date.Format(displayDate)
		}
		out[i] = types.Match{
			Date:     d,
			Opponent: h.Opponent,
			Result:   h.Result,
			Score:    h.Score,
			Type:     h.Type,
			Division: h.Division,
			Season:   h.Season,
		}
	}
	return out
}
