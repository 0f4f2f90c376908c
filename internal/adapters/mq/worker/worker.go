// Package worker runs queued refresh requests one after another.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/thunder/internal/adapters/mq/queue"
	"github.com/okian/thunder/pkg/logger"
	"github.com/okian/thunder/pkg/metrics"
)

// Refresher performs one full refresh for a request.
type Refresher interface {
	Refresh(ctx context.Context, req queue.Request) error
}

// Queue defines how the worker receives requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Request
}

// Worker consumes refresh requests.
type Worker interface {
	// Run consumes requests until ctx is cancelled, Shutdown is called or
	// the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the in-flight request finishes.
	Shutdown(ctx context.Context) error
}

// RefreshWorker is the only consumer of the refresh queue, so refreshes
// never overlap.
type RefreshWorker struct {
	queue     Queue
	refresher Refresher
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewRefreshWorker creates a worker reading from q.
func NewRefreshWorker(q Queue, r Refresher, opts ...Option) *RefreshWorker {
	w := &RefreshWorker{
		queue:     q,
		refresher: r,
		name:      "refresh-worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *RefreshWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			if err := w.process(ctx, req); err != nil {
				w.logger.Error(ctx, "refresh request failed", logger.Error(err))
			}
		}
	}
}

// Shutdown signals the loop to stop and waits for it.
func (w *RefreshWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *RefreshWorker) process(ctx context.Context, req queue.Request) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	w.logger.Debug(ctx, "processing refresh request",
		logger.String("request", req.ID),
		logger.String("reason", req.Reason),
		logger.Duration("waited", start.Sub(req.RequestedAt)),
	)
	if err := w.refresher.Refresh(ctx, req); err != nil {
		metrics.RecordErrorByComponent("worker", "refresh_error")
		return fmt.Errorf("request %s: %w", req.ID, err)
	}
	return nil
}
