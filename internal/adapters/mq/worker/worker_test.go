package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	queue "github.com/okian/thunder/internal/adapters/mq/queue"
	worker "github.com/okian/thunder/internal/adapters/mq/worker"
	model "github.com/okian/thunder/internal/domain/model"
	logging "github.com/okian/thunder/pkg/logger"
)

type mockRefresher struct {
	mu       sync.Mutex
	seen     []string
	active   atomic.Int32
	overlaps atomic.Int32
	err      error
	delay    time.Duration
}

func (m *mockRefresher) Refresh(_ context.Context, req queue.Request) error {
	if m.active.Add(1) > 1 {
		m.overlaps.Add(1)
	}
	defer m.active.Add(-1)
	time.Sleep(m.delay)
	m.mu.Lock()
	m.seen = append(m.seen, req.Reason)
	m.mu.Unlock()
	return m.err
}

func (m *mockRefresher) reasons() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seen...)
}

func TestRefreshWorker(t *testing.T) {
	if err := logging.Init(); err != nil {
		t.Fatalf("logger init: %v", err)
	}

	convey.Convey("Given a worker over a queue with pending requests", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		ctx := context.Background()
		for _, r := range []string{"a", "b", "c"} {
			convey.So(q.Enqueue(ctx, model.NewRefreshRequest(r)), convey.ShouldBeTrue)
		}
		ref := &mockRefresher{delay: 5 * time.Millisecond}
		w := worker.NewRefreshWorker(q, ref, worker.WithName("test-worker"))

		go w.Run(ctx)
		convey.So(q.Close(), convey.ShouldBeNil)
		waitFor(t, func() bool { return len(ref.reasons()) == 3 })
		stop(t, w)

		convey.Convey("requests run in order and never overlap", func() {
			convey.So(ref.reasons(), convey.ShouldResemble, []string{"a", "b", "c"})
			convey.So(ref.overlaps.Load(), convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given a refresher that fails", t, func() {
		q := queue.NewInMemoryQueue()
		ctx := context.Background()
		ref := &mockRefresher{err: errors.New("boom")}
		w := worker.NewRefreshWorker(q, ref)

		go w.Run(ctx)
		q.Enqueue(ctx, model.NewRefreshRequest("first"))
		q.Enqueue(ctx, model.NewRefreshRequest("second"))
		_ = q.Close()
		waitFor(t, func() bool { return len(ref.reasons()) == 2 })
		stop(t, w)

		convey.Convey("the worker keeps going", func() {
			convey.So(ref.reasons(), convey.ShouldResemble, []string{"first", "second"})
		})
	})

	convey.Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewRefreshWorker(q, &mockRefresher{})
		go w.Run(context.Background())

		convey.Convey("Shutdown stops it and can be repeated", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewRefreshWorker(q, &mockRefresher{})
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		cancel()

		convey.Convey("the loop returns without a shutdown signal", func() {
			ref := &mockRefresher{}
			idle := worker.NewRefreshWorker(queue.NewInMemoryQueue(), ref)
			idle.Run(ctx)
			convey.So(ref.reasons(), convey.ShouldBeEmpty)
			stop(t, w)
		})
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func stop(t *testing.T, w *worker.RefreshWorker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Shutdown(ctx); err != nil {
		t.Fatalf("worker did not stop: %v", err)
	}
}
