package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/thunder/internal/domain/model"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	req := model.NewRefreshRequest("test")
	if !q.Enqueue(ctx, req) {
		t.Fatal("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != req.ID {
		t.Errorf("expected %s, got %s", req.ID, got.ID)
	}
}

func TestInMemoryQueue_Backpressure(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, model.NewRefreshRequest("a")) || !q.Enqueue(ctx, model.NewRefreshRequest("b")) {
		t.Fatal("expected first two enqueues to succeed")
	}
	if q.Enqueue(ctx, model.NewRefreshRequest("c")) {
		t.Error("expected enqueue on a full queue to fail")
	}
}

func TestInMemoryQueue_DefaultCapacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(0))
	ctx := context.Background()
	for i := 0; i < defaultQueueCapacity; i++ {
		if !q.Enqueue(ctx, model.NewRefreshRequest("fill")) {
			t.Fatalf("enqueue %d failed below capacity", i)
		}
	}
	if q.Enqueue(ctx, model.NewRefreshRequest("over")) {
		t.Error("expected enqueue beyond default capacity to fail")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if q.Enqueue(ctx, model.NewRefreshRequest("late")) {
		t.Error("expected enqueue with cancelled context to fail")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if q.Enqueue(ctx, model.NewRefreshRequest("concurrent")) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted != 10 {
		t.Errorf("expected exactly 10 accepted, got %d", accepted)
	}
	if l := q.Len(ctx); l != 10 {
		t.Errorf("expected length 10, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	q.Enqueue(ctx, model.NewRefreshRequest("pending"))
	if err := q.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if q.Enqueue(ctx, model.NewRefreshRequest("after")) {
		t.Error("expected enqueue after close to fail")
	}

	ch := q.Dequeue(ctx)
	count := 0
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if count != 1 {
					t.Errorf("expected 1 drained request, got %d", count)
				}
				return
			}
			count++
		case <-timeout:
			t.Fatal("dequeue channel was not closed")
		}
	}
}
