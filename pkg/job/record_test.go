package job

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTransitionsAreMonotonic(t *testing.T) {
	rec := NewRecord("a", "b", nil)
	steps := []Status{
		StatusComputingBaseline,
		StatusEvaluatingConfidence,
		StatusEnhancing,
		StatusDeciding,
		StatusCompleted,
	}
	for _, s := range steps {
		if err := rec.transition(s); err != nil {
			t.Fatalf("transition to %s: %v", s, err)
		}
	}
	if err := rec.transition(StatusEnhancing); err == nil {
		t.Fatal("terminal record must reject further transitions")
	}
}

func TestSkipDirectlyToCompletedIsLegal(t *testing.T) {
	rec := NewRecord("a", "b", nil)
	if err := rec.transition(StatusComputingBaseline); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := rec.transition(StatusEvaluatingConfidence); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := rec.transition(StatusCompleted); err != nil {
		t.Fatalf("high-confidence jobs complete without enhancing: %v", err)
	}
}

func TestBackwardsTransitionRejected(t *testing.T) {
	rec := NewRecord("a", "b", nil)
	if err := rec.transition(StatusEnhancing); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := rec.transition(StatusComputingBaseline); err == nil {
		t.Fatal("backwards transition must be rejected")
	}
	if err := rec.transition(StatusEnhancing); err == nil {
		t.Fatal("revisiting a status must be rejected")
	}
}

func TestNewRecordDefaults(t *testing.T) {
	rec := NewRecord("a", "b", map[string]any{"k": 1})
	if rec.ID == "" {
		t.Fatal("record needs an id")
	}
	if rec.Status != StatusPending {
		t.Fatalf("status = %s, want PENDING", rec.Status)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("record needs a creation time")
	}
	if rec.FinalRoute != nil || rec.Error != "" {
		t.Fatal("fresh record must not carry terminal fields")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetJob(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec := NewRecord("a", "b", nil)
	rec.Status = StatusCompleted
	if err := store.RecordJob(ctx, rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := store.GetJob(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != rec.ID || got.Status != StatusCompleted {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestPoolProcessesSubmittedJobs(t *testing.T) {
	router := &fakeRouter{candidate: baselineWithConfidence(0.90)}
	store := NewMemoryStore()
	c := newTestCoordinator(router, nil, store)
	pool := NewPool(c, PoolOptions{Workers: 2, QueueSize: 8, Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = pool.Run(ctx)
		close(done)
	}()

	rec := NewRecord("Amsterdam_Central", "Dam_Square", nil)
	if err := pool.Submit(rec); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if stored, err := store.GetJob(context.Background(), rec.ID); err == nil {
			if stored.Status != StatusCompleted {
				t.Fatalf("status = %s, want COMPLETED", stored.Status)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("job never reached the store")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, inflight := pool.Status(rec.ID); inflight {
		// The worker may not have cleared the entry yet; give it a moment.
		time.Sleep(50 * time.Millisecond)
		if _, inflight := pool.Status(rec.ID); inflight {
			t.Fatal("terminal job still tracked as inflight")
		}
	}

	cancel()
	<-done
}

func TestPoolQueueFull(t *testing.T) {
	router := &fakeRouter{candidate: baselineWithConfidence(0.90)}
	c := newTestCoordinator(router, nil, NewMemoryStore())
	pool := NewPool(c, PoolOptions{Workers: 1, QueueSize: 1, Logger: zerolog.Nop()})
	// Not running: the queue fills immediately.
	if err := pool.Submit(NewRecord("a", "b", nil)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := pool.Submit(NewRecord("a", "b", nil)); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}
