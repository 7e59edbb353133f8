package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(time.UTC, zap.NewNop())
	if err := s.Add("purge", "toda noite", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for an invalid spec")
	}
	if err := s.Add("purge", "30 3 * * *", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("entries = %d, want 1", s.Len())
	}
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	s := NewScheduler(time.UTC, zap.NewNop())
	ran := make(chan struct{})
	var calls int32
	err := s.Add("tick", "@every 1s", func(ctx context.Context) error {
		if ctx == nil {
			t.Error("job got a nil context")
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			close(ran)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(finished)
	}()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}
	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

type fakePurger struct {
	retention time.Duration
}

func (f *fakePurger) Purge(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return 3, nil
}

func TestPurgeOutbox(t *testing.T) {
	p := &fakePurger{}
	if err := PurgeOutbox(p, 72*time.Hour)(context.Background()); err != nil {
		t.Fatalf("job: %v", err)
	}
	if p.retention != 72*time.Hour {
		t.Errorf("retention = %v", p.retention)
	}
}
