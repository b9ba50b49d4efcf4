package cleanup

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeSweeper struct {
	ttl    time.Duration
	calls  int
	reaped int
}

func (s *fakeSweeper) SweepIdle(ttl time.Duration) int {
	s.ttl = ttl
	s.calls++
	return s.reaped
}

func TestRunSweepsWithConfiguredTTL(t *testing.T) {
	sweeper := &fakeSweeper{reaped: 3}
	job := NewSessionCleanupJob(sweeper, 45*time.Minute, time.Minute, zap.NewNop())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup job: %v", err)
	}

	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.calls)
	}
	if sweeper.ttl != 45*time.Minute {
		t.Fatalf("unexpected ttl: %v", sweeper.ttl)
	}
}

func TestNewSessionCleanupJobAppliesDefaults(t *testing.T) {
	sweeper := &fakeSweeper{}
	job := NewSessionCleanupJob(sweeper, 0, 0, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup job: %v", err)
	}
	if sweeper.ttl != defaultSessionTTL {
		t.Fatalf("expected default ttl, got %v", sweeper.ttl)
	}
}

func TestRunLoopStopsOnContextCancel(t *testing.T) {
	sweeper := &fakeSweeper{}
	job := NewSessionCleanupJob(sweeper, time.Hour, time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- job.RunLoop(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run loop: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("run loop did not stop after cancel")
	}

	if sweeper.calls < 1 {
		t.Fatalf("expected at least one sweep before cancel")
	}
}
