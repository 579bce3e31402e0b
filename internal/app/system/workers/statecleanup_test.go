// internal/app/system/workers/statecleanup_test.go
package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeSweeper struct {
	calls atomic.Int64
	err   error
}

func (f *fakeSweeper) CleanupExpired(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func TestStateCleanup_SweepsOnStartAndTick(t *testing.T) {
	sweeper := &fakeSweeper{}
	w := NewStateCleanup(sweeper, zap.NewNop(), 10*time.Millisecond)

	w.Start()
	time.Sleep(35 * time.Millisecond)
	w.Stop()

	// One startup sweep plus at least one tick.
	if got := sweeper.calls.Load(); got < 2 {
		t.Fatalf("expected at least 2 sweeps, got %d", got)
	}
}

func TestStateCleanup_StopHaltsSweeps(t *testing.T) {
	sweeper := &fakeSweeper{}
	w := NewStateCleanup(sweeper, zap.NewNop(), 5*time.Millisecond)

	w.Start()
	w.Stop()

	settled := sweeper.calls.Load()
	time.Sleep(25 * time.Millisecond)
	if got := sweeper.calls.Load(); got != settled {
		t.Fatalf("sweeps continued after Stop: %d -> %d", settled, got)
	}
}

func TestStateCleanup_SurvivesSweepErrors(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("mongo down")}
	w := NewStateCleanup(sweeper, zap.NewNop(), 10*time.Millisecond)

	w.Start()
	time.Sleep(35 * time.Millisecond)
	w.Stop()

	if got := sweeper.calls.Load(); got < 2 {
		t.Fatalf("worker should keep sweeping after errors, got %d sweeps", got)
	}
}
