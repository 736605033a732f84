package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type fakePurger struct {
	ttl   time.Duration
	calls int
	err   error
}

func (f *fakePurger) PurgeIdle(_ context.Context, ttl time.Duration) (int64, error) {
	f.calls++
	f.ttl = ttl
	return 3, f.err
}

type fakeSweeper struct{ idle time.Duration }

func (f *fakeSweeper) Sweep(idle time.Duration) int {
	f.idle = idle
	return 1
}

type fakeLimiter struct{ calls int }

func (f *fakeLimiter) Cleanup() int {
	f.calls++
	return 0
}

func TestRunOnceCallsEveryJob(t *testing.T) {
	purger := &fakePurger{}
	sweeper := &fakeSweeper{}
	limiter := &fakeLimiter{}

	s, err := New(Config{Schedule: "@every 1h", SessionTTL: 48 * time.Hour}, purger, sweeper, limiter, slog.Default())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.RunOnce(context.Background())

	if purger.calls != 1 || purger.ttl != 48*time.Hour {
		t.Errorf("purger: calls=%d ttl=%v", purger.calls, purger.ttl)
	}
	if sweeper.idle != 48*time.Hour {
		t.Errorf("sweeper idle = %v, want session ttl", sweeper.idle)
	}
	if limiter.calls != 1 {
		t.Errorf("limiter calls = %d, want 1", limiter.calls)
	}
}

func TestRunOnceContinuesAfterPurgeError(t *testing.T) {
	purger := &fakePurger{err: errors.New("database is locked")}
	limiter := &fakeLimiter{}

	s, err := New(Config{Schedule: "@every 1h", SessionTTL: time.Hour}, purger, nil, limiter, slog.Default())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.RunOnce(context.Background())

	if limiter.calls != 1 {
		t.Error("limiter cleanup should still run after a purge failure")
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	if _, err := New(Config{Schedule: "every so often"}, nil, nil, nil, slog.Default()); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestStartStop(t *testing.T) {
	s, err := New(Config{Schedule: "@every 1h", SessionTTL: time.Hour}, nil, nil, nil, slog.Default())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.Start()
	s.Stop()
}
