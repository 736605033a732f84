// Package cleanup runs periodic housekeeping on a cron schedule.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionPurger deletes session storage idle longer than ttl.
type SessionPurger interface {
	PurgeIdle(ctx context.Context, ttl time.Duration) (int64, error)
}

// ControllerSweeper drops idle flow controllers.
type ControllerSweeper interface {
	Sweep(idle time.Duration) int
}

// LimiterCleaner removes expired rate-limit windows.
type LimiterCleaner interface {
	Cleanup() int
}

type Config struct {
	Schedule   string
	SessionTTL time.Duration
	// ControllerIdle defaults to SessionTTL.
	ControllerIdle time.Duration
}

type Scheduler struct {
	cron     *cron.Cron
	sessions SessionPurger
	flows    ControllerSweeper
	limiter  LimiterCleaner
	cfg      Config
	logger   *slog.Logger
}

func New(cfg Config, sessions SessionPurger, flows ControllerSweeper, limiter LimiterCleaner, logger *slog.Logger) (*Scheduler, error) {
	if cfg.ControllerIdle == 0 {
		cfg.ControllerIdle = cfg.SessionTTL
	}
	s := &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		flows:    flows,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger.With("component", "cleanup"),
	}
	if _, err := s.cron.AddFunc(cfg.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cleanup scheduled", "schedule", s.cfg.Schedule)
}

// Stop waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	s.RunOnce(context.Background())
}

// RunOnce performs one cleanup pass.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.sessions != nil {
		n, err := s.sessions.PurgeIdle(ctx, s.cfg.SessionTTL)
		if err != nil {
			s.logger.Error("purge idle sessions", "error", err)
		} else if n > 0 {
			s.logger.Info("purged idle session data", "rows", n)
		}
	}
	if s.flows != nil {
		if n := s.flows.Sweep(s.cfg.ControllerIdle); n > 0 {
			s.logger.Info("swept idle controllers", "count", n)
		}
	}
	if s.limiter != nil {
		if n := s.limiter.Cleanup(); n > 0 {
			s.logger.Debug("cleaned rate limiter", "entries", n)
		}
	}
}
