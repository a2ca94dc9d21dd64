// Package scheduler runs the periodic expiry sweep over active postings.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/weiawesome/labor-market/pkg/log"
)

// Sweeper expires stale postings and reports how many it touched.
type Sweeper interface {
	ExpireStaleJobs(ctx context.Context) (int, error)
}

// Scheduler wraps robfig/cron and manages the expiry loop.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string // cron spec, e.g. "@every 1h"
	timeout time.Duration
}

// New creates a Scheduler firing on the cron expression spec. Overlapping runs are skipped.
func New(sweeper Sweeper, spec string, timeout time.Duration) *Scheduler {
	logger := cronLogger{l: log.L().With().Str("component", "scheduler").Logger()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		sweeper: sweeper,
		spec:    spec,
		timeout: timeout,
	}
}

// Start registers the sweep and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	l := log.L()
	l.Info().Str("spec", s.spec).Msg("expiry scheduler started")
	return nil
}

// Stop waits for a running sweep and stops the scheduler.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	l := log.L()
	l.Info().Msg("expiry scheduler stopped")
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	l := log.Ctx(ctx)

	n, err := s.sweeper.ExpireStaleJobs(ctx)
	if err != nil {
		l.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if n > 0 {
		l.Info().Int("count", n).Msg("expired stale jobs")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
