// Package scheduler re-runs sweep jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one unit of scheduled work, typically a full sweep.
type Job func(ctx context.Context) error

// Scheduler runs a single job on a six-field cron spec (seconds first). A tick that arrives
// while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	log     zerolog.Logger
	job     Job
	running atomic.Bool
	runs    atomic.Int64
	skipped atomic.Int64
}

// New creates a scheduler whose jobs receive ctx.
func New(ctx context.Context, log zerolog.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		ctx:  ctx,
		log:  log,
	}
}

// Register schedules job on spec, e.g. "0 0 3 * * *" for 03:00 daily.
func (s *Scheduler) Register(spec string, job Job) error {
	if job == nil {
		return fmt.Errorf("register %q: nil job", spec)
	}
	s.job = job
	if _, err := s.cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register %q: %w", spec, err)
	}
	return nil
}

// RunNow runs the job synchronously unless a run is already in progress.
func (s *Scheduler) RunNow() {
	if s.job == nil {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.log.Warn().Msg("previous sweep still running, tick skipped")
		return
	}
	defer s.running.Store(false)

	s.runs.Add(1)
	if err := s.job(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled sweep failed")
		return
	}
	s.log.Info().Msg("scheduled sweep finished")
}

// Runs and Skipped report counters since construction.
func (s *Scheduler) Runs() int64    { return s.runs.Load() }
func (s *Scheduler) Skipped() int64 { return s.skipped.Load() }

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop prevents new runs and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// cronLogger routes cron's own messages into zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
