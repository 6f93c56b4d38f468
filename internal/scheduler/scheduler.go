// Package scheduler polls for due matches and runs each one in its own
// goroutine, never more than a fixed number at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
)

// Runner simulates one match to completion. It is given only the match id
// and loads everything else itself.
type Runner interface {
	PlayMatch(ctx context.Context, matchID int64) error
}

// Source finds and claims due matches.
type Source interface {
	DueMatches(ctx context.Context, before time.Time, limit int) ([]model.Match, error)
	ClaimMatch(ctx context.Context, id int64) (bool, error)
	ReleaseMatch(ctx context.Context, id int64) error
}

// Config controls polling and concurrency.
type Config struct {
	Interval      time.Duration
	MaxConcurrent int
	BatchLimit    int
}

// Status is a snapshot of the scheduler.
type Status struct {
	Active int
	Max    int
	Paused bool
}

// Scheduler owns the pool of running matches and the pause flag.
type Scheduler struct {
	src    Source
	runner Runner
	cfg    Config
	log    *slog.Logger
	now    func() time.Time

	slots  *semaphore.Weighted
	active atomic.Int64
	paused atomic.Bool
	wg     sync.WaitGroup

	mu   sync.Mutex
	cron gocron.Scheduler
}

// New validates cfg and returns a stopped Scheduler.
func New(src Source, runner Runner, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if cfg.Interval <= 0 || cfg.MaxConcurrent <= 0 || cfg.BatchLimit <= 0 {
		return nil, fmt.Errorf("scheduler config %+v: interval, concurrency and batch limit must be positive: %w", cfg, simerr.ErrFatal)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		src:    src,
		runner: runner,
		cfg:    cfg,
		log:    logger.With("component", "scheduler"),
		now:    time.Now,
		slots:  semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}, nil
}

// Start begins polling every Interval, starting immediately.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("scheduler already started: %w", simerr.ErrInvalidState)
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create cron: %w", err)
	}
	_, err = cron.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(func() { s.pollAndLog(context.Background()) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cron.Shutdown()
		return fmt.Errorf("register poll job: %w", err)
	}
	cron.Start()
	s.cron = cron
	s.log.Info("scheduler started", "interval", s.cfg.Interval, "max_concurrent", s.cfg.MaxConcurrent)
	return nil
}

// Stop stops polling and waits for running matches to finish. Running
// matches are never cancelled.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cron := s.cron
	s.cron = nil
	s.mu.Unlock()

	var err error
	if cron != nil {
		err = cron.Shutdown()
	}
	s.Wait()
	s.log.Info("scheduler stopped")
	return err
}

// Wait blocks until no match is running.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Pause stops new matches from being launched. Running matches continue.
func (s *Scheduler) Pause() {
	if !s.paused.Swap(true) {
		s.log.Info("scheduler paused")
	}
}

// Resume allows launches again.
func (s *Scheduler) Resume() {
	if s.paused.Swap(false) {
		s.log.Info("scheduler resumed")
	}
}

// Status reports the number of running matches, the cap and the pause flag.
func (s *Scheduler) Status() Status {
	return Status{
		Active: int(s.active.Load()),
		Max:    s.cfg.MaxConcurrent,
		Paused: s.paused.Load(),
	}
}

func (s *Scheduler) pollAndLog(ctx context.Context) {
	n, err := s.Poll(ctx)
	st := s.Status()
	switch {
	case errors.Is(err, simerr.ErrTransient):
		s.log.Info("poll deferred", "launched", n, "reason", err, "active", st.Active, "max", st.Max)
	case err != nil:
		s.log.Error("poll failed", "launched", n, "error", err)
	default:
		s.log.Debug("poll done", "launched", n, "active", st.Active, "max", st.Max)
	}
}

// Poll launches due matches until the batch is exhausted, the pool is full or
// the scheduler is paused. Matches not launched stay unclaimed for the next poll.
// It returns the number launched; a full pool or pause is reported as a
// transient error.
func (s *Scheduler) Poll(ctx context.Context) (int, error) {
	if s.paused.Load() {
		return 0, simerr.ErrPaused
	}
	due, err := s.src.DueMatches(ctx, s.now(), s.cfg.BatchLimit)
	if err != nil {
		return 0, fmt.Errorf("find due matches: %w", err)
	}

	launched := 0
	for _, m := range due {
		if s.paused.Load() {
			return launched, simerr.ErrPaused
		}
		if !s.slots.TryAcquire(1) {
			return launched, simerr.ErrAtCapacity
		}
		ok, err := s.src.ClaimMatch(ctx, m.ID)
		if err != nil {
			s.slots.Release(1)
			return launched, err
		}
		if !ok {
			s.slots.Release(1)
			continue
		}
		s.launch(m.ID)
		launched++
	}
	return launched, nil
}

// launch runs one match in its own goroutine. The caller holds a slot, which
// is released when the match ends.
func (s *Scheduler) launch(matchID int64) {
	log := s.log.With("match_id", matchID, "run_id", uuid.NewString())
	s.active.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.slots.Release(1)
		defer s.active.Add(-1)

		start := time.Now()
		log.Info("match started")
		if err := s.run(matchID); err != nil {
			log.Error("match failed", "kind", simerr.Kind(err), "error", err, "elapsed", time.Since(start))
			if errors.Is(err, simerr.ErrTransient) {
				// let a later poll pick it up again
				if err := s.src.ReleaseMatch(context.Background(), matchID); err != nil {
					log.Error("release match", "error", err)
				}
			}
			return
		}
		log.Info("match done", "elapsed", time.Since(start))
	}()
}

func (s *Scheduler) run(matchID int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("match %d panicked: %v", matchID, r)
		}
	}()
	return s.runner.PlayMatch(context.Background(), matchID)
}
