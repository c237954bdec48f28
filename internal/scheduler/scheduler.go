package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweepable is anything holding sessions that can expire.
type Sweepable interface {
	Sweep() int
	Len() int
}

// Sweeper periodically evicts idle dashboard sessions.
type Sweeper struct {
	scheduler *gocron.Scheduler
	target    Sweepable
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Sweeper.
func New(target Sweepable, interval time.Duration, logger *slog.Logger) *Sweeper {
	s := gocron.NewScheduler(time.UTC)
	return &Sweeper{
		scheduler: s,
		target:    target,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Sweeper) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().SingletonMode().Do(s.Run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("session sweeper started", "interval", interval)
	return nil
}

// Run performs one sweep.
func (s *Sweeper) Run() {
	removed := s.target.Sweep()
	if removed > 0 {
		s.logger.Info("evicted idle sessions", "removed", removed, "remaining", s.target.Len())
		return
	}
	s.logger.Debug("session sweep found nothing to evict", "remaining", s.target.Len())
}

// Stop stops the scheduler and cancels any future sweeps.
func (s *Sweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
