// Package maintenance runs the recurring housekeeping tasks: pruning
// terminal jobs from the in-memory registry and rating items the
// scraper produced since the last sweep.
package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/legalharvest/internal/logger"
	"github.com/jonesrussell/legalharvest/internal/rating"
)

// Default task schedules, standard 5-field cron expressions.
const (
	defaultCleanupSchedule = "0 * * * *"
	defaultSweepSchedule   = "*/15 * * * *"
)

// JobJanitor prunes terminal jobs from the registry.
type JobJanitor interface {
	CleanupOldJobs(olderThan time.Duration) int
}

// Sweeper rates everything that has not been rated yet.
type Sweeper interface {
	RateAllUnrated(ctx context.Context, limit int) (*rating.SweepResult, error)
}

// Config holds the maintenance schedules.
type Config struct {
	// CleanupSchedule triggers registry pruning.
	CleanupSchedule string
	// CleanupAfter is how long terminal jobs stay queryable.
	CleanupAfter time.Duration
	// SweepSchedule triggers the unrated-item rating sweep.
	SweepSchedule string
}

// Scheduler owns the cron instance and the lifecycle of its tasks.
type Scheduler struct {
	janitor JobJanitor
	sweeper Sweeper
	cfg     Config
	log     logger.Interface

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a stopped scheduler. The second-granularity
// parser is accepted so short schedules work outside production too.
func NewScheduler(janitor JobJanitor, sweeper Sweeper, cfg Config, log logger.Interface) *Scheduler {
	if cfg.CleanupSchedule == "" {
		cfg.CleanupSchedule = defaultCleanupSchedule
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = defaultSweepSchedule
	}
	if cfg.CleanupAfter <= 0 {
		cfg.CleanupAfter = 7 * 24 * time.Hour
	}

	parser := cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		janitor: janitor,
		sweeper: sweeper,
		cfg:     cfg,
		log:     log.WithComponent("maintenance"),
		cron:    c,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start registers both tasks and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.CleanupSchedule, s.runCleanup); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.runSweep); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("maintenance scheduler started",
		"cleanup_schedule", s.cfg.CleanupSchedule,
		"sweep_schedule", s.cfg.SweepSchedule)
	return nil
}

// Stop halts the cron loop and waits for in-flight tasks.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("maintenance scheduler stopped")
}

func (s *Scheduler) runCleanup() {
	s.wg.Add(1)
	defer s.wg.Done()

	removed := s.janitor.CleanupOldJobs(s.cfg.CleanupAfter)
	s.log.Debug("registry cleanup finished", "removed", removed)
}

func (s *Scheduler) runSweep() {
	s.wg.Add(1)
	defer s.wg.Done()

	res, err := s.sweeper.RateAllUnrated(s.ctx, 0)
	if err != nil {
		s.log.WithError(err).Error("rating sweep failed")
		return
	}
	s.log.Info("rating sweep completed", "rated", res.Rated, "failed", res.Failed)
}
