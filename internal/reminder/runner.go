package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/robfig/cron/v3"
)

type Sweeper interface {
	Sweep(ctx context.Context) (Result, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type RunnerConfig struct {
	Schedule string
	Location *time.Location
}

// Runner triggers sweeps on a cron schedule. Overlapping triggers are
// skipped while a sweep is still running.
type Runner struct {
	cfg     RunnerConfig
	sweeper Sweeper
	db      Pinger
	stats   *observability.SweepStats
	log     *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func NewRunner(cfg RunnerConfig, sweeper Sweeper, db Pinger, stats *observability.SweepStats, log *slog.Logger) (*Runner, error) {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if stats == nil {
		stats = observability.NewSweepStats()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Runner{
		cfg:     cfg,
		sweeper: sweeper,
		db:      db,
		stats:   stats,
		log:     log,
	}, nil
}

// Run blocks until ctx is cancelled, then waits for an in-flight sweep.
func (r *Runner) Run(ctx context.Context) error {
	cronLog := cron.PrintfLogger(slog.NewLogLogger(r.log.Handler(), slog.LevelInfo))

	c := cron.New(
		cron.WithLocation(r.cfg.Location),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := c.AddFunc(r.cfg.Schedule, func() {
		_, _ = r.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule reminder sweep: %w", err)
	}

	c.Start()
	r.setReady(true)
	r.log.Info("reminder runner started", "schedule", r.cfg.Schedule, "location", r.cfg.Location.String())

	<-ctx.Done()

	r.setReady(false)
	r.log.Info("reminder runner stopping")

	<-c.Stop().Done()
	r.log.Info("reminder runner stopped")
	return nil
}

func (r *Runner) RunOnce(ctx context.Context) (Result, error) {
	r.log.InfoContext(ctx, "reminder.sweep_triggered")
	return r.sweeper.Sweep(ctx)
}

func (r *Runner) Ready() bool {
	r.readyMu.RLock()
	defer r.readyMu.RUnlock()
	return r.ready
}

func (r *Runner) setReady(v bool) {
	r.readyMu.Lock()
	r.ready = v
	r.readyMu.Unlock()
}
