package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ratebot-service/internal/application"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var _ application.Worker = (*Scheduler)(nil)

// Scheduler runs the ingestion cycle every Interval and, when Retention is
// set, prunes rate history on PruneSpec.
type Scheduler struct {
	Cycle      application.CycleRunner
	Interval   time.Duration
	RunOnStart bool

	Retention *application.Retention
	PruneSpec string

	Log *zap.Logger
}

func (s *Scheduler) Start(ctx context.Context) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	c, err := s.build(ctx, log)
	if err != nil {
		log.Error("scheduler.setup_failed", zap.Error(err))
		return
	}

	if s.RunOnStart {
		s.runCycle(ctx, log, "startup")
	}

	log.Info("scheduler.started", zap.Duration("interval", s.Interval), zap.String("prune", s.PruneSpec))
	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	log.Info("scheduler.stopped")
}

func (s *Scheduler) build(ctx context.Context, log *zap.Logger) (*cron.Cron, error) {
	if s.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", s.Interval)
	}
	c := cron.New()
	if _, err := c.AddFunc("@every "+s.Interval.String(), func() { s.runCycle(ctx, log, "schedule") }); err != nil {
		return nil, fmt.Errorf("schedule cycle: %w", err)
	}
	if s.Retention != nil && s.PruneSpec != "" {
		if _, err := c.AddFunc(s.PruneSpec, func() { s.prune(ctx, log) }); err != nil {
			return nil, fmt.Errorf("schedule prune %q: %w", s.PruneSpec, err)
		}
	}
	return c, nil
}

func (s *Scheduler) runCycle(ctx context.Context, log *zap.Logger, trigger string) {
	report, err := s.Cycle.Run(ctx)
	switch {
	case errors.Is(err, application.ErrNoTrackedRates):
		log.Warn("scheduler.cycle_empty", zap.String("trigger", trigger), zap.String("date", report.Date))
	case err != nil:
		log.Warn("scheduler.cycle_failed", zap.String("trigger", trigger), zap.Error(err))
	default:
		log.Info("scheduler.cycle_done",
			zap.String("trigger", trigger),
			zap.String("date", report.Date),
			zap.Int("alerts", len(report.Alerts)),
			zap.Int("persisted", report.Persisted),
		)
	}
}

func (s *Scheduler) prune(ctx context.Context, log *zap.Logger) {
	if _, err := s.Retention.Run(ctx); err != nil {
		log.Warn("scheduler.prune_failed", zap.Error(err))
	}
}
