package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/milktrack/internal/config"
)

// Refresher recomputes the dashboard against the current clock.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Reporter produces the end-of-day summary.
type Reporter interface {
	SendDailySummary(ctx context.Context) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	reporter  Reporter
	cfg       config.ReportingConfig
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance running in loc. reporter may
// be nil when no summary sink is configured.
func NewScheduler(cfg config.ReportingConfig, loc *time.Location, refresher Refresher, reporter Reporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		refresher: refresher,
		reporter:  reporter,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("refresh", s.cfg.RefreshSchedule),
		zap.String("daily_report", s.cfg.DailySchedule))

	if _, err := s.cron.AddFunc(s.cfg.RefreshSchedule, s.refresh); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", s.cfg.RefreshSchedule, err)
	}
	if s.reporter != nil {
		if _, err := s.cron.AddFunc(s.cfg.DailySchedule, s.sendDailySummary); err != nil {
			return fmt.Errorf("schedule daily report %q: %w", s.cfg.DailySchedule, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Warn("dashboard refresh failed", zap.Error(err))
	}
}

func (s *Scheduler) sendDailySummary() {
	s.logger.Info("generating daily summary")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.reporter.SendDailySummary(ctx); err != nil {
		s.logger.Error("failed to deliver daily summary", zap.Error(err))
		return
	}
	s.logger.Info("daily summary delivered")
}
