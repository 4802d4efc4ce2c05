// Package jobs schedules the recurring maintenance passes: rolling-horizon
// extension of open-ended series and lifecycle updates of past celebrations.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/example/intention-scheduler/internal/application"
	"github.com/example/intention-scheduler/internal/config"
	"github.com/example/intention-scheduler/internal/logging"
)

type Extender interface {
	ExtendYearly(ctx context.Context) (application.ExtendReport, error)
	ExtendMonthly(ctx context.Context) (application.ExtendReport, error)
}

type Lifecycle interface {
	UpdateLifecycle(ctx context.Context) (application.LifecycleReport, error)
}

// Scheduler owns the cron runner. Every job is idempotent, so overlapping or
// repeated runs are safe.
type Scheduler struct {
	cron      *cron.Cron
	extender  Extender
	lifecycle Lifecycle
	logger    *slog.Logger
}

func NewScheduler(extender Extender, lifecycle Lifecycle, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:      cron.New(),
		extender:  extender,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Register binds the configured cron expressions to the job runners.
func (s *Scheduler) Register(schedules config.JobSchedules) error {
	if _, err := s.cron.AddFunc(schedules.ExtendYearly, func() { s.runExtendYearly(context.Background()) }); err != nil {
		return fmt.Errorf("invalid extend-yearly schedule %q: %w", schedules.ExtendYearly, err)
	}
	if _, err := s.cron.AddFunc(schedules.ExtendMonthly, func() { s.runExtendMonthly(context.Background()) }); err != nil {
		return fmt.Errorf("invalid extend-monthly schedule %q: %w", schedules.ExtendMonthly, err)
	}
	if _, err := s.cron.AddFunc(schedules.UpdateLifecycle, func() { s.runUpdateLifecycle(context.Background()) }); err != nil {
		return fmt.Errorf("invalid update-lifecycle schedule %q: %w", schedules.UpdateLifecycle, err)
	}
	return nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and returns a context that completes once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runExtendYearly(ctx context.Context) {
	logger := s.jobLogger(ctx, "extend_yearly")
	report, err := s.extender.ExtendYearly(ctx)
	s.logExtendReport(ctx, logger, report, err)
}

func (s *Scheduler) runExtendMonthly(ctx context.Context) {
	logger := s.jobLogger(ctx, "extend_monthly")
	report, err := s.extender.ExtendMonthly(ctx)
	s.logExtendReport(ctx, logger, report, err)
}

func (s *Scheduler) runUpdateLifecycle(ctx context.Context) {
	logger := s.jobLogger(ctx, "update_lifecycle")
	report, err := s.lifecycle.UpdateLifecycle(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "job failed", "error", err)
		return
	}
	logger.InfoContext(ctx, "job completed",
		"masses_completed", report.MassesCompleted,
		"intentions_completed", report.IntentionsCompleted,
		"failures", report.Failures,
	)
}

func (s *Scheduler) logExtendReport(ctx context.Context, logger *slog.Logger, report application.ExtendReport, err error) {
	if err != nil {
		logger.ErrorContext(ctx, "job failed", "error", err)
		return
	}
	logger.InfoContext(ctx, "job completed",
		"examined", report.Examined,
		"created", len(report.Created),
		"skipped", report.Skipped,
		"failures", report.Failures,
	)
}

func (s *Scheduler) jobLogger(ctx context.Context, job string) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = s.logger
	}
	return logger.With("job", job)
}
