package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// LifecycleStore captures the persistence interactions of the lifecycle
// updater.
type LifecycleStore interface {
	// ListScheduledMassesThrough returns masses still scheduled with a date
	// on or before the bound.
	ListScheduledMassesThrough(ctx context.Context, date time.Time) ([]Mass, error)
	UpdateMassStatus(ctx context.Context, id string, status MassStatus) error
	// ListIncompleteIntentions returns intentions that are neither completed
	// nor cancelled.
	ListIncompleteIntentions(ctx context.Context) ([]Intention, error)
	ListMassesForIntention(ctx context.Context, intentionID string) ([]Mass, error)
	UpdateIntentionStatus(ctx context.Context, id string, status IntentionStatus) error
}

// LifecycleService promotes past scheduled masses to completed and closes
// intentions once every mass has been celebrated. Both passes are idempotent
// and tolerate per-record failures.
type LifecycleService struct {
	store  LifecycleStore
	now    func() time.Time
	logger *slog.Logger
}

// NewLifecycleService wires dependencies for the lifecycle job.
func NewLifecycleService(store LifecycleStore, now func() time.Time, logger *slog.Logger) *LifecycleService {
	if now == nil {
		now = time.Now
	}
	return &LifecycleService{store: store, now: now, logger: defaultLogger(logger)}
}

// UpdateLifecycle runs both promotion passes against the reference time.
// Re-running on already promoted data is a no-op.
func (s *LifecycleService) UpdateLifecycle(ctx context.Context) (LifecycleReport, error) {
	if s == nil || s.store == nil {
		return LifecycleReport{}, fmt.Errorf("lifecycle store not configured")
	}

	logger := serviceLogger(ctx, s.logger, "lifecycle", "update")
	report := LifecycleReport{}
	today := s.now()

	due, err := s.store.ListScheduledMassesThrough(ctx, today)
	if err != nil {
		return report, err
	}
	for _, mass := range due {
		if err := s.store.UpdateMassStatus(ctx, mass.ID, MassCompleted); err != nil {
			report.Failures++
			logger.ErrorContext(ctx, "failed to complete mass",
				"mass_id", mass.ID, "error", err)
			continue
		}
		report.MassesCompleted++
	}

	intentions, err := s.store.ListIncompleteIntentions(ctx)
	if err != nil {
		return report, err
	}
	for _, intention := range intentions {
		done, err := s.intentionComplete(ctx, intention.ID)
		if err != nil {
			report.Failures++
			logger.ErrorContext(ctx, "failed to evaluate intention",
				"intention_id", intention.ID, "error", err)
			continue
		}
		if !done {
			continue
		}
		if err := s.store.UpdateIntentionStatus(ctx, intention.ID, IntentionCompleted); err != nil {
			report.Failures++
			logger.ErrorContext(ctx, "failed to complete intention",
				"intention_id", intention.ID, "error", err)
			continue
		}
		report.IntentionsCompleted++
	}

	logger.InfoContext(ctx, "lifecycle pass finished",
		"masses_completed", report.MassesCompleted,
		"intentions_completed", report.IntentionsCompleted,
		"failures", report.Failures,
	)

	return report, nil
}

// intentionComplete reports whether the intention has at least one mass and
// every mass is completed.
func (s *LifecycleService) intentionComplete(ctx context.Context, intentionID string) (bool, error) {
	masses, err := s.store.ListMassesForIntention(ctx, intentionID)
	if err != nil {
		return false, err
	}
	if len(masses) == 0 {
		return false, nil
	}
	for _, mass := range masses {
		if mass.Status != MassCompleted {
			return false, nil
		}
	}
	return true, nil
}
