package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MassStore captures the persistence interactions of manual mass edits.
type MassStore interface {
	GetMass(ctx context.Context, id string) (Mass, error)
	UpdateMass(ctx context.Context, mass Mass) error
	ListMasses(ctx context.Context, start, end time.Time) ([]Mass, error)
}

// MassService handles the manual occurrence edits the parish office makes
// after a plan has been committed.
type MassService struct {
	store  MassStore
	now    func() time.Time
	logger *slog.Logger
}

// NewMassService wires dependencies for mass administration.
func NewMassService(store MassStore, now func() time.Time, logger *slog.Logger) *MassService {
	if now == nil {
		now = time.Now
	}
	return &MassService{store: store, now: now, logger: defaultLogger(logger)}
}

// GetMass returns one occurrence.
func (s *MassService) GetMass(ctx context.Context, id string) (Mass, error) {
	if s == nil || s.store == nil {
		return Mass{}, fmt.Errorf("mass store not configured")
	}
	return s.store.GetMass(ctx, id)
}

// ListMasses returns occurrences within the date range, both bounds
// inclusive.
func (s *MassService) ListMasses(ctx context.Context, start, end time.Time) ([]Mass, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("mass store not configured")
	}

	vErr := &ValidationError{}
	if start.IsZero() {
		vErr.add("start", "start date is required")
	}
	if end.IsZero() {
		vErr.add("end", "end date is required")
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		vErr.add("end", "end date must not precede the start date")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	return s.store.ListMasses(ctx, start, end)
}

// UpdateMass applies a manual edit to one occurrence. Assigning a celebrant
// by hand pins the assignment: the random flag is cleared so the extender
// carries the choice forward instead of re-randomizing.
func (s *MassService) UpdateMass(ctx context.Context, id string, input MassUpdateInput) (Mass, error) {
	if s == nil || s.store == nil {
		return Mass{}, fmt.Errorf("mass store not configured")
	}

	mass, err := s.store.GetMass(ctx, id)
	if err != nil {
		return Mass{}, err
	}

	vErr := &ValidationError{}
	if !input.Status.Valid() {
		vErr.add("status", "unknown mass status")
	}
	if vErr.HasErrors() {
		return Mass{}, vErr
	}

	if !input.Date.IsZero() {
		mass.Date = input.Date
	}
	if input.CelebrantID != nil {
		if *input.CelebrantID == "" {
			mass.CelebrantID = nil
		} else {
			id := *input.CelebrantID
			mass.CelebrantID = &id
			mass.RandomCelebrant = false
		}
	}
	mass.Status = input.Status
	mass.UpdatedAt = s.now()

	if err := s.store.UpdateMass(ctx, mass); err != nil {
		return Mass{}, err
	}

	serviceLogger(ctx, s.logger, "mass", "update", "mass_id", mass.ID).InfoContext(ctx,
		"mass updated", "status", string(mass.Status))

	return mass, nil
}
