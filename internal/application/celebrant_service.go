package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CelebrantStore captures celebrant and constraint persistence operations.
type CelebrantStore interface {
	CreateCelebrant(ctx context.Context, celebrant Celebrant) error
	UpdateCelebrant(ctx context.Context, celebrant Celebrant) error
	GetCelebrant(ctx context.Context, id string) (Celebrant, error)
	ListCelebrants(ctx context.Context) ([]Celebrant, error)
	CreateUnavailableDay(ctx context.Context, entry UnavailableDay) error
	DeleteUnavailableDay(ctx context.Context, id string) error
	ListUnavailableDays(ctx context.Context) ([]UnavailableDay, error)
	CreateSpecialDay(ctx context.Context, entry SpecialDay) error
	ListSpecialDays(ctx context.Context) ([]SpecialDay, error)
}

// CelebrantInput captures caller provided celebrant fields.
type CelebrantInput struct {
	FirstName string
	LastName  string
	Title     string
	Available bool
}

// UnavailableDayInput captures a new unavailability entry.
type UnavailableDayInput struct {
	Date      time.Time
	Recurring bool
}

// SpecialDayInput captures a new quota override entry.
type SpecialDayInput struct {
	Date           time.Time
	NumberOfMasses int
	Recurring      bool
}

// CelebrantService administers the celebrant pool and the calendar
// constraints the selector reads.
type CelebrantService struct {
	store       CelebrantStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCelebrantService wires dependencies for celebrant administration.
func NewCelebrantService(store CelebrantStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CelebrantService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CelebrantService{store: store, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// CreateCelebrant validates and persists a new celebrant.
func (s *CelebrantService) CreateCelebrant(ctx context.Context, input CelebrantInput) (Celebrant, error) {
	if s == nil || s.store == nil {
		return Celebrant{}, fmt.Errorf("celebrant store not configured")
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.LastName) == "" {
		vErr.add("last_name", "last name is required")
	}
	if vErr.HasErrors() {
		return Celebrant{}, vErr
	}

	createdAt := s.now()
	celebrant := Celebrant{
		ID:        s.idGenerator(),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Title:     strings.TrimSpace(input.Title),
		Available: input.Available,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := s.store.CreateCelebrant(ctx, celebrant); err != nil {
		return Celebrant{}, err
	}
	return celebrant, nil
}

// UpdateCelebrant applies field edits, including the availability flag that
// removes a celebrant from future random selection without touching
// existing assignments.
func (s *CelebrantService) UpdateCelebrant(ctx context.Context, id string, input CelebrantInput) (Celebrant, error) {
	if s == nil || s.store == nil {
		return Celebrant{}, fmt.Errorf("celebrant store not configured")
	}

	existing, err := s.store.GetCelebrant(ctx, id)
	if err != nil {
		return Celebrant{}, err
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.LastName) == "" {
		vErr.add("last_name", "last name is required")
	}
	if vErr.HasErrors() {
		return Celebrant{}, vErr
	}

	existing.FirstName = strings.TrimSpace(input.FirstName)
	existing.LastName = strings.TrimSpace(input.LastName)
	existing.Title = strings.TrimSpace(input.Title)
	existing.Available = input.Available
	existing.UpdatedAt = s.now()

	if err := s.store.UpdateCelebrant(ctx, existing); err != nil {
		return Celebrant{}, err
	}
	return existing, nil
}

// ListCelebrants enumerates the celebrant pool.
func (s *CelebrantService) ListCelebrants(ctx context.Context) ([]Celebrant, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("celebrant store not configured")
	}
	return s.store.ListCelebrants(ctx)
}

// AddUnavailableDay records a date on which the celebrant cannot be
// assigned.
func (s *CelebrantService) AddUnavailableDay(ctx context.Context, celebrantID string, input UnavailableDayInput) (UnavailableDay, error) {
	if s == nil || s.store == nil {
		return UnavailableDay{}, fmt.Errorf("celebrant store not configured")
	}

	if _, err := s.store.GetCelebrant(ctx, celebrantID); err != nil {
		return UnavailableDay{}, err
	}

	if input.Date.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		return UnavailableDay{}, vErr
	}

	entry := UnavailableDay{
		ID:          s.idGenerator(),
		CelebrantID: celebrantID,
		Date:        input.Date,
		Recurring:   input.Recurring,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateUnavailableDay(ctx, entry); err != nil {
		return UnavailableDay{}, err
	}
	return entry, nil
}

// RemoveUnavailableDay deletes an unavailability entry.
func (s *CelebrantService) RemoveUnavailableDay(ctx context.Context, id string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("celebrant store not configured")
	}
	return s.store.DeleteUnavailableDay(ctx, id)
}

// AddSpecialDay records a quota override for a date.
func (s *CelebrantService) AddSpecialDay(ctx context.Context, input SpecialDayInput) (SpecialDay, error) {
	if s == nil || s.store == nil {
		return SpecialDay{}, fmt.Errorf("celebrant store not configured")
	}

	vErr := &ValidationError{}
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if input.NumberOfMasses <= 0 {
		vErr.add("number_of_masses", "quota must be positive")
	}
	if vErr.HasErrors() {
		return SpecialDay{}, vErr
	}

	entry := SpecialDay{
		ID:             s.idGenerator(),
		Date:           input.Date,
		NumberOfMasses: input.NumberOfMasses,
		Recurring:      input.Recurring,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateSpecialDay(ctx, entry); err != nil {
		return SpecialDay{}, err
	}
	return entry, nil
}

// ListSpecialDays enumerates the quota overrides.
func (s *CelebrantService) ListSpecialDays(ctx context.Context) ([]SpecialDay, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("celebrant store not configured")
	}
	return s.store.ListSpecialDays(ctx)
}
