package testfixtures

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/intention-scheduler/internal/application"
	"github.com/example/intention-scheduler/internal/recurrence"
)

// MemoryStore is an in-memory implementation of the application layer's
// persistence interfaces. It backs service and handler tests without a
// database.
type MemoryStore struct {
	mu           sync.Mutex
	Donors       map[string]application.Donor
	Celebrants   map[string]application.Celebrant
	Intentions   map[string]application.Intention
	Recurrences  map[string]application.Recurrence
	Masses       map[string]application.Mass
	Unavailable  map[string]application.UnavailableDay
	SpecialDays  map[string]application.SpecialDay
	Commits      int

	// Optional error hooks for failure-path tests.
	CreateMassErr       func(mass application.Mass) error
	UpdateMassStatusErr func(id string) error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Donors:      map[string]application.Donor{},
		Celebrants:  map[string]application.Celebrant{},
		Intentions:  map[string]application.Intention{},
		Recurrences: map[string]application.Recurrence{},
		Masses:      map[string]application.Mass{},
		Unavailable: map[string]application.UnavailableDay{},
		SpecialDays: map[string]application.SpecialDay{},
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CommitSubmission persists a full submission as one unit.
func (s *MemoryStore) CommitSubmission(_ context.Context, submission application.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !submission.DonorExists {
		s.Donors[submission.Donor.ID] = submission.Donor
	}
	s.Intentions[submission.Intention.ID] = submission.Intention
	if submission.Recurrence != nil {
		s.Recurrences[submission.Recurrence.ID] = *submission.Recurrence
	}
	for _, mass := range submission.Masses {
		s.Masses[mass.ID] = mass
	}
	s.Commits++
	return nil
}

// GetIntention returns an intention by ID.
func (s *MemoryStore) GetIntention(_ context.Context, id string) (application.Intention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intention, ok := s.Intentions[id]
	if !ok {
		return application.Intention{}, application.ErrNotFound
	}
	return intention, nil
}

// GetRecurrence returns a recurrence by ID.
func (s *MemoryStore) GetRecurrence(_ context.Context, id string) (application.Recurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.Recurrences[id]
	if !ok {
		return application.Recurrence{}, application.ErrNotFound
	}
	return rec, nil
}

// CancelIntention marks the intention cancelled and cascades to masses dated
// on or after the given day.
func (s *MemoryStore) CancelIntention(_ context.Context, id string, from time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	intention, ok := s.Intentions[id]
	if !ok {
		return application.ErrNotFound
	}
	intention.Status = application.IntentionCancelled
	s.Intentions[id] = intention

	cut := startOfDay(from)
	for massID, mass := range s.Masses {
		if mass.IntentionID == id && mass.Status == application.MassScheduled && !mass.Date.Before(cut) {
			mass.Status = application.MassCancelled
			s.Masses[massID] = mass
		}
	}
	return nil
}

// ListOpenEndedIntentions returns intentions whose recurrence is open-ended
// and of the given type.
func (s *MemoryStore) ListOpenEndedIntentions(_ context.Context, recurrenceType recurrence.Type) ([]application.IntentionWithRecurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]application.IntentionWithRecurrence, 0)
	for _, intention := range s.Intentions {
		if intention.RecurrenceID == nil {
			continue
		}
		rec, ok := s.Recurrences[*intention.RecurrenceID]
		if !ok || rec.Type != recurrenceType || rec.EndPolicy != recurrence.EndNever {
			continue
		}
		out = append(out, application.IntentionWithRecurrence{Intention: intention, Recurrence: rec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Intention.ID < out[j].Intention.ID })
	return out, nil
}

// ListIncompleteIntentions returns intentions that are neither completed nor
// cancelled.
func (s *MemoryStore) ListIncompleteIntentions(_ context.Context) ([]application.Intention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]application.Intention, 0)
	for _, intention := range s.Intentions {
		if intention.Status == application.IntentionCompleted || intention.Status == application.IntentionCancelled {
			continue
		}
		out = append(out, intention)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateIntentionStatus sets the status of one intention.
func (s *MemoryStore) UpdateIntentionStatus(_ context.Context, id string, status application.IntentionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	intention, ok := s.Intentions[id]
	if !ok {
		return application.ErrNotFound
	}
	intention.Status = status
	s.Intentions[id] = intention
	return nil
}

// CreateMass stores a new mass.
func (s *MemoryStore) CreateMass(_ context.Context, mass application.Mass) error {
	if s.CreateMassErr != nil {
		if err := s.CreateMassErr(mass); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Masses[mass.ID] = mass
	return nil
}

// GetMass returns a mass by ID.
func (s *MemoryStore) GetMass(_ context.Context, id string) (application.Mass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mass, ok := s.Masses[id]
	if !ok {
		return application.Mass{}, application.ErrNotFound
	}
	return mass, nil
}

// UpdateMass replaces a stored mass.
func (s *MemoryStore) UpdateMass(_ context.Context, mass application.Mass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Masses[mass.ID]; !ok {
		return application.ErrNotFound
	}
	s.Masses[mass.ID] = mass
	return nil
}

// ListMasses returns masses within the date range, bounds inclusive, ordered
// by date.
func (s *MemoryStore) ListMasses(_ context.Context, start, end time.Time) ([]application.Mass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := startOfDay(start), startOfDay(end)
	out := make([]application.Mass, 0)
	for _, mass := range s.Masses {
		day := startOfDay(mass.Date)
		if day.Before(lo) || day.After(hi) {
			continue
		}
		out = append(out, mass)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListMassesForIntention returns the masses of one intention ordered by date.
func (s *MemoryStore) ListMassesForIntention(_ context.Context, intentionID string) ([]application.Mass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]application.Mass, 0)
	for _, mass := range s.Masses {
		if mass.IntentionID == intentionID {
			out = append(out, mass)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// LatestMassForIntention returns the most recent mass of an intention.
func (s *MemoryStore) LatestMassForIntention(ctx context.Context, intentionID string) (application.Mass, error) {
	masses, err := s.ListMassesForIntention(ctx, intentionID)
	if err != nil {
		return application.Mass{}, err
	}
	if len(masses) == 0 {
		return application.Mass{}, application.ErrNotFound
	}
	return masses[len(masses)-1], nil
}

// MassExistsOn reports whether the intention already has a mass on the date.
func (s *MemoryStore) MassExistsOn(_ context.Context, intentionID string, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mass := range s.Masses {
		if mass.IntentionID == intentionID && sameDay(mass.Date, date) {
			return true, nil
		}
	}
	return false, nil
}

// ListScheduledMassesThrough returns scheduled masses dated on or before the
// bound.
func (s *MemoryStore) ListScheduledMassesThrough(_ context.Context, date time.Time) ([]application.Mass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cut := startOfDay(date)
	out := make([]application.Mass, 0)
	for _, mass := range s.Masses {
		if mass.Status == application.MassScheduled && !startOfDay(mass.Date).After(cut) {
			out = append(out, mass)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateMassStatus sets the status of one mass.
func (s *MemoryStore) UpdateMassStatus(_ context.Context, id string, status application.MassStatus) error {
	if s.UpdateMassStatusErr != nil {
		if err := s.UpdateMassStatusErr(id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mass, ok := s.Masses[id]
	if !ok {
		return application.ErrNotFound
	}
	mass.Status = status
	s.Masses[id] = mass
	return nil
}

// FindDonorByIdentity matches on the identity tuple, case-insensitively.
func (s *MemoryStore) FindDonorByIdentity(_ context.Context, firstName, lastName, email, phone string) (application.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, donor := range s.Donors {
		if strings.EqualFold(donor.FirstName, strings.TrimSpace(firstName)) &&
			strings.EqualFold(donor.LastName, strings.TrimSpace(lastName)) &&
			strings.EqualFold(donor.Email, strings.TrimSpace(email)) &&
			donor.Phone == strings.TrimSpace(phone) {
			return donor, nil
		}
	}
	return application.Donor{}, application.ErrNotFound
}

// GetDonor returns a donor by ID.
func (s *MemoryStore) GetDonor(_ context.Context, id string) (application.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	donor, ok := s.Donors[id]
	if !ok {
		return application.Donor{}, application.ErrNotFound
	}
	return donor, nil
}

// CreateCelebrant stores a new celebrant.
func (s *MemoryStore) CreateCelebrant(_ context.Context, celebrant application.Celebrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Celebrants[celebrant.ID]; ok {
		return application.ErrAlreadyExists
	}
	s.Celebrants[celebrant.ID] = celebrant
	return nil
}

// UpdateCelebrant replaces a stored celebrant.
func (s *MemoryStore) UpdateCelebrant(_ context.Context, celebrant application.Celebrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Celebrants[celebrant.ID]; !ok {
		return application.ErrNotFound
	}
	s.Celebrants[celebrant.ID] = celebrant
	return nil
}

// GetCelebrant returns a celebrant by ID.
func (s *MemoryStore) GetCelebrant(_ context.Context, id string) (application.Celebrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	celebrant, ok := s.Celebrants[id]
	if !ok {
		return application.Celebrant{}, application.ErrNotFound
	}
	return celebrant, nil
}

// ListCelebrants returns all celebrants ordered by ID.
func (s *MemoryStore) ListCelebrants(_ context.Context) ([]application.Celebrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]application.Celebrant, 0, len(s.Celebrants))
	for _, celebrant := range s.Celebrants {
		out = append(out, celebrant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateUnavailableDay stores a new unavailability entry.
func (s *MemoryStore) CreateUnavailableDay(_ context.Context, entry application.UnavailableDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Unavailable[entry.ID] = entry
	return nil
}

// DeleteUnavailableDay removes an unavailability entry.
func (s *MemoryStore) DeleteUnavailableDay(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Unavailable[id]; !ok {
		return application.ErrNotFound
	}
	delete(s.Unavailable, id)
	return nil
}

// ListUnavailableDays returns all unavailability entries ordered by ID.
func (s *MemoryStore) ListUnavailableDays(_ context.Context) ([]application.UnavailableDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]application.UnavailableDay, 0, len(s.Unavailable))
	for _, entry := range s.Unavailable {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateSpecialDay stores a new quota override entry.
func (s *MemoryStore) CreateSpecialDay(_ context.Context, entry application.SpecialDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpecialDays[entry.ID] = entry
	return nil
}

// ListSpecialDays returns all quota overrides ordered by ID.
func (s *MemoryStore) ListSpecialDays(_ context.Context) ([]application.SpecialDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]application.SpecialDay, 0, len(s.SpecialDays))
	for _, entry := range s.SpecialDays {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
