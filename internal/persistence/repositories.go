package persistence

import (
	"context"
	"time"
)

// DonorRepository exposes donor storage operations.
type DonorRepository interface {
	CreateDonor(ctx context.Context, donor Donor) error
	GetDonor(ctx context.Context, id string) (Donor, error)
	// FindDonorByIdentity matches an existing donor on normalized name plus
	// email or phone, supporting create-or-reuse at commit time.
	FindDonorByIdentity(ctx context.Context, firstName, lastName, email, phone string) (Donor, error)
	ListDonors(ctx context.Context) ([]Donor, error)
}

// CelebrantRepository exposes celebrant storage operations.
type CelebrantRepository interface {
	CreateCelebrant(ctx context.Context, celebrant Celebrant) error
	UpdateCelebrant(ctx context.Context, celebrant Celebrant) error
	GetCelebrant(ctx context.Context, id string) (Celebrant, error)
	ListCelebrants(ctx context.Context) ([]Celebrant, error)
}

// CalendarRepository stores the scheduling constraint records.
type CalendarRepository interface {
	CreateUnavailableDay(ctx context.Context, entry UnavailableDay) error
	DeleteUnavailableDay(ctx context.Context, id string) error
	ListUnavailableDays(ctx context.Context) ([]UnavailableDay, error)
	CreateSpecialDay(ctx context.Context, entry SpecialDay) error
	ListSpecialDays(ctx context.Context) ([]SpecialDay, error)
}

// Submission bundles every record persisted by one intention commit. The
// implementation writes the whole set in a single transaction.
type Submission struct {
	// Donor is inserted unless DonorExists is set, in which case only its ID
	// is referenced.
	Donor       Donor
	DonorExists bool
	Intention   Intention
	Recurrence  *Recurrence
	Masses      []Mass
}

// IntentionRepository stores intentions and their recurrences.
type IntentionRepository interface {
	CommitSubmission(ctx context.Context, submission Submission) error
	GetIntention(ctx context.Context, id string) (Intention, error)
	GetRecurrence(ctx context.Context, id string) (Recurrence, error)
	// ListOpenEndedIntentions returns intentions whose recurrence has the
	// no_end policy and the given type, paired with that recurrence.
	ListOpenEndedIntentions(ctx context.Context, recurrenceType string) ([]IntentionWithRecurrence, error)
	ListIncompleteIntentions(ctx context.Context) ([]Intention, error)
	UpdateIntentionStatus(ctx context.Context, id, status string) error
	// CancelIntention marks the intention cancelled and cascades the status
	// to its masses dated on or after the reference date.
	CancelIntention(ctx context.Context, id string, from time.Time) error
}

// IntentionWithRecurrence pairs an intention with its recurrence rule.
type IntentionWithRecurrence struct {
	Intention  Intention
	Recurrence Recurrence
}

// MassFilter narrows mass listings.
type MassFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    string
}

// MassRepository stores scheduled celebrations.
type MassRepository interface {
	CreateMass(ctx context.Context, mass Mass) error
	GetMass(ctx context.Context, id string) (Mass, error)
	UpdateMass(ctx context.Context, mass Mass) error
	ListMasses(ctx context.Context, filter MassFilter) ([]Mass, error)
	ListMassesForIntention(ctx context.Context, intentionID string) ([]Mass, error)
	// LatestMassForIntention returns the most recent mass by date, or
	// ErrNotFound when the intention has no materialized occurrence.
	LatestMassForIntention(ctx context.Context, intentionID string) (Mass, error)
	// MassExistsOn reports whether the intention already has a mass on the
	// exact date, used to keep extender runs idempotent.
	MassExistsOn(ctx context.Context, intentionID string, date time.Time) (bool, error)
	UpdateMassStatus(ctx context.Context, id, status string) error
}
