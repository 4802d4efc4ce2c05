package application

import (
	"time"

	"github.com/example/intention-scheduler/internal/recurrence"
	"github.com/example/intention-scheduler/internal/scheduling"
)

// IntentionStatus tracks an intention through its lifecycle.
type IntentionStatus string

const (
	IntentionPending   IntentionStatus = "pending"
	IntentionScheduled IntentionStatus = "scheduled"
	IntentionCompleted IntentionStatus = "completed"
	IntentionCancelled IntentionStatus = "cancelled"
)

// Valid reports whether the status is a known variant.
func (s IntentionStatus) Valid() bool {
	switch s {
	case IntentionPending, IntentionScheduled, IntentionCompleted, IntentionCancelled:
		return true
	}
	return false
}

// MassStatus tracks one occurrence through its lifecycle.
type MassStatus string

const (
	MassScheduled MassStatus = "scheduled"
	MassCompleted MassStatus = "completed"
	MassCancelled MassStatus = "cancelled"
)

// Valid reports whether the status is a known variant.
func (s MassStatus) Valid() bool {
	switch s {
	case MassScheduled, MassCompleted, MassCancelled:
		return true
	}
	return false
}

// PaymentMethod records how the donor paid for the intention.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCheque   PaymentMethod = "cheque"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// Valid reports whether the payment method is a known variant.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCheque, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// DateType is the donor's policy on the requested date.
type DateType string

const (
	DateFixed       DateType = "fixed"
	DateIndifferent DateType = "indifferent"
	DateDesired     DateType = "desired"
)

// Valid reports whether the date type is a known variant.
func (d DateType) Valid() bool {
	switch d {
	case DateFixed, DateIndifferent, DateDesired:
		return true
	}
	return false
}

// IntentionKind determines how many masses a non-recurring intention yields.
type IntentionKind string

const (
	// KindUnit yields the requested mass count.
	KindUnit IntentionKind = "unit"
	// KindThirty yields a thirty-day series (Gregorian trental).
	KindThirty IntentionKind = "thirty"
	// KindNovena yields a nine-day series.
	KindNovena IntentionKind = "novena"
)

// Valid reports whether the kind is a known variant.
func (k IntentionKind) Valid() bool {
	switch k {
	case KindUnit, KindThirty, KindNovena:
		return true
	}
	return false
}

// MassCount resolves the number of masses the kind implies. The unit kind
// takes the caller-provided count.
func (k IntentionKind) MassCount(unitCount int) int {
	switch k {
	case KindThirty:
		return 30
	case KindNovena:
		return 9
	default:
		return unitCount
	}
}

// Donor identifies the person who submitted an intention.
type Donor struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Celebrant represents a person eligible to celebrate masses.
type Celebrant struct {
	ID        string
	FirstName string
	LastName  string
	Title     string
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName renders the celebrant's public name.
func (c Celebrant) DisplayName() string {
	name := c.FirstName + " " + c.LastName
	if c.Title != "" {
		return c.Title + " " + name
	}
	return name
}

// Recurrence is the persisted repetition pattern referenced by an intention.
type Recurrence struct {
	ID        string
	Type      recurrence.Type
	StartDate time.Time
	EndPolicy recurrence.EndPolicy
	Count     int
	EndDate   *time.Time
	Ordinal   recurrence.Ordinal
	Weekday   time.Weekday
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Rule converts the stored pattern into a generator rule.
func (r Recurrence) Rule() recurrence.Rule {
	rule := recurrence.Rule{
		Type:    r.Type,
		Start:   r.StartDate,
		End:     r.EndPolicy,
		Count:   r.Count,
		Ordinal: r.Ordinal,
		Weekday: r.Weekday,
	}
	if r.EndDate != nil {
		rule.Until = *r.EndDate
	}
	return rule
}

// Intention represents a donor's standing request for mass celebrations.
type Intention struct {
	ID                 string
	Description        string
	DonorID            string
	AmountCents        int64
	PaymentMethod      PaymentMethod
	ForDeceased        bool
	RequestedCelebrant string
	DateType           DateType
	Kind               IntentionKind
	MassCount          int
	RecurrenceID       *string
	Status             IntentionStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Mass represents one concrete scheduled celebration.
type Mass struct {
	ID              string
	Date            time.Time
	CelebrantID     *string
	IntentionID     string
	Status          MassStatus
	RandomCelebrant bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UnavailableDay blocks a celebrant on a date.
type UnavailableDay struct {
	ID          string
	CelebrantID string
	Date        time.Time
	Recurring   bool
	CreatedAt   time.Time
}

// SpecialDay overrides the per-celebrant daily mass quota for a date.
type SpecialDay struct {
	ID             string
	Date           time.Time
	NumberOfMasses int
	Recurring      bool
	CreatedAt      time.Time
}

// DonorInput captures caller provided donor identity fields.
type DonorInput struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
}

// RecurrenceInput captures caller provided recurrence fields.
type RecurrenceInput struct {
	Type      recurrence.Type
	EndPolicy recurrence.EndPolicy
	Count     int
	EndDate   *time.Time
	Ordinal   recurrence.Ordinal
	Weekday   time.Weekday
}

// IntentionInput captures one intention submission before planning.
type IntentionInput struct {
	Description        string
	Donor              DonorInput
	AmountCents        int64
	PaymentMethod      PaymentMethod
	ForDeceased        bool
	RequestedCelebrant string
	DateType           DateType
	Kind               IntentionKind
	MassCount          int
	StartDate          time.Time
	Recurrence         *RecurrenceInput
}

// PlannedMass is one proposed occurrence in a preview or commit plan.
type PlannedMass struct {
	Date          time.Time
	CelebrantID   string
	CelebrantName string
	Random        bool
	Conflict      *scheduling.Conflict
}

// Plan is the full proposed occurrence set for a submission. Computing a
// plan has no side effects.
type Plan struct {
	Masses    []PlannedMass
	Conflicts []scheduling.Conflict
}

// CommitResult reports what one commit persisted.
type CommitResult struct {
	Intention Intention
	Donor     Donor
	Masses    []Mass
	Conflicts []scheduling.Conflict
}

// ExtendReport summarises one rolling-horizon extender run.
type ExtendReport struct {
	Examined int
	Created  []Mass
	Skipped  int
	Failures int
}

// LifecycleReport summarises one lifecycle updater run.
type LifecycleReport struct {
	MassesCompleted     int
	IntentionsCompleted int
	Failures            int
}

// MassUpdateInput captures a manual occurrence edit.
type MassUpdateInput struct {
	Date        time.Time
	CelebrantID *string
	Status      MassStatus
}
