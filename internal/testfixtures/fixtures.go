package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/intention-scheduler/internal/application"
)

var (
	celebrantCounter uint64
	donorCounter     uint64
	intentionCounter uint64
	massCounter      uint64
)

var referenceTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Celebrant fixtures ---------------------------

// CelebrantFixture represents a deterministic celebrant record.
type CelebrantFixture struct {
	ID        string
	FirstName string
	LastName  string
	Title     string
	Available bool
}

// CelebrantOption configures the generated celebrant fixture.
type CelebrantOption func(*CelebrantFixture)

// NewCelebrantFixture returns a deterministic celebrant fixture with optional
// overrides.
func NewCelebrantFixture(opts ...CelebrantOption) CelebrantFixture {
	idx := atomic.AddUint64(&celebrantCounter, 1)
	fixture := CelebrantFixture{
		ID:        fmt.Sprintf("celebrant-%03d", idx),
		FirstName: fmt.Sprintf("First%03d", idx),
		LastName:  fmt.Sprintf("Last%03d", idx),
		Title:     "Fr.",
		Available: true,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCelebrantID overrides the generated celebrant ID.
func WithCelebrantID(id string) CelebrantOption {
	return func(f *CelebrantFixture) {
		f.ID = id
	}
}

// WithCelebrantName overrides the generated names.
func WithCelebrantName(first, last string) CelebrantOption {
	return func(f *CelebrantFixture) {
		f.FirstName = first
		f.LastName = last
	}
}

// WithCelebrantAvailable sets the availability flag.
func WithCelebrantAvailable(available bool) CelebrantOption {
	return func(f *CelebrantFixture) {
		f.Available = available
	}
}

// Application returns the fixture as an application.Celebrant value.
func (f CelebrantFixture) Application() application.Celebrant {
	return application.Celebrant{
		ID:        f.ID,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Title:     f.Title,
		Available: f.Available,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// ----------------------------- Donor fixtures -----------------------------

// DonorFixture represents a deterministic donor record.
type DonorFixture struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// DonorOption configures the generated donor fixture.
type DonorOption func(*DonorFixture)

// NewDonorFixture returns a deterministic donor fixture with optional
// overrides.
func NewDonorFixture(opts ...DonorOption) DonorFixture {
	idx := atomic.AddUint64(&donorCounter, 1)
	id := fmt.Sprintf("donor-%03d", idx)
	fixture := DonorFixture{
		ID:        id,
		FirstName: fmt.Sprintf("Donor%03d", idx),
		LastName:  fmt.Sprintf("Family%03d", idx),
		Email:     fmt.Sprintf("%s@example.com", id),
		Phone:     fmt.Sprintf("+1555%07d", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithDonorName overrides the generated names.
func WithDonorName(first, last string) DonorOption {
	return func(f *DonorFixture) {
		f.FirstName = first
		f.LastName = last
	}
}

// Application returns the fixture as an application.Donor value.
func (f DonorFixture) Application() application.Donor {
	return application.Donor{
		ID:        f.ID,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Phone:     f.Phone,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// Input returns the fixture as an application.DonorInput.
func (f DonorFixture) Input() application.DonorInput {
	return application.DonorInput{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Phone:     f.Phone,
	}
}

// --------------------------- Intention fixtures ---------------------------

// IntentionFixture represents a deterministic intention record.
type IntentionFixture struct {
	ID           string
	Description  string
	DonorID      string
	RecurrenceID *string
	Status       application.IntentionStatus
}

// IntentionOption configures the generated intention fixture.
type IntentionOption func(*IntentionFixture)

// NewIntentionFixture returns a deterministic intention fixture with
// optional overrides.
func NewIntentionFixture(opts ...IntentionOption) IntentionFixture {
	idx := atomic.AddUint64(&intentionCounter, 1)
	fixture := IntentionFixture{
		ID:          fmt.Sprintf("intention-%03d", idx),
		Description: fmt.Sprintf("In memoriam %03d", idx),
		DonorID:     fmt.Sprintf("donor-%03d", idx),
		Status:      application.IntentionScheduled,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithIntentionID overrides the generated intention ID.
func WithIntentionID(id string) IntentionOption {
	return func(f *IntentionFixture) {
		f.ID = id
	}
}

// WithIntentionRecurrenceID links the intention to a recurrence.
func WithIntentionRecurrenceID(id string) IntentionOption {
	return func(f *IntentionFixture) {
		rid := id
		f.RecurrenceID = &rid
	}
}

// WithIntentionStatus sets the lifecycle status.
func WithIntentionStatus(status application.IntentionStatus) IntentionOption {
	return func(f *IntentionFixture) {
		f.Status = status
	}
}

// Application returns the fixture as an application.Intention value.
func (f IntentionFixture) Application() application.Intention {
	var recurrenceID *string
	if f.RecurrenceID != nil {
		id := *f.RecurrenceID
		recurrenceID = &id
	}
	return application.Intention{
		ID:            f.ID,
		Description:   f.Description,
		DonorID:       f.DonorID,
		AmountCents:   1500,
		PaymentMethod: application.PaymentCash,
		DateType:      application.DateFixed,
		Kind:          application.KindUnit,
		MassCount:     1,
		RecurrenceID:  recurrenceID,
		Status:        f.Status,
		CreatedAt:     referenceTime,
		UpdatedAt:     referenceTime,
	}
}

// ------------------------------ Mass fixtures -----------------------------

// MassFixture represents a deterministic mass record.
type MassFixture struct {
	ID              string
	Date            time.Time
	CelebrantID     *string
	IntentionID     string
	Status          application.MassStatus
	RandomCelebrant bool
}

// MassOption configures the generated mass fixture.
type MassOption func(*MassFixture)

// NewMassFixture returns a deterministic mass fixture with optional
// overrides.
func NewMassFixture(opts ...MassOption) MassFixture {
	idx := atomic.AddUint64(&massCounter, 1)
	fixture := MassFixture{
		ID:          fmt.Sprintf("mass-%03d", idx),
		Date:        referenceTime.AddDate(0, 0, int(idx)).Truncate(24 * time.Hour),
		IntentionID: fmt.Sprintf("intention-%03d", idx),
		Status:      application.MassScheduled,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMassID overrides the generated mass ID.
func WithMassID(id string) MassOption {
	return func(f *MassFixture) {
		f.ID = id
	}
}

// WithMassDate sets the celebration date.
func WithMassDate(t time.Time) MassOption {
	return func(f *MassFixture) {
		f.Date = t
	}
}

// WithMassIntentionID links the mass to an intention.
func WithMassIntentionID(id string) MassOption {
	return func(f *MassFixture) {
		f.IntentionID = id
	}
}

// WithMassCelebrantID assigns a celebrant.
func WithMassCelebrantID(id string) MassOption {
	return func(f *MassFixture) {
		cid := id
		f.CelebrantID = &cid
	}
}

// WithMassStatus sets the lifecycle status.
func WithMassStatus(status application.MassStatus) MassOption {
	return func(f *MassFixture) {
		f.Status = status
	}
}

// WithMassRandomCelebrant sets the random assignment flag.
func WithMassRandomCelebrant(random bool) MassOption {
	return func(f *MassFixture) {
		f.RandomCelebrant = random
	}
}

// Application returns the fixture as an application.Mass value.
func (f MassFixture) Application() application.Mass {
	var celebrantID *string
	if f.CelebrantID != nil {
		id := *f.CelebrantID
		celebrantID = &id
	}
	return application.Mass{
		ID:              f.ID,
		Date:            f.Date,
		CelebrantID:     celebrantID,
		IntentionID:     f.IntentionID,
		Status:          f.Status,
		RandomCelebrant: f.RandomCelebrant,
		CreatedAt:       referenceTime,
		UpdatedAt:       referenceTime,
	}
}
