package persistence

import "time"

// Donor represents the person who submitted one or more intentions.
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

// Recurrence stores the repetition pattern referenced by an intention.
// Type, EndPolicy, Ordinal and Weekday carry the string/int encodings of the
// recurrence package variants.
type Recurrence struct {
	ID        string
	Type      string
	StartDate time.Time
	EndPolicy string
	Count     int
	EndDate   *time.Time
	Ordinal   int
	Weekday   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Intention represents a donor's standing request for mass celebrations.
type Intention struct {
	ID                 string
	Description        string
	DonorID            string
	AmountCents        int64
	PaymentMethod      string
	ForDeceased        bool
	RequestedCelebrant string
	DateType           string
	Kind               string
	MassCount          int
	RecurrenceID       *string
	Status             string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Mass represents one concrete scheduled celebration tied to an intention.
type Mass struct {
	ID              string
	Date            time.Time
	CelebrantID     *string
	IntentionID     string
	Status          string
	RandomCelebrant bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UnavailableDay blocks a celebrant on a date; recurring entries match the
// same month and day every year.
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
