package scheduling

import "time"

// Celebrant is the scheduling-relevant view of a person eligible to
// celebrate masses.
type Celebrant struct {
	ID          string
	DisplayName string
	Available   bool
}

// UnavailableDay marks a date on which a specific celebrant cannot be
// assigned. Recurring entries match the same month and day every year.
type UnavailableDay struct {
	CelebrantID string
	Date        time.Time
	Recurring   bool
}

// SpecialDay overrides the per-celebrant daily mass quota for a date.
// Recurring entries match the same month and day every year.
type SpecialDay struct {
	Date           time.Time
	NumberOfMasses int
	Recurring      bool
}

// DefaultDailyQuota is the number of masses a celebrant may be assigned on
// an ordinary day.
const DefaultDailyQuota = 1

// Calendar answers availability questions for concrete dates. It is built
// once per planning batch from the persisted unavailable and special days.
type Calendar struct {
	unavailable []UnavailableDay
	special     []SpecialDay
}

// NewCalendar constructs a Calendar over the provided constraint records.
func NewCalendar(unavailable []UnavailableDay, special []SpecialDay) *Calendar {
	return &Calendar{unavailable: unavailable, special: special}
}

// CelebrantUnavailable reports whether the celebrant is blocked on the date,
// either by an exact-date entry or a recurring month/day match.
func (c *Calendar) CelebrantUnavailable(celebrantID string, date time.Time) bool {
	if c == nil {
		return false
	}
	for _, entry := range c.unavailable {
		if entry.CelebrantID != celebrantID {
			continue
		}
		if matchesDay(entry.Date, date, entry.Recurring) {
			return true
		}
	}
	return false
}

// QuotaFor returns the per-celebrant mass quota for the date. Special days
// raise the quota; without one the default of one mass per celebrant applies.
func (c *Calendar) QuotaFor(date time.Time) int {
	quota := DefaultDailyQuota
	if c == nil {
		return quota
	}
	for _, entry := range c.special {
		if !matchesDay(entry.Date, date, entry.Recurring) {
			continue
		}
		if entry.NumberOfMasses > quota {
			quota = entry.NumberOfMasses
		}
	}
	return quota
}

func matchesDay(entry, date time.Time, recurring bool) bool {
	if recurring {
		return entry.Month() == date.Month() && entry.Day() == date.Day()
	}
	return entry.Year() == date.Year() && entry.Month() == date.Month() && entry.Day() == date.Day()
}
