package scheduling

import (
	"sort"
	"time"
)

// ConflictReason classifies why a date could not be assigned a celebrant.
type ConflictReason string

const (
	// ConflictCelebrantUnavailable indicates the requested celebrant is
	// blocked on the date.
	ConflictCelebrantUnavailable ConflictReason = "celebrant_unavailable"
	// ConflictNoCelebrantAvailable indicates no eligible celebrant remains
	// for the date.
	ConflictNoCelebrantAvailable ConflictReason = "no_celebrant_available"
)

// Conflict details an assignment failure that callers surface to users. A
// conflict never aborts a planning batch.
type Conflict struct {
	Date        time.Time
	CelebrantID string
	Reason      ConflictReason
}

// Assignment is the outcome of selecting a celebrant for one date. When
// Conflict is non-nil the CelebrantID is empty and the occurrence is planned
// without a celebrant.
type Assignment struct {
	Date        time.Time
	CelebrantID string
	Random      bool
	Conflict    *Conflict
}

// UsedByDate tracks, per date, how many assignments each celebrant has
// accumulated within a single planning batch. It is batch-local state passed
// explicitly between calls, never persisted or shared across batches.
type UsedByDate map[string]map[string]int

// Add records an assignment of the celebrant on the date.
func (u UsedByDate) Add(date time.Time, celebrantID string) {
	if u == nil || celebrantID == "" {
		return
	}
	key := dayKey(date)
	if u[key] == nil {
		u[key] = make(map[string]int)
	}
	u[key][celebrantID]++
}

// Count returns how many assignments the celebrant already holds on the date.
func (u UsedByDate) Count(date time.Time, celebrantID string) int {
	if u == nil {
		return 0
	}
	return u[dayKey(date)][celebrantID]
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Chooser picks an index in [0, n). Injected so tests can pin the choice.
type Chooser func(n int) int

// Selector resolves a celebrant for one date at a time, honouring
// availability, per-date quotas and batch-local exclusivity.
type Selector struct {
	celebrants []Celebrant
	calendar   *Calendar
	choose     Chooser
}

// NewSelector constructs a Selector over the celebrant pool. The pool is
// sorted by ID so random picks are reproducible under an injected chooser.
func NewSelector(celebrants []Celebrant, calendar *Calendar, choose Chooser) *Selector {
	pool := make([]Celebrant, len(celebrants))
	copy(pool, celebrants)
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })

	return &Selector{celebrants: pool, calendar: calendar, choose: choose}
}

// Select resolves a celebrant for the date.
//
// With a requested celebrant the only check is availability: an unavailable
// requested celebrant is a reportable conflict, never a silent fallback to
// another celebrant. Without one, an eligible celebrant is picked through the
// chooser among those available, not blocked on the date, and still under
// the date's quota within this batch.
func (s *Selector) Select(date time.Time, requestedID string, used UsedByDate) Assignment {
	if requestedID != "" {
		if s.calendar.CelebrantUnavailable(requestedID, date) {
			return Assignment{Date: date, Conflict: &Conflict{
				Date:        date,
				CelebrantID: requestedID,
				Reason:      ConflictCelebrantUnavailable,
			}}
		}
		return Assignment{Date: date, CelebrantID: requestedID}
	}

	quota := s.calendar.QuotaFor(date)
	candidates := make([]Celebrant, 0, len(s.celebrants))
	for _, celebrant := range s.celebrants {
		if !celebrant.Available {
			continue
		}
		if s.calendar.CelebrantUnavailable(celebrant.ID, date) {
			continue
		}
		if used.Count(date, celebrant.ID) >= quota {
			continue
		}
		candidates = append(candidates, celebrant)
	}

	if len(candidates) == 0 {
		return Assignment{Date: date, Random: true, Conflict: &Conflict{
			Date:   date,
			Reason: ConflictNoCelebrantAvailable,
		}}
	}

	index := 0
	if s.choose != nil {
		index = s.choose(len(candidates))
	}
	if index < 0 || index >= len(candidates) {
		index = 0
	}

	return Assignment{Date: date, CelebrantID: candidates[index].ID, Random: true}
}
