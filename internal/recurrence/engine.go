package recurrence

import (
	"errors"
	"time"
)

// Type identifies the supported recurrence patterns.
type Type string

const (
	// TypeWeekly repeats every seven days from the anchor date.
	TypeWeekly Type = "weekly"
	// TypeMonthly repeats on the anchor's day-of-month, clamped to shorter months.
	TypeMonthly Type = "monthly"
	// TypeMonthlyRelative repeats on an ordinal weekday of each month (e.g. 3rd Tuesday).
	TypeMonthlyRelative Type = "monthly_relative"
	// TypeYearly repeats on the anchor's month and day each year.
	TypeYearly Type = "yearly"
)

// Valid reports whether the type is one of the supported patterns.
func (t Type) Valid() bool {
	switch t {
	case TypeWeekly, TypeMonthly, TypeMonthlyRelative, TypeYearly:
		return true
	}
	return false
}

// EndPolicy describes how a recurrence series terminates.
type EndPolicy string

const (
	// EndAfterOccurrences stops after a fixed number of dates.
	EndAfterOccurrences EndPolicy = "occurrences"
	// EndOnDate stops before emitting any date after a bound.
	EndOnDate EndPolicy = "end_date"
	// EndNever leaves the series open-ended; callers must bound the window.
	EndNever EndPolicy = "no_end"
)

// Valid reports whether the end policy is one of the supported variants.
func (p EndPolicy) Valid() bool {
	switch p {
	case EndAfterOccurrences, EndOnDate, EndNever:
		return true
	}
	return false
}

// Ordinal selects which weekday instance of a month a monthly_relative rule targets.
type Ordinal int

const (
	// OrdinalLast resolves by scanning backward from month end.
	OrdinalLast Ordinal = -1

	OrdinalFirst  Ordinal = 1
	OrdinalSecond Ordinal = 2
	OrdinalThird  Ordinal = 3
	OrdinalFourth Ordinal = 4
	OrdinalFifth  Ordinal = 5
)

// Valid reports whether the ordinal is within the supported range.
func (o Ordinal) Valid() bool {
	return o == OrdinalLast || (o >= OrdinalFirst && o <= OrdinalFifth)
}

// Rule describes a recurrence configuration for an intention.
type Rule struct {
	Type  Type
	Start time.Time
	End   EndPolicy
	// Count bounds the series when End is EndAfterOccurrences.
	Count int
	// Until bounds the series when End is EndOnDate.
	Until time.Time
	// Ordinal and Weekday configure monthly_relative rules.
	Ordinal Ordinal
	Weekday time.Weekday
}

// Window bounds open-ended generation. At least one bound must be set for
// rules with EndNever; bounds also cap bounded rules when tighter.
type Window struct {
	// MaxDates caps the number of emitted dates when positive.
	MaxDates int
	// Until caps the last emitted date (inclusive) when non-zero.
	Until time.Time
}

var (
	// ErrInvalidType indicates the recurrence type is not supported.
	ErrInvalidType = errors.New("recurrence: invalid type")
	// ErrInvalidWindow indicates an open-ended rule was generated without a bound.
	ErrInvalidWindow = errors.New("recurrence: open-ended generation requires a window bound")
	// ErrInvalidCount indicates an occurrence-bounded rule carries a non-positive count.
	ErrInvalidCount = errors.New("recurrence: occurrence count must be positive")
	// ErrInvalidOrdinal indicates a monthly_relative rule carries an unsupported ordinal.
	ErrInvalidOrdinal = errors.New("recurrence: invalid ordinal position")
	// ErrInvalidStart indicates the rule has no anchor date.
	ErrInvalidStart = errors.New("recurrence: start date is required")
)

// Engine expands recurrence rules into concrete dates.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that normalizes dates to the provided
// location at day granularity. If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// Generate expands the rule into an ordered sequence of dates, each truncated
// to midnight in the engine's location.
//
// Semantics:
//   - The first emitted date is never earlier than the rule's anchor, even
//     when the anchor lies in the past; callers decide whether to shift.
//   - EndAfterOccurrences emits exactly Count dates unless the window caps
//     the series first.
//   - EndOnDate emits no date strictly after Until.
//   - EndNever requires a window bound; unbounded expansion is refused.
func (e *Engine) Generate(rule Rule, window Window) ([]time.Time, error) {
	loc := e.location
	if loc == nil {
		loc = time.UTC
	}

	if !rule.Type.Valid() {
		return nil, ErrInvalidType
	}
	if rule.Start.IsZero() {
		return nil, ErrInvalidStart
	}
	if rule.End == EndAfterOccurrences && rule.Count <= 0 {
		return nil, ErrInvalidCount
	}
	if rule.Type == TypeMonthlyRelative && !rule.Ordinal.Valid() {
		return nil, ErrInvalidOrdinal
	}
	if rule.End == EndNever && window.MaxDates <= 0 && window.Until.IsZero() {
		return nil, ErrInvalidWindow
	}
	if rule.End == EndOnDate && rule.Until.IsZero() {
		return nil, ErrInvalidWindow
	}

	start := truncateToDay(rule.Start, loc)

	var upper time.Time
	if rule.End == EndOnDate && !rule.Until.IsZero() {
		upper = truncateToDay(rule.Until, loc)
	}
	if !window.Until.IsZero() {
		bound := truncateToDay(window.Until, loc)
		if upper.IsZero() || bound.Before(upper) {
			upper = bound
		}
	}

	remaining := -1
	if rule.End == EndAfterOccurrences {
		remaining = rule.Count
	}
	if window.MaxDates > 0 && (remaining < 0 || window.MaxDates < remaining) {
		remaining = window.MaxDates
	}

	dates := make([]time.Time, 0)
	for period := 0; ; period++ {
		candidate, ok := e.dateForPeriod(rule, start, period, loc)
		if !ok {
			// Month without the requested ordinal weekday; does not consume
			// an occurrence slot.
			continue
		}
		if candidate.Before(start) {
			continue
		}
		if !upper.IsZero() && candidate.After(upper) {
			break
		}
		dates = append(dates, candidate)
		if remaining > 0 && len(dates) >= remaining {
			break
		}
	}

	return dates, nil
}

// Next returns the first date of the series strictly after the given date.
func (e *Engine) Next(rule Rule, after time.Time) (time.Time, bool, error) {
	loc := e.location
	if loc == nil {
		loc = time.UTC
	}
	bound := truncateToDay(after, loc).AddDate(2, 0, 7)

	dates, err := e.Generate(rule, Window{Until: bound})
	if err != nil {
		return time.Time{}, false, err
	}
	cut := truncateToDay(after, loc)
	for _, date := range dates {
		if date.After(cut) {
			return date, true, nil
		}
	}
	return time.Time{}, false, nil
}

func (e *Engine) dateForPeriod(rule Rule, start time.Time, period int, loc *time.Location) (time.Time, bool) {
	switch rule.Type {
	case TypeWeekly:
		return start.AddDate(0, 0, 7*period), true
	case TypeMonthly:
		return addMonthsClamped(start, period), true
	case TypeMonthlyRelative:
		year, month := monthOffset(start, period)
		return resolveOrdinalWeekday(year, month, rule.Ordinal, rule.Weekday, loc)
	case TypeYearly:
		return addYearsClamped(start, period), true
	}
	return time.Time{}, false
}

// addMonthsClamped advances by whole calendar months, clamping the day to the
// last valid day of the target month (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month := monthOffset(t, months)
	day := t.Day()
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// addYearsClamped advances by whole years, clamping Feb 29 anchors to Feb 28
// on non-leap years.
func addYearsClamped(t time.Time, years int) time.Time {
	year := t.Year() + years
	day := t.Day()
	if last := daysInMonth(year, t.Month()); day > last {
		day = last
	}
	return time.Date(year, t.Month(), day, 0, 0, 0, 0, t.Location())
}

// OrdinalDate resolves the requested weekday instance within a month, e.g.
// the third Tuesday of June. ok is false when the month has no such instance.
func OrdinalDate(year int, month time.Month, ordinal Ordinal, weekday time.Weekday, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	if !ordinal.Valid() {
		return time.Time{}, false
	}
	return resolveOrdinalWeekday(year, month, ordinal, weekday, loc)
}

// resolveOrdinalWeekday finds the requested weekday instance within a month.
// The fifth instance does not exist in every month; ok is false in that case.
func resolveOrdinalWeekday(year int, month time.Month, ordinal Ordinal, weekday time.Weekday, loc *time.Location) (time.Time, bool) {
	if ordinal == OrdinalLast {
		last := time.Date(year, month, daysInMonth(year, month), 0, 0, 0, 0, loc)
		for d := last; d.Month() == month; d = d.AddDate(0, 0, -1) {
			if d.Weekday() == weekday {
				return d, true
			}
		}
		return time.Time{}, false
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := 1 + offset + 7*(int(ordinal)-1)
	if day > daysInMonth(year, month) {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc), true
}

func monthOffset(t time.Time, months int) (int, time.Month) {
	index := t.Year()*12 + int(t.Month()) - 1 + months
	return index / 12, time.Month(index%12 + 1)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncateToDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
