package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/intention-scheduler/internal/recurrence"
	"github.com/example/intention-scheduler/internal/scheduling"
)

// weeklyHorizonMonths is how far past "now" the monthly trigger materializes
// open-ended weekly series.
const weeklyHorizonMonths = 12

// OpenEndedSource lists open-ended recurring intentions by recurrence type.
type OpenEndedSource interface {
	ListOpenEndedIntentions(ctx context.Context, recurrenceType recurrence.Type) ([]IntentionWithRecurrence, error)
}

// IntentionWithRecurrence pairs an intention with its recurrence rule.
type IntentionWithRecurrence struct {
	Intention  Intention
	Recurrence Recurrence
}

// ExtenderMassStore captures the mass persistence interactions of the
// rolling-horizon extender.
type ExtenderMassStore interface {
	LatestMassForIntention(ctx context.Context, intentionID string) (Mass, error)
	MassExistsOn(ctx context.Context, intentionID string, date time.Time) (bool, error)
	CreateMass(ctx context.Context, mass Mass) error
}

// ExtenderService keeps open-ended recurring series materialized ahead of
// time. Each run advances qualifying series by a fixed offset appropriate to
// the trigger cadence, so the lookahead window never shrinks below the
// offset as long as the jobs run on schedule.
type ExtenderService struct {
	intentions  OpenEndedSource
	masses      ExtenderMassStore
	celebrants  CelebrantDirectory
	constraints ConstraintSource
	engine      *recurrence.Engine
	chooser     scheduling.Chooser
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewExtenderService wires dependencies for the rolling-horizon jobs.
func NewExtenderService(
	intentions OpenEndedSource,
	masses ExtenderMassStore,
	celebrants CelebrantDirectory,
	constraints ConstraintSource,
	engine *recurrence.Engine,
	chooser scheduling.Chooser,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *ExtenderService {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ExtenderService{
		intentions:  intentions,
		masses:      masses,
		celebrants:  celebrants,
		constraints: constraints,
		engine:      engine,
		chooser:     chooser,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// ExtendYearly advances every open-ended yearly series to its anniversary
// two years out from the reference time.
func (s *ExtenderService) ExtendYearly(ctx context.Context) (ExtendReport, error) {
	return s.extend(ctx, recurrence.TypeYearly)
}

// ExtendMonthly advances open-ended monthly and monthly-relative series
// whose anchor month matches the reference month by twelve months, and
// fills open-ended weekly series up to the weekly horizon.
func (s *ExtenderService) ExtendMonthly(ctx context.Context) (ExtendReport, error) {
	report, err := s.extend(ctx, recurrence.TypeMonthly)
	if err != nil {
		return report, err
	}
	relative, err := s.extend(ctx, recurrence.TypeMonthlyRelative)
	report = mergeReports(report, relative)
	if err != nil {
		return report, err
	}
	weekly, err := s.extend(ctx, recurrence.TypeWeekly)
	return mergeReports(report, weekly), err
}

// Extend runs one extension pass for a single recurrence type. Exposed for
// the administrative trigger endpoints.
func (s *ExtenderService) Extend(ctx context.Context, recurrenceType recurrence.Type) (ExtendReport, error) {
	return s.extend(ctx, recurrenceType)
}

func (s *ExtenderService) extend(ctx context.Context, recurrenceType recurrence.Type) (ExtendReport, error) {
	if s == nil || s.intentions == nil || s.masses == nil {
		return ExtendReport{}, fmt.Errorf("extender stores not configured")
	}
	if !recurrenceType.Valid() {
		return ExtendReport{}, recurrence.ErrInvalidType
	}

	logger := serviceLogger(ctx, s.logger, "extender", "extend", "recurrence_type", string(recurrenceType))
	now := s.now()

	candidates, err := s.intentions.ListOpenEndedIntentions(ctx, recurrenceType)
	if err != nil {
		return ExtendReport{}, err
	}

	celebrants, err := s.listCelebrants(ctx)
	if err != nil {
		return ExtendReport{}, err
	}
	calendar, err := s.loadCalendar(ctx)
	if err != nil {
		return ExtendReport{}, err
	}

	pool := make([]scheduling.Celebrant, 0, len(celebrants))
	for _, celebrant := range celebrants {
		pool = append(pool, scheduling.Celebrant{
			ID:          celebrant.ID,
			DisplayName: celebrant.DisplayName(),
			Available:   celebrant.Available,
		})
	}
	selector := scheduling.NewSelector(pool, calendar, s.chooser)

	report := ExtendReport{}
	used := scheduling.UsedByDate{}

	for _, candidate := range candidates {
		report.Examined++

		created, err := s.extendIntention(ctx, selector, used, candidate, now)
		if err != nil {
			// One bad intention never aborts the batch.
			report.Failures++
			logger.ErrorContext(ctx, "failed to extend intention",
				"intention_id", candidate.Intention.ID,
				"error", err,
				"error_kind", ErrorKind(err),
			)
			continue
		}
		if len(created) == 0 {
			report.Skipped++
			continue
		}
		report.Created = append(report.Created, created...)
	}

	logger.InfoContext(ctx, "extension pass finished",
		"examined", report.Examined,
		"created", len(report.Created),
		"skipped", report.Skipped,
		"failures", report.Failures,
	)

	return report, nil
}

func (s *ExtenderService) extendIntention(
	ctx context.Context,
	selector *scheduling.Selector,
	used scheduling.UsedByDate,
	candidate IntentionWithRecurrence,
	now time.Time,
) ([]Mass, error) {
	intention := candidate.Intention
	rec := candidate.Recurrence

	if intention.Status == IntentionCancelled {
		return nil, nil
	}

	latest, err := s.masses.LatestMassForIntention(ctx, intention.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// An open-ended intention with zero occurrences is a data
			// inconsistency; it is logged, never auto-repaired here.
			serviceLogger(ctx, s.logger, "extender", "extend").WarnContext(ctx,
				"open-ended intention has no materialized occurrence",
				"intention_id", intention.ID,
			)
			return nil, nil
		}
		return nil, err
	}

	targets, err := s.targetDates(rec, latest, now)
	if err != nil {
		return nil, err
	}

	created := make([]Mass, 0, len(targets))
	for _, target := range targets {
		exists, err := s.masses.MassExistsOn(ctx, intention.ID, target)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		// A fixed prior assignment is carried forward; random assignments
		// are re-randomized for the new date.
		requested := ""
		if !latest.RandomCelebrant && latest.CelebrantID != nil {
			requested = *latest.CelebrantID
		}
		assignment := selector.Select(target, requested, used)

		mass := Mass{
			ID:              s.idGenerator(),
			Date:            target,
			IntentionID:     intention.ID,
			Status:          MassScheduled,
			RandomCelebrant: assignment.Random,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if assignment.Conflict == nil && assignment.CelebrantID != "" {
			id := assignment.CelebrantID
			mass.CelebrantID = &id
			used.Add(target, id)
		}

		if err := s.masses.CreateMass(ctx, mass); err != nil {
			return created, err
		}
		created = append(created, mass)
	}

	return created, nil
}

// targetDates computes the fixed-offset extension dates for one series.
func (s *ExtenderService) targetDates(rec Recurrence, latest Mass, now time.Time) ([]time.Time, error) {
	switch rec.Type {
	case recurrence.TypeYearly:
		// The yearly trigger plants the anniversary two years out.
		target := anniversaryIn(rec.StartDate, now.Year()+2)
		return []time.Time{target}, nil

	case recurrence.TypeMonthly:
		if rec.StartDate.Month() != now.Month() {
			return nil, nil
		}
		return []time.Time{addMonthsClamped(latest.Date, 12)}, nil

	case recurrence.TypeMonthlyRelative:
		if rec.StartDate.Month() != now.Month() {
			return nil, nil
		}
		year, month := yearMonthAfter(latest.Date, 12)
		target, ok := recurrence.OrdinalDate(year, month, rec.Ordinal, rec.Weekday, latest.Date.Location())
		if !ok {
			// Month without the requested instance; the next qualifying run
			// picks the series up again.
			return nil, nil
		}
		return []time.Time{target}, nil

	case recurrence.TypeWeekly:
		// Weekly series fill every remaining on-cadence date up to the
		// horizon. Walking the stored rule keeps the fill on the anchor's
		// cadence even when the latest mass was manually moved off it.
		horizon := now.AddDate(0, weeklyHorizonMonths, 0)
		var targets []time.Time
		cursor := latest.Date
		for {
			next, ok, err := s.engine.Next(rec.Rule(), cursor)
			if err != nil {
				return nil, err
			}
			if !ok || next.After(horizon) {
				return targets, nil
			}
			targets = append(targets, next)
			cursor = next
		}
	}

	return nil, recurrence.ErrInvalidType
}

func (s *ExtenderService) listCelebrants(ctx context.Context) ([]Celebrant, error) {
	if s.celebrants == nil {
		return nil, nil
	}
	return s.celebrants.ListCelebrants(ctx)
}

func (s *ExtenderService) loadCalendar(ctx context.Context) (*scheduling.Calendar, error) {
	if s.constraints == nil {
		return scheduling.NewCalendar(nil, nil), nil
	}
	unavailable, err := s.constraints.ListUnavailableDays(ctx)
	if err != nil {
		return nil, err
	}
	special, err := s.constraints.ListSpecialDays(ctx)
	if err != nil {
		return nil, err
	}
	return scheduling.NewCalendar(toSchedulingUnavailable(unavailable), toSchedulingSpecial(special)), nil
}

func anniversaryIn(anchor time.Time, year int) time.Time {
	day := anchor.Day()
	if last := daysIn(year, anchor.Month()); day > last {
		day = last
	}
	return time.Date(year, anchor.Month(), day, 0, 0, 0, 0, anchor.Location())
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month := yearMonthAfter(t, months)
	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func yearMonthAfter(t time.Time, months int) (int, time.Month) {
	index := t.Year()*12 + int(t.Month()) - 1 + months
	return index / 12, time.Month(index%12 + 1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func mergeReports(a, b ExtendReport) ExtendReport {
	return ExtendReport{
		Examined: a.Examined + b.Examined,
		Created:  append(a.Created, b.Created...),
		Skipped:  a.Skipped + b.Skipped,
		Failures: a.Failures + b.Failures,
	}
}
