package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/intention-scheduler/internal/recurrence"
	"github.com/example/intention-scheduler/internal/scheduling"
)

// initialOpenEndedBatch bounds how many occurrences an open-ended recurrence
// materializes at submission time; the rolling-horizon extender takes over
// from there.
const initialOpenEndedBatch = 12

// CelebrantDirectory exposes celebrant lookups needed by planning.
type CelebrantDirectory interface {
	ListCelebrants(ctx context.Context) ([]Celebrant, error)
}

// ConstraintSource exposes the calendar constraint records.
type ConstraintSource interface {
	ListUnavailableDays(ctx context.Context) ([]UnavailableDay, error)
	ListSpecialDays(ctx context.Context) ([]SpecialDay, error)
}

// DonorDirectory exposes donor lookups for create-or-reuse at commit time.
type DonorDirectory interface {
	FindDonorByIdentity(ctx context.Context, firstName, lastName, email, phone string) (Donor, error)
	GetDonor(ctx context.Context, id string) (Donor, error)
}

// Submission bundles everything one commit persists atomically.
type Submission struct {
	Donor       Donor
	DonorExists bool
	Intention   Intention
	Recurrence  *Recurrence
	Masses      []Mass
}

// IntentionStore captures the persistence interactions of the planner.
type IntentionStore interface {
	CommitSubmission(ctx context.Context, submission Submission) error
	GetIntention(ctx context.Context, id string) (Intention, error)
	GetRecurrence(ctx context.Context, id string) (Recurrence, error)
	CancelIntention(ctx context.Context, id string, from time.Time) error
}

// MassReader lists persisted masses for an intention.
type MassReader interface {
	ListMassesForIntention(ctx context.Context, intentionID string) ([]Mass, error)
}

// IntentionService orchestrates occurrence generation and celebrant
// selection for intention submissions. Preview computes a proposed plan
// without side effects; Commit persists the recomputed plan atomically.
type IntentionService struct {
	intentions  IntentionStore
	masses      MassReader
	donors      DonorDirectory
	celebrants  CelebrantDirectory
	constraints ConstraintSource
	engine      *recurrence.Engine
	chooser     scheduling.Chooser
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewIntentionService wires dependencies for intention operations.
func NewIntentionService(
	intentions IntentionStore,
	masses MassReader,
	donors DonorDirectory,
	celebrants CelebrantDirectory,
	constraints ConstraintSource,
	engine *recurrence.Engine,
	chooser scheduling.Chooser,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *IntentionService {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &IntentionService{
		intentions:  intentions,
		masses:      masses,
		donors:      donors,
		celebrants:  celebrants,
		constraints: constraints,
		engine:      engine,
		chooser:     chooser,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Preview computes the proposed occurrence set for a draft submission. It is
// idempotent and side-effect-free; callers may invoke it repeatedly while
// the donor edits the draft.
func (s *IntentionService) Preview(ctx context.Context, input IntentionInput) (Plan, error) {
	if s == nil {
		return Plan{}, fmt.Errorf("IntentionService is nil")
	}

	if err := validateIntentionInput(input); err != nil {
		return Plan{}, err
	}

	plan, _, err := s.buildPlan(ctx, input)
	return plan, err
}

// Commit persists the submission as one atomic unit: the donor record
// (created or reused by identity), the intention, its recurrence if any, and
// one mass per planned date. Dates the selector could not resolve are
// persisted with a null celebrant so the donor's request is never lost.
//
// Commit recomputes the plan from the draft; it does not deduplicate, so
// submitting the same draft twice creates two intentions.
func (s *IntentionService) Commit(ctx context.Context, input IntentionInput) (CommitResult, error) {
	if s == nil {
		return CommitResult{}, fmt.Errorf("IntentionService is nil")
	}
	if s.intentions == nil {
		return CommitResult{}, fmt.Errorf("intention store not configured")
	}

	if err := validateIntentionInput(input); err != nil {
		return CommitResult{}, err
	}

	plan, requestedID, err := s.buildPlan(ctx, input)
	if err != nil {
		return CommitResult{}, err
	}

	donor, donorExists, err := s.resolveDonor(ctx, input.Donor)
	if err != nil {
		return CommitResult{}, err
	}

	createdAt := s.now()

	var rec *Recurrence
	intention := Intention{
		ID:                 s.idGenerator(),
		Description:        strings.TrimSpace(input.Description),
		DonorID:            donor.ID,
		AmountCents:        input.AmountCents,
		PaymentMethod:      input.PaymentMethod,
		ForDeceased:        input.ForDeceased,
		RequestedCelebrant: requestedID,
		DateType:           input.DateType,
		Kind:               input.Kind,
		MassCount:          input.Kind.MassCount(input.MassCount),
		Status:             IntentionScheduled,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
	if input.Recurrence != nil {
		rec = &Recurrence{
			ID:        s.idGenerator(),
			Type:      input.Recurrence.Type,
			StartDate: input.StartDate,
			EndPolicy: input.Recurrence.EndPolicy,
			Count:     input.Recurrence.Count,
			EndDate:   input.Recurrence.EndDate,
			Ordinal:   input.Recurrence.Ordinal,
			Weekday:   input.Recurrence.Weekday,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
		intention.RecurrenceID = &rec.ID
	}

	masses := make([]Mass, 0, len(plan.Masses))
	for _, planned := range plan.Masses {
		mass := Mass{
			ID:              s.idGenerator(),
			Date:            planned.Date,
			IntentionID:     intention.ID,
			Status:          MassScheduled,
			RandomCelebrant: planned.Random,
			CreatedAt:       createdAt,
			UpdatedAt:       createdAt,
		}
		if planned.CelebrantID != "" {
			id := planned.CelebrantID
			mass.CelebrantID = &id
		}
		masses = append(masses, mass)
	}

	submission := Submission{
		Donor:       donor,
		DonorExists: donorExists,
		Intention:   intention,
		Recurrence:  rec,
		Masses:      masses,
	}
	if err := s.intentions.CommitSubmission(ctx, submission); err != nil {
		return CommitResult{}, err
	}

	logger := serviceLogger(ctx, s.logger, "intention", "commit", "intention_id", intention.ID)
	logger.InfoContext(ctx, "intention committed",
		"masses", len(masses),
		"conflicts", len(plan.Conflicts),
		"recurring", rec != nil,
	)

	return CommitResult{
		Intention: intention,
		Donor:     donor,
		Masses:    masses,
		Conflicts: plan.Conflicts,
	}, nil
}

// GetIntention returns an intention with its materialized masses.
func (s *IntentionService) GetIntention(ctx context.Context, id string) (Intention, []Mass, error) {
	if s == nil || s.intentions == nil {
		return Intention{}, nil, fmt.Errorf("intention store not configured")
	}
	intention, err := s.intentions.GetIntention(ctx, id)
	if err != nil {
		return Intention{}, nil, err
	}
	var masses []Mass
	if s.masses != nil {
		masses, err = s.masses.ListMassesForIntention(ctx, id)
		if err != nil {
			return Intention{}, nil, err
		}
	}
	return intention, masses, nil
}

// Cancel marks the intention cancelled and cascades to its masses dated
// today or later; already celebrated masses keep their completed status.
func (s *IntentionService) Cancel(ctx context.Context, id string) error {
	if s == nil || s.intentions == nil {
		return fmt.Errorf("intention store not configured")
	}
	if _, err := s.intentions.GetIntention(ctx, id); err != nil {
		return err
	}
	return s.intentions.CancelIntention(ctx, id, s.now())
}

// buildPlan runs generation and selection for the draft. The returned string
// is the resolved ID of the requested celebrant, empty when none was named.
func (s *IntentionService) buildPlan(ctx context.Context, input IntentionInput) (Plan, string, error) {
	celebrants, err := s.listCelebrants(ctx)
	if err != nil {
		return Plan{}, "", err
	}

	requestedID := ""
	if name := strings.TrimSpace(input.RequestedCelebrant); name != "" {
		requestedID = matchCelebrantByName(celebrants, name)
		if requestedID == "" {
			vErr := &ValidationError{}
			vErr.add("requested_celebrant", "no celebrant matches the requested name")
			return Plan{}, "", vErr
		}
	}

	dates, err := s.generateDates(input)
	if err != nil {
		return Plan{}, "", err
	}

	calendar, err := s.loadCalendar(ctx)
	if err != nil {
		return Plan{}, "", err
	}

	pool := make([]scheduling.Celebrant, 0, len(celebrants))
	names := make(map[string]string, len(celebrants))
	for _, celebrant := range celebrants {
		pool = append(pool, scheduling.Celebrant{
			ID:          celebrant.ID,
			DisplayName: celebrant.DisplayName(),
			Available:   celebrant.Available,
		})
		names[celebrant.ID] = celebrant.DisplayName()
	}
	selector := scheduling.NewSelector(pool, calendar, s.chooser)

	// Dates are visited chronologically so the batch-local exclusivity map
	// accumulates in a stable order.
	used := scheduling.UsedByDate{}
	plan := Plan{Masses: make([]PlannedMass, 0, len(dates))}
	for _, date := range dates {
		assignment := selector.Select(date, requestedID, used)
		planned := PlannedMass{
			Date:     date,
			Random:   assignment.Random,
			Conflict: assignment.Conflict,
		}
		if assignment.Conflict != nil {
			plan.Conflicts = append(plan.Conflicts, *assignment.Conflict)
		} else {
			planned.CelebrantID = assignment.CelebrantID
			planned.CelebrantName = names[assignment.CelebrantID]
			used.Add(date, assignment.CelebrantID)
		}
		plan.Masses = append(plan.Masses, planned)
	}

	return plan, requestedID, nil
}

func (s *IntentionService) generateDates(input IntentionInput) ([]time.Time, error) {
	count := input.Kind.MassCount(input.MassCount)

	if input.Recurrence == nil {
		// One-shot intentions materialize their full series at submission:
		// consecutive daily dates starting at the requested date.
		dates := make([]time.Time, 0, count)
		start := input.StartDate
		for i := 0; i < count; i++ {
			dates = append(dates, start.AddDate(0, 0, i))
		}
		return dates, nil
	}

	rule := recurrence.Rule{
		Type:    input.Recurrence.Type,
		Start:   input.StartDate,
		End:     input.Recurrence.EndPolicy,
		Count:   input.Recurrence.Count,
		Ordinal: input.Recurrence.Ordinal,
		Weekday: input.Recurrence.Weekday,
	}
	if input.Recurrence.EndDate != nil {
		rule.Until = *input.Recurrence.EndDate
	}

	window := recurrence.Window{}
	if rule.End == recurrence.EndNever {
		// Initial batch only; the extender keeps the horizon populated.
		window.MaxDates = count
		if window.MaxDates <= 0 {
			window.MaxDates = initialOpenEndedBatch
		}
	}

	return s.engine.Generate(rule, window)
}

func (s *IntentionService) listCelebrants(ctx context.Context) ([]Celebrant, error) {
	if s.celebrants == nil {
		return nil, nil
	}
	return s.celebrants.ListCelebrants(ctx)
}

func (s *IntentionService) loadCalendar(ctx context.Context) (*scheduling.Calendar, error) {
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

func (s *IntentionService) resolveDonor(ctx context.Context, input DonorInput) (Donor, bool, error) {
	if s.donors != nil {
		existing, err := s.donors.FindDonorByIdentity(ctx, input.FirstName, input.LastName, input.Email, input.Phone)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Donor{}, false, err
		}
	}

	createdAt := s.now()
	return Donor{
		ID:         s.idGenerator(),
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		Email:      strings.TrimSpace(input.Email),
		Phone:      strings.TrimSpace(input.Phone),
		Address:    input.Address,
		City:       input.City,
		PostalCode: input.PostalCode,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, false, nil
}

func matchCelebrantByName(celebrants []Celebrant, name string) string {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, celebrant := range celebrants {
		full := strings.ToLower(celebrant.FirstName + " " + celebrant.LastName)
		if needle == full || needle == strings.ToLower(celebrant.DisplayName()) {
			return celebrant.ID
		}
	}
	return ""
}

func toSchedulingUnavailable(entries []UnavailableDay) []scheduling.UnavailableDay {
	out := make([]scheduling.UnavailableDay, 0, len(entries))
	for _, entry := range entries {
		out = append(out, scheduling.UnavailableDay{
			CelebrantID: entry.CelebrantID,
			Date:        entry.Date,
			Recurring:   entry.Recurring,
		})
	}
	return out
}

func toSchedulingSpecial(entries []SpecialDay) []scheduling.SpecialDay {
	out := make([]scheduling.SpecialDay, 0, len(entries))
	for _, entry := range entries {
		out = append(out, scheduling.SpecialDay{
			Date:           entry.Date,
			NumberOfMasses: entry.NumberOfMasses,
			Recurring:      entry.Recurring,
		})
	}
	return out
}

func validateIntentionInput(input IntentionInput) error {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Description) == "" {
		vErr.add("description", "description is required")
	}
	if input.StartDate.IsZero() {
		vErr.add("start_date", "start date is required")
	}
	if strings.TrimSpace(input.Donor.LastName) == "" {
		vErr.add("donor.last_name", "donor last name is required")
	}
	if input.AmountCents < 0 {
		vErr.add("amount_cents", "amount must not be negative")
	}
	if !input.PaymentMethod.Valid() {
		vErr.add("payment_method", "unknown payment method")
	}
	if !input.DateType.Valid() {
		vErr.add("date_type", "unknown date type")
	}
	if !input.Kind.Valid() {
		vErr.add("kind", "unknown intention kind")
	}
	if input.Kind == KindUnit && input.MassCount <= 0 {
		vErr.add("mass_count", "mass count must be positive")
	}

	if rec := input.Recurrence; rec != nil {
		if !rec.Type.Valid() {
			vErr.add("recurrence.type", "unknown recurrence type")
		}
		if !rec.EndPolicy.Valid() {
			vErr.add("recurrence.end_policy", "unknown end policy")
		}
		if rec.EndPolicy == recurrence.EndAfterOccurrences && rec.Count <= 0 {
			vErr.add("recurrence.count", "occurrence count must be positive")
		}
		if rec.EndPolicy == recurrence.EndOnDate {
			if rec.EndDate == nil {
				vErr.add("recurrence.end_date", "end date is required")
			} else if !input.StartDate.IsZero() && rec.EndDate.Before(input.StartDate) {
				vErr.add("recurrence.end_date", "end date must not precede the start date")
			}
		}
		if rec.Type == recurrence.TypeMonthlyRelative && !rec.Ordinal.Valid() {
			vErr.add("recurrence.ordinal", "unknown ordinal position")
		}
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
