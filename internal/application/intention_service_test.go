package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/intention-scheduler/internal/application"
	"github.com/example/intention-scheduler/internal/recurrence"
	"github.com/example/intention-scheduler/internal/scheduling"
	"github.com/example/intention-scheduler/internal/testfixtures"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newIntentionService(t *testing.T, store *testfixtures.MemoryStore) *application.IntentionService {
	t.Helper()
	clock := testfixtures.NewClock(date(2025, time.March, 10))
	ids := testfixtures.NewIDGenerator("id")
	return application.NewIntentionService(
		store, store, store, store, store,
		recurrence.NewEngine(nil),
		testfixtures.NewSequenceChooser().Func(),
		ids.NextFunc(),
		clock.NowFunc(),
		nil,
	)
}

func seedCelebrants(store *testfixtures.MemoryStore, fixtures ...testfixtures.CelebrantFixture) {
	for _, fixture := range fixtures {
		store.Celebrants[fixture.ID] = fixture.Application()
	}
}

func baseInput() application.IntentionInput {
	return application.IntentionInput{
		Description:   "For the repose of the soul of A. Kowalski",
		Donor:         application.DonorInput{FirstName: "Maria", LastName: "Kowalska", Email: "maria@example.com"},
		AmountCents:   2000,
		PaymentMethod: application.PaymentCash,
		DateType:      application.DateFixed,
		Kind:          application.KindUnit,
		MassCount:     3,
		StartDate:     date(2025, time.April, 1),
	}
}

func TestIntentionService_Preview_GeneratesConsecutiveDates(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	seedCelebrants(store, testfixtures.NewCelebrantFixture(testfixtures.WithCelebrantID("celebrant-a")))
	svc := newIntentionService(t, store)

	plan, err := svc.Preview(context.Background(), baseInput())
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}

	if len(plan.Masses) != 3 {
		t.Fatalf("expected 3 planned masses, got %d", len(plan.Masses))
	}
	want := []time.Time{date(2025, time.April, 1), date(2025, time.April, 2), date(2025, time.April, 3)}
	for i, planned := range plan.Masses {
		if !planned.Date.Equal(want[i]) {
			t.Errorf("mass %d: expected %v, got %v", i, want[i], planned.Date)
		}
		if planned.CelebrantID != "celebrant-a" {
			t.Errorf("mass %d: expected celebrant-a, got %q", i, planned.CelebrantID)
		}
		if !planned.Random {
			t.Errorf("mass %d: expected random assignment", i)
		}
	}

	if store.Commits != 0 || len(store.Masses) != 0 {
		t.Fatalf("Preview must not persist anything, commits=%d masses=%d", store.Commits, len(store.Masses))
	}
}

func TestIntentionService_Preview_IsIdempotent(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	seedCelebrants(store,
		testfixtures.NewCelebrantFixture(testfixtures.WithCelebrantID("celebrant-a")),
		testfixtures.NewCelebrantFixture(testfixtures.WithCelebrantID("celebrant-b")),
	)
	svc := newIntentionService(t, store)

	first, err := svc.Preview(context.Background(), baseInput())
	if err != nil {
		t.Fatalf("first Preview returned error: %v", err)
	}
	second, err := svc.Preview(context.Background(), baseInput())
	if err != nil {
		t.Fatalf("second Preview returned error: %v", err)
	}

	if len(first.Masses) != len(second.Masses) {
		t.Fatalf("plans differ in length: %d vs %d", len(first.Masses), len(second.Masses))
	}
	for i := range first.Masses {
		if first.Masses[i].CelebrantID != second.Masses[i].CelebrantID {
			t.Errorf("mass %d: plans diverge, %q vs %q", i, first.Masses[i].CelebrantID, second.Masses[i].CelebrantID)
		}
	}
}

func TestIntentionService_Preview_WeeklyRecurrenceWithEndDate(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	seedCelebrants(store, testfixtures.NewCelebrantFixture(testfixtures.WithCelebrantID("celebrant-a")))
	svc := newIntentionService(t, store)

	input := baseInput()
	input.MassCount = 1
	until := date(2025, time.April, 22)
	input.Recurrence = &application.RecurrenceInput{
		Type:      recurrence.TypeWeekly,
		EndPolicy: recurrence.EndOnDate,
		EndDate:   &until,
	}

	plan, err := svc.Preview(context.Background(), input)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}

	want := []time.Time{
		date(2025, time.April, 1),
		date(2025, time.April, 8),
		date(2025, time.April, 15),
		date(2025, time.April, 22),
	}
	if len(plan.Masses) != len(want) {
		t.Fatalf("expected %d masses, got %d", len(want), len(plan.Masses))
	}
	for i, planned := range plan.Masses {
		if !planned.Date.Equal(want[i]) {
			t.Errorf("mass %d: expected %v, got %v", i, want[i], planned.Date)
		}
	}
}

func TestIntentionService_Preview_RequestedCelebrant(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	requested := testfixtures.NewCelebrantFixture(
		testfixtures.WithCelebrantID("celebrant-requested"),
		testfixtures.WithCelebrantName("John", "Smith"),
	)
	other := testfixtures.NewCelebrantFixture(testfixtures.WithCelebrantID("celebrant-other"))
	seedCelebrants(store, requested, other)

	// The requested celebrant is blocked on the second planned date.
	store.Unavailable["blk-1"] = application.UnavailableDay{
		ID:          "blk-1",
		CelebrantID: "celebrant-requested",
		Date:        date(2025, time.April, 2),
	}

	svc := newIntentionService(t, store)
	input := baseInput()
	input.RequestedCelebrant = "John Smith"

	plan, err := svc.Preview(context.Background(), input)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}

	if len(plan.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(plan.Conflicts))
	}
	if plan.Conflicts[0].Reason != scheduling.ConflictCelebrantUnavailable {
		t.Errorf("unexpected conflict reason %q", plan.Conflicts[0].Reason)
	}

	for i, planned := range plan.Masses {
		if planned.Conflict != nil {
			if !planned.Date.Equal(date(2025, time.April, 2)) {
				t.Errorf("conflict reported on wrong date %v", planned.Date)
			}
			continue
		}
		if planned.CelebrantID != "celebrant-requested" {
			t.Errorf("mass %d: expected requested celebrant, got %q", i, planned.CelebrantID)
		}
		if planned.Random {
			t.Errorf("mass %d: requested assignment must not be random", i)
		}
	}
}

func TestIntentionService_Preview_UnknownRequestedCelebrant(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	seedCelebrants(store, testfixtures.NewCelebrantFixture(testfixtures.WithCelebrantID("celebrant-a")))
	svc := newIntentionService(t, store)

	input := baseInput()
	input.RequestedCelebrant = "Nobody Known"

	_, err := svc.Preview(context.Background(), input)
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["requested_celebrant"]; !ok {
		t.Fatalf("expected requested_celebrant field error, got %v", vErr.FieldErrors)
	}
}

func TestIntentionService_Preview_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	svc := newIntentionService(t, store)

	input := baseInput()
	input.Description = ""
	input.MassCount = 0
	input.AmountCents = -5

	_, err := svc.Preview(context.Background(), input)
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"description", "mass_count", "amount_cents"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("expected field error for %q, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestIntentionService_Commit_PersistsSubmissionAtomically(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	seedCelebrants(store, testfixtures.NewCelebrantFixture(testfixtures.WithCelebrantID("celebrant-a")))
	svc := newIntentionService(t, store)

	input := baseInput()
	input.MassCount = 2
	until := date(2025, time.April, 8)
	input.Recurrence = &application.RecurrenceInput{
		Type:      recurrence.TypeWeekly,
		EndPolicy: recurrence.EndOnDate,
		EndDate:   &until,
	}

	result, err := svc.Commit(context.Background(), input)
	if err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}

	if store.Commits != 1 {
		t.Fatalf("expected one commit, got %d", store.Commits)
	}
	if len(store.Donors) != 1 {
		t.Fatalf("expected donor to be created, got %d donors", len(store.Donors))
	}
	if result.Intention.RecurrenceID == nil {
		t.Fatal("expected recurrence to be linked")
	}
	if _, ok := store.Recurrences[*result.Intention.RecurrenceID]; !ok {
		t.Fatal("recurrence was not persisted")
	}
	if len(result.Masses) != 2 || len(store.Masses) != 2 {
		t.Fatalf("expected 2 masses, got result=%d stored=%d", len(result.Masses), len(store.Masses))
	}
	if result.Intention.Status != application.IntentionScheduled {
		t.Fatalf("expected scheduled intention, got %q", result.Intention.Status)
	}
	for _, mass := range result.Masses {
		if mass.Status != application.MassScheduled {
			t.Errorf("mass %s: expected scheduled status, got %q", mass.ID, mass.Status)
		}
		if mass.CelebrantID == nil || *mass.CelebrantID != "celebrant-a" {
			t.Errorf("mass %s: expected celebrant-a assignment", mass.ID)
		}
	}
}

func TestIntentionService_Commit_ReusesDonorByIdentity(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	seedCelebrants(store, testfixtures.NewCelebrantFixture(testfixtures.WithCelebrantID("celebrant-a")))
	existing := application.Donor{
		ID:        "donor-existing",
		FirstName: "Maria",
		LastName:  "Kowalska",
		Email:     "maria@example.com",
	}
	store.Donors[existing.ID] = existing

	svc := newIntentionService(t, store)
	result, err := svc.Commit(context.Background(), baseInput())
	if err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}

	if result.Donor.ID != "donor-existing" {
		t.Fatalf("expected donor reuse, got %q", result.Donor.ID)
	}
	if len(store.Donors) != 1 {
		t.Fatalf("expected no new donor, got %d donors", len(store.Donors))
	}
	if result.Intention.DonorID != "donor-existing" {
		t.Fatalf("intention linked to wrong donor %q", result.Intention.DonorID)
	}
}

func TestIntentionService_Commit_PersistsConflictedDatesUnassigned(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	only := testfixtures.NewCelebrantFixture(testfixtures.WithCelebrantID("celebrant-a"))
	seedCelebrants(store, only)
	store.Unavailable["blk-1"] = application.UnavailableDay{
		ID:          "blk-1",
		CelebrantID: "celebrant-a",
		Date:        date(2025, time.April, 2),
	}

	svc := newIntentionService(t, store)
	result, err := svc.Commit(context.Background(), baseInput())
	if err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}

	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}
	if len(result.Masses) != 3 {
		t.Fatalf("conflicted dates must still persist, got %d masses", len(result.Masses))
	}

	unassigned := 0
	for _, mass := range result.Masses {
		if mass.CelebrantID == nil {
			unassigned++
			if !mass.Date.Equal(date(2025, time.April, 2)) {
				t.Errorf("wrong date left unassigned: %v", mass.Date)
			}
		}
	}
	if unassigned != 1 {
		t.Fatalf("expected exactly one unassigned mass, got %d", unassigned)
	}
}

func TestIntentionService_Commit_OpenEndedMaterializesInitialBatch(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	seedCelebrants(store, testfixtures.NewCelebrantFixture(testfixtures.WithCelebrantID("celebrant-a")))
	svc := newIntentionService(t, store)

	input := baseInput()
	input.MassCount = 4
	input.Recurrence = &application.RecurrenceInput{
		Type:      recurrence.TypeMonthly,
		EndPolicy: recurrence.EndNever,
	}

	result, err := svc.Commit(context.Background(), input)
	if err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if len(result.Masses) != 4 {
		t.Fatalf("expected initial batch of 4, got %d", len(result.Masses))
	}
	want := []time.Time{
		date(2025, time.April, 1),
		date(2025, time.May, 1),
		date(2025, time.June, 1),
		date(2025, time.July, 1),
	}
	for i, mass := range result.Masses {
		if !mass.Date.Equal(want[i]) {
			t.Errorf("mass %d: expected %v, got %v", i, want[i], mass.Date)
		}
	}
}

func TestIntentionService_Commit_KindDrivenSeriesLengths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		kind application.IntentionKind
		want int
	}{
		{"thirty-day series", application.KindThirty, 30},
		{"novena series", application.KindNovena, 9},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := testfixtures.NewMemoryStore()
			seedCelebrants(store, testfixtures.NewCelebrantFixture(testfixtures.WithCelebrantID("celebrant-a")))
			svc := newIntentionService(t, store)

			input := baseInput()
			input.Kind = tc.kind
			// Non-unit kinds fix the series length themselves.
			input.MassCount = 0

			result, err := svc.Commit(context.Background(), input)
			if err != nil {
				t.Fatalf("Commit returned error: %v", err)
			}

			if result.Intention.MassCount != tc.want {
				t.Fatalf("expected mass count %d, got %d", tc.want, result.Intention.MassCount)
			}
			if len(result.Masses) != tc.want {
				t.Fatalf("expected %d masses, got %d", tc.want, len(result.Masses))
			}
			first := result.Masses[0].Date
			last := result.Masses[len(result.Masses)-1].Date
			if !first.Equal(date(2025, time.April, 1)) {
				t.Fatalf("expected series to start 2025-04-01, got %v", first)
			}
			if !last.Equal(first.AddDate(0, 0, tc.want-1)) {
				t.Fatalf("expected consecutive daily dates through %v, got %v", first.AddDate(0, 0, tc.want-1), last)
			}
		})
	}
}

func TestIntentionService_Cancel_CascadesToFutureMasses(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	intention := testfixtures.NewIntentionFixture(testfixtures.WithIntentionID("intention-1"))
	store.Intentions[intention.ID] = intention.Application()

	past := testfixtures.NewMassFixture(
		testfixtures.WithMassID("mass-past"),
		testfixtures.WithMassIntentionID("intention-1"),
		testfixtures.WithMassDate(date(2025, time.February, 1)),
		testfixtures.WithMassStatus(application.MassCompleted),
	)
	future := testfixtures.NewMassFixture(
		testfixtures.WithMassID("mass-future"),
		testfixtures.WithMassIntentionID("intention-1"),
		testfixtures.WithMassDate(date(2025, time.April, 1)),
	)
	store.Masses[past.ID] = past.Application()
	store.Masses[future.ID] = future.Application()

	svc := newIntentionService(t, store)
	if err := svc.Cancel(context.Background(), "intention-1"); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	if store.Intentions["intention-1"].Status != application.IntentionCancelled {
		t.Fatal("intention was not cancelled")
	}
	if store.Masses["mass-past"].Status != application.MassCompleted {
		t.Fatal("completed mass must keep its status")
	}
	if store.Masses["mass-future"].Status != application.MassCancelled {
		t.Fatal("future mass was not cancelled")
	}
}

func TestIntentionService_Cancel_UnknownIntention(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	svc := newIntentionService(t, store)

	err := svc.Cancel(context.Background(), "missing")
	if !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
