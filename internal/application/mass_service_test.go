package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/intention-scheduler/internal/application"
	"github.com/example/intention-scheduler/internal/testfixtures"
)

func newMassService(t *testing.T, store *testfixtures.MemoryStore) *application.MassService {
	t.Helper()
	clock := testfixtures.NewClock(date(2025, time.March, 10))
	return application.NewMassService(store, clock.NowFunc(), nil)
}

func TestMassService_ListMasses_FiltersByRange(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	inside := testfixtures.NewMassFixture(
		testfixtures.WithMassID("mass-inside"),
		testfixtures.WithMassDate(date(2025, time.April, 10)),
	)
	outside := testfixtures.NewMassFixture(
		testfixtures.WithMassID("mass-outside"),
		testfixtures.WithMassDate(date(2025, time.May, 10)),
	)
	store.Masses[inside.ID] = inside.Application()
	store.Masses[outside.ID] = outside.Application()

	svc := newMassService(t, store)
	masses, err := svc.ListMasses(context.Background(), date(2025, time.April, 1), date(2025, time.April, 30))
	if err != nil {
		t.Fatalf("ListMasses returned error: %v", err)
	}

	if len(masses) != 1 || masses[0].ID != "mass-inside" {
		t.Fatalf("expected only the in-range mass, got %+v", masses)
	}
}

func TestMassService_ListMasses_RejectsInvertedRange(t *testing.T) {
	t.Parallel()

	svc := newMassService(t, testfixtures.NewMemoryStore())
	_, err := svc.ListMasses(context.Background(), date(2025, time.April, 30), date(2025, time.April, 1))

	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["end"]; !ok {
		t.Fatalf("expected end field error, got %v", vErr.FieldErrors)
	}
}

func TestMassService_UpdateMass_ManualAssignmentPinsCelebrant(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	mass := testfixtures.NewMassFixture(
		testfixtures.WithMassID("mass-1"),
		testfixtures.WithMassDate(date(2025, time.April, 10)),
		testfixtures.WithMassCelebrantID("celebrant-a"),
		testfixtures.WithMassRandomCelebrant(true),
	)
	store.Masses[mass.ID] = mass.Application()

	svc := newMassService(t, store)
	newCelebrant := "celebrant-b"
	updated, err := svc.UpdateMass(context.Background(), "mass-1", application.MassUpdateInput{
		CelebrantID: &newCelebrant,
		Status:      application.MassScheduled,
	})
	if err != nil {
		t.Fatalf("UpdateMass returned error: %v", err)
	}

	if updated.CelebrantID == nil || *updated.CelebrantID != "celebrant-b" {
		t.Fatal("celebrant was not reassigned")
	}
	if updated.RandomCelebrant {
		t.Fatal("manual assignment must clear the random flag")
	}
	if stored := store.Masses["mass-1"]; stored.RandomCelebrant {
		t.Fatal("stored mass still flagged random")
	}
}

func TestMassService_UpdateMass_ClearsCelebrant(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	mass := testfixtures.NewMassFixture(
		testfixtures.WithMassID("mass-1"),
		testfixtures.WithMassDate(date(2025, time.April, 10)),
		testfixtures.WithMassCelebrantID("celebrant-a"),
	)
	store.Masses[mass.ID] = mass.Application()

	svc := newMassService(t, store)
	empty := ""
	updated, err := svc.UpdateMass(context.Background(), "mass-1", application.MassUpdateInput{
		CelebrantID: &empty,
		Status:      application.MassScheduled,
	})
	if err != nil {
		t.Fatalf("UpdateMass returned error: %v", err)
	}
	if updated.CelebrantID != nil {
		t.Fatal("expected celebrant to be cleared")
	}
}

func TestMassService_UpdateMass_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	mass := testfixtures.NewMassFixture(testfixtures.WithMassID("mass-1"))
	store.Masses[mass.ID] = mass.Application()

	svc := newMassService(t, store)
	_, err := svc.UpdateMass(context.Background(), "mass-1", application.MassUpdateInput{
		Status: application.MassStatus("bogus"),
	})

	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestMassService_UpdateMass_UnknownMass(t *testing.T) {
	t.Parallel()

	svc := newMassService(t, testfixtures.NewMemoryStore())
	_, err := svc.UpdateMass(context.Background(), "missing", application.MassUpdateInput{
		Status: application.MassScheduled,
	})
	if !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
