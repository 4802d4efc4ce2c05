package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/intention-scheduler/internal/application"
	"github.com/example/intention-scheduler/internal/config"
	httptransport "github.com/example/intention-scheduler/internal/http"
	"github.com/example/intention-scheduler/internal/jobs"
	"github.com/example/intention-scheduler/internal/logging"
	"github.com/example/intention-scheduler/internal/persistence"
	"github.com/example/intention-scheduler/internal/persistence/sqlite"
	"github.com/example/intention-scheduler/internal/recurrence"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	hashPassword := flag.String("hash-password", "", "print the argon2id hash for an admin password and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := application.CreatePasswordHash(*hashPassword, application.DefaultArgon2idParams)
		if err != nil {
			slog.Error("failed to hash password", "error", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, logLevel(cfg.LogLevel))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	store := newStorageAdapter(pool)
	idGenerator := uuid.NewString
	chooser := func(n int) int { return rand.Intn(n) }
	engine := recurrence.NewEngine(time.UTC)
	now := time.Now

	intentionService := application.NewIntentionService(store, store, store, store, store, engine, chooser, idGenerator, now, logger)
	massService := application.NewMassService(store, now, logger)
	celebrantService := application.NewCelebrantService(store, idGenerator, now, logger)
	extenderService := application.NewExtenderService(store, store, store, store, engine, chooser, idGenerator, now, logger)
	lifecycleService := application.NewLifecycleService(store, now, logger)

	scheduler := jobs.NewScheduler(extenderService, lifecycleService, logger)
	if err := scheduler.Register(cfg.Jobs); err != nil {
		logger.Error("failed to register job schedules", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Intentions:      httptransport.NewIntentionHandler(intentionService, logger),
		Masses:          httptransport.NewMassHandler(massService, logger),
		Celebrants:      httptransport.NewCelebrantHandler(celebrantService, logger),
		Jobs:            httptransport.NewJobHandler(extenderService, lifecycleService, logger),
		AdminMiddleware: httptransport.RequireAdmin(cfg.AdminPasswordHash, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("intention scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// storageAdapter bridges the SQLite repositories to the application layer's
// persistence interfaces, converting between the string encoded persistence
// models and the typed application models.
type storageAdapter struct {
	donors     *sqlite.DonorRepository
	celebrants *sqlite.CelebrantRepository
	calendar   *sqlite.CalendarRepository
	intentions *sqlite.IntentionRepository
	masses     *sqlite.MassRepository
}

func newStorageAdapter(pool *sqlite.ConnectionPool) *storageAdapter {
	return &storageAdapter{
		donors:     sqlite.NewDonorRepository(pool),
		celebrants: sqlite.NewCelebrantRepository(pool),
		calendar:   sqlite.NewCalendarRepository(pool),
		intentions: sqlite.NewIntentionRepository(pool),
		masses:     sqlite.NewMassRepository(pool),
	}
}

func (a *storageAdapter) CommitSubmission(ctx context.Context, submission application.Submission) error {
	stored := persistence.Submission{
		Donor:       toPersistenceDonor(submission.Donor),
		DonorExists: submission.DonorExists,
		Intention:   toPersistenceIntention(submission.Intention),
	}
	if submission.Recurrence != nil {
		rec := toPersistenceRecurrence(*submission.Recurrence)
		stored.Recurrence = &rec
	}
	for _, mass := range submission.Masses {
		stored.Masses = append(stored.Masses, toPersistenceMass(mass))
	}
	return mapStoreError(a.intentions.CommitSubmission(ctx, stored))
}

func (a *storageAdapter) GetIntention(ctx context.Context, id string) (application.Intention, error) {
	stored, err := a.intentions.GetIntention(ctx, id)
	if err != nil {
		return application.Intention{}, mapStoreError(err)
	}
	return toApplicationIntention(stored), nil
}

func (a *storageAdapter) GetRecurrence(ctx context.Context, id string) (application.Recurrence, error) {
	stored, err := a.intentions.GetRecurrence(ctx, id)
	if err != nil {
		return application.Recurrence{}, mapStoreError(err)
	}
	return toApplicationRecurrence(stored), nil
}

func (a *storageAdapter) CancelIntention(ctx context.Context, id string, from time.Time) error {
	return mapStoreError(a.intentions.CancelIntention(ctx, id, from))
}

func (a *storageAdapter) ListOpenEndedIntentions(ctx context.Context, recurrenceType recurrence.Type) ([]application.IntentionWithRecurrence, error) {
	stored, err := a.intentions.ListOpenEndedIntentions(ctx, string(recurrenceType))
	if err != nil {
		return nil, mapStoreError(err)
	}
	results := make([]application.IntentionWithRecurrence, 0, len(stored))
	for _, pair := range stored {
		results = append(results, application.IntentionWithRecurrence{
			Intention:  toApplicationIntention(pair.Intention),
			Recurrence: toApplicationRecurrence(pair.Recurrence),
		})
	}
	return results, nil
}

func (a *storageAdapter) ListIncompleteIntentions(ctx context.Context) ([]application.Intention, error) {
	stored, err := a.intentions.ListIncompleteIntentions(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	intentions := make([]application.Intention, 0, len(stored))
	for _, intention := range stored {
		intentions = append(intentions, toApplicationIntention(intention))
	}
	return intentions, nil
}

func (a *storageAdapter) UpdateIntentionStatus(ctx context.Context, id string, status application.IntentionStatus) error {
	return mapStoreError(a.intentions.UpdateIntentionStatus(ctx, id, string(status)))
}

func (a *storageAdapter) FindDonorByIdentity(ctx context.Context, firstName, lastName, email, phone string) (application.Donor, error) {
	stored, err := a.donors.FindDonorByIdentity(ctx, firstName, lastName, email, phone)
	if err != nil {
		return application.Donor{}, mapStoreError(err)
	}
	return toApplicationDonor(stored), nil
}

func (a *storageAdapter) GetDonor(ctx context.Context, id string) (application.Donor, error) {
	stored, err := a.donors.GetDonor(ctx, id)
	if err != nil {
		return application.Donor{}, mapStoreError(err)
	}
	return toApplicationDonor(stored), nil
}

func (a *storageAdapter) CreateCelebrant(ctx context.Context, celebrant application.Celebrant) error {
	return mapStoreError(a.celebrants.CreateCelebrant(ctx, toPersistenceCelebrant(celebrant)))
}

func (a *storageAdapter) UpdateCelebrant(ctx context.Context, celebrant application.Celebrant) error {
	return mapStoreError(a.celebrants.UpdateCelebrant(ctx, toPersistenceCelebrant(celebrant)))
}

func (a *storageAdapter) GetCelebrant(ctx context.Context, id string) (application.Celebrant, error) {
	stored, err := a.celebrants.GetCelebrant(ctx, id)
	if err != nil {
		return application.Celebrant{}, mapStoreError(err)
	}
	return toApplicationCelebrant(stored), nil
}

func (a *storageAdapter) ListCelebrants(ctx context.Context) ([]application.Celebrant, error) {
	stored, err := a.celebrants.ListCelebrants(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	celebrants := make([]application.Celebrant, 0, len(stored))
	for _, celebrant := range stored {
		celebrants = append(celebrants, toApplicationCelebrant(celebrant))
	}
	return celebrants, nil
}

func (a *storageAdapter) CreateUnavailableDay(ctx context.Context, entry application.UnavailableDay) error {
	return mapStoreError(a.calendar.CreateUnavailableDay(ctx, persistence.UnavailableDay{
		ID:          entry.ID,
		CelebrantID: entry.CelebrantID,
		Date:        entry.Date,
		Recurring:   entry.Recurring,
		CreatedAt:   entry.CreatedAt,
	}))
}

func (a *storageAdapter) DeleteUnavailableDay(ctx context.Context, id string) error {
	return mapStoreError(a.calendar.DeleteUnavailableDay(ctx, id))
}

func (a *storageAdapter) ListUnavailableDays(ctx context.Context) ([]application.UnavailableDay, error) {
	stored, err := a.calendar.ListUnavailableDays(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	entries := make([]application.UnavailableDay, 0, len(stored))
	for _, entry := range stored {
		entries = append(entries, application.UnavailableDay{
			ID:          entry.ID,
			CelebrantID: entry.CelebrantID,
			Date:        entry.Date,
			Recurring:   entry.Recurring,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return entries, nil
}

func (a *storageAdapter) CreateSpecialDay(ctx context.Context, entry application.SpecialDay) error {
	return mapStoreError(a.calendar.CreateSpecialDay(ctx, persistence.SpecialDay{
		ID:             entry.ID,
		Date:           entry.Date,
		NumberOfMasses: entry.NumberOfMasses,
		Recurring:      entry.Recurring,
		CreatedAt:      entry.CreatedAt,
	}))
}

func (a *storageAdapter) ListSpecialDays(ctx context.Context) ([]application.SpecialDay, error) {
	stored, err := a.calendar.ListSpecialDays(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	entries := make([]application.SpecialDay, 0, len(stored))
	for _, entry := range stored {
		entries = append(entries, application.SpecialDay{
			ID:             entry.ID,
			Date:           entry.Date,
			NumberOfMasses: entry.NumberOfMasses,
			Recurring:      entry.Recurring,
			CreatedAt:      entry.CreatedAt,
		})
	}
	return entries, nil
}

func (a *storageAdapter) CreateMass(ctx context.Context, mass application.Mass) error {
	return mapStoreError(a.masses.CreateMass(ctx, toPersistenceMass(mass)))
}

func (a *storageAdapter) GetMass(ctx context.Context, id string) (application.Mass, error) {
	stored, err := a.masses.GetMass(ctx, id)
	if err != nil {
		return application.Mass{}, mapStoreError(err)
	}
	return toApplicationMass(stored), nil
}

func (a *storageAdapter) UpdateMass(ctx context.Context, mass application.Mass) error {
	return mapStoreError(a.masses.UpdateMass(ctx, toPersistenceMass(mass)))
}

func (a *storageAdapter) ListMasses(ctx context.Context, start, end time.Time) ([]application.Mass, error) {
	stored, err := a.masses.ListMasses(ctx, persistence.MassFilter{StartDate: &start, EndDate: &end})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return toApplicationMasses(stored), nil
}

func (a *storageAdapter) ListMassesForIntention(ctx context.Context, intentionID string) ([]application.Mass, error) {
	stored, err := a.masses.ListMassesForIntention(ctx, intentionID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return toApplicationMasses(stored), nil
}

func (a *storageAdapter) LatestMassForIntention(ctx context.Context, intentionID string) (application.Mass, error) {
	stored, err := a.masses.LatestMassForIntention(ctx, intentionID)
	if err != nil {
		return application.Mass{}, mapStoreError(err)
	}
	return toApplicationMass(stored), nil
}

func (a *storageAdapter) MassExistsOn(ctx context.Context, intentionID string, date time.Time) (bool, error) {
	exists, err := a.masses.MassExistsOn(ctx, intentionID, date)
	return exists, mapStoreError(err)
}

func (a *storageAdapter) ListScheduledMassesThrough(ctx context.Context, date time.Time) ([]application.Mass, error) {
	stored, err := a.masses.ListMasses(ctx, persistence.MassFilter{
		EndDate: &date,
		Status:  string(application.MassScheduled),
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return toApplicationMasses(stored), nil
}

func (a *storageAdapter) UpdateMassStatus(ctx context.Context, id string, status application.MassStatus) error {
	return mapStoreError(a.masses.UpdateMassStatus(ctx, id, string(status)))
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrAlreadyExists
	default:
		return err
	}
}

func toPersistenceDonor(donor application.Donor) persistence.Donor {
	return persistence.Donor{
		ID:         donor.ID,
		FirstName:  donor.FirstName,
		LastName:   donor.LastName,
		Email:      donor.Email,
		Phone:      donor.Phone,
		Address:    donor.Address,
		City:       donor.City,
		PostalCode: donor.PostalCode,
		CreatedAt:  donor.CreatedAt,
		UpdatedAt:  donor.UpdatedAt,
	}
}

func toApplicationDonor(donor persistence.Donor) application.Donor {
	return application.Donor{
		ID:         donor.ID,
		FirstName:  donor.FirstName,
		LastName:   donor.LastName,
		Email:      donor.Email,
		Phone:      donor.Phone,
		Address:    donor.Address,
		City:       donor.City,
		PostalCode: donor.PostalCode,
		CreatedAt:  donor.CreatedAt,
		UpdatedAt:  donor.UpdatedAt,
	}
}

func toPersistenceCelebrant(celebrant application.Celebrant) persistence.Celebrant {
	return persistence.Celebrant{
		ID:        celebrant.ID,
		FirstName: celebrant.FirstName,
		LastName:  celebrant.LastName,
		Title:     celebrant.Title,
		Available: celebrant.Available,
		CreatedAt: celebrant.CreatedAt,
		UpdatedAt: celebrant.UpdatedAt,
	}
}

func toApplicationCelebrant(celebrant persistence.Celebrant) application.Celebrant {
	return application.Celebrant{
		ID:        celebrant.ID,
		FirstName: celebrant.FirstName,
		LastName:  celebrant.LastName,
		Title:     celebrant.Title,
		Available: celebrant.Available,
		CreatedAt: celebrant.CreatedAt,
		UpdatedAt: celebrant.UpdatedAt,
	}
}

func toPersistenceRecurrence(rec application.Recurrence) persistence.Recurrence {
	return persistence.Recurrence{
		ID:        rec.ID,
		Type:      string(rec.Type),
		StartDate: rec.StartDate,
		EndPolicy: string(rec.EndPolicy),
		Count:     rec.Count,
		EndDate:   rec.EndDate,
		Ordinal:   int(rec.Ordinal),
		Weekday:   int(rec.Weekday),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func toApplicationRecurrence(rec persistence.Recurrence) application.Recurrence {
	return application.Recurrence{
		ID:        rec.ID,
		Type:      recurrence.Type(rec.Type),
		StartDate: rec.StartDate,
		EndPolicy: recurrence.EndPolicy(rec.EndPolicy),
		Count:     rec.Count,
		EndDate:   rec.EndDate,
		Ordinal:   recurrence.Ordinal(rec.Ordinal),
		Weekday:   time.Weekday(rec.Weekday),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func toPersistenceIntention(intention application.Intention) persistence.Intention {
	return persistence.Intention{
		ID:                 intention.ID,
		Description:        intention.Description,
		DonorID:            intention.DonorID,
		AmountCents:        intention.AmountCents,
		PaymentMethod:      string(intention.PaymentMethod),
		ForDeceased:        intention.ForDeceased,
		RequestedCelebrant: intention.RequestedCelebrant,
		DateType:           string(intention.DateType),
		Kind:               string(intention.Kind),
		MassCount:          intention.MassCount,
		RecurrenceID:       intention.RecurrenceID,
		Status:             string(intention.Status),
		CreatedAt:          intention.CreatedAt,
		UpdatedAt:          intention.UpdatedAt,
	}
}

func toApplicationIntention(intention persistence.Intention) application.Intention {
	return application.Intention{
		ID:                 intention.ID,
		Description:        intention.Description,
		DonorID:            intention.DonorID,
		AmountCents:        intention.AmountCents,
		PaymentMethod:      application.PaymentMethod(intention.PaymentMethod),
		ForDeceased:        intention.ForDeceased,
		RequestedCelebrant: intention.RequestedCelebrant,
		DateType:           application.DateType(intention.DateType),
		Kind:               application.IntentionKind(intention.Kind),
		MassCount:          intention.MassCount,
		RecurrenceID:       intention.RecurrenceID,
		Status:             application.IntentionStatus(intention.Status),
		CreatedAt:          intention.CreatedAt,
		UpdatedAt:          intention.UpdatedAt,
	}
}

func toPersistenceMass(mass application.Mass) persistence.Mass {
	return persistence.Mass{
		ID:              mass.ID,
		Date:            mass.Date,
		CelebrantID:     mass.CelebrantID,
		IntentionID:     mass.IntentionID,
		Status:          string(mass.Status),
		RandomCelebrant: mass.RandomCelebrant,
		CreatedAt:       mass.CreatedAt,
		UpdatedAt:       mass.UpdatedAt,
	}
}

func toApplicationMass(mass persistence.Mass) application.Mass {
	return application.Mass{
		ID:              mass.ID,
		Date:            mass.Date,
		CelebrantID:     mass.CelebrantID,
		IntentionID:     mass.IntentionID,
		Status:          application.MassStatus(mass.Status),
		RandomCelebrant: mass.RandomCelebrant,
		CreatedAt:       mass.CreatedAt,
		UpdatedAt:       mass.UpdatedAt,
	}
}

func toApplicationMasses(stored []persistence.Mass) []application.Mass {
	masses := make([]application.Mass, 0, len(stored))
	for _, mass := range stored {
		masses = append(masses, toApplicationMass(mass))
	}
	return masses
}
