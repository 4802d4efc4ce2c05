package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/intention-scheduler/internal/application"
	"github.com/example/intention-scheduler/internal/testfixtures"
)

const adminPassword = "correct-horse"

type testEnv struct {
	router http.Handler
	store  *testfixtures.MemoryStore
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	store := testfixtures.NewMemoryStore()
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("id")
	chooser := testfixtures.NewSequenceChooser().Func()

	for _, c := range []application.Celebrant{
		testfixtures.NewCelebrantFixture(
			testfixtures.WithCelebrantID("celebrant-a"),
			testfixtures.WithCelebrantName("Adam", "Abbot"),
		).Application(),
		testfixtures.NewCelebrantFixture(
			testfixtures.WithCelebrantID("celebrant-b"),
			testfixtures.WithCelebrantName("John", "Smith"),
		).Application(),
	} {
		store.Celebrants[c.ID] = c
	}

	intentions := application.NewIntentionService(
		store, store, store, store, store,
		nil, chooser, ids.NextFunc(), clock.NowFunc(), nil,
	)
	masses := application.NewMassService(store, clock.NowFunc(), nil)
	celebrants := application.NewCelebrantService(store, ids.NextFunc(), clock.NowFunc(), nil)
	extender := application.NewExtenderService(
		store, store, store, store,
		nil, chooser, ids.NextFunc(), clock.NowFunc(), nil,
	)
	lifecycle := application.NewLifecycleService(store, clock.NowFunc(), nil)

	hash, err := application.CreatePasswordHash(adminPassword, application.DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash: %v", err)
	}

	router := NewRouter(RouterConfig{
		Intentions:      NewIntentionHandler(intentions, nil),
		Masses:          NewMassHandler(masses, nil),
		Celebrants:      NewCelebrantHandler(celebrants, nil),
		Jobs:            NewJobHandler(extender, lifecycle, nil),
		AdminMiddleware: RequireAdmin(hash, nil),
	})

	return testEnv{router: router, store: store}
}

func (e testEnv) do(t *testing.T, method, target string, body any, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func asAdmin(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+adminPassword)
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func submissionBody() map[string]any {
	return map[string]any{
		"description": "For the repose of the soul of A. Kowalski",
		"donor": map[string]any{
			"first_name": "Maria",
			"last_name":  "Kowalska",
			"email":      "maria@example.com",
		},
		"amount_cents":   2000,
		"payment_method": "cash",
		"for_deceased":   true,
		"date_type":      "fixed",
		"kind":           "unit",
		"mass_count":     2,
		"start_date":     "2025-04-01",
	}
}

func TestIntentionEndpoints(t *testing.T) {
	t.Run("preview plans without persisting", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/intentions/preview", submissionBody())
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		plan := decodeResponse[planResponse](t, rec)
		if len(plan.Masses) != 2 {
			t.Fatalf("planned masses = %d, want 2", len(plan.Masses))
		}
		if plan.Masses[0].Date != "2025-04-01" || plan.Masses[1].Date != "2025-04-02" {
			t.Errorf("planned dates = %s, %s", plan.Masses[0].Date, plan.Masses[1].Date)
		}
		if env.store.Commits != 0 || len(env.store.Intentions) != 0 {
			t.Errorf("preview persisted state: commits=%d intentions=%d", env.store.Commits, len(env.store.Intentions))
		}
	})

	t.Run("create commits the submission", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/intentions", submissionBody())
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}

		result := decodeResponse[commitResponse](t, rec)
		if result.Intention.Status != "scheduled" {
			t.Errorf("intention status = %s, want scheduled", result.Intention.Status)
		}
		if len(result.Masses) != 2 {
			t.Errorf("masses = %d, want 2", len(result.Masses))
		}
		if result.Donor.LastName != "Kowalska" {
			t.Errorf("donor last name = %s", result.Donor.LastName)
		}
		if env.store.Commits != 1 {
			t.Errorf("commits = %d, want 1", env.store.Commits)
		}
	})

	t.Run("get returns the intention and its masses", func(t *testing.T) {
		env := newTestEnv(t)

		created := decodeResponse[commitResponse](t, env.do(t, http.MethodPost, "/intentions", submissionBody()))

		rec := env.do(t, http.MethodGet, "/intentions/"+created.Intention.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		got := decodeResponse[intentionResponse](t, rec)
		if got.Intention.ID != created.Intention.ID {
			t.Errorf("intention id = %s, want %s", got.Intention.ID, created.Intention.ID)
		}
		if len(got.Masses) != 2 {
			t.Errorf("masses = %d, want 2", len(got.Masses))
		}
	})

	t.Run("delete cancels the intention", func(t *testing.T) {
		env := newTestEnv(t)

		created := decodeResponse[commitResponse](t, env.do(t, http.MethodPost, "/intentions", submissionBody()))

		rec := env.do(t, http.MethodDelete, "/intentions/"+created.Intention.ID, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}
		if got := env.store.Intentions[created.Intention.ID].Status; got != application.IntentionCancelled {
			t.Errorf("intention status = %s, want cancelled", got)
		}
	})

	t.Run("malformed body yields 400", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest(http.MethodPost, "/intentions", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("invalid input yields 422 with field errors", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/intentions", map[string]any{})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
		}
		resp := decodeResponse[errorResponse](t, rec)
		if len(resp.Errors) == 0 {
			t.Fatal("expected field errors")
		}
		if _, ok := resp.Errors["description"]; !ok {
			t.Errorf("missing description field error: %v", resp.Errors)
		}
	})

	t.Run("unknown intention yields 404", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodGet, "/intentions/missing", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("unsupported method yields 405", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodGet, "/intentions", nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
		if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
			t.Errorf("Allow = %q, want %q", allow, http.MethodPost)
		}
	})
}

func TestMassEndpoints(t *testing.T) {
	t.Run("list filters by date range", func(t *testing.T) {
		env := newTestEnv(t)
		decodeResponse[commitResponse](t, env.do(t, http.MethodPost, "/intentions", submissionBody()))

		rec := env.do(t, http.MethodGet, "/masses?start=2025-04-01&end=2025-04-01", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		got := decodeResponse[listMassesResponse](t, rec)
		if len(got.Masses) != 1 {
			t.Fatalf("masses = %d, want 1", len(got.Masses))
		}
		if got.Masses[0].Date != "2025-04-01" {
			t.Errorf("date = %s, want 2025-04-01", got.Masses[0].Date)
		}
	})

	t.Run("unparseable date bound yields 400", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodGet, "/masses?start=April+1st&end=2025-04-30", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("update reassigns the celebrant", func(t *testing.T) {
		env := newTestEnv(t)
		created := decodeResponse[commitResponse](t, env.do(t, http.MethodPost, "/intentions", submissionBody()))
		massID := created.Masses[0].ID

		rec := env.do(t, http.MethodPut, "/masses/"+massID, map[string]any{
			"celebrant_id": "celebrant-b",
			"status":       "scheduled",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		got := decodeResponse[massDTO](t, rec)
		if got.CelebrantID == nil || *got.CelebrantID != "celebrant-b" {
			t.Errorf("celebrant = %v, want celebrant-b", got.CelebrantID)
		}
		if got.RandomCelebrant {
			t.Error("manual assignment must clear the random flag")
		}
	})

	t.Run("unknown mass yields 404", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodGet, "/masses/missing", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestCelebrantEndpoints(t *testing.T) {
	t.Run("writes require administrator credentials", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/celebrants", map[string]any{"last_name": "Nowak"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		if len(env.store.Celebrants) != 2 {
			t.Errorf("celebrants = %d, want the seeded 2", len(env.store.Celebrants))
		}
	})

	t.Run("create returns the display name", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/celebrants", map[string]any{
			"first_name": "Peter",
			"last_name":  "Nowak",
			"title":      "Fr.",
			"available":  true,
		}, asAdmin)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		got := decodeResponse[celebrantDTO](t, rec)
		if got.DisplayName != "Fr. Peter Nowak" {
			t.Errorf("display name = %q", got.DisplayName)
		}
	})

	t.Run("update toggles availability", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPut, "/celebrants/celebrant-a", map[string]any{
			"first_name": "Adam",
			"last_name":  "Abbot",
			"available":  false,
		}, asAdmin)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		if got := decodeResponse[celebrantDTO](t, rec); got.Available {
			t.Error("celebrant still available")
		}
	})

	t.Run("missing last name yields 422", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/celebrants", map[string]any{"first_name": "Peter"}, asAdmin)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}
	})

	t.Run("unavailable day round trip", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/celebrants/celebrant-a/unavailable-days", map[string]any{
			"date":      "2025-12-25",
			"recurring": true,
		}, asAdmin)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		entry := decodeResponse[unavailableDayDTO](t, rec)
		if entry.CelebrantID != "celebrant-a" || entry.Date != "2025-12-25" {
			t.Errorf("entry = %+v", entry)
		}

		rec = env.do(t, http.MethodDelete, "/unavailable-days/"+entry.ID, nil, asAdmin)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
		}
	})

	t.Run("special days create and list", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/special-days", map[string]any{
			"date":             "2025-11-01",
			"number_of_masses": 5,
		}, asAdmin)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}

		rec = env.do(t, http.MethodGet, "/special-days", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
		}
		got := decodeResponse[listSpecialDaysResponse](t, rec)
		if len(got.SpecialDays) != 1 || got.SpecialDays[0].NumberOfMasses != 5 {
			t.Errorf("special days = %+v", got.SpecialDays)
		}
	})
}

func TestJobEndpoints(t *testing.T) {
	t.Run("reject missing credentials", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/admin/jobs/update-lifecycle", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("reject wrong password", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/admin/jobs/update-lifecycle", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer wrong")
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("update lifecycle reports counts", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/admin/jobs/update-lifecycle", nil, asAdmin)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		got := decodeResponse[lifecycleReportDTO](t, rec)
		if got.Failures != 0 {
			t.Errorf("failures = %d, want 0", got.Failures)
		}
	})

	t.Run("extend monthly reports the pass", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/admin/jobs/extend-monthly", nil, asAdmin)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		got := decodeResponse[extendReportDTO](t, rec)
		if got.Examined != 0 || got.Failures != 0 {
			t.Errorf("report = %+v", got)
		}
	})

	t.Run("unsupported method passes auth then yields 405", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodGet, "/admin/jobs/extend-yearly", nil, asAdmin)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}
