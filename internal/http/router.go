package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Intentions *IntentionHandler
	Masses     *MassHandler
	Celebrants *CelebrantHandler
	Jobs       *JobHandler
	// AdminMiddleware guards the job triggers and administration writes.
	AdminMiddleware func(http.Handler) http.Handler
	Middleware      []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	adminOnly := func(h http.HandlerFunc) http.Handler {
		if cfg.AdminMiddleware != nil {
			return cfg.AdminMiddleware(h)
		}
		return h
	}

	if cfg.Intentions != nil {
		mux.HandleFunc("/intentions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Intentions.Create(w, r)
		})
		mux.HandleFunc("/intentions/preview", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Intentions.Preview(w, r)
		})
		mux.HandleFunc("/intentions/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/intentions/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithIntentionID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Intentions.Get(w, r)
			case http.MethodDelete:
				cfg.Intentions.Cancel(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
	}

	if cfg.Masses != nil {
		mux.HandleFunc("/masses", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Masses.List(w, r)
		})
		mux.HandleFunc("/masses/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/masses/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithMassID(r.Context(), id)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Masses.Get(w, r)
			case http.MethodPut:
				cfg.Masses.Update(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		})
	}

	if cfg.Celebrants != nil {
		createCelebrant := adminOnly(cfg.Celebrants.Create)
		updateCelebrant := adminOnly(cfg.Celebrants.Update)
		addUnavailableDay := adminOnly(cfg.Celebrants.AddUnavailableDay)
		addSpecialDay := adminOnly(cfg.Celebrants.AddSpecialDay)

		mux.HandleFunc("/celebrants", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Celebrants.List(w, r)
			case http.MethodPost:
				createCelebrant.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/celebrants/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/celebrants/")
			parts := strings.Split(strings.Trim(rest, "/"), "/")
			if len(parts) == 0 || parts[0] == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithCelebrantID(r.Context(), parts[0])
			r = r.WithContext(ctx)

			switch {
			case len(parts) == 1:
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				updateCelebrant.ServeHTTP(w, r)
			case len(parts) == 2 && parts[1] == "unavailable-days":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				addUnavailableDay.ServeHTTP(w, r)
			default:
				http.NotFound(w, r)
			}
		})
		mux.HandleFunc("/unavailable-days/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/unavailable-days/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			adminOnly(func(w http.ResponseWriter, r *http.Request) {
				cfg.Celebrants.RemoveUnavailableDay(w, r, id)
			}).ServeHTTP(w, r)
		})
		mux.HandleFunc("/special-days", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Celebrants.ListSpecialDays(w, r)
			case http.MethodPost:
				addSpecialDay.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
	}

	if cfg.Jobs != nil {
		jobRoute := func(pattern string, handler http.HandlerFunc) {
			mux.Handle(pattern, adminOnly(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				handler(w, r)
			}))
		}
		jobRoute("/admin/jobs/extend-yearly", cfg.Jobs.ExtendYearly)
		jobRoute("/admin/jobs/extend-monthly", cfg.Jobs.ExtendMonthly)
		jobRoute("/admin/jobs/update-lifecycle", cfg.Jobs.UpdateLifecycle)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
