package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/intention-scheduler/internal/application"
)

// RequireAdmin guards administrative endpoints with the configured argon2id
// password hash. The password travels as a bearer token.
func RequireAdmin(passwordHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			password := extractPasswordFromRequest(r)
			if password == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAdminPassword)
				return
			}

			if err := application.VerifyPassword(passwordHash, password); err != nil {
				switch {
				case errors.Is(err, application.ErrInvalidCredentials):
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "invalid administrator credentials"})
				default:
					responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger attaches a request scoped logger to the context and logs the
// request lifecycle.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

func extractPasswordFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	return ""
}
