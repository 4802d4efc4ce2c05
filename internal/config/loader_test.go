package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"INTENTIOND_HTTP_PORT",
			"INTENTIOND_SQLITE_DSN",
			"INTENTIOND_LOG_LEVEL",
			"INTENTIOND_EXTEND_YEARLY_CRON",
			"INTENTIOND_EXTEND_MONTHLY_CRON",
			"INTENTIOND_UPDATE_LIFECYCLE_CRON",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		const hash = "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"
		t.Setenv("INTENTIOND_ADMIN_PASSWORD_HASH", hash)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:intentiond.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.AdminPasswordHash != hash {
			t.Fatalf("expected admin password hash %q, got %q", hash, cfg.AdminPasswordHash)
		}
		if cfg.LogLevel != "info" {
			t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
		}
		if cfg.Jobs.ExtendYearly != "0 2 1 1 *" {
			t.Fatalf("expected the yearly extension to default to a once-a-year schedule, got %q", cfg.Jobs.ExtendYearly)
		}
		if cfg.Jobs.UpdateLifecycle != "0 1 * * *" {
			t.Fatalf("unexpected default lifecycle schedule: %q", cfg.Jobs.UpdateLifecycle)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		for _, key := range []string{
			"INTENTIOND_ADMIN_PASSWORD_HASH",
			"INTENTIOND_HTTP_PORT",
			"INTENTIOND_SQLITE_DSN",
		} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		_, err := Load("")
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required configuration values are not set: INTENTIOND_ADMIN_PASSWORD_HASH"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("rejects invalid numeric and enum values", func(t *testing.T) {
		t.Setenv("INTENTIOND_ADMIN_PASSWORD_HASH", "hash")
		t.Setenv("INTENTIOND_HTTP_PORT", "not-a-port")
		t.Setenv("INTENTIOND_LOG_LEVEL", "loud")

		_, err := Load("")
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "configuration values are invalid: INTENTIOND_HTTP_PORT, log_level"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})
}

func TestLoader_ParseFile(t *testing.T) {

	t.Run("file values override defaults", func(t *testing.T) {
		os.Unsetenv("INTENTIOND_HTTP_PORT")
		os.Unsetenv("INTENTIOND_SQLITE_DSN")
		os.Unsetenv("INTENTIOND_ADMIN_PASSWORD_HASH")
		os.Unsetenv("INTENTIOND_LOG_LEVEL")

		path := filepath.Join(t.TempDir(), "intentiond.yaml")
		content := []byte(`
http_port: 9090
sqlite_dsn: file:/tmp/intentiond.db
admin_password_hash: file-hash
log_level: debug
jobs:
  extend_monthly: "0 4 1 * *"
`)
		if err := os.WriteFile(path, content, 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/intentiond.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.AdminPasswordHash != "file-hash" {
			t.Fatalf("unexpected admin password hash: %q", cfg.AdminPasswordHash)
		}
		if cfg.LogLevel != "debug" {
			t.Fatalf("unexpected log level: %q", cfg.LogLevel)
		}
		if cfg.Jobs.ExtendMonthly != "0 4 1 * *" {
			t.Fatalf("unexpected monthly schedule: %q", cfg.Jobs.ExtendMonthly)
		}
		if cfg.Jobs.ExtendYearly != "0 2 1 1 *" {
			t.Fatalf("expected yearly schedule default, got %q", cfg.Jobs.ExtendYearly)
		}
	})

	t.Run("environment overrides file values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "intentiond.yaml")
		content := []byte("http_port: 9090\nadmin_password_hash: file-hash\n")
		if err := os.WriteFile(path, content, 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		t.Setenv("INTENTIOND_HTTP_PORT", "7070")
		t.Setenv("INTENTIOND_ADMIN_PASSWORD_HASH", "env-hash")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 7070 {
			t.Fatalf("expected HTTP port 7070, got %d", cfg.HTTPPort)
		}
		if cfg.AdminPasswordHash != "env-hash" {
			t.Fatalf("unexpected admin password hash: %q", cfg.AdminPasswordHash)
		}
	})

	t.Run("errors on an unreadable file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if err == nil {
			t.Fatalf("expected error for missing file")
		}
	})
}
