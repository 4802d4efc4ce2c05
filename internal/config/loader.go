package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures file and environment driven configuration values for the
// intention scheduling service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	AdminPasswordHash string
	LogLevel          string
	Jobs              JobSchedules
}

// JobSchedules holds the cron expressions driving the background jobs.
type JobSchedules struct {
	ExtendYearly    string
	ExtendMonthly   string
	UpdateLifecycle string
}

type fileConfig struct {
	HTTPPort          int    `yaml:"http_port"`
	SQLiteDSN         string `yaml:"sqlite_dsn"`
	AdminPasswordHash string `yaml:"admin_password_hash"`
	LogLevel          string `yaml:"log_level"`
	Jobs              struct {
		ExtendYearly    string `yaml:"extend_yearly"`
		ExtendMonthly   string `yaml:"extend_monthly"`
		UpdateLifecycle string `yaml:"update_lifecycle"`
	} `yaml:"jobs"`
}

// Load reads the optional YAML configuration file at path and applies
// INTENTIOND_* environment overrides on top.
//
// The loader applies sensible defaults for optional fields while validating
// required values. An empty path skips the file layer entirely.
func Load(path string) (Config, error) {
	cfg := Config{
		HTTPPort:  8080,
		SQLiteDSN: "file:intentiond.db",
		LogLevel:  "info",
		Jobs: JobSchedules{
			ExtendYearly:    "0 2 1 1 *",
			ExtendMonthly:   "30 2 1 * *",
			UpdateLifecycle: "0 1 * * *",
		},
	}

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("INTENTIOND_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "INTENTIOND_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("INTENTIOND_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if hash := strings.TrimSpace(os.Getenv("INTENTIOND_ADMIN_PASSWORD_HASH")); hash != "" {
		cfg.AdminPasswordHash = hash
	}

	if level := strings.TrimSpace(os.Getenv("INTENTIOND_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if expr := strings.TrimSpace(os.Getenv("INTENTIOND_EXTEND_YEARLY_CRON")); expr != "" {
		cfg.Jobs.ExtendYearly = expr
	}
	if expr := strings.TrimSpace(os.Getenv("INTENTIOND_EXTEND_MONTHLY_CRON")); expr != "" {
		cfg.Jobs.ExtendMonthly = expr
	}
	if expr := strings.TrimSpace(os.Getenv("INTENTIOND_UPDATE_LIFECYCLE_CRON")); expr != "" {
		cfg.Jobs.UpdateLifecycle = expr
	}

	if cfg.AdminPasswordHash == "" {
		missing = append(missing, "INTENTIOND_ADMIN_PASSWORD_HASH")
	}
	if cfg.HTTPPort <= 0 {
		invalid = append(invalid, "http_port")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "log_level")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required configuration values are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("configuration values are invalid: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse configuration file: %w", err)
	}

	if file.HTTPPort != 0 {
		cfg.HTTPPort = file.HTTPPort
	}
	if file.SQLiteDSN != "" {
		cfg.SQLiteDSN = file.SQLiteDSN
	}
	if file.AdminPasswordHash != "" {
		cfg.AdminPasswordHash = file.AdminPasswordHash
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.Jobs.ExtendYearly != "" {
		cfg.Jobs.ExtendYearly = file.Jobs.ExtendYearly
	}
	if file.Jobs.ExtendMonthly != "" {
		cfg.Jobs.ExtendMonthly = file.Jobs.ExtendMonthly
	}
	if file.Jobs.UpdateLifecycle != "" {
		cfg.Jobs.UpdateLifecycle = file.Jobs.UpdateLifecycle
	}
	return nil
}
