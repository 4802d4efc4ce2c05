package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one ordered schema step. Statements run inside a single
// transaction together with the user_version bump.
type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE donors (
				id TEXT PRIMARY KEY,
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL,
				email TEXT,
				phone TEXT,
				address TEXT,
				city TEXT,
				postal_code TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE celebrants (
				id TEXT PRIMARY KEY,
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL,
				title TEXT,
				available INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE recurrences (
				id TEXT PRIMARY KEY,
				type TEXT NOT NULL,
				start_date TEXT NOT NULL,
				end_policy TEXT NOT NULL,
				count INTEGER NOT NULL DEFAULT 0,
				end_date TEXT,
				ordinal INTEGER NOT NULL DEFAULT 0,
				weekday INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE intentions (
				id TEXT PRIMARY KEY,
				description TEXT NOT NULL,
				donor_id TEXT NOT NULL REFERENCES donors(id),
				amount_cents INTEGER NOT NULL DEFAULT 0,
				payment_method TEXT NOT NULL,
				for_deceased INTEGER NOT NULL DEFAULT 0,
				requested_celebrant TEXT,
				date_type TEXT NOT NULL,
				kind TEXT NOT NULL,
				mass_count INTEGER NOT NULL DEFAULT 0,
				recurrence_id TEXT REFERENCES recurrences(id),
				status TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE masses (
				id TEXT PRIMARY KEY,
				date TEXT NOT NULL,
				celebrant_id TEXT REFERENCES celebrants(id),
				intention_id TEXT NOT NULL REFERENCES intentions(id),
				status TEXT NOT NULL,
				random_celebrant INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_masses_date ON masses(date)`,
			`CREATE INDEX idx_masses_intention_date ON masses(intention_id, date)`,
			`CREATE TABLE unavailable_days (
				id TEXT PRIMARY KEY,
				celebrant_id TEXT NOT NULL REFERENCES celebrants(id),
				date TEXT NOT NULL,
				recurring INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_unavailable_days_celebrant ON unavailable_days(celebrant_id)`,
			`CREATE TABLE special_days (
				id TEXT PRIMARY KEY,
				date TEXT NOT NULL,
				number_of_masses INTEGER NOT NULL,
				recurring INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE INDEX idx_intentions_status ON intentions(status)`,
			`CREATE INDEX idx_intentions_recurrence ON intentions(recurrence_id)`,
		},
	},
}

// Migrate applies every pending schema migration in order. Already applied
// versions, tracked through PRAGMA user_version, are skipped, so calling it
// on every startup is safe.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	var current int
	if err := cp.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, step := range migrations {
		if step.version <= current {
			continue
		}

		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, statement := range step.statements {
				if _, err := tx.Exec(statement); err != nil {
					return fmt.Errorf("migration %d failed: %w", step.version, err)
				}
			}
			// PRAGMA does not support placeholders.
			if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", step.version)); err != nil {
				return fmt.Errorf("failed to record schema version %d: %w", step.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		current = step.version
	}

	return nil
}
