package sqlite

import (
	"context"
	"fmt"

	"github.com/example/intention-scheduler/internal/persistence"
)

// CalendarRepository implements persistence.CalendarRepository using SQLite.
type CalendarRepository struct {
	pool *ConnectionPool
}

// NewCalendarRepository creates a new SQLite calendar repository.
func NewCalendarRepository(pool *ConnectionPool) *CalendarRepository {
	return &CalendarRepository{pool: pool}
}

// CreateUnavailableDay inserts a celebrant unavailability entry.
func (r *CalendarRepository) CreateUnavailableDay(ctx context.Context, entry persistence.UnavailableDay) error {
	if entry.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO unavailable_days (id, celebrant_id, date, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		entry.ID,
		entry.CelebrantID,
		formatDay(entry.Date),
		boolToInt(entry.Recurring),
		formatTime(entry.CreatedAt),
	)
	return mapError(err)
}

// DeleteUnavailableDay removes an unavailability entry by ID.
func (r *CalendarRepository) DeleteUnavailableDay(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM unavailable_days WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListUnavailableDays lists every unavailability entry.
func (r *CalendarRepository) ListUnavailableDays(ctx context.Context) ([]persistence.UnavailableDay, error) {
	query := `
		SELECT id, celebrant_id, date, recurring, created_at
		FROM unavailable_days
		ORDER BY date ASC, id ASC
	`
	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.UnavailableDay
	for rows.Next() {
		var entry persistence.UnavailableDay
		var day, createdAt string
		var recurring int
		if err := rows.Scan(&entry.ID, &entry.CelebrantID, &day, &recurring, &createdAt); err != nil {
			return nil, mapError(err)
		}
		entry.Recurring = recurring != 0
		if entry.Date, err = parseDay(day); err != nil {
			return nil, err
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

// CreateSpecialDay inserts a quota override entry.
func (r *CalendarRepository) CreateSpecialDay(ctx context.Context, entry persistence.SpecialDay) error {
	if entry.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO special_days (id, date, number_of_masses, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		entry.ID,
		formatDay(entry.Date),
		entry.NumberOfMasses,
		boolToInt(entry.Recurring),
		formatTime(entry.CreatedAt),
	)
	return mapError(err)
}

// ListSpecialDays lists every quota override entry.
func (r *CalendarRepository) ListSpecialDays(ctx context.Context) ([]persistence.SpecialDay, error) {
	query := `
		SELECT id, date, number_of_masses, recurring, created_at
		FROM special_days
		ORDER BY date ASC, id ASC
	`
	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.SpecialDay
	for rows.Next() {
		var entry persistence.SpecialDay
		var day, createdAt string
		var recurring int
		if err := rows.Scan(&entry.ID, &day, &entry.NumberOfMasses, &recurring, &createdAt); err != nil {
			return nil, mapError(err)
		}
		entry.Recurring = recurring != 0
		if entry.Date, err = parseDay(day); err != nil {
			return nil, err
		}
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}
