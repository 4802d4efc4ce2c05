package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/intention-scheduler/internal/persistence"
)

// MassRepository implements persistence.MassRepository using SQLite.
type MassRepository struct {
	pool *ConnectionPool
}

// NewMassRepository creates a new SQLite mass repository.
func NewMassRepository(pool *ConnectionPool) *MassRepository {
	return &MassRepository{pool: pool}
}

const massColumns = "id, date, celebrant_id, intention_id, status, random_celebrant, created_at, updated_at"

// CreateMass inserts a new mass.
func (r *MassRepository) CreateMass(ctx context.Context, mass persistence.Mass) error {
	if mass.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO masses (` + massColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		mass.ID,
		formatDay(mass.Date),
		nullStringPtr(mass.CelebrantID),
		mass.IntentionID,
		mass.Status,
		boolToInt(mass.RandomCelebrant),
		formatTime(mass.CreatedAt),
		formatTime(mass.UpdatedAt),
	)
	return mapError(err)
}

// GetMass retrieves a mass by ID.
func (r *MassRepository) GetMass(ctx context.Context, id string) (persistence.Mass, error) {
	if id == "" {
		return persistence.Mass{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, "SELECT "+massColumns+" FROM masses WHERE id = ?", id)
	return scanMass(row)
}

// UpdateMass updates an existing mass.
func (r *MassRepository) UpdateMass(ctx context.Context, mass persistence.Mass) error {
	query := `
		UPDATE masses
		SET date = ?, celebrant_id = ?, status = ?, random_celebrant = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		formatDay(mass.Date),
		nullStringPtr(mass.CelebrantID),
		mass.Status,
		boolToInt(mass.RandomCelebrant),
		formatTime(mass.UpdatedAt),
		mass.ID,
	)
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

// ListMasses lists masses narrowed by the filter, ordered by date.
func (r *MassRepository) ListMasses(ctx context.Context, filter persistence.MassFilter) ([]persistence.Mass, error) {
	query := "SELECT " + massColumns + " FROM masses"

	var conditions []string
	var args []any
	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, formatDay(*filter.StartDate))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, formatDay(*filter.EndDate))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, id ASC"

	return r.queryMasses(ctx, query, args...)
}

// ListMassesForIntention lists the masses of one intention ordered by date.
func (r *MassRepository) ListMassesForIntention(ctx context.Context, intentionID string) ([]persistence.Mass, error) {
	query := "SELECT " + massColumns + " FROM masses WHERE intention_id = ? ORDER BY date ASC, id ASC"
	return r.queryMasses(ctx, query, intentionID)
}

// LatestMassForIntention returns the most recent mass by date, or
// ErrNotFound when the intention has no materialized occurrence.
func (r *MassRepository) LatestMassForIntention(ctx context.Context, intentionID string) (persistence.Mass, error) {
	query := "SELECT " + massColumns + " FROM masses WHERE intention_id = ? ORDER BY date DESC, id DESC LIMIT 1"
	row := r.pool.db.QueryRowContext(ctx, query, intentionID)
	return scanMass(row)
}

// MassExistsOn reports whether the intention already has a mass on the date.
func (r *MassRepository) MassExistsOn(ctx context.Context, intentionID string, date time.Time) (bool, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM masses WHERE intention_id = ? AND date = ?",
		intentionID, formatDay(date)).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

// UpdateMassStatus sets the status of one mass.
func (r *MassRepository) UpdateMassStatus(ctx context.Context, id, status string) error {
	result, err := r.pool.db.ExecContext(ctx,
		"UPDATE masses SET status = ?, updated_at = ? WHERE id = ?",
		status, formatTime(time.Now().UTC()), id)
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

func (r *MassRepository) queryMasses(ctx context.Context, query string, args ...any) ([]persistence.Mass, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var masses []persistence.Mass
	for rows.Next() {
		mass, err := scanMass(rows)
		if err != nil {
			return nil, err
		}
		masses = append(masses, mass)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return masses, nil
}

func scanMass(row rowScanner) (persistence.Mass, error) {
	var mass persistence.Mass
	var day, createdAt, updatedAt string
	var celebrantID sql.NullString
	var random int

	err := row.Scan(
		&mass.ID,
		&day,
		&celebrantID,
		&mass.IntentionID,
		&mass.Status,
		&random,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Mass{}, mapError(err)
	}

	mass.RandomCelebrant = random != 0
	if celebrantID.Valid {
		id := celebrantID.String
		mass.CelebrantID = &id
	}
	if mass.Date, err = parseDay(day); err != nil {
		return persistence.Mass{}, err
	}
	if mass.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Mass{}, err
	}
	if mass.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Mass{}, err
	}
	return mass, nil
}
