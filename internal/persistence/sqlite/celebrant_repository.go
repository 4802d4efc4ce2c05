package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/intention-scheduler/internal/persistence"
)

// CelebrantRepository implements persistence.CelebrantRepository using
// SQLite.
type CelebrantRepository struct {
	pool *ConnectionPool
}

// NewCelebrantRepository creates a new SQLite celebrant repository.
func NewCelebrantRepository(pool *ConnectionPool) *CelebrantRepository {
	return &CelebrantRepository{pool: pool}
}

const celebrantColumns = "id, first_name, last_name, title, available, created_at, updated_at"

// CreateCelebrant inserts a new celebrant.
func (r *CelebrantRepository) CreateCelebrant(ctx context.Context, celebrant persistence.Celebrant) error {
	if celebrant.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO celebrants (` + celebrantColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		celebrant.ID,
		celebrant.FirstName,
		celebrant.LastName,
		nullString(celebrant.Title),
		boolToInt(celebrant.Available),
		formatTime(celebrant.CreatedAt),
		formatTime(celebrant.UpdatedAt),
	)
	return mapError(err)
}

// UpdateCelebrant updates an existing celebrant.
func (r *CelebrantRepository) UpdateCelebrant(ctx context.Context, celebrant persistence.Celebrant) error {
	query := `
		UPDATE celebrants
		SET first_name = ?, last_name = ?, title = ?, available = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		celebrant.FirstName,
		celebrant.LastName,
		nullString(celebrant.Title),
		boolToInt(celebrant.Available),
		formatTime(celebrant.UpdatedAt),
		celebrant.ID,
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

// GetCelebrant retrieves a celebrant by ID.
func (r *CelebrantRepository) GetCelebrant(ctx context.Context, id string) (persistence.Celebrant, error) {
	if id == "" {
		return persistence.Celebrant{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, "SELECT "+celebrantColumns+" FROM celebrants WHERE id = ?", id)
	return scanCelebrant(row)
}

// ListCelebrants lists all celebrants ordered by last name.
func (r *CelebrantRepository) ListCelebrants(ctx context.Context) ([]persistence.Celebrant, error) {
	rows, err := r.pool.db.QueryContext(ctx, "SELECT "+celebrantColumns+" FROM celebrants ORDER BY last_name ASC, first_name ASC, id ASC")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var celebrants []persistence.Celebrant
	for rows.Next() {
		celebrant, err := scanCelebrant(rows)
		if err != nil {
			return nil, err
		}
		celebrants = append(celebrants, celebrant)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return celebrants, nil
}

func scanCelebrant(row rowScanner) (persistence.Celebrant, error) {
	var celebrant persistence.Celebrant
	var title sql.NullString
	var available int
	var createdAt, updatedAt string

	err := row.Scan(
		&celebrant.ID,
		&celebrant.FirstName,
		&celebrant.LastName,
		&title,
		&available,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Celebrant{}, mapError(err)
	}

	celebrant.Title = title.String
	celebrant.Available = available != 0

	if celebrant.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Celebrant{}, err
	}
	if celebrant.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Celebrant{}, err
	}
	return celebrant, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
