package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/intention-scheduler/internal/persistence"
)

// DonorRepository implements persistence.DonorRepository using SQLite.
type DonorRepository struct {
	pool *ConnectionPool
}

// NewDonorRepository creates a new SQLite donor repository.
func NewDonorRepository(pool *ConnectionPool) *DonorRepository {
	return &DonorRepository{pool: pool}
}

const donorColumns = "id, first_name, last_name, email, phone, address, city, postal_code, created_at, updated_at"

// CreateDonor inserts a new donor.
func (r *DonorRepository) CreateDonor(ctx context.Context, donor persistence.Donor) error {
	if donor.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO donors (` + donorColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		donor.ID,
		donor.FirstName,
		donor.LastName,
		nullString(donor.Email),
		nullString(donor.Phone),
		nullString(donor.Address),
		nullString(donor.City),
		nullString(donor.PostalCode),
		formatTime(donor.CreatedAt),
		formatTime(donor.UpdatedAt),
	)
	return mapError(err)
}

// GetDonor retrieves a donor by ID.
func (r *DonorRepository) GetDonor(ctx context.Context, id string) (persistence.Donor, error) {
	if id == "" {
		return persistence.Donor{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, "SELECT "+donorColumns+" FROM donors WHERE id = ?", id)
	return scanDonor(row)
}

// FindDonorByIdentity matches an existing donor on normalized name, email
// and phone.
func (r *DonorRepository) FindDonorByIdentity(ctx context.Context, firstName, lastName, email, phone string) (persistence.Donor, error) {
	query := `
		SELECT ` + donorColumns + `
		FROM donors
		WHERE lower(first_name) = lower(?)
		  AND lower(last_name) = lower(?)
		  AND lower(coalesce(email, '')) = lower(?)
		  AND coalesce(phone, '') = ?
		ORDER BY created_at ASC
		LIMIT 1
	`
	row := r.pool.db.QueryRowContext(ctx, query,
		strings.TrimSpace(firstName),
		strings.TrimSpace(lastName),
		strings.TrimSpace(email),
		strings.TrimSpace(phone),
	)
	return scanDonor(row)
}

// ListDonors lists all donors ordered by last name.
func (r *DonorRepository) ListDonors(ctx context.Context) ([]persistence.Donor, error) {
	rows, err := r.pool.db.QueryContext(ctx, "SELECT "+donorColumns+" FROM donors ORDER BY last_name ASC, first_name ASC, id ASC")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var donors []persistence.Donor
	for rows.Next() {
		donor, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		donors = append(donors, donor)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return donors, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonor(row rowScanner) (persistence.Donor, error) {
	var donor persistence.Donor
	var email, phone, address, city, postalCode sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&donor.ID,
		&donor.FirstName,
		&donor.LastName,
		&email,
		&phone,
		&address,
		&city,
		&postalCode,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Donor{}, mapError(err)
	}

	donor.Email = email.String
	donor.Phone = phone.String
	donor.Address = address.String
	donor.City = city.String
	donor.PostalCode = postalCode.String

	if donor.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Donor{}, err
	}
	if donor.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Donor{}, err
	}
	return donor, nil
}
