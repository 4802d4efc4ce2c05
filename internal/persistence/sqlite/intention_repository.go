package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/intention-scheduler/internal/persistence"
)

// IntentionRepository implements persistence.IntentionRepository using
// SQLite.
type IntentionRepository struct {
	pool *ConnectionPool
}

// NewIntentionRepository creates a new SQLite intention repository.
func NewIntentionRepository(pool *ConnectionPool) *IntentionRepository {
	return &IntentionRepository{pool: pool}
}

const intentionColumns = "id, description, donor_id, amount_cents, payment_method, for_deceased, requested_celebrant, date_type, kind, mass_count, recurrence_id, status, created_at, updated_at"

const recurrenceColumns = "id, type, start_date, end_policy, count, end_date, ordinal, weekday, created_at, updated_at"

// CommitSubmission writes the donor, intention, recurrence and masses of one
// submission in a single transaction. A failure on any record rolls the
// whole submission back.
func (r *IntentionRepository) CommitSubmission(ctx context.Context, submission persistence.Submission) error {
	if submission.Intention.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if !submission.DonorExists {
			donor := submission.Donor
			_, err := tx.Exec(`
				INSERT INTO donors (`+donorColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
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
			if err != nil {
				return mapError(err)
			}
		}

		if rec := submission.Recurrence; rec != nil {
			_, err := tx.Exec(`
				INSERT INTO recurrences (`+recurrenceColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				rec.ID,
				rec.Type,
				formatDay(rec.StartDate),
				rec.EndPolicy,
				rec.Count,
				nullDayPtr(rec.EndDate),
				rec.Ordinal,
				rec.Weekday,
				formatTime(rec.CreatedAt),
				formatTime(rec.UpdatedAt),
			)
			if err != nil {
				return mapError(err)
			}
		}

		intention := submission.Intention
		_, err := tx.Exec(`
			INSERT INTO intentions (`+intentionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			intention.ID,
			intention.Description,
			intention.DonorID,
			intention.AmountCents,
			intention.PaymentMethod,
			boolToInt(intention.ForDeceased),
			nullString(intention.RequestedCelebrant),
			intention.DateType,
			intention.Kind,
			intention.MassCount,
			nullStringPtr(intention.RecurrenceID),
			intention.Status,
			formatTime(intention.CreatedAt),
			formatTime(intention.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}

		for _, mass := range submission.Masses {
			_, err := tx.Exec(`
				INSERT INTO masses (`+massColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
				mass.ID,
				formatDay(mass.Date),
				nullStringPtr(mass.CelebrantID),
				mass.IntentionID,
				mass.Status,
				boolToInt(mass.RandomCelebrant),
				formatTime(mass.CreatedAt),
				formatTime(mass.UpdatedAt),
			)
			if err != nil {
				return mapError(err)
			}
		}

		return nil
	})
}

// GetIntention retrieves an intention by ID.
func (r *IntentionRepository) GetIntention(ctx context.Context, id string) (persistence.Intention, error) {
	if id == "" {
		return persistence.Intention{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, "SELECT "+intentionColumns+" FROM intentions WHERE id = ?", id)
	return scanIntention(row)
}

// GetRecurrence retrieves a recurrence by ID.
func (r *IntentionRepository) GetRecurrence(ctx context.Context, id string) (persistence.Recurrence, error) {
	if id == "" {
		return persistence.Recurrence{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, "SELECT "+recurrenceColumns+" FROM recurrences WHERE id = ?", id)
	return scanRecurrence(row)
}

// ListOpenEndedIntentions returns intentions whose recurrence is open-ended
// and of the given type, paired with that recurrence.
func (r *IntentionRepository) ListOpenEndedIntentions(ctx context.Context, recurrenceType string) ([]persistence.IntentionWithRecurrence, error) {
	query := `
		SELECT i.id, i.description, i.donor_id, i.amount_cents, i.payment_method, i.for_deceased,
		       i.requested_celebrant, i.date_type, i.kind, i.mass_count, i.recurrence_id, i.status,
		       i.created_at, i.updated_at,
		       r.id, r.type, r.start_date, r.end_policy, r.count, r.end_date, r.ordinal, r.weekday,
		       r.created_at, r.updated_at
		FROM intentions i
		JOIN recurrences r ON r.id = i.recurrence_id
		WHERE r.end_policy = 'no_end' AND r.type = ?
		ORDER BY i.id ASC
	`
	rows, err := r.pool.db.QueryContext(ctx, query, recurrenceType)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var results []persistence.IntentionWithRecurrence
	for rows.Next() {
		var intention persistence.Intention
		var rec persistence.Recurrence
		var forDeceased int
		var requestedCelebrant, recurrenceID sql.NullString
		var iCreated, iUpdated string
		var startDate, rCreated, rUpdated string
		var endDate sql.NullString

		err := rows.Scan(
			&intention.ID, &intention.Description, &intention.DonorID, &intention.AmountCents,
			&intention.PaymentMethod, &forDeceased, &requestedCelebrant, &intention.DateType,
			&intention.Kind, &intention.MassCount, &recurrenceID, &intention.Status,
			&iCreated, &iUpdated,
			&rec.ID, &rec.Type, &startDate, &rec.EndPolicy, &rec.Count, &endDate,
			&rec.Ordinal, &rec.Weekday, &rCreated, &rUpdated,
		)
		if err != nil {
			return nil, mapError(err)
		}

		intention.ForDeceased = forDeceased != 0
		intention.RequestedCelebrant = requestedCelebrant.String
		if recurrenceID.Valid {
			id := recurrenceID.String
			intention.RecurrenceID = &id
		}
		if intention.CreatedAt, err = parseTime(iCreated); err != nil {
			return nil, err
		}
		if intention.UpdatedAt, err = parseTime(iUpdated); err != nil {
			return nil, err
		}

		if rec.StartDate, err = parseDay(startDate); err != nil {
			return nil, err
		}
		if endDate.Valid {
			day, err := parseDay(endDate.String)
			if err != nil {
				return nil, err
			}
			rec.EndDate = &day
		}
		if rec.CreatedAt, err = parseTime(rCreated); err != nil {
			return nil, err
		}
		if rec.UpdatedAt, err = parseTime(rUpdated); err != nil {
			return nil, err
		}

		results = append(results, persistence.IntentionWithRecurrence{Intention: intention, Recurrence: rec})
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return results, nil
}

// ListIncompleteIntentions returns intentions that are neither completed nor
// cancelled.
func (r *IntentionRepository) ListIncompleteIntentions(ctx context.Context) ([]persistence.Intention, error) {
	query := `
		SELECT ` + intentionColumns + `
		FROM intentions
		WHERE status NOT IN ('completed', 'cancelled')
		ORDER BY id ASC
	`
	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var intentions []persistence.Intention
	for rows.Next() {
		intention, err := scanIntention(rows)
		if err != nil {
			return nil, err
		}
		intentions = append(intentions, intention)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return intentions, nil
}

// UpdateIntentionStatus sets the status of one intention.
func (r *IntentionRepository) UpdateIntentionStatus(ctx context.Context, id, status string) error {
	result, err := r.pool.db.ExecContext(ctx,
		"UPDATE intentions SET status = ?, updated_at = ? WHERE id = ?",
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

// CancelIntention marks the intention cancelled and cascades to its
// scheduled masses dated on or after the reference date. Completed masses
// keep their status.
func (r *IntentionRepository) CancelIntention(ctx context.Context, id string, from time.Time) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			"UPDATE intentions SET status = 'cancelled', updated_at = ? WHERE id = ?",
			formatTime(from), id)
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

		_, err = tx.Exec(`
			UPDATE masses
			SET status = 'cancelled', updated_at = ?
			WHERE intention_id = ? AND status = 'scheduled' AND date >= ?
		`, formatTime(from), id, formatDay(from))
		return mapError(err)
	})
}

func scanIntention(row rowScanner) (persistence.Intention, error) {
	var intention persistence.Intention
	var forDeceased int
	var requestedCelebrant, recurrenceID sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&intention.ID,
		&intention.Description,
		&intention.DonorID,
		&intention.AmountCents,
		&intention.PaymentMethod,
		&forDeceased,
		&requestedCelebrant,
		&intention.DateType,
		&intention.Kind,
		&intention.MassCount,
		&recurrenceID,
		&intention.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Intention{}, mapError(err)
	}

	intention.ForDeceased = forDeceased != 0
	intention.RequestedCelebrant = requestedCelebrant.String
	if recurrenceID.Valid {
		id := recurrenceID.String
		intention.RecurrenceID = &id
	}
	if intention.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Intention{}, err
	}
	if intention.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Intention{}, err
	}
	return intention, nil
}

func scanRecurrence(row rowScanner) (persistence.Recurrence, error) {
	var rec persistence.Recurrence
	var startDate, createdAt, updatedAt string
	var endDate sql.NullString

	err := row.Scan(
		&rec.ID,
		&rec.Type,
		&startDate,
		&rec.EndPolicy,
		&rec.Count,
		&endDate,
		&rec.Ordinal,
		&rec.Weekday,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Recurrence{}, mapError(err)
	}

	if rec.StartDate, err = parseDay(startDate); err != nil {
		return persistence.Recurrence{}, err
	}
	if endDate.Valid {
		day, err := parseDay(endDate.String)
		if err != nil {
			return persistence.Recurrence{}, err
		}
		rec.EndDate = &day
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Recurrence{}, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Recurrence{}, err
	}
	return rec, nil
}
