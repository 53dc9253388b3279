package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-dealer-workflow/internal/database"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

const bookingColumns = `id, customer_id, service_employee_id, booking_date, status, notes, created_at, updated_at`

// ServiceBookingRepository handles service bookings and their status ledger.
type ServiceBookingRepository struct {
	db *database.DB
}

// NewServiceBookingRepository creates a new service booking repository
func NewServiceBookingRepository(db *database.DB) *ServiceBookingRepository {
	return &ServiceBookingRepository{db: db}
}

// Create inserts a scheduled booking and its first ledger row.
func (r *ServiceBookingRepository) Create(ctx context.Context, b *ServiceBooking, createdBy int64) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		created, err := scanBooking(tx.QueryRow(ctx, `
			INSERT INTO service_bookings (customer_id, service_employee_id, booking_date, status, notes)
			VALUES ($1, $2, $3, 'scheduled', $4)
			RETURNING `+bookingColumns,
			b.CustomerID, b.ServiceEmployeeID, b.BookingDate, b.Notes,
		))
		if err != nil {
			return wrapPgError(err, "failed to create service booking")
		}
		if err := insertStatusChange(ctx, tx, created.ID, created.Status, created.Notes, createdBy); err != nil {
			return err
		}
		*b = *created
		return nil
	})
}

// ListByEmployee returns the bookings assigned to a service employee with the
// customer's contact details.
func (r *ServiceBookingRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]*ServiceBooking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT sb.id, sb.customer_id, sb.service_employee_id, sb.booking_date, sb.status, sb.notes,
		       sb.created_at, sb.updated_at, c.customer_name, c.phone_number, c.email
		FROM service_bookings sb
		JOIN customers c ON c.id = sb.customer_id
		WHERE sb.service_employee_id = $1
		ORDER BY sb.booking_date DESC`,
		employeeID,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list service bookings")
	}
	defer rows.Close()

	bookings := make([]*ServiceBooking, 0)
	for rows.Next() {
		b := &ServiceBooking{}
		var status string
		err := rows.Scan(
			&b.ID,
			&b.CustomerID,
			&b.ServiceEmployeeID,
			&b.BookingDate,
			&status,
			&b.Notes,
			&b.CreatedAt,
			&b.UpdatedAt,
			&b.CustomerName,
			&b.CustomerPhone,
			&b.CustomerEmail,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan service booking")
		}
		b.Status = BookingStatus(status)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list service bookings")
	}
	return bookings, nil
}

// UpdateStatus changes the status of a booking owned by employeeID and appends
// the ledger row in the same transaction.
func (r *ServiceBookingRepository) UpdateStatus(ctx context.Context, id, employeeID int64, status BookingStatus, notes *string) (*ServiceBooking, error) {
	var updated *ServiceBooking
	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		b, err := scanBooking(tx.QueryRow(ctx, `
			UPDATE service_bookings
			SET status = $3, notes = COALESCE($4, notes), updated_at = NOW()
			WHERE id = $1 AND service_employee_id = $2
			RETURNING `+bookingColumns,
			id, employeeID, string(status), notes,
		))
		if err == pgx.ErrNoRows {
			return errors.NotFound("service booking", id)
		}
		if err != nil {
			return wrapPgError(err, "failed to update service booking")
		}
		if err := insertStatusChange(ctx, tx, id, status, notes, employeeID); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// History returns the ledger of a booking owned by employeeID, oldest first.
func (r *ServiceBookingRepository) History(ctx context.Context, id, employeeID int64) ([]*BookingStatusChange, error) {
	var owned bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM service_bookings WHERE id = $1 AND service_employee_id = $2)`,
		id, employeeID,
	).Scan(&owned)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get service booking")
	}
	if !owned {
		return nil, errors.NotFound("service booking", id)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, service_booking_id, status, notes, created_by, created_at
		FROM service_booking_status_history
		WHERE service_booking_id = $1
		ORDER BY created_at, id`,
		id,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list booking history")
	}
	defer rows.Close()

	history := make([]*BookingStatusChange, 0)
	for rows.Next() {
		h := &BookingStatusChange{}
		var status string
		if err := rows.Scan(&h.ID, &h.ServiceBookingID, &status, &h.Notes, &h.CreatedBy, &h.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan booking history")
		}
		h.Status = BookingStatus(status)
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list booking history")
	}
	return history, nil
}

func insertStatusChange(ctx context.Context, tx pgx.Tx, bookingID int64, status BookingStatus, notes *string, createdBy int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO service_booking_status_history (service_booking_id, status, notes, created_by)
		VALUES ($1, $2, $3, $4)`,
		bookingID, string(status), notes, createdBy,
	)
	if err != nil {
		return wrapPgError(err, "failed to record booking status")
	}
	return nil
}

func scanBooking(row rowScanner) (*ServiceBooking, error) {
	b := &ServiceBooking{}
	var status string
	err := row.Scan(
		&b.ID,
		&b.CustomerID,
		&b.ServiceEmployeeID,
		&b.BookingDate,
		&status,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = BookingStatus(status)
	return b, nil
}
