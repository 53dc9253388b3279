package service

import (
	"context"
	"strings"
	"time"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/logger"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// ServiceBookingService is the Service gateway plus admin booking creation.
type ServiceBookingService struct {
	bookings  ServiceBookingStore
	employees EmployeeStore
	log       *logger.Logger
}

// NewServiceBookingService creates a new service booking service
func NewServiceBookingService(bookings ServiceBookingStore, employees EmployeeStore, log *logger.Logger) *ServiceBookingService {
	return &ServiceBookingService{bookings: bookings, employees: employees, log: log}
}

// CreateBookingRequest represents a create booking request
type CreateBookingRequest struct {
	CustomerID        int64
	ServiceEmployeeID int64
	BookingDate       time.Time
	Notes             *string
}

// Create schedules a booking for a service employee.
func (s *ServiceBookingService) Create(ctx context.Context, actor auth.Principal, req *CreateBookingRequest) (*repository.ServiceBooking, error) {
	if req.CustomerID <= 0 {
		return nil, errors.InvalidInput("customer_id", "customer_id is required")
	}
	if req.BookingDate.IsZero() {
		return nil, errors.InvalidInput("booking_date", "booking_date is required")
	}
	emp, err := s.employees.GetByID(ctx, req.ServiceEmployeeID)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.InvalidInput("service_employee_id", "service employee does not exist")
		}
		return nil, err
	}
	if emp.Role != repository.RoleService {
		return nil, errors.InvalidInput("service_employee_id", "employee is not a service employee")
	}

	b := &repository.ServiceBooking{
		CustomerID:        req.CustomerID,
		ServiceEmployeeID: req.ServiceEmployeeID,
		BookingDate:       req.BookingDate,
		Notes:             blankToNil(req.Notes),
	}
	if err := s.bookings.Create(ctx, b, actor.ID); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("booking_id", b.ID).
		Int64("customer_id", b.CustomerID).
		Int64("service_employee_id", b.ServiceEmployeeID).
		Msg("service booking created")
	return b, nil
}

// List returns the caller's bookings.
func (s *ServiceBookingService) List(ctx context.Context, actor auth.Principal) ([]*repository.ServiceBooking, error) {
	return s.bookings.ListByEmployee(ctx, actor.ID)
}

// UpdateStatus changes an owned booking's status and appends the history row
// atomically.
func (s *ServiceBookingService) UpdateStatus(ctx context.Context, actor auth.Principal, id int64, status string, notes *string) (*repository.ServiceBooking, error) {
	st := repository.BookingStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, errors.InvalidInput("status", "status must be one of scheduled, in_progress, completed, cancelled")
	}

	b, err := s.bookings.UpdateStatus(ctx, id, actor.ID, st, blankToNil(notes))
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeInternal {
			s.log.Error().Err(err).Int64("booking_id", id).Msg("failed to update booking status")
		}
		return nil, err
	}

	s.log.Info().
		Int64("booking_id", id).
		Int64("actor_id", actor.ID).
		Str("status", string(st)).
		Msg("service booking status updated")
	return b, nil
}

// History returns an owned booking's status ledger.
func (s *ServiceBookingService) History(ctx context.Context, actor auth.Principal, id int64) ([]*repository.BookingStatusChange, error) {
	return s.bookings.History(ctx, id, actor.ID)
}
