package repository

import "time"

// BookingStatus is the state of a service booking.
type BookingStatus string

const (
	BookingScheduled  BookingStatus = "scheduled"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingScheduled, BookingInProgress, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// ServiceBooking schedules after-sale service for a customer.
type ServiceBooking struct {
	ID                int64         `json:"id"`
	CustomerID        int64         `json:"customer_id"`
	ServiceEmployeeID int64         `json:"service_employee_id"`
	BookingDate       time.Time     `json:"booking_date"`
	Status            BookingStatus `json:"status"`
	Notes             *string       `json:"notes"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	CustomerName  string  `json:"customer_name,omitempty"`
	CustomerPhone string  `json:"customer_phone,omitempty"`
	CustomerEmail *string `json:"customer_email,omitempty"`
}

// BookingStatusChange is one row of the append-only status ledger.
type BookingStatusChange struct {
	ID               int64         `json:"id"`
	ServiceBookingID int64         `json:"service_booking_id"`
	Status           BookingStatus `json:"status"`
	Notes            *string       `json:"notes"`
	CreatedBy        int64         `json:"created_by"`
	CreatedAt        time.Time     `json:"created_at"`
}
