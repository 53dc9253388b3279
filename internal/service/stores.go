package service

import (
	"context"

	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// CustomerStore is the customer Record Store. Every read and write is scoped
// by a Predicate; a row that does not match is reported as not found.
type CustomerStore interface {
	Create(ctx context.Context, c *repository.Customer) error
	GetByID(ctx context.Context, id int64, pred repository.Predicate) (*repository.Customer, error)
	List(ctx context.Context, pred repository.Predicate, listing repository.Listing) ([]*repository.Customer, error)
	Update(ctx context.Context, id int64, pred repository.Predicate, mask *repository.FieldMask) (*repository.Customer, error)
	Transition(ctx context.Context, id int64, pred repository.Predicate, mask *repository.FieldMask, follow func(*repository.Customer) *repository.FieldMask) (*repository.Customer, error)
	Delete(ctx context.Context, id int64, pred repository.Predicate) (*repository.Customer, error)
	Image(ctx context.Context, id int64, column string, pred repository.Predicate) ([]byte, error)
	CountByCreator(ctx context.Context, employeeID int64) (int64, error)
}

// EmployeeStore persists employees.
type EmployeeStore interface {
	Create(ctx context.Context, e *repository.Employee) error
	GetByID(ctx context.Context, id int64) (*repository.Employee, error)
	GetByEmail(ctx context.Context, email string) (*repository.Employee, error)
	List(ctx context.Context, filter repository.EmployeeFilter) ([]*repository.Employee, error)
	Update(ctx context.Context, id int64, mask *repository.FieldMask) (*repository.Employee, error)
	Delete(ctx context.Context, id int64) error
}

// BranchStore persists branches.
type BranchStore interface {
	Create(ctx context.Context, b *repository.Branch) error
	GetByID(ctx context.Context, id int64) (*repository.Branch, error)
	List(ctx context.Context) ([]*repository.Branch, error)
	Rename(ctx context.Context, id int64, name string) (*repository.Branch, error)
	Delete(ctx context.Context, id int64) error
}

// NotificationStore persists notifications and their per-recipient read rows.
type NotificationStore interface {
	Send(ctx context.Context, n *repository.Notification, target repository.Target) (*repository.SendResult, error)
	ListForEmployee(ctx context.Context, employeeID int64) ([]*repository.EmployeeNotification, error)
	MarkRead(ctx context.Context, notificationID, employeeID int64) error
	UnreadCount(ctx context.Context, employeeID int64) (int64, error)
}

// ServiceBookingStore persists service bookings and their status history.
type ServiceBookingStore interface {
	Create(ctx context.Context, b *repository.ServiceBooking, createdBy int64) error
	ListByEmployee(ctx context.Context, employeeID int64) ([]*repository.ServiceBooking, error)
	UpdateStatus(ctx context.Context, id, employeeID int64, status repository.BookingStatus, notes *string) (*repository.ServiceBooking, error)
	History(ctx context.Context, id, employeeID int64) ([]*repository.BookingStatusChange, error)
}

// AnalyticsStore serves the admin dashboard aggregates.
type AnalyticsStore interface {
	StatusCounts(ctx context.Context) (map[repository.Status]int64, error)
	GateCounts(ctx context.Context) (*repository.GateCounts, error)
	Revenue(ctx context.Context) (*repository.Revenue, error)
	SalesPerformance(ctx context.Context) ([]*repository.SalesPerformance, error)
}

// NotificationPublisher pushes committed notifications to connected
// recipients. Implementations must not fail the caller.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n *repository.Notification, recipients []int64)
}
