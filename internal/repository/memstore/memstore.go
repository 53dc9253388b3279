// Package memstore is an in-memory Record Store. It follows the same
// predicate, field mask and constraint rules as the Postgres repositories and
// backs the service and handler tests.
package memstore

import (
	"sync"
	"time"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

type notificationRead struct {
	notificationID int64
	employeeID     int64
	readAt         *time.Time
}

// Store holds every table behind one mutex. Each exported view implements the
// store interface of one repository.
type Store struct {
	mu  sync.Mutex
	seq map[string]int64
	now func() time.Time

	customers     map[int64]*repository.Customer
	employees     map[int64]*repository.Employee
	branches      map[int64]*repository.Branch
	notifications map[int64]*repository.Notification
	reads         []*notificationRead
	bookings      map[int64]*repository.ServiceBooking
	history       []*repository.BookingStatusChange

	// fanOutFailAfter, when >= 0, fails Send after that many recipient rows.
	fanOutFailAfter int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		seq:             make(map[string]int64),
		now:             time.Now,
		customers:       make(map[int64]*repository.Customer),
		employees:       make(map[int64]*repository.Employee),
		branches:        make(map[int64]*repository.Branch),
		notifications:   make(map[int64]*repository.Notification),
		bookings:        make(map[int64]*repository.ServiceBooking),
		fanOutFailAfter: -1,
	}
}

// FailFanOutAfter makes the next Send fail after n recipient rows have been
// written. A negative n disables the failure.
func (s *Store) FailFanOutAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fanOutFailAfter = n
}

// ReadRows returns the number of notification read rows, for tests that
// assert on the ledger directly.
func (s *Store) ReadRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reads)
}

func (s *Store) Customers() *Customers { return &Customers{s: s} }
func (s *Store) Employees() *Employees { return &Employees{s: s} }
func (s *Store) Branches() *Branches { return &Branches{s: s} }
func (s *Store) Notifications() *Notifications { return &Notifications{s: s} }
func (s *Store) ServiceBookings() *ServiceBookings { return &ServiceBookings{s: s} }
func (s *Store) Analytics() *Analytics { return &Analytics{s: s} }

func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// conflict mirrors the repository's unique-violation error.
func conflict() error {
	return errors.New(errors.ErrCodeConflict, "a record with the same unique value already exists")
}

// referenced mirrors the repository's foreign-key error.
func referenced() error {
	return errors.New(errors.ErrCodeInvalidInput, "referenced record does not exist or is still in use")
}

func checkViolation() error {
	return errors.New(errors.ErrCodeInvalidInput, "value violates a record constraint")
}
