package memstore

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// ServiceBookings is the in-memory service booking store.
type ServiceBookings struct {
	s *Store
}

func (r *ServiceBookings) Create(_ context.Context, b *repository.ServiceBooking, createdBy int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[b.CustomerID]; !ok {
		return referenced()
	}
	if _, ok := r.s.employees[b.ServiceEmployeeID]; !ok {
		return referenced()
	}
	now := r.s.now()
	row := *b
	row.ID = r.s.nextID("service_bookings")
	row.Status = repository.BookingScheduled
	row.CreatedAt, row.UpdatedAt = now, now
	r.s.bookings[row.ID] = &row
	r.s.appendHistory(row.ID, row.Status, row.Notes, createdBy)
	*b = row
	return nil
}

func (r *ServiceBookings) ListByEmployee(_ context.Context, employeeID int64) ([]*repository.ServiceBooking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*repository.ServiceBooking, 0)
	for _, b := range r.s.bookings {
		if b.ServiceEmployeeID != employeeID {
			continue
		}
		cp := *b
		if c, ok := r.s.customers[b.CustomerID]; ok {
			cp.CustomerName = c.Name
			cp.CustomerPhone = c.PhoneNumber
			cp.CustomerEmail = c.Email
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingDate.After(out[j].BookingDate) })
	return out, nil
}

func (r *ServiceBookings) UpdateStatus(_ context.Context, id, employeeID int64, status repository.BookingStatus, notes *string) (*repository.ServiceBooking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok || b.ServiceEmployeeID != employeeID {
		return nil, errors.NotFound("service booking", id)
	}
	if !status.Valid() {
		return nil, checkViolation()
	}
	b.Status = status
	if notes != nil {
		b.Notes = notes
	}
	b.UpdatedAt = r.s.now()
	r.s.appendHistory(id, status, notes, employeeID)
	cp := *b
	return &cp, nil
}

func (r *ServiceBookings) History(_ context.Context, id, employeeID int64) ([]*repository.BookingStatusChange, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok || b.ServiceEmployeeID != employeeID {
		return nil, errors.NotFound("service booking", id)
	}
	out := make([]*repository.BookingStatusChange, 0)
	for _, h := range r.s.history {
		if h.ServiceBookingID == id {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) appendHistory(bookingID int64, status repository.BookingStatus, notes *string, createdBy int64) {
	s.history = append(s.history, &repository.BookingStatusChange{
		ID:               s.nextID("service_booking_status_history"),
		ServiceBookingID: bookingID,
		Status:           status,
		Notes:            notes,
		CreatedBy:        createdBy,
		CreatedAt:        s.now(),
	})
}

// Analytics computes the admin projections over the in-memory tables.
type Analytics struct {
	s *Store
}

func (r *Analytics) StatusCounts(_ context.Context) (map[repository.Status]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := map[repository.Status]int64{
		repository.StatusPending: 0, repository.StatusSubmitted: 0,
		repository.StatusVerified: 0, repository.StatusDelivered: 0,
	}
	for _, c := range r.s.customers {
		counts[c.Status]++
	}
	return counts, nil
}

func (r *Analytics) GateCounts(_ context.Context) (*repository.GateCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g := &repository.GateCounts{}
	for _, c := range r.s.customers {
		if c.SalesVerified {
			g.SalesVerified++
		}
		if c.AccountsVerified {
			g.AccountsVerified++
		}
		if c.RTOVerified {
			g.RTOVerified++
		}
	}
	return g, nil
}

func (r *Analytics) Revenue(_ context.Context) (*repository.Revenue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rev := &repository.Revenue{TotalPrice: decimal.Zero, AmountPaid: decimal.Zero}
	for _, c := range r.s.customers {
		rev.TotalPrice = rev.TotalPrice.Add(c.TotalPrice)
		rev.AmountPaid = rev.AmountPaid.Add(c.AmountPaid)
	}
	rev.Outstanding = rev.TotalPrice.Sub(rev.AmountPaid)
	return rev, nil
}

func (r *Analytics) SalesPerformance(_ context.Context) ([]*repository.SalesPerformance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byID := make(map[int64]*repository.SalesPerformance)
	for _, e := range r.s.employees {
		if e.Role == repository.RoleSales {
			byID[e.ID] = &repository.SalesPerformance{EmployeeID: e.ID, EmployeeName: e.Name, TotalPrice: decimal.Zero}
		}
	}
	for _, c := range r.s.customers {
		p, ok := byID[c.CreatedBy]
		if !ok {
			continue
		}
		p.Customers++
		if c.Status == repository.StatusDelivered {
			p.Delivered++
		}
		p.TotalPrice = p.TotalPrice.Add(c.TotalPrice)
	}
	out := make([]*repository.SalesPerformance, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Customers != out[j].Customers {
			return out[i].Customers > out[j].Customers
		}
		return out[i].EmployeeName < out[j].EmployeeName
	})
	return out, nil
}
