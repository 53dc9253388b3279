package service

import (
	"context"
	"testing"
	"time"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/logger"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository/memstore"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

type fixture struct {
	store     *memstore.Store
	customers *CustomerService
	accounts  *AccountsService
	rto       *RTOService
	bookings  *ServiceBookingService
	admin     *AdminService
	notify    *NotificationService
	login     *AuthService
	published *capturePublisher
}

type capturePublisher struct {
	calls [][]int64
}

func (p *capturePublisher) PublishNotification(_ context.Context, _ *repository.Notification, recipients []int64) {
	p.calls = append(p.calls, recipients)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Nop()
	st := memstore.New()
	lc := NewLifecycle(st.Customers(), log)
	pub := &capturePublisher{}
	return &fixture{
		store:     st,
		customers: NewCustomerService(lc, "http://localhost:3000/"),
		accounts:  NewAccountsService(lc),
		rto:       NewRTOService(lc),
		bookings:  NewServiceBookingService(st.ServiceBookings(), st.Employees(), log),
		admin:     NewAdminService(st.Employees(), st.Branches(), st.Customers(), st.Analytics(), log),
		notify:    NewNotificationService(st.Notifications(), pub, log),
		login:     NewAuthService(st.Employees(), auth.NewAuthenticator("0123456789abcdef-test", time.Hour), log),
		published: pub,
	}
}

// employee creates an employee and returns its principal.
func (f *fixture) employee(t *testing.T, role repository.Role, email string) auth.Principal {
	t.Helper()
	e, err := f.admin.CreateEmployee(context.Background(), &CreateEmployeeRequest{
		Name:     email,
		Email:    email,
		Phone:    "555-0100",
		Role:     string(role),
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return auth.Principal{ID: e.ID, Role: e.Role}
}

func (f *fixture) customer(t *testing.T, sales auth.Principal) *repository.Customer {
	t.Helper()
	c, err := f.customers.Create(context.Background(), sales, &CreateCustomerRequest{
		Name: "A", PhoneNumber: "555", Vehicle: "Model X",
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func str(s string) *string { return &s }

func completeSubmission(paymentMode string) *SubmissionRequest {
	dob := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	return &SubmissionRequest{
		DOB:             &dob,
		Address:         str("1 Main St"),
		Mobile1:         str("555-0101"),
		Email:           str("a@example.com"),
		Nominee:         str("B"),
		NomineeRelation: str("Spouse"),
		PaymentMode:     str(paymentMode),
		AadharFront:     pngBytes,
		AadharBack:      pngBytes,
		PassportPhoto:   pngBytes,
	}
}
