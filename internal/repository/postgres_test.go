package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/pesio-ai/be-dealer-workflow/internal/config"
	"github.com/pesio-ai/be-dealer-workflow/internal/database"
)

// openTestDB connects to the database described by TEST_DB_* variables
// (TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER, ...) and empties every table.
// The test is skipped when TEST_DB_HOST is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("TEST_DB_HOST not set")
	}

	var cfg config.DatabaseConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "TEST_"}); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	ctx := context.Background()
	db, err := database.New(ctx, database.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Database,
		SSLMode:  cfg.SSLMode,
		MaxConns: 4,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	_, err = db.Exec(ctx, `TRUNCATE service_booking_status_history, service_bookings, notification_reads,
		notifications, customers, employees, branches RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

// failInserts installs a trigger that raises when a row with column = value
// is inserted into table.
func failInserts(t *testing.T, db *database.DB, table, column string, value int64) {
	t.Helper()
	ctx := context.Background()
	fn := "fail_" + table
	stmts := []string{
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$
BEGIN
	IF NEW.%s = %d THEN
		RAISE EXCEPTION 'injected failure';
	END IF;
	RETURN NEW;
END $$ LANGUAGE plpgsql`, fn, column, value),
		fmt.Sprintf(`CREATE TRIGGER %s BEFORE INSERT ON %s FOR EACH ROW EXECUTE FUNCTION %s()`, fn, table, fn),
	}
	for _, s := range stmts {
		if _, err := db.Exec(ctx, s); err != nil {
			t.Fatalf("install trigger: %v", err)
		}
	}
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, fn, table))
		_, _ = db.Exec(context.Background(), fmt.Sprintf(`DROP FUNCTION IF EXISTS %s()`, fn))
	})
}

func createTestEmployee(t *testing.T, repo *EmployeeRepository, email string, role Role) *Employee {
	t.Helper()
	e := &Employee{Name: email, Email: email, Phone: "555", Role: role, PasswordHash: "x", Status: EmployeeActive}
	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return e
}

func TestPostgresTransitionRollsBackFieldUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sales := createTestEmployee(t, NewEmployeeRepository(db), "s@x.io", RoleSales)
	customers := NewCustomerRepository(db)
	c := &Customer{CreatedBy: sales.ID, Name: "A", PhoneNumber: "555", Vehicle: "Model X"}
	if err := customers.Create(ctx, c); err != nil {
		t.Fatal(err)
	}

	addr := "1 Main St"
	_, err := customers.Transition(ctx, c.ID, Predicate{Status: Ptr(StatusPending)},
		NewFieldMask().Set(ColAddress, &addr),
		func(*Customer) *FieldMask {
			// violates the status CHECK constraint
			return NewFieldMask().Set(ColStatus, Status("Archived"))
		})
	if err == nil {
		t.Fatal("expected follow-up write to fail")
	}

	got, err := customers.GetByID(ctx, c.ID, Predicate{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Address != nil || got.Status != StatusPending {
		t.Fatalf("partial transition committed: address=%v status=%s", got.Address, got.Status)
	}

	// a predicate miss is not found and writes nothing
	if _, err := customers.Update(ctx, c.ID, Predicate{Status: Ptr(StatusVerified)}, NewFieldMask().Set(ColAddress, &addr)); err == nil {
		t.Fatal("expected predicate miss")
	}
}

func TestPostgresListingSelectsNoBlobs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sales := createTestEmployee(t, NewEmployeeRepository(db), "s@x.io", RoleSales)
	customers := NewCustomerRepository(db)
	c := &Customer{CreatedBy: sales.ID, Name: "A", PhoneNumber: "555", Vehicle: "Model X"}
	if err := customers.Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	img := []byte("\x89PNG\r\n\x1a\nrest")
	if _, err := customers.Update(ctx, c.ID, Predicate{}, NewFieldMask().Set(ColAadharFront, img).Set(ColChassisImage, img)); err != nil {
		t.Fatal(err)
	}

	bare, err := customers.List(ctx, Predicate{}, ListingNoImages)
	if err != nil || len(bare) != 1 {
		t.Fatalf("list = %v, %v", bare, err)
	}
	if bare[0].AadharFront != nil || bare[0].ChassisImage != nil || bare[0].CreatedByName == nil {
		t.Fatalf("bare listing = %+v", bare[0])
	}

	docs, err := customers.List(ctx, Predicate{}, ListingIdentityDocuments)
	if err != nil || len(docs) != 1 {
		t.Fatalf("list = %v, %v", docs, err)
	}
	if len(docs[0].AadharFront) == 0 || docs[0].ChassisImage != nil {
		t.Fatalf("identity listing = %+v", docs[0])
	}
}

func TestPostgresSendRollsBackPartialFanOut(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	employees := NewEmployeeRepository(db)
	createTestEmployee(t, employees, "s1@x.io", RoleSales)
	second := createTestEmployee(t, employees, "s2@x.io", RoleSales)
	notifications := NewNotificationRepository(db)

	failInserts(t, db, "notification_reads", "employee_id", second.ID)

	_, err := notifications.Send(ctx, &Notification{Title: "t", Message: "m"}, Target{Type: TargetRole, Role: RoleSales})
	if err == nil {
		t.Fatal("expected fan-out failure")
	}

	var notes, reads int
	if err := db.QueryRow(ctx, `SELECT (SELECT COUNT(*) FROM notifications), (SELECT COUNT(*) FROM notification_reads)`).Scan(&notes, &reads); err != nil {
		t.Fatal(err)
	}
	if notes != 0 || reads != 0 {
		t.Fatalf("partial fan-out committed: %d notifications, %d reads", notes, reads)
	}
}

func TestPostgresBookingStatusRollsBackWithoutHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	employees := NewEmployeeRepository(db)
	sales := createTestEmployee(t, employees, "s@x.io", RoleSales)
	mech := createTestEmployee(t, employees, "m@x.io", RoleService)
	c := &Customer{CreatedBy: sales.ID, Name: "A", PhoneNumber: "555", Vehicle: "Model X"}
	if err := NewCustomerRepository(db).Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	bookings := NewServiceBookingRepository(db)
	b := &ServiceBooking{CustomerID: c.ID, ServiceEmployeeID: mech.ID, BookingDate: time.Now().Add(24 * time.Hour)}
	if err := bookings.Create(ctx, b, mech.ID); err != nil {
		t.Fatal(err)
	}

	failInserts(t, db, "service_booking_status_history", "service_booking_id", b.ID)

	if _, err := bookings.UpdateStatus(ctx, b.ID, mech.ID, BookingInProgress, nil); err == nil {
		t.Fatal("expected history insert to fail")
	}
	list, err := bookings.ListByEmployee(ctx, mech.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
	if list[0].Status != BookingScheduled {
		t.Fatalf("status committed without history: %s", list[0].Status)
	}
}
