package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-dealer-workflow/internal/database"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

const customerColumns = `
	id, created_by, customer_name, phone_number, vehicle, variant, color, price, status,
	dob, address, mobile_1, mobile_2, email, nominee, nominee_relation, payment_mode,
	finance_company, finance_amount, aadhar_front, aadhar_back, passport_photo,
	ex_showroom, tax, insurance, booking_fee, accessories, total_price, amount_paid,
	sales_verified, accounts_verified, rto_verified,
	chassis_number, chassis_image, front_delivery_photo, back_delivery_photo, delivery_photo,
	created_at, updated_at`

// CustomerRepository is the Record Store for customers.
type CustomerRepository struct {
	db *database.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *database.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts a new customer in Pending status.
func (r *CustomerRepository) Create(ctx context.Context, c *Customer) error {
	query := `
		INSERT INTO customers (customer_name, phone_number, vehicle, variant, color, price, created_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'Pending')
		RETURNING ` + customerColumns

	row := r.db.QueryRow(ctx, query,
		c.Name,
		c.PhoneNumber,
		c.Vehicle,
		c.Variant,
		c.Color,
		c.Price,
		c.CreatedBy,
	)
	created, err := scanCustomer(row, false)
	if err != nil {
		return wrapPgError(err, "failed to create customer")
	}
	*c = *created
	return nil
}

// GetByID returns the customer when it exists and matches pred.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64, pred Predicate) (*Customer, error) {
	a := &args{}
	where := "c.id = " + a.add(id) + pred.sql(a, "c")

	c, err := scanCustomer(r.db.QueryRow(ctx, selectCustomers(where), a.values...), true)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("customer", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get customer")
	}
	return c, nil
}

// List returns every customer matching pred, newest first. Image columns
// outside the listing are selected as NULL.
func (r *CustomerRepository) List(ctx context.Context, pred Predicate, listing Listing) ([]*Customer, error) {
	a := &args{}
	where := "TRUE" + pred.sql(a, "c")

	rows, err := r.db.Query(ctx, selectCustomerListing(where, listing)+" ORDER BY c.created_at DESC", a.values...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list customers")
	}
	defer rows.Close()

	customers := make([]*Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows, true)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan customer")
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list customers")
	}
	return customers, nil
}

// Update applies mask to the row identified by id, only if the row matches
// pred at write time. Zero matching rows is reported as not found.
func (r *CustomerRepository) Update(ctx context.Context, id int64, pred Predicate, mask *FieldMask) (*Customer, error) {
	return r.update(ctx, r.db, id, pred, mask)
}

// Transition applies mask like Update and then, in the same transaction,
// applies the mask returned by follow (if any) to the updated row.
func (r *CustomerRepository) Transition(ctx context.Context, id int64, pred Predicate, mask *FieldMask, follow func(*Customer) *FieldMask) (*Customer, error) {
	var result *Customer
	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		c, err := r.update(ctx, tx, id, pred, mask)
		if err != nil {
			return err
		}
		if follow != nil {
			if next := follow(c); !next.Empty() {
				c, err = r.update(ctx, tx, id, Predicate{}, next)
				if err != nil {
					return err
				}
			}
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *CustomerRepository) update(ctx context.Context, q querier, id int64, pred Predicate, mask *FieldMask) (*Customer, error) {
	query, values, err := buildCustomerUpdate(id, pred, mask)
	if err != nil {
		return nil, err
	}

	c, err := scanCustomer(q.QueryRow(ctx, query, values...), false)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("customer", id)
	}
	if err != nil {
		return nil, wrapPgError(err, "failed to update customer")
	}
	return c, nil
}

// buildCustomerUpdate renders the conditional UPDATE. When any pricing
// component is written, total_price is recomputed in the same statement from
// the new values (or the stored ones for components not in the mask).
func buildCustomerUpdate(id int64, pred Predicate, mask *FieldMask) (string, []any, error) {
	if mask.Empty() {
		return "", nil, errors.InvalidInput("fields", "no fields to update")
	}
	if err := mask.Validate(customerWritableColumns); err != nil {
		return "", nil, err
	}

	a := &args{}
	idPh := a.add(id)
	set, placeholders := mask.setClause(a)

	pricingTouched := false
	terms := make([]string, 0, len(PricingColumns))
	for _, col := range PricingColumns {
		f, ok := mask.Get(col)
		switch {
		case !ok:
			terms = append(terms, fmt.Sprintf("COALESCE(%s, 0)", col))
		case f.Op == MaskClear:
			pricingTouched = true
			terms = append(terms, "0")
		case f.Op == MaskAdd:
			pricingTouched = true
			terms = append(terms, fmt.Sprintf("(COALESCE(%s, 0) + %s)", col, placeholders[col]))
		default:
			pricingTouched = true
			terms = append(terms, fmt.Sprintf("COALESCE(%s, 0)", placeholders[col]))
		}
	}
	if pricingTouched {
		set += ", total_price = " + strings.Join(terms, " + ")
	}

	query := "UPDATE customers SET " + set + ", updated_at = NOW() WHERE id = " + idPh +
		pred.sql(a, "") + " RETURNING " + customerColumns
	return query, a.values, nil
}

// Delete removes the customer if it matches pred and returns the deleted row.
func (r *CustomerRepository) Delete(ctx context.Context, id int64, pred Predicate) (*Customer, error) {
	a := &args{}
	query := "DELETE FROM customers WHERE id = " + a.add(id) + pred.sql(a, "") + " RETURNING " + customerColumns

	c, err := scanCustomer(r.db.QueryRow(ctx, query, a.values...), false)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("customer", id)
	}
	if err != nil {
		return nil, wrapPgError(err, "failed to delete customer")
	}
	return c, nil
}

// Image returns one image column of a customer matching pred.
func (r *CustomerRepository) Image(ctx context.Context, id int64, column string, pred Predicate) ([]byte, error) {
	if !IsImageColumn(column) {
		return nil, errors.InvalidInput("image", "invalid image type")
	}

	a := &args{}
	query := "SELECT " + column + " FROM customers WHERE id = " + a.add(id) + pred.sql(a, "")

	var img []byte
	err := r.db.QueryRow(ctx, query, a.values...).Scan(&img)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("customer", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get image")
	}
	if len(img) == 0 {
		return nil, errors.NotFound("image", column)
	}
	return img, nil
}

// CountByCreator counts customers owned by an employee.
func (r *CustomerRepository) CountByCreator(ctx context.Context, employeeID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE created_by = $1`, employeeID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to count customers")
	}
	return n, nil
}

var qualifiedCustomerColumns = func() string {
	cols := strings.Split(customerColumns, ",")
	for i, c := range cols {
		cols[i] = "c." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}()

func selectCustomers(where string) string {
	return "SELECT " + qualifiedCustomerColumns + ", e.name FROM customers c " +
		"LEFT JOIN employees e ON e.id = c.created_by WHERE " + where
}

// selectCustomerListing keeps the column order of selectCustomers so rows scan
// the same way.
func selectCustomerListing(where string, listing Listing) string {
	cols := strings.Split(customerColumns, ",")
	for i, c := range cols {
		name := strings.TrimSpace(c)
		if IsImageColumn(name) && !listing.Keeps(name) {
			cols[i] = "NULL::bytea"
			continue
		}
		cols[i] = "c." + name
	}
	return "SELECT " + strings.Join(cols, ", ") + ", e.name FROM customers c " +
		"LEFT JOIN employees e ON e.id = c.created_by WHERE " + where
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner, withCreatorName bool) (*Customer, error) {
	c := &Customer{}
	var status string
	dest := []any{
		&c.ID,
		&c.CreatedBy,
		&c.Name,
		&c.PhoneNumber,
		&c.Vehicle,
		&c.Variant,
		&c.Color,
		&c.Price,
		&status,
		&c.DOB,
		&c.Address,
		&c.Mobile1,
		&c.Mobile2,
		&c.Email,
		&c.Nominee,
		&c.NomineeRelation,
		&c.PaymentMode,
		&c.FinanceCompany,
		&c.FinanceAmount,
		&c.AadharFront,
		&c.AadharBack,
		&c.PassportPhoto,
		&c.ExShowroom,
		&c.Tax,
		&c.Insurance,
		&c.BookingFee,
		&c.Accessories,
		&c.TotalPrice,
		&c.AmountPaid,
		&c.SalesVerified,
		&c.AccountsVerified,
		&c.RTOVerified,
		&c.ChassisNumber,
		&c.ChassisImage,
		&c.FrontDeliveryPhoto,
		&c.BackDeliveryPhoto,
		&c.DeliveryPhoto,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
	if withCreatorName {
		dest = append(dest, &c.CreatedByName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.Status = Status(status)
	return c, nil
}
