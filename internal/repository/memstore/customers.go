package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// Customers is the in-memory customer Record Store.
type Customers struct {
	s *Store
}

func (r *Customers) Create(_ context.Context, c *repository.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.employees[c.CreatedBy]; !ok {
		return referenced()
	}
	now := r.s.now()
	row := &repository.Customer{
		ID:          r.s.nextID("customers"),
		CreatedBy:   c.CreatedBy,
		Name:        c.Name,
		PhoneNumber: c.PhoneNumber,
		Vehicle:     c.Vehicle,
		Variant:     c.Variant,
		Color:       c.Color,
		Price:       c.Price,
		Status:      repository.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.customers[row.ID] = row
	*c = *row
	return nil
}

func (r *Customers) GetByID(_ context.Context, id int64, pred repository.Predicate) (*repository.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.customers[id]
	if !ok || !pred.Matches(c) {
		return nil, errors.NotFound("customer", id)
	}
	return r.s.withCreatorName(c), nil
}

func (r *Customers) List(_ context.Context, pred repository.Predicate, listing repository.Listing) ([]*repository.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*repository.Customer, 0)
	for _, c := range r.s.customers {
		if pred.Matches(c) {
			row := r.s.withCreatorName(c)
			listing.Apply(row)
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Customers) Update(_ context.Context, id int64, pred repository.Predicate, mask *repository.FieldMask) (*repository.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	next, err := r.s.applyCustomer(id, pred, mask, nil)
	if err != nil {
		return nil, err
	}
	r.s.customers[id] = next
	return clone(next), nil
}

func (r *Customers) Transition(_ context.Context, id int64, pred repository.Predicate, mask *repository.FieldMask, follow func(*repository.Customer) *repository.FieldMask) (*repository.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	next, err := r.s.applyCustomer(id, pred, mask, nil)
	if err != nil {
		return nil, err
	}
	if follow != nil {
		if m := follow(clone(next)); !m.Empty() {
			next, err = r.s.applyCustomer(id, repository.Predicate{}, m, next)
			if err != nil {
				return nil, err
			}
		}
	}
	r.s.customers[id] = next
	return clone(next), nil
}

func (r *Customers) Delete(_ context.Context, id int64, pred repository.Predicate) (*repository.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.customers[id]
	if !ok || !pred.Matches(c) {
		return nil, errors.NotFound("customer", id)
	}
	delete(r.s.customers, id)
	for bid, b := range r.s.bookings {
		if b.CustomerID == id {
			delete(r.s.bookings, bid)
		}
	}
	return clone(c), nil
}

func (r *Customers) Image(_ context.Context, id int64, column string, pred repository.Predicate) ([]byte, error) {
	if !repository.IsImageColumn(column) {
		return nil, errors.InvalidInput("image", "invalid image type")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.customers[id]
	if !ok || !pred.Matches(c) {
		return nil, errors.NotFound("customer", id)
	}
	img := c.Image(column)
	if len(img) == 0 {
		return nil, errors.NotFound("image", column)
	}
	return img, nil
}

func (r *Customers) CountByCreator(_ context.Context, employeeID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, c := range r.s.customers {
		if c.CreatedBy == employeeID {
			n++
		}
	}
	return n, nil
}

// applyCustomer returns a copy of the stored row (or base, when given) with
// mask applied. The caller commits it.
func (s *Store) applyCustomer(id int64, pred repository.Predicate, mask *repository.FieldMask, base *repository.Customer) (*repository.Customer, error) {
	if mask.Empty() {
		return nil, errors.InvalidInput("fields", "no fields to update")
	}
	current := base
	if current == nil {
		c, ok := s.customers[id]
		if !ok || !pred.Matches(c) {
			return nil, errors.NotFound("customer", id)
		}
		current = c
	}

	next := clone(current)
	pricingTouched := false
	for _, f := range mask.Fields() {
		if err := setCustomerColumn(next, f); err != nil {
			return nil, err
		}
		for _, col := range repository.PricingColumns {
			if col == f.Column {
				pricingTouched = true
			}
		}
	}
	if pricingTouched {
		next.TotalPrice = next.PricingTotal()
	}
	if next.AccountsVerified && !next.SalesVerified || next.RTOVerified && !next.AccountsVerified {
		return nil, checkViolation()
	}
	if next.ChassisNumber != nil {
		for oid, o := range s.customers {
			if oid != id && o.ChassisNumber != nil && *o.ChassisNumber == *next.ChassisNumber {
				return nil, conflict()
			}
		}
	}
	next.UpdatedAt = s.now()
	return next, nil
}

func setCustomerColumn(c *repository.Customer, f repository.MaskField) error {
	clearing := f.Op == repository.MaskClear

	str := func(dst **string) error {
		if clearing {
			*dst = nil
			return nil
		}
		v, ok := f.Value.(string)
		if !ok {
			return badValue(f)
		}
		*dst = &v
		return nil
	}
	blob := func(dst *[]byte) error {
		if clearing {
			*dst = nil
			return nil
		}
		v, ok := f.Value.([]byte)
		if !ok {
			return badValue(f)
		}
		*dst = v
		return nil
	}
	num := func(dst *decimal.NullDecimal) error {
		if clearing {
			*dst = decimal.NullDecimal{}
			return nil
		}
		v, ok := f.Value.(decimal.Decimal)
		if !ok {
			return badValue(f)
		}
		if f.Op == repository.MaskAdd && dst.Valid {
			v = dst.Decimal.Add(v)
		}
		*dst = decimal.NewNullDecimal(v)
		return nil
	}
	flag := func(dst *bool) error {
		v, ok := f.Value.(bool)
		if !ok || clearing {
			return badValue(f)
		}
		*dst = v
		return nil
	}

	switch f.Column {
	case repository.ColStatus:
		v, ok := f.Value.(string)
		if !ok {
			return badValue(f)
		}
		c.Status = repository.Status(v)
		return nil
	case repository.ColDOB:
		if clearing {
			c.DOB = nil
			return nil
		}
		v, ok := f.Value.(time.Time)
		if !ok {
			return badValue(f)
		}
		c.DOB = &v
		return nil
	case repository.ColAmountPaid:
		v, ok := f.Value.(decimal.Decimal)
		if !ok || clearing {
			return badValue(f)
		}
		if f.Op == repository.MaskAdd {
			v = c.AmountPaid.Add(v)
		}
		c.AmountPaid = v
		return nil
	case repository.ColAddress:
		return str(&c.Address)
	case repository.ColMobile1:
		return str(&c.Mobile1)
	case repository.ColMobile2:
		return str(&c.Mobile2)
	case repository.ColEmail:
		return str(&c.Email)
	case repository.ColNominee:
		return str(&c.Nominee)
	case repository.ColNomineeRelation:
		return str(&c.NomineeRelation)
	case repository.ColPaymentMode:
		return str(&c.PaymentMode)
	case repository.ColFinanceCompany:
		return str(&c.FinanceCompany)
	case repository.ColChassisNumber:
		return str(&c.ChassisNumber)
	case repository.ColFinanceAmount:
		return num(&c.FinanceAmount)
	case repository.ColExShowroom:
		return num(&c.ExShowroom)
	case repository.ColTax:
		return num(&c.Tax)
	case repository.ColInsurance:
		return num(&c.Insurance)
	case repository.ColBookingFee:
		return num(&c.BookingFee)
	case repository.ColAccessories:
		return num(&c.Accessories)
	case repository.ColSalesVerified:
		return flag(&c.SalesVerified)
	case repository.ColAccountsVerified:
		return flag(&c.AccountsVerified)
	case repository.ColRTOVerified:
		return flag(&c.RTOVerified)
	case repository.ColAadharFront:
		return blob(&c.AadharFront)
	case repository.ColAadharBack:
		return blob(&c.AadharBack)
	case repository.ColPassportPhoto:
		return blob(&c.PassportPhoto)
	case repository.ColChassisImage:
		return blob(&c.ChassisImage)
	case repository.ColFrontDeliveryPhoto:
		return blob(&c.FrontDeliveryPhoto)
	case repository.ColBackDeliveryPhoto:
		return blob(&c.BackDeliveryPhoto)
	case repository.ColDeliveryPhoto:
		return blob(&c.DeliveryPhoto)
	}
	return errors.New(errors.ErrCodeInternal, fmt.Sprintf("column %q is not writable", f.Column))
}

func badValue(f repository.MaskField) error {
	return errors.New(errors.ErrCodeInternal, fmt.Sprintf("unsupported value %T for column %q", f.Value, f.Column))
}

func (s *Store) withCreatorName(c *repository.Customer) *repository.Customer {
	out := clone(c)
	if e, ok := s.employees[c.CreatedBy]; ok {
		name := e.Name
		out.CreatedByName = &name
	}
	return out
}

func clone(c *repository.Customer) *repository.Customer {
	cp := *c
	return &cp
}
