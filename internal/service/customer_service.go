package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// CustomerImageKinds are the images sales and admin may fetch.
var CustomerImageKinds = []string{
	repository.ColAadharFront,
	repository.ColAadharBack,
	repository.ColPassportPhoto,
	repository.ColFrontDeliveryPhoto,
	repository.ColBackDeliveryPhoto,
	repository.ColDeliveryPhoto,
}

// CustomerService is the Sales gateway plus the anonymous customer
// self-submission.
type CustomerService struct {
	*Lifecycle
	publicBaseURL string
}

// NewCustomerService creates a new customer service
func NewCustomerService(lc *Lifecycle, publicBaseURL string) *CustomerService {
	return &CustomerService{Lifecycle: lc, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// CreateCustomerRequest represents a create customer request
type CreateCustomerRequest struct {
	Name        string
	PhoneNumber string
	Vehicle     string
	Variant     *string
	Color       *string
	Price       decimal.NullDecimal
}

// SubmissionRequest carries the fields a customer fills in through their
// link. Nil and empty values are not provided and keep the stored value.
type SubmissionRequest struct {
	DOB             *time.Time
	Address         *string
	Mobile1         *string
	Mobile2         *string
	Email           *string
	Nominee         *string
	NomineeRelation *string
	PaymentMode     *string
	FinanceCompany  *string
	FinanceAmount   decimal.NullDecimal
	AadharFront     []byte
	AadharBack      []byte
	PassportPhoto   []byte
}

// SalesUpdateRequest is the authenticated form of PUT /customers/{id}.
type SalesUpdateRequest struct {
	ExShowroom  decimal.NullDecimal
	Tax         decimal.NullDecimal
	Insurance   decimal.NullDecimal
	BookingFee  decimal.NullDecimal
	Accessories decimal.NullDecimal
	Status      *string
}

// DeliveryRequest carries the delivery photos.
type DeliveryRequest struct {
	FrontDeliveryPhoto []byte
	BackDeliveryPhoto  []byte
	DeliveryPhoto      []byte
}

// UniqueLink returns the self-submission link for a customer.
func (s *CustomerService) UniqueLink(id int64) string {
	return s.publicBaseURL + "/customer-details/" + strconv.FormatInt(id, 10)
}

// Create adds a Pending customer owned by the sales actor.
func (s *CustomerService) Create(ctx context.Context, actor auth.Principal, req *CreateCustomerRequest) (*repository.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.Vehicle = strings.TrimSpace(req.Vehicle)
	if req.Name == "" || req.PhoneNumber == "" || req.Vehicle == "" {
		return nil, errors.InvalidInput("customer", "customer name, phone number, and vehicle are required")
	}
	if err := nonNegative("price", req.Price); err != nil {
		return nil, err
	}

	c := &repository.Customer{
		CreatedBy:   actor.ID,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Vehicle:     req.Vehicle,
		Variant:     blankToNil(req.Variant),
		Color:       blankToNil(req.Color),
		Price:       req.Price,
	}
	if err := s.customers.Create(ctx, c); err != nil {
		if errors.CodeOf(err) == errors.ErrCodeInternal {
			s.log.Error().Err(err).Int64("actor_id", actor.ID).Msg("failed to create customer")
		}
		return nil, err
	}

	s.log.Info().
		Int64("customer_id", c.ID).
		Int64("actor_id", actor.ID).
		Msg("customer created")
	return c, nil
}

// List returns the sales actor's own customers, or every customer for admin.
func (s *CustomerService) List(ctx context.Context, actor auth.Principal) ([]*repository.Customer, error) {
	pred := repository.Predicate{}
	if actor.Role != repository.RoleAdmin {
		pred = repository.OwnedBy(actor.ID)
	}
	return s.customers.List(ctx, pred, repository.ListingNoImages)
}

// Summary is the public view behind the customer's link. Identity documents
// and the chassis image are never included.
func (s *CustomerService) Summary(ctx context.Context, id int64) (*repository.Customer, error) {
	c, err := s.customers.GetByID(ctx, id, repository.Predicate{})
	if err != nil {
		return nil, err
	}
	c.StripIdentityDocuments()
	c.ChassisImage = nil
	c.CreatedByName = nil
	return c, nil
}

// Image returns one stored image. Sales may only read their own customers.
func (s *CustomerService) Image(ctx context.Context, actor auth.Principal, id int64, kind string) ([]byte, error) {
	valid := false
	for _, k := range CustomerImageKinds {
		if k == kind {
			valid = true
		}
	}
	if !valid {
		return nil, errors.InvalidInput("image", "invalid image type")
	}
	pred := repository.Predicate{}
	if actor.Role != repository.RoleAdmin {
		pred = repository.OwnedBy(actor.ID)
	}
	return s.customers.Image(ctx, id, kind, pred)
}

// Submit applies a customer self-submission to a Pending record. When the
// record becomes complete it moves to Submitted in the same write.
func (s *CustomerService) Submit(ctx context.Context, id int64, req *SubmissionRequest) (*repository.Customer, error) {
	if err := validateImages(map[string][]byte{
		repository.ColAadharFront:   req.AadharFront,
		repository.ColAadharBack:    req.AadharBack,
		repository.ColPassportPhoto: req.PassportPhoto,
	}); err != nil {
		return nil, err
	}
	if err := nonNegative("finance_amount", req.FinanceAmount); err != nil {
		return nil, err
	}

	mask := repository.NewFieldMask().
		Set(repository.ColDOB, req.DOB).
		Set(repository.ColAddress, req.Address).
		Set(repository.ColMobile1, req.Mobile1).
		Set(repository.ColMobile2, req.Mobile2).
		Set(repository.ColEmail, req.Email).
		Set(repository.ColNominee, req.Nominee).
		Set(repository.ColNomineeRelation, req.NomineeRelation).
		Set(repository.ColPaymentMode, req.PaymentMode).
		Set(repository.ColFinanceCompany, req.FinanceCompany).
		Set(repository.ColFinanceAmount, req.FinanceAmount).
		Set(repository.ColAadharFront, req.AadharFront).
		Set(repository.ColAadharBack, req.AadharBack).
		Set(repository.ColPassportPhoto, req.PassportPhoto)
	if mask.Empty() {
		return nil, errors.InvalidInput("fields", "no fields to update")
	}

	c, err := s.apply(ctx, transition{
		name:       "customer_submission",
		customerID: id,
		pred:       repository.Predicate{Status: repository.Ptr(repository.StatusPending)},
		mask:       mask,
		follow: func(c *repository.Customer) *repository.FieldMask {
			if !IsComplete(c) {
				return nil
			}
			return repository.NewFieldMask().Set(repository.ColStatus, repository.StatusSubmitted)
		},
	})
	if err != nil {
		return nil, err
	}
	c.StripIdentityDocuments()
	return c, nil
}

// SalesUpdate writes the pricing breakdown. A status of "Verified" also
// performs the sales verification; any other status is rejected.
func (s *CustomerService) SalesUpdate(ctx context.Context, actor auth.Principal, id int64, req *SalesUpdateRequest) (*repository.Customer, error) {
	pricing := []struct {
		col string
		val decimal.NullDecimal
	}{
		{repository.ColExShowroom, req.ExShowroom},
		{repository.ColTax, req.Tax},
		{repository.ColInsurance, req.Insurance},
		{repository.ColBookingFee, req.BookingFee},
		{repository.ColAccessories, req.Accessories},
	}

	mask := repository.NewFieldMask()
	for _, p := range pricing {
		if err := nonNegative(p.col, p.val); err != nil {
			return nil, err
		}
		mask.Set(p.col, p.val)
	}

	name := "sales_pricing"
	if req.Status != nil && strings.TrimSpace(*req.Status) != "" {
		if repository.Status(strings.TrimSpace(*req.Status)) != repository.StatusVerified {
			return nil, errors.InvalidInput("status", "status can only be set to Verified")
		}
		mask.Set(repository.ColSalesVerified, true).Set(repository.ColStatus, repository.StatusVerified)
		name = "sales_verify"
	}
	if mask.Empty() {
		return nil, errors.InvalidInput("fields", "no fields to update")
	}

	// Delivered is terminal: neither pricing nor the sales gate move after it.
	pred := repository.OwnedBy(actor.ID)
	pred.StatusNot = repository.Ptr(repository.StatusDelivered)

	c, err := s.apply(ctx, transition{
		name:       name,
		customerID: id,
		actor:      actor,
		pred:       pred,
		mask:       mask,
	})
	if err != nil {
		return nil, err
	}
	return stripImages([]*repository.Customer{c})[0], nil
}

// Verify sets the sales gate on an owned customer.
func (s *CustomerService) Verify(ctx context.Context, actor auth.Principal, id int64) (*repository.Customer, error) {
	verified := string(repository.StatusVerified)
	return s.SalesUpdate(ctx, actor, id, &SalesUpdateRequest{Status: &verified})
}

// AddPayment increments amount_paid on an owned customer.
func (s *CustomerService) AddPayment(ctx context.Context, actor auth.Principal, id int64, amount decimal.NullDecimal) (*repository.Customer, error) {
	if !amount.Valid {
		return nil, errors.InvalidInput("amount", "valid amount is required")
	}
	if err := nonNegative("amount", amount); err != nil {
		return nil, err
	}

	c, err := s.apply(ctx, transition{
		name:       "sales_add_payment",
		customerID: id,
		actor:      actor,
		pred:       repository.OwnedBy(actor.ID),
		mask:       repository.NewFieldMask().Add(repository.ColAmountPaid, amount.Decimal),
	})
	if err != nil {
		return nil, err
	}
	return stripImages([]*repository.Customer{c})[0], nil
}

// MarkDelivered closes the pipeline. All three gates must already be set.
func (s *CustomerService) MarkDelivered(ctx context.Context, actor auth.Principal, id int64, req *DeliveryRequest) (*repository.Customer, error) {
	if err := validateImages(map[string][]byte{
		repository.ColFrontDeliveryPhoto: req.FrontDeliveryPhoto,
		repository.ColBackDeliveryPhoto:  req.BackDeliveryPhoto,
		repository.ColDeliveryPhoto:      req.DeliveryPhoto,
	}); err != nil {
		return nil, err
	}

	pred := repository.OwnedBy(actor.ID)
	pred.SalesVerified = repository.Ptr(true)
	pred.AccountsVerified = repository.Ptr(true)
	pred.RTOVerified = repository.Ptr(true)

	c, err := s.apply(ctx, transition{
		name:       "sales_delivered",
		customerID: id,
		actor:      actor,
		pred:       pred,
		mask: repository.NewFieldMask().
			Set(repository.ColStatus, repository.StatusDelivered).
			Set(repository.ColFrontDeliveryPhoto, req.FrontDeliveryPhoto).
			Set(repository.ColBackDeliveryPhoto, req.BackDeliveryPhoto).
			Set(repository.ColDeliveryPhoto, req.DeliveryPhoto),
	})
	if err != nil {
		return nil, err
	}
	return stripImages([]*repository.Customer{c})[0], nil
}

// Delete removes an owned customer.
func (s *CustomerService) Delete(ctx context.Context, actor auth.Principal, id int64) (*repository.Customer, error) {
	c, err := s.customers.Delete(ctx, id, repository.OwnedBy(actor.ID))
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Int64("customer_id", id).
		Int64("actor_id", actor.ID).
		Msg("customer deleted")
	return stripImages([]*repository.Customer{c})[0], nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
