package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/logger"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// Lifecycle applies guarded transitions to customer records. Each transition
// is a single conditional write: the predicate is evaluated by the store at
// write time, and a row that does not match is reported as not found.
type Lifecycle struct {
	customers CustomerStore
	log       *logger.Logger
}

// NewLifecycle creates the lifecycle engine
func NewLifecycle(customers CustomerStore, log *logger.Logger) *Lifecycle {
	return &Lifecycle{customers: customers, log: log}
}

// transition describes one conditional write.
type transition struct {
	name       string
	customerID int64
	actor      auth.Principal
	pred       repository.Predicate
	mask       *repository.FieldMask
	// follow, when set, computes a second write from the updated row. Both
	// writes commit together.
	follow func(*repository.Customer) *repository.FieldMask
}

func (l *Lifecycle) apply(ctx context.Context, t transition) (*repository.Customer, error) {
	var (
		c   *repository.Customer
		err error
	)
	if t.follow != nil {
		c, err = l.customers.Transition(ctx, t.customerID, t.pred, t.mask, t.follow)
	} else {
		c, err = l.customers.Update(ctx, t.customerID, t.pred, t.mask)
	}
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeInternal {
			l.log.Error().Err(err).
				Str("transition", t.name).
				Int64("customer_id", t.customerID).
				Msg("customer transition failed")
		}
		return nil, err
	}

	l.log.Info().
		Str("transition", t.name).
		Int64("customer_id", c.ID).
		Int64("actor_id", t.actor.ID).
		Str("role", string(t.actor.Role)).
		Str("status", string(c.Status)).
		Msg("customer transition applied")
	return c, nil
}

// requiredSubmissionFields must all be present before a record is Submitted.
var requiredSubmissionFields = []string{
	repository.ColDOB,
	repository.ColAddress,
	repository.ColMobile1,
	repository.ColEmail,
	repository.ColNominee,
	repository.ColNomineeRelation,
	repository.ColPaymentMode,
	repository.ColAadharFront,
	repository.ColAadharBack,
	repository.ColPassportPhoto,
}

// IsComplete reports whether the customer has every required personal and
// document field and, for finance purchases, both finance details.
func IsComplete(c *repository.Customer) bool {
	for _, col := range requiredSubmissionFields {
		if !present(c, col) {
			return false
		}
	}
	if *c.PaymentMode == repository.PaymentModeFinance {
		return present(c, repository.ColFinanceCompany) && present(c, repository.ColFinanceAmount)
	}
	return true
}

func present(c *repository.Customer, column string) bool {
	nonBlank := func(s *string) bool { return s != nil && strings.TrimSpace(*s) != "" }
	switch column {
	case repository.ColDOB:
		return c.DOB != nil
	case repository.ColAddress:
		return nonBlank(c.Address)
	case repository.ColMobile1:
		return nonBlank(c.Mobile1)
	case repository.ColEmail:
		return nonBlank(c.Email)
	case repository.ColNominee:
		return nonBlank(c.Nominee)
	case repository.ColNomineeRelation:
		return nonBlank(c.NomineeRelation)
	case repository.ColPaymentMode:
		return nonBlank(c.PaymentMode)
	case repository.ColFinanceCompany:
		return nonBlank(c.FinanceCompany)
	case repository.ColFinanceAmount:
		return c.FinanceAmount.Valid
	}
	return len(c.Image(column)) > 0
}

// nonNegative validates an optional amount.
func nonNegative(field string, d decimal.NullDecimal) error {
	if d.Valid && d.Decimal.IsNegative() {
		return errors.InvalidInput(field, field+" must not be negative")
	}
	return nil
}

// stripImages clears every blob on rows returned by a write.
func stripImages(list []*repository.Customer) []*repository.Customer {
	for _, c := range list {
		repository.ListingNoImages.Apply(c)
	}
	return list
}
