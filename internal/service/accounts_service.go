package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// AccountsService is the Accounts gateway. Every operation requires the sales
// gate.
type AccountsService struct {
	*Lifecycle
}

// NewAccountsService creates a new accounts service
func NewAccountsService(lc *Lifecycle) *AccountsService {
	return &AccountsService{Lifecycle: lc}
}

// FinanceRequest edits or removes the finance details.
type FinanceRequest struct {
	FinanceCompany *string
	FinanceAmount  decimal.NullDecimal
	Remove         bool
}

func salesVerified() repository.Predicate {
	return repository.Predicate{SalesVerified: repository.Ptr(true)}
}

// List returns customers verified by sales.
func (s *AccountsService) List(ctx context.Context) ([]*repository.Customer, error) {
	return s.customers.List(ctx, salesVerified(), repository.ListingNoImages)
}

// Verify sets the accounts gate. The customer must be Verified by sales.
func (s *AccountsService) Verify(ctx context.Context, actor auth.Principal, id int64) (*repository.Customer, error) {
	pred := salesVerified()
	pred.Status = repository.Ptr(repository.StatusVerified)

	c, err := s.apply(ctx, transition{
		name:       "accounts_verify",
		customerID: id,
		actor:      actor,
		pred:       pred,
		mask:       repository.NewFieldMask().Set(repository.ColAccountsVerified, true),
	})
	if err != nil {
		return nil, err
	}
	return stripImages([]*repository.Customer{c})[0], nil
}

// UpdateFinance replaces the provided finance fields, or clears both when
// Remove is set.
func (s *AccountsService) UpdateFinance(ctx context.Context, actor auth.Principal, id int64, req *FinanceRequest) (*repository.Customer, error) {
	mask := repository.NewFieldMask()
	if req.Remove {
		mask.Clear(repository.ColFinanceCompany).Clear(repository.ColFinanceAmount)
	} else {
		if err := nonNegative("finance_amount", req.FinanceAmount); err != nil {
			return nil, err
		}
		mask.Set(repository.ColFinanceCompany, req.FinanceCompany).
			Set(repository.ColFinanceAmount, req.FinanceAmount)
	}
	if mask.Empty() {
		return nil, errors.InvalidInput("fields", "finance_company or finance_amount is required")
	}

	c, err := s.apply(ctx, transition{
		name:       "accounts_finance",
		customerID: id,
		actor:      actor,
		pred:       salesVerified(),
		mask:       mask,
	})
	if err != nil {
		return nil, err
	}
	return stripImages([]*repository.Customer{c})[0], nil
}

// SetPayment replaces amount_paid with an absolute value.
func (s *AccountsService) SetPayment(ctx context.Context, actor auth.Principal, id int64, amount decimal.NullDecimal) (*repository.Customer, error) {
	if !amount.Valid {
		return nil, errors.InvalidInput("amount", "valid amount is required")
	}
	if err := nonNegative("amount", amount); err != nil {
		return nil, err
	}

	c, err := s.apply(ctx, transition{
		name:       "accounts_set_payment",
		customerID: id,
		actor:      actor,
		pred:       salesVerified(),
		mask:       repository.NewFieldMask().Set(repository.ColAmountPaid, amount.Decimal),
	})
	if err != nil {
		return nil, err
	}
	return stripImages([]*repository.Customer{c})[0], nil
}
