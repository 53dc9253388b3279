package service

import (
	"context"
	"strings"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// RTO listing states.
const (
	RTOStatePending  = "pending"
	RTOStateVerified = "verified"
)

// RTOService is the RTO gateway. Every operation requires the sales and
// accounts gates.
type RTOService struct {
	*Lifecycle
}

// NewRTOService creates a new RTO service
func NewRTOService(lc *Lifecycle) *RTOService {
	return &RTOService{Lifecycle: lc}
}

// ChassisRequest records the chassis details.
type ChassisRequest struct {
	ChassisNumber string
	ChassisImage  []byte
}

func accountsVerified() repository.Predicate {
	return repository.Predicate{
		SalesVerified:    repository.Ptr(true),
		AccountsVerified: repository.Ptr(true),
	}
}

// List returns customers awaiting RTO (pending) or fully verified.
// Identity documents are included.
func (s *RTOService) List(ctx context.Context, state string) ([]*repository.Customer, error) {
	pred := accountsVerified()
	switch state {
	case "", RTOStatePending:
		pred.RTOVerified = repository.Ptr(false)
	case RTOStateVerified:
		pred.RTOVerified = repository.Ptr(true)
	default:
		return nil, errors.InvalidInput("state", "state must be pending or verified")
	}
	return s.customers.List(ctx, pred, repository.ListingIdentityDocuments)
}

// ByChassis finds a customer by chassis number.
func (s *RTOService) ByChassis(ctx context.Context, chassisNumber string) (*repository.Customer, error) {
	chassisNumber = strings.TrimSpace(chassisNumber)
	if chassisNumber == "" {
		return nil, errors.InvalidInput("chassis_number", "chassis number is required")
	}
	pred := accountsVerified()
	pred.ChassisNumber = &chassisNumber

	list, err := s.customers.List(ctx, pred, repository.ListingIdentityDocuments)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.NotFound("customer", chassisNumber)
	}
	return list[0], nil
}

// Verify sets the RTO gate. It is one-way: a second call finds no matching
// row.
func (s *RTOService) Verify(ctx context.Context, actor auth.Principal, id int64) (*repository.Customer, error) {
	pred := accountsVerified()
	pred.RTOVerified = repository.Ptr(false)

	c, err := s.apply(ctx, transition{
		name:       "rto_verify",
		customerID: id,
		actor:      actor,
		pred:       pred,
		mask:       repository.NewFieldMask().Set(repository.ColRTOVerified, true),
	})
	if err != nil {
		return nil, err
	}
	return stripImages([]*repository.Customer{c})[0], nil
}

// UpdateChassis records the chassis number and, when provided, its image.
func (s *RTOService) UpdateChassis(ctx context.Context, actor auth.Principal, id int64, req *ChassisRequest) (*repository.Customer, error) {
	if strings.TrimSpace(req.ChassisNumber) == "" {
		return nil, errors.InvalidInput("chassis_number", "chassis number is required")
	}
	if err := ValidateImage(repository.ColChassisImage, req.ChassisImage); err != nil {
		return nil, err
	}

	c, err := s.apply(ctx, transition{
		name:       "rto_chassis",
		customerID: id,
		actor:      actor,
		pred:       accountsVerified(),
		mask: repository.NewFieldMask().
			Set(repository.ColChassisNumber, req.ChassisNumber).
			Set(repository.ColChassisImage, req.ChassisImage),
	})
	if err != nil {
		return nil, err
	}
	return stripImages([]*repository.Customer{c})[0], nil
}

// ChassisImage returns the stored chassis image.
func (s *RTOService) ChassisImage(ctx context.Context, id int64) ([]byte, error) {
	return s.customers.Image(ctx, id, repository.ColChassisImage, accountsVerified())
}
