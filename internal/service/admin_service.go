package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/logger"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// AdminService manages employees and branches and serves analytics.
type AdminService struct {
	employees EmployeeStore
	branches  BranchStore
	customers CustomerStore
	analytics AnalyticsStore
	log       *logger.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(employees EmployeeStore, branches BranchStore, customers CustomerStore, analytics AnalyticsStore, log *logger.Logger) *AdminService {
	return &AdminService{
		employees: employees,
		branches:  branches,
		customers: customers,
		analytics: analytics,
		log:       log,
	}
}

// CreateEmployeeRequest represents a create employee request
type CreateEmployeeRequest struct {
	Name     string
	Email    string
	Phone    string
	BranchID *int64
	Role     string
	Password string
}

// UpdateEmployeeRequest carries the fields to change. Nil fields are kept.
type UpdateEmployeeRequest struct {
	Name     *string
	Email    *string
	Phone    *string
	BranchID *int64
	Role     *string
	Password *string
	Status   *string
}

// Analytics is the admin dashboard projection.
type Analytics struct {
	StatusCounts     map[repository.Status]int64    `json:"status_counts"`
	Gates            *repository.GateCounts         `json:"gates"`
	Revenue          *repository.Revenue            `json:"revenue"`
	SalesPerformance []*repository.SalesPerformance `json:"sales_performance"`
}

// CreateBranch creates a branch
func (s *AdminService) CreateBranch(ctx context.Context, name string) (*repository.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.InvalidInput("name", "branch name is required")
	}
	b := &repository.Branch{Name: name}
	if err := s.branches.Create(ctx, b); err != nil {
		return nil, err
	}
	s.log.Info().Int64("branch_id", b.ID).Str("name", name).Msg("branch created")
	return b, nil
}

// ListBranches lists all branches
func (s *AdminService) ListBranches(ctx context.Context) ([]*repository.Branch, error) {
	return s.branches.List(ctx)
}

// RenameBranch renames a branch
func (s *AdminService) RenameBranch(ctx context.Context, id int64, name string) (*repository.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.InvalidInput("name", "branch name is required")
	}
	return s.branches.Rename(ctx, id, name)
}

// DeleteBranch deletes a branch no employee belongs to.
func (s *AdminService) DeleteBranch(ctx context.Context, id int64) error {
	members, err := s.employees.List(ctx, repository.EmployeeFilter{BranchID: &id})
	if err != nil {
		return err
	}
	if len(members) > 0 {
		return errors.InvalidInput("branch", "branch still has employees")
	}
	if err := s.branches.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("branch_id", id).Msg("branch deleted")
	return nil
}

// EnsureAdmin creates an admin account unless an employee with that email
// already exists. It reports whether an account was created.
func (s *AdminService) EnsureAdmin(ctx context.Context, req *CreateEmployeeRequest) (bool, error) {
	_, err := s.employees.GetByEmail(ctx, strings.TrimSpace(req.Email))
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, errors.ErrCodeNotFound):
		return false, err
	}
	req.Role = string(repository.RoleAdmin)
	if _, err := s.CreateEmployee(ctx, req); err != nil {
		return false, err
	}
	return true, nil
}

// CreateEmployee creates an employee with a hashed password.
func (s *AdminService) CreateEmployee(ctx context.Context, req *CreateEmployeeRequest) (*repository.Employee, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Role == "" || req.Password == "" {
		return nil, errors.InvalidInput("employee", "name, email, phone, role and password are required")
	}
	if !strings.Contains(req.Email, "@") {
		return nil, errors.InvalidInput("email", "invalid email")
	}
	role := repository.Role(req.Role)
	if !role.Valid() {
		return nil, errors.InvalidInput("role", "invalid role")
	}
	if err := s.checkBranch(ctx, req.BranchID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	e := &repository.Employee{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		BranchID:     req.BranchID,
		Role:         role,
		PasswordHash: hash,
		Status:       repository.EmployeeActive,
	}
	if err := s.employees.Create(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("employee_id", e.ID).
		Str("role", string(e.Role)).
		Msg("employee created")
	return e, nil
}

// ListEmployees lists employees, optionally filtered by role and branch.
func (s *AdminService) ListEmployees(ctx context.Context, filter repository.EmployeeFilter) ([]*repository.Employee, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, errors.InvalidInput("role", "invalid role")
	}
	return s.employees.List(ctx, filter)
}

// GetEmployee retrieves an employee by ID
func (s *AdminService) GetEmployee(ctx context.Context, id int64) (*repository.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

// UpdateEmployee applies the provided fields as a field mask.
func (s *AdminService) UpdateEmployee(ctx context.Context, id int64, req *UpdateEmployeeRequest) (*repository.Employee, error) {
	mask := repository.NewFieldMask().
		Set(repository.ColEmployeeName, req.Name).
		Set(repository.ColEmployeeEmail, req.Email).
		Set(repository.ColEmployeePhone, req.Phone).
		Set(repository.ColEmployeeBranchID, req.BranchID)

	if v, ok := mask.Get(repository.ColEmployeeEmail); ok && !strings.Contains(v.Value.(string), "@") {
		return nil, errors.InvalidInput("email", "invalid email")
	}
	if err := s.checkBranch(ctx, req.BranchID); err != nil {
		return nil, err
	}
	if req.Role != nil {
		if !repository.Role(*req.Role).Valid() {
			return nil, errors.InvalidInput("role", "invalid role")
		}
		mask.Set(repository.ColEmployeeRole, *req.Role)
	}
	if req.Status != nil {
		if *req.Status != repository.EmployeeActive && *req.Status != repository.EmployeeInactive {
			return nil, errors.InvalidInput("status", "status must be active or inactive")
		}
		mask.Set(repository.ColEmployeeStatus, *req.Status)
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		mask.Set(repository.ColEmployeePassword, hash)
	}
	if mask.Empty() {
		return nil, errors.InvalidInput("fields", "no fields to update")
	}

	e, err := s.employees.Update(ctx, id, mask)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("employee_id", id).Int("fields", len(mask.Fields())).Msg("employee updated")
	return e, nil
}

// DeleteEmployee deletes an employee that owns no customers.
func (s *AdminService) DeleteEmployee(ctx context.Context, id int64) error {
	owned, err := s.customers.CountByCreator(ctx, id)
	if err != nil {
		return err
	}
	if owned > 0 {
		return errors.InvalidInput("employee", "employee has associated customers and cannot be deleted")
	}
	if err := s.employees.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("employee_id", id).Msg("employee deleted")
	return nil
}

// Analytics runs the dashboard projections concurrently.
func (s *AdminService) Analytics(ctx context.Context) (*Analytics, error) {
	out := &Analytics{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.StatusCounts, err = s.analytics.StatusCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Gates, err = s.analytics.GateCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Revenue, err = s.analytics.Revenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.SalesPerformance, err = s.analytics.SalesPerformance(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("failed to load analytics")
		return nil, err
	}
	return out, nil
}

func (s *AdminService) checkBranch(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.branches.GetByID(ctx, *id); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return errors.InvalidInput("branch_id", "branch does not exist")
		}
		return err
	}
	return nil
}
