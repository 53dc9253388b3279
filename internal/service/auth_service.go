package service

import (
	"context"
	"strings"
	"time"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/logger"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// AuthService exchanges employee credentials for bearer tokens.
type AuthService struct {
	employees     EmployeeStore
	authenticator *auth.Authenticator
	log           *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(employees EmployeeStore, authenticator *auth.Authenticator, log *logger.Logger) *AuthService {
	return &AuthService{employees: employees, authenticator: authenticator, log: log}
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expires_at"`
	Employee  *repository.Employee `json:"employee"`
}

var errBadLogin = errors.Unauthorized("invalid email or password")

// Login verifies an employee's password and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.InvalidInput("credentials", "email and password are required")
	}

	e, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errBadLogin
		}
		return nil, err
	}
	if !auth.CheckPassword(e.PasswordHash, password) {
		s.log.Warn().Int64("employee_id", e.ID).Msg("login rejected: bad password")
		return nil, errBadLogin
	}
	if e.Status != repository.EmployeeActive {
		s.log.Warn().Int64("employee_id", e.ID).Msg("login rejected: inactive employee")
		return nil, errors.Unauthorized("employee is inactive")
	}

	token, expires, err := s.authenticator.Issue(auth.Principal{ID: e.ID, Role: e.Role})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("employee_id", e.ID).Str("role", string(e.Role)).Msg("employee logged in")
	return &LoginResult{Token: token, ExpiresAt: expires, Employee: e}, nil
}
