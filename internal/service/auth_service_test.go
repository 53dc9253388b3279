package service

import (
	"context"
	"testing"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.employee(t, repository.RoleRTO, "rto@x.io")

	res, err := f.login.Login(ctx, " RTO@x.io ", "password1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" || res.Employee.ID != e.ID {
		t.Fatalf("result = %+v", res)
	}

	verifier := auth.NewAuthenticator("0123456789abcdef-test", 0)
	p, err := verifier.Verify(res.Token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if p.ID != e.ID || p.Role != repository.RoleRTO {
		t.Fatalf("principal = %+v", p)
	}
}

func TestLoginRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.employee(t, repository.RoleSales, "s@x.io")
	gone := f.employee(t, repository.RoleSales, "gone@x.io")
	inactive := repository.EmployeeInactive
	if _, err := f.admin.UpdateEmployee(ctx, gone.ID, &UpdateEmployeeRequest{Status: &inactive}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		code     errors.Code
	}{
		{"blank", "", "", errors.ErrCodeInvalidInput},
		{"unknown email", "nobody@x.io", "password1", errors.ErrCodeUnauthorized},
		{"wrong password", "s@x.io", "nope", errors.ErrCodeUnauthorized},
		{"inactive", "gone@x.io", "password1", errors.ErrCodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.login.Login(ctx, tt.email, tt.password); !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}
