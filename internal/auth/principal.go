package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   int64
	Role repository.Role
}

// Is reports whether the principal has one of roles.
func (p Principal) Is(roles ...repository.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInvalidInput, "password cannot be hashed")
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
