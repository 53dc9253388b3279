// Package auth verifies bearer credentials and carries the authenticated
// employee through request contexts.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

const issuer = "dealer-workflow"

var (
	// ErrNoCredential is returned when no bearer token was presented.
	ErrNoCredential = errors.Unauthorized("no credential")
	// ErrInvalidCredential is returned for malformed, forged or expired tokens.
	ErrInvalidCredential = errors.Unauthorized("invalid credential")
)

// Claims carries the employee id and role.
type Claims struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator signing with secret.
func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the principal.
func (a *Authenticator) Issue(p Principal) (string, time.Time, error) {
	now := a.now()
	expires := now.Add(a.ttl)
	claims := Claims{
		ID:   p.ID,
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to sign token")
	}
	return signed, expires, nil
}

// Verify validates the token and returns its principal.
func (a *Authenticator) Verify(token string) (Principal, error) {
	if strings.TrimSpace(token) == "" {
		return Principal{}, ErrNoCredential
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return Principal{}, ErrInvalidCredential
	}
	role := repository.Role(claims.Role)
	if claims.ID <= 0 || !role.Valid() {
		return Principal{}, ErrInvalidCredential
	}
	return Principal{ID: claims.ID, Role: role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
