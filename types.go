package identity

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface the package needs. Consumers can
// plug in their own structured logger; the default prints to stdout.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	DisplayID() int64
	Email() string
	Role() string
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *User, error)
	IdentityFromClaims(ctx context.Context, claims AuthClaims) (*User, error)
}

// IdentityProvider ensures we have a store to verify and retrieve identities
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, email, password string) (*User, error)
	FindIdentityByID(ctx context.Context, id string) (*User, error)
}

// TokenService signs and verifies bearer tokens
type TokenService interface {
	Generate(identity Identity) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetAuthScheme() string
	GetBcryptCost() int
	GetResetTokenTTL() int
	GetResetBaseURL() string
}

// DefaultLogger returns the stdout printf logger used when no custom
// Logger is provided.
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
