package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured bearer token claims
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	Email() string
	HasRole(role UserRole) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"uid,omitempty"`
	UserRole  string `json:"role,omitempty"`
	UserEmail string `json:"email,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the user role claim
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// HasRole checks if the token carries the given role
func (c *JWTClaims) HasRole(role UserRole) bool {
	return UserRole(c.UserRole) == role
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
