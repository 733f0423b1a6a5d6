package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced alongside the error category so API clients can
// branch without string matching on messages.
const (
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeResetTokenInvalid = "RESET_TOKEN_INVALID"
	TextCodeForbidden         = "FORBIDDEN"
	TextCodeInvalidRole       = "INVALID_ROLE"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound)

// ErrMismatchedHashAndPassword covers both an unknown email and a wrong
// password so the two cases stay indistinguishable to the caller.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrDuplicateEmail is returned when a registration reuses an existing email
var ErrDuplicateEmail = errors.New("a user with this email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail)

// ErrNoEmptyString rejects empty secrets before they reach bcrypt
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation)

// ErrTokenExpired is returned for bearer tokens past their expiry
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed covers structural corruption and signature mismatches
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrResetTokenInvalid covers unknown, consumed, and expired reset tokens;
// callers cannot tell which, the state has simply moved on.
var ErrResetTokenInvalid = errors.New("invalid or expired password reset token", errors.CategoryValidation).
	WithTextCode(TextCodeResetTokenInvalid)

// ErrForbidden is returned when an authenticated identity lacks the role
var ErrForbidden = errors.New("insufficient role for this resource", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
