package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// DefaultAuthScheme is the expected Authorization header scheme.
const DefaultAuthScheme = "Bearer"

// Guard resolves bearer tokens to authenticated identities and enforces
// role membership. RequireRole composes after Authenticate, never before.
type Guard struct {
	auth         Authenticator
	tokenService TokenService
	scheme       string
	logger       Logger

	// ErrorHandler renders gate failures; override for custom payloads.
	ErrorHandler func(c router.Context, err error) error
}

func NewGuard(auth Authenticator, tokenService TokenService, cfg Config) *Guard {
	scheme := DefaultAuthScheme
	if cfg != nil && cfg.GetAuthScheme() != "" {
		scheme = cfg.GetAuthScheme()
	}

	g := &Guard{
		auth:         auth,
		tokenService: tokenService,
		scheme:       scheme,
		logger:       defLogger{},
	}

	g.ErrorHandler = g.defaultErrorHandler

	return g
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Authenticate validates the inbound bearer token, re-resolves the claimed
// identity against the store, and attaches both to the request context. The
// attached user never carries the password hash.
func (g *Guard) Authenticate() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			raw, err := TokenFromHeader(c.Header("Authorization"), g.scheme)
			if err != nil {
				return g.ErrorHandler(c, err)
			}

			claims, err := g.tokenService.Validate(raw)
			if err != nil {
				return g.ErrorHandler(c, err)
			}

			user, err := g.auth.IdentityFromClaims(c.Context(), claims)
			if err != nil {
				g.logger.Warn("token verified but identity no longer resolves", "uid", claims.UserID())
				return g.ErrorHandler(c, ErrIdentityNotFound)
			}

			sanitized := *user
			sanitized.PasswordHash = ""
			sanitized.ResetTokenHash = nil
			sanitized.ResetTokenExpiry = nil

			ctx := WithUserContext(c.Context(), &sanitized)
			ctx = WithClaimsContext(ctx, claims)
			c.SetContext(ctx)

			return next(c)
		}
	}
}

// RequireRole passes only if the authenticated identity's role is a member
// of the allowed set. A missing identity is an authentication failure, a
// role mismatch a distinct authorization failure.
func (g *Guard) RequireRole(allowed ...UserRole) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			user, ok := UserFromContext(c.Context())
			if !ok {
				return g.ErrorHandler(c, ErrIdentityNotFound)
			}

			if !RoleIn(user.Role, allowed...) {
				return g.ErrorHandler(c, ErrForbidden.Clone().
					WithMetadata(map[string]any{
						"role": string(user.Role),
					}))
			}

			return next(c)
		}
	}
}

func (g *Guard) defaultErrorHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "invalid authentication token").
			WithCode(errors.CodeUnauthorized)
	}

	status := router.StatusUnauthorized
	if richErr.Category == errors.CategoryAuthz {
		status = router.StatusForbidden
	}

	return c.JSON(status, map[string]any{
		"message":   richErr.Message,
		"text_code": richErr.TextCode,
	})
}

// TokenFromHeader extracts the raw token from an Authorization header value
// using the configured scheme. Missing or mis-formed headers fail the same
// way a malformed token does.
func TokenFromHeader(header, scheme string) (string, error) {
	if header == "" {
		return "", ErrTokenMalformed
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) {
		return "", ErrTokenMalformed
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrTokenMalformed
	}

	return token, nil
}
