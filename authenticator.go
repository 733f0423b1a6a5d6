package identity

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Auther wires the identity provider and the token service into the login
// and token-resolution flows.
type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, cfg Config) *Auther {
	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		jwt.ClaimStrings(cfg.GetAudience()),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and returns a signed bearer token along
// with the resolved user record.
func (s *Auther) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", nil, err
	}

	token, err := s.tokenService.Generate(user.Identity())
	if err != nil {
		s.logger.Error("Login token generation error", "error", err)
		return "", nil, err
	}

	return token, user, nil
}

// IdentityFromClaims re-resolves the claimed identity against the store so a
// deleted or altered user cannot keep using a stale token.
func (s *Auther) IdentityFromClaims(ctx context.Context, claims AuthClaims) (*User, error) {
	user, err := s.provider.FindIdentityByID(ctx, claims.UserID())
	if err != nil {
		s.logger.Error("IdentityFromClaims find identity by id", "error", err)
		return nil, err
	}

	return user, nil
}

var _ Authenticator = (*Auther)(nil)
