package identity_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	identity "github.com/pawdoption/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() identity.TokenService {
	return identity.NewTokenService(
		[]byte("test-signing-key"),
		24,
		"test-issuer",
		jwt.ClaimStrings{"test:audience"},
		nil,
	)
}

func TestTokenService_Generate(t *testing.T) {
	service := newTestTokenService()

	id := uuid.New().String()
	tokenString, err := service.Generate(TestIdentity{
		id:        id,
		displayID: 42,
		email:     "user@example.com",
		role:      "adopter",
	})

	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := jwt.ParseWithClaims(tokenString, &identity.JWTClaims{}, func(t *jwt.Token) (any, error) {
		return []byte("test-signing-key"), nil
	})

	require.NoError(t, err)
	assert.True(t, token.Valid)

	claims, ok := token.Claims.(*identity.JWTClaims)
	require.True(t, ok)
	assert.Equal(t, id, claims.Subject())
	assert.Equal(t, id, claims.UserID())
	assert.Equal(t, "adopter", claims.Role())
	assert.Equal(t, "user@example.com", claims.Email())
	assert.Equal(t, "test-issuer", claims.RegisteredClaims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"test:audience"}, claims.RegisteredClaims.Audience)
	assert.NotEmpty(t, claims.RegisteredClaims.ID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.Expires(), time.Minute)
}

func TestTokenService_Validate(t *testing.T) {
	service := newTestTokenService()

	t.Run("valid token round trip", func(t *testing.T) {
		tokenString, err := service.Generate(TestIdentity{
			id:    "user-123",
			email: "user@example.com",
			role:  "admin",
		})
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, "admin", claims.Role())
		assert.True(t, claims.HasRole(identity.RoleAdmin))
	})

	t.Run("expired token", func(t *testing.T) {
		impl, ok := service.(*identity.TokenServiceImpl)
		require.True(t, ok)

		tokenString, err := impl.SignClaims(&identity.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   "user-123",
				Audience:  jwt.ClaimStrings{"test:audience"},
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		require.Error(t, err)
		assert.ErrorIs(t, err, identity.ErrTokenExpired)
		assert.True(t, identity.IsTokenExpiredError(err))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := identity.NewTokenService(
			[]byte("a-different-key"),
			24,
			"test-issuer",
			jwt.ClaimStrings{"test:audience"},
			nil,
		)

		tokenString, err := other.Generate(TestIdentity{id: "user-123", role: "admin"})
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, identity.IsMalformedError(err))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := identity.NewTokenService(
			[]byte("test-signing-key"),
			24,
			"other-issuer",
			jwt.ClaimStrings{"test:audience"},
			nil,
		)

		tokenString, err := other.Generate(TestIdentity{id: "user-123"})
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, identity.IsMalformedError(err))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.Validate("not.a.token")
		require.Error(t, err)
		assert.True(t, identity.IsMalformedError(err))
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := service.Validate("")
		require.Error(t, err)
	})
}

func TestNewTokenService_DefaultExpiration(t *testing.T) {
	service := identity.NewTokenService([]byte("key"), 0, "", nil, nil)

	tokenString, err := service.Generate(TestIdentity{id: "user-123"})
	require.NoError(t, err)

	claims, err := service.Validate(tokenString)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(168*time.Hour), claims.Expires(), time.Minute)
}
