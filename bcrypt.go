package identity

import (
	stderrors "errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when the config does not
// provide one. Raising it slows every login; change deliberately.
var DefaultBcryptCost = 12

// HashPassword will generate a password hash at the default cost
func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, DefaultBcryptCost)
}

// HashPasswordCost generates a password hash at an explicit work factor
func HashPasswordCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if stderrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// Hasher binds a work factor so callers can thread cost through config once.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher at the given cost, falling back to the default
// for out-of-range values.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) HashPassword(password string) (string, error) {
	return HashPasswordCost(password, h.cost)
}

func (h Hasher) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}

var _ PasswordAuthenticator = Hasher{}
