package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// DefaultPhoneRegion is the region used to parse national phone numbers
// that are not already in E.164 form.
var DefaultPhoneRegion = "US"

// RegisterUserMessage carries a registration request into the credential
// store. Role is optional; when present it must be a member of the closed
// role set, otherwise the record defaults to adopter.
type RegisterUserMessage struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`

	// UseHashid derives the record id from the email instead of a random
	// uuid, which makes seeding idempotent across databases.
	UseHashid bool `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will run validation rules
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Phone, validation.Required, validation.By(ValidatePhoneNumber)),
		validation.Field(&e.Address, validation.Required, validation.Length(1, 500)),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&e.Role, validation.By(ValidateOptionalRole)),
	)
}

// ValidatePhoneNumber is an ozzo rule backed by libphonenumber
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, DefaultPhoneRegion)
	if err != nil {
		return err
	}

	if !phonenumbers.IsValidNumber(num) {
		return goerrors.New("invalid phone number", goerrors.CategoryValidation)
	}

	return nil
}

// ValidateOptionalRole accepts an empty role or a member of the closed set
func ValidateOptionalRole(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	if _, ok := ParseRole(s); !ok {
		return goerrors.New("unknown or invalid role", goerrors.CategoryValidation).
			WithTextCode(TextCodeInvalidRole).
			WithMetadata(map[string]any{"role": s})
	}

	return nil
}

// Credentials owns user records: registration with display id allocation
// and password verification for login.
type Credentials struct {
	repo   RepositoryManager
	hasher Hasher
	logger Logger
}

func NewCredentials(repo RepositoryManager, cfg Config) *Credentials {
	return &Credentials{
		repo:   repo,
		hasher: NewHasher(cfg.GetBcryptCost()),
		logger: defLogger{},
	}
}

func (c *Credentials) WithLogger(logger Logger) *Credentials {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Register validates the message, rejects duplicate emails before a display
// id is allocated, then hashes and persists in one transaction. A rejected
// registration never consumes a sequence value.
func (c *Credentials) Register(ctx context.Context, msg RegisterUserMessage) (*User, error) {
	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := c.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := c.repo.Users().GetByEmailTx(ctx, tx, msg.Email)
		if err == nil {
			return ErrDuplicateEmail
		}
		if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing user")
		}

		displayID, err := c.repo.Sequences().NextTx(ctx, tx, UserSequence)
		if err != nil {
			return err
		}

		hash, err := c.hasher.HashPassword(msg.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.DisplayID = displayID
		user.PasswordHash = hash
		user.Email = msg.Email
		user.Phone = msg.Phone
		user.Address = msg.Address
		user.FullName = msg.FullName
		user.Role = UserRole(msg.Role)

		if msg.UseHashid {
			if id, err := hashid.NewUUID(NormalizeEmail(msg.Email)); err == nil {
				user.ID = id
			}
		}

		if user, err = c.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return user, nil
}

// VerifyIdentity will find the user and compare the candidate password.
// An unknown email and a wrong password fail with the same error so the
// caller cannot enumerate accounts.
func (c *Credentials) VerifyIdentity(ctx context.Context, email, password string) (*User, error) {
	user, err := c.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := c.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	return user, nil
}

// FindIdentityByID re-resolves a claimed identity against the store.
func (c *Credentials) FindIdentityByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrIdentityNotFound
	}

	user, err := c.repo.Users().GetByID(ctx, id)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user by id")
	}

	return user, nil
}

var _ IdentityProvider = (*Credentials)(nil)
