package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultResetTokenTTL is the validity window for a reset token.
var DefaultResetTokenTTL = 10 * time.Minute

// PasswordResets drives the per-user reset state machine over the
// reset_token_hash/reset_token_expiry pair: Absent -> Pending -> Absent.
type PasswordResets struct {
	repo    RepositoryManager
	hasher  Hasher
	mailer  Mailer
	logger  Logger
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func NewPasswordResets(repo RepositoryManager, mailer Mailer, cfg Config) *PasswordResets {
	ttl := DefaultResetTokenTTL
	if cfg.GetResetTokenTTL() > 0 {
		ttl = time.Duration(cfg.GetResetTokenTTL()) * time.Minute
	}

	return &PasswordResets{
		repo:    repo,
		hasher:  NewHasher(cfg.GetBcryptCost()),
		mailer:  mailer,
		logger:  defLogger{},
		ttl:     ttl,
		baseURL: cfg.GetResetBaseURL(),
		now:     time.Now,
	}
}

func (p *PasswordResets) WithLogger(logger Logger) *PasswordResets {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithClock overrides the time source. Used by tests to move past the
// validity window without sleeping.
func (p *PasswordResets) WithClock(now func() time.Time) *PasswordResets {
	if now != nil {
		p.now = now
	}
	return p
}

// Request issues a reset token for the account registered under email. An
// unknown email is externally indistinguishable from a known one: nothing is
// mutated, nothing is sent, and the caller gets the same nil. If the mail
// transport fails the stored pair is rolled back so a dead link is never
// left active.
func (p *PasswordResets) Request(ctx context.Context, email string) error {
	user, err := p.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			p.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	rawToken, tokenHash, err := generateResetToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset token")
	}

	expiry := p.now().Add(p.ttl)
	if err := p.repo.Users().SetResetToken(ctx, user.ID, tokenHash, expiry); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
	}

	msg := ResetEmail(user.Email, p.baseURL, rawToken)
	if err := p.mailer.Send(ctx, msg); err != nil {
		p.logger.Error("reset email send failed, rolling back token", "error", err)

		if clearErr := p.repo.Users().ClearResetToken(ctx, user.ID); clearErr != nil {
			p.logger.Error("failed to roll back reset token", "error", clearErr)
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "email could not be sent")
	}

	return nil
}

// Consume validates and atomically spends a reset token: the stored hash
// must match and the expiry must still be live, and the same statement sets
// the new password hash and clears the pair. A second consume with the same
// raw token fails because the state already transitioned back to absent.
func (p *PasswordResets) Consume(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" {
		return ErrResetTokenInvalid
	}

	if len(newPassword) < 8 {
		return goerrors.New("password must be at least 8 characters", goerrors.CategoryValidation)
	}

	passwordHash, err := p.hasher.HashPassword(newPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	tokenHash := hashResetToken(rawToken)

	if _, err := p.repo.Users().ConsumeResetToken(ctx, tokenHash, passwordHash, p.now()); err != nil {
		if goerrors.IsNotFound(err) {
			return ErrResetTokenInvalid
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume reset token")
	}

	return nil
}

// generateResetToken returns the raw token handed to the user and the sha256
// hex digest stored server-side. Only the digest ever touches the database.
func generateResetToken() (raw string, hash string, err error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = hex.EncodeToString(buf)
	return raw, hashResetToken(raw), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
