package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity record. The password hash never leaves the process
// through a JSON projection, and the reset token pair is only ever set or
// cleared together.
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	DisplayID        int64      `bun:"display_id,notnull,unique" json:"display_id,omitempty"`
	Role             UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	FullName         string     `bun:"fullname,notnull" json:"fullname,omitempty"`
	Email            string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone            string     `bun:"phone_number,notnull" json:"phone_number,omitempty"`
	Address          string     `bun:"address,notnull" json:"address,omitempty"`
	PasswordHash     string     `bun:"password_hash,notnull" json:"-"`
	ResetTokenHash   *string    `bun:"reset_token_hash,nullzero" json:"-"`
	ResetTokenExpiry *time.Time `bun:"reset_token_expiry,nullzero" json:"-"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasPendingReset reports whether a reset token is currently stored. It does
// not check expiry; that happens lazily at consume time.
func (u *User) HasPendingReset() bool {
	return u.ResetTokenHash != nil && u.ResetTokenExpiry != nil
}

// Identity returns the token-facing view of the user.
func (u *User) Identity() Identity {
	return userIdentity{
		id:        u.ID.String(),
		displayID: u.DisplayID,
		email:     u.Email,
		role:      string(u.Role),
	}
}

type userIdentity struct {
	id        string
	displayID int64
	email     string
	role      string
}

func (a userIdentity) ID() string       { return a.id }
func (a userIdentity) DisplayID() int64 { return a.displayID }
func (a userIdentity) Email() string    { return a.email }
func (a userIdentity) Role() string     { return a.role }

var _ Identity = userIdentity{}

// Counter is the allocator state for a named sequence. The value is a
// high-water mark and only ever increases.
type Counter struct {
	bun.BaseModel `bun:"table:counters,alias:cnt"`
	Name          string `bun:"name,pk" json:"name"`
	Value         int64  `bun:"value,notnull" json:"value"`
}

// UserSequence is the counter name backing display id allocation.
const UserSequence = "user_display_id"
