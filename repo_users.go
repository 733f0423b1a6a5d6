package identity

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeResetTokenSQL is the single conditional update backing reset-token
// consumption: the hash must match AND the expiry must still be ahead of the
// supplied instant, and the pair is cleared in the same statement. Two
// concurrent consumers racing on one token cannot both see a matching row.
var ConsumeResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"reset_token_hash" = NULL,
	"reset_token_expiry" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."reset_token_hash" = ?
AND (
	"usr"."reset_token_expiry" > ?
) RETURNING *;`

var SetResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"reset_token_hash" = ?,
	"reset_token_expiry" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."id" = ?
RETURNING *;`

var ClearResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"reset_token_hash" = NULL,
	"reset_token_expiry" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."id" = ?
RETURNING *;`

type Users interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
	Update(ctx context.Context, record *User, criteria ...repository.UpdateCriteria) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)

	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiry time.Time) error
	SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, tokenHash string, expiry time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	ClearResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*User, error)
	ConsumeResetTokenTx(ctx context.Context, tx bun.IDB, tokenHash, passwordHash string, now time.Time) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

// NormalizeEmail lowercases and trims an address so uniqueness is
// case-insensitive at the write boundary.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) List(ctx context.Context) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().Model(&records).
		Order("display_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *users) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiry time.Time) error {
	return a.SetResetTokenTx(ctx, a.db, id, tokenHash, expiry)
}

func (a *users) SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, tokenHash string, expiry time.Time) error {
	res, err := a.Repository.RawTx(ctx, tx, SetResetTokenSQL, tokenHash, expiry, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	return a.ClearResetTokenTx(ctx, a.db, id)
}

func (a *users) ClearResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := a.Repository.RawTx(ctx, tx, ClearResetTokenSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*User, error) {
	return a.ConsumeResetTokenTx(ctx, a.db, tokenHash, passwordHash, now)
}

func (a *users) ConsumeResetTokenTx(ctx context.Context, tx bun.IDB, tokenHash, passwordHash string, now time.Time) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, ConsumeResetTokenSQL, passwordHash, tokenHash, now)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"reason": "no user matched reset token hash with a live expiry",
			})
	}

	return res[0], nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleAdopter
	}

	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
