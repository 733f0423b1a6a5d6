package identity

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// UsersControllerRoutes holds the mount points for the admin endpoints
type UsersControllerRoutes struct {
	List   string
	Get    string
	Update string
}

// UsersController exposes the admin-only user management surface. Every
// route is expected to sit behind Guard.Authenticate and an admin role
// check, see RegisterUserRoutes.
type UsersController struct {
	Logger Logger
	Routes *UsersControllerRoutes

	Repo RepositoryManager
}

func NewUsersController(repo RepositoryManager) *UsersController {
	if repo == nil {
		panic("Missing RepositoryManager in users controller...")
	}

	return &UsersController{
		Logger: defLogger{},
		Repo:   repo,
		Routes: &UsersControllerRoutes{
			List:   "/users",
			Get:    "/users/:id",
			Update: "/users/:id",
		},
	}
}

func (u *UsersController) WithLogger(logger Logger) *UsersController {
	if logger != nil {
		u.Logger = logger
	}
	return u
}

// RegisterUserRoutes mounts the management endpoints behind the guard:
// every request must carry a valid token AND resolve to an admin.
func RegisterUserRoutes[T any](app router.Router[T], guard *Guard, controller *UsersController) {
	protected := func(handler router.HandlerFunc) router.HandlerFunc {
		return guard.Authenticate()(guard.RequireRole(RoleAdmin)(handler))
	}

	app.Get(controller.Routes.List, protected(controller.ListUsers)).
		SetName("users.list")

	app.Get(controller.Routes.Get, protected(controller.GetUser)).
		SetName("users.get")

	app.Put(controller.Routes.Update, protected(controller.UpdateUser)).
		SetName("users.update")
}

func (u *UsersController) ListUsers(ctx router.Context) error {
	records, err := u.Repo.Users().List(ctx.Context())
	if err != nil {
		u.Logger.Error("list users error: ", "error", err)
		return respondError(ctx, u.Logger, errors.Wrap(err, errors.CategoryInternal, "could not list users"))
	}

	out := make([]UserSummary, 0, len(records))
	for _, record := range records {
		out = append(out, summarize(record, ""))
	}

	return ctx.JSON(router.StatusOK, out)
}

func (u *UsersController) GetUser(ctx router.Context) error {
	record, err := u.findUser(ctx.Context(), ctx.Param("id", ""))
	if err != nil {
		return respondError(ctx, u.Logger, err)
	}

	return ctx.JSON(router.StatusOK, summarize(record, ""))
}

// UpdateUserMessage is the admin update payload
type UpdateUserMessage struct {
	FullName string `form:"fullname" json:"fullname"`
	Email    string `form:"email" json:"email"`
	Phone    string `form:"phone_number" json:"phone_number"`
	Address  string `form:"address" json:"address"`
	Role     string `form:"role" json:"role"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules, empty fields mean "leave as is"
func (r UpdateUserMessage) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			is.Email,
		),
		validation.Field(
			&r.Phone,
			validation.By(ValidatePhoneNumber),
		),
		validation.Field(
			&r.Role,
			validation.By(ValidateOptionalRole),
		),
		validation.Field(
			&r.Password,
			validation.Length(8, 100),
		),
	)
}

func (u *UsersController) UpdateUser(ctx router.Context) error {
	payload := new(UpdateUserMessage)

	if err := ctx.Bind(payload); err != nil {
		u.Logger.Error("update user parse payload: ", "error", err)
		return respondError(ctx, u.Logger, errors.Wrap(err, errors.CategoryBadInput, "error parsing body"))
	}

	if err := payload.Validate(); err != nil {
		return respondError(ctx, u.Logger, errors.Wrap(err, errors.CategoryValidation, "invalid update payload"))
	}

	record, err := u.findUser(ctx.Context(), ctx.Param("id", ""))
	if err != nil {
		return respondError(ctx, u.Logger, err)
	}

	if payload.Email != "" && NormalizeEmail(payload.Email) != record.Email {
		if _, err := u.Repo.Users().GetByEmail(ctx.Context(), payload.Email); err == nil {
			return respondError(ctx, u.Logger, ErrDuplicateEmail)
		}
		record.Email = NormalizeEmail(payload.Email)
	}

	if payload.FullName != "" {
		record.FullName = payload.FullName
	}

	if payload.Phone != "" {
		record.Phone = payload.Phone
	}

	if payload.Address != "" {
		record.Address = payload.Address
	}

	if payload.Role != "" {
		role, _ := ParseRole(payload.Role)
		record.Role = role
	}

	if payload.Password != "" {
		hash, err := HashPassword(payload.Password)
		if err != nil {
			return respondError(ctx, u.Logger, err)
		}
		record.PasswordHash = hash
	}

	updated, err := u.Repo.Users().Update(ctx.Context(), record)
	if err != nil {
		u.Logger.Error("update user error: ", "error", err)
		return respondError(ctx, u.Logger, errors.Wrap(err, errors.CategoryInternal, "could not update user"))
	}

	return ctx.JSON(router.StatusOK, summarize(updated, ""))
}

func (u *UsersController) findUser(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid user id").
			WithCode(fiber.StatusBadRequest)
	}

	record, err := u.Repo.Users().GetByID(ctx, uid.String())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound.Clone().
				WithMetadata(map[string]any{"id": id})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not load user")
	}

	return record, nil
}
