package identity

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AuthControllerRoutes holds the mount points for the auth endpoints
type AuthControllerRoutes struct {
	Register       string
	Login          string
	ForgotPassword string
	ResetPassword  string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Routes *AuthControllerRoutes

	Credentials *Credentials
	Auther      Authenticator
	Tokens      TokenService
	Resets      *PasswordResets
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:       "/auth/register",
			Login:          "/auth/login",
			ForgotPassword: "/auth/forgot-password",
			ResetPassword:  "/auth/reset-password/:token",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Credentials == nil {
		panic("Missing Credentials in auth controller...")
	}

	if c.Auther == nil || c.Tokens == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Resets == nil {
		panic("Missing PasswordResets in auth controller...")
	}

	return c
}

func WithCredentials(creds *Credentials) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Credentials = creds
		return c
	}
}

func WithAuthenticator(auther Authenticator, tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		c.Tokens = tokens
		return c
	}
}

func WithPasswordResets(resets *PasswordResets) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Resets = resets
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// RegisterAuthRoutes mounts the public auth endpoints
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("auth.forgot-password")

	app.Post(controller.Routes.ResetPassword, controller.ResetPasswordPost).
		SetName("auth.reset-password")
}

// UserSummary is the read projection returned by register and login; the
// password hash never appears here.
type UserSummary struct {
	ID        string `json:"id"`
	DisplayID int64  `json:"display_id"`
	FullName  string `json:"fullname"`
	Email     string `json:"email"`
	Phone     string `json:"phone_number"`
	Address   string `json:"address"`
	Role      string `json:"role"`
	Token     string `json:"token,omitempty"`
}

func summarize(user *User, token string) UserSummary {
	return UserSummary{
		ID:        user.ID.String(),
		DisplayID: user.DisplayID,
		FullName:  user.FullName,
		Email:     user.Email,
		Phone:     user.Phone,
		Address:   user.Address,
		Role:      string(user.Role),
		Token:     token,
	}
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterUserMessage)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return respondError(ctx, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "error parsing body"))
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	user, err := a.Credentials.Register(ctx.Context(), *payload)
	if err != nil {
		a.Logger.Error("register user error: ", "error", err)
		return respondError(ctx, a.Logger, err)
	}

	token, err := a.Tokens.Generate(user.Identity())
	if err != nil {
		a.Logger.Error("register token error: ", "error", err)
		return respondError(ctx, a.Logger, err)
	}

	return ctx.JSON(fiber.StatusCreated, summarize(user, token))
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return respondError(ctx, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "error parsing body"))
	}

	if err := payload.Validate(); err != nil {
		return respondError(ctx, a.Logger, errors.Wrap(err, errors.CategoryValidation, "invalid login payload"))
	}

	token, user, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return respondError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, summarize(user, token))
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *AuthController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("forgot password parse payload: ", "error", err)
		return respondError(ctx, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "error parsing body"))
	}

	if err := payload.Validate(); err != nil {
		return respondError(ctx, a.Logger, errors.Wrap(err, errors.CategoryValidation, "invalid email"))
	}

	if err := a.Resets.Request(ctx.Context(), payload.Email); err != nil {
		return respondError(ctx, a.Logger, err)
	}

	// Identical acknowledgement whether or not the account exists.
	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "If an account exists, a reset email has been sent.",
	})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 100),
		),
	)
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	rawToken := ctx.Param("token", "")
	payload := new(ResetPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload: ", "error", err)
		return respondError(ctx, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "error parsing body"))
	}

	if err := payload.Validate(); err != nil {
		return respondError(ctx, a.Logger, errors.Wrap(err, errors.CategoryValidation, "invalid password"))
	}

	if err := a.Resets.Consume(ctx.Context(), rawToken, payload.Password); err != nil {
		return respondError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "Password has been updated successfully",
	})
}

// respondError maps rich errors onto HTTP statuses. Internal failures are
// logged with full detail but surfaced generically.
func respondError(ctx router.Context, logger Logger, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred")
	}

	status := statusForCategory(richErr.Category)

	if status >= router.StatusInternalServerError {
		logger.Error("internal error", "error", richErr.Message, "category", richErr.Category)
		return ctx.JSON(status, map[string]string{
			"message": "Server error",
		})
	}

	return ctx.JSON(status, map[string]any{
		"message":   richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func statusForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return router.StatusBadRequest
	case errors.CategoryConflict:
		return fiber.StatusConflict
	case errors.CategoryAuth:
		return router.StatusUnauthorized
	case errors.CategoryAuthz:
		return router.StatusForbidden
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	default:
		return router.StatusInternalServerError
	}
}
