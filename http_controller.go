package accounts

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

type AuthControllerRoutes struct {
	Register string
	Verify   string
	Login    string
	User     string
	Health   string
}

// AuthController wires the account lifecycle and the authorization resolver
// to the HTTP surface. All responses are JSON.
type AuthController struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Auther     *Auther
	Authorizer *Authorizer
	Register   *RegisterUserHandler
	Verify     *VerifyAccountHandler
	Routes     *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register: "/register",
			Verify:   "/verify/:token",
			Login:    "/login",
			User:     "/user",
			Health:   "/healthz",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil || c.Authorizer == nil {
		panic("Missing authenticator in auth controller...")
	}

	if c.Register == nil || c.Verify == nil {
		panic("Missing lifecycle handlers in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithRepositoryManager(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthenticator(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithAuthorizer(authorizer *Authorizer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Authorizer = authorizer
		return c
	}
}

func WithLifecycleHandlers(register *RegisterUserHandler, verify *VerifyAccountHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Register = register
		c.Verify = verify
		return c
	}
}

// RegisterAuthRoutes mounts the account endpoints on the app
func RegisterAuthRoutes(app *fiber.App, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegistrationCreate).Name("register.post")
	app.Get(controller.Routes.Verify, controller.VerifyAccount).Name("verify.get")
	app.Post(controller.Routes.Login, controller.LoginPost).Name("login.post")
	app.Get(controller.Routes.User, controller.RequireAuth, controller.CurrentUser).Name("user.get")
	app.Get(controller.Routes.Health, controller.Health).Name("health.get")
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(controller.Routes.Health, fiber.StatusTemporaryRedirect)
	})

	return controller
}

// RegistrationCreatePayload is the register request body
type RegistrationCreatePayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) RegistrationCreate(ctx *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload: %s", err)
		return a.handleError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "error parsing body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %s", err)
		return a.handleError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest))
	}

	if a.Debug {
		fmt.Println("======= ACCOUNT REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("===============================")
	}

	var created *User

	req := RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(u *User) {
			created = u
		},
	}

	if err := a.Register.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: %s", err)
		return a.handleError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(created)
}

func (a *AuthController) VerifyAccount(ctx *fiber.Ctx) error {
	var resp *VerifyAccountResponse

	req := VerifyAccountMessage{
		Token: ctx.Params("token"),
		OnResponse: func(r *VerifyAccountResponse) {
			resp = r
		},
	}

	if err := a.Verify.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("verify account error: %s", err)
		return a.handleError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"verified": true,
		"pruned":   resp.Pruned,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return a.handleError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "error parsing body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.handleError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest))
	}

	user, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Info("login failed for %s", payload.Email)
		return a.handleError(ctx, err)
	}

	return ctx.JSON(user)
}

// RequireAuth parses the credential header and runs the authorization
// resolver, refreshing the access token silently when needed. The
// authenticated view ends up in both fiber locals and the request context.
func (a *AuthController) RequireAuth(ctx *fiber.Ctx) error {
	access, refresh, err := a.Authorizer.ParseCredentialHeader(ctx.Get(fiber.HeaderAuthorization))
	if err != nil {
		return a.handleError(ctx, err)
	}

	user, err := a.Authorizer.Authorize(ctx.Context(), access, refresh)
	if err != nil {
		return a.handleError(ctx, err)
	}

	ctx.Locals("user", user)
	ctx.SetUserContext(WithContext(ctx.UserContext(), user))

	return ctx.Next()
}

func (a *AuthController) CurrentUser(ctx *fiber.Ctx) error {
	user, ok := ctx.Locals("user").(*AuthenticatedUser)
	if !ok {
		return a.handleError(ctx, ErrCredentialsInvalid)
	}

	return ctx.JSON(user)
}

func (a *AuthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}

// handleError maps structured errors to status responses with safe bodies.
// Messages never carry expiry timestamps or other token internals.
func (a *AuthController) handleError(ctx *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	return ctx.Status(status).JSON(fiber.Map{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}
