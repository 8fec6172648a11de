package ident

import (
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// Controller exposes the account flows as JSON endpoints.
type Controller struct {
	Accounts   *Accounts
	Logger     Logger
	CookieName string
	// SecureCookies marks the session cookie Secure; enable in production.
	SecureCookies bool
}

// ControllerOption mutates the controller during construction.
type ControllerOption func(*Controller) *Controller

// NewController builds a Controller for the given flows.
func NewController(accounts *Accounts, opts ...ControllerOption) *Controller {
	c := &Controller{
		Accounts:   accounts,
		Logger:     defLogger{},
		CookieName: SessionCookieName,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Accounts == nil {
		panic("Missing Accounts in ident controller...")
	}

	return c
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithSecureCookies toggles the Secure attribute on session cookies.
func WithSecureCookies(secure bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.SecureCookies = secure
		return c
	}
}

// RegisterRoutes mounts the API. requireAuth protects the profile and
// listing endpoints; pass Protected(tokens).
func (c *Controller) RegisterRoutes(app fiber.Router, requireAuth fiber.Handler) {
	app.Post("/auth/register", c.Register)
	app.Post("/auth/login", c.Login)
	app.Get("/user/profile", requireAuth, c.ProfileShow)
	app.Put("/user/profile", requireAuth, c.ProfileUpdate)
	app.Get("/users", requireAuth, c.UsersList)
	app.Get("/healthz", c.Health)
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	Organization      string `json:"organization"`
	VerificationToken string `json:"verificationToken"`
}

// Register handles POST /auth/register.
func (c *Controller) Register(ctx *fiber.Ctx) error {
	payload := new(RegisterRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return c.badRequest(ctx, "Invalid request body")
	}

	result, err := c.Accounts.Register(ctx.Context(), RegisterInput{
		Name:              payload.Name,
		Email:             payload.Email,
		Password:          payload.Password,
		Organization:      payload.Organization,
		VerificationToken: payload.VerificationToken,
		RemoteIP:          ctx.IP(),
	})
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    result.User.Public(),
		"token":   result.Token,
	})
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	VerificationToken string `json:"verificationToken"`
}

// Login handles POST /auth/login. On success the token is returned in the
// body and mirrored into an http-only, strict-same-site session cookie with
// a matching 30-day expiry.
func (c *Controller) Login(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return c.badRequest(ctx, "Invalid request body")
	}

	result, err := c.Accounts.Login(ctx.Context(), LoginInput{
		Email:             payload.Email,
		Password:          payload.Password,
		VerificationToken: payload.VerificationToken,
		RemoteIP:          ctx.IP(),
	})
	if err != nil {
		return c.renderError(ctx, err)
	}

	c.setSessionCookie(ctx, result.Token, LoginTokenTTL)

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Login successful",
		"user":    result.User.Public(),
		"token":   result.Token,
	})
}

// ProfileShow handles GET /user/profile.
func (c *Controller) ProfileShow(ctx *fiber.Ctx) error {
	claims, err := SessionFromContext(ctx)
	if err != nil {
		return unauthorizedJSON(ctx, ErrTokenRequired.Message)
	}

	user, err := c.Accounts.Profile(ctx.Context(), claims.UserID())
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"user": user.Public()})
}

// ProfileUpdateRequest is the partial profile update payload. Absent fields
// stay untouched; an explicit empty organization clears it.
type ProfileUpdateRequest struct {
	Name         *string `json:"name"`
	Organization *string `json:"organization"`
}

// ProfileUpdate handles PUT /user/profile.
func (c *Controller) ProfileUpdate(ctx *fiber.Ctx) error {
	claims, err := SessionFromContext(ctx)
	if err != nil {
		return unauthorizedJSON(ctx, ErrTokenRequired.Message)
	}

	payload := new(ProfileUpdateRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return c.badRequest(ctx, "Invalid request body")
	}

	user, err := c.Accounts.UpdateProfile(ctx.Context(), claims.UserID(), ProfileUpdate{
		Name:         payload.Name,
		Organization: payload.Organization,
	})
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user.Public(),
	})
}

// UsersList handles GET /users. Any valid token may list; there is no role
// check today.
func (c *Controller) UsersList(ctx *fiber.Ctx) error {
	if _, err := SessionFromContext(ctx); err != nil {
		return unauthorizedJSON(ctx, ErrTokenRequired.Message)
	}

	q := ListQuery{
		Page:   ctx.QueryInt("page", 1),
		Limit:  ctx.QueryInt("limit", defaultPageLimit),
		Search: ctx.Query("search"),
	}

	users, pagination, err := c.Accounts.ListUsers(ctx.Context(), q)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"users":      users,
		"pagination": pagination,
	})
}

// Health handles GET /healthz with a store ping.
func (c *Controller) Health(ctx *fiber.Ctx) error {
	if err := c.Accounts.Ping(ctx.Context()); err != nil {
		c.Logger.Error("Health check store ping failed: %v", err)
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
	}
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

func (c *Controller) setSessionCookie(ctx *fiber.Ctx, token string, ttl time.Duration) {
	ctx.Cookie(&fiber.Cookie{
		Name:     c.CookieName,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		Path:     "/",
		HTTPOnly: true,
		Secure:   c.SecureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie. Logout is a client-side
// discard; this is a convenience for browser flows.
func (c *Controller) ClearSessionCookie(ctx *fiber.Ctx) {
	ctx.Cookie(&fiber.Cookie{
		Name:     c.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * 24 * 365),
		Path:     "/",
		HTTPOnly: true,
		Secure:   c.SecureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (c *Controller) badRequest(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// renderError maps a flow error to an HTTP response. Rich errors carry their
// status code and optional details; anything else is normalized to a 500
// with no internal detail leaked.
func (c *Controller) renderError(ctx *fiber.Ctx, err error) error {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		c.Logger.Error("Unexpected error reached controller: %v", err)
		rich = ErrServer
	}

	status := rich.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	if status >= fiber.StatusInternalServerError {
		c.Logger.Error(
			"Request failed on %s [%s]: %s",
			ctx.Path(),
			rich.TextCode,
			print.MaybePrettyJSON(rich.Metadata),
		)
	}

	body := fiber.Map{"error": rich.Message}
	if details, ok := rich.Metadata["details"]; ok {
		body["details"] = details
	}

	return ctx.Status(status).JSON(body)
}
