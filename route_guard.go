package ident

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RouteClass is the guard's classification of a requested path.
type RouteClass int

const (
	// RouteNeutral paths are reachable regardless of session state.
	RouteNeutral RouteClass = iota
	// RouteProtected paths require a valid session.
	RouteProtected
	// RouteAuthOnly paths (login, register) are for anonymous visitors;
	// an authenticated user is redirected away from them.
	RouteAuthOnly
)

// Default cookie and header conventions shared by the guard, the API
// middleware, and the login handler.
const (
	SessionCookieName = "auth-token"
	authScheme        = "Bearer"
	// SessionContextKey is the fiber locals key under which validated
	// claims are stored for downstream handlers.
	SessionContextKey = "session"
)

// RouteGuardConfig configures the navigational route guard.
type RouteGuardConfig struct {
	// Tokens validates candidate session tokens. Required.
	Tokens *TokenService
	// CookieName overrides the session cookie name.
	CookieName string
	// Protected and AuthOnly are matched by path prefix; everything else
	// is neutral.
	Protected []string
	AuthOnly  []string
	// LoginPath receives unauthenticated visitors of protected paths.
	LoginPath string
	// LandingPath receives authenticated visitors of auth-only paths.
	LandingPath string
	// Skip short-circuits the guard for requests it should ignore
	// (API prefixes, static assets). Optional.
	Skip func(c *fiber.Ctx) bool
	// Logger is optional.
	Logger Logger
}

func (cfg *RouteGuardConfig) setDefaults() {
	if cfg.CookieName == "" {
		cfg.CookieName = SessionCookieName
	}
	if len(cfg.Protected) == 0 {
		cfg.Protected = []string{"/dashboard", "/demo", "/profile"}
	}
	if len(cfg.AuthOnly) == 0 {
		cfg.AuthOnly = []string{"/login", "/register"}
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/dashboard"
	}
	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}
}

// Classify returns the route class for a path using the configured prefixes.
func (cfg RouteGuardConfig) Classify(path string) RouteClass {
	for _, prefix := range cfg.Protected {
		if strings.HasPrefix(path, prefix) {
			return RouteProtected
		}
	}
	for _, prefix := range cfg.AuthOnly {
		if strings.HasPrefix(path, prefix) {
			return RouteAuthOnly
		}
	}
	return RouteNeutral
}

// NewRouteGuard intercepts every navigational request before page logic runs.
// It extracts a candidate token from the session cookie, falling back to a
// bearer header, and applies the decision table:
//
//	protected  + unauthenticated -> redirect to login
//	protected  + authenticated   -> allow
//	auth-only  + authenticated   -> redirect to landing
//	auth-only  + unauthenticated -> allow
//	neutral    + either          -> allow
//
// Any token failure collapses to unauthenticated; the guard never surfaces a
// token error to the client. It performs no I/O beyond signature checks.
func NewRouteGuard(cfg RouteGuardConfig) fiber.Handler {
	cfg.setDefaults()

	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}

		class := cfg.Classify(c.Path())
		if class == RouteNeutral {
			return c.Next()
		}

		claims := cfg.authenticate(c)

		switch {
		case class == RouteProtected && claims == nil:
			return c.Redirect(cfg.LoginPath, http.StatusFound)
		case class == RouteAuthOnly && claims != nil:
			return c.Redirect(cfg.LandingPath, http.StatusFound)
		}

		if claims != nil {
			c.Locals(SessionContextKey, claims)
		}
		return c.Next()
	}
}

func (cfg RouteGuardConfig) authenticate(c *fiber.Ctx) *Claims {
	raw := c.Cookies(cfg.CookieName)
	if raw == "" {
		raw = bearerToken(c.Get(fiber.HeaderAuthorization))
	}
	if raw == "" {
		return nil
	}

	claims, err := cfg.Tokens.Validate(raw)
	if err != nil {
		cfg.Logger.Debug("Route guard treating %s as unauthenticated: %v", c.Path(), err)
		return nil
	}
	return claims
}

// Protected returns API middleware that requires a valid bearer token,
// falling back to the session cookie for browser clients. Failures yield a
// JSON 401; validated claims are stored under SessionContextKey.
func Protected(tokens *TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			raw = c.Cookies(SessionCookieName)
		}
		if raw == "" {
			return unauthorizedJSON(c, ErrTokenRequired.Message)
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			return unauthorizedJSON(c, ErrTokenExpired.Message)
		}

		c.Locals(SessionContextKey, claims)
		return c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], authScheme) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorizedJSON(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
}
