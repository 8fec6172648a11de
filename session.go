package ident

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrUnableToFindSession is returned when a handler runs without validated
// claims in the request context.
var ErrUnableToFindSession = errors.New("unable to find session")

// SessionFromContext returns the claims stored by the auth middleware.
// Handlers behind Protected or the route guard can rely on it.
func SessionFromContext(c *fiber.Ctx) (*Claims, error) {
	v := c.Locals(SessionContextKey)
	if v == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := v.(*Claims)
	if !ok || claims == nil {
		return nil, ErrUnableToFindSession
	}

	return claims, nil
}
