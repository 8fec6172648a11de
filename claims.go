package ident

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the typed session token payload. The JSON keys mirror the wire
// format consumed by existing clients: userId, email, name.
type Claims struct {
	jwt.RegisteredClaims
	UID   string `json:"userId,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// UserID returns the token subject, preferring the explicit userId claim.
func (c *Claims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the embedded absolute expiry, or the zero time when the
// claim is missing.
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issuance timestamp, or the zero time when missing.
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// wellFormed reports whether a decoded token carries the shape this service
// issues. Tokens that parse but do not match are rejected as unauthorized
// rather than propagated as loosely typed values.
func (c *Claims) wellFormed() bool {
	if c == nil {
		return false
	}
	if c.UserID() == "" {
		return false
	}
	return c.RegisteredClaims.ExpiresAt != nil
}
