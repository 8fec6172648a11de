package ident

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Session TTLs. Registration deliberately issues a shorter session than
// login: a fresh signup is treated as a higher-risk event than a returning
// user. Worth unifying if that asymmetry ever causes support noise.
const (
	RegisterTokenTTL = 7 * 24 * time.Hour
	LoginTokenTTL    = 30 * 24 * time.Hour
)

// TokenService signs and validates HS256 session tokens. It is pure
// computation over the signing key and the clock, safe for concurrent use.
type TokenService struct {
	signingKey []byte
	issuer     string
	logger     Logger
	now        func() time.Time
}

// NewTokenService creates a TokenService for the given server-held secret.
func NewTokenService(signingKey []byte, issuer string, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Tests use it to drive expiry.
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		ts.now = now
	}
	return ts
}

// Issue signs a token for the user with an absolute expiry of now + ttl.
func (ts *TokenService) Issue(user *User, ttl time.Duration) (string, error) {
	if user == nil {
		return "", goerrors.New("user must not be nil", goerrors.CategoryInternal)
	}
	if ttl <= 0 {
		return "", goerrors.New("token TTL must be positive", goerrors.CategoryBadInput)
	}

	now := ts.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:   user.ID.Hex(),
		Email: user.Email,
		Name:  user.Name,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs an arbitrary claims set with the configured key.
func (ts *TokenService) SignClaims(claims *Claims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Validate parses and verifies a raw token and returns its typed claims.
// Expired and tampered tokens yield distinct text codes for logs but share
// one client-facing message; callers must not forward the distinction.
func (ts *TokenService) Validate(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, ts.parserOptions()...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithCode(goerrors.CodeUnauthorized).
			WithTextCode(TextCodeTokenMalformed)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.wellFormed() {
		ts.logger.Error("TokenService validate rejected token with unexpected claim shape")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func (ts *TokenService) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(ts.now)}
	if ts.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.issuer))
	}
	return opts
}
