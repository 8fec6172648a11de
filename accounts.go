package ident

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Accounts orchestrates the credential flows against the store, the human
// verifier, and the token service. It holds no mutable state beyond its
// collaborators and is safe for concurrent use.
type Accounts struct {
	store      UserStore
	tokens     *TokenService
	verifier   HumanVerifier
	skipVerify bool
	logger     Logger
}

// NewAccounts returns the flow orchestrator. The verifier gates both
// registration and login.
func NewAccounts(store UserStore, tokens *TokenService, verifier HumanVerifier) *Accounts {
	return &Accounts{
		store:    store,
		tokens:   tokens,
		verifier: verifier,
		logger:   defLogger{},
	}
}

// WithLogger replaces the default logger.
func (a *Accounts) WithLogger(logger Logger) *Accounts {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithVerificationBypass treats human verification as automatically
// satisfied. An escape hatch for non-production environments; it must never
// be enabled where the service is reachable from the public internet.
func (a *Accounts) WithVerificationBypass(skip bool) *Accounts {
	a.skipVerify = skip
	return a
}

// RegisterInput carries the registration payload plus the remote address
// forwarded to the human-verification service.
type RegisterInput struct {
	Name              string
	Email             string
	Password          string
	Organization      string
	VerificationToken string
	RemoteIP          string
}

// LoginInput carries the login payload.
type LoginInput struct {
	Email             string
	Password          string
	VerificationToken string
	RemoteIP          string
}

// AuthResult pairs the persisted record with a freshly issued session token.
type AuthResult struct {
	User  *User
	Token string
}

// Register runs the registration flow. Checks short-circuit in a fixed
// order: required fields, human verification, email grammar, password
// strength, uniqueness. On success one record is persisted (verified=false)
// and a 7-day token is issued.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if anyMissing(in.Name, in.Email, in.Password) {
		return nil, missingFieldError("Name, email, and password are required")
	}

	if err := a.verifyHuman(ctx, in.VerificationToken, in.RemoteIP); err != nil {
		return nil, err
	}

	email := NormalizeEmail(in.Email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}

	if unmet := ValidatePasswordStrength(in.Password); len(unmet) > 0 {
		return nil, weakPasswordError(unmet)
	}

	name := strings.TrimSpace(in.Name)
	organization := strings.TrimSpace(in.Organization)
	if details := validateProfileFields(&name, &organization); len(details) > 0 {
		return nil, validationError(details)
	}

	if _, err := a.store.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !goerrors.IsNotFound(err) {
		a.logger.Error("Register email lookup failed for %s: %v", email, err)
		return nil, internalError(err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		a.logger.Error("Register password hashing failed: %v", err)
		return nil, internalError(err)
	}

	user, err := a.store.CreateUser(ctx, &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Organization: organization,
		Verified:     false,
	})
	if err != nil {
		// The store's unique constraint wins races the lookup above cannot.
		if goerrors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		a.logger.Error("Register persist failed for %s: %v", email, err)
		return nil, internalError(err)
	}

	token, err := a.tokens.Issue(user, RegisterTokenTTL)
	if err != nil {
		a.logger.Error("Register token issuance failed for user %s: %v", user.ID.Hex(), err)
		return nil, internalError(err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login runs the login flow and issues a 30-day token. An unknown email and
// a wrong password produce the same error on purpose.
func (a *Accounts) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if anyMissing(in.Email, in.Password) {
		return nil, missingFieldError("Email and password are required")
	}

	if err := a.verifyHuman(ctx, in.VerificationToken, in.RemoteIP); err != nil {
		return nil, err
	}

	email := NormalizeEmail(in.Email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}

	user, err := a.store.FindUserByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		a.logger.Error("Login email lookup failed for %s: %v", email, err)
		return nil, internalError(err)
	}

	if err := ComparePasswordAndHash(in.Password, user.PasswordHash); err != nil {
		// A malformed stored hash is indistinguishable from a mismatch to
		// the caller; it is logged for operators.
		if !goerrors.Is(err, ErrMismatchedHashAndPassword) {
			a.logger.Error("Login stored hash is malformed for user %s: %v", user.ID.Hex(), err)
		}
		return nil, ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(user, LoginTokenTTL)
	if err != nil {
		a.logger.Error("Login token issuance failed for user %s: %v", user.ID.Hex(), err)
		return nil, internalError(err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Profile fetches the record for an authenticated subject.
func (a *Accounts) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := a.store.FindUserByID(ctx, userID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		a.logger.Error("Profile lookup failed for user %s: %v", userID, err)
		return nil, internalError(err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to name and organization.
func (a *Accounts) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error) {
	if update.Name == nil && update.Organization == nil {
		return a.Profile(ctx, userID)
	}

	if details := validateProfileFields(update.Name, update.Organization); len(details) > 0 {
		return nil, validationError(details)
	}

	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		update.Name = &trimmed
	}
	if update.Organization != nil {
		trimmed := strings.TrimSpace(*update.Organization)
		update.Organization = &trimmed
	}

	user, err := a.store.UpdateUserProfile(ctx, userID, update)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		a.logger.Error("UpdateProfile persist failed for user %s: %v", userID, err)
		return nil, internalError(err)
	}
	return user, nil
}

// ListUsers returns a page of public records. Any valid token may call this;
// role enforcement is a likely future requirement, not current behavior.
func (a *Accounts) ListUsers(ctx context.Context, q ListQuery) ([]*PublicUser, Pagination, error) {
	q.Sanitize()

	users, total, err := a.store.ListUsers(ctx, q)
	if err != nil {
		a.logger.Error("ListUsers query failed: %v", err)
		return nil, Pagination{}, internalError(err)
	}

	public := make([]*PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}

	return public, NewPagination(q, total), nil
}

// Ping reports store reachability for health checks.
func (a *Accounts) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

func (a *Accounts) verifyHuman(ctx context.Context, token, remoteIP string) error {
	if a.skipVerify {
		return nil
	}

	if a.verifier == nil {
		a.logger.Error("Human verifier is not configured")
		return ErrVerificationFailed
	}

	if strings.TrimSpace(token) == "" {
		return ErrVerificationRequired
	}

	if err := a.verifier.Verify(ctx, token, remoteIP); err != nil {
		a.logger.Warn("Human verification rejected: %v", err)
		return ErrVerificationFailed
	}

	return nil
}
