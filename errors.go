package ident

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced on rich errors so clients and logs can key off a
// stable identifier instead of the human-readable message.
const (
	TextCodeMissingField         = "MISSING_FIELD"
	TextCodeVerificationRequired = "VERIFICATION_REQUIRED"
	TextCodeVerificationFailed   = "VERIFICATION_FAILED"
	TextCodeInvalidEmail         = "INVALID_EMAIL"
	TextCodeWeakPassword         = "WEAK_PASSWORD"
	TextCodeEmailTaken           = "EMAIL_TAKEN"
	TextCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	TextCodeTokenRequired        = "TOKEN_REQUIRED"
	TextCodeTokenExpired         = "TOKEN_EXPIRED"
	TextCodeTokenMalformed       = "TOKEN_MALFORMED"
	TextCodeNotFound             = "NOT_FOUND"
	TextCodeInternal             = "INTERNAL"
)

// ErrMismatchedHashAndPassword is returned by ComparePasswordAndHash when the
// cleartext does not match the stored hash.
var ErrMismatchedHashAndPassword = errors.New("mismatched password and hash")

// ErrNoEmptyPassword rejects hashing an empty string.
var ErrNoEmptyPassword = errors.New("password must not be empty")

// ErrVerificationRequired means the challenge token was absent.
var ErrVerificationRequired = goerrors.New("Human verification is required", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeVerificationRequired)

// ErrVerificationFailed means the challenge service rejected the token.
var ErrVerificationFailed = goerrors.New("Human verification failed", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeVerificationFailed)

// ErrInvalidEmail rejects addresses that do not match a standard grammar.
var ErrInvalidEmail = goerrors.New("Please enter a valid email address", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeInvalidEmail)

// ErrEmailTaken signals a uniqueness violation on the lowercased email.
var ErrEmailTaken = goerrors.New("User with this email already exists", goerrors.CategoryConflict).
	WithCode(goerrors.CodeConflict).
	WithTextCode(TextCodeEmailTaken)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response never reveals which emails are registered.
var ErrInvalidCredentials = goerrors.New("Invalid email or password", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCredentials)

// ErrTokenRequired means no candidate token was found on the request.
var ErrTokenRequired = goerrors.New("Authorization token required", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenRequired)

// ErrTokenExpired and ErrTokenMalformed carry the same client-facing message;
// the distinction lives only in the text code for server-side logs.
var ErrTokenExpired = goerrors.New("Invalid or expired token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

var ErrTokenMalformed = goerrors.New("Invalid or expired token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrUserNotFound is returned when an authenticated subject no longer exists.
var ErrUserNotFound = goerrors.New("User not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode(TextCodeNotFound)

// ErrServer is the normalized shape for unexpected collaborator failures.
// Internal detail never reaches the client; it is logged at the flow boundary.
var ErrServer = goerrors.New("Internal server error", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal).
	WithTextCode(TextCodeInternal)

// missingFieldError builds the required-field rejection with a flow-specific
// message (registration and login name different field sets).
func missingFieldError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeMissingField)
}

// weakPasswordError attaches the list of unmet strength rules.
func weakPasswordError(details []string) *goerrors.Error {
	return goerrors.New("Password validation failed", goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeWeakPassword).
		WithMetadata(map[string]any{"details": details})
}

// validationError wraps field-level validation failures (name/organization
// bounds) with their messages as details.
func validationError(details []string) *goerrors.Error {
	return goerrors.New("Validation failed", goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"details": details})
}

// internalError logs nothing itself; callers log the cause and clients see
// only the normalized message.
func internalError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "Internal server error").
		WithCode(goerrors.CodeInternal).
		WithTextCode(TextCodeInternal)
}

// IsTokenExpiredError reports whether verification failed on expiry.
func IsTokenExpiredError(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == TextCodeTokenExpired
	}
	return err != nil && strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError reports whether verification failed on anything other
// than expiry (bad signature, garbage input, unexpected claim shape).
func IsMalformedError(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == TextCodeTokenMalformed
	}
	return err != nil && strings.Contains(err.Error(), "token is malformed")
}
