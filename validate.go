package ident

import (
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Password strength rule messages, returned verbatim in the details list.
const (
	passwordRuleLength    = "Password must be at least 8 characters long"
	passwordRuleLowercase = "Password must contain at least one lowercase letter"
	passwordRuleUppercase = "Password must contain at least one uppercase letter"
	passwordRuleDigit     = "Password must contain at least one number"
)

const minPasswordLength = 8

// ValidatePasswordStrength returns the list of unmet strength rules, empty
// when the password is acceptable. All rules are evaluated so the client can
// fix everything in one pass.
func ValidatePasswordStrength(password string) []string {
	var unmet []string

	if len(password) < minPasswordLength {
		unmet = append(unmet, passwordRuleLength)
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLower {
		unmet = append(unmet, passwordRuleLowercase)
	}
	if !hasUpper {
		unmet = append(unmet, passwordRuleUppercase)
	}
	if !hasDigit {
		unmet = append(unmet, passwordRuleDigit)
	}

	return unmet
}

// NormalizeEmail trims and lowercases an address. Storage and lookups always
// use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail checks the address against a standard grammar.
func validEmail(email string) bool {
	return validation.Validate(email, validation.Required, is.Email) == nil
}

// anyMissing reports whether any of the values is blank after trimming.
func anyMissing(values ...string) bool {
	for _, v := range values {
		if validation.Validate(strings.TrimSpace(v), validation.Required) != nil {
			return true
		}
	}
	return false
}

const (
	maxNameLength         = 50
	maxOrganizationLength = 100
)

// validateProfileFields checks display name and organization bounds; values
// are validated after trimming. Returns rule messages, empty when valid.
func validateProfileFields(name, organization *string) []string {
	var details []string

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if err := validation.Validate(trimmed, validation.Required, validation.Length(1, maxNameLength)); err != nil {
			details = append(details, "Name must be between 1 and 50 characters")
		}
	}

	if organization != nil {
		trimmed := strings.TrimSpace(*organization)
		if err := validation.Validate(trimmed, validation.Length(0, maxOrganizationLength)); err != nil {
			details = append(details, "Organization name cannot exceed 100 characters")
		}
	}

	return details
}
