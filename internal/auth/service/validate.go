package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	matriculaPattern = regexp.MustCompile(`^[A-Za-z]{2}[0-9]{11}$`)
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Password characters rejected outright. Kept small on purpose, these are
// the ones the legacy clients could not round-trip.
const forbiddenPasswordChars = `()"!/=?¡`

// ValidationError carries every violated field, not just the first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Violations, "; "))
}

// validator accumulates violations across a request body.
type validator struct {
	violations []string
}

func (v *validator) addf(format string, args ...any) {
	v.violations = append(v.violations, fmt.Sprintf(format, args...))
}

func (v *validator) err() error {
	if len(v.violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: v.violations}
}

func (v *validator) matricula(value string) {
	if !matriculaPattern.MatchString(value) {
		v.addf("matricula must be 2 letters followed by 11 digits")
	}
}

func (v *validator) username(value string) {
	if n := len(value); n < 3 || n > 25 {
		v.addf("username must be between 3 and 25 characters")
	}
}

func (v *validator) email(value string) {
	if !emailPattern.MatchString(value) {
		v.addf("email is not a valid address")
	}
}

func (v *validator) password(value string) {
	if len(value) < 10 {
		v.addf("password must be at least 10 characters")
	}

	var hasUpper, hasDigit bool
	for _, r := range value {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if !hasUpper {
		v.addf("password must contain at least one uppercase letter")
	}
	if !hasDigit {
		v.addf("password must contain at least one digit")
	}
	if strings.ContainsAny(value, forbiddenPasswordChars) {
		v.addf("password contains a forbidden character")
	}
}

func (v *validator) required(name, value string) {
	if strings.TrimSpace(value) == "" {
		v.addf("%s is required", name)
	}
}
