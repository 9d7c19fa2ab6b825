package service

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Password policy failures, in the order they are checked.
var (
	ErrPasswordRequired  = errors.New("Password is required.")
	ErrPasswordTooShort  = errors.New("Password must be at least 6 characters.")
	ErrPasswordNoUpper   = errors.New("Password must contain at least one uppercase letter.")
	ErrPasswordNoLower   = errors.New("Password must contain at least one lowercase letter.")
	ErrPasswordNoDigit   = errors.New("Password must contain at least one number.")
	ErrPasswordNoSpecial = errors.New("Password must contain at least one special character.")
)

const (
	minPasswordLength = 6
	minNameLength     = 2
	passwordSpecials  = `!@#$%^&*(),.?":{}|<>`
)

var (
	farmerCodePattern = regexp.MustCompile(`^[0-9]{6}$`)
	validate          = validator.New(validator.WithRequiredStructEnabled())
)

// ValidatePassword checks password against the strength rules and returns
// the first rule it breaks, or nil. Letter, digit and special classes are
// ASCII only; the length counts characters, not bytes.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
		if strings.ContainsRune(passwordSpecials, r) {
			special = true
		}
	}

	switch {
	case !upper:
		return ErrPasswordNoUpper
	case !lower:
		return ErrPasswordNoLower
	case !digit:
		return ErrPasswordNoDigit
	case !special:
		return ErrPasswordNoSpecial
	}
	return nil
}

func validateName(name string) string {
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) < minNameLength {
		return "Name must be at least 2 characters."
	}
	return ""
}

func validateEmail(email string) string {
	if email == "" {
		return "Email is required."
	}
	if err := validate.Var(email, "email"); err != nil {
		return "Please enter a valid email address."
	}
	return ""
}

// normalizeEmail is applied before every lookup and insert so that the
// unique index compares like with like.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
