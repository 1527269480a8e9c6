package httpserver

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	domain "authboilerplate/backend/internal/domain/auth"
)

const minPasswordLength = 6

var (
	errInvalidEmail  = errors.New("Invalid email address")
	errShortPassword = errors.New("Password must be at least 6 characters")
	errNameRequired  = errors.New("Name is required")
	errTokenRequired = errors.New("Token is required")
	errUserIDMissing = errors.New("User ID is required")
)

// validEmail accepts a bare addr-spec; display names and angle brackets are rejected.
func validEmail(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return false
	}
	at := strings.LastIndex(raw, "@")
	return at > 0 && strings.Contains(raw[at+1:], ".")
}

// firstInvalid returns the first failing check, in argument order.
func firstInvalid(checks ...error) error {
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func checkEmail(raw string) error {
	if !validEmail(raw) {
		return errInvalidEmail
	}
	return nil
}

// checkPassword counts characters for the minimum and bytes for the maximum,
// since the hasher's limit is in bytes.
func checkPassword(pw string) error {
	if utf8.RuneCountInString(pw) < minPasswordLength {
		return errShortPassword
	}
	if len(pw) > domain.MaxPasswordBytes {
		return domain.ErrPasswordTooLong
	}
	return nil
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errNameRequired
	}
	return nil
}

func checkToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errTokenRequired
	}
	return nil
}
