package auth

import (
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailExists signals a duplicate email registration.
	ErrEmailExists = errors.New("User already exists")
	// ErrSessionInvalid means a supplied session token cannot be validated.
	ErrSessionInvalid = errors.New("session invalid or expired")
	// ErrUserNotFound indicates missing user.
	ErrUserNotFound = errors.New("User not found")
	// ErrInvalidRole indicates the provided role is not supported.
	ErrInvalidRole = errors.New("invalid role")
	// ErrEmailAlreadyVerified is returned when re-sending verification for a verified account.
	ErrEmailAlreadyVerified = errors.New("Email is already verified")
	// ErrAlreadyAdmin is returned when promoting a user who already holds the admin role.
	ErrAlreadyAdmin = errors.New("User is already an admin")
	// ErrPasswordTooLong is returned when a password exceeds what the hasher can store.
	ErrPasswordTooLong = errors.New("Password must be at most 72 bytes")
)

// MaxPasswordBytes is the longest password the hasher accepts.
const MaxPasswordBytes = 72

// User models the authentication entity persisted in a Directory.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	PasswordHash  string     `json:"-"`
	EmailVerified bool       `json:"emailVerified"`
	Role          UserRole   `json:"role"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// Sanitized returns a copy safe to hand outside the directory.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

// Session is the identity carried in a signed session artifact.
type Session struct {
	UserID        string   `json:"id"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	EmailVerified bool     `json:"emailVerified"`
	Role          UserRole `json:"role"`
}

// SessionFor derives the session payload for an authenticated user.
func SessionFor(u *User) Session {
	return Session{
		UserID:        u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		Role:          u.Role,
	}
}

// Credentials captures raw credential input for login.
type Credentials struct {
	Email    string
	Password string
}
