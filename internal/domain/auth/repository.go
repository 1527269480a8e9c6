package auth

import (
	"context"
	"time"
)

// Directory is the credential and user store. Lookups return (nil, nil) when
// the user is absent; errors are reserved for backend failures.
type Directory interface {
	// CreateUser persists a new user. The first user ever stored becomes admin.
	CreateUser(ctx context.Context, input NewUser) (*User, error)
	// ValidateCredentials returns nil without error for an unknown email or a wrong password.
	ValidateCredentials(ctx context.Context, email, password string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// ListUsers returns every user, newest first.
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	VerifyUserEmail(ctx context.Context, email string) (bool, error)
	UpdateUserPassword(ctx context.Context, email, password string) (bool, error)
	PromoteToAdmin(ctx context.Context, id string) (bool, error)
	UserCount(ctx context.Context) (int, error)
}

// NewUser carries the input for Directory.CreateUser.
type NewUser struct {
	Email    string
	Password string
	Name     string
	Role     UserRole
}

// UserUpdate lists the mutable profile fields. Nil fields are left untouched.
type UserUpdate struct {
	Name  *string
	Email *string
}

// PasswordHasher hashes and compares passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// TokenRepository stores verification and reset tokens keyed by the hash of their secret.
type TokenRepository interface {
	Save(ctx context.Context, token *VerificationToken) error
	// Find returns (nil, nil) when no token matches.
	Find(ctx context.Context, secretHash string) (*VerificationToken, error)
	// MarkUsed flips used to true only if it was false, reporting whether it did.
	MarkUsed(ctx context.Context, secretHash string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
