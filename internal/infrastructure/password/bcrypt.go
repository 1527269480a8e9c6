// Package password hashes user passwords with bcrypt.
package password

import (
	"errors"
	"sync"

	domain "authboilerplate/backend/internal/domain/auth"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for stored passwords.
const DefaultCost = 12

// Bcrypt implements domain.PasswordHasher.
type Bcrypt struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

var _ domain.PasswordHasher = (*Bcrypt)(nil)

// NewBcrypt returns a hasher with the given cost; values below bcrypt.MinCost use DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Cost reports the configured work factor.
func (b *Bcrypt) Cost() int {
	return b.cost
}

// Hash returns the bcrypt hash of password. Passwords over
// domain.MaxPasswordBytes fail with domain.ErrPasswordTooLong.
func (b *Bcrypt) Hash(password string) (string, error) {
	if len(password) > domain.MaxPasswordBytes {
		return "", domain.ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.ErrPasswordTooLong
		}
		return "", err
	}
	return string(h), nil
}

// Compare reports whether password matches hash. An empty hash is compared
// against a throwaway hash so that unknown accounts take as long as wrong passwords.
func (b *Bcrypt) Compare(hash, password string) bool {
	if hash == "" {
		b.dummyOnce.Do(func() {
			b.dummy, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), b.cost)
		})
		_ = bcrypt.CompareHashAndPassword(b.dummy, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
