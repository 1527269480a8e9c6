package auth

import (
	"time"

	domain "authboilerplate/backend/internal/domain/auth"
)

// SessionManager packages a Session into a signed artifact and back.
type SessionManager interface {
	Generate(session domain.Session) (token string, expiresAt time.Time, err error)
	Validate(token string) (domain.Session, error)
}
