package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "authboilerplate/backend/internal/domain/auth"
)

// TokenRepository persists verification tokens in PostgreSQL.
type TokenRepository struct {
	db DBTX
}

var _ domain.TokenRepository = (*TokenRepository)(nil)

// NewTokenRepository constructs a repository bound to the given DBTX.
func NewTokenRepository(db DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

// Save inserts token. A token with the same secret hash is overwritten.
func (r *TokenRepository) Save(ctx context.Context, token *domain.VerificationToken) error {
	const query = `
INSERT INTO verification_tokens (id, email, secret_hash, kind, expires_at, created_at, used)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (secret_hash) DO UPDATE
SET id = EXCLUDED.id, email = EXCLUDED.email, kind = EXCLUDED.kind,
    expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at, used = EXCLUDED.used
`
	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.Email,
		token.SecretHash,
		string(token.Kind),
		token.ExpiresAt,
		token.CreatedAt,
		token.Used,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the token stored under secretHash, or nil when there is none.
func (r *TokenRepository) Find(ctx context.Context, secretHash string) (*domain.VerificationToken, error) {
	const query = `
SELECT id, email, secret_hash, kind, expires_at, created_at, used
FROM verification_tokens WHERE secret_hash = $1
`
	var (
		t    domain.VerificationToken
		kind string
	)
	err := r.db.QueryRowContext(ctx, query, secretHash).Scan(
		&t.ID,
		&t.Email,
		&t.SecretHash,
		&kind,
		&t.ExpiresAt,
		&t.CreatedAt,
		&t.Used,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Kind = domain.TokenKind(kind)
	return &t, nil
}

// MarkUsed sets used only while it is still false.
func (r *TokenRepository) MarkUsed(ctx context.Context, secretHash string) (bool, error) {
	const query = `
UPDATE verification_tokens SET used = TRUE
WHERE secret_hash = $1 AND used = FALSE
`
	res, err := r.db.ExecContext(ctx, query, secretHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM verification_tokens WHERE expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
