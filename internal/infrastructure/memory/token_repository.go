package memory

import (
	"context"
	"sync"
	"time"

	domain "authboilerplate/backend/internal/domain/auth"
)

// TokenRepository keeps verification tokens in a mutex-guarded map.
type TokenRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.VerificationToken
}

var _ domain.TokenRepository = (*TokenRepository)(nil)

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{tokens: make(map[string]domain.VerificationToken)}
}

// Save stores token, replacing any record with the same secret hash.
func (r *TokenRepository) Save(ctx context.Context, token *domain.VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.SecretHash] = *token
	return nil
}

func (r *TokenRepository) Find(ctx context.Context, secretHash string) (*domain.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[secretHash]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *TokenRepository) MarkUsed(ctx context.Context, secretHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[secretHash]
	if !ok || t.Used {
		return false, nil
	}
	t.Used = true
	r.tokens[secretHash] = t
	return true, nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.tokens {
		if now.After(t.ExpiresAt) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored tokens.
func (r *TokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
