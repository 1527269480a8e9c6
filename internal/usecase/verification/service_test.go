package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "authboilerplate/backend/internal/domain/auth"
	"authboilerplate/backend/internal/infrastructure/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *memory.TokenRepository, *fakeClock) {
	t.Helper()
	repo := memory.NewTokenRepository()
	clock := &fakeClock{now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewService(repo, zap.NewNop())
	svc.nowFunc = clock.Now
	return svc, repo, clock
}

func TestCreateToken_SecretShapeAndStorage(t *testing.T) {
	ctx := context.Background()
	svc, repo, clock := newTestService(t)

	secret, err := svc.CreateEmailVerificationToken(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.Len(t, secret, 64)

	stored, err := repo.Find(ctx, HashSecret(secret))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "carol@example.com", stored.Email)
	assert.Equal(t, domain.TokenEmailVerification, stored.Kind)
	assert.Equal(t, clock.Now().Add(24*time.Hour), stored.ExpiresAt)
	assert.False(t, stored.Used)
	assert.NotEmpty(t, stored.ID)

	raw, err := repo.Find(ctx, secret)
	require.NoError(t, err)
	assert.Nil(t, raw, "secret must not be the storage key")

	other, err := svc.CreatePasswordResetToken(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
	reset, _ := repo.Find(ctx, HashSecret(other))
	assert.Equal(t, clock.Now().Add(time.Hour), reset.ExpiresAt)
}

func TestCreateToken_RandomFailure(t *testing.T) {
	svc, repo, _ := newTestService(t)
	svc.readRand = func([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

	_, err := svc.CreatePasswordResetToken(context.Background(), "a@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
	assert.Zero(t, repo.Len())
}

func TestCheckToken_DoesNotConsume(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	secret, err := svc.CreatePasswordResetToken(ctx, "a@example.com")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := svc.CheckToken(ctx, secret, domain.TokenPasswordReset)
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Equal(t, "a@example.com", res.Email)
	}

	res, err := svc.VerifyToken(ctx, secret, domain.TokenPasswordReset)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestVerifyToken_SingleUse(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	secret, err := svc.CreatePasswordResetToken(ctx, "a@example.com")
	require.NoError(t, err)

	first, err := svc.VerifyToken(ctx, secret, domain.TokenPasswordReset)
	require.NoError(t, err)
	assert.True(t, first.Valid)
	assert.Equal(t, "a@example.com", first.Email)

	second, err := svc.VerifyToken(ctx, secret, domain.TokenPasswordReset)
	require.NoError(t, err)
	assert.False(t, second.Valid)
	assert.Empty(t, second.Email)
	assert.ErrorIs(t, second.Reason, domain.ErrTokenUsed)
	assert.Equal(t, "Token already used", second.Reason.Error())

	check, err := svc.CheckToken(ctx, secret, domain.TokenPasswordReset)
	require.NoError(t, err)
	assert.ErrorIs(t, check.Reason, domain.ErrTokenUsed)
}

func TestVerifyToken_UsedWinsOverExpired(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(t)
	secret, _ := svc.CreatePasswordResetToken(ctx, "a@example.com")
	_, err := svc.VerifyToken(ctx, secret, domain.TokenPasswordReset)
	require.NoError(t, err)

	clock.Advance(48 * time.Hour)
	res, err := svc.VerifyToken(ctx, secret, domain.TokenPasswordReset)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Reason, domain.ErrTokenUsed)
}

func TestVerifyToken_Expired(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(t)
	secret, err := svc.CreateEmailVerificationToken(ctx, "carol@example.com")
	require.NoError(t, err)

	clock.Advance(24*time.Hour + time.Second)
	res, err := svc.VerifyToken(ctx, secret, domain.TokenEmailVerification)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Token expired", res.Reason.Error())

	// still expired, never consumed
	res, err = svc.CheckToken(ctx, secret, domain.TokenEmailVerification)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Reason, domain.ErrTokenExpired)
}

func TestVerifyToken_WrongKindAndUnknown(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	secret, _ := svc.CreateEmailVerificationToken(ctx, "a@example.com")

	res, err := svc.VerifyToken(ctx, secret, domain.TokenPasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "Invalid token type", res.Reason.Error())

	// the wrong-kind attempt did not burn the token
	res, err = svc.VerifyToken(ctx, secret, domain.TokenEmailVerification)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = svc.CheckToken(ctx, "deadbeef", domain.TokenEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "Invalid token", res.Reason.Error())
}

func TestVerifyToken_ConcurrentRedemption(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	secret, _ := svc.CreatePasswordResetToken(ctx, "a@example.com")

	const n = 12
	results := make(chan domain.TokenCheck, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.VerifyToken(ctx, secret, domain.TokenPasswordReset)
			if err == nil {
				results <- res
			}
		}()
	}
	wg.Wait()
	close(results)

	valid, used := 0, 0
	for res := range results {
		if res.Valid {
			valid++
		} else if errors.Is(res.Reason, domain.ErrTokenUsed) {
			used++
		}
	}
	assert.Equal(t, 1, valid)
	assert.Equal(t, n-1, used)
}

type raceRepo struct {
	*memory.TokenRepository
}

// MarkUsed simulates a concurrent redemption landing between Find and MarkUsed.
func (r raceRepo) MarkUsed(ctx context.Context, hash string) (bool, error) {
	_, _ = r.TokenRepository.MarkUsed(ctx, hash)
	return false, nil
}

func TestVerifyToken_LostRaceReportsUsed(t *testing.T) {
	ctx := context.Background()
	repo := raceRepo{memory.NewTokenRepository()}
	svc := NewService(repo, zap.NewNop())
	secret, err := svc.CreatePasswordResetToken(ctx, "a@example.com")
	require.NoError(t, err)

	res, err := svc.VerifyToken(ctx, secret, domain.TokenPasswordReset)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.ErrorIs(t, res.Reason, domain.ErrTokenUsed)
}

func TestCleanupExpiredTokens(t *testing.T) {
	ctx := context.Background()
	svc, repo, clock := newTestService(t)

	n, err := svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, _ = svc.CreatePasswordResetToken(ctx, "a@example.com")
	verify, _ := svc.CreateEmailVerificationToken(ctx, "a@example.com")

	clock.Advance(2 * time.Hour)
	n, err = svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, repo.Len())

	res, _ := svc.CheckToken(ctx, verify, domain.TokenEmailVerification)
	assert.True(t, res.Valid)
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "0123456789...", Prefix("0123456789abcdef"))
	assert.Equal(t, "short", Prefix("short"))
}

func TestRunCleanup_StopsWithContext(t *testing.T) {
	svc, repo, clock := newTestService(t)
	_, err := svc.CreatePasswordResetToken(context.Background(), "dave@example.com")
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunCleanup(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return repo.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
