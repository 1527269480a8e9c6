package user

import (
	"context"
	"testing"

	domain "authboilerplate/backend/internal/domain/auth"
	"authboilerplate/backend/internal/infrastructure/memory"
	"authboilerplate/backend/internal/infrastructure/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, opts memory.DirectoryOptions) (*Service, *memory.Directory) {
	t.Helper()
	dir, err := memory.NewDirectory(password.NewBcrypt(bcrypt.MinCost), zap.NewNop(), opts)
	require.NoError(t, err)
	return NewService(dir, zap.NewNop()), dir
}

func mustCreate(t *testing.T, dir *memory.Directory, email string) *domain.User {
	t.Helper()
	u, err := dir.CreateUser(context.Background(), domain.NewUser{Email: email, Password: "secret1", Name: "Test"})
	require.NoError(t, err)
	return u
}

func TestGet(t *testing.T) {
	svc, dir := newTestService(t, memory.DirectoryOptions{})
	u := mustCreate(t, dir, "ada@example.com")

	got, err := svc.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrIDRequired)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, dir := newTestService(t, memory.DirectoryOptions{})
	ada := mustCreate(t, dir, "ada@example.com")
	mustCreate(t, dir, "bob@example.com")

	name := "Ada Lovelace"
	got, err := svc.UpdateProfile(ctx, ada.ID, ProfileInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	taken := "bob@example.com"
	_, err = svc.UpdateProfile(ctx, ada.ID, ProfileInput{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrEmailExists)

	_, err = svc.UpdateProfile(ctx, "missing", ProfileInput{Name: &name})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestPromote(t *testing.T) {
	ctx := context.Background()
	svc, dir := newTestService(t, memory.DirectoryOptions{})
	admin := mustCreate(t, dir, "ada@example.com")
	bob := mustCreate(t, dir, "bob@example.com")

	promoted, err := svc.Promote(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	stored, err := dir.GetUserByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)

	_, err = svc.Promote(ctx, admin.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyAdmin)

	_, err = svc.Promote(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, dir := newTestService(t, memory.DirectoryOptions{})
	u := mustCreate(t, dir, "ada@example.com")

	require.NoError(t, svc.Delete(ctx, u.ID))
	assert.ErrorIs(t, svc.Delete(ctx, u.ID), domain.ErrUserNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, ""), ErrIDRequired)
}

func TestPurgeExceptKeepsFixtures(t *testing.T) {
	ctx := context.Background()
	svc, dir := newTestService(t, memory.DirectoryOptions{SeedFixtures: true})
	mustCreate(t, dir, "ada@example.com")
	mustCreate(t, dir, "bob@example.com")

	removed, err := svc.PurgeExcept(ctx, memory.FixtureIDs())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, memory.FixtureIDs(), ids)
}
