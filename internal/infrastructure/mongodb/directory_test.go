package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	domain "authboilerplate/backend/internal/domain/auth"
	"authboilerplate/backend/internal/infrastructure/password"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestUserDocumentToDomain(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	login := created.Add(time.Hour)
	doc := userDocument{
		ID:             "u1",
		Email:          "a@example.com",
		HashedPassword: "hash",
		CreatedAt:      created,
		UpdatedAt:      created,
		LastLoginAt:    &login,
	}

	u := doc.toDomain()
	assert.Equal(t, domain.RoleUser, u.Role, "missing role falls back to the default")
	assert.Equal(t, "hash", u.PasswordHash)
	require.NotNil(t, u.LastLoginAt)
	assert.Equal(t, login, *u.LastLoginAt)
}

// newLiveDirectory connects to MONGO_TEST_URI and returns a directory over a throwaway database.
func newLiveDirectory(t *testing.T) *Directory {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("authtest_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	d := NewDirectory(db, password.NewBcrypt(bcrypt.MinCost), zap.NewNop())
	require.NoError(t, d.EnsureIndexes(ctx))
	return d
}

func TestUpdateUserSet(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	name := " $name "
	set := updateUserSet(domain.UserUpdate{Name: &name}, now)
	assert.Equal(t, bson.D{
		{Key: "updatedAt", Value: now},
		{Key: "name", Value: bson.D{{Key: "$literal", Value: "$name"}}},
	}, set)

	email := "new@example.com"
	set = updateUserSet(domain.UserUpdate{Email: &email}, now)
	require.Len(t, set, 3)
	assert.Equal(t, "emailVerified", set[1].Key)
	assert.Equal(t, bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$email", bson.D{{Key: "$literal", Value: email}}}}},
		"$emailVerified",
		false,
	}}}, set[1].Value)
	assert.Equal(t, bson.E{Key: "email", Value: bson.D{{Key: "$literal", Value: email}}}, set[2])
}

func TestDirectory_Live(t *testing.T) {
	d := newLiveDirectory(t)
	ctx := context.Background()

	alice, err := d.CreateUser(ctx, domain.NewUser{Email: "alice@example.com", Password: "secret1", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, alice.Role)
	assert.Empty(t, alice.PasswordHash)

	bob, err := d.CreateUser(ctx, domain.NewUser{Email: "bob@example.com", Password: "secret2", Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, bob.Role)

	_, err = d.CreateUser(ctx, domain.NewUser{Email: "bob@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, domain.ErrEmailExists)

	var raw bson.M
	require.NoError(t, d.users.FindOne(ctx, bson.D{{Key: "_id", Value: bob.ID}}).Decode(&raw))
	assert.NotEqual(t, "secret2", raw["hashedPassword"])

	u, err := d.ValidateCredentials(ctx, "bob@example.com", "wrong")
	require.NoError(t, err)
	assert.Nil(t, u)
	u, err = d.ValidateCredentials(ctx, "ghost@example.com", "secret2")
	require.NoError(t, err)
	assert.Nil(t, u)
	u, err = d.ValidateCredentials(ctx, "bob@example.com", "secret2")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.NotNil(t, u.LastLoginAt)

	users, err := d.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	ok, err := d.VerifyUserEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.VerifyUserEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	taken := "alice@example.com"
	_, err = d.UpdateUser(ctx, bob.ID, domain.UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrEmailExists)

	name := "Robert"
	updated, err := d.UpdateUser(ctx, bob.ID, domain.UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Robert", updated.Name)
	assert.True(t, updated.EmailVerified)

	moved := "robert@example.com"
	updated, err = d.UpdateUser(ctx, bob.ID, domain.UserUpdate{Email: &moved})
	require.NoError(t, err)
	assert.Equal(t, moved, updated.Email)
	assert.False(t, updated.EmailVerified)
	back := "bob@example.com"
	_, err = d.UpdateUser(ctx, bob.ID, domain.UserUpdate{Email: &back})
	require.NoError(t, err)

	missing, err := d.UpdateUser(ctx, "nope", domain.UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, missing)

	ok, err = d.UpdateUserPassword(ctx, "bob@example.com", "secret3")
	require.NoError(t, err)
	assert.True(t, ok)
	u, _ = d.ValidateCredentials(ctx, "bob@example.com", "secret3")
	assert.NotNil(t, u)

	ok, err = d.PromoteToAdmin(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	n, _ := d.UserCount(ctx)
	assert.Equal(t, 2, n)

	ok, err = d.PromoteToAdmin(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.DeleteUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.DeleteUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
