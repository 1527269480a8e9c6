// Package mongodb implements the external credential directory on a MongoDB
// document store. Each user is one document in the users collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "authboilerplate/backend/internal/domain/auth"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// DefaultUsersCollection is the collection holding user documents.
const DefaultUsersCollection = "users"

type userDocument struct {
	ID             string     `bson:"_id"`
	Email          string     `bson:"email"`
	Name           string     `bson:"name,omitempty"`
	HashedPassword string     `bson:"hashedPassword"`
	EmailVerified  bool       `bson:"emailVerified"`
	Role           string     `bson:"role"`
	CreatedAt      time.Time  `bson:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt"`
	LastLoginAt    *time.Time `bson:"lastLoginAt,omitempty"`
}

func (d *userDocument) toDomain() *domain.User {
	role := domain.UserRole(d.Role)
	if role == "" {
		role = domain.DefaultRole
	}
	u := &domain.User{
		ID:            d.ID,
		Email:         d.Email,
		Name:          d.Name,
		PasswordHash:  d.HashedPassword,
		EmailVerified: d.EmailVerified,
		Role:          role,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	if d.LastLoginAt != nil {
		t := d.LastLoginAt.UTC()
		u.LastLoginAt = &t
	}
	return u
}

// Directory is the MongoDB-backed credential directory.
type Directory struct {
	users   *mongo.Collection
	hasher  domain.PasswordHasher
	logger  *zap.Logger
	nowFunc func() time.Time
}

var _ domain.Directory = (*Directory)(nil)

// NewDirectory binds a directory to the users collection of db.
func NewDirectory(db *mongo.Database, hasher domain.PasswordHasher, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		users:   db.Collection(DefaultUsersCollection),
		hasher:  hasher,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// EnsureIndexes creates the unique email index.
func (d *Directory) EnsureIndexes(ctx context.Context) error {
	_, err := d.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (d *Directory) CreateUser(ctx context.Context, input domain.NewUser) (*domain.User, error) {
	email := strings.TrimSpace(input.Email)
	role, err := domain.ParseRole(string(input.Role))
	if err != nil {
		return nil, err
	}

	existing, err := d.findOne(ctx, bson.D{{Key: "email", Value: email}})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailExists
	}

	count, err := d.UserCount(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		role = domain.RoleAdmin
		d.logger.Info("first user created, granting admin role", zap.String("email", email))
	}

	hash, err := d.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := d.nowFunc().UTC()
	doc := userDocument{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           strings.TrimSpace(input.Name),
		HashedPassword: hash,
		Role:           string(role),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := d.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	d.logger.Debug("user created", zap.String("id", doc.ID), zap.String("role", doc.Role))
	return doc.toDomain().Sanitized(), nil
}

func (d *Directory) ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := d.findOne(ctx, bson.D{{Key: "email", Value: strings.TrimSpace(email)}})
	if err != nil {
		return nil, err
	}
	if user == nil {
		d.hasher.Compare("", password)
		return nil, nil
	}
	if !d.hasher.Compare(user.PasswordHash, password) {
		return nil, nil
	}

	now := d.nowFunc().UTC()
	res, err := d.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: user.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "lastLoginAt", Value: now},
			{Key: "updatedAt", Value: now},
		}}},
	)
	if err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, nil
	}
	user.LastLoginAt = &now
	user.UpdatedAt = now
	return user.Sanitized(), nil
}

func (d *Directory) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := d.findOne(ctx, bson.D{{Key: "_id", Value: id}})
	return user.Sanitized(), err
}

func (d *Directory) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := d.findOne(ctx, bson.D{{Key: "email", Value: strings.TrimSpace(email)}})
	return user.Sanitized(), err
}

func (d *Directory) ListUsers(ctx context.Context) ([]*domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := d.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain().Sanitized())
	}
	return users, nil
}

// UpdateUser runs as a pipeline update so an email change clears
// emailVerified in the same write.
func (d *Directory) UpdateUser(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	set := updateUserSet(update, d.nowFunc().UTC())

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err := d.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, mongo.Pipeline{{{Key: "$set", Value: set}}}, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, nil
	case mongo.IsDuplicateKeyError(err):
		return nil, domain.ErrEmailExists
	case err != nil:
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain().Sanitized(), nil
}

// updateUserSet builds the $set stage for UpdateUser. Values are wrapped in
// $literal so user input starting with "$" is never read as a field path.
func updateUserSet(update domain.UserUpdate, now time.Time) bson.D {
	set := bson.D{{Key: "updatedAt", Value: now}}
	if update.Name != nil {
		set = append(set, bson.E{Key: "name", Value: literal(strings.TrimSpace(*update.Name))})
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		set = append(set,
			bson.E{Key: "emailVerified", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$email", literal(email)}}},
				"$emailVerified",
				false,
			}}}},
			bson.E{Key: "email", Value: literal(email)},
		)
	}
	return set
}

func literal(v string) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

func (d *Directory) DeleteUser(ctx context.Context, id string) (bool, error) {
	res, err := d.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (d *Directory) VerifyUserEmail(ctx context.Context, email string) (bool, error) {
	return d.setByEmail(ctx, email, bson.E{Key: "emailVerified", Value: true})
}

func (d *Directory) UpdateUserPassword(ctx context.Context, email, password string) (bool, error) {
	hash, err := d.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	return d.setByEmail(ctx, email, bson.E{Key: "hashedPassword", Value: hash})
}

func (d *Directory) PromoteToAdmin(ctx context.Context, id string) (bool, error) {
	res, err := d.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "role", Value: string(domain.RoleAdmin)},
			{Key: "updatedAt", Value: d.nowFunc().UTC()},
		}}},
	)
	if err != nil {
		return false, fmt.Errorf("promote user: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (d *Directory) UserCount(ctx context.Context) (int, error) {
	n, err := d.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(n), nil
}

func (d *Directory) setByEmail(ctx context.Context, email string, field bson.E) (bool, error) {
	res, err := d.users.UpdateOne(ctx,
		bson.D{{Key: "email", Value: strings.TrimSpace(email)}},
		bson.D{{Key: "$set", Value: bson.D{field, {Key: "updatedAt", Value: d.nowFunc().UTC()}}}},
	)
	if err != nil {
		return false, fmt.Errorf("update user %s: %w", field.Key, err)
	}
	return res.MatchedCount > 0, nil
}

func (d *Directory) findOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	var doc userDocument
	err := d.users.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}
