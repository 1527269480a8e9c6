// Package memory provides in-process implementations of the auth stores.
// State lives for the lifetime of the owning value and is lost on restart.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	domain "authboilerplate/backend/internal/domain/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fixture identities seeded into a mock directory.
const (
	FixtureUserID  = "user-1"
	FixtureAdminID = "admin-1"

	DefaultFixturePassword = "password123"
)

// FixtureIDs lists the ids of the seeded fixture users.
func FixtureIDs() []string {
	return []string{FixtureUserID, FixtureAdminID}
}

// DirectoryOptions tunes a mock directory.
type DirectoryOptions struct {
	// SeedFixtures adds one regular and one admin user at construction.
	SeedFixtures bool
	// FixturePassword is the password of the seeded users.
	FixturePassword string
	// DevLogin accepts any password and auto-creates unknown users whose
	// email contains "@". Never enable outside development.
	DevLogin bool
}

// Directory is the mock credential directory.
type Directory struct {
	mu      sync.RWMutex
	users   map[string]*domain.User
	byEmail map[string]string

	hasher   domain.PasswordHasher
	logger   *zap.Logger
	devLogin bool
	nowFunc  func() time.Time
	newID    func() string
}

var _ domain.Directory = (*Directory)(nil)

// NewDirectory builds an empty or fixture-seeded mock directory.
func NewDirectory(hasher domain.PasswordHasher, logger *zap.Logger, opts DirectoryOptions) (*Directory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Directory{
		users:    make(map[string]*domain.User),
		byEmail:  make(map[string]string),
		hasher:   hasher,
		logger:   logger,
		devLogin: opts.DevLogin,
		nowFunc:  time.Now,
		newID:    uuid.NewString,
	}
	if opts.SeedFixtures {
		if err := d.seed(opts.FixturePassword); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Directory) seed(password string) error {
	if password == "" {
		password = DefaultFixturePassword
	}
	hash, err := d.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash fixture password: %w", err)
	}

	now := d.nowFunc().UTC()
	userLogin := now.Add(-2 * time.Hour)
	adminLogin := now.Add(-time.Hour)
	fixtures := []*domain.User{
		{
			ID:           FixtureUserID,
			Email:        "user@example.com",
			Name:         "Test User",
			PasswordHash: hash,
			Role:         domain.RoleUser,
			CreatedAt:    now.Add(-30 * 24 * time.Hour),
			UpdatedAt:    now.Add(-24 * time.Hour),
			LastLoginAt:  &userLogin,
		},
		{
			ID:            FixtureAdminID,
			Email:         "admin@example.com",
			Name:          "Test Admin",
			PasswordHash:  hash,
			EmailVerified: true,
			Role:          domain.RoleAdmin,
			CreatedAt:     now.Add(-60 * 24 * time.Hour),
			UpdatedAt:     now.Add(-7 * 24 * time.Hour),
			LastLoginAt:   &adminLogin,
		},
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range fixtures {
		if _, ok := d.users[u.ID]; ok {
			continue
		}
		d.users[u.ID] = u
		d.byEmail[u.Email] = u.ID
	}
	d.logger.Debug("mock directory seeded", zap.Int("users", len(d.users)))
	return nil
}

func (d *Directory) CreateUser(ctx context.Context, input domain.NewUser) (*domain.User, error) {
	email := strings.TrimSpace(input.Email)
	role, err := domain.ParseRole(string(input.Role))
	if err != nil {
		return nil, err
	}

	hash, err := d.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byEmail[email]; exists {
		return nil, domain.ErrEmailExists
	}
	if len(d.users) == 0 {
		role = domain.RoleAdmin
		d.logger.Info("first user created, granting admin role", zap.String("email", email))
	}

	now := d.nowFunc().UTC()
	user := &domain.User{
		ID:           d.newID(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.users[user.ID] = user
	d.byEmail[email] = user.ID
	d.logger.Debug("mock user created", zap.String("id", user.ID), zap.Int("total", len(d.users)))
	return user.Sanitized(), nil
}

func (d *Directory) ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)

	d.mu.RLock()
	var hash string
	id, found := d.byEmail[email]
	if found {
		hash = d.users[id].PasswordHash
	}
	d.mu.RUnlock()

	if !found {
		if d.devLogin && strings.Contains(email, "@") {
			return d.provision(ctx, email, password)
		}
		d.hasher.Compare("", password)
		return nil, nil
	}
	if !d.devLogin && !d.hasher.Compare(hash, password) {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	now := d.nowFunc().UTC()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	return user.Sanitized(), nil
}

// provision creates an account on first login in dev mode.
func (d *Directory) provision(ctx context.Context, email, password string) (*domain.User, error) {
	name, _, _ := strings.Cut(email, "@")
	d.logger.Info("dev login: creating unknown user", zap.String("email", email))
	user, err := d.CreateUser(ctx, domain.NewUser{Email: email, Password: password, Name: name})
	if err != nil && !errors.Is(err, domain.ErrEmailExists) {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	return d.GetUserByEmail(ctx, email)
}

func (d *Directory) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.users[id].Sanitized(), nil
}

func (d *Directory) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[strings.TrimSpace(email)]
	if !ok {
		return nil, nil
	}
	return d.users[id].Sanitized(), nil
}

func (d *Directory) ListUsers(ctx context.Context) ([]*domain.User, error) {
	d.mu.RLock()
	out := make([]*domain.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u.Sanitized())
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (d *Directory) UpdateUser(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email != user.Email {
			if _, taken := d.byEmail[email]; taken {
				return nil, domain.ErrEmailExists
			}
			delete(d.byEmail, user.Email)
			d.byEmail[email] = id
			user.Email = email
			user.EmailVerified = false
		}
	}
	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	user.UpdatedAt = d.nowFunc().UTC()
	return user.Sanitized(), nil
}

func (d *Directory) DeleteUser(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok {
		return false, nil
	}
	delete(d.users, id)
	delete(d.byEmail, user.Email)
	return true, nil
}

func (d *Directory) VerifyUserEmail(ctx context.Context, email string) (bool, error) {
	return d.mutateByEmail(email, func(u *domain.User) {
		u.EmailVerified = true
	}), nil
}

func (d *Directory) UpdateUserPassword(ctx context.Context, email, password string) (bool, error) {
	hash, err := d.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	return d.mutateByEmail(email, func(u *domain.User) {
		u.PasswordHash = hash
	}), nil
}

func (d *Directory) PromoteToAdmin(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok {
		return false, nil
	}
	user.Role = domain.RoleAdmin
	user.UpdatedAt = d.nowFunc().UTC()
	return true, nil
}

func (d *Directory) UserCount(ctx context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users), nil
}

func (d *Directory) mutateByEmail(email string, fn func(*domain.User)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.byEmail[strings.TrimSpace(email)]
	if !ok {
		return false
	}
	user := d.users[id]
	fn(user)
	user.UpdatedAt = d.nowFunc().UTC()
	return true
}
