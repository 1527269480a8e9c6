package user

import (
	"context"
	"errors"
	"strings"

	domain "authboilerplate/backend/internal/domain/auth"

	"go.uber.org/zap"
)

// ErrIDRequired is returned when an operation is called without a user id.
var ErrIDRequired = errors.New("User ID is required")

// Service provides profile and administrative use cases over the directory.
type Service struct {
	users  domain.Directory
	logger *zap.Logger
}

// NewService constructs a user service around the provided directory.
func NewService(users domain.Directory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, logger: logger}
}

// ProfileInput defines the fields a user may change on their own profile.
type ProfileInput struct {
	Name  *string
	Email *string
}

// List returns every user, newest first.
func (s *Service) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.ListUsers(ctx)
}

// Get retrieves a single user by its identifier.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrIDRequired
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies name or email changes to the caller's own record.
// Role is never writable here.
func (s *Service) UpdateProfile(ctx context.Context, id string, input ProfileInput) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrIDRequired
	}
	user, err := s.users.UpdateUser(ctx, id, domain.UserUpdate{Name: input.Name, Email: input.Email})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// Promote grants the admin role. Roles only move upward.
func (s *Service) Promote(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if domain.IsAdmin(user.Role) {
		return nil, domain.ErrAlreadyAdmin
	}

	ok, err := s.users.PromoteToAdmin(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	s.logger.Info("user promoted to admin", zap.String("id", user.ID), zap.String("email", user.Email))

	user.Role = domain.RoleAdmin
	return user, nil
}

// Delete removes the target user.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrIDRequired
	}
	ok, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	s.logger.Info("user deleted", zap.String("id", id))
	return nil
}

// PurgeExcept deletes every user whose id is not in keep and reports how many were removed.
func (s *Service) PurgeExcept(ctx context.Context, keep []string) (int, error) {
	protected := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		protected[id] = struct{}{}
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, u := range users {
		if _, ok := protected[u.ID]; ok {
			continue
		}
		ok, err := s.users.DeleteUser(ctx, u.ID)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	s.logger.Info("users purged", zap.Int("removed", removed), zap.Int("kept", len(users)-removed))
	return removed, nil
}
