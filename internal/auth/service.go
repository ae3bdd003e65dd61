package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/entities"
)

// MaxUsernameLength matches the users.username column size.
const MaxUsernameLength = 100

// UserStore defines the user lookups and writes the credential flow needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*entities.User, error)
	GetUserByID(ctx context.Context, id uint) (*entities.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entities.User, error)
}

// Service registers local users and verifies their credentials.
type Service struct {
	users  UserStore
	config config.Auth
	dummy  *dummyHasher
}

// NewService creates a new authentication service.
func NewService(store UserStore, cfg config.Auth) *Service {
	return &Service{
		users:  store,
		config: cfg,
		dummy:  &dummyHasher{cost: cfg.BcryptCost},
	}
}

// Register creates a user with a local credential.
func (s *Service) Register(ctx context.Context, username, password string) (*entities.User, error) {
	if username == "" || len(username) > MaxUsernameLength {
		return nil, fmt.Errorf("%w: username must be 1-%d characters", ErrInvalidInput, MaxUsernameLength)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		if errors.Is(err, ErrPasswordEmpty) || errors.Is(err, ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, username, passwordHash)
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return user, nil
}

// Verify checks a username/password pair. Unknown users and wrong passwords
// both yield ErrInvalidCredentials. Verify performs no writes.
func (s *Service) Verify(ctx context.Context, username, password string) (*entities.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			s.dummy.compare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if !user.HasLocalCredential() {
		s.dummy.compare(password)
		return nil, ErrInvalidCredentials
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByID loads the user behind a session.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return user, nil
}
