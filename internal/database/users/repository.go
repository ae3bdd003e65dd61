// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.FindOrCreateByExternalID(ctx, entities.OAuthProviderGoogle, sub)
package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/secrets/internal/entities"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser stores a new user with a local credential.
// Returns ErrUsernameTaken if the username is already registered.
func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (*entities.User, error) {
	if _, err := r.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user := &entities.User{
		Username:     &username,
		PasswordHash: passwordHash,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		// Lost a race against a concurrent registration of the same name
		if _, lookupErr := r.GetUserByUsername(ctx, username); lookupErr == nil {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUserByExternalID retrieves a user by provider and provider-assigned subject.
func (r *Repository) GetUserByExternalID(ctx context.Context, provider entities.OAuthProvider, subject string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).
		Where("provider = ? AND subject = ?", provider, subject).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindOrCreateByExternalID returns the user linked to the external identity,
// creating it on first sight. Repeated calls with the same identity return
// the same record.
func (r *Repository) FindOrCreateByExternalID(ctx context.Context, provider entities.OAuthProvider, subject string) (*entities.User, error) {
	user, err := r.GetUserByExternalID(ctx, provider, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user = &entities.User{
		Provider: &provider,
		Subject:  &subject,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		// The unique index rejects a concurrent duplicate; return the winner
		if existing, lookupErr := r.GetUserByExternalID(ctx, provider, subject); lookupErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// UpdateSecret sets the secret of exactly one user.
func (r *Repository) UpdateSecret(ctx context.Context, id uint, secret string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", id).
		Update("secret", secret)
	if result.Error != nil {
		return fmt.Errorf("failed to update secret: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsersWithSecrets returns every user whose secret is set, most recently updated first.
func (r *Repository) ListUsersWithSecrets(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	err := r.db.WithContext(ctx).
		Where("secret IS NOT NULL").
		Order("updated_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}
	return users, nil
}

// CountUsers returns the number of stored users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
