package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))
	return db
}

func setupTestService(t *testing.T) (*Service, *users.Repository) {
	t.Helper()
	repo := users.NewRepository(setupTestDB(t))
	return NewService(repo, config.Auth{BcryptCost: bcrypt.MinCost}), repo
}

func TestService_Register(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid user", username: "alice", password: "pw1"},
		{name: "missing username", username: "", password: "pw1", wantErr: ErrInvalidInput},
		{name: "username too long", username: strings.Repeat("u", 101), password: "pw1", wantErr: ErrInvalidInput},
		{name: "missing password", username: "bob", password: "", wantErr: ErrInvalidInput},
		{name: "password too long", username: "bob", password: strings.Repeat("p", 73), wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Register(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}

			require.NoError(t, err)
			assert.NotZero(t, user.ID)
			assert.NotEqual(t, tt.password, user.PasswordHash)
			assert.True(t, user.HasLocalCredential())
		})
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	for _, password := range []string{"pw1", "something-else"} {
		_, err = svc.Register(ctx, "alice", password)
		assert.ErrorIs(t, err, ErrDuplicateUsername)
	}
}

func TestService_RegisterThenVerify(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		registered, err := svc.Register(ctx, name, name+"-pw")
		require.NoError(t, err)

		verified, err := svc.Verify(ctx, name, name+"-pw")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, verified.ID)
	}
}

func TestService_Verify_UniformFailure(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, wrongPassword := svc.Verify(ctx, "alice", "wrongpw")
	_, unknownUser := svc.Verify(ctx, "nobody", "pw1")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

	// OAuth-only accounts carry no credential to verify against
	_, err = repo.FindOrCreateByExternalID(ctx, entities.OAuthProviderGoogle, "sub-1")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Verify_NoWrites(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "alice", "pw1")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, "alice", "bad")
	require.Error(t, err)

	reloaded, err := repo.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.UpdatedAt.Unix(), reloaded.UpdatedAt.Unix())
	assert.Equal(t, created.PasswordHash, reloaded.PasswordHash)
}

type failingStore struct{}

var errBrokenStore = errors.New("connection refused")

func (failingStore) CreateUser(context.Context, string, string) (*entities.User, error) {
	return nil, errBrokenStore
}

func (failingStore) GetUserByID(context.Context, uint) (*entities.User, error) {
	return nil, errBrokenStore
}

func (failingStore) GetUserByUsername(context.Context, string) (*entities.User, error) {
	return nil, errBrokenStore
}

func TestService_StoreUnavailable(t *testing.T) {
	svc := NewService(failingStore{}, config.Auth{BcryptCost: bcrypt.MinCost})
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, errBrokenStore)

	_, err = svc.Verify(ctx, "alice", "pw1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.GetUserByID(ctx, 1)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
