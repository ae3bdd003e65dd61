package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/secrets/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	return db
}

func TestRepository_LogEvent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	event := &entities.AuditEvent{
		UserID: 1,
		Action: entities.AuditActionLogin,
		Status: entities.AuditStatusSuccess,
	}

	err := repo.LogEvent(context.Background(), event)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		userID := uint(1)
		if i%3 == 0 {
			userID = 2
		}
		require.NoError(t, repo.LogEvent(ctx, &entities.AuditEvent{
			UserID: userID,
			Action: entities.AuditActionLogin,
			Status: entities.AuditStatusSuccess,
		}))
	}

	events, total, err := repo.GetEvents(ctx, 1, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	assert.Len(t, events, 5)

	_, total, err = repo.GetEvents(ctx, 0, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	old := &entities.AuditEvent{
		Action:    entities.AuditActionLogin,
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	recent := &entities.AuditEvent{
		Action: entities.AuditActionLogin,
		Status: entities.AuditStatusSuccess,
	}
	require.NoError(t, repo.LogEvent(ctx, old))
	require.NoError(t, repo.LogEvent(ctx, recent))

	deleted, err := repo.DeleteOldEvents(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := repo.GetEvents(ctx, 0, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
