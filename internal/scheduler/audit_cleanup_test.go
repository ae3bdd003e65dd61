package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/secrets/internal/tasks"
)

type fakeCleaner struct {
	retention time.Duration
	calls     int
	err       error
}

func (f *fakeCleaner) DeleteOldEvents(_ context.Context, retention time.Duration) (int64, error) {
	f.calls++
	f.retention = retention
	return 3, f.err
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 3 * * *"))
	assert.NoError(t, ValidateSchedule("*/5 * * * *"))
	assert.Error(t, ValidateSchedule("every night"))
	assert.Error(t, ValidateSchedule("0 0 3 * * *"), "seconds field is not accepted")
}

func TestRunOnce_Inline(t *testing.T) {
	cleaner := &fakeCleaner{}
	s := NewAuditCleanupScheduler("0 3 * * *", 14, nil, cleaner)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, cleaner.calls)
	assert.Equal(t, 14*24*time.Hour, cleaner.retention)
}

func TestRunOnce_InlineError(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("disk I/O error")}
	s := NewAuditCleanupScheduler("0 3 * * *", 14, nil, cleaner)

	assert.ErrorIs(t, s.RunOnce(context.Background()), cleaner.err)
}

func TestRunOnce_Enqueues(t *testing.T) {
	cleaner := &fakeCleaner{}
	var queued []tasks.CleanupAuditEventsTask
	queue := QueueFunc(func(task tasks.CleanupAuditEventsTask) error {
		queued = append(queued, task)
		return nil
	})
	s := NewAuditCleanupScheduler("0 3 * * *", 30, queue, cleaner)

	require.NoError(t, s.RunOnce(context.Background()))
	require.Len(t, queued, 1)
	assert.Equal(t, 30, queued[0].RetentionDays)
	assert.Zero(t, cleaner.calls, "queued cleanup must not also run inline")
}

func TestStartStop(t *testing.T) {
	s := NewAuditCleanupScheduler("0 3 * * *", 30, nil, &fakeCleaner{})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.NextRun()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())
	assert.True(t, next.After(time.Now()))

	// Starting twice is a no-op
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())

	// Stopping twice is a no-op
	s.Stop()
}

func TestStart_StopsWithContext(t *testing.T) {
	s := NewAuditCleanupScheduler("0 3 * * *", 30, nil, &fakeCleaner{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewAuditCleanupScheduler("not a schedule", 30, nil, &fakeCleaner{})

	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestStart_Disabled(t *testing.T) {
	for _, s := range []*AuditCleanupScheduler{
		NewAuditCleanupScheduler("", 30, nil, &fakeCleaner{}),
		NewAuditCleanupScheduler("0 3 * * *", 0, nil, &fakeCleaner{}),
	} {
		require.NoError(t, s.Start(context.Background()))
		assert.False(t, s.IsRunning())
	}
}
