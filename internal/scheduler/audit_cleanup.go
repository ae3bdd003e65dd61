// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/secrets/internal/tasks"
)

// TaskQueue enqueues background tasks.
type TaskQueue interface {
	Enqueue(task tasks.CleanupAuditEventsTask) error
}

// QueueFunc adapts a function to TaskQueue.
type QueueFunc func(task tasks.CleanupAuditEventsTask) error

func (f QueueFunc) Enqueue(task tasks.CleanupAuditEventsTask) error {
	return f(task)
}

// ClientQueue enqueues tasks on a backlite client.
func ClientQueue(client *tasks.Client) TaskQueue {
	return QueueFunc(func(task tasks.CleanupAuditEventsTask) error {
		_, err := client.Add(task).Save()
		return err
	})
}

// AuditCleanupScheduler periodically removes audit events past retention.
// With a queue the cleanup is enqueued; without one it runs in the cron
// goroutine.
type AuditCleanupScheduler struct {
	schedule      string
	retentionDays int
	queue         TaskQueue
	cleaner       tasks.AuditEventCleaner

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewAuditCleanupScheduler creates a scheduler. queue may be nil.
func NewAuditCleanupScheduler(schedule string, retentionDays int, queue TaskQueue, cleaner tasks.AuditEventCleaner) *AuditCleanupScheduler {
	return &AuditCleanupScheduler{
		schedule:      schedule,
		retentionDays: retentionDays,
		queue:         queue,
		cleaner:       cleaner,
		cron:          cron.New(cron.WithParser(cronParser)),
	}
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// Start schedules the job. It stops when ctx is cancelled or Stop is called.
// An empty schedule or non-positive retention disables the job.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" || s.retentionDays <= 0 {
		slog.Info("audit cleanup scheduler disabled")
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			slog.Error("audit cleanup failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	slog.Info("audit cleanup scheduler started",
		"schedule", s.schedule,
		"retention_days", s.retentionDays,
		"next_run", s.cron.Entry(entryID).Next,
	)

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops scheduling and waits for a running job to finish.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	slog.Info("audit cleanup scheduler stopped")
}

// RunOnce performs one cleanup: enqueued when a queue is configured,
// otherwise inline.
func (s *AuditCleanupScheduler) RunOnce(ctx context.Context) error {
	task := tasks.CleanupAuditEventsTask{RetentionDays: s.retentionDays}

	if s.queue != nil {
		if err := s.queue.Enqueue(task); err != nil {
			return fmt.Errorf("enqueue audit cleanup: %w", err)
		}
		slog.Debug("audit cleanup enqueued", "retention_days", s.retentionDays)
		return nil
	}

	deleted, err := s.cleaner.DeleteOldEvents(ctx, task.Retention())
	if err != nil {
		return fmt.Errorf("cleanup audit events: %w", err)
	}
	slog.Info("cleaned up audit events", "deleted", deleted, "retention_days", s.retentionDays)
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *AuditCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the job fires next, or nil when not running.
func (s *AuditCleanupScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	next := s.cron.Entry(s.entryID).Next
	return &next
}
