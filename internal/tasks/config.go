package tasks

import (
	"time"

	"github.com/mrlokans/secrets/internal/config"
)

// Config holds configuration for the task queue system.
type Config struct {
	// DBPath is the SQLite file backing the queue, kept apart from the user store.
	DBPath string

	// Workers is the number of concurrent task workers. Default: 1
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DBPath:          config.DefaultTasksDatabasePath,
		Workers:         1,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: 1 * time.Hour,
	}
}

// FromConfig maps the application settings onto the queue config, keeping
// defaults for unset values.
func FromConfig(c config.Tasks) Config {
	cfg := DefaultConfig()
	if c.DBPath != "" {
		cfg.DBPath = c.DBPath
	}
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}
	if c.ReleaseAfter > 0 {
		cfg.ReleaseAfter = c.ReleaseAfter
	}
	if c.CleanupInterval > 0 {
		cfg.CleanupInterval = c.CleanupInterval
	}
	return cfg
}
