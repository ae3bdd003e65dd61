package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/entities"
)

// Driver names the SQL dialect behind the gorm connection.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

type Database struct {
	DB     *gorm.DB
	Driver Driver
}

// Options tune the gorm connection.
type Options struct {
	LogLevel logger.LogLevel
	// LogWriter receives gorm's statement log. Defaults to stdout.
	LogWriter io.Writer
}

// newLogger prints statements with placeholders only, so bound values such
// as secrets and password hashes never reach the log.
func newLogger(opts Options) logger.Interface {
	w := opts.LogWriter
	if w == nil {
		w = os.Stdout
	}
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		LogLevel:                  opts.LogLevel,
		SlowThreshold:             200 * time.Millisecond,
		ParameterizedQueries:      true,
		IgnoreRecordNotFoundError: true,
	})
}

// DefaultOptions keeps gorm quiet except for warnings and slow queries.
func DefaultOptions() Options {
	return Options{LogLevel: logger.Warn}
}

// NewDatabase opens the user store. A postgres:// URL selects PostgreSQL,
// anything else is treated as a SQLite file path.
func NewDatabase(cfg config.Database, opts Options) (*Database, error) {
	var (
		dialector gorm.Dialector
		driver    Driver
	)
	if cfg.IsPostgres() {
		dialector = postgres.Open(cfg.URL)
		driver = DriverPostgres
	} else {
		dialector = sqlite.Open(sqliteDSN(cfg.URL))
		driver = DriverSQLite
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger(opts),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&entities.User{},
		&entities.AuditEvent{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Older schemas indexed the free-text secret column, which PostgreSQL
	// rejects for long values
	if db.Migrator().HasIndex(&entities.User{}, "idx_users_secret") {
		if err := db.Migrator().DropIndex(&entities.User{}, "idx_users_secret"); err != nil {
			return nil, fmt.Errorf("failed to drop secret index: %w", err)
		}
	}

	slog.Info("database initialized", "driver", driver)

	return &Database{DB: db, Driver: driver}, nil
}

// sqliteDSN adds a busy timeout so concurrent writers wait instead of failing.
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000"
}

// SQLDB returns the pooled connection underneath gorm.
func (d *Database) SQLDB() (*sql.DB, error) {
	return d.DB.DB()
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.SQLDB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
