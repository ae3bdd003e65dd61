package auth

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/secrets/internal/config"
)

// NewSessionStore builds the server-side session store selected by
// SESSION_STORE. sqlDB is the SQLite handle shared with gorm and is only
// used by the sqlite store. The returned func releases background
// goroutines and connections.
func NewSessionStore(ctx context.Context, cfg *config.Config, sqlDB *sql.DB) (scs.Store, func(), error) {
	kind := cfg.Auth.SessionStore
	if kind == config.SessionStoreAuto || kind == "" {
		kind = config.SessionStoreSQLite
		if cfg.Database.IsPostgres() {
			kind = config.SessionStorePostgres
		}
	}

	switch kind {
	case config.SessionStoreMemory:
		store := memstore.New()
		return store, store.StopCleanup, nil

	case config.SessionStoreSQLite:
		if sqlDB == nil {
			return nil, nil, fmt.Errorf("sqlite session store requires a SQLite database")
		}
		if err := createSQLiteSessionTable(ctx, sqlDB); err != nil {
			return nil, nil, fmt.Errorf("failed to create sessions table: %w", err)
		}
		store := sqlite3store.New(sqlDB)
		return store, store.StopCleanup, nil

	case config.SessionStorePostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres session pool: %w", err)
		}
		if err := createPostgresSessionTable(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to create sessions table: %w", err)
		}
		store := pgxstore.New(pool)
		return store, func() {
			store.StopCleanup()
			pool.Close()
		}, nil

	case config.SessionStoreRedis:
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return goredisstore.New(client), func() { _ = client.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown session store %q", kind)
}

func createSQLiteSessionTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	return err
}

func createPostgresSessionTable(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BYTEA NOT NULL,
		expiry TIMESTAMPTZ NOT NULL
	)`); err != nil {
		return err
	}
	_, err := pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry)`)
	return err
}
