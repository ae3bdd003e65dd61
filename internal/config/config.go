package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env string

const (
	EnvDevelopment Env = "development" // Error pages show details
	EnvProduction  Env = "production"  // Generic error pages, gin release mode
)

type SessionStore string

const (
	SessionStoreAuto     SessionStore = "auto" // Follow the database driver
	SessionStoreSQLite   SessionStore = "sqlite"
	SessionStorePostgres SessionStore = "postgres"
	SessionStoreRedis    SessionStore = "redis"
	SessionStoreMemory   SessionStore = "memory"
)

type (
	Config struct {
		App
		HTTP
		Global
		Database
		UI
		Log
		Auth
		OAuth
		Redis
		Tasks
		Audit
		Metrics
	}

	App struct {
		Env Env
	}
	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeout time.Duration
	}
	Database struct {
		URL string // SQLite path or postgres:// URL
	}
	UI struct {
		TemplatesPath string // Empty means embedded templates
		StaticPath    string // Empty means embedded static assets
	}
	Log struct {
		Level  string
		Format string // "text" or "json"
	}
	Auth struct {
		SessionSecret   string
		SessionStore    SessionStore
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
	}
	OAuth struct {
		GoogleClientID     string
		GoogleClientSecret string
		CallbackBaseURL    string
		GoogleUserInfoURL  string
	}
	Redis struct {
		URL string
	}
	Tasks struct {
		Enabled         bool
		DBPath          string
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Audit struct {
		RetentionDays   int
		CleanupSchedule string // Cron format: "0 3 * * *" = nightly at 03:00
	}
	Metrics struct {
		Enabled bool
	}
)

// IsProduction reports whether the deployed variant is running.
func (a App) IsProduction() bool {
	return a.Env == EnvProduction
}

// GoogleEnabled reports whether Google sign-in is configured.
func (o OAuth) GoogleEnabled() bool {
	return o.GoogleClientID != "" && o.GoogleClientSecret != ""
}

// IsPostgres reports whether the database URL points at PostgreSQL.
func (d Database) IsPostgres() bool {
	return strings.HasPrefix(d.URL, "postgres://") || strings.HasPrefix(d.URL, "postgresql://")
}

// getWithLegacy prefers the new env var name and falls back to the legacy one.
func getWithLegacy(v *viper.Viper, key, legacy string) string {
	if val := v.GetString(key); val != "" {
		return val
	}
	return v.GetString(legacy)
}

// loadEnvFile merges a dotenv file into v. Real environment variables still win
// because AutomaticEnv lookups take precedence over config file values.
func loadEnvFile(v *viper.Viper) error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if err := loadEnvFile(v); err != nil {
		return nil, err
	}

	v.SetDefault("app_env", string(EnvDevelopment))
	v.SetDefault("port", 5000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("database_url", DefaultDatabasePath)
	v.SetDefault("templates_path", "")
	v.SetDefault("static_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	// Auth defaults
	v.SetDefault("session_secret", "") // Auto-generated if empty
	v.SetDefault("session_store", string(SessionStoreAuto))
	v.SetDefault("session_lifetime", "24h")
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("secure_cookies", false)

	// OAuth defaults
	v.SetDefault("google_userinfo_url", DefaultGoogleUserInfoURL)
	v.SetDefault("redis_url", "redis://localhost:6379/0")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_db_path", DefaultTasksDatabasePath)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")
	v.SetDefault("metrics_enabled", true)

	port := v.GetInt32("PORT")
	callbackBase := v.GetString("OAUTH_CALLBACK_BASE_URL")
	if callbackBase == "" {
		callbackBase = fmt.Sprintf("http://localhost:%d", port)
	}

	cfg := &Config{
		App: App{
			Env: Env(strings.ToLower(v.GetString("APP_ENV"))),
		},
		HTTP: HTTP{
			Port: port,
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: Database{
			URL: v.GetString("DATABASE_URL"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Auth: Auth{
			SessionSecret:   v.GetString("SESSION_SECRET"),
			SessionStore:    SessionStore(strings.ToLower(v.GetString("SESSION_STORE"))),
			SessionLifetime: v.GetDuration("SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("BCRYPT_COST"),
			SecureCookies:   v.GetBool("SECURE_COOKIES"),
		},
		OAuth: OAuth{
			GoogleClientID:     getWithLegacy(v, "GOOGLE_CLIENT_ID", "CLIENT_ID"),
			GoogleClientSecret: getWithLegacy(v, "GOOGLE_CLIENT_SECRET", "CLIENT_SECRET"),
			CallbackBaseURL:    strings.TrimRight(callbackBase, "/"),
			GoogleUserInfoURL:  v.GetString("GOOGLE_USERINFO_URL"),
		},
		Redis: Redis{
			URL: v.GetString("REDIS_URL"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			DBPath:          v.GetString("TASKS_DB_PATH"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.App.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("invalid APP_ENV %q: must be development or production", c.App.Env)
	}

	switch c.Auth.SessionStore {
	case SessionStoreAuto, SessionStoreMemory, SessionStoreRedis:
	case SessionStoreSQLite:
		if c.Database.IsPostgres() {
			return fmt.Errorf("SESSION_STORE=sqlite requires a SQLite DATABASE_URL")
		}
	case SessionStorePostgres:
		if !c.Database.IsPostgres() {
			return fmt.Errorf("SESSION_STORE=postgres requires a postgres DATABASE_URL")
		}
	default:
		return fmt.Errorf("invalid SESSION_STORE %q", c.Auth.SessionStore)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.SessionLifetime <= 0 {
		return fmt.Errorf("SESSION_LIFETIME must be positive")
	}
	return nil
}
