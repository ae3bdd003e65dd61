package config

const (
	// DefaultDatabasePath is the default SQLite file for users and sessions
	DefaultDatabasePath = "./secrets.db"

	// DefaultTasksDatabasePath is the default SQLite file for the task queue
	DefaultTasksDatabasePath = "./secrets-tasks.db"

	// DefaultEnvFile is read on start-up when present
	DefaultEnvFile = ".env"

	// DefaultGoogleUserInfoURL returns the OpenID "sub" claim for the token owner
	DefaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)
