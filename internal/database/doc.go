// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup (SQLite or PostgreSQL) and migrations
//	├── users/           # User store: credentials, external identities, secrets
//	└── audit/           # Authentication audit events
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database, database.DefaultOptions())
//
//	usersRepo := users.NewRepository(db.DB)
//	auditRepo := audit.NewRepository(db.DB)
//
//	user, err := usersRepo.FindOrCreateByExternalID(ctx, entities.OAuthProviderGoogle, sub)
//
// The sessions table used by the session store lives in the same database
// when the SQLite or PostgreSQL session store is selected; it is created by
// the auth package, not by gorm migrations.
package database
