// Package auth implements local registration and login, server-side
// sessions, and per-request identity resolution.
//
// A client is either anonymous or authenticated as exactly one user. Login
// renews the session token and stores the user id; Logout destroys the
// server-side record. Sessions live in the store chosen by SESSION_STORE:
//
//	SESSION_STORE=auto      # sqlite or postgres, following DATABASE_URL
//	SESSION_STORE=sqlite    # sessions table next to the users table
//	SESSION_STORE=postgres  # sessions table via pgx
//	SESSION_STORE=redis     # REDIS_URL
//	SESSION_STORE=memory    # single process, lost on restart
//
// # Usage
//
// Wire the middleware in this order so the CSRF context is preserved:
//
//	router.Use(auth.CSRFMiddleware(secret, cfg.SecureCookies))
//	router.Use(sessions.SessionLoadSave())
//	router.Use(auth.NewMiddleware(service, sessions).Handler())
//
// Read the user in handlers:
//
//	user := auth.CurrentUser(c) // nil when anonymous
package auth
