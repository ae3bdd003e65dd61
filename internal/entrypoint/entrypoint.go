package entrypoint

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/audit"
	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database"
	auditRepo "github.com/mrlokans/secrets/internal/database/audit"
	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/entities"
	http_controllers "github.com/mrlokans/secrets/internal/http"
	"github.com/mrlokans/secrets/internal/oauth2"
	"github.com/mrlokans/secrets/internal/scheduler"
	"github.com/mrlokans/secrets/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the constructed dependencies of a running server.
type App struct {
	Router *gin.Engine
	Config *config.Config

	db         *database.Database
	audit      *audit.Service
	taskClient *tasks.Client
	taskCancel context.CancelFunc
	cleanup    *scheduler.AuditCleanupScheduler
	closers    []func()
}

// SessionSecret decodes SESSION_SECRET as hex, falling back to the raw
// bytes. An empty value yields a random secret and generated=true.
func SessionSecret(value string) (secret []byte, generated bool, err error) {
	if value != "" {
		if decoded, err := hex.DecodeString(value); err == nil {
			return decoded, false, nil
		}
		return []byte(value), false, nil
	}

	hexSecret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate session secret: %w", err)
	}
	secret, _ = hex.DecodeString(hexSecret)
	return secret, true, nil
}

// Build constructs every dependency and the router. Call Close when done.
func Build(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	app := &App{Config: cfg}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDatabase(cfg.Database, database.Options{LogLevel: gormLogLevel(cfg.App)})
	if err != nil {
		return nil, err
	}
	app.db = db

	secret, generated, err := SessionSecret(cfg.Auth.SessionSecret)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	if generated {
		slog.Warn("SESSION_SECRET is not set; generated a random one, CSRF and OAuth state will not survive a restart")
	}

	// Sessions
	var sqlDB *sql.DB
	if db.Driver == database.DriverSQLite {
		if sqlDB, err = db.SQLDB(); err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
		}
	}
	store, closeStore, err := auth.NewSessionStore(ctx, cfg, sqlDB)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	userRepo := users.NewRepository(db.DB)
	authService := auth.NewService(userRepo, cfg.Auth)
	sessionManager := auth.NewSessionManager(store, cfg.Auth)

	// Audit trail
	app.audit = audit.NewService(auditRepo.NewRepository(db.DB))

	// Task queue and audit retention
	var queue scheduler.TaskQueue
	if cfg.Tasks.Enabled {
		app.taskClient, err = tasks.NewClient(tasks.FromConfig(cfg.Tasks))
		if err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		app.taskClient.Register(tasks.NewCleanupAuditEventsQueue(app.audit))

		var taskCtx context.Context
		taskCtx, app.taskCancel = context.WithCancel(context.Background())
		go app.taskClient.Start(taskCtx)

		queue = scheduler.ClientQueue(app.taskClient)
	}

	app.cleanup = scheduler.NewAuditCleanupScheduler(cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays, queue, app.audit)
	if err := app.cleanup.Start(context.Background()); err != nil {
		app.Close(ctx)
		return nil, err
	}

	// OAuth providers
	var bridge *oauth2.Bridge
	registry := oauth2.NewRegistry()
	if cfg.OAuth.GoogleEnabled() {
		registry.Register(oauth2.NewGoogleProvider(oauth2.GoogleConfig{
			ClientID:     cfg.OAuth.GoogleClientID,
			ClientSecret: cfg.OAuth.GoogleClientSecret,
			RedirectURL:  cfg.OAuth.CallbackBaseURL + "/auth/" + string(entities.OAuthProviderGoogle) + "/secrets",
			UserInfoURL:  cfg.OAuth.GoogleUserInfoURL,
		}))
	} else {
		slog.Info("Google sign-in disabled; set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET to enable it")
	}
	if registry.Len() > 0 {
		bridge = oauth2.NewBridge(registry, userRepo, secret, cfg.Auth.SecureCookies)
	}

	app.Router, err = http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:         db,
		Secrets:          userRepo,
		AuthService:      authService,
		SessionManager:   sessionManager,
		OAuthBridge:      bridge,
		Audit:            app.audit,
		CSRFSecret:       secret,
		SecureCookies:    cfg.Auth.SecureCookies,
		ShowErrorDetails: !cfg.App.IsProduction(),
		TemplatesPath:    cfg.UI.TemplatesPath,
		StaticPath:       cfg.UI.StaticPath,
		MetricsEnabled:   cfg.Metrics.Enabled,
		Version:          version,
	})
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	return app, nil
}

// Close stops background work and releases resources in reverse order of
// construction. ctx bounds the wait for running tasks.
func (a *App) Close(ctx context.Context) {
	if a.cleanup != nil {
		a.cleanup.Stop()
	}
	if a.taskClient != nil {
		a.taskClient.Stop(ctx)
		if a.taskCancel != nil {
			a.taskCancel()
		}
	}
	if a.audit != nil {
		a.audit.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.taskClient != nil {
		if err := a.taskClient.Close(); err != nil {
			slog.Error("error closing task client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts down
// within the configured timeout. onShutdown runs only after a clean shutdown.
func Serve(router http.Handler, cfg *config.Config, onShutdown ShutdownFunc) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String(), "timeout", cfg.Global.ShutdownTimeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Global.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Background work stops after in-flight requests have drained
	if onShutdown != nil {
		onShutdown(ctx)
	}

	slog.Info("server exited")
	return nil
}

// Run builds the application and serves it until a shutdown signal.
func Run(cfg *config.Config, version string) error {
	slog.SetDefault(NewLogger(cfg.Log, os.Stderr))
	slog.Info("starting secrets", "version", version)

	app, err := Build(context.Background(), cfg, version)
	if err != nil {
		return err
	}

	if err := Serve(app.Router, cfg, app.Close); err != nil {
		app.Close(context.Background())
		return err
	}
	return nil
}
