package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harborworks/gatehouse/internal/auth/cache"
	httpapi "github.com/harborworks/gatehouse/internal/auth/http"
	"github.com/harborworks/gatehouse/internal/auth/provider"
	"github.com/harborworks/gatehouse/internal/auth/ratelimit"
	"github.com/harborworks/gatehouse/internal/auth/service"
	"github.com/harborworks/gatehouse/internal/auth/store"
	"github.com/harborworks/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/harborworks/gatehouse/pkg/cryptox"
	"github.com/harborworks/gatehouse/pkg/jwtx"
	"github.com/harborworks/gatehouse/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	kv       cache.KV
	signer   jwtx.Signer
	verifier jwtx.Verifier

	tokenService        *service.TokenService
	sessionManager      *service.SessionManager
	authService         *service.AuthService
	federatedService    *service.FederatedService
	limiter             *ratelimit.Limiter
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatehouse",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(cfg.PepperFile)

	signer, verifier, err := InitAuthKeys(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token keys: %w", err)
	}
	app.signer = signer
	app.verifier = verifier

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initCache(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gatehouse starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully stops the server, background workers and stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gatehouse...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.kv.Close(); err != nil {
		app.logger.Error("error closing cache", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gatehouse stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initCache() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := cache.NewRedis(ctx, app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.kv = kv
	return nil
}

func (app *Application) initServices() {
	app.limiter = ratelimit.New(ratelimit.Config{
		MaxAttempts: app.cfg.RateLimitMaxAttempts,
		Window:      app.cfg.RateLimitWindow,
		BanDuration: app.cfg.RateLimitBan,
	}, app.logger)

	app.tokenService = &service.TokenService{
		Signer:     app.signer,
		Verifier:   app.verifier,
		Cache:      app.kv,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}
	app.sessionManager = &service.SessionManager{
		Cache: app.kv,
		TTL:   app.cfg.RefreshTokenTTL,
	}
	app.authService = &service.AuthService{
		Store:    app.db,
		Tokens:   app.tokenService,
		Sessions: app.sessionManager,
		Limiter:  app.limiter,
	}
	app.federatedService = &service.FederatedService{
		Store:     app.db,
		Cache:     app.kv,
		Tokens:    app.tokenService,
		Sessions:  app.sessionManager,
		Providers: app.buildProviders(),
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.limiter,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// buildProviders wires up every provider with complete credentials.
// Providers with missing configuration are skipped rather than failing
// startup, so password-only deployments need no OAuth settings.
func (app *Application) buildProviders() map[string]service.Provider {
	providers := make(map[string]service.Provider)

	if app.cfg.GoogleClientID != "" && app.cfg.GoogleClientSecret != "" {
		providers["google"] = provider.NewGoogle(provider.Config{
			ClientID:     app.cfg.GoogleClientID,
			ClientSecret: app.cfg.GoogleClientSecret,
			RedirectURL:  app.cfg.GoogleRedirectURL,
		})
		app.logger.Info("federated provider enabled", "provider", "google")
	}
	if app.cfg.AppleClientID != "" && app.cfg.AppleClientSecret != "" {
		providers["apple"] = provider.NewApple(provider.Config{
			ClientID:     app.cfg.AppleClientID,
			ClientSecret: app.cfg.AppleClientSecret,
			RedirectURL:  app.cfg.AppleRedirectURL,
		})
		app.logger.Info("federated provider enabled", "provider", "apple")
	}

	return providers
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		app.verifier,
		BuildVersion,
		app.db,
		app.kv,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.AuthService = app.authService
	router.FederatedService = app.federatedService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
