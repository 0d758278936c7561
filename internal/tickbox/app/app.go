package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/aussiebroadwan/tickbox/internal/tickbox/http"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/metrics"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/service"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store/drivers/postgres"
	redisdrv "github.com/aussiebroadwan/tickbox/internal/tickbox/store/drivers/redis"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store/drivers/sqlite"
	"github.com/aussiebroadwan/tickbox/pkg/cryptox"
	"github.com/aussiebroadwan/tickbox/pkg/jwtx"
	"github.com/aussiebroadwan/tickbox/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the tickbox service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	tokens     store.Tokens
	redis      *redisdrv.Tokens // nil unless the registry lives in Redis
	keyManager *jwtx.KeyManager
	registry   *prometheus.Registry
	metrics    *metrics.Collector

	// Services
	tokenService        *service.TokenService
	userService         *service.UserService
	todoService         *service.TodoService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tickbox",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.PepperFile != "" {
		if err := cryptox.LoadPepperFile(cfg.PepperFile); err != nil {
			return nil, fmt.Errorf("failed to load pepper: %w", err)
		}
	} else {
		app.logger.Warn("no pepper configured, password hashes are unpeppered")
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initTokenRegistry(ctx); err != nil {
		app.closeStores()
		return nil, err
	}

	keyManager, err := InitKeys(cfg, app.logger)
	if err != nil {
		app.closeStores()
		return nil, err
	}
	app.keyManager = keyManager

	app.initMetrics()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the configured router, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("tickbox starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		app.closeStores()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down tickbox...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("tickbox stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initDatabase opens the configured database and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case DriverSQLite:
		db, err = sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	case DriverPostgres:
		if app.cfg.DatabaseURL == "" {
			return errors.New("TICKBOX_DATABASE_URL is required for the postgres driver")
		}
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		return fmt.Errorf("unknown database driver %q", app.cfg.DatabaseDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initTokenRegistry picks where issued tokens are recorded.
func (app *Application) initTokenRegistry(ctx context.Context) error {
	switch app.cfg.TokenRegistry {
	case RegistryDatabase:
		app.tokens = app.db.Tokens()
	case RegistryRedis:
		r, err := redisdrv.New(ctx, redisdrv.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect token registry: %w", err)
		}
		app.redis = r
		app.tokens = r
	default:
		return fmt.Errorf("unknown token registry %q", app.cfg.TokenRegistry)
	}

	app.logger.Info("token registry ready", "backend", app.cfg.TokenRegistry)
	return nil
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.NewCollector(app.registry)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Keys:        app.keyManager,
		Users:       app.db.Users(),
		Tokens:      app.tokens,
		Issuer:      app.cfg.Issuer,
		Audience:    app.cfg.Audience,
		AccessTTL:   app.cfg.AccessTokenTTL,
		RefreshTTL:  app.cfg.RefreshTokenTTL,
		IdentityTTL: app.cfg.IdentityTokenTTL,
		Metrics:     app.metrics,
	}

	app.userService = &service.UserService{
		Store:        app.db,
		DefaultRoles: app.cfg.DefaultRoles,
		Metrics:      app.metrics,
	}
	app.todoService = &service.TodoService{
		Store:   app.db,
		Metrics: app.metrics,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.tokens,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.metrics,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.keyManager, BuildVersion, app.db, app.logger)

	router.Gatherer = app.registry
	router.RequestTimeout = app.cfg.RequestTimeout
	if app.redis != nil {
		router.Registry = app.redis
	}

	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.TodoService = app.todoService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
