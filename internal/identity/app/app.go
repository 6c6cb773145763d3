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

	"github.com/aussiebroadwan/tenancy/internal/identity/broker"
	httpapi "github.com/aussiebroadwan/tenancy/internal/identity/http"
	"github.com/aussiebroadwan/tenancy/internal/identity/metrics"
	"github.com/aussiebroadwan/tenancy/internal/identity/service"
	"github.com/aussiebroadwan/tenancy/internal/identity/store/drivers/sqlite"
	"github.com/aussiebroadwan/tenancy/pkg/jwtx"
	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the identity service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        *sqlite.Store
	metrics   *metrics.Metrics
	publisher broker.Publisher
	verifier  jwtx.Verifier
	keys      *jwtx.KeySet       // nil with a shared secret
	remote    *jwtx.RemoteKeySet // nil unless JWKSURL is set
	events    *service.EventDispatcher

	// Services
	userService         *service.UserService
	workspaceService    *service.WorkspaceService
	membershipService   *service.MembershipService
	invitationService   *service.InvitationService
	housekeepingService *service.HousekeepingService
	outboxRelay         *service.OutboxRelay

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "identity-service",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	if cfg.MetricsEnabled {
		app.metrics = metrics.New()
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initVerifier(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initPublisher(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.StartWorkers()

	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
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

// StartWorkers starts the outbox relay, housekeeping and, with a remote
// JWKS, the key refresh loop. Shutdown stops them.
func (app *Application) StartWorkers() {
	app.outboxRelay.Start()
	app.housekeepingService.Start()
	if app.remote != nil {
		app.remote.Start(app.cfg.JWKSRefresh)
	}
}

// Shutdown drains HTTP traffic, stops the workers and closes the
// publisher and database, in that order.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down identity service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.remote != nil {
		app.remote.Stop()
	}
	app.housekeepingService.Stop()
	// Stopping the relay last lets it pick up events from in-flight requests.
	app.outboxRelay.Stop()

	if err := app.publisher.Close(); err != nil {
		app.logger.Error("error closing publisher", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity service stopped")
	return nil
}

// DSN is the sqlite connection string for a database file.
func DSN(file string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite", file)
}

// Migrate applies the database migrations and closes the database.
func Migrate(cfg Config, logger *slog.Logger) error {
	db, err := sqlite.NewStore(DSN(cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	logger.Info("database migrations applied successfully", "file", cfg.DatabaseFile)
	return nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(DSN(app.cfg.DatabaseFile))
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

// initVerifier selects how access tokens are checked. Config.Validate
// guarantees exactly one source is set.
func (app *Application) initVerifier(ctx context.Context) error {
	opts := jwtx.VerifyOptions{
		Issuer:     app.cfg.JWTIssuer,
		Audience:   app.cfg.JWTAudience,
		Leeway:     app.cfg.JWTLeeway,
		Algorithms: app.cfg.JWTAlgorithms,
	}

	switch {
	case app.cfg.JWTSecret != "":
		app.logger.Warn("verifying access tokens with a shared secret")
		app.verifier = jwtx.NewHMACVerifier([]byte(app.cfg.JWTSecret), opts)

	case app.cfg.JWKSFile != "":
		jwks, err := jwtx.LoadJWKSFile(app.cfg.JWKSFile)
		if err != nil {
			return fmt.Errorf("failed to load JWKS file: %w", err)
		}
		app.keys = jwtx.NewKeySet()
		if err := app.keys.Replace(jwks); err != nil {
			return fmt.Errorf("failed to load JWKS file: %w", err)
		}
		app.verifier = jwtx.NewKeySetVerifier(app.keys, opts)
		app.logger.Info("verification keys loaded", "file", app.cfg.JWKSFile, "keys", app.keys.Len())

	default:
		app.remote = jwtx.NewRemoteKeySet(app.cfg.JWKSURL, &http.Client{Timeout: 10 * time.Second})
		fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		// An unreachable provider at boot is not fatal; /readyz stays 503
		// until a refresh succeeds.
		if err := app.remote.Refresh(fetchCtx); err != nil {
			app.logger.Warn("initial JWKS fetch failed", "url", app.cfg.JWKSURL, "error", err)
		}
		app.keys = app.remote.Keys
		app.verifier = jwtx.NewKeySetVerifier(app.keys, opts)
	}
	return nil
}

func (app *Application) initPublisher(ctx context.Context) error {
	if app.cfg.RedisAddr == "" {
		app.logger.Info("no broker configured, integration events are logged")
		app.publisher = broker.LogPublisher{}
		return nil
	}

	pub, err := broker.NewRedisPublisher(ctx, broker.RedisConfig{
		Addr:          app.cfg.RedisAddr,
		Password:      app.cfg.RedisPassword,
		DB:            app.cfg.RedisDB,
		ChannelPrefix: app.cfg.RedisChannel,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.publisher = pub
	app.logger.Info("publishing integration events to redis", "addr", app.cfg.RedisAddr)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.events = service.NewEventDispatcher(app.metrics)
	service.RegisterHandlers(app.events)

	deps := service.Deps{Store: app.db, Events: app.events}
	app.userService = &service.UserService{Deps: deps}
	app.workspaceService = &service.WorkspaceService{Deps: deps}
	app.membershipService = &service.MembershipService{Deps: deps}
	app.invitationService = &service.InvitationService{Deps: deps}

	app.outboxRelay = service.NewOutboxRelay(
		app.db,
		app.publisher,
		app.metrics,
		app.logger,
		app.cfg.OutboxInterval,
		app.cfg.OutboxBatchSize,
	)

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.events,
		app.metrics,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	app.housekeepingService.OutboxRetention = app.cfg.OutboxRetention
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		app.keys,
		BuildVersion,
		app.db,
		app.metrics,
		app.logger,
	)
	router.Limits.TrustProxy = app.cfg.TrustProxy

	router.UserService = app.userService
	router.WorkspaceService = app.workspaceService
	router.MembershipService = app.membershipService
	router.InvitationService = app.invitationService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Handler exposes the routed handler, mostly for tests.
func (app *Application) Handler() http.Handler { return app.router }
