package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/micrositio/authd/internal/auth/domain"
	httpapi "github.com/micrositio/authd/internal/auth/http"
	"github.com/micrositio/authd/internal/auth/mail"
	"github.com/micrositio/authd/internal/auth/service"
	"github.com/micrositio/authd/internal/auth/store"
	"github.com/micrositio/authd/internal/auth/store/drivers/sqlite"
	"github.com/micrositio/authd/pkg/cryptox"
	"github.com/micrositio/authd/pkg/idx"
	"github.com/micrositio/authd/pkg/jwtx"
	"github.com/micrositio/authd/pkg/slogx"
)

const (
	// BuildVersion should be overridden at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	signer jwtx.Signer
	keys   *jwtx.KeySet
	sender mail.Sender

	// Services
	registerService     *service.RegisterService
	loginService        *service.LoginService
	mfaService          *service.MFAService
	passwordService     *service.PasswordService
	sessionService      *service.SessionService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, keys, err := InitSigningKeys(app.cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.signer = signer
	app.keys = keys

	if err := app.seedAllowlist(); err != nil {
		return nil, err
	}

	app.initMail()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// seedAllowlist inserts AUTH_ALLOWLIST_SEED entries ("matricula:email" pairs,
// comma separated). Entries already present are left untouched.
func (app *Application) seedAllowlist() error {
	if app.cfg.AllowlistSeed == "" {
		return nil
	}

	ctx := context.Background()
	for _, pair := range strings.Split(app.cfg.AllowlistSeed, ",") {
		matricula, email, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || matricula == "" || email == "" {
			return fmt.Errorf("malformed allowlist seed entry %q", pair)
		}

		if _, err := app.db.AuthorizedUsers().GetByMatricula(ctx, matricula); err == nil {
			continue
		}

		err := app.db.AuthorizedUsers().Create(ctx, domain.AuthorizedUser{
			ID:        idx.New().String(),
			Matricula: matricula,
			Email:     email,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return fmt.Errorf("seed allowlist entry %q: %w", matricula, err)
		}
		app.logger.Info("allowlist entry seeded", "matricula", matricula)
	}

	return nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("authd starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down authd...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("authd stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

// initMail selects the outbound mail sender. Without an SMTP host every
// delivery goes to the log, which keeps dev setups self-contained.
func (app *Application) initMail() {
	var next mail.Sender = mail.LogSender{}

	if app.cfg.SMTPHost != "" {
		smtp, err := mail.NewSMTPSender(mail.Config{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
			From:     app.cfg.SMTPFrom,
		})
		if err != nil {
			app.logger.Error("smtp sender unavailable, falling back to log-only mail", "error", err)
		} else {
			next = smtp
		}
	} else {
		app.logger.Info("no SMTP host configured, mail goes to the log")
	}

	app.sender = &mail.AuditSender{Next: next, Store: app.db}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	notifier := &service.Notifier{
		Sender:     app.sender,
		AdminEmail: app.cfg.AdminEmail,
	}

	app.sessionService = &service.SessionService{
		Store:             app.db,
		Signer:            app.signer,
		Verifier:          jwtx.NewVerifierEdDSA(app.keys, app.cfg.Issuer),
		Issuer:            app.cfg.Issuer,
		ChallengeTTL:      app.cfg.ChallengeTTL,
		SessionTTL:        app.cfg.SessionTTL,
		RotationThreshold: app.cfg.RotationThreshold,
	}

	app.registerService = &service.RegisterService{
		Store:    app.db,
		Notifier: notifier,
	}

	app.loginService = &service.LoginService{
		Store:            app.db,
		Sessions:         app.sessionService,
		LockoutThreshold: app.cfg.LockoutThreshold,
		LockoutWindow:    app.cfg.LockoutWindow,
	}

	app.mfaService = &service.MFAService{
		Store:     app.db,
		Sessions:  app.sessionService,
		Issuer:    app.cfg.TOTPIssuer,
		SkewSteps: uint(app.cfg.TOTPSkewSteps),
	}

	app.passwordService = &service.PasswordService{
		Store:    app.db,
		Sender:   app.sender,
		Sessions: app.sessionService,
		CodeTTL:  app.cfg.CodeTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.RegisterService = app.registerService
	router.LoginService = app.loginService
	router.MFAService = app.mfaService
	router.PasswordService = app.passwordService
	router.SessionService = app.sessionService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
