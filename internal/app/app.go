// Package app initializes and runs the service: configuration, logging,
// storage, session handling and routing, with graceful shutdown on SIGINT
// and SIGTERM.
package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tinylink/internal/auth"
	"tinylink/internal/config"
	"tinylink/internal/ipchecker"
	"tinylink/internal/keygen"
	"tinylink/internal/logger"
	"tinylink/internal/memorystorage"
	"tinylink/internal/router"
	"tinylink/internal/service"
)

// App bundles the configuration, the storage backend and the HTTP handler
// needed to run the URL shortener.
type App struct {
	cfg         *config.Config
	db          *memorystorage.MemoryStorage
	httpHandler http.Handler
}

// New builds the application:
// - loads and validates configuration
// - initializes the logger
// - creates the in-memory storage (data lives until the process exits)
// - wires the session codec, the service layer and the router
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	if err = logger.Init(app.cfg.LogLevel); err != nil {
		return nil, err
	}

	app.db, err = memorystorage.New()
	if err != nil {
		return nil, err
	}

	signingKey, err := base64.StdEncoding.DecodeString(app.cfg.SessionSigningSecretKey)
	if err != nil {
		return nil, fmt.Errorf("decoding session signing key: %w", err)
	}

	ipChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	svc := service.New(app.db, keygen.New(), app.cfg.ShortURLBase)
	sessionCodec := auth.New(app.db, app.cfg.SessionCookieName, signingKey)

	app.httpHandler = router.New(svc, sessionCodec, ipChecker)

	return app, nil
}

// Run starts the HTTP server and blocks until a shutdown signal arrives or
// the server fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
