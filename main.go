package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cocreview/internal"
	"cocreview/internal/config"
	"cocreview/internal/container"
	"cocreview/ui"
)

func main() {
	logger := internal.DefaultLogger
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded: %v", err)
	}

	appConfig, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(appConfig, logger)
	if err != nil {
		logger.Error("failed to create container: %v", err)
		os.Exit(1)
	}
	if err := c.Open(ctx); err != nil {
		logger.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer c.Close()

	if err := c.Bootstrap(ctx); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	server, err := ui.NewServer(ui.Config{
		Documents:     c.Documents,
		Auth:          c.Auth,
		API:           c.API.Router(),
		SessionCookie: appConfig.Server.SessionCookie,
		SessionTTL:    appConfig.Auth.SessionTTL,
		AccessLog:     appConfig.Server.GinMode == "debug",
		Debug:         appConfig.Server.GinMode == "debug",
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to create web server: %v", err)
		os.Exit(1)
	}

	if appConfig.Profiling.Enabled {
		go func() {
			logger.Info("pprof listening on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				logger.Warn("pprof server failed: %v", err)
			}
		}()
	}

	go purgeSessions(ctx, c, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(":" + appConfig.Server.Port) }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed: %v", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed: %v", err)
		}
	}
}

// purgeSessions deletes expired sessions every hour until ctx is done.
func purgeSessions(ctx context.Context, c *container.Container, logger *internal.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Auth.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purging sessions: %v", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged %d expired sessions", n)
			}
		}
	}
}
