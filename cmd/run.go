package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"folio/core"
)

const (
	healthCheckInterval = 60 * time.Second
	shutdownTimeout     = 30 * time.Second
)

func initializeFsWatcher(ctx *core.Context) error {
	// The watcher reloads the whole site once a burst of changes has settled
	watcher, err := core.NewFileWatcher(ctx.Content)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	watcher.OnReload(func(events []core.FileWatchEvent, err error) {
		if err == nil {
			core.Info("site reloaded after %d change(s), %d pages", len(events), len(ctx.Content.Pages()))
		}
	})

	if err := watcher.Start(ctx.Config.SiteDirectory); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	ctx.Watcher = watcher
	return nil
}

// Run serves the site until SIGINT or SIGTERM, reloading it whenever files change
func Run(ctx *core.Context) error {
	if ctx.Config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := initializeFsWatcher(ctx); err != nil {
		return err
	}
	defer ctx.Watcher.Stop()

	// Set up the routes
	rm := core.NewRouterManager()
	if err := rm.InitializeRouter(ctx); err != nil {
		return fmt.Errorf("failed to set up routes: %w", err)
	}
	defer rm.Stop()

	// Start monitoring services
	monitoringCtx, cancelMonitoring := context.WithCancel(context.Background())
	defer cancelMonitoring()

	go core.GlobalMetrics.StartMetricsCollector(monitoringCtx)
	go rm.HealthChecker().StartPeriodicChecks(monitoringCtx, healthCheckInterval)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(ctx.Config.Server.Port),
		Handler:      rm.GetRouter(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		core.Info("starting server on :%d (%s)", ctx.Config.Server.Port, ctx.SiteURL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case sig := <-quit:
		core.Info("received %s, shutting down server...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	core.Info("server exited")
	return nil
}
