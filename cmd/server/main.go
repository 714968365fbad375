package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casadoar/payrecon/internal/api"
	"github.com/casadoar/payrecon/internal/backend"
	"github.com/casadoar/payrecon/internal/buildconfig"
	"github.com/casadoar/payrecon/internal/config"
	"github.com/casadoar/payrecon/internal/logging"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger, err := logging.New(config.LogLevel())
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("invalid LOG_LEVEL, using info", zap.String("level", config.LogLevel()))
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	driver := config.StoreDriver()
	dsn := config.DatabaseURL()
	if driver == backend.DriverSQLite {
		dsn = config.SQLitePath()
	}

	b, err := backend.Open(ctx, driver, dsn)
	if err != nil {
		logger.Fatal("failed to open record store", zap.String("driver", driver), zap.Error(err))
	}
	defer b.Close()
	logger.Info("connected to record store",
		zap.String("driver", driver),
		zap.String("version", buildconfig.Get().Version),
	)

	app := api.NewApp(b.Records, b.Notifications, logger)

	// Start background services
	app.Sweeper.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Stop background services
	app.Sweeper.Stop()

	logger.Info("server stopped")
}
