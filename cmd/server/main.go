package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/teambrain/internal/api"
	"github.com/Harshitk-cp/teambrain/internal/buildconfig"
	"github.com/Harshitk-cp/teambrain/internal/config"
	"github.com/Harshitk-cp/teambrain/internal/store"
	"github.com/Harshitk-cp/teambrain/internal/store/memstore"
	"github.com/Harshitk-cp/teambrain/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("invalid LOG_LEVEL, using info", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "teambrain",
		ServiceVersion: buildconfig.Version(),
		Environment:    config.Environment(),
		TracesExporter: config.TracesExporter(),
		OTLPEndpoint:   config.OTLPEndpoint(),
	})
	if err != nil {
		logger.Fatal("failed to initialise tracing", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	var app *api.App
	switch config.StorageBackend() {
	case config.StorageMemory:
		logger.Warn("using in-memory storage, data will not survive a restart", zap.String("version", buildconfig.Version()))
		app = api.NewAppWithLLM(api.NewMemoryStores(memstore.New()), logger)
	default:
		pool := connect(ctx, logger)
		defer pool.Close()
		app = api.NewApp(pool, logger)
	}

	// Start background services
	app.Expirer.Start()

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

	// Stop background services
	app.Expirer.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func connect(ctx context.Context, logger *zap.Logger) *pgxpool.Pool {
	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database", zap.String("version", buildconfig.Version()))

	if config.AutoMigrate() {
		if err := store.Migrate(ctx, pool, config.MigrationsPath(), logger); err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
	}
	return pool
}
