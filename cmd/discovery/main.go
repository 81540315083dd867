package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/config"
	logpkg "github.com/kailas-cloud/discovery/internal/logger"
	"github.com/kailas-cloud/discovery/internal/metrics"
	chiTransport "github.com/kailas-cloud/discovery/internal/transport/chi"
	"github.com/kailas-cloud/discovery/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting discovery API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_driver", cfg.Catalog.Driver),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("embedding", cfg.Embedding.Enabled),
		zap.Bool("rag", cfg.RAG.Enabled),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterProviderMetrics()
	metrics.RegisterSearchMetrics()

	ctx := context.Background()
	deps, err := wire(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build services", zap.Error(err))
	}
	defer deps.close()

	server := chiTransport.NewServer(deps.search, deps.enhancer, deps.health, logger).WithUsage(deps.usage)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  config.Seconds(cfg.HTTP.ReadTimeoutSec),
		WriteTimeout: config.Seconds(cfg.HTTP.WriteTimeoutSec),
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Seconds(cfg.HTTP.ShutdownSec))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
