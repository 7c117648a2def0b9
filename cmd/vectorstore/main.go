package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alkashef/vector-store/internal/config"
	dbRedis "github.com/alkashef/vector-store/internal/db/redis"
	"github.com/alkashef/vector-store/internal/ingest"
	logpkg "github.com/alkashef/vector-store/internal/logger"
	"github.com/alkashef/vector-store/internal/metrics"
	"github.com/alkashef/vector-store/internal/repository/document"
	"github.com/alkashef/vector-store/internal/repository/embcache"
	"github.com/alkashef/vector-store/internal/retry"
	chiTransport "github.com/alkashef/vector-store/internal/transport/chi"
	openaiTransport "github.com/alkashef/vector-store/internal/transport/openai"
	"github.com/alkashef/vector-store/internal/vectorize"
	"github.com/alkashef/vector-store/internal/version"
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

	logger.Info("Starting vector-store server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embed_model", cfg.Embedding.Model),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	// Build the embedder chain: OpenAI provider -> cache decorator
	provider := openaiTransport.NewClient(&openaiTransport.Config{
		APIKey:         cfg.Embedding.APIKey,
		BaseURL:        cfg.Embedding.BaseURL,
		EmbedModel:     cfg.Embedding.DefaultModel,
		Provider:       cfg.Embedding.Provider,
		RequestTimeout: time.Duration(cfg.Embedding.RequestTimeoutSec) * time.Second,
		Retry:          retry.DefaultPolicy().WithAttempts(cfg.Embedding.RetryAttempts),
		Logger:         logger,
	})
	embedder := embcache.New(provider, store, cfg.Storage.KeyPrefix, metrics.EmbeddingCacheTotal, logger)

	docRepo := document.New(store, cfg.Storage.KeyPrefix)
	pipeline := vectorize.New(docRepo, embedder, logger, vectorize.Options{
		Model:            cfg.Embedding.Model,
		MaxCharsPerChunk: cfg.Vectorize.MaxCharsPerChunk,
		BatchSize:        cfg.Vectorize.BatchSize,
	})
	ingestSvc := ingest.New(cfg.Data.CVDir, cfg.Data.JDDir, pipeline, logger)

	server := chiTransport.NewServer(ingestSvc, store, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
