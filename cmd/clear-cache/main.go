// Command clear-cache purges every cached embedding from the store. Safe to
// run at any time: the cache only trades API calls for storage.
package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alkashef/vector-store/internal/config"
	dbRedis "github.com/alkashef/vector-store/internal/db/redis"
	logpkg "github.com/alkashef/vector-store/internal/logger"
	"github.com/alkashef/vector-store/internal/repository/embcache"
)

func main() {
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

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

	cache := embcache.New(nil, store, cfg.Storage.KeyPrefix, nil, logger)
	deleted, err := cache.Purge(ctx)
	if err != nil {
		logger.Fatal("Cache purge failed", zap.Error(err))
	}

	logger.Info("Embedding cache cleared", zap.Int("keys_deleted", deleted))
}
