// Command rebuild-schema destructively rebuilds the store's collections:
// it drops every managed index together with its stored objects and
// recreates them from a JSON schema file.
//
// Usage:
//
//	rebuild-schema [schema.json]
//
// Defaults to the schema path from the config file.
package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/alkashef/vector-store/internal/config"
	dbRedis "github.com/alkashef/vector-store/internal/db/redis"
	logpkg "github.com/alkashef/vector-store/internal/logger"
	"github.com/alkashef/vector-store/internal/repository/catalog"
)

func main() {
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	schemaPath := cfg.Storage.SchemaPath
	if len(os.Args) > 1 {
		schemaPath = os.Args[1]
	}
	logger.Info("Rebuilding schema", zap.String("schema", schemaPath))

	schema, err := catalog.LoadSchema(schemaPath)
	if err != nil {
		logger.Fatal("Failed to load schema", zap.Error(err))
	}
	logger.Info("Schema loaded", zap.Int("classes", len(schema.Classes)))

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

	repo := catalog.New(store, cfg.Storage.KeyPrefix, cfg.Vectorize.VectorDim, logger)
	if err := repo.RebuildAll(ctx, schema); err != nil {
		logger.Fatal("Schema rebuild failed", zap.Error(err))
	}

	logger.Info("Schema rebuild complete")
}
