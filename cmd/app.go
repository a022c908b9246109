package cmd

import (
	"context"
	"fmt"
	"time"

	"guild-sync/core/config"
	"guild-sync/core/database"
	"guild-sync/core/lock"
	"guild-sync/core/logger"
	"guild-sync/core/storage"
	"guild-sync/feature/battlenet"
	"guild-sync/feature/guild"
	guildsync "guild-sync/feature/sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the wired components shared by every command.
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	db           *gorm.DB
	repo         *guild.Repository
	orchestrator *guildsync.Orchestrator
	redis        *redis.Client
}

// newApp loads configuration and connects the database. With withSync set it
// also builds the upstream gateway and the orchestrator.
func newApp(ctx context.Context, withSync bool) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	tracker := database.NewTracker(db, time.Duration(cfg.Database.SlowTxMillis)*time.Millisecond, l)
	a := &app{
		cfg:    cfg,
		logger: l,
		db:     db,
		repo:   guild.NewRepository(tracker),
	}
	if !withSync {
		return a, nil
	}

	client := battlenet.NewClient(cfg.Battlenet, nil)
	creds := battlenet.NewCredentialManager(client, nil, l)
	limiter := battlenet.NewLimiter(cfg.Battlenet.LimiterConfig(), nil, l)
	gateway := battlenet.NewGateway(client, creds, limiter, nil, cfg.Battlenet.RetryBuffer(), l)

	var opts []guildsync.Option

	if cfg.Redis.Enabled() {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redis = rdb
		ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
		opts = append(opts, guildsync.WithLocker(lock.NewRedisLocker(rdb, cfg.Redis.Key, ttl)))
		l.Info("Distributed run lock enabled", zap.String("key", cfg.Redis.Key))
	}

	if cfg.Storage.Enabled {
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, store, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return nil, err
		}
		opts = append(opts, guildsync.WithArchive(guildsync.NewArchive(store, cfg.Storage.Bucket)))
		l.Info("Roster archive enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	a.orchestrator = guildsync.New(gateway, a.repo, cfg.Sync, l, opts...)
	return a, nil
}

// Close releases connections held by the app.
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}
