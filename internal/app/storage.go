package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/stall-orders/internal/storage/file"
	"github.com/xenking/stall-orders/internal/storage/postgres"
	"github.com/xenking/stall-orders/internal/storage/redis"
	"github.com/xenking/stall-orders/internal/storage/snapshot"
)

// Slot is a snapshot slot with a connection lifecycle.
type Slot interface {
	snapshot.Slot
	Ping(ctx context.Context) error
	Close() error
}

// OpenSlot connects the backend selected by cfg.Driver and returns the slot
// named cfg.Slot. The caller closes it.
func OpenSlot(ctx context.Context, lg *zap.Logger, cfg StorageConfig) (Slot, error) {
	switch cfg.Driver {
	case DriverFile:
		s, err := file.NewSlot(cfg.DataDir, cfg.Slot)
		if err != nil {
			return nil, errors.Wrap(err, "open file slot")
		}
		lg.Info("Using file slot", zap.String("path", s.Path()))
		return s, nil

	case DriverRedis:
		client, err := redis.NewClient(cfg.RedisURL, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, errors.Wrap(err, "create redis client")
		}
		s := redis.NewSlot(client, cfg.Slot)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, errors.Wrap(err, "ping redis")
		}
		lg.Info("Using redis slot", zap.String("key", s.Key()))
		return s, nil

	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		lg.Info("Using postgres slot", zap.String("slot", cfg.Slot))
		return postgres.NewSlot(pool, cfg.Slot), nil

	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
