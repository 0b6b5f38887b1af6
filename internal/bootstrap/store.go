package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"job-ledger/internal/config"
	"job-ledger/internal/repository"
	"job-ledger/internal/repository/memory"
	"job-ledger/internal/repository/postgresql"
	redisstore "job-ledger/internal/repository/redis"
	"job-ledger/internal/repository/sqlite"
)

// OpenStore opens and migrates the backend named by cfg.StoreDriver.
// The returned func releases everything OpenStore acquired.
func OpenStore(ctx context.Context, cfg config.Config) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), func() {}, nil

	case config.DriverPostgres:
		pool, err := postgresql.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return migrated(ctx, postgresql.NewStore(pool), pool.Close)

	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return migrated(ctx, s, func() {
			if err := s.Close(); err != nil {
				log.WithError(err).Warn("close sqlite")
			}
		})

	case config.DriverRedis:
		rdb, err := NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return migrated(ctx, redisstore.New(rdb, cfg.RedisKeyPrefix), func() { _ = rdb.Close() })

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func migrated(ctx context.Context, s repository.Store, closeFn func()) (repository.Store, func(), error) {
	if err := s.Migrate(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return s, closeFn, nil
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rdb, nil
}

// OpenCommandRecords opens the postgres pool that holds queued command
// records and applies migrations.
func OpenCommandRecords(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := postgresql.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := postgresql.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
