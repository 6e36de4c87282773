package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"activity-points/config"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// ResolveDriver picks a driver from the store settings: an explicit driver
// wins, then DATABASE_URL, then REDIS_ADDR, and memory otherwise.
func ResolveDriver(cfg config.Store) string {
	if cfg.Driver != "" {
		return strings.ToLower(cfg.Driver)
	}
	switch {
	case strings.HasPrefix(cfg.DatabaseURL, "sqlite:"), strings.HasPrefix(cfg.DatabaseURL, "file:"):
		return "sqlite"
	case cfg.DatabaseURL != "":
		return "postgres"
	case cfg.RedisAddr != "":
		return "redis"
	}
	return "memory"
}

// Open connects the configured store. A store that is configured but
// unreachable is an error; no configuration at all yields the memory store.
func Open(ctx context.Context, cfg config.Store) (*Store, error) {
	driver := ResolveDriver(cfg)
	switch driver {
	case "memory":
		log.Warn().Msg("no persistent store configured, using volatile memory store")
		return NewMemory(), nil

	case "postgres":
		db, err := Connect("postgres", cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return NewSQL(db)

	case "sqlite":
		dsn := strings.TrimPrefix(cfg.DatabaseURL, "sqlite:")
		if dsn == "" {
			dsn = cfg.SQLitePath
		}
		db, err := Connect("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return NewSQL(db)

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
		return NewRedis(rdb, cfg.RedisPrefix), nil
	}
	return nil, fmt.Errorf("database: unknown store driver %q", driver)
}
