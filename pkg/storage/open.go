package storage

import (
	"context"
	"database/sql"
	"fmt"

	bunrepo "github.com/goliatone/go-signdesk/internal/storage/bun"
	"github.com/goliatone/go-signdesk/internal/storage/memory"
	"github.com/goliatone/go-signdesk/pkg/config"
	"github.com/goliatone/go-signdesk/pkg/secrets"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// WithRedisPassword authenticates the redis connection opened by Open.
func WithRedisPassword(password string) Option {
	return func(p *Providers) {
		p.redisPassword = password
	}
}

// Open builds providers for the configured driver. The returned providers own
// their connections; call Close when done.
func Open(ctx context.Context, cfg config.StorageConfig, opts ...Option) (Providers, error) {
	if cfg.Namespace != "" {
		opts = append([]Option{WithNamespace(cfg.Namespace)}, opts...)
	}

	switch cfg.Driver {
	case "", "memory":
		return finalize(Providers{
			KV:      memory.New(memory.WithQuota(cfg.QuotaBytes)),
			Secrets: secrets.NewMemoryStore(),
		}, opts), nil
	case "sqlite":
		sqldb, err := sql.Open(sqliteshim.DriverName(), cfg.DSN)
		if err != nil {
			return Providers{}, fmt.Errorf("storage: open sqlite: %w", err)
		}
		db := bun.NewDB(sqldb, sqlitedialect.New())
		if err := bunrepo.CreateSchema(ctx, db); err != nil {
			_ = db.Close()
			return Providers{}, fmt.Errorf("storage: create schema: %w", err)
		}
		providers := NewBunProviders(db, opts...)
		providers.closers = append(providers.closers, db.Close)
		return providers, nil
	case "redis":
		settings := Providers{}
		for _, opt := range opts {
			if opt != nil {
				opt(&settings)
			}
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: settings.redisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return Providers{}, fmt.Errorf("storage: redis ping: %w", err)
		}
		return NewRedisProviders(client, opts...)
	case "postgres":
		return NewPostgresProviders(cfg.DSN, opts...)
	default:
		return Providers{}, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}
