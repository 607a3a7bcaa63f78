package config

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/LeslieKogi/sunrise-backend/internal/repository"
)

// OpenStore connects to the configured database and brings the schema up to
// date.
func (c *Config) OpenStore(ctx context.Context) (*repository.Store, error) {
	var (
		store *repository.Store
		err   error
	)
	if c.DBDriver == "mysql" {
		store, err = repository.OpenMySQL(ctx, repository.MySQLConfig{
			Host:     c.DBHost,
			Port:     c.DBPort,
			User:     c.DBUser,
			Password: c.DBPass,
			Name:     c.DBName,
		}, 10, 3*time.Second)
	} else {
		store, err = repository.OpenSQLite(ctx, c.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx, 3); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// NewRedisClient returns nil when REDIS_ADDR is unset; callers treat a nil
// client as "no cache and no idempotency keys".
func (c *Config) NewRedisClient(ctx context.Context) (*redis.Client, error) {
	if c.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: c.RedisAddr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
