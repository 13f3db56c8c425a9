package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/progression/internal/api"
	"example.com/progression/internal/config"
	"example.com/progression/internal/progress"
	"example.com/progression/internal/storage/memory"
	"example.com/progression/internal/storage/postgres"
	"example.com/progression/internal/storage/rediskv"
	"example.com/progression/internal/storage/sqlite"
)

// backend is the storage selected by STORAGE_BACKEND.
type backend struct {
	factory progress.GatewayFactory
	// logs is nil when the backend cannot page through workout logs.
	logs api.WorkoutLogLister
	// pool is set for the postgres backend, which also feeds the outbox dispatcher.
	pool  *pgxpool.Pool
	close func() error
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		store := memory.NewStore()
		return &backend{
			factory: func(userID string) progress.Gateway { return store.ForUser(userID) },
			logs:    store,
			close:   func() error { return nil },
		}, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &backend{
			factory: func(userID string) progress.Gateway { return store.ForUser(userID) },
			logs:    store,
			close:   store.Close,
		}, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		repo := postgres.NewRepository(pool)
		return &backend{
			factory: func(userID string) progress.Gateway { return repo.ForUser(userID) },
			logs:    repo,
			pool:    pool,
			close:   func() error { pool.Close(); return nil },
		}, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		store := rediskv.NewStore(rdb)
		return &backend{
			factory: func(userID string) progress.Gateway { return store.ForUser(userID) },
			logs:    store,
			close:   rdb.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
