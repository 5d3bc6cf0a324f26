package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/finboard-backend/internal/logger"
)

type redisKV struct {
	log *logger.Logger
	rdb *goredis.Client
}

// NewRedisKV connects to REDIS_ADDR and pings it before returning.
func NewRedisKV(log *logger.Logger) (KV, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisKV{
		log: log.With("service", "RedisKV"),
		rdb: rdb,
	}, nil
}

func (r *redisKV) Get(ctx context.Context, key string) (string, error) {
	if r == nil || r.rdb == nil {
		return "", fmt.Errorf("redis KV not initialized")
	}
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, nil
}

func (r *redisKV) Set(ctx context.Context, key, value string) error {
	if r == nil || r.rdb == nil {
		return fmt.Errorf("redis KV not initialized")
	}
	if err := r.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (r *redisKV) Remove(ctx context.Context, key string) error {
	if r == nil || r.rdb == nil {
		return fmt.Errorf("redis KV not initialized")
	}
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

func (r *redisKV) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
