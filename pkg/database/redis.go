package database

import (
	"context"
	"fmt"
	"time"

	"yamdb-api/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 3 * time.Second

// InitRedis connects to Redis and validates connectivity with a ping.
func InitRedis(ctx context.Context, config utils.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
