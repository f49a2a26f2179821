package utils

import (
	"context"
	"fmt"
	"time"

	"capturemoments/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient holds quote snapshots and provider snapshot versions.
var CacheClient *redis.Client

// InitCache connects the cache client and checks it answers.
func InitCache(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("connect to redis cache at %s: %w", config.AppConfig.RedisAddr, err)
	}
	CacheClient = client
	return nil
}

// CloseCache closes the cache client if it was opened.
func CloseCache() error {
	if CacheClient == nil {
		return nil
	}
	return CacheClient.Close()
}
