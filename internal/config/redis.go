package config

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

// GetRedisDB returns the Redis client, or nil when Redis is not configured
func GetRedisDB() *redis.Client {
	return rdb
}

// GetRedisLock returns the lock client, or nil when Redis is not configured
func GetRedisLock() *redislock.Client {
	return locker
}

// ConnectRedis connects to Redis when REDIS_ADDR is set. A failed ping
// leaves Redis disabled; the server keeps running without job locks.
func ConnectRedis(cfg *Config) *redislock.Client {
	if cfg.Redis.Addr == "" {
		GetLogger().Info("REDIS_ADDR not set; background jobs run without distributed locks")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		LogError(GetLogger(), "config", "ConnectRedis", "ping", cfg.Redis.Addr, err)
		_ = client.Close()
		return nil
	}

	rdb = client
	locker = redislock.New(rdb)
	GetLogger().Infof("✅ Redis connected [%s]", cfg.Redis.Addr)
	return locker
}

// CloseRedis closes the Redis connection
func CloseRedis() error {
	if rdb == nil {
		return nil
	}
	return rdb.Close()
}
