package database

import (
	"context"
	"log"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedis returns a connected client, or nil when REDIS_ADDR is unset or the
// server does not answer. Callers treat nil as "no cache".
func NewRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] redis at %s unreachable, caching disabled: %v", cfg.RedisAddr, err)
		rdb.Close()
		return nil
	}
	log.Println("Redis connected:", cfg.RedisAddr)
	return rdb
}
