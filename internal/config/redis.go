package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis using REDIS_ADDR, REDIS_DB and
// REDIS_PASSWORD. Redis is optional for this server, so callers treat an
// error here as "run without the job queue" rather than fatal.
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	db := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			log.Printf("NewRedisClient: ignoring invalid REDIS_DB %q", raw)
		} else {
			db = parsed
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       db,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis at %s unavailable: %w", addr, err)
	}

	log.Printf("NewRedisClient: connected to %s (db %d)", addr, db)
	return client, nil
}
