package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// blpopTimeout bounds each BLPOP so Dequeue can notice a cancelled context
// between polls instead of blocking on Redis forever.
const blpopTimeout = 2 * time.Second

// RedisQueue implements Queue on a Redis list. Enqueue does RPUSH, Dequeue
// does BLPOP, so the same list key can be shared by several server processes.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue returns a queue backed by the given Redis list key. It pings
// Redis once so a misconfigured address fails at startup, not at the first
// upload.
func NewRedisQueue(client *redis.Client, key string) (Queue, error) {
	if key == "" {
		key = "carelog:jobs"
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Printf("NewRedisQueue: using list %s", key)
	return &RedisQueue{client: client, key: key}, nil
}

func (r *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", r.key, err)
	}

	log.Printf("Enqueue: queued %s job (%d bytes)", job.Type, len(data))
	return nil
}

func (r *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		val, err := r.client.BLPop(ctx, blpopTimeout, r.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Poll timed out with the list empty. Give the context a
				// chance, then wait again.
				if ctx.Err() != nil {
					return Job{}, ctx.Err()
				}
				continue
			}
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, fmt.Errorf("blpop %s: %w", r.key, err)
		}

		// BLPOP returns [key, value].
		if len(val) != 2 {
			return Job{}, fmt.Errorf("blpop %s: unexpected reply length %d", r.key, len(val))
		}

		var job Job
		if err := json.Unmarshal([]byte(val[1]), &job); err != nil {
			return Job{}, fmt.Errorf("unmarshal job: %w", err)
		}
		return job, nil
	}
}
