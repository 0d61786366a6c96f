package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/markdave123-py/Botforge/internal/core"
)

const (
	// TrainKey and PurgeKey are the Redis lists holding pending work.
	TrainKey = "botforge:jobs:train"
	PurgeKey = "botforge:jobs:purge"
)

// RedisQueue is the durable work queue. Publish pushes a JSON message onto a
// list; workers block-pop from both lists.
type RedisQueue struct {
	rdb *goredis.Client
}

func NewRedisQueue(ctx context.Context, redisURL string) (*RedisQueue, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisQueue{rdb: rdb}, nil
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}

func (q *RedisQueue) PublishTrain(ctx context.Context, msg core.TrainMessage) error {
	return q.push(ctx, TrainKey, msg)
}

func (q *RedisQueue) PublishPurge(ctx context.Context, msg core.PurgeMessage) error {
	return q.push(ctx, PurgeKey, msg)
}

func (q *RedisQueue) push(ctx context.Context, key string, msg any) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", key, err)
	}
	return nil
}

// Next blocks until a message is available on either list and returns the
// list key it came from together with the raw payload. A nil payload with a
// nil error means the wait timed out; callers just loop.
func (q *RedisQueue) Next(ctx context.Context, wait time.Duration) (string, []byte, error) {
	res, err := q.rdb.BLPop(ctx, wait, TrainKey, PurgeKey).Result()
	if err == goredis.Nil {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	if len(res) != 2 {
		return "", nil, fmt.Errorf("unexpected BLPOP reply of length %d", len(res))
	}
	return res[0], []byte(res[1]), nil
}

var _ core.Queue = (*RedisQueue)(nil)
