package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Queue interface {
	Enqueue(ctx context.Context, commandID string) error
	ClaimBlocking(ctx context.Context, timeout time.Duration) (string, error)
	Ack(ctx context.Context, commandID string) error
	RequeueStale(ctx context.Context, max int64) (int64, error)
}

// redisCommandQueue is a reliable FIFO on two Redis lists.
// Enqueue: LPUSH queue
// Claim:   BRPOPLPUSH queue -> processing
// Ack:     LREM processing
// Commands must apply in submission order, so there is a single lane.
type redisCommandQueue struct {
	rdb           *redis.Client
	queueKey      string
	processingKey string
}

func NewRedisCommandQueue(rdb *redis.Client, queueKey, processingKey string) Queue {
	return &redisCommandQueue{
		rdb:           rdb,
		queueKey:      queueKey,
		processingKey: processingKey,
	}
}

func (q *redisCommandQueue) Enqueue(ctx context.Context, commandID string) error {
	return q.rdb.LPush(ctx, q.queueKey, commandID).Err()
}

// ClaimBlocking waits up to timeout for the oldest queued id; redis.Nil when
// nothing arrived. timeout <= 0 blocks until ctx is done.
func (q *redisCommandQueue) ClaimBlocking(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout < 0 {
		timeout = 0
	}
	id, err := q.rdb.BRPopLPush(ctx, q.queueKey, q.processingKey, timeout).Result()
	if err != nil {
		return "", err
	}
	return id, nil
}

func (q *redisCommandQueue) Ack(ctx context.Context, commandID string) error {
	return q.rdb.LRem(ctx, q.processingKey, 1, commandID).Err()
}

// RequeueStale moves claimed but unacked ids back to the consuming end of the
// queue so they are delivered next. It's a simple reaper: at-least-once delivery.
func (q *redisCommandQueue) RequeueStale(ctx context.Context, max int64) (int64, error) {
	var moved int64
	for i := int64(0); i < max; i++ {
		id, err := q.rdb.LMove(ctx, q.processingKey, q.queueKey, "LEFT", "RIGHT").Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return moved, err
		}
		if id != "" {
			moved++
		}
	}
	return moved, nil
}
