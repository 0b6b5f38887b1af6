package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ledger/internal/service"
)

func newQueue(t *testing.T) (service.Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return service.NewRedisCommandQueue(rdb, "q", "q:processing"), mr
}

func TestQueue_FIFO(t *testing.T) {
	ctx := context.Background()
	q, mr := newQueue(t)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(ctx, id))
	}

	for _, want := range []string{"a", "b", "c"} {
		got, err := q.ClaimBlocking(ctx, time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	processing, err := mr.List("q:processing")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, processing)

	require.NoError(t, q.Ack(ctx, "b"))
	processing, err = mr.List("q:processing")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, processing)
}

func TestQueue_ClaimTimesOut(t *testing.T) {
	q, _ := newQueue(t)
	_, err := q.ClaimBlocking(context.Background(), time.Second)
	assert.True(t, errors.Is(err, redis.Nil), "got %v", err)
}

// Unacked ids go back to the front of the queue in the order they were claimed.
func TestQueue_RequeueStale(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(ctx, id))
	}
	for i := 0; i < 2; i++ {
		_, err := q.ClaimBlocking(ctx, time.Second)
		require.NoError(t, err)
	}

	n, err := q.RequeueStale(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, want := range []string{"a", "b", "c"} {
		got, err := q.ClaimBlocking(ctx, time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
