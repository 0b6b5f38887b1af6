package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"job-ledger/internal/worker"
)

type chanQueue struct {
	ch chan string

	mu    sync.Mutex
	acked []string
}

func (q *chanQueue) Enqueue(ctx context.Context, id string) error {
	q.ch <- id
	return nil
}

func (q *chanQueue) ClaimBlocking(ctx context.Context, timeout time.Duration) (string, error) {
	select {
	case id := <-q.ch:
		return id, nil
	case <-time.After(timeout):
		return "", redis.Nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (q *chanQueue) Ack(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, id)
	return nil
}

func (q *chanQueue) RequeueStale(ctx context.Context, max int64) (int64, error) { return 0, nil }

func (q *chanQueue) ackedIDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.acked...)
}

type recordingProcessor struct {
	mu   sync.Mutex
	seen []string
	fail map[string]error
}

func (p *recordingProcessor) Process(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, id)
	return p.fail[id]
}

func (p *recordingProcessor) seenIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.seen...)
}

func TestPool_ProcessesInOrderAndAcks(t *testing.T) {
	q := &chanQueue{ch: make(chan string, 10)}
	proc := &recordingProcessor{fail: map[string]error{"b": errors.New("bookkeeping failed")}}
	for _, id := range []string{"a", "b", "c"} {
		_ = q.Enqueue(context.Background(), id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		worker.NewPool(q, proc, 0).WithClaimDelay(20 * time.Millisecond).Run(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return len(proc.seenIDs()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-stopped

	assert.Equal(t, []string{"a", "b", "c"}, proc.seenIDs())
	// "b" stays unacked for the reaper.
	assert.Equal(t, []string{"a", "c"}, q.ackedIDs())
}

func TestPool_InFlightIsLeftUnacked(t *testing.T) {
	q := &chanQueue{ch: make(chan string, 10)}
	proc := &recordingProcessor{fail: map[string]error{"a": worker.ErrInFlight}}
	for _, id := range []string{"a", "b"} {
		_ = q.Enqueue(context.Background(), id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		worker.NewPool(q, proc, 1).WithClaimDelay(20 * time.Millisecond).Run(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return len(proc.seenIDs()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-stopped

	assert.Equal(t, []string{"b"}, q.ackedIDs())
}
