package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"job-ledger/internal/logging"
	"job-ledger/internal/service"
)

// CommandProcessor is what the pool feeds claimed ids into.
type CommandProcessor interface {
	Process(ctx context.Context, commandID string) error
}

type Pool struct {
	queue      service.Queue
	processor  CommandProcessor
	workers    int
	claimDelay time.Duration
	logger     log.FieldLogger
}

// NewPool builds a pool of workers. More than one worker lets commands from
// different senders apply out of submission order; the default is one.
func NewPool(queue service.Queue, processor CommandProcessor, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		queue:      queue,
		processor:  processor,
		workers:    workers,
		claimDelay: 5 * time.Second,
		logger:     logging.Component("worker-pool"),
	}
}

func (p *Pool) WithClaimDelay(d time.Duration) *Pool {
	p.claimDelay = d
	return p
}

// Run claims ids until ctx is done and waits for in-flight commands.
func (p *Pool) Run(ctx context.Context) {
	p.logger.WithField("workers", p.workers).Info("worker pool started")

	ids := make(chan string)
	done := make(chan struct{})

	for i := 0; i < p.workers; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			logger := p.logger.WithField("worker", n)
			for id := range ids {
				if err := p.processor.Process(ctx, id); err != nil {
					// Leave it in processing; the reaper will hand it out again.
					if errors.Is(err, ErrInFlight) {
						logger.WithField("command_id", id).Debug("command in flight elsewhere")
					} else {
						logger.WithError(err).WithField("command_id", id).Error("process command")
					}
					continue
				}
				if err := p.queue.Ack(ctx, id); err != nil {
					logger.WithError(err).WithField("command_id", id).Error("ack command")
				}
			}
		}(i + 1)
	}

	defer func() {
		close(ids)
		for i := 0; i < p.workers; i++ {
			<-done
		}
		p.logger.Info("worker pool stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		id, err := p.queue.ClaimBlocking(ctx, p.claimDelay)
		if err != nil {
			// timeout/redis.Nil/ctx cancel: not fatal
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				p.logger.WithError(err).Warn("claim")
				sleepCtx(ctx, time.Second)
			}
			continue
		}
		select {
		case ids <- id:
		case <-ctx.Done():
			return
		}
	}
}

// RunReaper periodically returns unacked ids to the queue, for commands whose
// worker died mid-flight.
func RunReaper(ctx context.Context, queue service.Queue, every time.Duration, max int64) {
	logger := logging.Component("reaper")
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := queue.RequeueStale(ctx, max)
			if err != nil {
				logger.WithError(err).Error("requeue")
				continue
			}
			if n > 0 {
				logger.WithField("count", n).Info("requeued commands from processing")
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
