package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"job-ledger/internal/entity"
	"job-ledger/internal/ledger"
	"job-ledger/internal/metrics"
	"job-ledger/internal/repository"
)

const tracerName = "job-ledger/internal/service"

// Store is the persistence port (implementations live under internal/repository).
type Store interface {
	Update(ctx context.Context, fn func(repository.Txn) error) error
	View(ctx context.Context, fn func(repository.Txn) error) error
	Ping(ctx context.Context) error
}

// JobService hosts the ledger: one store transaction per invocation, commands
// serialized against each other and against reads.
type JobService struct {
	store   Store
	mu      sync.RWMutex
	now     func() time.Time
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

type Option func(*JobService)

func WithClock(now func() time.Time) Option {
	return func(s *JobService) { s.now = now }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *JobService) { s.tracer = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *JobService) { s.metrics = m }
}

func NewJobService(store Store, opts ...Option) *JobService {
	s := &JobService{
		store:  store,
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JobService) env() ledger.Env {
	return ledger.Env{BlockTime: s.now().UTC().Truncate(time.Second)}
}

// Instantiate initializes the ledger. It fails with ledger.ErrAlreadyInstantiated
// on a store that already has a counter.
func (s *JobService) Instantiate(ctx context.Context, sender string, msg ledger.InstantiateMsg) (*ledger.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "ledger.instantiate",
		trace.WithAttributes(attribute.String("ledger.sender", sender)))
	defer span.End()

	start := time.Now()
	var resp *ledger.Response
	err := s.store.Update(ctx, func(tx repository.Txn) error {
		var err error
		resp, err = ledger.Instantiate(ctx, tx, s.env(), ledger.MessageInfo{Sender: sender}, msg)
		return err
	})
	s.finish(span, "instantiate", start, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// EnsureInstantiated instantiates the ledger unless a counter already exists.
// It reports whether it did anything.
func (s *JobService) EnsureInstantiated(ctx context.Context, sender string, msg ledger.InstantiateMsg) (bool, error) {
	var done bool
	err := s.view(ctx, func(tx repository.Txn) error {
		var err error
		done, err = ledger.IsInstantiated(ctx, tx)
		return err
	})
	if err != nil || done {
		return false, err
	}

	if _, err := s.Instantiate(ctx, sender, msg); err != nil {
		if ledger.ErrorKind(err) == ledger.KindAlreadyInstantiated {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Execute applies msg atomically on behalf of sender.
func (s *JobService) Execute(ctx context.Context, sender string, msg ledger.ExecuteMsg) (*ledger.Response, error) {
	kind := msg.Kind()
	if kind == "" {
		kind = "unknown"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "ledger.execute",
		trace.WithAttributes(
			attribute.String("ledger.command", kind),
			attribute.String("ledger.sender", sender),
		))
	defer span.End()

	start := time.Now()
	var resp *ledger.Response
	err := s.store.Update(ctx, func(tx repository.Txn) error {
		var err error
		resp, err = ledger.Execute(ctx, tx, s.env(), ledger.MessageInfo{Sender: sender}, msg)
		return err
	})
	if err == nil {
		if id, ok := resp.Attribute("job_id"); ok {
			span.SetAttributes(attribute.String("ledger.job_id", id))
		}
	}
	s.finish(span, kind, start, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// PostJob creates a job and returns its id.
func (s *JobService) PostJob(ctx context.Context, sender string, m ledger.PostJob) (uint64, *ledger.Response, error) {
	resp, err := s.Execute(ctx, sender, ledger.ExecuteMsg{PostJob: &m})
	if err != nil {
		return 0, nil, err
	}
	v, _ := resp.Attribute("job_id")
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, nil, err
	}
	return id, resp, nil
}

// Query answers msg with JSON.
func (s *JobService) Query(ctx context.Context, msg ledger.QueryMsg) (json.RawMessage, error) {
	kind := msg.Kind()
	if kind == "" {
		kind = "unknown"
	}

	ctx, span := s.tracer.Start(ctx, "ledger.query",
		trace.WithAttributes(attribute.String("ledger.query", kind)))
	defer span.End()

	var out []byte
	err := s.view(ctx, func(tx repository.Txn) error {
		var err error
		out, err = ledger.Query(ctx, tx, msg)
		return err
	})
	s.recordQuery(span, kind, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *JobService) GetJob(ctx context.Context, id uint64) (entity.Job, error) {
	var job entity.Job
	err := s.view(ctx, func(tx repository.Txn) error {
		var err error
		job, err = ledger.GetJob(ctx, tx, id)
		return err
	})
	s.recordQuery(nil, "get_job_details", err)
	return job, err
}

func (s *JobService) GetProposals(ctx context.Context, id uint64) ([]entity.Proposal, error) {
	var out []entity.Proposal
	err := s.view(ctx, func(tx repository.Txn) error {
		var err error
		out, err = ledger.GetProposals(ctx, tx, id)
		return err
	})
	s.recordQuery(nil, "get_job_proposals", err)
	return out, err
}

func (s *JobService) ListJobs(ctx context.Context) ([]entity.JobEntry, error) {
	var out []entity.JobEntry
	err := s.view(ctx, func(tx repository.Txn) error {
		var err error
		out, err = ledger.ListJobs(ctx, tx)
		return err
	})
	s.recordQuery(nil, "list_jobs", err)
	return out, err
}

func (s *JobService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *JobService) view(ctx context.Context, fn func(repository.Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.View(ctx, fn)
}

func (s *JobService) finish(span trace.Span, command string, start time.Time, err error) {
	kind := ledger.ErrorKind(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("ledger.error_kind", kind))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	if s.metrics != nil {
		s.metrics.RecordCommand(command, metrics.Outcome(kind), time.Since(start))
	}
}

func (s *JobService) recordQuery(span trace.Span, query string, err error) {
	kind := ledger.ErrorKind(err)
	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
	if s.metrics != nil {
		s.metrics.RecordQuery(query, metrics.Outcome(kind))
	}
}
