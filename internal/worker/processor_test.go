package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ledger/internal/entity"
	"job-ledger/internal/ledger"
	"job-ledger/internal/logging"
	"job-ledger/internal/metrics"
	"job-ledger/internal/repository/memory"
	"job-ledger/internal/repository/postgresql"
	"job-ledger/internal/service"
	"job-ledger/internal/worker"
)

type memCommands struct {
	mu       sync.Mutex
	cmds     map[uuid.UUID]*entity.Command
	claims   int
	failDone bool
}

func newMemCommands() *memCommands {
	return &memCommands{cmds: map[uuid.UUID]*entity.Command{}}
}

func (r *memCommands) add(t *testing.T, sender string, msg ledger.ExecuteMsg) uuid.UUID {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return r.addRaw(sender, msg.Kind(), raw)
}

func (r *memCommands) addRaw(sender, kind string, raw json.RawMessage) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.cmds[id] = &entity.Command{ID: id, Sender: sender, Kind: kind, Msg: raw, Status: entity.CommandPending}
	return id
}

func (r *memCommands) GetByID(ctx context.Context, id uuid.UUID) (*entity.Command, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cmds[id]
	if !ok {
		return nil, postgresql.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCommands) Claim(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.cmds[id]
	switch {
	case c.Status == entity.CommandPending:
	case c.Status == entity.CommandProcessing && time.Since(c.UpdatedAt) > lease:
	default:
		return false, nil
	}
	c.Status = entity.CommandProcessing
	c.UpdatedAt = time.Now()
	r.claims++
	return true, nil
}

// expire backdates a claim as if its worker had died long ago.
func (r *memCommands) expire(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds[id].UpdatedAt = time.Now().Add(-time.Hour)
}

// blockingLedger parks the first Execute call until release is closed.
type blockingLedger struct {
	next    worker.Executor
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingLedger) Execute(ctx context.Context, sender string, msg ledger.ExecuteMsg) (*ledger.Response, error) {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.entered)
		<-b.release
	}
	return b.next.Execute(ctx, sender, msg)
}

func (r *memCommands) SetResultDone(ctx context.Context, id uuid.UUID, attrs []entity.Attribute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDone {
		return errors.New("db down")
	}
	r.cmds[id].Status = entity.CommandDone
	r.cmds[id].Attributes = attrs
	return nil
}

func (r *memCommands) SetResultError(ctx context.Context, id uuid.UUID, kind, errText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds[id].Status = entity.CommandError
	r.cmds[id].ErrorKind = &kind
	r.cmds[id].Error = &errText
	return nil
}

func newLedger(t *testing.T) *service.JobService {
	t.Helper()
	svc := service.NewJobService(memory.New(), service.WithClock(func() time.Time { return time.Unix(1700000000, 0) }))
	_, err := svc.Instantiate(context.Background(), "admin", ledger.InstantiateMsg{})
	require.NoError(t, err)
	return svc
}

func newProcessor(repo worker.CommandRepo, exec worker.Executor) *worker.Processor {
	return worker.NewProcessor(repo, exec, nil).WithLogger(logging.NullLogger)
}

func TestProcessor_Done(t *testing.T) {
	ctx := context.Background()
	repo := newMemCommands()
	svc := newLedger(t)
	p := newProcessor(repo, svc)

	id := repo.add(t, "alice", ledger.ExecuteMsg{PostJob: &ledger.PostJob{Title: "Build site", Budget: entity.NewAmount(100)}})
	require.NoError(t, p.Process(ctx, id.String()))

	cmd, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.CommandDone, cmd.Status)
	assert.Equal(t, 1, repo.claims)
	assert.Contains(t, cmd.Attributes, entity.Attribute{Key: "job_id", Value: "0"})

	job, err := svc.GetJob(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", job.Poster)
}

func TestProcessor_RejectedCommandIsRecorded(t *testing.T) {
	ctx := context.Background()
	repo := newMemCommands()
	svc := newLedger(t)
	p := newProcessor(repo, svc)

	id := repo.add(t, "mallory", ledger.ExecuteMsg{CompleteJob: &ledger.CompleteJob{JobID: 5}})
	require.NoError(t, p.Process(ctx, id.String()))

	cmd, _ := repo.GetByID(ctx, id)
	assert.Equal(t, entity.CommandError, cmd.Status)
	require.NotNil(t, cmd.ErrorKind)
	assert.Equal(t, ledger.KindNotFound, *cmd.ErrorKind)
}

func TestProcessor_BadPayload(t *testing.T) {
	ctx := context.Background()
	repo := newMemCommands()
	p := newProcessor(repo, newLedger(t))

	id := repo.addRaw("alice", "post_job", json.RawMessage(`{"PostJob":{"title":"x","budget":"-1"}}`))
	require.NoError(t, p.Process(ctx, id.String()))

	cmd, _ := repo.GetByID(ctx, id)
	assert.Equal(t, entity.CommandError, cmd.Status)
	assert.Equal(t, ledger.KindInvalidInput, *cmd.ErrorKind)
}

func TestProcessor_SkipsFinished(t *testing.T) {
	ctx := context.Background()
	repo := newMemCommands()
	svc := newLedger(t)
	p := newProcessor(repo, svc)

	id := repo.add(t, "alice", ledger.ExecuteMsg{PostJob: &ledger.PostJob{Title: "once"}})
	require.NoError(t, p.Process(ctx, id.String()))
	require.NoError(t, p.Process(ctx, id.String()))

	jobs, err := svc.ListJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestProcessor_InFlightCommandIsNotAppliedTwice(t *testing.T) {
	ctx := context.Background()
	repo := newMemCommands()
	svc := newLedger(t)
	blocking := &blockingLedger{next: svc, entered: make(chan struct{}), release: make(chan struct{})}
	p := newProcessor(repo, blocking)

	id := repo.add(t, "alice", ledger.ExecuteMsg{PostJob: &ledger.PostJob{Title: "once"}})

	first := make(chan error, 1)
	go func() { first <- p.Process(ctx, id.String()) }()
	<-blocking.entered

	// Same id handed out again while the first delivery is still executing.
	assert.ErrorIs(t, p.Process(ctx, id.String()), worker.ErrInFlight)

	close(blocking.release)
	require.NoError(t, <-first)

	// Once finished, a further delivery is a no-op that can be acked.
	require.NoError(t, p.Process(ctx, id.String()))

	jobs, err := svc.ListJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	cmd, _ := repo.GetByID(ctx, id)
	assert.Equal(t, entity.CommandDone, cmd.Status)
}

func TestProcessor_ExpiredClaimIsTakenOver(t *testing.T) {
	ctx := context.Background()
	repo := newMemCommands()
	svc := newLedger(t)
	p := newProcessor(repo, svc).WithLease(time.Minute)

	id := repo.add(t, "alice", ledger.ExecuteMsg{PostJob: &ledger.PostJob{Title: "orphan"}})
	claimed, err := repo.Claim(ctx, id, time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	assert.ErrorIs(t, p.Process(ctx, id.String()), worker.ErrInFlight)

	repo.expire(id)
	require.NoError(t, p.Process(ctx, id.String()))

	cmd, _ := repo.GetByID(ctx, id)
	assert.Equal(t, entity.CommandDone, cmd.Status)
	jobs, err := svc.ListJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestProcessor_BookkeepingFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	repo := newMemCommands()
	repo.failDone = true
	p := newProcessor(repo, newLedger(t))

	id := repo.add(t, "alice", ledger.ExecuteMsg{PostJob: &ledger.PostJob{Title: "t"}})
	assert.Error(t, p.Process(ctx, id.String()))
}

func TestProcessor_UnknownIDs(t *testing.T) {
	ctx := context.Background()
	p := newProcessor(newMemCommands(), newLedger(t))

	assert.NoError(t, p.Process(ctx, "not-a-uuid"))
	assert.ErrorIs(t, p.Process(ctx, uuid.NewString()), postgresql.ErrNotFound)
}

func TestProcessor_RecordsFinalStatus(t *testing.T) {
	ctx := context.Background()
	repo := newMemCommands()
	m := metrics.New()
	svc := service.NewJobService(memory.New(), service.WithMetrics(m))
	_, err := svc.Instantiate(ctx, "admin", ledger.InstantiateMsg{})
	require.NoError(t, err)
	p := worker.NewProcessor(repo, svc, m).WithLogger(logging.NullLogger)

	ok := repo.add(t, "alice", ledger.ExecuteMsg{PostJob: &ledger.PostJob{Title: "t"}})
	bad := repo.add(t, "alice", ledger.ExecuteMsg{CompleteJob: &ledger.CompleteJob{JobID: 9}})
	require.NoError(t, p.Process(ctx, ok.String()))
	require.NoError(t, p.Process(ctx, bad.String()))

	expected := `
# HELP job_ledger_async_commands_total Queued commands finished by the worker, by final status
# TYPE job_ledger_async_commands_total counter
job_ledger_async_commands_total{status="done"} 1
job_ledger_async_commands_total{status="error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "job_ledger_async_commands_total"))
}
