package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"job-ledger/internal/entity"
	"job-ledger/internal/ledger"
	"job-ledger/internal/logging"
	"job-ledger/internal/metrics"
)

// ErrInFlight means another worker holds a live claim on the command. The id
// stays unacked so it is seen again once that worker finishes or dies.
var ErrInFlight = errors.New("command claimed by another worker")

// DefaultLease is how long a claimed command belongs to its worker before
// another worker may take it over.
const DefaultLease = 5 * time.Minute

type CommandRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Command, error)
	// Claim moves a pending command (or one whose claim is older than lease)
	// to processing and reports whether this caller won it.
	Claim(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error)
	SetResultDone(ctx context.Context, id uuid.UUID, attrs []entity.Attribute) error
	SetResultError(ctx context.Context, id uuid.UUID, kind, errText string) error
}

// Executor applies a command to the ledger (implementation: service.JobService).
type Executor interface {
	Execute(ctx context.Context, sender string, msg ledger.ExecuteMsg) (*ledger.Response, error)
}

type Processor struct {
	repo    CommandRepo
	ledger  Executor
	metrics *metrics.Metrics
	logger  log.FieldLogger
	lease   time.Duration
}

func NewProcessor(repo CommandRepo, exec Executor, m *metrics.Metrics) *Processor {
	return &Processor{
		repo:    repo,
		ledger:  exec,
		metrics: m,
		logger:  logging.Component("worker"),
		lease:   DefaultLease,
	}
}

func (p *Processor) WithLogger(l log.FieldLogger) *Processor {
	p.logger = l
	return p
}

func (p *Processor) WithLease(d time.Duration) *Processor {
	p.lease = d
	return p
}

// Process applies one queued command. A rejected command is a normal outcome:
// it is recorded as status=error and Process returns nil. A non-nil error
// means the bookkeeping itself failed, or ErrInFlight, and the id should be
// left for redelivery.
func (p *Processor) Process(ctx context.Context, commandID string) error {
	start := time.Now()
	logger := p.logger.WithField("command_id", commandID)

	id, err := uuid.Parse(commandID)
	if err != nil {
		// Nothing to record against; drop it.
		logger.WithError(err).Warn("unparseable command id")
		return nil
	}

	cmd, err := p.repo.GetByID(ctx, id)
	if err != nil {
		logger.WithError(err).Error("get command")
		return err
	}
	if cmd.Status == entity.CommandDone || cmd.Status == entity.CommandError {
		logger.WithField("status", cmd.Status).Info("already finished, skipping")
		return nil
	}

	// Redelivered ids may still be running elsewhere; only the claim holder executes.
	claimed, err := p.repo.Claim(ctx, id, p.lease)
	if err != nil {
		logger.WithError(err).Error("claim")
		return err
	}
	if !claimed {
		logger.WithField("status", cmd.Status).Debug("claimed elsewhere")
		return ErrInFlight
	}

	logger = logger.WithFields(log.Fields{"kind": cmd.Kind, "sender": cmd.Sender})
	logger.Debug("status=processing")

	var msg ledger.ExecuteMsg
	if err := json.Unmarshal(cmd.Msg, &msg); err != nil {
		return p.fail(ctx, logger, id, start, ledger.KindInvalidInput, "invalid message: "+err.Error())
	}

	resp, execErr := p.ledger.Execute(ctx, cmd.Sender, msg)
	if execErr != nil {
		return p.fail(ctx, logger, id, start, ledger.ErrorKind(execErr), execErr.Error())
	}

	if err := p.repo.SetResultDone(ctx, id, resp.Attributes); err != nil {
		logger.WithError(err).Error("set done")
		return err
	}
	p.record(entity.CommandDone)

	logger.WithField("duration_ms", time.Since(start).Milliseconds()).Info("status=done")
	return nil
}

func (p *Processor) fail(ctx context.Context, logger log.FieldLogger, id uuid.UUID, start time.Time, kind, msg string) error {
	if err := p.repo.SetResultError(ctx, id, kind, msg); err != nil {
		logger.WithError(err).Error("set error")
		return err
	}
	p.record(entity.CommandError)

	logger.WithFields(log.Fields{
		"duration_ms": time.Since(start).Milliseconds(),
		"error_kind":  kind,
		"error":       msg,
	}).Info("status=error")
	return nil
}

func (p *Processor) record(status entity.CommandStatus) {
	if p.metrics != nil {
		p.metrics.RecordAsyncCommand(string(status))
	}
}
