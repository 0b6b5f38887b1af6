package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"job-ledger/internal/entity"
	"job-ledger/internal/ledger"
)

// CommandRepository records queued commands (implementation: postgresql.CommandRepository).
type CommandRepository interface {
	Create(ctx context.Context, sender, kind string, msg json.RawMessage) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Command, error)
}

// CommandQueue is the enqueue half of Queue.
type CommandQueue interface {
	Enqueue(ctx context.Context, commandID string) error
}

// CommandService accepts execute messages for the worker to apply later.
type CommandService struct {
	repo  CommandRepository
	queue CommandQueue
}

func NewCommandService(repo CommandRepository, queue CommandQueue) *CommandService {
	return &CommandService{repo: repo, queue: queue}
}

// Submit stores the command as pending and enqueues it. Shape is validated
// here; ledger rules are only checked when the worker applies it.
func (s *CommandService) Submit(ctx context.Context, sender string, msg ledger.ExecuteMsg) (uuid.UUID, error) {
	if err := entity.ValidateAddr(sender); err != nil {
		return uuid.Nil, &ledger.InvalidInputError{Reason: "sender: " + err.Error()}
	}
	kind := msg.Kind()
	if kind == "" {
		return uuid.Nil, &ledger.InvalidInputError{Reason: "message must set exactly one command"}
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := s.repo.Create(ctx, sender, kind, raw)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.queue.Enqueue(ctx, id.String()); err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

func (s *CommandService) GetCommand(ctx context.Context, id uuid.UUID) (*entity.Command, error) {
	return s.repo.GetByID(ctx, id)
}
