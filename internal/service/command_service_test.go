package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"job-ledger/internal/entity"
	"job-ledger/internal/ledger"
	"job-ledger/internal/repository/postgresql"
	"job-ledger/internal/service"
)

type fakeRepo struct {
	createCalled int
	lastSender   string
	lastKind     string
	lastMsg      json.RawMessage

	createID  uuid.UUID
	createErr error
}

func (r *fakeRepo) Create(ctx context.Context, sender, kind string, msg json.RawMessage) (uuid.UUID, error) {
	r.createCalled++
	r.lastSender = sender
	r.lastKind = kind
	r.lastMsg = msg
	if r.createErr != nil {
		return uuid.Nil, r.createErr
	}
	return r.createID, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Command, error) {
	return nil, postgresql.ErrNotFound
}

type fakeQueue struct {
	enqueuedIDs []string
	enqueueErr  error
}

func (q *fakeQueue) Enqueue(ctx context.Context, commandID string) error {
	q.enqueuedIDs = append(q.enqueuedIDs, commandID)
	return q.enqueueErr
}

func TestCommandService_Submit_StoresAndEnqueues(t *testing.T) {
	ctx := context.Background()
	id := uuid.MustParse("66666666-6666-6666-6666-666666666666")

	repo := &fakeRepo{createID: id}
	queue := &fakeQueue{}
	svc := service.NewCommandService(repo, queue)

	got, err := svc.Submit(ctx, "alice", ledger.ExecuteMsg{
		SubmitProposal: &ledger.SubmitProposal{JobID: 3, BidAmount: entity.NewAmount(80), CoverLetter: "hi"},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got != id {
		t.Fatalf("expected id=%s, got %s", id, got)
	}

	if repo.lastSender != "alice" || repo.lastKind != "submit_proposal" {
		t.Fatalf("unexpected record: sender=%q kind=%q", repo.lastSender, repo.lastKind)
	}
	want := `{"SubmitProposal":{"job_id":3,"bid_amount":"80","cover_letter":"hi"}}`
	if string(repo.lastMsg) != want {
		t.Fatalf("expected msg %s, got %s", want, repo.lastMsg)
	}
	if len(queue.enqueuedIDs) != 1 || queue.enqueuedIDs[0] != id.String() {
		t.Fatalf("expected enqueue id=%s, got %#v", id, queue.enqueuedIDs)
	}
}

func TestCommandService_Submit_RejectsBadShape(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{createID: uuid.New()}
	queue := &fakeQueue{}
	svc := service.NewCommandService(repo, queue)

	_, err := svc.Submit(ctx, "alice", ledger.ExecuteMsg{})
	if !errors.Is(err, ledger.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	_, err = svc.Submit(ctx, "", ledger.ExecuteMsg{CompleteJob: &ledger.CompleteJob{JobID: 1}})
	if !errors.Is(err, ledger.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty sender, got %v", err)
	}

	if repo.createCalled != 0 || len(queue.enqueuedIDs) != 0 {
		t.Fatalf("nothing should be stored: created=%d enqueued=%d", repo.createCalled, len(queue.enqueuedIDs))
	}
}

func TestCommandService_Submit_RepoErrorSkipsQueue(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("db down")}
	queue := &fakeQueue{}
	svc := service.NewCommandService(repo, queue)

	_, err := svc.Submit(context.Background(), "alice", ledger.ExecuteMsg{CompleteJob: &ledger.CompleteJob{JobID: 1}})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(queue.enqueuedIDs) != 0 {
		t.Fatalf("expected no enqueue, got %#v", queue.enqueuedIDs)
	}
}

func TestCommandService_GetCommand_NotFound(t *testing.T) {
	svc := service.NewCommandService(&fakeRepo{}, &fakeQueue{})
	_, err := svc.GetCommand(context.Background(), uuid.New())
	if !errors.Is(err, postgresql.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
