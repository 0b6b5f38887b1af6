// Package ledger is the job marketplace state machine. Every function runs
// inside one repository.Txn supplied by the host; a returned error means the
// host must discard the transaction. Preconditions are checked before any
// write, so a rejected command never leaves partial state even on a store
// that applied writes eagerly.
package ledger

import (
	"context"
	"errors"
	"math"
	"strconv"

	"job-ledger/internal/entity"
)

var errCounterExhausted = errors.New("job counter exhausted")

// Instantiate initializes the job counter. It refuses to run twice so the
// counter can never be reset.
func Instantiate(ctx context.Context, tx Txn, _ Env, info MessageInfo, _ InstantiateMsg) (*Response, error) {
	_, exists, err := jobCounter.MayLoad(ctx, tx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyInstantiated
	}
	if err := jobCounter.Save(ctx, tx, 0); err != nil {
		return nil, err
	}

	return NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("admin", info.Sender), nil
}

// Execute routes msg to its command.
func Execute(ctx context.Context, tx Txn, env Env, info MessageInfo, msg ExecuteMsg) (*Response, error) {
	if msg.Kind() == "" {
		return nil, invalidInput("message must set exactly one command")
	}

	switch {
	case msg.PostJob != nil:
		m := msg.PostJob
		_, resp, err := ExecutePostJob(ctx, tx, env, info, m.Title, m.Description, m.Budget)
		return resp, err
	case msg.SubmitProposal != nil:
		m := msg.SubmitProposal
		return ExecuteSubmitProposal(ctx, tx, env, info, m.JobID, m.BidAmount, m.CoverLetter)
	case msg.AcceptProposal != nil:
		m := msg.AcceptProposal
		if err := entity.ValidateAddr(m.Freelancer); err != nil {
			return nil, invalidInput(err.Error())
		}
		return ExecuteAcceptProposal(ctx, tx, env, info, m.JobID, m.Freelancer)
	default:
		return ExecuteCompleteJob(ctx, tx, env, info, msg.CompleteJob.JobID)
	}
}

// ExecutePostJob allocates the next id and stores an Open job owned by the sender.
func ExecutePostJob(
	ctx context.Context, tx Txn, env Env, info MessageInfo,
	title, description string, budget entity.Amount,
) (uint64, *Response, error) {
	if title == "" {
		return 0, nil, invalidInput("Title cannot be empty")
	}

	jobID, err := jobCounter.Load(ctx, tx)
	if err != nil {
		return 0, nil, err
	}
	if jobID == math.MaxUint64 {
		return 0, nil, errCounterExhausted
	}
	if err := jobCounter.Save(ctx, tx, jobID+1); err != nil {
		return 0, nil, err
	}

	job := entity.Job{
		Poster:             info.Sender,
		Title:              title,
		Description:        description,
		Budget:             budget,
		Status:             entity.StatusOpen,
		AssignedFreelancer: nil,
		CreatedAt:          blockSeconds(env),
	}
	if err := jobs.Save(ctx, tx, jobID, job); err != nil {
		return 0, nil, err
	}

	resp := NewResponse().
		AddAttribute("method", "post_job").
		AddAttribute("job_id", strconv.FormatUint(jobID, 10)).
		AddAttribute("poster", info.Sender)
	return jobID, resp, nil
}

// ExecuteSubmitProposal appends the sender's bid to an Open job. The bid is
// not compared with the job budget, and repeat bids from one freelancer are kept.
func ExecuteSubmitProposal(
	ctx context.Context, tx Txn, _ Env, info MessageInfo,
	jobID uint64, bidAmount entity.Amount, coverLetter string,
) (*Response, error) {
	if coverLetter == "" {
		return nil, invalidInput("Cover letter cannot be empty")
	}

	job, err := jobs.Load(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != entity.StatusOpen {
		return nil, invalidInput("Job is not open for proposals")
	}

	proposals, _, err := jobProposals.MayLoad(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}
	proposals = append(proposals, entity.Proposal{
		Freelancer:  info.Sender,
		BidAmount:   bidAmount,
		CoverLetter: coverLetter,
	})
	if err := jobProposals.Save(ctx, tx, jobID, proposals); err != nil {
		return nil, err
	}

	return NewResponse().
		AddAttribute("method", "submit_proposal").
		AddAttribute("job_id", strconv.FormatUint(jobID, 10)).
		AddAttribute("freelancer", info.Sender), nil
}

// ExecuteAcceptProposal moves an Open job to InProgress and assigns
// freelancer. Only the poster may call it. freelancer does not have to appear
// among the job's proposals: posters may hire someone found elsewhere.
func ExecuteAcceptProposal(
	ctx context.Context, tx Txn, _ Env, info MessageInfo,
	jobID uint64, freelancer string,
) (*Response, error) {
	job, err := jobs.Load(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Poster != info.Sender {
		return nil, ErrUnauthorized
	}
	if job.Status != entity.StatusOpen {
		return nil, invalidInput("Job is not open")
	}

	job.AssignedFreelancer = &freelancer
	job.Status = entity.StatusInProgress
	if err := jobs.Save(ctx, tx, jobID, job); err != nil {
		return nil, err
	}

	return NewResponse().
		AddAttribute("method", "accept_proposal").
		AddAttribute("job_id", strconv.FormatUint(jobID, 10)).
		AddAttribute("freelancer", freelancer), nil
}

// ExecuteCompleteJob moves an InProgress job to Completed. Only the assigned
// freelancer may call it.
func ExecuteCompleteJob(ctx context.Context, tx Txn, _ Env, info MessageInfo, jobID uint64) (*Response, error) {
	job, err := jobs.Load(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsAssignedTo(info.Sender) {
		return nil, ErrUnauthorized
	}
	if job.Status != entity.StatusInProgress {
		return nil, invalidInput("Job is not in progress")
	}

	job.Status = entity.StatusCompleted
	if err := jobs.Save(ctx, tx, jobID, job); err != nil {
		return nil, err
	}

	return NewResponse().
		AddAttribute("method", "complete_job").
		AddAttribute("job_id", strconv.FormatUint(jobID, 10)).
		AddAttribute("freelancer", info.Sender), nil
}

// IsInstantiated reports whether Instantiate has run against this store.
func IsInstantiated(ctx context.Context, tx Txn) (bool, error) {
	_, ok, err := jobCounter.MayLoad(ctx, tx)
	return ok, err
}

func blockSeconds(env Env) uint64 {
	s := env.BlockTime.Unix()
	if s < 0 {
		return 0
	}
	return uint64(s)
}
