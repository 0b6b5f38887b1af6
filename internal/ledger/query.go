package ledger

import (
	"context"
	"encoding/json"

	"job-ledger/internal/entity"
)

// GetJob returns the stored job or a repository.NotFoundError.
func GetJob(ctx context.Context, tx Txn, jobID uint64) (entity.Job, error) {
	return jobs.Load(ctx, tx, jobID)
}

// GetProposals returns the job's proposals in submission order. A job with no
// proposals, or no such job, yields an empty slice.
func GetProposals(ctx context.Context, tx Txn, jobID uint64) ([]entity.Proposal, error) {
	proposals, _, err := jobProposals.MayLoad(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}
	if proposals == nil {
		proposals = []entity.Proposal{}
	}
	return proposals, nil
}

// ListJobs returns every job in id order.
func ListJobs(ctx context.Context, tx Txn) ([]entity.JobEntry, error) {
	out := []entity.JobEntry{}
	err := jobs.Range(ctx, tx, func(id uint64, job entity.Job) error {
		out = append(out, entity.JobEntry{ID: id, Job: job})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Query answers msg with the JSON encoding of the requested records.
func Query(ctx context.Context, tx Txn, msg QueryMsg) ([]byte, error) {
	switch msg.Kind() {
	case "get_job_details":
		job, err := GetJob(ctx, tx, msg.GetJobDetails.JobID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(job)
	case "get_job_proposals":
		proposals, err := GetProposals(ctx, tx, msg.GetJobProposals.JobID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(proposals)
	default:
		return nil, invalidInput("query must set exactly one variant")
	}
}
