package ledger

import (
	"job-ledger/internal/entity"
	"job-ledger/internal/repository"
)

// Persisted collections.
var (
	jobCounter   = repository.NewItem[uint64]("job_counter")
	jobs         = repository.NewMap[entity.Job]("jobs")
	jobProposals = repository.NewMap[[]entity.Proposal]("job_proposals")
)

type Txn = repository.Txn
