package ledger

import (
	"time"

	"job-ledger/internal/entity"
)

// Env is what the host knows about the moment of execution.
type Env struct {
	BlockTime time.Time
}

// MessageInfo identifies who sent the message.
type MessageInfo struct {
	Sender string
}

type InstantiateMsg struct {
	// Admin is accepted for wire compatibility and otherwise ignored.
	Admin *string `json:"admin,omitempty"`
}

// ExecuteMsg is an externally tagged union: exactly one field is set.
//
//	{"PostJob":{"title":"...","description":"...","budget":"100"}}
type ExecuteMsg struct {
	PostJob        *PostJob        `json:"PostJob,omitempty"`
	SubmitProposal *SubmitProposal `json:"SubmitProposal,omitempty"`
	AcceptProposal *AcceptProposal `json:"AcceptProposal,omitempty"`
	CompleteJob    *CompleteJob    `json:"CompleteJob,omitempty"`
}

type PostJob struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Budget      entity.Amount `json:"budget"`
}

type SubmitProposal struct {
	JobID       uint64        `json:"job_id"`
	BidAmount   entity.Amount `json:"bid_amount"`
	CoverLetter string        `json:"cover_letter"`
}

type AcceptProposal struct {
	JobID      uint64 `json:"job_id"`
	Freelancer string `json:"freelancer"`
}

type CompleteJob struct {
	JobID uint64 `json:"job_id"`
}

// Kind names the set variant; "" when the message is not exactly one variant.
func (m ExecuteMsg) Kind() string {
	kind, n := "", 0
	if m.PostJob != nil {
		kind, n = "post_job", n+1
	}
	if m.SubmitProposal != nil {
		kind, n = "submit_proposal", n+1
	}
	if m.AcceptProposal != nil {
		kind, n = "accept_proposal", n+1
	}
	if m.CompleteJob != nil {
		kind, n = "complete_job", n+1
	}
	if n != 1 {
		return ""
	}
	return kind
}

// QueryMsg is an externally tagged union like ExecuteMsg.
type QueryMsg struct {
	GetJobDetails   *JobIDQuery `json:"GetJobDetails,omitempty"`
	GetJobProposals *JobIDQuery `json:"GetJobProposals,omitempty"`
}

type JobIDQuery struct {
	JobID uint64 `json:"job_id"`
}

func (m QueryMsg) Kind() string {
	switch {
	case m.GetJobDetails != nil && m.GetJobProposals == nil:
		return "get_job_details"
	case m.GetJobProposals != nil && m.GetJobDetails == nil:
		return "get_job_proposals"
	}
	return ""
}
