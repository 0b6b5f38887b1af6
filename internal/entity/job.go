package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

type JobStatus string

const (
	StatusOpen       JobStatus = "Open"
	StatusInProgress JobStatus = "InProgress"
	StatusCompleted  JobStatus = "Completed"
	// StatusCancelled is terminal and currently unreachable: no command moves a job into it.
	StatusCancelled JobStatus = "Cancelled"
)

func (s JobStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s *JobStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st := JobStatus(raw)
	if !st.Valid() {
		return fmt.Errorf("unknown job status %q", raw)
	}
	*s = st
	return nil
}

// Job is stored and served in the same shape.
type Job struct {
	Poster             string    `json:"poster"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Budget             Amount    `json:"budget"`
	Status             JobStatus `json:"status"`
	AssignedFreelancer *string   `json:"assigned_freelancer"`
	CreatedAt          uint64    `json:"created_at"` // unix seconds of the block that created it
}

func (j Job) CreatedTime() time.Time {
	return time.Unix(int64(j.CreatedAt), 0).UTC()
}

// IsAssignedTo reports whether addr is the job's assigned freelancer.
// A job with no assignee is assigned to nobody.
func (j Job) IsAssignedTo(addr string) bool {
	return j.AssignedFreelancer != nil && *j.AssignedFreelancer == addr
}

type Proposal struct {
	Freelancer  string `json:"freelancer"`
	BidAmount   Amount `json:"bid_amount"`
	CoverLetter string `json:"cover_letter"`
}

// JobEntry pairs a stored job with its id for listings.
type JobEntry struct {
	ID  uint64 `json:"id"`
	Job Job    `json:"job"`
}
