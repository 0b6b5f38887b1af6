package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CommandStatus string

const (
	CommandPending    CommandStatus = "pending"
	CommandProcessing CommandStatus = "processing"
	CommandDone       CommandStatus = "done"
	CommandError      CommandStatus = "error"
)

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Command is an execute message accepted for asynchronous application.
type Command struct {
	ID         uuid.UUID       `json:"id"`
	Sender     string          `json:"sender"`
	Kind       string          `json:"kind"`
	Msg        json.RawMessage `json:"msg"`
	Status     CommandStatus   `json:"status"`
	Attributes []Attribute     `json:"attributes,omitempty"`
	Error      *string         `json:"error,omitempty"`
	ErrorKind  *string         `json:"error_kind,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
