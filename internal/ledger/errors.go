package ledger

import (
	"errors"

	"job-ledger/internal/repository"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAlreadyInstantiated = errors.New("ledger already instantiated")
)

// InvalidInputError carries the reason a caller-supplied value or the job's
// current state rejected the request. It matches ErrInvalidInput.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(reason string) error {
	return &InvalidInputError{Reason: reason}
}

const (
	KindInvalidInput        = "invalid_input"
	KindUnauthorized        = "unauthorized"
	KindNotFound            = "not_found"
	KindAlreadyInstantiated = "already_instantiated"
	KindInternal            = "internal"
)

// ErrorKind classifies err for callers that report outcomes as labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case repository.IsNotFound(err):
		return KindNotFound
	case errors.Is(err, ErrAlreadyInstantiated):
		return KindAlreadyInstantiated
	default:
		return KindInternal
	}
}
