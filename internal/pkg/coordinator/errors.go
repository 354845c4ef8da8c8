package coordinator

import (
	"fmt"

	"github.com/pkg/errors"
)

// NotFoundError means the referenced space, group or device is not in
// the current model, e.g. a command arrived before the first refresh
// completed. No API call is made.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found in current model", e.Kind, e.ID)
}

// CommandError is returned when a state-changing command failed after
// its optimistic model write. By the time the caller sees it, a
// cache-bypassing refresh has already been triggered to re-derive true
// server state.
type CommandError struct {
	Op    string
	Cause error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s command failed: %v", e.Op, e.Cause)
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
