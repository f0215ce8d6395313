package export

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is(err, export.ErrQuery).
var (
	ErrConnection     = errors.New("connection error")
	ErrConnectionLost = errors.New("connection lost")
	ErrQuery          = errors.New("query error")
	ErrIO             = errors.New("io error")
	ErrCanceled       = errors.New("run canceled")
)

// Phase names the step of a run that failed.
type Phase string

const (
	PhaseConnect Phase = "connect"
	PhaseFetch   Phase = "fetch"
	PhaseWrite   Phase = "write"
)

// Error is returned by Run. Kind is one of the Err* sentinels.
type Error struct {
	Kind  error
	Phase Phase
	Table string // empty for the connect phase
	Err   error
}

func (e *Error) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %s: %v", e.Phase, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Phase, e.Table, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error's kind so callers can classify without a type
// assertion.
func (e *Error) Is(target error) bool { return target == e.Kind }
