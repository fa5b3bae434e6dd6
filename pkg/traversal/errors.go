package traversal

import (
	"errors"
	"fmt"
)

var (
	// ErrIteratorDone is returned by Driver.Next once the traversal has no more results.
	ErrIteratorDone = errors.New("iterator done")

	// ErrUnknownPipetype is returned when a step names a pipetype that is not registered.
	ErrUnknownPipetype = errors.New("unknown pipetype")

	// ErrInvalidOutcome is returned when a handler breaks the pull/done protocol.
	ErrInvalidOutcome = errors.New("invalid pipetype outcome")

	// ErrProgramConsumed is returned when a Program is driven more than once.
	ErrProgramConsumed = errors.New("program has already been executed")

	// ErrInvalidArgument is the cause of configuration errors about stage arguments.
	ErrInvalidArgument = errors.New("invalid pipetype argument")
)

// StageError is a fatal error raised while evaluating a stage. It aborts the
// whole traversal.
type StageError struct {
	Stage    int
	Pipetype string
	Cause    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Stage, e.Pipetype, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// ConfigurationError describes a stage whose arguments could not be honored.
// It is reported, never returned: the traversal keeps going.
type ConfigurationError struct {
	Stage    int
	Pipetype string
	Cause    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("stage %d (%s) is misconfigured: %v", e.Stage, e.Pipetype, e.Cause)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}
