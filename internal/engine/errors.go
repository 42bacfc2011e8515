package engine

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/rapidstruct/internal/protocol"
)

var (
	// ErrValidation indicates the precondition gate rejected the run.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a mandatory output already exists.
	ErrConflict = errors.New("output already exists")

	// ErrDeclined indicates the operator declined to continue.
	ErrDeclined = errors.New("declined by operator")

	// ErrGeometry indicates a region algebra operation failed.
	ErrGeometry = errors.New("geometry operation failed")

	// ErrNoContext indicates no patient or structure set is loaded.
	ErrNoContext = errors.New("no structure set loaded")

	// ErrTopology indicates a step operand was not in the store when the
	// step ran.
	ErrTopology = errors.New("operand not available")

	// ErrIllegalTransition indicates a phase change the pipeline never makes.
	ErrIllegalTransition = errors.New("illegal phase transition")
)

// StepError reports the step at which execution stopped.
type StepError struct {
	// Output is the structure the step was creating
	Output string

	// Operation is the operation that failed
	Operation protocol.Operation

	// Err is the underlying failure
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q (%s): %v", e.Output, e.Operation, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
