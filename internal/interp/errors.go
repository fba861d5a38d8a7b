package interp

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/kolkov/irgraph/internal/ir"
)

// Sentinel errors; match them with errors.Is.
var (
	ErrLandingPad     = errors.New("landingpad reached: exceptions are not supported")
	ErrUnreachable    = errors.New("unreachable executed")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrDepthLimit     = errors.New("call depth limit exceeded")
	ErrNoBinding      = errors.New("no host binding for declared function")
	ErrDivideByZero   = errors.New("integer division by zero")
	ErrNilDereference = errors.New("load or store through a non-cell pointer")
)

// ExecError locates a failure inside the executing module.
type ExecError struct {
	Function string
	Block    string
	Opcode   string
	Err      error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("@%s: %s: %s: %v", e.Function, e.Block, e.Opcode, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecError) Unwrap() error { return e.Err }

// Cause returns the underlying error for github.com/pkg/errors.Cause.
func (e *ExecError) Cause() error { return e.Err }

func execError(inst *ir.Instruction, err error) error {
	var prev *ExecError
	if errors.As(err, &prev) {
		// Already located in a callee.
		return err
	}
	b := inst.Parent()
	return &ExecError{
		Function: b.Parent().Name(),
		Block:    b.Ref(),
		Opcode:   inst.Op.String(),
		Err:      err,
	}
}
