package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrStackUnderflow is reported when MUL or a comparison finds too few operands.
	ErrStackUnderflow = errors.New("stack underflow")
	// ErrTypeMismatch is reported when an operator pops a non-number.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrMissingOperand is reported for a column aggregate at the end of the pipeline.
	ErrMissingOperand = errors.New("missing column name")
	// ErrDepthExceeded is reported when sub-expressions nest deeper than the configured limit.
	ErrDepthExceeded = errors.New("sub-expression depth exceeded")
	// ErrBudgetExceeded is reported when an evaluation runs out of steps.
	ErrBudgetExceeded = errors.New("evaluation step budget exceeded")
)

// Diagnostic is a recoverable condition met while evaluating one token.
type Diagnostic struct {
	Pos   int
	Token string
	Err   error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s at position %d: %v", d.Token, d.Pos, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}
