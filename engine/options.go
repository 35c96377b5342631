package engine

import (
	"github.com/go-kit/log"
)

const (
	// DefaultMaxDepth bounds how deeply sub-expressions may recurse.
	DefaultMaxDepth = 256
	// DefaultMaxSteps bounds the total tokens visited by one evaluation,
	// including every recursive re-scan.
	DefaultMaxSteps = 1 << 22
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for soft failures.
func WithLogger(l log.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxDepth limits sub-expression recursion. Values below 1 disable
// sub-expressions entirely.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) { e.maxDepth = n }
}

// WithMaxSteps limits the work of one evaluation. Zero or less means no limit.
func WithMaxSteps(n int) Option {
	return func(e *Evaluator) { e.maxSteps = n }
}

// WithBalancedParens switches "(" handling to matched sub-expressions: the
// enclosed span is evaluated on its own and its first result is pushed onto
// the operand stack. The default re-scans shrinking suffixes and appends
// the first non-empty result to the outputs.
func WithBalancedParens(on bool) Option {
	return func(e *Evaluator) { e.balanced = on }
}
