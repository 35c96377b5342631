package ast

// Atom is the source text of a pipeline element and where it came from.
type Atom struct {
	Text string
	Pos  int
}

// Op is a single decoded pipeline element. Every token of the input maps to
// exactly one Op, so positions in a Pipeline line up with the token stream.
type Op interface {
	opNode()
	Src() Atom
}

func (a Atom) Src() Atom { return a }

// GroupOp starts capturing group-by column names.
type GroupOp struct{ Atom }

func (o *GroupOp) opNode() {}

// OpenOp opens a sub-expression.
type OpenOp struct{ Atom }

func (o *OpenOp) opNode() {}

// CloseOp closes a sub-expression.
type CloseOp struct{ Atom }

func (o *CloseOp) opNode() {}

// SumOp sums the column named by the following element.
type SumOp struct{ Atom }

func (o *SumOp) opNode() {}

// CountOp counts rows per distinct key of the column named by the following element.
type CountOp struct{ Atom }

func (o *CountOp) opNode() {}

// AvgOp averages the column named by the following element.
type AvgOp struct{ Atom }

func (o *AvgOp) opNode() {}

// CMulOp multiplies the stack top into the per-key sums of the following column.
type CMulOp struct{ Atom }

func (o *CMulOp) opNode() {}

// MulOp multiplies the two topmost stack numbers.
type MulOp struct{ Atom }

func (o *MulOp) opNode() {}

// EqOp compares the two topmost stack numbers for equality.
type EqOp struct{ Atom }

func (o *EqOp) opNode() {}

// LtOp tests left < right on the two topmost stack numbers.
type LtOp struct{ Atom }

func (o *LtOp) opNode() {}

// GtOp tests left > right on the two topmost stack numbers.
type GtOp struct{ Atom }

func (o *GtOp) opNode() {}

// NumberOp is a numeric literal operand.
type NumberOp struct {
	Atom
	Value float64
}

func (o *NumberOp) opNode() {}

// IdentOp is a bare identifier: a field name, group-by column or free text.
type IdentOp struct{ Atom }

func (o *IdentOp) opNode() {}

// IsKeyword reports whether op is one of the reserved operator words.
func IsKeyword(op Op) bool {
	switch op.(type) {
	case *NumberOp, *IdentOp:
		return false
	default:
		return true
	}
}

// IsAggregate reports whether op consumes the following element as a column name.
func IsAggregate(op Op) bool {
	switch op.(type) {
	case *SumOp, *CountOp, *AvgOp, *CMulOp:
		return true
	default:
		return false
	}
}

// Pipeline is a decoded token stream.
type Pipeline struct {
	Ops []Op
}

// Len returns the number of elements.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Ops)
}

// Slice returns the sub-pipeline Ops[from:to]. It shares the backing array.
func (p *Pipeline) Slice(from, to int) *Pipeline {
	return &Pipeline{Ops: p.Ops[from:to]}
}

// Atoms returns the source text of every element, in order.
func (p *Pipeline) Atoms() []string {
	out := make([]string, p.Len())
	for i, op := range p.Ops {
		out[i] = op.Src().Text
	}
	return out
}
