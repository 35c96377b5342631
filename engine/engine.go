package engine

import (
	"errors"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/razeghi71/csvqb/ast"
	"github.com/razeghi71/csvqb/parser"
	"github.com/razeghi71/csvqb/table"
)

// Evaluator runs pipelines against a store. It holds configuration only and
// is safe for concurrent use.
type Evaluator struct {
	logger   log.Logger
	maxDepth int
	maxSteps int
	balanced bool
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		logger:   log.NewNopLogger(),
		maxDepth: DefaultMaxDepth,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the output of one evaluation.
type Result struct {
	Values      []table.Value
	Diagnostics []Diagnostic
}

// Err joins the diagnostics into one error, or returns nil.
func (r Result) Err() error {
	if len(r.Diagnostics) == 0 {
		return nil
	}
	errs := make([]error, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		errs[i] = d
	}
	return errors.Join(errs...)
}

// Evaluate runs a pipeline given as atoms with the default configuration.
// It never fails: malformed pipelines yield partial or empty results.
func Evaluate(atoms []string, sel table.Selection, store table.Store) []table.Value {
	p, err := parser.ParseAtoms(atoms)
	if err != nil {
		return nil
	}
	return New().Run(p, sel, store).Values
}

// EvaluateText parses pipeline text and runs it.
func (e *Evaluator) EvaluateText(text string, sel table.Selection, store table.Store) (Result, error) {
	p, err := parser.Parse(text)
	if err != nil {
		return Result{}, fmt.Errorf("parse pipeline: %w", err)
	}
	return e.Run(p, sel, store), nil
}

// Run evaluates a pipeline. The store and selection are only read.
func (e *Evaluator) Run(p *ast.Pipeline, sel table.Selection, store table.Store) Result {
	r := &run{
		e:     e,
		sel:   sel,
		store: store,
		seen:  make(map[diagKey]bool),
	}
	values := r.eval(p, 0)
	level.Debug(e.logger).Log("msg", "evaluated pipeline", "tokens", p.Len(), "results", len(values), "steps", r.steps, "diagnostics", len(r.diags))
	return Result{Values: values, Diagnostics: r.diags}
}

type diagKey struct {
	pos int
	err error
}

// run is the state shared by one top-level evaluation and its recursive
// sub-evaluations.
type run struct {
	e         *Evaluator
	sel       table.Selection
	store     table.Store
	steps     int
	exhausted bool
	diags     []Diagnostic
	seen      map[diagKey]bool
}

// frame is private to one (sub-)evaluation.
type frame struct {
	stack   []table.Value
	results []table.Value
	capture []string
}

func (f *frame) push(v table.Value) {
	f.stack = append(f.stack, v)
}

func (f *frame) pop() (table.Value, bool) {
	if len(f.stack) == 0 {
		return table.Value{}, false
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, true
}

func (f *frame) emit(v table.Value) {
	f.results = append(f.results, v)
	f.stack = append(f.stack, v)
}

func (f *frame) groupBy() []string {
	if len(f.capture) == 0 {
		return nil
	}
	return f.capture
}

// report records a soft failure once per position and sentinel.
func (r *run) report(op ast.Op, err error) {
	src := op.Src()
	key := diagKey{pos: src.Pos, err: sentinel(err)}
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.diags = append(r.diags, Diagnostic{Pos: src.Pos, Token: src.Text, Err: err})
	level.Warn(r.e.logger).Log("msg", "pipeline condition", "token", src.Text, "pos", src.Pos, "err", err)
}

func sentinel(err error) error {
	for _, s := range []error{ErrStackUnderflow, ErrTypeMismatch, ErrMissingOperand, ErrDepthExceeded, ErrBudgetExceeded} {
		if errors.Is(err, s) {
			return s
		}
	}
	return err
}

func (r *run) tick(op ast.Op) bool {
	if r.exhausted {
		return false
	}
	r.steps++
	if r.e.maxSteps > 0 && r.steps > r.e.maxSteps {
		r.exhausted = true
		r.report(op, fmt.Errorf("%w after %d steps", ErrBudgetExceeded, r.e.maxSteps))
		return false
	}
	return true
}

// eval scans p left to right. Every call gets a fresh stack, result list
// and capture group.
func (r *run) eval(p *ast.Pipeline, depth int) []table.Value {
	f := &frame{}
	ops := p.Ops
	n := len(ops)

	i := 0
	for i < n {
		if !r.tick(ops[i]) {
			break
		}
		switch op := ops[i].(type) {
		case *ast.GroupOp:
			for i+1 < n && !ast.IsKeyword(ops[i+1]) {
				f.capture = append(f.capture, ops[i+1].Src().Text)
				i++
			}
			i++

		case *ast.SumOp, *ast.CountOp, *ast.AvgOp, *ast.CMulOp:
			if i+1 >= n {
				r.report(op, ErrMissingOperand)
				i++
				continue
			}
			f.emit(r.aggregate(op, ops[i+1].Src().Text, f))
			i += 2

		case *ast.MulOp:
			v, err := r.mul(f)
			if err != nil {
				r.report(op, err)
				return f.results
			}
			f.emit(v)
			i++

		case *ast.EqOp, *ast.LtOp, *ast.GtOp:
			if len(f.stack) < 2 {
				r.report(op, fmt.Errorf("%w: %s needs two operands, have %d", ErrStackUnderflow, op.Src().Text, len(f.stack)))
				i++
				continue
			}
			right, _ := f.pop()
			left, _ := f.pop()
			v, err := evalComparison(op, left, right)
			if err != nil {
				r.report(op, err)
			} else {
				f.results = append(f.results, v)
			}
			i++

		case *ast.OpenOp:
			if depth+1 > r.e.maxDepth {
				r.report(op, fmt.Errorf("%w: limit is %d", ErrDepthExceeded, r.e.maxDepth))
				i++
				continue
			}
			if r.e.balanced {
				i = r.openBalanced(p, i, depth, f)
			} else {
				i = r.openRescan(p, i, depth, f)
			}

		case *ast.CloseOp:
			i++

		case *ast.NumberOp:
			f.push(table.NumberVal(op.Value))
			i++

		case *ast.IdentOp:
			f.results = append(f.results, table.FieldVal(op.Text))
			i++

		default:
			i++
		}
	}

	if len(f.results) == 0 {
		if v, ok := f.pop(); ok {
			f.results = append(f.results, v)
		}
	}
	return f.results
}

func (r *run) aggregate(op ast.Op, field string, f *frame) table.Value {
	groupBy := f.groupBy()
	switch op.(type) {
	case *ast.SumOp:
		return table.NumberVal(ColumnSum(r.sel, r.store, field, groupBy).Sum())
	case *ast.AvgOp:
		return table.NumberVal(ColumnAverage(r.sel, r.store, field, groupBy).Mean())
	case *ast.CountOp:
		return table.TableVal(ColumnGroupedCount(r.sel, r.store, field, groupBy))
	case *ast.CMulOp:
		product := ColumnSum(r.sel, r.store, field, groupBy).Product()
		if n := len(f.stack); n > 0 && f.stack[n-1].IsNumber() {
			left, _ := f.pop()
			return table.NumberVal(left.Num * product)
		}
		return table.NumberVal(product)
	}
	return table.Value{}
}

// mul pops right then left. Any failure aborts the current pass.
func (r *run) mul(f *frame) (table.Value, error) {
	right, rok := f.pop()
	left, lok := f.pop()
	if !rok || !lok {
		return table.Value{}, fmt.Errorf("%w: MUL needs two numbers", ErrStackUnderflow)
	}
	return evalMul(left, right)
}

// openRescan re-evaluates shrinking suffixes after the "(" at i until one
// yields a result or a ")" is reached. The first value of that result is
// appended to the outputs and the scan resumes one past where the search
// stopped.
func (r *run) openRescan(p *ast.Pipeline, i, depth int, f *frame) int {
	n := p.Len()
	j := i
	for j < n && !r.exhausted {
		if _, ok := p.Ops[j].(*ast.CloseOp); ok {
			break
		}
		sub := r.eval(p.Slice(j+1, n), depth+1)
		if len(sub) > 0 {
			f.results = append(f.results, sub[0])
			break
		}
		j++
	}
	return j + 1
}

// openBalanced evaluates the span up to the matching ")" (or the end of the
// pipeline when unmatched) and pushes its first value onto the stack.
func (r *run) openBalanced(p *ast.Pipeline, i, depth int, f *frame) int {
	n := p.Len()
	end := n
	nest := 0
	for j := i + 1; j < n; j++ {
		switch p.Ops[j].(type) {
		case *ast.OpenOp:
			nest++
		case *ast.CloseOp:
			if nest == 0 {
				end = j
			}
			nest--
		}
		if end != n {
			break
		}
	}

	sub := r.eval(p.Slice(i+1, end), depth+1)
	if len(sub) > 0 {
		f.push(sub[0])
	}
	return end + 1
}
