package parser

import (
	"fmt"

	"github.com/razeghi71/csvqb/ast"
	"github.com/razeghi71/csvqb/table"
)

// Issue is a structural problem found by Check. Issues never stop
// evaluation; they explain results that look surprising.
type Issue struct {
	Index int    // element index in the pipeline
	Pos   int    // source position of the element
	Token string // element text
	Msg   string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at position %d: %s", i.Token, i.Pos, i.Msg)
}

// Check lints a pipeline.
func Check(p *ast.Pipeline) []Issue {
	var issues []Issue
	report := func(idx int, format string, args ...interface{}) {
		src := p.Ops[idx].Src()
		issues = append(issues, Issue{Index: idx, Pos: src.Pos, Token: src.Text, Msg: fmt.Sprintf(format, args...)})
	}

	var open []int
	for i, op := range p.Ops {
		if ast.IsAggregate(op) {
			if i+1 >= len(p.Ops) {
				report(i, "missing column name")
			} else if ast.IsKeyword(p.Ops[i+1]) {
				report(i, "column name %q is an operator", p.Ops[i+1].Src().Text)
			}
			continue
		}
		switch op.(type) {
		case *ast.GroupOp:
			if i+1 >= len(p.Ops) || ast.IsKeyword(p.Ops[i+1]) {
				report(i, "no group-by columns captured")
			}
		case *ast.OpenOp:
			open = append(open, i)
		case *ast.CloseOp:
			if len(open) == 0 {
				report(i, "unmatched closing parenthesis")
				continue
			}
			open = open[:len(open)-1]
		}
	}
	for _, i := range open {
		report(i, "unclosed parenthesis")
	}
	return issues
}

// Match returns, for every OpenOp index, the index of its matching CloseOp.
// Unbalanced parentheses are left out of the map.
func Match(p *ast.Pipeline) map[int]int {
	pairs := make(map[int]int)
	var open []int
	for i, op := range p.Ops {
		switch op.(type) {
		case *ast.OpenOp:
			open = append(open, i)
		case *ast.CloseOp:
			if len(open) == 0 {
				continue
			}
			pairs[open[len(open)-1]] = i
			open = open[:len(open)-1]
		}
	}
	return pairs
}

func number(s string) float64 {
	f, _ := table.ParseNumber(s)
	return f
}
