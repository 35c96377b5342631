package engine

import (
	"fmt"

	"github.com/razeghi71/csvqb/ast"
	"github.com/razeghi71/csvqb/table"
)

// evalComparison compares two numbers; left is the deeper stack entry.
func evalComparison(op ast.Op, left, right table.Value) (table.Value, error) {
	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if !lok || !rok {
		return table.Value{}, fmt.Errorf("%w: cannot compare %v with %v", ErrTypeMismatch, left, right)
	}

	switch op.(type) {
	case *ast.EqOp:
		return table.BoolVal(lf == rf), nil
	case *ast.LtOp:
		return table.BoolVal(lf < rf), nil
	case *ast.GtOp:
		return table.BoolVal(lf > rf), nil
	default:
		return table.Value{}, fmt.Errorf("unknown comparison %T", op)
	}
}

func evalMul(left, right table.Value) (table.Value, error) {
	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if !lok || !rok {
		return table.Value{}, fmt.Errorf("%w: cannot multiply %v and %v", ErrTypeMismatch, left, right)
	}
	return table.NumberVal(lf * rf), nil
}
