package table

import (
	"strconv"
	"strings"
)

// ValueType represents the type of a Value.
type ValueType int

const (
	TypeBool ValueType = iota
	TypeNumber
	TypeText
	TypeField // bare field reference left unconsumed by the pipeline
	TypeTable // result table (grouped counts)
)

var typeNames = map[ValueType]string{
	TypeBool:   "bool",
	TypeNumber: "number",
	TypeText:   "text",
	TypeField:  "field",
	TypeTable:  "table",
}

func (t ValueType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// Value is a tagged evaluation result.
type Value struct {
	Type  ValueType
	Bool  bool
	Num   float64
	Str   string // text or field name
	Table Grid
}

// BoolVal creates a boolean value.
func BoolVal(v bool) Value {
	return Value{Type: TypeBool, Bool: v}
}

// NumberVal creates a numeric value.
func NumberVal(v float64) Value {
	return Value{Type: TypeNumber, Num: v}
}

// TextVal creates a text value.
func TextVal(v string) Value {
	return Value{Type: TypeText, Str: v}
}

// FieldVal creates a field reference.
func FieldVal(name string) Value {
	return Value{Type: TypeField, Str: name}
}

// TableVal creates a table value. Row 0 of g is the header.
func TableVal(g Grid) Value {
	return Value{Type: TypeTable, Table: g}
}

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool {
	return v.Type == TypeNumber
}

// AsFloat returns the number held by v.
func (v Value) AsFloat() (float64, bool) {
	if v.Type != TypeNumber {
		return 0, false
	}
	return v.Num, true
}

// AsString returns the string representation.
func (v Value) AsString() string {
	switch v.Type {
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	case TypeNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case TypeText, TypeField:
		return v.Str
	case TypeTable:
		return v.Table.String()
	default:
		return "?"
	}
}

// String includes the type tag, e.g. number(22) or field(qty).
func (v Value) String() string {
	return v.Type.String() + "(" + v.AsString() + ")"
}

// Equal reports whether two values hold the same variant and contents.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeBool:
		return v.Bool == o.Bool
	case TypeNumber:
		return v.Num == o.Num
	case TypeText, TypeField:
		return v.Str == o.Str
	case TypeTable:
		if len(v.Table) != len(o.Table) {
			return false
		}
		for i := range v.Table {
			if len(v.Table[i]) != len(o.Table[i]) {
				return false
			}
			for j := range v.Table[i] {
				if v.Table[i][j] != o.Table[i][j] {
					return false
				}
			}
		}
		return true
	}
	return false
}

// ParseNumber parses a cell or token as a float64 in plain decimal
// notation. Out of range literals saturate to ±Inf rather than failing.
// Go-only literal forms (digit underscores, hex floats) are not numbers.
func ParseNumber(s string) (float64, bool) {
	if strings.IndexByte(s, '_') >= 0 {
		return 0, false
	}
	if u := strings.TrimLeft(s, "+-"); len(u) >= 2 && u[0] == '0' && (u[1] == 'x' || u[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return f, true
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return f, true
	}
	return 0, false
}
