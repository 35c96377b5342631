package engine

import (
	"strconv"
	"strings"

	"github.com/razeghi71/csvqb/table"
)

// KeySeparator terminates every component of a group key.
const KeySeparator = "|"

// TotalKey is the single key used when no group-by columns are active.
const TotalKey = "total"

// Keyed is one entry of a per-key aggregate.
type Keyed struct {
	Key   string
	Parts []string // the group-by cell values the key was built from
	Value float64
}

// Aggregate is a per-key result in first-seen key order.
type Aggregate []Keyed

// Sum adds up every per-key value.
func (a Aggregate) Sum() float64 {
	var s float64
	for _, k := range a {
		s += k.Value
	}
	return s
}

// Product multiplies every per-key value. An empty aggregate yields 1.
func (a Aggregate) Product() float64 {
	p := 1.0
	for _, k := range a {
		p *= k.Value
	}
	return p
}

// Mean is the unweighted mean of the per-key values, 0 when empty.
func (a Aggregate) Mean() float64 {
	if len(a) == 0 {
		return 0
	}
	return a.Sum() / float64(len(a))
}

// Get returns the value stored for key.
func (a Aggregate) Get(key string) (float64, bool) {
	for _, k := range a {
		if k.Key == key {
			return k.Value, true
		}
	}
	return 0, false
}

// accumulator keeps keys in first-seen order.
type accumulator struct {
	index map[string]int
	out   Aggregate
	count []int
}

func newAccumulator() *accumulator {
	return &accumulator{index: make(map[string]int)}
}

func (a *accumulator) add(key string, parts []string, v float64) {
	i, ok := a.index[key]
	if !ok {
		i = len(a.out)
		a.index[key] = i
		a.out = append(a.out, Keyed{Key: key, Parts: parts})
		a.count = append(a.count, 0)
	}
	a.out[i].Value += v
	a.count[i]++
}

// visit calls fn for every data row of every selected dataset that has the
// target column. Datasets without the column are skipped, as are rows too
// short to hold it. groupIdx holds the header index of each group-by column
// for the current dataset, -1 when absent.
func visit(sel table.Selection, store table.Store, column string, groupBy []string,
	fn func(row table.Row, col int, groupIdx []int)) {
	for _, g := range sel.Grids(store) {
		col := g.ColIndex(column)
		if col < 0 {
			continue
		}
		groupIdx := make([]int, len(groupBy))
		for i, name := range groupBy {
			groupIdx[i] = g.ColIndex(name)
		}
		for _, row := range g.DataRows() {
			if len(row) <= col {
				continue
			}
			fn(row, col, groupIdx)
		}
	}
}

// groupKey concatenates the row's value in each group-by column, each
// followed by KeySeparator. Columns missing from the dataset or the row
// add nothing to the key and an empty component to parts, so parts always
// has one entry per group-by column.
func groupKey(row table.Row, groupIdx []int) (string, []string) {
	var sb strings.Builder
	parts := make([]string, 0, len(groupIdx))
	for _, idx := range groupIdx {
		if idx < 0 || idx >= len(row) {
			parts = append(parts, "")
			continue
		}
		sb.WriteString(row[idx])
		sb.WriteString(KeySeparator)
		parts = append(parts, row[idx])
	}
	return sb.String(), parts
}

// ColumnSum sums column per group key over the selected datasets. Without
// group-by columns every row lands under TotalKey. Cells that do not parse
// as numbers are skipped.
func ColumnSum(sel table.Selection, store table.Store, column string, groupBy []string) Aggregate {
	acc := newAccumulator()
	visit(sel, store, column, groupBy, func(row table.Row, col int, groupIdx []int) {
		v, ok := table.ParseNumber(row[col])
		if !ok {
			return
		}
		if len(groupBy) == 0 {
			acc.add(TotalKey, nil, v)
			return
		}
		key, parts := groupKey(row, groupIdx)
		acc.add(key, parts, v)
	})
	return acc.out
}

// ColumnAverage averages column per group key. Only rows whose cell parses
// count towards a key.
func ColumnAverage(sel table.Selection, store table.Store, column string, groupBy []string) Aggregate {
	acc := newAccumulator()
	visit(sel, store, column, groupBy, func(row table.Row, col int, groupIdx []int) {
		v, ok := table.ParseNumber(row[col])
		if !ok {
			return
		}
		if len(groupBy) == 0 {
			acc.add(TotalKey, nil, v)
			return
		}
		key, parts := groupKey(row, groupIdx)
		acc.add(key, parts, v)
	})
	for i := range acc.out {
		acc.out[i].Value /= float64(acc.count[i])
	}
	return acc.out
}

// ColumnGroupedCount counts rows per group key and returns them as a table
// whose header is the group-by columns (or column itself) followed by
// "count". Without group-by columns the key is the cell value, which makes
// the result a frequency table.
func ColumnGroupedCount(sel table.Selection, store table.Store, column string, groupBy []string) table.Grid {
	acc := newAccumulator()
	visit(sel, store, column, groupBy, func(row table.Row, col int, groupIdx []int) {
		if len(groupBy) == 0 {
			acc.add(row[col], []string{row[col]}, 0)
			return
		}
		key, parts := groupKey(row, groupIdx)
		acc.add(key, parts, 0)
	})

	header := make(table.Row, 0, len(groupBy)+1)
	if len(groupBy) > 0 {
		header = append(header, groupBy...)
	} else {
		header = append(header, column)
	}
	header = append(header, "count")

	out := table.Grid{header}
	for i, k := range acc.out {
		row := make(table.Row, 0, len(k.Parts)+1)
		row = append(row, k.Parts...)
		row = append(row, strconv.Itoa(acc.count[i]))
		out = append(out, row)
	}
	return out
}

// ColumnSumTable is ColumnSum without the collapse: one row per key with
// its sum. The header is the group-by columns (or "key") followed by "sum".
func ColumnSumTable(sel table.Selection, store table.Store, column string, groupBy []string) table.Grid {
	agg := ColumnSum(sel, store, column, groupBy)

	header := make(table.Row, 0, len(groupBy)+1)
	if len(groupBy) > 0 {
		header = append(header, groupBy...)
	} else {
		header = append(header, "key")
	}
	header = append(header, "sum")

	out := table.Grid{header}
	for _, k := range agg {
		row := make(table.Row, 0, len(k.Parts)+1)
		if len(groupBy) > 0 {
			row = append(row, k.Parts...)
		} else {
			row = append(row, k.Key)
		}
		row = append(row, strconv.FormatFloat(k.Value, 'g', -1, 64))
		out = append(out, row)
	}
	return out
}

// FilterEquals returns, for every selected dataset holding column, its
// header followed by the rows whose cell equals value.
func FilterEquals(sel table.Selection, store table.Store, column, value string) table.Grid {
	return filterRows(sel, store, column, func(cell string) bool {
		return cell == value
	})
}

// FilterGreaterThan is FilterEquals for cells parsing greater than value.
// Unparsable cells never match.
func FilterGreaterThan(sel table.Selection, store table.Store, column string, value float64) table.Grid {
	return filterRows(sel, store, column, func(cell string) bool {
		v, ok := table.ParseNumber(cell)
		return ok && v > value
	})
}

func filterRows(sel table.Selection, store table.Store, column string, match func(string) bool) table.Grid {
	var out table.Grid
	for _, g := range sel.Grids(store) {
		col := g.ColIndex(column)
		if col < 0 {
			continue
		}
		out = append(out, g.Header())
		for _, row := range g.DataRows() {
			if len(row) > col && match(row[col]) {
				out = append(out, row)
			}
		}
	}
	return out
}
