package table

import (
	"strings"
)

// Row is a single row of text cells.
type Row []string

// Grid is an ordered sequence of rows. Row 0 is the header.
type Grid []Row

// Header returns the header row, or nil for an empty grid.
func (g Grid) Header() Row {
	if len(g) == 0 {
		return nil
	}
	return g[0]
}

// DataRows returns every row after the header.
func (g Grid) DataRows() []Row {
	if len(g) < 2 {
		return nil
	}
	return g[1:]
}

// ColIndex returns the index of the first header cell equal to name, or -1.
func (g Grid) ColIndex(name string) int {
	for i, c := range g.Header() {
		if c == name {
			return i
		}
	}
	return -1
}

// Clone creates a deep copy of the grid.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, r := range g {
		row := make(Row, len(r))
		copy(row, r)
		out[i] = row
	}
	return out
}

// Records converts the grid to plain string slices, sharing cell storage.
func (g Grid) Records() [][]string {
	out := make([][]string, len(g))
	for i, r := range g {
		out[i] = r
	}
	return out
}

// String returns a compact representation of the grid.
func (g Grid) String() string {
	if len(g) == 0 {
		return "[] (0 rows)"
	}
	if len(g) == 1 {
		return "[" + strings.Join(g[0], ", ") + "] (0 rows)"
	}

	header := g[0]
	var sb strings.Builder
	sb.WriteString("[ ")
	for i, r := range g[1:] {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, v := range r {
			if j > 0 {
				sb.WriteString(", ")
			}
			if j < len(header) {
				sb.WriteString(header[j])
			} else {
				sb.WriteString("?")
			}
			sb.WriteString(":")
			sb.WriteString(v)
		}
		sb.WriteString("}")
	}
	sb.WriteString(" ]")
	return sb.String()
}

// Dataset is a grid tagged with the identifier it was loaded from.
// Identifiers are path-like and need not be unique.
type Dataset struct {
	ID   string
	Grid Grid
}

// Name returns the last path element of the identifier.
func (d Dataset) Name() string {
	id := strings.ReplaceAll(d.ID, "\\", "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// Store is the ordered collection of loaded datasets.
type Store []Dataset

// Get returns the dataset at index i. Out of range indices report false.
func (s Store) Get(i int) (Dataset, bool) {
	if i < 0 || i >= len(s) {
		return Dataset{}, false
	}
	return s[i], true
}

// Selection is the ordered list of dataset indices in scope for one evaluation.
type Selection []int

// All selects every dataset in the store.
func All(s Store) Selection {
	sel := make(Selection, len(s))
	for i := range s {
		sel[i] = i
	}
	return sel
}

// Grids resolves the selection against the store in selection order,
// skipping unknown indices, repeated indices and empty grids.
func (sel Selection) Grids(s Store) []Grid {
	var out []Grid
	seen := make(map[int]bool, len(sel))
	for _, idx := range sel {
		ds, ok := s.Get(idx)
		if !ok || len(ds.Grid) == 0 || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, ds.Grid)
	}
	return out
}
