// Package chart turns pipeline results into render-ready series. It does no
// drawing: a front end picks a renderer based on Config.Kind.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/razeghi71/csvqb/table"
)

// Kind is a chart style.
type Kind string

const (
	Bar       Kind = "bar"
	Histogram Kind = "histogram"
	Pie       Kind = "pie"
	Scatter   Kind = "scatter"
	Line      Kind = "line"
	Flame     Kind = "flame"
)

var kinds = []Kind{Bar, Histogram, Pie, Scatter, Line, Flame}

// Kinds lists every supported chart style.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind accepts a kind name case-insensitively, with "graph", "chart"
// and "plot" suffixes allowed ("Bar Graph", "pie chart").
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range []string{" graph", " chart", " plot"} {
		name = strings.TrimSuffix(name, suffix)
	}
	for _, k := range kinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart kind %q", s)
}

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Point is one labelled value.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is the formatted form of one result value.
type Series struct {
	Name string  `json:"name"`
	Data []Point `json:"data"`
}

// Config is everything a renderer needs.
type Config struct {
	Kind       Kind     `json:"kind"`
	Title      string   `json:"title,omitempty"`
	Series     []Series `json:"series"`
	Colors     []string `json:"colors"`
	ShowLegend bool     `json:"showLegend"`
	ShowGrid   bool     `json:"showGrid"`
}

// Build formats every result into a series. Results that format to no
// points are left out.
func Build(kind Kind, title string, results []table.Value) *Config {
	if kind == "" {
		kind = Bar
	}
	config := &Config{
		Kind:       kind,
		Title:      title,
		ShowLegend: len(results) > 1 || kind == Pie,
		ShowGrid:   kind != Pie && kind != Flame,
	}
	for i, v := range results {
		points := Format(v)
		if len(points) == 0 {
			continue
		}
		config.Series = append(config.Series, Series{Name: seriesName(i, v), Data: points})
	}
	config.Colors = assignColors(len(config.Series))
	return config
}

// Format resolves one value to points. Scalars become a single point;
// non-finite numbers are dropped. Tables whose last column is numeric
// become one point per data row, labelled by the remaining cells.
func Format(v table.Value) []Point {
	switch v.Type {
	case table.TypeNumber:
		if !finite(v.Num) {
			return nil
		}
		return []Point{{Label: "value", Value: RoundTo2(v.Num)}}
	case table.TypeBool:
		p := Point{Label: v.AsString()}
		if v.Bool {
			p.Value = 1
		}
		return []Point{p}
	case table.TypeText, table.TypeField:
		return []Point{{Label: v.Str}}
	case table.TypeTable:
		return tablePoints(v.Table)
	}
	return nil
}

func tablePoints(g table.Grid) []Point {
	rows := g.DataRows()
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		n, ok := table.ParseNumber(row[len(row)-1])
		if !ok || !finite(n) {
			continue
		}
		label := strings.Join(row[:len(row)-1], " / ")
		if label == "" {
			label = "(blank)"
		}
		points = append(points, Point{Label: label, Value: RoundTo2(n)})
	}
	return points
}

func seriesName(i int, v table.Value) string {
	if v.Type == table.TypeTable {
		if h := v.Table.Header(); len(h) > 0 {
			return strings.Join(h[:len(h)-1], ", ") + " " + h[len(h)-1]
		}
	}
	if v.Type == table.TypeField {
		return v.Str
	}
	return fmt.Sprintf("result %d", i+1)
}

func assignColors(n int) []string {
	colors := make([]string, n)
	for i := range colors {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// RoundTo2 rounds half away from zero to two decimals.
func RoundTo2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return math.Round(v*100) / 100
}
