package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColIndexFirstMatchWins(t *testing.T) {
	g := Grid{{"a", "b", "a"}, {"1", "2", "3"}}
	require.Equal(t, 0, g.ColIndex("a"))
	require.Equal(t, 1, g.ColIndex("b"))
	require.Equal(t, -1, g.ColIndex("c"))
	require.Equal(t, -1, Grid(nil).ColIndex("a"))
}

func TestDataRows(t *testing.T) {
	require.Nil(t, Grid(nil).DataRows())
	require.Nil(t, Grid{{"h"}}.DataRows())
	require.Len(t, Grid{{"h"}, {"1"}, {"2"}}.DataRows(), 2)
}

func TestSelectionGridsSkipsUnknownAndEmpty(t *testing.T) {
	s := Store{
		{ID: "a.csv", Grid: Grid{{"x"}, {"1"}}},
		{ID: "empty.csv"},
		{ID: "b.csv", Grid: Grid{{"x"}, {"2"}}},
	}
	grids := Selection{2, -1, 1, 7, 0, 2}.Grids(s)
	require.Len(t, grids, 2)
	require.Equal(t, "2", grids[0][1][0])
	require.Equal(t, "1", grids[1][1][0])
	require.Equal(t, Selection{0, 1, 2}, All(s))
}

func TestDatasetName(t *testing.T) {
	require.Equal(t, "orders.csv", Dataset{ID: "data/2024/orders.csv"}.Name())
	require.Equal(t, "orders.csv", Dataset{ID: `C:\data\orders.csv`}.Name())
	require.Equal(t, "orders.csv", Dataset{ID: "orders.csv"}.Name())
}

func TestValueString(t *testing.T) {
	require.Equal(t, "number(22)", NumberVal(22).String())
	require.Equal(t, "bool(false)", BoolVal(false).String())
	require.Equal(t, "field(qty)", FieldVal("qty").String())
	require.Equal(t, "2.5", NumberVal(2.5).AsString())
	require.Equal(t, "[id, count] (0 rows)", TableVal(Grid{{"id", "count"}}).AsString())
	require.Equal(t, "[ {id:1, count:2} ]", TableVal(Grid{{"id", "count"}, {"1", "2"}}).AsString())
}

func TestValueEqual(t *testing.T) {
	require.True(t, NumberVal(1).Equal(NumberVal(1)))
	require.False(t, NumberVal(1).Equal(TextVal("1")))
	require.False(t, FieldVal("a").Equal(TextVal("a")))
	require.True(t, TableVal(Grid{{"a"}, {"1"}}).Equal(TableVal(Grid{{"a"}, {"1"}})))
	require.False(t, TableVal(Grid{{"a"}, {"1"}}).Equal(TableVal(Grid{{"a"}, {"2"}})))
}

func TestCloneIsDeep(t *testing.T) {
	g := Grid{{"a"}, {"1"}}
	c := g.Clone()
	c[1][0] = "9"
	require.Equal(t, "1", g[1][0])
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10", 10, true},
		{"-2.5", -2.5, true},
		{"1e3", 1000, true},
		{"+4", 4, true},
		{"", 0, false},
		{" 7", 0, false},
		{"qty", 0, false},
		{"1,5", 0, false},
		{"1_000", 0, false},
		{"2024_1", 0, false},
		{"0x1p4", 0, false},
		{"-0X10", 0, false},
		{"0.5", 0.5, true},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in)
		require.Equal(t, c.ok, ok, c.in)
		require.Equal(t, c.want, got, c.in)
	}

	inf, ok := ParseNumber("1e400")
	require.True(t, ok)
	require.True(t, inf > 1e308)
}

func TestRecords(t *testing.T) {
	g := Grid{{"a", "b"}, {"1"}}
	require.Equal(t, [][]string{{"a", "b"}, {"1"}}, g.Records())
	require.Empty(t, Grid(nil).Records())
}
