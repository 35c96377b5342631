package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/razeghi71/csvqb/table"
)

func twoSchemaStore() table.Store {
	return table.Store{
		{ID: "a.csv", Grid: table.Grid{
			{"city", "qty"},
			{"NY", "1"},
			{"LA", "2"},
			{"NY", "3"},
		}},
		{ID: "b.csv", Grid: table.Grid{
			{"qty", "region"},
			{"10", "west"},
		}},
	}
}

func TestColumnSumKeys(t *testing.T) {
	store := twoSchemaStore()
	agg := ColumnSum(table.All(store), store, "qty", []string{"city"})
	require.Len(t, agg, 3)
	require.Equal(t, "NY|", agg[0].Key)
	require.Equal(t, []string{"NY"}, agg[0].Parts)
	require.Equal(t, 4.0, agg[0].Value)
	require.Equal(t, "LA|", agg[1].Key)
	// b.csv has no city column, so its rows share the empty key
	require.Equal(t, "", agg[2].Key)
	require.Equal(t, []string{""}, agg[2].Parts)
	require.Equal(t, 10.0, agg[2].Value)
	require.Equal(t, 16.0, agg.Sum())

	v, ok := agg.Get("LA|")
	require.True(t, ok)
	require.Equal(t, 2.0, v)
	_, ok = agg.Get("SF|")
	require.False(t, ok)
}

func TestColumnSumTotalKey(t *testing.T) {
	store := twoSchemaStore()
	agg := ColumnSum(table.All(store), store, "qty", nil)
	require.Len(t, agg, 1)
	require.Equal(t, TotalKey, agg[0].Key)
	require.Equal(t, 16.0, agg[0].Value)
}

func TestColumnAverage(t *testing.T) {
	store := twoSchemaStore()
	agg := ColumnAverage(table.Selection{0}, store, "qty", []string{"city"})
	require.Len(t, agg, 2)
	require.Equal(t, 2.0, agg[0].Value)
	require.Equal(t, 2.0, agg[1].Value)
	require.Equal(t, 2.0, agg.Mean())
	require.Equal(t, 0.0, Aggregate(nil).Mean())
}

func TestColumnGroupedCountFrequency(t *testing.T) {
	store := twoSchemaStore()
	got := ColumnGroupedCount(table.Selection{0}, store, "city", nil)
	require.Equal(t, table.Grid{{"city", "count"}, {"NY", "2"}, {"LA", "1"}}, got)
}

func TestColumnGroupedCountCountsUnparsable(t *testing.T) {
	store := table.Store{{ID: "x", Grid: table.Grid{{"k", "v"}, {"a", "x"}, {"a", "1"}, {"b"}}}}
	got := ColumnGroupedCount(table.All(store), store, "v", []string{"k"})
	require.Equal(t, table.Grid{{"k", "count"}, {"a", "2"}}, got)
}

func TestColumnGroupedCountKeepsEmptyComponents(t *testing.T) {
	store := table.Store{{ID: "x", Grid: table.Grid{{"a", "b", "v"}, {"", "y", "1"}}}}
	got := ColumnGroupedCount(table.All(store), store, "v", []string{"a", "b"})
	require.Equal(t, table.Grid{{"a", "b", "count"}, {"", "y", "1"}}, got)
}

func TestColumnGroupedCountMissingGroupColumn(t *testing.T) {
	store := twoSchemaStore()
	got := ColumnGroupedCount(table.All(store), store, "qty", []string{"city"})
	require.Equal(t, table.Grid{{"city", "count"}, {"NY", "2"}, {"LA", "1"}, {"", "1"}}, got)

	sums := ColumnSumTable(table.All(store), store, "qty", []string{"city", "region"})
	require.Equal(t, table.Grid{
		{"city", "region", "sum"},
		{"NY", "", "4"},
		{"LA", "", "2"},
		{"", "west", "10"},
	}, sums)
}

func TestColumnSumTable(t *testing.T) {
	store := twoSchemaStore()
	got := ColumnSumTable(table.Selection{0}, store, "qty", []string{"city"})
	require.Equal(t, table.Grid{{"city", "sum"}, {"NY", "4"}, {"LA", "2"}}, got)

	total := ColumnSumTable(table.All(store), store, "qty", nil)
	require.Equal(t, table.Grid{{"key", "sum"}, {"total", "16"}}, total)
}

func TestProduct(t *testing.T) {
	require.Equal(t, 1.0, Aggregate(nil).Product())
	require.Equal(t, 6.0, Aggregate{{Value: 2}, {Value: 3}}.Product())
}

func TestFilterEquals(t *testing.T) {
	store := twoSchemaStore()
	got := FilterEquals(table.All(store), store, "city", "NY")
	require.Equal(t, table.Grid{{"city", "qty"}, {"NY", "1"}, {"NY", "3"}}, got)

	require.Nil(t, FilterEquals(table.All(store), store, "missing", "NY"))
}

func TestFilterGreaterThan(t *testing.T) {
	store := twoSchemaStore()
	got := FilterGreaterThan(table.All(store), store, "qty", 1.5)
	require.Equal(t, table.Grid{
		{"city", "qty"}, {"LA", "2"}, {"NY", "3"},
		{"qty", "region"}, {"10", "west"},
	}, got)
}

func TestFilterGreaterThanSkipsUnparsable(t *testing.T) {
	store := table.Store{{ID: "x", Grid: table.Grid{{"v"}, {"abc"}, {"5"}, {}}}}
	got := FilterGreaterThan(table.All(store), store, "v", 0)
	require.Equal(t, table.Grid{{"v"}, {"5"}}, got)
}
