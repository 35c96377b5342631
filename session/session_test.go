package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/razeghi71/csvqb/engine"
	"github.com/razeghi71/csvqb/table"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := Session{
		Name:      "orders",
		Files:     []string{"a.csv", "b.csv"},
		Pipelines: []string{"GRP city CSUM qty", "CCOUNT city"},
		Selected:  []int{0, 1},
	}
	require.NoError(t, Save(dir, s))

	got, err := Load(filepath.Join(dir, "orders.yaml"))
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestSaveInvalidName(t *testing.T) {
	for _, name := range []string{"", "..", "a/b", `a\b`} {
		err := Save(t.TempDir(), Session{Name: name})
		require.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestLoadNameFromFile(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "weekly.yml", "files: [x.csv]\n")
	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "weekly", s.Name)
	require.Equal(t, []string{"x.csv"}, s.Files)
}

func TestLoadBadYAML(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "bad.yaml", "files: [unclosed\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, Session{Name: "zeta"}))
	require.NoError(t, Save(dir, Session{Name: "alpha"}))
	writeCSV(t, dir, "beta.yml", "name: beta\n")
	writeCSV(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	sessions, err := LoadDir(dir)
	require.NoError(t, err)
	names := make([]string, len(sessions))
	for i, s := range sessions {
		names[i] = s.Name
	}
	require.Equal(t, []string{"alpha", "beta", "zeta"}, names)
}

func TestLoadDirMissing(t *testing.T) {
	sessions, err := LoadDir(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	require.Empty(t, sessions)
}

func TestReconstructKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"c.csv", "a.csv", "b.csv"} {
		files = append(files, writeCSV(t, dir, name, "v\n"+name+"\n"))
	}
	store, err := Reconstruct(context.Background(), Session{Name: "s", Files: files})
	require.NoError(t, err)
	require.Len(t, store, 3)
	for i, ds := range store {
		require.Equal(t, files[i], ds.ID)
		require.Equal(t, table.Grid{{"v"}, {filepath.Base(files[i])}}, ds.Grid)
	}
}

func TestReconstructFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "a.csv", "v\n1\n")
	_, err := Reconstruct(context.Background(), Session{Name: "s", Files: []string{good, filepath.Join(dir, "gone.csv")}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "gone.csv")
}

func TestReconstructCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Reconstruct(ctx, Session{Name: "s", Files: []string{"a.csv"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWorkspaceEvaluate(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "city,qty\nNY,1\nLA,2\nNY,3\n")
	b := writeCSV(t, dir, "b.csv", "qty\n10\n")

	w, err := Open(context.Background(), Session{
		Name:      "orders",
		Files:     []string{a, b},
		Pipelines: []string{"CSUM qty", "GRP city CCOUNT qty", "10 20 >"},
		Selected:  []int{0},
	}, nil)
	require.NoError(t, err)
	require.Len(t, w.Pipelines, 3)

	results, err := w.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, []table.Value{table.NumberVal(6)}, results[0].Values)
	require.Equal(t, []table.Value{table.TableVal(table.Grid{{"city", "count"}, {"NY", "2"}, {"LA", "1"}})}, results[1].Values)
	require.Equal(t, []table.Value{table.BoolVal(false)}, results[2].Values)

	w.Selection = table.All(w.Store)
	results, err = w.Evaluate(context.Background(), engine.New())
	require.NoError(t, err)
	require.Equal(t, []table.Value{table.NumberVal(16)}, results[0].Values)
}

func TestWorkspaceAddPipelineRejectsInvalidUTF8(t *testing.T) {
	w := NewWorkspace(nil, nil)
	require.Error(t, w.AddPipeline("CSUM \xff"))
	require.Empty(t, w.Pipelines)
	require.NoError(t, w.AddPipeline("GRP )"))
	require.Len(t, w.Pipelines, 1)
}

func TestWorkspaceSnapshot(t *testing.T) {
	store := table.Store{{ID: "x.csv"}, {ID: "y.csv"}}
	w := NewWorkspace(store, nil)
	require.NoError(t, w.AddPipeline("  GRP   city  CSUM qty "))
	require.Equal(t, table.Selection{0, 1}, w.Selection)

	s := w.Snapshot("snap")
	require.Equal(t, Session{
		Name:      "snap",
		Files:     []string{"x.csv", "y.csv"},
		Pipelines: []string{"GRP city CSUM qty"},
		Selected:  []int{0, 1},
	}, s)

	dir := t.TempDir()
	require.NoError(t, Save(dir, s))
	back, err := Load(filepath.Join(dir, FileName("snap")))
	require.NoError(t, err)
	require.Equal(t, s, back)
}
