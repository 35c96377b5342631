package session

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/razeghi71/csvqb/ast"
	"github.com/razeghi71/csvqb/engine"
	"github.com/razeghi71/csvqb/lexer"
	"github.com/razeghi71/csvqb/parser"
	"github.com/razeghi71/csvqb/table"
)

// Workspace is an explicit evaluation context: the loaded datasets, the
// active selection and the pipelines to run against them.
type Workspace struct {
	Store     table.Store
	Selection table.Selection
	Pipelines []*ast.Pipeline

	logger log.Logger
}

// NewWorkspace creates a workspace over store with every dataset selected.
func NewWorkspace(store table.Store, logger log.Logger) *Workspace {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Workspace{
		Store:     store,
		Selection: table.All(store),
		logger:    logger,
	}
}

// Open rebuilds the workspace a session describes.
func Open(ctx context.Context, s Session, logger log.Logger) (*Workspace, error) {
	store, err := Reconstruct(ctx, s)
	if err != nil {
		return nil, err
	}
	w := NewWorkspace(store, logger)
	w.Selection = append(table.Selection(nil), s.Selected...)
	for _, text := range s.Pipelines {
		if err := w.AddPipeline(text); err != nil {
			return nil, fmt.Errorf("session %s: %w", s.Name, err)
		}
	}
	level.Info(w.logger).Log("msg", "session opened", "session", s.Name, "files", len(store), "pipelines", len(w.Pipelines))
	return w, nil
}

// AddPipeline parses text and appends it. Structural problems are logged
// but do not reject the pipeline: evaluation tolerates them.
func (w *Workspace) AddPipeline(text string) error {
	p, err := parser.Parse(text)
	if err != nil {
		return fmt.Errorf("pipeline %d: %w", len(w.Pipelines)+1, err)
	}
	for _, issue := range parser.Check(p) {
		level.Warn(w.logger).Log("msg", "pipeline issue", "pipeline", len(w.Pipelines)+1, "err", issue)
	}
	w.Pipelines = append(w.Pipelines, p)
	return nil
}

// Evaluate runs every pipeline against the current store and selection.
func (w *Workspace) Evaluate(ctx context.Context, e *engine.Evaluator) ([]engine.Result, error) {
	if e == nil {
		e = engine.New(engine.WithLogger(w.logger))
	}
	return e.RunAll(ctx, w.Pipelines, w.Selection, w.Store)
}

// Snapshot captures the workspace as a session called name.
func (w *Workspace) Snapshot(name string) Session {
	s := Session{
		Name:      name,
		Files:     make([]string, len(w.Store)),
		Pipelines: make([]string, len(w.Pipelines)),
		Selected:  append([]int(nil), w.Selection...),
	}
	for i, ds := range w.Store {
		s.Files[i] = ds.ID
	}
	for i, p := range w.Pipelines {
		s.Pipelines[i] = lexer.Join(p.Atoms())
	}
	return s
}
