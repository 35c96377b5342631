package engine

import (
	"context"
	"runtime"
	"sync"

	"github.com/razeghi71/csvqb/ast"
	"github.com/razeghi71/csvqb/table"
)

// RunAll evaluates independent pipelines concurrently against the same
// snapshot. Results are returned in pipeline order. Pipelines not yet
// started when ctx is cancelled are skipped and ctx.Err() is returned.
func (e *Evaluator) RunAll(ctx context.Context, pipelines []*ast.Pipeline, sel table.Selection, store table.Store) ([]Result, error) {
	results := make([]Result, len(pipelines))
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup

	for i, p := range pipelines {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return results, err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return results, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, p *ast.Pipeline) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.Run(p, sel, store)
		}(i, p)
	}

	wg.Wait()
	return results, nil
}
