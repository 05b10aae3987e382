package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

// AnalyzeBatch answers many questions about one dataset with at most
// concurrency in flight. Results come back in input order. Cancelling ctx
// stops unstarted questions; their slots hold the statistical fallback.
func (e *Engine) AnalyzeBatch(ctx context.Context, ds *dataset.Dataset, queries []string, concurrency int) []Result {
	if concurrency <= 0 {
		concurrency = 4
	}
	out := make([]Result, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i] = Statistical(ds, err)
				return nil
			}
			out[i] = e.Analyze(gctx, Request{Dataset: ds, Query: q})
			return nil
		})
	}
	_ = g.Wait()
	return out
}
