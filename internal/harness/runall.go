package harness

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/todoracle/internal/surface"
)

// RunAll executes scenarios with at most parallel running at once, each in
// its own session. Results are returned in scenario order.
//
// A failing scenario never stops the others. The first error outside a
// scenario (see Run) cancels the remaining ones and is returned.
func RunAll(ctx context.Context, scenarios []*Scenario, opener surface.Opener, opts Options, parallel int) ([]*Result, error) {
	if parallel < 1 {
		parallel = 1
	}

	results := make([]*Result, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, sc := range scenarios {
		g.Go(func() error {
			result, err := Run(ctx, sc, opener, opts)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
