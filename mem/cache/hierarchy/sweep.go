package hierarchy

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachesim/mem/trace"
)

// A Result is the outcome of replaying a trace against one configuration.
type Result struct {
	Config       Config
	Measurements Measurements
}

// Sweep replays the same accesses against every configuration. Each
// configuration gets its own hierarchy, so up to parallelism of them run at
// the same time. Results are returned in the order of the configurations.
func Sweep(
	ctx context.Context,
	accesses []trace.Access,
	configs []Config,
	parallelism int,
) ([]Result, error) {
	results := make([]Result, len(configs))

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for i, c := range configs {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			h, err := New(c)
			if err != nil {
				return fmt.Errorf("config %d: %w", i, err)
			}

			h.Replay(accesses)

			results[i] = Result{Config: c, Measurements: Measure(h)}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
