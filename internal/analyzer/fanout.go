package analyzer

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// fanOut runs fn for every key on a bounded worker group and collects
// results keyed by input. fn handles its own failures (degrading to a
// sentinel or empty value), so the only error out of here is context
// cancellation.
func fanOut[K comparable, V any](ctx context.Context, limit int, keys []K, fn func(context.Context, K) V) (map[K]V, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	out := make(map[K]V, len(keys))

	for _, k := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v := fn(ctx, k)
			mu.Lock()
			out[k] = v
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
