package resolver

import (
	"context"
	"runtime"

	"github.com/ivlev/demoreel/internal/timeline"
	"golang.org/x/sync/errgroup"
)

// PoolSize returns the worker count the render stage should use: ~75% of
// available CPU cores, never fewer than 2.
func PoolSize(cpuCount int) int {
	n := (cpuCount * 3) / 4
	if n < 2 {
		return 2
	}
	return n
}

// ResolveAll resolves every output frame in [0, totalFrames) concurrently.
// The resolver is pure, so frame order carries no dependency between
// workers; results are written back into a pre-sized slice so the caller
// sees them in output-frame order regardless of completion order.
func ResolveAll(ctx context.Context, totalFrames int64, manifest []timeline.ManifestEntry, transitions []timeline.TransitionMarker, workers int) ([]FrameRef, error) {
	if workers <= 0 {
		workers = PoolSize(runtime.NumCPU())
	}

	refs := make([]FrameRef, totalFrames)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for f := int64(0); f < totalFrames; f++ {
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ref, err := Resolve(f, manifest, transitions)
			if err != nil {
				return err
			}
			refs[f] = ref
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}
