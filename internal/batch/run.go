package batch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// FileResult pairs a file path with whatever processFile returned for it.
type FileResult[T any] struct {
	Path  string
	Value T
	Err   error
}

// Run drives files through fn with at most workers concurrent calls (0 or
// negative means GOMAXPROCS), collecting one FileResult per file in input
// order. A single file's error does not stop the others; the caller
// inspects FileResult.Err per entry (one file's compile errors never
// affect another's).
func Run[T any](ctx context.Context, files []string, workers int, fn func(ctx context.Context, path string) (T, error)) []FileResult[T] {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]FileResult[T], len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			v, err := fn(gctx, f)
			results[i] = FileResult[T]{Path: f, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
