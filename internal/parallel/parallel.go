// Package parallel splits pure per-item evaluations across a bounded number of
// goroutines. Items are cut into contiguous chunks, one goroutine per chunk, and
// partial results are merged in chunk order so the outcome does not depend on
// the thread count.
package parallel

import (
	"cmp"
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// NotFound is the Position of an Extremum over an empty input.
const NotFound = -1

// Extremum is the position of the best item and the value it produced.
type Extremum[V any] struct {
	Position int
	Value    V
}

// Found reports whether the search saw at least one item.
func (e Extremum[V]) Found() bool {
	return e.Position != NotFound
}

// workerPanic carries a panic out of a worker goroutine.
type workerPanic struct {
	value any
}

// Map applies fn to every item and returns the results in item order.
// A threadCount of 0 uses GOMAXPROCS. The first error stops the remaining work
// and is returned; a panic in fn is re-raised on the calling goroutine.
func Map[T, R any](items []T, fn func(T) (R, error), threadCount int) ([]R, error) {
	results := make([]R, len(items))
	err := forEachChunk(len(items), threadCount, func(ctx context.Context, begin, end int) error {
		for i := begin; i < end; i++ {
			if ctx.Err() != nil {
				return nil
			}
			r, err := fn(items[i])
			if err != nil {
				return err
			}
			results[i] = r
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ExtremeElementBy finds the item whose value is best according to better,
// which must be a strict comparison. Among equal values the first item wins.
// An empty input yields an Extremum with Position NotFound.
func ExtremeElementBy[T, V any](items []T, value func(T) (V, error), better func(a, b V) bool, threadCount int) (Extremum[V], error) {
	chunks := chunkCount(len(items), threadCount)
	partial := make([]Extremum[V], chunks)
	for i := range partial {
		partial[i].Position = NotFound
	}

	size := chunkSize(len(items), chunks)
	err := forEachChunk(len(items), threadCount, func(ctx context.Context, begin, end int) error {
		best := &partial[begin/size]
		for i := begin; i < end; i++ {
			if ctx.Err() != nil {
				return nil
			}
			v, err := value(items[i])
			if err != nil {
				return err
			}
			if best.Position == NotFound || better(v, best.Value) {
				best.Position = i
				best.Value = v
			}
		}
		return nil
	})
	if err != nil {
		return Extremum[V]{Position: NotFound}, err
	}

	result := Extremum[V]{Position: NotFound}
	for _, p := range partial {
		if !p.Found() {
			continue
		}
		if !result.Found() || better(p.Value, result.Value) {
			result = p
		}
	}
	return result, nil
}

// MaxElementBy finds the first item with the largest value.
func MaxElementBy[T any, V cmp.Ordered](items []T, value func(T) (V, error), threadCount int) (Extremum[V], error) {
	return ExtremeElementBy(items, value, func(a, b V) bool { return a > b }, threadCount)
}

// MinElementBy finds the first item with the smallest value.
func MinElementBy[T any, V cmp.Ordered](items []T, value func(T) (V, error), threadCount int) (Extremum[V], error) {
	return ExtremeElementBy(items, value, func(a, b V) bool { return a < b }, threadCount)
}

// forEachChunk runs work over contiguous chunks of [0, n). A single chunk runs
// on the calling goroutine.
func forEachChunk(n, threadCount int, work func(ctx context.Context, begin, end int) error) error {
	if n == 0 {
		return nil
	}
	chunks := chunkCount(n, threadCount)
	size := chunkSize(n, chunks)
	if chunks == 1 {
		return work(context.Background(), 0, n)
	}

	panics := make([]*workerPanic, chunks)
	g, ctx := errgroup.WithContext(context.Background())
	for c := 0; c < chunks; c++ {
		begin := c * size
		end := min(begin+size, n)
		if begin >= end {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					panics[c] = &workerPanic{value: r}
					err = fmt.Errorf("parallel: worker panicked: %v", r)
				}
			}()
			return work(ctx, begin, end)
		})
	}
	err := g.Wait()

	for _, p := range panics {
		if p != nil {
			panic(p.value)
		}
	}
	return err
}

func chunkCount(n, threadCount int) int {
	if threadCount <= 0 {
		threadCount = runtime.GOMAXPROCS(0)
	}
	if n < threadCount {
		threadCount = n
	}
	return max(threadCount, 1)
}

func chunkSize(n, chunks int) int {
	return max((n+chunks-1)/chunks, 1)
}
