package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
)

const defaultLookupTimeout = 10 * time.Second

// lookupRunner bounds every storage call of the sprint engine with a timeout and records its latency.
type lookupRunner struct {
	timeout time.Duration
	metrics *MetricsService
}

func newLookupRunner(timeout time.Duration, metrics *MetricsService) lookupRunner {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return lookupRunner{timeout: timeout, metrics: metrics}
}

// lookup runs fn under the runner's timeout. Deadline expiry surfaces as TIMEOUT, other storage
// failures as STORAGE_ERROR; typed application errors pass through unchanged.
func lookup[T any](ctx context.Context, r lookupRunner, label string, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := fn(callCtx)
	r.metrics.ObserveDBQuery(label, time.Since(start))
	if err == nil {
		return result, nil
	}

	var zero T
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return zero, err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		r.metrics.RecordLookupTimeout(label)
		return zero, appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status,
			fmt.Sprintf("%s timed out after %s", label, r.timeout))
	default:
		return zero, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, fmt.Sprintf("%s failed", label))
	}
}

// lookupExec is lookup for calls that only return an error.
func lookupExec(ctx context.Context, r lookupRunner, label string, fn func(context.Context) error) error {
	_, err := lookup(ctx, r, label, func(c context.Context) (struct{}, error) {
		return struct{}{}, fn(c)
	})
	return err
}

// fanOut applies fn to every item with at most limit calls in flight. Results keep the input order.
func fanOut[T, R any](ctx context.Context, limit int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			res, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// chunkStrings splits ids into batches of at most size elements.
func chunkStrings(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
