package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidConcurrency rejects a worker count below 1.
var ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

// submitWindow caps submitted-but-incomplete tasks at submitWindow*concurrency
// so a huge playlist doesn't queue everything up front.
const submitWindow = 2

// Worker performs the actual download for one item. Failures are reported
// through the Outcome, never by panicking out of the dispatcher.
type Worker func(ctx context.Context, item *VideoItem) Outcome

// Dispatch runs worker over items with at most concurrency goroutines active
// at once. Results come back in completion order, one per submitted item.
// When ctx is cancelled, in-flight work is allowed to finish and everything
// not yet started comes back with a cancelled outcome.
func Dispatch(ctx context.Context, items []*VideoItem, worker Worker, concurrency int) ([]ItemResult, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("dispatch: %w (got %d)", ErrInvalidConcurrency, concurrency)
	}

	// Buffer of concurrency plus the workers themselves keeps the in-flight
	// window at submitWindow*concurrency.
	tasks := make(chan *VideoItem, (submitWindow-1)*concurrency)
	results := make(chan ItemResult, len(items))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				select {
				case <-ctx.Done():
					// Queued but never started.
					results <- ItemResult{Item: item, Outcome: Outcome{
						Status:     StatusCancelled,
						FinishedAt: time.Now(),
					}}
					continue
				default:
				}
				results <- ItemResult{Item: item, Outcome: invoke(ctx, worker, item)}
			}
		}()
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
			results <- ItemResult{Item: item, Outcome: Outcome{
				Status:     StatusCancelled,
				FinishedAt: time.Now(),
			}}
		case tasks <- item:
		}
	}
	close(tasks)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]ItemResult, 0, len(items))
	for res := range results {
		out = append(out, res)
	}
	return out, nil
}

// invoke shields the dispatcher from a misbehaving worker: a panic becomes a
// failed outcome for that item only.
func invoke(ctx context.Context, worker Worker, item *VideoItem) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Status:     StatusFailed,
				Err:        fmt.Errorf("worker panic: %v", r),
				FinishedAt: time.Now(),
			}
		}
	}()

	out = worker(ctx, item)
	if out.FinishedAt.IsZero() {
		out.FinishedAt = time.Now()
	}
	if out.Status == "" {
		if out.Err != nil {
			out.Status = StatusFailed
		} else {
			out.Status = StatusSuccess
		}
	}
	return out
}
