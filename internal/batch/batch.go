// Package batch applies a conversion function across a slice with a fixed
// worker pool. Results come back index-aligned with the inputs regardless of
// completion order, and each item's failure is isolated to its own slot.
package batch

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultWorkers bounds concurrency when Options.Workers is unset.
const DefaultWorkers = 4

// ErrTimeout tags items still unfinished when the per-call timeout fires.
var ErrTimeout = errors.New("batch: item timed out")

type Result[O any] struct {
	Value O
	Err   error
}

type Options struct {
	// Workers is the fixed pool size (default DefaultWorkers).
	Workers int
	// Timeout bounds the whole call; unfinished items are reported as
	// timeout errors at their index. Started work is not cancelled, its
	// late results are discarded. Zero means no timeout.
	Timeout time.Duration
	// OnProgress, if set, is called after each completion with
	// (completedCount, totalCount), in completion order.
	OnProgress func(done, total int)
}

// Map runs fn over every item and returns one result per input index.
// A panic inside fn becomes an error at that index without aborting
// sibling work.
func Map[I, O any](items []I, fn func(I) (O, error), opts Options) []Result[O] {
	total := len(items)
	results := make([]Result[O], total)
	if total == 0 {
		return results
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > total {
		workers = total
	}

	var (
		mu     sync.Mutex
		done   = make([]bool, total)
		nDone  int
		sealed bool
	)
	complete := func(i int, r Result[O]) {
		mu.Lock()
		if sealed || done[i] {
			mu.Unlock()
			return
		}
		results[i] = r
		done[i] = true
		nDone++
		n := nDone
		mu.Unlock()
		if opts.OnProgress != nil {
			opts.OnProgress(n, total)
		}
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				mu.Lock()
				s := sealed
				mu.Unlock()
				if s {
					continue // drain without starting new work
				}
				complete(i, runOne(items[i], fn))
			}
		}()
	}

	finished := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		close(finished)
	}()

	if opts.Timeout <= 0 {
		<-finished
		return results
	}

	select {
	case <-finished:
	case <-time.After(opts.Timeout):
		// Seal the result slice: anything not yet complete reports a
		// timeout, and stragglers that finish later are dropped.
		mu.Lock()
		sealed = true
		for i := range done {
			if !done[i] {
				results[i] = Result[O]{Err: ErrTimeout}
			}
		}
		mu.Unlock()
	}
	return results
}

func runOne[I, O any](item I, fn func(I) (O, error)) (r Result[O]) {
	defer func() {
		if p := recover(); p != nil {
			r = Result[O]{Err: fmt.Errorf("batch: conversion panicked: %v", p)}
		}
	}()
	v, err := fn(item)
	return Result[O]{Value: v, Err: err}
}
