// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package parallel provides the shared worker pool on which the execution
// engine fans out per-thread work.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/util/log"
	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
)

// inlineLog rate-limits the message about tasks run by their submitter.
var inlineLog = log.Every(time.Minute)

// Pool is a fixed-size pool of goroutines. A task submitted while every
// worker is busy runs on the submitting goroutine instead of waiting, so
// nested fan-outs (a join inside a partitioned aggregation, for example)
// never deadlock on pool capacity.
type Pool struct {
	p *ants.Pool
}

// NewPool returns a pool with size workers. A non-positive size uses
// GOMAXPROCS.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	p, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(v any) {
			// Tasks recover their own panics; reaching this is a bug.
			log.Errorf(context.Background(), "unexpected panic in worker pool: %v", v)
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating worker pool")
	}
	return &Pool{p: p}, nil
}

// Size returns the number of workers, or 1 for a nil Pool.
func (p *Pool) Size() int {
	if p == nil {
		return 1
	}
	return p.p.Cap()
}

// Run calls fn(ctx, i) for every i in [0, n) concurrently and waits for all
// of them. It returns the first error encountered; the context passed to the
// remaining tasks is canceled once an error occurs. Panics in fn are
// converted into errors. A nil Pool runs the tasks sequentially on the
// calling goroutine.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	if p == nil {
		for i := 0; i < n; i++ {
			var err error
			if panicErr := colexecerror.CatchVectorizedRuntimeError(func() {
				err = fn(ctx, i)
			}); panicErr != nil {
				err = panicErr
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	setErr := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}
	task := func(i int) func() {
		return func() {
			defer wg.Done()
			if ctx.Err() != nil {
				setErr(ctx.Err())
				return
			}
			var err error
			if panicErr := colexecerror.CatchVectorizedRuntimeError(func() {
				err = fn(ctx, i)
			}); panicErr != nil {
				err = panicErr
			}
			if err != nil {
				setErr(err)
			}
		}
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		t := task(i)
		if i == n-1 {
			// The submitter would otherwise sit idle in Wait.
			t()
			break
		}
		if err := p.p.Submit(t); err != nil {
			if !errors.Is(err, ants.ErrPoolOverload) {
				wg.Done()
				setErr(errors.Wrap(err, "submitting task"))
				break
			}
			if inlineLog.ShouldLog() {
				log.VEventf(ctx, 1, "worker pool saturated, running task %d of %d inline", i, n)
			}
			t()
		}
	}
	wg.Wait()
	return firstErr
}

// Close releases the workers, waiting up to timeout for running tasks.
func (p *Pool) Close(timeout time.Duration) error {
	return p.p.ReleaseTimeout(timeout)
}
