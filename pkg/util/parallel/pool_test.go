// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package parallel

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/util/leaktest"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, size int) *Pool {
	p, err := NewPool(size)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(time.Second) })
	return p
}

func TestPoolRun(t *testing.T) {
	defer leaktest.AfterTest(t)()
	p := newTestPool(t, 4)
	require.Equal(t, 4, p.Size())

	out := make([]int, 100)
	require.NoError(t, p.Run(context.Background(), len(out), func(_ context.Context, i int) error {
		out[i] = i * i
		return nil
	}))
	for i, v := range out {
		require.Equal(t, i*i, v)
	}
	require.NoError(t, p.Run(context.Background(), 0, nil))
}

func TestPoolRunError(t *testing.T) {
	defer leaktest.AfterTest(t)()
	p := newTestPool(t, 2)

	boom := errors.New("boom")
	err := p.Run(context.Background(), 8, func(_ context.Context, i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	require.True(t, errors.Is(err, boom))
}

func TestPoolRunPanic(t *testing.T) {
	defer leaktest.AfterTest(t)()
	p := newTestPool(t, 2)

	err := p.Run(context.Background(), 4, func(_ context.Context, i int) error {
		var s []int
		_ = s[i+10]
		return nil
	})
	require.Error(t, err)
	require.True(t, colexecerror.IsInternal(err))
}

// TestPoolNested checks that tasks which fan out again on a saturated pool
// complete instead of waiting for a free worker.
func TestPoolNested(t *testing.T) {
	defer leaktest.AfterTest(t)()
	p := newTestPool(t, 2)

	var total atomic.Int64
	require.NoError(t, p.Run(context.Background(), 4, func(ctx context.Context, _ int) error {
		return p.Run(ctx, 4, func(context.Context, int) error {
			total.Add(1)
			return nil
		})
	}))
	require.Equal(t, int64(16), total.Load())
}

func TestNilPoolRunsSequentially(t *testing.T) {
	defer leaktest.AfterTest(t)()
	var p *Pool
	require.Equal(t, 1, p.Size())
	var order []int
	require.NoError(t, p.Run(context.Background(), 3, func(_ context.Context, i int) error {
		order = append(order, i)
		return nil
	}))
	require.Equal(t, []int{0, 1, 2}, order)

	err := p.Run(context.Background(), 3, func(_ context.Context, i int) error {
		if i == 1 {
			panic(errors.New("boom"))
		}
		return nil
	})
	require.EqualError(t, err, "boom")
}
