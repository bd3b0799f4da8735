// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexecagg

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/util/leaktest"
	"github.com/cockroachdb/colquery/pkg/util/parallel"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestDistinct(t *testing.T) {
	defer leaktest.AfterTest(t)()
	pool, err := parallel.NewPool(3)
	require.NoError(t, err)
	defer func() { _ = pool.Close(time.Second) }()

	tab, err := coldata.NewTable(
		coldata.NewInt64Vec("a", []int64{1, 2, 1, 3, 2, 1}),
		coldata.NewBytesVec("b", []string{"x", "y", "x", "z", "w", "v"}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := Distinct(ctx, pool, tab, nil, true /* maintainOrder */)
	require.NoError(t, err)
	require.Equal(t, []string{"1 x", "2 y", "3 z", "2 w", "1 v"}, coldata.RowStrings(res))

	res, err = Distinct(ctx, pool, tab, []string{"a"}, true /* maintainOrder */)
	require.NoError(t, err)
	require.Equal(t, []string{"1 x", "2 y", "3 z"}, coldata.RowStrings(res))

	res, err = Distinct(ctx, pool, tab, []string{"a"}, false /* maintainOrder */)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"1 x", "2 y", "3 z"}, coldata.RowStrings(res))

	var nilPool *parallel.Pool
	res, err = Distinct(ctx, nilPool, tab, []string{"b"}, false /* maintainOrder */)
	require.NoError(t, err)
	require.Equal(t, []string{"1 x", "2 y", "3 z", "2 w", "1 v"}, coldata.RowStrings(res))

	_, err = Distinct(ctx, pool, tab, []string{"c"}, true /* maintainOrder */)
	require.True(t, errors.Is(err, colexecerror.ErrSchema), "%v", err)
}
