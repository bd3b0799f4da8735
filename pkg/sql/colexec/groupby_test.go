// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecagg"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecexpr"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/colquery/pkg/util/leaktest"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func aggs(specs ...string) []colexecexpr.AggExpr {
	res := make([]colexecexpr.AggExpr, len(specs))
	for i, s := range specs {
		fnName, col, _ := strings.Cut(s, ":")
		fn, err := colexecagg.ParseAggFn(fnName)
		if err != nil {
			panic(err)
		}
		res[i] = colexecexpr.Agg(fn, colexecexpr.Col(col)).As(s)
	}
	return res
}

func cols(names ...string) []colexecexpr.Expr {
	res := make([]colexecexpr.Expr, len(names))
	for i, n := range names {
		res[i] = colexecexpr.Col(n)
	}
	return res
}

func TestGroupBy(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ec := newTestContext(t, 4)
	tab := makeTable(t, "k:string,j:int,v:int", "a,1,1\nb,1,2\na,1,3\n,2,4\na,2,\nb,1,6")

	res := run(t, ec, NewGroupBy(source(tab), cols("k"), aggs("sum:v", "count:v", "max:j", "first:v")))
	require.Equal(t, []string{"k", "sum:v", "count:v", "max:j", "first:v"}, res.Names())
	require.Equal(t, []string{
		"a 4 2 2 1",
		"b 8 2 1 2",
		"NULL 4 1 2 4",
	}, coldata.RowStrings(res))
	require.Equal(t, 1.0, testutil.ToFloat64(ec.Metrics.GroupBySinglePass))

	res = run(t, ec, NewGroupBy(source(tab), cols("k", "j"), aggs("mean:v")))
	require.Equal(t, []string{"a 1 2", "b 1 4", "NULL 2 4", "a 2 NULL"}, coldata.RowStrings(res))
}

func TestGroupByApply(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ec := newTestContext(t, 4)
	tab := makeTable(t, "k:string,v:int", "a,1\nb,2\na,3\nc,4\nb,5")

	op := NewGroupBy(source(tab), cols("k"), nil)
	op.ApplyFn = func(g *coldata.Table) (*coldata.Table, error) {
		// Keep the last row of every group.
		return g.Slice(-1, 1), nil
	}
	res := run(t, ec, op)
	require.Equal(t, []string{"a 3", "b 5", "c 4"}, coldata.RowStrings(res))

	empty := NewGroupBy(source(tab.Head(0)), cols("k"), nil)
	empty.ApplyFn = op.ApplyFn
	res = run(t, ec, empty)
	require.Zero(t, res.Height())
	require.Equal(t, []string{"k", "v"}, res.Names())

	boom := errors.New("boom")
	op.ApplyFn = func(*coldata.Table) (*coldata.Table, error) { return nil, boom }
	_, err := Run(context.Background(), op, ec)
	require.True(t, errors.Is(err, boom))
}

// shortAgg returns one value fewer than there are groups.
type shortAgg struct {
	*colexecexpr.AggregateExpr
}

func (a shortAgg) Aggregate(
	ec *execinfra.ExecutionContext, t *coldata.Table, groups *colexecagg.Groups,
) (*coldata.Vec, error) {
	v, err := a.AggregateExpr.Aggregate(ec, t, groups)
	if err != nil {
		return nil, err
	}
	return v.Window(0, v.Len()-1), nil
}

func (a shortAgg) FinalAggregate(
	ec *execinfra.ExecutionContext, partials []*coldata.Vec, groups *colexecagg.Groups,
) (*coldata.Vec, error) {
	v, err := a.AggregateExpr.FinalAggregate(ec, partials, groups)
	if err != nil {
		return nil, err
	}
	return v.Window(0, v.Len()-1), nil
}

func TestGroupByAggregationLengthIsInternalError(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ec := newTestContext(t, 2)
	ec.Config.PartitionedGroupByThreshold = 1
	tab := makeTable(t, "k:int,v:int", "1,1\n2,2\n1,3")
	malformed := []colexecexpr.AggExpr{shortAgg{colexecexpr.Agg(colexecagg.Sum, colexecexpr.Col("v"))}}

	for _, op := range []colexecop.Operator{
		NewGroupBy(source(tab), cols("k"), malformed),
		NewPartitionedGroupBy(source(tab), cols("k"), malformed),
	} {
		t.Run(op.String(), func(t *testing.T) {
			_, err := Run(context.Background(), op, ec)
			require.True(t, colexecerror.IsInternal(err), "%v", err)
			require.Contains(t, err.Error(), "returned 1 values for 2 groups")
		})
	}
}

// randomGroupByTable returns a table with an int key, a categorical key with
// numKeys distinct values, and a few value columns with nulls.
func randomGroupByTable(t *testing.T, rng *rand.Rand, numRows, numKeys int) *coldata.Table {
	var b strings.Builder
	for i := 0; i < numRows; i++ {
		k := rng.Intn(numKeys)
		v := fmt.Sprint(rng.Intn(100) - 50)
		if rng.Intn(10) == 0 {
			v = ""
		}
		fmt.Fprintf(&b, "%d,c%d,%s,%d,s%d\n", k, k, v, rng.Intn(7), rng.Intn(5))
	}
	return makeTable(t, "k:int,c:cat,v:int,w:float,s:string", b.String())
}

func TestPartitionedGroupByEquivalence(t *testing.T) {
	defer leaktest.AfterTest(t)()
	rng := rand.New(rand.NewSource(42))
	specs := aggs("sum:v", "min:v", "max:w", "count:v", "mean:v", "mean:w", "first:v", "last:s", "min:s")

	for _, numWorkers := range []int{1, 3, 8} {
		for _, numKeys := range []int{1, 5, 400} {
			for _, key := range []string{"k", "c"} {
				name := fmt.Sprintf("workers=%d/keys=%d/%s", numWorkers, numKeys, key)
				t.Run(name, func(t *testing.T) {
					ec := newTestContext(t, numWorkers)
					// Always take the partitioned path.
					ec.Config.PartitionedGroupByThreshold = 1
					tab := randomGroupByTable(t, rng, 500, numKeys)

					expected := run(t, ec, NewGroupBy(source(tab), cols(key), specs))
					actual := run(t, ec, NewPartitionedGroupBy(source(tab), cols(key), specs))
					coldata.AssertEquivalentTables(t, expected, actual)
					// Groups of the merge keep the order of first appearance.
					coldata.AssertEqualTables(t, expected, actual)
					require.Equal(t, 1.0, testutil.ToFloat64(ec.Metrics.GroupByPartitioned))
				})
			}
		}
	}
}

func TestPartitionedGroupByMultipleKeys(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ec := newTestContext(t, 4)
	tab := randomGroupByTable(t, rand.New(rand.NewSource(7)), 300, 6)
	keys := []colexecexpr.Expr{colexecexpr.Col("k"), colexecexpr.Alias(colexecexpr.Col("s"), "s2")}
	specs := aggs("sum:v", "count:w")

	expected := run(t, ec, NewGroupBy(source(tab), keys, specs))
	actual := run(t, ec, NewPartitionedGroupBy(source(tab), keys, specs))
	coldata.AssertEquivalentTables(t, expected, actual)
}

func TestPartitionedGroupByFallback(t *testing.T) {
	defer leaktest.AfterTest(t)()
	specs := aggs("sum:v")

	for _, tc := range []struct {
		numKeys     int
		threshold   float64
		partitioned bool
	}{
		// 10 distinct values in 100 rows is a fraction of 0.1.
		{numKeys: 10, threshold: execinfra.DefaultPartitionedGroupByThreshold, partitioned: true},
		{numKeys: 10, threshold: 0.05, partitioned: false},
		{numKeys: 100, threshold: execinfra.DefaultPartitionedGroupByThreshold, partitioned: false},
	} {
		t.Run(fmt.Sprintf("keys=%d/threshold=%g", tc.numKeys, tc.threshold), func(t *testing.T) {
			ec := newTestContext(t, 4)
			ec.Config.PartitionedGroupByThreshold = tc.threshold
			var b strings.Builder
			for i := 0; i < 100; i++ {
				fmt.Fprintf(&b, "c%d,%d\n", i%tc.numKeys, i)
			}
			tab := makeTable(t, "c:cat,v:int", b.String())

			res := run(t, ec, NewPartitionedGroupBy(source(tab), cols("c"), specs))
			require.Equal(t, tc.numKeys, res.Height())
			partitioned, single := 0.0, 1.0
			if tc.partitioned {
				partitioned, single = 1, 0
			}
			require.Equal(t, partitioned, testutil.ToFloat64(ec.Metrics.GroupByPartitioned))
			require.Equal(t, single, testutil.ToFloat64(ec.Metrics.GroupBySinglePass))
		})
	}

	// Non-categorical keys are always partitioned, whatever their cardinality.
	ec := newTestContext(t, 4)
	ec.Config.PartitionedGroupByThreshold = 0
	tab := makeTable(t, "k:int,v:int", "1,1\n2,2\n3,3")
	run(t, ec, NewPartitionedGroupBy(source(tab), cols("k"), specs))
	require.Equal(t, 1.0, testutil.ToFloat64(ec.Metrics.GroupByPartitioned))
}

// TestPartitionedGroupByDropsUnmergeableAggregation documents that an
// aggregation that fails in a single pass, a sum of strings, is silently
// left out of the result of the partitioned strategy instead.
func TestPartitionedGroupByDropsUnmergeableAggregation(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ec := newTestContext(t, 2)
	ec.Config.PartitionedGroupByThreshold = 1
	tab := makeTable(t, "k:int,s:string,v:int", "1,x,1\n2,y,2\n1,z,3")
	specs := aggs("sum:s", "sum:v")

	_, err := Run(context.Background(), NewGroupBy(source(tab), cols("k"), specs), ec)
	require.True(t, errors.Is(err, colexecerror.ErrTypeMismatch), "%v", err)

	res := run(t, ec, NewPartitionedGroupBy(source(tab), cols("k"), specs))
	require.Equal(t, []string{"k", "sum:v"}, res.Names())
	require.Equal(t, []string{"1 4", "2 2"}, coldata.RowStrings(res))
}

func TestPartitionedGroupByEmptyInput(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ec := newTestContext(t, 4)
	tab := makeTable(t, "k:int,v:int", "")
	res := run(t, ec, NewPartitionedGroupBy(source(tab), cols("k"), aggs("sum:v", "mean:v")))
	require.Equal(t, []string{"k", "sum:v", "mean:v"}, res.Names())
	require.Equal(t, 0, res.Height())
}
