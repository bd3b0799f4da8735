// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecagg"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecexpr"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/colquery/pkg/util/humanizeutil"
	"github.com/cockroachdb/redact"
)

// GroupBy groups the rows of its input by the values of Keys and computes
// Aggs for every group in a single pass. Groups are output in order of first
// appearance.
//
// If ApplyFn is set it is called with the rows of every group instead, and
// its results are concatenated in group order.
type GroupBy struct {
	colexecop.OneInputNode
	Keys    []colexecexpr.Expr
	Aggs    []colexecexpr.AggExpr
	ApplyFn colexecexpr.TableUDF
}

var _ colexecop.Operator = &GroupBy{}

// NewGroupBy returns a GroupBy operator.
func NewGroupBy(
	input colexecop.Operator, keys []colexecexpr.Expr, aggs []colexecexpr.AggExpr,
) *GroupBy {
	return &GroupBy{OneInputNode: colexecop.NewOneInputNode(input), Keys: keys, Aggs: aggs}
}

// Execute implements the colexecop.Operator interface.
func (g *GroupBy) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	t, err := g.Input.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	ctx = opContext(ctx, "groupby")
	defer ec.ClearExpressionCache()
	keys, err := evalGroupKeys(ec, t, g.Keys)
	if err != nil {
		return nil, wrapOpError(err, "groupby")
	}
	res, err := groupBySinglePass(ctx, ec, t, keys, g.Aggs, g.ApplyFn)
	return res, wrapOpError(err, "groupby")
}

func (g *GroupBy) String() string {
	if g.ApplyFn != nil {
		return fmt.Sprintf("groupby %s apply", exprsString(g.Keys))
	}
	return fmt.Sprintf("groupby %s agg %s", exprsString(g.Keys), exprsString(g.Aggs))
}

func evalGroupKeys(
	ec *execinfra.ExecutionContext, t *coldata.Table, exprs []colexecexpr.Expr,
) ([]*coldata.Vec, error) {
	keys, err := evalColumns(ec, t, exprs)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if k.Len() != t.Height() {
			return nil, colexecerror.NewInternalErrorf(
				"group key %q has length %d, expected %d", k.Name(), k.Len(), t.Height())
		}
	}
	return keys, nil
}

// groupBySinglePass groups t by keys and evaluates aggs concurrently, one
// task per aggregation.
func groupBySinglePass(
	ctx context.Context,
	ec *execinfra.ExecutionContext,
	t *coldata.Table,
	keys []*coldata.Vec,
	aggs []colexecexpr.AggExpr,
	applyFn colexecexpr.TableUDF,
) (*coldata.Table, error) {
	groups, err := colexecagg.GroupBy(keys)
	if err != nil {
		return nil, err
	}
	ec.Metrics.GroupBySinglePass.Inc()
	ec.Eventf(ctx, "grouped %s rows into %s groups",
		redact.SafeString(humanizeutil.Count(t.Height())),
		redact.SafeString(humanizeutil.Count(groups.Len())))
	if applyFn != nil {
		return applyGroups(ctx, ec, t, groups, applyFn)
	}

	aggCols := make([]*coldata.Vec, len(aggs))
	if err := ec.Pool.Run(ctx, len(aggs), func(_ context.Context, i int) error {
		v, err := aggs[i].Aggregate(ec.Fork(), t, groups)
		if err != nil {
			return err
		}
		if v.Len() != groups.Len() {
			return colexecerror.NewInternalErrorf(
				"aggregation %s returned %d values for %d groups", aggs[i], v.Len(), groups.Len())
		}
		aggCols[i] = v
		return nil
	}); err != nil {
		return nil, err
	}
	return coldata.NewTable(append(groups.Keys(keys), aggCols...)...)
}

// applyGroups calls fn with the rows of every group and concatenates the
// results in group order. Without groups fn is called once on the empty
// input so the result keeps its schema.
func applyGroups(
	ctx context.Context,
	ec *execinfra.ExecutionContext,
	t *coldata.Table,
	groups *colexecagg.Groups,
	fn colexecexpr.TableUDF,
) (*coldata.Table, error) {
	if groups.Len() == 0 {
		return fn(t.Head(0))
	}
	results := make([]*coldata.Table, groups.Len())
	if err := ec.Pool.Run(ctx, groups.Len(), func(_ context.Context, i int) error {
		rows := groups.Rows(i)
		idxs := make([]int, len(rows))
		for j, r := range rows {
			idxs[j] = int(r)
		}
		var err error
		results[i], err = fn(t.Gather(idxs))
		return err
	}); err != nil {
		return nil, err
	}
	return coldata.ConcatTables(results...)
}
