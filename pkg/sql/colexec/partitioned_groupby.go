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
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// PartitionedGroupBy computes the same result as GroupBy without ApplyFn,
// choosing between two strategies once the keys are known.
//
// If the only key is categorical and the ratio of its distinct values to its
// length is above Config.PartitionedGroupByThreshold, the groups are too
// small for merging to pay off and a single pass is made. Otherwise the input
// is split into Config.NumWorkers contiguous partitions that are grouped and
// partially aggregated concurrently; the partial results are concatenated,
// grouped again and merged.
//
// An aggregation whose partial results cannot be merged, such as a sum of
// strings, is left out of the output of the partitioned strategy rather than
// failing the query.
type PartitionedGroupBy struct {
	colexecop.OneInputNode
	Keys []colexecexpr.Expr
	Aggs []colexecexpr.AggExpr
}

var _ colexecop.Operator = &PartitionedGroupBy{}

// NewPartitionedGroupBy returns a PartitionedGroupBy operator.
func NewPartitionedGroupBy(
	input colexecop.Operator, keys []colexecexpr.Expr, aggs []colexecexpr.AggExpr,
) *PartitionedGroupBy {
	return &PartitionedGroupBy{OneInputNode: colexecop.NewOneInputNode(input), Keys: keys, Aggs: aggs}
}

// Execute implements the colexecop.Operator interface.
func (p *PartitionedGroupBy) Execute(
	ctx context.Context, ec *execinfra.ExecutionContext,
) (*coldata.Table, error) {
	t, err := p.Input.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	ctx = opContext(ctx, "partitioned groupby")
	defer ec.ClearExpressionCache()
	keys, err := evalGroupKeys(ec, t, p.Keys)
	if err != nil {
		return nil, wrapOpError(err, "partitioned groupby")
	}
	if len(keys) == 1 && keys[0].Len() > 0 {
		if distinct, ok := keys[0].DistinctCount(); ok {
			frac := float64(distinct) / float64(keys[0].Len())
			if threshold := ec.Config.PartitionedGroupByThreshold; frac > threshold {
				ec.Eventf(ctx, "distinct fraction %.2f of key %q above %.2f, aggregating in a single pass",
					redact.Safe(frac), keys[0].Name(), redact.Safe(threshold))
				res, err := groupBySinglePass(ctx, ec, t, keys, p.Aggs, nil /* applyFn */)
				return res, wrapOpError(err, "partitioned groupby")
			}
		}
	}
	res, err := p.partitioned(ctx, ec, t)
	return res, wrapOpError(err, "partitioned groupby")
}

func (p *PartitionedGroupBy) partitioned(
	ctx context.Context, ec *execinfra.ExecutionContext, t *coldata.Table,
) (*coldata.Table, error) {
	parts := coldata.SplitTable(t, ec.Config.NumWorkers)
	partials := make([]*coldata.Table, len(parts))
	// numPartials[i] is the number of partial columns of p.Aggs[i]. It only
	// depends on the aggregation and the input type, so all partitions agree.
	numPartials := make([][]int, len(parts))
	if err := ec.Pool.Run(ctx, len(parts), func(_ context.Context, i int) error {
		var err error
		partials[i], numPartials[i], err = p.partialAggregate(ec.Fork(), parts[i])
		return err
	}); err != nil {
		return nil, err
	}
	for i := 1; i < len(numPartials); i++ {
		for j := range p.Aggs {
			if numPartials[i][j] != numPartials[0][j] {
				return nil, colexecerror.NewInternalErrorf(
					"aggregation %s returned %d partial columns in partition %d and %d in partition 0",
					p.Aggs[j], numPartials[i][j], i, numPartials[0][j])
			}
		}
	}
	merged, err := coldata.ConcatTables(partials...)
	if err != nil {
		return nil, err
	}

	cols := merged.ColVecs()
	keys := cols[:len(p.Keys)]
	groups, err := colexecagg.GroupBy(keys)
	if err != nil {
		return nil, err
	}
	out := groups.Keys(keys)
	offset := len(p.Keys)
	for j, agg := range p.Aggs {
		n := numPartials[0][j]
		v, err := agg.FinalAggregate(ec, cols[offset:offset+n], groups)
		offset += n
		if errors.Is(err, colexecexpr.ErrIneligibleMerge) {
			ec.Eventf(ctx, "dropping aggregation %s: %v", agg, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		if v.Len() != groups.Len() {
			return nil, colexecerror.NewInternalErrorf(
				"aggregation %s returned %d values for %d groups", agg, v.Len(), groups.Len())
		}
		out = append(out, v.Rename(agg.OutputName()))
	}
	ec.Metrics.GroupByPartitioned.Inc()
	ec.Eventf(ctx, "merged %d partitions into %d groups", len(parts), groups.Len())
	return coldata.NewTable(out...)
}

// partialAggregate groups one partition and computes the partial results of
// every aggregation. The key columns come first in the returned table.
func (p *PartitionedGroupBy) partialAggregate(
	ec *execinfra.ExecutionContext, part *coldata.Table,
) (_ *coldata.Table, numPartials []int, _ error) {
	keys, err := evalGroupKeys(ec, part, p.Keys)
	if err != nil {
		return nil, nil, err
	}
	groups, err := colexecagg.GroupBy(keys)
	if err != nil {
		return nil, nil, err
	}
	cols := groups.Keys(keys)
	numPartials = make([]int, len(p.Aggs))
	for j, agg := range p.Aggs {
		vs, err := agg.PartialAggregate(ec, part, groups)
		if err != nil {
			return nil, nil, err
		}
		for k, v := range vs {
			if v.Len() != groups.Len() {
				return nil, nil, colexecerror.NewInternalErrorf(
					"partial aggregation %s returned %d values for %d groups", agg, v.Len(), groups.Len())
			}
			// Partial columns get positional names so they cannot clash with
			// the keys or with each other.
			cols = append(cols, v.Rename(fmt.Sprintf("__partial_%d_%d", j, k)))
		}
		numPartials[j] = len(vs)
	}
	t, err := coldata.NewTable(cols...)
	return t, numPartials, err
}

func (p *PartitionedGroupBy) String() string {
	return fmt.Sprintf("partitioned groupby %s agg %s", exprsString(p.Keys), exprsString(p.Aggs))
}
