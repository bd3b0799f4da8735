// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexecexpr

import (
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecagg"
	"github.com/cockroachdb/errors"
)

// ScanAggregation is an aggregate over a whole column that a scan applies to
// the rows it reads, replacing them with a single row.
type ScanAggregation struct {
	Fn     colexecagg.AggFn
	Column string
	// Alias names the output column. Empty keeps the column name.
	Alias string
}

func (a ScanAggregation) String() string {
	s := fmt.Sprintf("%s(%s)", a.Fn, a.Column)
	if a.Alias != "" {
		s += " AS " + a.Alias
	}
	return s
}

func (a ScanAggregation) outputName() string {
	if a.Alias != "" {
		return a.Alias
	}
	return a.Column
}

// ApplyScanAggregations returns a one-row table with the result of every
// aggregation over t. Only Sum, Min, Max, First and Last can be pushed down
// to a scan.
func ApplyScanAggregations(t *coldata.Table, aggs []ScanAggregation) (*coldata.Table, error) {
	height := t.Height()
	if height == 0 {
		// The aggregate of no rows is the aggregate of a single null row.
		height = 1
		t = t.Gather([]int{-1})
	}
	// A single group holding every row.
	groups, err := colexecagg.GroupBy([]*coldata.Vec{coldata.NewInt64Vec("", make([]int64, height))})
	if err != nil {
		return nil, err
	}
	cols := make([]*coldata.Vec, len(aggs))
	for i, a := range aggs {
		switch a.Fn {
		case colexecagg.Sum, colexecagg.Min, colexecagg.Max, colexecagg.First, colexecagg.Last:
		default:
			return nil, errors.Newf("aggregate %s cannot be pushed down to a scan", a.Fn)
		}
		input, err := t.ColumnByName(a.Column)
		if err != nil {
			return nil, err
		}
		res, err := colexecagg.Aggregate(a.Fn, input, groups)
		if err != nil {
			return nil, err
		}
		cols[i] = res.Rename(a.outputName())
	}
	return coldata.NewTable(cols...)
}
