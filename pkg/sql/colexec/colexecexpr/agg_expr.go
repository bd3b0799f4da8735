// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexecexpr

import (
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecagg"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
)

// ErrIneligibleMerge is returned by AggExpr.FinalAggregate when the partial
// results of an aggregate cannot be merged.
var ErrIneligibleMerge = colexecagg.ErrIneligibleMerge

// AggExpr is an expression aggregating a column per group. Besides the
// direct form, it has a partition-local form whose results, concatenated
// across partitions and regrouped, are merged by the final form.
type AggExpr interface {
	fmt.Stringer
	// OutputName is the name of the aggregated column.
	OutputName() string
	// Aggregate returns one value per group of t.
	Aggregate(
		ec *execinfra.ExecutionContext, t *coldata.Table, groups *colexecagg.Groups,
	) (*coldata.Vec, error)
	// PartialAggregate returns the partition-local partial results, one value
	// per group of t each. No columns are returned when the aggregate has no
	// partial form for its input.
	PartialAggregate(
		ec *execinfra.ExecutionContext, t *coldata.Table, groups *colexecagg.Groups,
	) ([]*coldata.Vec, error)
	// FinalAggregate merges concatenated partial results regrouped by key.
	// It fails with ErrIneligibleMerge if the partials cannot be merged.
	FinalAggregate(
		ec *execinfra.ExecutionContext, partials []*coldata.Vec, groups *colexecagg.Groups,
	) (*coldata.Vec, error)
}

// AggregateExpr applies an aggregate function to the result of an
// expression.
type AggregateExpr struct {
	Fn    colexecagg.AggFn
	Input Expr
	name  string
}

var _ AggExpr = &AggregateExpr{}

// Agg returns an aggregate of input named after input.
func Agg(fn colexecagg.AggFn, input Expr) *AggregateExpr {
	return &AggregateExpr{Fn: fn, Input: input}
}

// As returns a copy of the aggregate with a different output name.
func (e *AggregateExpr) As(name string) *AggregateExpr {
	res := *e
	res.name = name
	return &res
}

// OutputName implements AggExpr.
func (e *AggregateExpr) OutputName() string {
	if e.name != "" {
		return e.name
	}
	return e.Input.OutputName()
}

func (e *AggregateExpr) String() string {
	s := fmt.Sprintf("%s.%s()", e.Input, e.Fn)
	if e.name != "" {
		s += fmt.Sprintf(".alias(%q)", e.name)
	}
	return s
}

func (e *AggregateExpr) input(ec *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Vec, error) {
	v, err := e.Input.Eval(ec, t)
	if err != nil {
		return nil, err
	}
	if v.Len() == 1 && t.Height() != 1 {
		return v.Broadcast(t.Height())
	}
	return v, nil
}

// Aggregate implements AggExpr.
func (e *AggregateExpr) Aggregate(
	ec *execinfra.ExecutionContext, t *coldata.Table, groups *colexecagg.Groups,
) (*coldata.Vec, error) {
	v, err := e.input(ec, t)
	if err != nil {
		return nil, err
	}
	res, err := colexecagg.Aggregate(e.Fn, v, groups)
	if err != nil {
		return nil, err
	}
	return res.Rename(e.OutputName()), nil
}

// PartialAggregate implements AggExpr.
func (e *AggregateExpr) PartialAggregate(
	ec *execinfra.ExecutionContext, t *coldata.Table, groups *colexecagg.Groups,
) ([]*coldata.Vec, error) {
	v, err := e.input(ec, t)
	if err != nil {
		return nil, err
	}
	return colexecagg.PartialAggregate(e.Fn, v, groups)
}

// FinalAggregate implements AggExpr.
func (e *AggregateExpr) FinalAggregate(
	_ *execinfra.ExecutionContext, partials []*coldata.Vec, groups *colexecagg.Groups,
) (*coldata.Vec, error) {
	res, err := colexecagg.FinalAggregate(e.Fn, partials, groups)
	if err != nil {
		return nil, err
	}
	return res.Rename(e.OutputName()), nil
}
