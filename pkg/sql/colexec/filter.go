// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecexpr"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/errors"
)

// Filter keeps the rows of its input for which Predicate is true.
type Filter struct {
	colexecop.OneInputNode
	Predicate colexecexpr.Expr
}

var _ colexecop.Operator = &Filter{}

// NewFilter returns a Filter operator.
func NewFilter(input colexecop.Operator, predicate colexecexpr.Expr) *Filter {
	return &Filter{OneInputNode: colexecop.NewOneInputNode(input), Predicate: predicate}
}

// Execute implements the colexecop.Operator interface.
func (f *Filter) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	t, err := f.Input.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	ctx = opContext(ctx, "filter")
	res, err := filterTable(ec, t, f.Predicate)
	if err != nil {
		return nil, wrapOpError(err, "filter")
	}
	ec.Eventf(ctx, "table filtered")
	return res, nil
}

func (f *Filter) String() string {
	return fmt.Sprintf("filter %s", f.Predicate)
}

func filterTable(
	ec *execinfra.ExecutionContext, t *coldata.Table, predicate colexecexpr.Expr,
) (*coldata.Table, error) {
	mask, err := predicate.Eval(ec, t)
	if err != nil {
		return nil, err
	}
	if mask.Type() != coltypes.Bool {
		return nil, errors.Mark(
			errors.Newf("filter predicate %s was not of type boolean, got %s", predicate, mask.Type()),
			colexecerror.ErrTypeMismatch,
		)
	}
	return t.Filter(mask)
}
