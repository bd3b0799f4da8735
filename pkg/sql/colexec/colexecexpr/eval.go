// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexecexpr

import (
	"context"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
)

// TableUDF is an opaque table transformation supplied by the user.
type TableUDF func(*coldata.Table) (*coldata.Table, error)

// EvalAll evaluates exprs against t, one pool task per expression, and
// returns the results in order. Every task gets its own fork of ec.
func EvalAll(
	ctx context.Context, ec *execinfra.ExecutionContext, t *coldata.Table, exprs []Expr,
) ([]*coldata.Vec, error) {
	res := make([]*coldata.Vec, len(exprs))
	if err := ec.Pool.Run(ctx, len(exprs), func(_ context.Context, i int) error {
		v, err := exprs[i].Eval(ec.Fork(), t)
		res[i] = v
		return err
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// BroadcastTo returns v expanded to n rows if it has length one. Any other
// length is returned unchanged.
func BroadcastTo(v *coldata.Vec, n int) (*coldata.Vec, error) {
	if v.Len() == 1 && n != 1 {
		return v.Broadcast(n)
	}
	return v, nil
}
