// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"strings"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecexpr"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// opContext tags ctx with the name of the operator being executed, so that
// everything logged below it is attributed to the operator.
func opContext(ctx context.Context, op redact.SafeString) context.Context {
	return logtags.AddTag(ctx, "op", op)
}

// wrapOpError annotates an error produced by the operator itself. Errors of
// children are returned unchanged so the innermost failing operator is the
// one named in the message.
func wrapOpError(err error, op redact.SafeString) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "%s", op)
}

// evalColumns evaluates exprs one after another against t, broadcasting
// results of length one to the height of t.
func evalColumns(
	ec *execinfra.ExecutionContext, t *coldata.Table, exprs []colexecexpr.Expr,
) ([]*coldata.Vec, error) {
	res := make([]*coldata.Vec, len(exprs))
	for i, e := range exprs {
		v, err := e.Eval(ec, t)
		if err != nil {
			return nil, err
		}
		if res[i], err = colexecexpr.BroadcastTo(v, t.Height()); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func exprsString[E interface{ String() string }](exprs []E) string {
	strs := make([]string, len(exprs))
	for i, e := range exprs {
		strs[i] = e.String()
	}
	return "[" + strings.Join(strs, ", ") + "]"
}
