// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package colexec contains the operators of a query tree and the entry point
// that evaluates a tree.
package colexec

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/colquery/pkg/util/humanizeutil"
	"github.com/cockroachdb/colquery/pkg/util/log"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

var queryID atomic.Uint64

// Run evaluates the tree rooted at root and returns its table. Either a
// table or a single error is returned; a failing operator aborts the whole
// evaluation. Panics raised while executing the tree are returned as
// internal errors.
func Run(
	ctx context.Context, root colexecop.Operator, ec *execinfra.ExecutionContext,
) (res *coldata.Table, err error) {
	ctx = logtags.AddTag(ctx, "query", queryID.Add(1))
	start := time.Now()
	if panicErr := colexecerror.CatchVectorizedRuntimeError(func() {
		res, err = root.Execute(ctx, ec)
	}); panicErr != nil {
		res, err = nil, panicErr
	}
	if err != nil {
		log.VEventf(ctx, 1, "query failed with %s error: %v",
			redact.SafeString(colexecerror.Kind(err)), err)
		return nil, err
	}
	ec.Eventf(ctx, "query produced %s rows in %s",
		redact.SafeString(humanizeutil.Count(res.Height())),
		redact.SafeString(humanizeutil.Duration(time.Since(start))))
	return res, nil
}

// Explain renders the tree rooted at root, one operator per line, children
// indented below their parent.
func Explain(root colexecop.Operator) string {
	var b strings.Builder
	colexecop.Walk(root, func(op colexecop.Operator, depth int) {
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", depth), op)
	})
	return b.String()
}
