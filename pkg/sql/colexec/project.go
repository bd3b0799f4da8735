// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecexpr"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
)

// Standard evaluates a list of expressions against its input and returns the
// resulting columns as a new table.
type Standard struct {
	colexecop.OneInputNode
	// Operation names what the projection is planned for, e.g. "select".
	Operation string
	Exprs     []colexecexpr.Expr
}

var _ colexecop.Operator = &Standard{}

// NewStandard returns a Standard operator.
func NewStandard(input colexecop.Operator, operation string, exprs []colexecexpr.Expr) *Standard {
	return &Standard{OneInputNode: colexecop.NewOneInputNode(input), Operation: operation, Exprs: exprs}
}

// Execute implements the colexecop.Operator interface.
func (s *Standard) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	t, err := s.Input.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	ctx = opContext(ctx, "project")
	defer ec.ClearExpressionCache()
	res, err := evaluateProjection(ctx, ec, t, s.Exprs)
	return res, wrapOpError(err, "project")
}

func (s *Standard) String() string {
	return fmt.Sprintf("%s %s", s.Operation, exprsString(s.Exprs))
}

// evaluateProjection evaluates exprs concurrently. If the results differ in
// length, those of length one are broadcast to the height of t; any other
// difference is an internal error.
func evaluateProjection(
	ctx context.Context, ec *execinfra.ExecutionContext, t *coldata.Table, exprs []colexecexpr.Expr,
) (*coldata.Table, error) {
	cols, err := colexecexpr.EvalAll(ctx, ec, t, exprs)
	if err != nil {
		return nil, err
	}
	if !equalLengths(cols) {
		for i, c := range cols {
			if c.Len() == 1 && t.Height() > 1 {
				if cols[i], err = c.Broadcast(t.Height()); err != nil {
					return nil, err
				}
			}
		}
		if !equalLengths(cols) {
			lengths := make([]int, len(cols))
			for i, c := range cols {
				lengths[i] = c.Len()
			}
			return nil, colexecerror.NewInternalErrorf(
				"projection %s produced columns of lengths %v for a table of height %d",
				exprsString(exprs), lengths, t.Height())
		}
	}
	return coldata.NewTable(cols...)
}

func equalLengths(cols []*coldata.Vec) bool {
	for _, c := range cols {
		if c.Len() != cols[0].Len() {
			return false
		}
	}
	return true
}

// Stack adds the results of a list of expressions to its input. Expressions
// are evaluated left to right, each against the table produced by the
// previous ones, and replace the column of the same name if there is one.
type Stack struct {
	colexecop.OneInputNode
	Exprs []colexecexpr.Expr
}

var _ colexecop.Operator = &Stack{}

// NewStack returns a Stack operator.
func NewStack(input colexecop.Operator, exprs []colexecexpr.Expr) *Stack {
	return &Stack{OneInputNode: colexecop.NewOneInputNode(input), Exprs: exprs}
}

// Execute implements the colexecop.Operator interface.
func (s *Stack) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	t, err := s.Input.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	ctx = opContext(ctx, "with columns")
	defer ec.ClearExpressionCache()
	for _, e := range s.Exprs {
		v, err := e.Eval(ec, t)
		if err != nil {
			return nil, wrapOpError(err, "with columns")
		}
		if v, err = colexecexpr.BroadcastTo(v, t.Height()); err != nil {
			return nil, wrapOpError(err, "with columns")
		}
		if t, err = t.ReplaceOrAppend(v); err != nil {
			return nil, wrapOpError(err, "with columns")
		}
	}
	ec.Eventf(ctx, "added %d columns", len(s.Exprs))
	return t, nil
}

func (s *Stack) String() string {
	return fmt.Sprintf("with columns %s", exprsString(s.Exprs))
}
