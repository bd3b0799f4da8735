// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexecexpr

import (
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/errors"
)

// ArithOp is a binary arithmetic operator.
type ArithOp byte

// Arithmetic operators.
const (
	Plus  ArithOp = '+'
	Minus ArithOp = '-'
	Mult  ArithOp = '*'
	Div   ArithOp = '/'
)

func (op ArithOp) String() string {
	return string(op)
}

type arithExpr struct {
	op   ArithOp
	l, r Expr
}

// Arith applies op row by row. Integer operands produce integers except for
// division, which always produces floats. The result is null where either
// side is null.
func Arith(op ArithOp, l, r Expr) Expr {
	return &arithExpr{op: op, l: l, r: r}
}

func (e *arithExpr) Eval(ec *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Vec, error) {
	l, r, err := evalPair(ec, t, e.l, e.r)
	if err != nil {
		return nil, err
	}
	if !l.Type().IsNumeric() || !r.Type().IsNumeric() {
		return nil, errors.Mark(
			errors.Newf("cannot apply %s to %s and %s in %s", e.op, l.Type(), r.Type(), e),
			colexecerror.ErrTypeMismatch,
		)
	}
	switch e.op {
	case Plus, Minus, Mult, Div:
	default:
		return nil, errors.AssertionFailedf("unknown arithmetic operator %q", byte(e.op))
	}
	nulls := nullsOf(l, r)
	if l.Type() == coltypes.Int64 && r.Type() == coltypes.Int64 && e.op != Div {
		a, b := l.Int64(), r.Int64()
		out := make([]int64, len(a))
		for i := range out {
			switch e.op {
			case Plus:
				out[i] = a[i] + b[i]
			case Minus:
				out[i] = a[i] - b[i]
			case Mult:
				out[i] = a[i] * b[i]
			}
		}
		return coldata.NewInt64Vec(e.OutputName(), out).WithNulls(nulls...), nil
	}
	out := make([]float64, l.Len())
	for i := range out {
		a, b := floatAt(l, i), floatAt(r, i)
		switch e.op {
		case Plus:
			out[i] = a + b
		case Minus:
			out[i] = a - b
		case Mult:
			out[i] = a * b
		case Div:
			out[i] = a / b
		}
	}
	return coldata.NewFloat64Vec(e.OutputName(), out).WithNulls(nulls...), nil
}

func (e *arithExpr) String() string     { return fmt.Sprintf("(%s %s %s)", e.l, e.op, e.r) }
func (e *arithExpr) OutputName() string { return e.l.OutputName() }
