// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexecexpr

import (
	"cmp"
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/errors"
)

// CmpOp is a comparison operator.
type CmpOp int

// Comparison operators.
const (
	EQ CmpOp = iota
	NE
	LT
	LE
	GT
	GE
)

var cmpOpSymbols = [...]string{EQ: "=", NE: "!=", LT: "<", LE: "<=", GT: ">", GE: ">="}

func (op CmpOp) String() string {
	return cmpOpSymbols[op]
}

// ParseCmpOp parses a comparison symbol as returned by String. "==" is
// accepted for EQ.
func ParseCmpOp(s string) (CmpOp, error) {
	if s == "==" {
		return EQ, nil
	}
	for op, sym := range cmpOpSymbols {
		if sym == s {
			return CmpOp(op), nil
		}
	}
	return 0, errors.Newf("unknown comparison operator %q", s)
}

func (op CmpOp) holds(c int) bool {
	switch op {
	case EQ:
		return c == 0
	case NE:
		return c != 0
	case LT:
		return c < 0
	case LE:
		return c <= 0
	case GT:
		return c > 0
	default:
		return c >= 0
	}
}

type cmpExpr struct {
	op   CmpOp
	l, r Expr
}

// Cmp compares the results of l and r row by row. Numbers compare with
// numbers and strings with strings, categoricals included. The result is
// null where either side is null.
func Cmp(op CmpOp, l, r Expr) Expr {
	return &cmpExpr{op: op, l: l, r: r}
}

func (e *cmpExpr) Eval(ec *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Vec, error) {
	l, r, err := evalPair(ec, t, e.l, e.r)
	if err != nil {
		return nil, err
	}
	var compare func(i int) int
	lt, rt := l.Type(), r.Type()
	switch {
	case lt == coltypes.Int64 && rt == coltypes.Int64:
		a, b := l.Int64(), r.Int64()
		compare = func(i int) int { return cmp.Compare(a[i], b[i]) }
	case lt.IsNumeric() && rt.IsNumeric():
		compare = func(i int) int { return cmp.Compare(floatAt(l, i), floatAt(r, i)) }
	case lt.IsStringLike() && rt.IsStringLike():
		compare = func(i int) int { return cmp.Compare(stringAt(l, i), stringAt(r, i)) }
	case lt == coltypes.Bool && rt == coltypes.Bool:
		a, b := l.Bool(), r.Bool()
		compare = func(i int) int { return boolCmp(a[i], b[i]) }
	default:
		return nil, errors.Mark(
			errors.Newf("cannot compare %s with %s in %s", lt, rt, e),
			colexecerror.ErrTypeMismatch,
		)
	}
	out := make([]bool, l.Len())
	nulls := nullsOf(l, r)
	for i := range out {
		out[i] = e.op.holds(compare(i))
	}
	return coldata.NewBoolVec(e.OutputName(), out).WithNulls(nulls...), nil
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func (e *cmpExpr) String() string     { return fmt.Sprintf("(%s %s %s)", e.l, e.op, e.r) }
func (e *cmpExpr) OutputName() string { return e.l.OutputName() }

func evalPair(
	ec *execinfra.ExecutionContext, t *coldata.Table, le, re Expr,
) (*coldata.Vec, *coldata.Vec, error) {
	l, err := le.Eval(ec, t)
	if err != nil {
		return nil, nil, err
	}
	r, err := re.Eval(ec, t)
	if err != nil {
		return nil, nil, err
	}
	return align(l, r)
}

func requireBool(v *coldata.Vec, e Expr) error {
	if v.Type() != coltypes.Bool {
		return errors.Mark(
			errors.Newf("%s expects boolean input, got %s", e, v.Type()),
			colexecerror.ErrTypeMismatch,
		)
	}
	return nil
}

type logicExpr struct {
	and  bool
	l, r Expr
}

// And is the three-valued conjunction of l and r: false if either side is
// false, null if either side is null, true otherwise.
func And(l, r Expr) Expr {
	return &logicExpr{and: true, l: l, r: r}
}

// Or is the three-valued disjunction of l and r: true if either side is
// true, null if either side is null, false otherwise.
func Or(l, r Expr) Expr {
	return &logicExpr{and: false, l: l, r: r}
}

func (e *logicExpr) Eval(ec *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Vec, error) {
	l, r, err := evalPair(ec, t, e.l, e.r)
	if err != nil {
		return nil, err
	}
	if err := requireBool(l, e); err != nil {
		return nil, err
	}
	if err := requireBool(r, e); err != nil {
		return nil, err
	}
	a, b := l.Bool(), r.Bool()
	out := make([]bool, len(a))
	var nulls []int
	for i := range out {
		aNull, bNull := l.NullAt(i), r.NullAt(i)
		// The dominant value decides regardless of nulls.
		dominant := !e.and
		if (!aNull && a[i] == dominant) || (!bNull && b[i] == dominant) {
			out[i] = dominant
			continue
		}
		if aNull || bNull {
			nulls = append(nulls, i)
			continue
		}
		out[i] = !dominant
	}
	return coldata.NewBoolVec(e.OutputName(), out).WithNulls(nulls...), nil
}

func (e *logicExpr) String() string {
	op := "|"
	if e.and {
		op = "&"
	}
	return fmt.Sprintf("(%s %s %s)", e.l, op, e.r)
}

func (e *logicExpr) OutputName() string { return e.l.OutputName() }

type notExpr struct {
	input Expr
}

// Not negates a boolean expression. Nulls stay null.
func Not(input Expr) Expr {
	return &notExpr{input: input}
}

func (e *notExpr) Eval(ec *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Vec, error) {
	v, err := e.input.Eval(ec, t)
	if err != nil {
		return nil, err
	}
	if err := requireBool(v, e); err != nil {
		return nil, err
	}
	in := v.Bool()
	out := make([]bool, len(in))
	for i, b := range in {
		out[i] = !b
	}
	return coldata.NewBoolVec(e.OutputName(), out).WithNulls(nullsOf(v, nil)...), nil
}

func (e *notExpr) String() string     { return fmt.Sprintf("not(%s)", e.input) }
func (e *notExpr) OutputName() string { return e.input.OutputName() }

type isNullExpr struct {
	input Expr
}

// IsNull returns whether each value of input is null.
func IsNull(input Expr) Expr {
	return &isNullExpr{input: input}
}

func (e *isNullExpr) Eval(ec *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Vec, error) {
	v, err := e.input.Eval(ec, t)
	if err != nil {
		return nil, err
	}
	out := make([]bool, v.Len())
	for i := range out {
		out[i] = v.NullAt(i)
	}
	return coldata.NewBoolVec(e.OutputName(), out), nil
}

func (e *isNullExpr) String() string     { return fmt.Sprintf("is_null(%s)", e.input) }
func (e *isNullExpr) OutputName() string { return e.input.OutputName() }
