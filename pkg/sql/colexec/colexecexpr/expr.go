// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package colexecexpr contains the column expressions evaluated by the
// operators: column references, literals, comparisons, boolean logic,
// arithmetic, casts and aggregates.
package colexecexpr

import (
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/errors"
)

// Expr is an expression producing a column from a table. A result of length
// one is a scalar that the caller broadcasts to the height of the table.
type Expr interface {
	fmt.Stringer
	// Eval evaluates the expression against t.
	Eval(ec *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Vec, error)
	// OutputName is the name of the produced column.
	OutputName() string
}

type colExpr struct {
	name string
}

// Col references the column with the given name.
func Col(name string) Expr {
	return &colExpr{name: name}
}

func (e *colExpr) Eval(_ *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Vec, error) {
	return t.ColumnByName(e.name)
}

func (e *colExpr) String() string     { return fmt.Sprintf("col(%q)", e.name) }
func (e *colExpr) OutputName() string { return e.name }

// LiteralName is the output name of literals.
const LiteralName = "literal"

type litExpr struct {
	v *coldata.Vec
}

// Lit returns a constant. val may be a bool, any Go integer type, a float64
// or a string; nil produces a null Int64.
func Lit(val interface{}) Expr {
	var v *coldata.Vec
	switch t := val.(type) {
	case nil:
		v = coldata.NewInt64Vec(LiteralName, []int64{0}).WithNulls(0)
	case bool:
		v = coldata.NewBoolVec(LiteralName, []bool{t})
	case int:
		v = coldata.NewInt64Vec(LiteralName, []int64{int64(t)})
	case int32:
		v = coldata.NewInt64Vec(LiteralName, []int64{int64(t)})
	case int64:
		v = coldata.NewInt64Vec(LiteralName, []int64{t})
	case float64:
		v = coldata.NewFloat64Vec(LiteralName, []float64{t})
	case string:
		v = coldata.NewBytesVec(LiteralName, []string{t})
	default:
		panic(errors.AssertionFailedf("unsupported literal %T", val))
	}
	return &litExpr{v: v}
}

func (e *litExpr) Eval(*execinfra.ExecutionContext, *coldata.Table) (*coldata.Vec, error) {
	return e.v, nil
}

func (e *litExpr) String() string {
	if s, ok := e.v.Get(0).(string); ok {
		return fmt.Sprintf("lit(%q)", s)
	}
	return fmt.Sprintf("lit(%s)", e.v.PrettyValueAt(0))
}

func (e *litExpr) OutputName() string { return LiteralName }

type aliasExpr struct {
	input Expr
	name  string
}

// Alias renames the result of input.
func Alias(input Expr, name string) Expr {
	return &aliasExpr{input: input, name: name}
}

func (e *aliasExpr) Eval(ec *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Vec, error) {
	v, err := e.input.Eval(ec, t)
	if err != nil {
		return nil, err
	}
	return v.Rename(e.name), nil
}

func (e *aliasExpr) String() string     { return fmt.Sprintf("%s.alias(%q)", e.input, e.name) }
func (e *aliasExpr) OutputName() string { return e.name }

type castExpr struct {
	input Expr
	typ   coltypes.T
}

// Cast converts the result of input to typ.
func Cast(input Expr, typ coltypes.T) Expr {
	return &castExpr{input: input, typ: typ}
}

func (e *castExpr) Eval(ec *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Vec, error) {
	v, err := e.input.Eval(ec, t)
	if err != nil {
		return nil, err
	}
	return v.Cast(e.typ)
}

func (e *castExpr) String() string     { return fmt.Sprintf("%s.cast(%s)", e.input, e.typ) }
func (e *castExpr) OutputName() string { return e.input.OutputName() }

type cachedExpr struct {
	input Expr
}

// Cached memoizes the result of input in the expression cache of the
// execution context until the operator evaluating it clears the cache.
// Results are keyed by the expression and the ID of the table it was
// evaluated on.
func Cached(input Expr) Expr {
	return &cachedExpr{input: input}
}

func (e *cachedExpr) Eval(ec *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Vec, error) {
	key := fmt.Sprintf("%s@%d", e.input, t.ID())
	if v, ok := ec.ExprCacheGet(key); ok {
		return v, nil
	}
	v, err := e.input.Eval(ec, t)
	if err != nil {
		return nil, err
	}
	ec.ExprCachePut(key, v)
	return v, nil
}

func (e *cachedExpr) String() string     { return fmt.Sprintf("cache(%s)", e.input) }
func (e *cachedExpr) OutputName() string { return e.input.OutputName() }

// align broadcasts a length-one column to the length of the other.
func align(l, r *coldata.Vec) (*coldata.Vec, *coldata.Vec, error) {
	var err error
	switch {
	case l.Len() == r.Len():
	case l.Len() == 1:
		l, err = l.Broadcast(r.Len())
	case r.Len() == 1:
		r, err = r.Broadcast(l.Len())
	default:
		err = errors.Mark(
			errors.Newf("cannot combine column %q of length %d with column %q of length %d",
				l.Name(), l.Len(), r.Name(), r.Len()),
			colexecerror.ErrSchema,
		)
	}
	return l, r, err
}

func stringAt(v *coldata.Vec, i int) string {
	if v.Type() == coltypes.Categorical {
		cats := v.Categories()
		return cats.Dict.Value(cats.Codes[i])
	}
	return v.Bytes()[i]
}

func floatAt(v *coldata.Vec, i int) float64 {
	if v.Type() == coltypes.Int64 {
		return float64(v.Int64()[i])
	}
	return v.Float64()[i]
}

// nullsOf returns the rows where l or r is null.
func nullsOf(l, r *coldata.Vec) []int {
	if !l.MaybeHasNulls() && (r == nil || !r.MaybeHasNulls()) {
		return nil
	}
	var res []int
	for i := 0; i < l.Len(); i++ {
		if l.NullAt(i) || (r != nil && r.NullAt(i)) {
			res = append(res, i)
		}
	}
	return res
}
