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
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/redact"
)

// tableOp applies a single-table transformation to the table of its input.
type tableOp struct {
	colexecop.OneInputNode
	name redact.SafeString
	fn   func(*coldata.Table) (*coldata.Table, error)
}

func (o *tableOp) execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	t, err := o.Input.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	res, err := o.fn(t)
	return res, wrapOpError(err, o.name)
}

// Explode flattens the list columns Columns, repeating the other values of a
// row once per element.
type Explode struct {
	tableOp
	Columns []string
}

var _ colexecop.Operator = &Explode{}

// NewExplode returns an Explode operator.
func NewExplode(input colexecop.Operator, columns ...string) *Explode {
	e := &Explode{Columns: columns}
	e.tableOp = tableOp{OneInputNode: colexecop.NewOneInputNode(input), name: "explode", fn: func(t *coldata.Table) (*coldata.Table, error) {
		return t.Explode(e.Columns...)
	}}
	return e
}

// Execute implements the colexecop.Operator interface.
func (e *Explode) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	return e.execute(ctx, ec)
}

func (e *Explode) String() string { return fmt.Sprintf("explode %v", e.Columns) }

// Sort orders its input by a single column. Nulls sort first.
type Sort struct {
	tableOp
	By      string
	Reverse bool
}

var _ colexecop.Operator = &Sort{}

// NewSort returns a Sort operator.
func NewSort(input colexecop.Operator, by string, reverse bool) *Sort {
	s := &Sort{By: by, Reverse: reverse}
	s.tableOp = tableOp{OneInputNode: colexecop.NewOneInputNode(input), name: "sort", fn: func(t *coldata.Table) (*coldata.Table, error) {
		return t.Sort(s.By, s.Reverse)
	}}
	return s
}

// Execute implements the colexecop.Operator interface.
func (s *Sort) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	return s.execute(ctx, ec)
}

func (s *Sort) String() string {
	if s.Reverse {
		return fmt.Sprintf("sort %s desc", s.By)
	}
	return fmt.Sprintf("sort %s", s.By)
}

// Slice keeps Len rows starting at Offset. A negative offset counts from the
// end of the table.
type Slice struct {
	tableOp
	Offset int64
	Len    int
}

var _ colexecop.Operator = &Slice{}

// NewSlice returns a Slice operator.
func NewSlice(input colexecop.Operator, offset int64, length int) *Slice {
	s := &Slice{Offset: offset, Len: length}
	s.tableOp = tableOp{OneInputNode: colexecop.NewOneInputNode(input), name: "slice", fn: func(t *coldata.Table) (*coldata.Table, error) {
		return t.Slice(s.Offset, s.Len), nil
	}}
	return s
}

// Execute implements the colexecop.Operator interface.
func (s *Slice) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	return s.execute(ctx, ec)
}

func (s *Slice) String() string { return fmt.Sprintf("slice offset=%d len=%d", s.Offset, s.Len) }

// Melt unpivots ValueVars into variable and value columns, keeping IDVars.
type Melt struct {
	tableOp
	IDVars    []string
	ValueVars []string
}

var _ colexecop.Operator = &Melt{}

// NewMelt returns a Melt operator.
func NewMelt(input colexecop.Operator, idVars, valueVars []string) *Melt {
	m := &Melt{IDVars: idVars, ValueVars: valueVars}
	m.tableOp = tableOp{OneInputNode: colexecop.NewOneInputNode(input), name: "melt", fn: func(t *coldata.Table) (*coldata.Table, error) {
		return t.Melt(m.IDVars, m.ValueVars)
	}}
	return m
}

// Execute implements the colexecop.Operator interface.
func (m *Melt) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	return m.execute(ctx, ec)
}

func (m *Melt) String() string { return fmt.Sprintf("melt id=%v value=%v", m.IDVars, m.ValueVars) }

// UDF applies an opaque table transformation to its input. Errors of the
// transformation are returned unchanged.
type UDF struct {
	colexecop.OneInputNode
	Name string
	Fn   colexecexpr.TableUDF
}

var _ colexecop.Operator = &UDF{}

// NewUDF returns a UDF operator.
func NewUDF(input colexecop.Operator, name string, fn colexecexpr.TableUDF) *UDF {
	return &UDF{OneInputNode: colexecop.NewOneInputNode(input), Name: name, Fn: fn}
}

// Execute implements the colexecop.Operator interface.
func (u *UDF) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	t, err := u.Input.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	return u.Fn(t)
}

func (u *UDF) String() string { return fmt.Sprintf("udf %s", u.Name) }
