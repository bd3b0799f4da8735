// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecexpr"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
)

// InMemory produces a table that is already materialized. The projection is
// applied before the predicate.
type InMemory struct {
	colexecop.ZeroInputNode

	Table      *coldata.Table
	Projection []colexecexpr.Expr
	Predicate  colexecexpr.Expr
	// Limit truncates the output. Zero means no limit.
	Limit int
}

var _ colexecop.Operator = &InMemory{}

// NewInMemory returns an InMemory operator producing t.
func NewInMemory(t *coldata.Table) *InMemory {
	return &InMemory{Table: t}
}

// Execute implements the colexecop.Operator interface.
func (m *InMemory) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	ctx = opContext(ctx, "in memory")
	t := m.Table.Clone()
	if len(m.Projection) > 0 {
		var err error
		if t, err = evaluateProjection(ctx, ec, t, m.Projection); err != nil {
			return nil, wrapOpError(err, "in memory")
		}
	}
	if m.Predicate != nil {
		var err error
		if t, err = filterTable(ec, t, m.Predicate); err != nil {
			return nil, wrapOpError(err, "in memory")
		}
	}
	if limit := ec.EffectiveRowLimit(m.Limit); limit > 0 {
		t = t.Head(limit)
	}
	return t, nil
}

func (m *InMemory) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "in memory %v", m.Table.Names())
	if len(m.Projection) > 0 {
		fmt.Fprintf(&b, " projection=%s", exprsString(m.Projection))
	}
	if m.Predicate != nil {
		fmt.Fprintf(&b, " predicate=%s", m.Predicate)
	}
	if m.Limit > 0 {
		fmt.Fprintf(&b, " limit=%d", m.Limit)
	}
	return b.String()
}
