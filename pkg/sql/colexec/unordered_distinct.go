// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"fmt"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecagg"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/colquery/pkg/util/humanizeutil"
	"github.com/cockroachdb/redact"
)

// Distinct removes the rows of its input that are equal, on the Subset
// columns or on all columns if Subset is empty, to an earlier row. Nulls are
// equal to each other. Unless MaintainOrder is set the order of the output
// is unspecified, which allows every worker to deduplicate its own share of
// the hash space.
type Distinct struct {
	colexecop.OneInputNode
	MaintainOrder bool
	Subset        []string
}

var _ colexecop.Operator = &Distinct{}

// NewDistinct returns a Distinct operator.
func NewDistinct(input colexecop.Operator, maintainOrder bool, subset []string) *Distinct {
	return &Distinct{
		OneInputNode:  colexecop.NewOneInputNode(input),
		MaintainOrder: maintainOrder,
		Subset:        subset,
	}
}

// Execute implements the colexecop.Operator interface.
func (d *Distinct) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	t, err := d.Input.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	ctx = opContext(ctx, "distinct")
	res, err := colexecagg.Distinct(ctx, ec.Pool, t, d.Subset, d.MaintainOrder)
	if err != nil {
		return nil, wrapOpError(err, "distinct")
	}
	ec.Eventf(ctx, "removed %s duplicate rows",
		redact.SafeString(humanizeutil.Count(t.Height()-res.Height())))
	return res, nil
}

func (d *Distinct) String() string {
	s := "distinct"
	if len(d.Subset) > 0 {
		s += fmt.Sprintf(" %v", d.Subset)
	}
	if d.MaintainOrder {
		s += " maintain order"
	}
	return s
}
