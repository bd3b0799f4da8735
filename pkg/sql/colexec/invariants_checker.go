// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
)

// invariantsChecker is a helper Operator that will check that the invariants
// of tables are maintained by its input: all columns have the height of the
// table and column names are unique. It should be planned between other
// Operators in tests.
type invariantsChecker struct {
	colexecop.OneInputNode
}

var _ colexecop.Operator = &invariantsChecker{}

// NewInvariantsChecker creates a new invariantsChecker.
func NewInvariantsChecker(input colexecop.Operator) colexecop.Operator {
	return &invariantsChecker{OneInputNode: colexecop.NewOneInputNode(input)}
}

// Execute implements the colexecop.Operator interface.
func (i *invariantsChecker) Execute(
	ctx context.Context, ec *execinfra.ExecutionContext,
) (*coldata.Table, error) {
	t, err := i.Input.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, t.Width())
	for _, v := range t.ColVecs() {
		if v.Len() != t.Height() {
			return nil, colexecerror.NewInternalErrorf(
				"%s produced column %q of length %d in a table of height %d",
				i.Input, v.Name(), v.Len(), t.Height())
		}
		if _, ok := seen[v.Name()]; ok {
			return nil, colexecerror.NewInternalErrorf(
				"%s produced duplicate column %q", i.Input, v.Name())
		}
		seen[v.Name()] = struct{}{}
	}
	return t, nil
}

func (i *invariantsChecker) String() string {
	return "check invariants"
}
