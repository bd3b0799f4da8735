// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/colserde"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/colquery/pkg/util/parallel"
	"github.com/stretchr/testify/require"
)

// newTestContext returns an execution context backed by a pool of the given
// number of workers, with NumWorkers and NumJoinPartitions set to match.
func newTestContext(t *testing.T, workers int) *execinfra.ExecutionContext {
	pool, err := parallel.NewPool(workers)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close(time.Second) })
	cfg := execinfra.DefaultConfig()
	cfg.NumWorkers = workers
	cfg.NumJoinPartitions = workers
	cfg.Verbose = true
	return execinfra.NewExecutionContext(cfg, pool, execinfra.NewMetrics(nil))
}

// makeTable parses rows, in CSV form, as a table with the given schema,
// e.g. makeTable(t, "a:int,b:string", "1,x\n2,y"). Empty fields are null.
func makeTable(t *testing.T, schema string, rows string) *coldata.Table {
	fields, err := coltypes.ParseSchema(schema)
	require.NoError(t, err)
	tab, err := colserde.ReadCSV(context.Background(), strings.NewReader(rows), colserde.CSVOptions{Schema: fields})
	require.NoError(t, err)
	return tab
}

// source returns an InMemory operator over tab, wrapped in an invariants
// checker.
func source(tab *coldata.Table) colexecop.Operator {
	return NewInvariantsChecker(NewInMemory(tab))
}

// countingOp returns a fixed table and counts how often it is executed.
type countingOp struct {
	colexecop.ZeroInputNode
	t     *coldata.Table
	calls atomic.Int32
}

var _ colexecop.Operator = &countingOp{}

func (c *countingOp) Execute(context.Context, *execinfra.ExecutionContext) (*coldata.Table, error) {
	c.calls.Add(1)
	return c.t, nil
}

func (c *countingOp) String() string { return "counting" }

func run(t *testing.T, ec *execinfra.ExecutionContext, op colexecop.Operator) *coldata.Table {
	t.Helper()
	res, err := Run(context.Background(), NewInvariantsChecker(op), ec)
	require.NoError(t, err)
	return res
}
