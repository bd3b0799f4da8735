// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecjoin"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/util/leaktest"
	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

// TestOperators runs the query trees described in testdata. The commands
// are:
//
//	table name=<name> schema=<name:type,...>
//	<csv rows>
//
//	join left=<table> right=<table> on=<cols> [right-on=<cols>] [how=<inner|left|outer>] [workers=<n>] [sequential]
//	groupby input=<table> by=<cols> agg=<fn:col,...> [partitioned] [threshold=<f>] [workers=<n>]
//	distinct input=<table> [subset=<cols>] [maintain-order]
//
// Tables are printed with a header line. Rows are sorted unless the order
// of the operator output is deterministic.
func TestOperators(t *testing.T) {
	defer leaktest.AfterTest(t)()

	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		tables := make(map[string]*coldata.Table)
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			lookup := func(key string) colexecop.Operator {
				var name string
				d.ScanArgs(t, key, &name)
				tab, ok := tables[name]
				require.True(t, ok, "unknown table %s", name)
				return source(tab)
			}
			list := func(key string) []string {
				var s string
				if !d.MaybeScanArgs(t, key, &s) {
					return nil
				}
				return strings.Split(s, ",")
			}
			workers := 4
			d.MaybeScanArgs(t, "workers", &workers)
			ec := newTestContext(t, workers)

			var op colexecop.Operator
			sorted := true
			switch d.Cmd {
			case "table":
				var name, schema string
				d.ScanArgs(t, "name", &name)
				d.ScanArgs(t, "schema", &schema)
				tables[name] = makeTable(t, schema, d.Input)
				return fmt.Sprintf("%d rows", tables[name].Height())

			case "join":
				how := colexecjoin.InnerJoin
				var howStr string
				if d.MaybeScanArgs(t, "how", &howStr) {
					var err error
					how, err = colexecjoin.ParseJoinType(howStr)
					require.NoError(t, err)
				}
				leftOn := list("on")
				rightOn := list("right-on")
				if rightOn == nil {
					rightOn = leftOn
				}
				j := NewHashJoin(lookup("left"), lookup("right"), cols(leftOn...), cols(rightOn...), how)
				if d.HasArg("sequential") {
					j.Evaluation = InputEvaluationSequential
				}
				op = j

			case "groupby":
				keys, specs := cols(list("by")...), aggs(list("agg")...)
				if d.HasArg("partitioned") {
					var threshold string
					if d.MaybeScanArgs(t, "threshold", &threshold) {
						f, err := strconv.ParseFloat(threshold, 64)
						require.NoError(t, err)
						ec.Config.PartitionedGroupByThreshold = f
					}
					op = NewPartitionedGroupBy(lookup("input"), keys, specs)
				} else {
					op = NewGroupBy(lookup("input"), keys, specs)
				}
				sorted = false

			case "distinct":
				maintainOrder := d.HasArg("maintain-order")
				op = NewDistinct(lookup("input"), maintainOrder, list("subset"))
				sorted = !maintainOrder

			default:
				d.Fatalf(t, "unknown command %s", d.Cmd)
			}

			res, err := Run(context.Background(), NewInvariantsChecker(op), ec)
			if err != nil {
				return fmt.Sprintf("%s error", colexecerror.Kind(err))
			}
			rows := coldata.RowStrings(res)
			if sorted {
				slices.Sort(rows)
			}
			return strings.Join(append([]string{strings.Join(res.Names(), " ")}, rows...), "\n")
		})
	})
}
