// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/colquery/pkg/sql/colexec"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecagg"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecexpr"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/spf13/cobra"
)

var groupByCmd = &cobra.Command{
	Use:   "groupby --input <file> --by <columns> --agg <fn:column> ...",
	Short: "aggregate a file by key columns",
	Long: `
Group the rows of a CSV or Parquet file by the key columns and aggregate the
other columns per group. The output holds the keys followed by one column per
aggregation, named column_fn unless an alias is given.

With --partitioned the input is split across the workers, aggregated per
partition and merged, unless a single categorical key has too many distinct
values for that to pay off. Aggregations whose partial results cannot be
merged are left out of a partitioned result.
`,
	Example: `  colq groupby --input sales.csv --schema "region:cat,amount:float" \
    --by region --agg sum:amount --agg count:amount:n --partitioned`,
	Args: cobra.NoArgs,
	RunE: runGroupBy,
}

func init() {
	f := groupByCmd.Flags()
	stringFlag(f, &cliCtx.input, inputFlag, "")
	stringFlag(f, &cliCtx.schema, schemaFlag, "")
	stringSliceFlag(f, &cliCtx.by, byFlag)
	f.StringArrayVar(&cliCtx.aggs, aggFlag.Name, nil, aggFlag.Description)
	boolFlag(f, &cliCtx.partitioned, partitionedFlag)
	f.Float64Var(&cliCtx.threshold, thresholdFlag.Name,
		execinfra.DefaultPartitionedGroupByThreshold, thresholdFlag.Description)
}

// parseAgg parses fn:column[:alias].
func parseAgg(s string) (colexecexpr.AggExpr, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[1] == "" {
		return nil, usageErrorf("--%s %q: expected fn:column[:alias]", aggFlag.Name, s)
	}
	fn, err := colexecagg.ParseAggFn(parts[0])
	if err != nil {
		return nil, usageErrorf("--%s: %v", aggFlag.Name, err)
	}
	alias := fmt.Sprintf("%s_%s", parts[1], fn)
	if len(parts) == 3 && parts[2] != "" {
		alias = parts[2]
	}
	return colexecexpr.Agg(fn, colexecexpr.Col(parts[1])).As(alias), nil
}

func runGroupBy(cmd *cobra.Command, _ []string) error {
	if len(cliCtx.by) == 0 {
		return usageErrorf("--%s is required", byFlag.Name)
	}
	if len(cliCtx.aggs) == 0 {
		return usageErrorf("at least one --%s is required", aggFlag.Name)
	}
	aggs := make([]colexecexpr.AggExpr, len(cliCtx.aggs))
	for i, s := range cliCtx.aggs {
		agg, err := parseAgg(s)
		if err != nil {
			return err
		}
		aggs[i] = agg
	}
	input, err := newScan(cliCtx.input, cliCtx.schema, schemaFlag)
	if err != nil {
		return err
	}
	var root colexecop.Operator
	if cliCtx.partitioned {
		root = colexec.NewPartitionedGroupBy(input, columns(cliCtx.by), aggs)
	} else {
		root = colexec.NewGroupBy(input, columns(cliCtx.by), aggs)
	}
	return runQuery(cmd, root)
}
