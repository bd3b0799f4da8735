// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"github.com/cockroachdb/colquery/pkg/sql/colexec"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecexpr"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecjoin"
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join --left <file> --right <file> --on <columns> [--how inner|left|outer]",
	Short: "hash join two files",
	Long: `
Join two CSV or Parquet files on equal key columns. Right columns whose name
is already used on the left get the suffix "_right". Outer joins coalesce the
key columns of both sides.
`,
	Example: `  colq join --left users.csv --left-schema "id:int,name:string" \
    --right orders.parquet --on id --right-on user_id --how left`,
	Args: cobra.NoArgs,
	RunE: runJoin,
}

func init() {
	f := joinCmd.Flags()
	stringFlag(f, &cliCtx.left, leftFlag, "")
	stringFlag(f, &cliCtx.leftSchema, leftSchemaFlag, "")
	stringFlag(f, &cliCtx.right, rightFlag, "")
	stringFlag(f, &cliCtx.rightSchema, rightSchemaFlag, "")
	stringSliceFlag(f, &cliCtx.on, onFlag)
	stringSliceFlag(f, &cliCtx.rightOn, rightOnFlag)
	stringFlag(f, &cliCtx.how, howFlag, "inner")
	boolFlag(f, &cliCtx.sequential, sequentialFlag)
}

func runJoin(cmd *cobra.Command, _ []string) error {
	how, err := colexecjoin.ParseJoinType(cliCtx.how)
	if err != nil {
		return usageErrorf("--%s: %v", howFlag.Name, err)
	}
	if len(cliCtx.on) == 0 {
		return usageErrorf("--%s is required", onFlag.Name)
	}
	rightOn := cliCtx.rightOn
	if len(rightOn) == 0 {
		rightOn = cliCtx.on
	}
	if len(rightOn) != len(cliCtx.on) {
		return usageErrorf("--%s and --%s name %d and %d columns",
			onFlag.Name, rightOnFlag.Name, len(cliCtx.on), len(rightOn))
	}
	left, err := newScan(cliCtx.left, cliCtx.leftSchema, leftSchemaFlag)
	if err != nil {
		return err
	}
	right, err := newScan(cliCtx.right, cliCtx.rightSchema, rightSchemaFlag)
	if err != nil {
		return err
	}
	return runQuery(cmd, colexec.NewHashJoin(left, right, columns(cliCtx.on), columns(rightOn), how))
}

func columns(names []string) []colexecexpr.Expr {
	res := make([]colexecexpr.Expr, len(names))
	for i, n := range names {
		res[i] = colexecexpr.Col(n)
	}
	return res
}
