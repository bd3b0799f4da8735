// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagInfo names a flag and documents it.
type flagInfo struct {
	Name        string
	Shorthand   string
	Description string
}

var (
	configFlag = flagInfo{
		Name:        "config",
		Description: `YAML file with execution settings. Flags given explicitly take precedence.`,
	}
	workersFlag = flagInfo{
		Name:        "workers",
		Description: `Number of worker threads. Defaults to COLQ_NUM_WORKERS or the number of CPUs.`,
	}
	joinPartitionsFlag = flagInfo{
		Name:        "join-partitions",
		Description: `Number of chunks the probe side of a hash join is split into.`,
	}
	verbosityFlag = flagInfo{
		Name:        "verbosity",
		Shorthand:   "v",
		Description: `Log verbosity. Level 1 logs the operators as they run.`,
	}
	explainFlag = flagInfo{
		Name:        "explain",
		Description: `Print the operator tree before running the query.`,
	}
	metricsFlag = flagInfo{
		Name:        "print-metrics",
		Description: `Print the execution counters after the query.`,
	}
	formatFlag = flagInfo{
		Name:        "format",
		Description: `Output format: table, csv or tsv.`,
	}
	outputFlag = flagInfo{
		Name:        "output",
		Shorthand:   "o",
		Description: `Write the result to this Parquet file instead of printing it.`,
	}
	sortFlag = flagInfo{
		Name:        "sort",
		Description: `Sort the result by this column. Prefix with '-' for descending order.`,
	}
	limitFlag = flagInfo{
		Name:        "limit",
		Description: `Maximum number of result rows.`,
	}
	fetchFlag = flagInfo{
		Name:        "fetch",
		Description: `Run the query on at most this many rows of each input, to try it out on large files.`,
	}
	headerFlag = flagInfo{
		Name:        "header",
		Description: `CSV inputs start with a header line.`,
	}
	delimiterFlag = flagInfo{
		Name:        "delimiter",
		Description: `CSV field delimiter.`,
	}

	leftFlag = flagInfo{
		Name:        "left",
		Description: `Left input, a CSV or Parquet file.`,
	}
	leftSchemaFlag = flagInfo{
		Name:        "left-schema",
		Description: `Schema of a CSV left input, e.g. "id:int,name:string".`,
	}
	rightFlag = flagInfo{
		Name:        "right",
		Description: `Right input, a CSV or Parquet file.`,
	}
	rightSchemaFlag = flagInfo{
		Name:        "right-schema",
		Description: `Schema of a CSV right input.`,
	}
	onFlag = flagInfo{
		Name:        "on",
		Description: `Comma-separated join key columns of the left input, and of the right input unless --right-on is given.`,
	}
	rightOnFlag = flagInfo{
		Name:        "right-on",
		Description: `Comma-separated join key columns of the right input.`,
	}
	howFlag = flagInfo{
		Name:        "how",
		Description: `Join type: inner, left or outer.`,
	}
	sequentialFlag = flagInfo{
		Name:        "sequential",
		Description: `Evaluate the join inputs one after the other.`,
	}

	inputFlag = flagInfo{
		Name:        "input",
		Shorthand:   "i",
		Description: `Input, a CSV or Parquet file.`,
	}
	schemaFlag = flagInfo{
		Name:        "schema",
		Description: `Schema of a CSV input, e.g. "k:cat,v:float".`,
	}
	byFlag = flagInfo{
		Name:        "by",
		Description: `Comma-separated group-by key columns.`,
	}
	aggFlag = flagInfo{
		Name: "agg",
		Description: `Aggregation as fn:column[:alias], with fn one of sum, min, max, count,
mean, first or last. May be repeated.`,
	}
	partitionedFlag = flagInfo{
		Name:        "partitioned",
		Description: `Aggregate partitions of the input in parallel and merge the results.`,
	}
	thresholdFlag = flagInfo{
		Name:        "partition-threshold",
		Description: `Distinct-to-rows ratio of a categorical key above which --partitioned falls back to a single pass.`,
	}
)

// cliCtx holds the values of the flags of the current invocation.
var cliCtx struct {
	configPath     string
	workers        int
	joinPartitions int
	verbosity      int32
	explain        bool
	printMetrics   bool
	format         string
	output         string
	sort           string
	limit          int
	fetch          int

	header    bool
	delimiter string

	left, leftSchema   string
	right, rightSchema string
	on, rightOn        []string
	how                string
	sequential         bool

	input       string
	schema      string
	by          []string
	aggs        []string
	partitioned bool
	threshold   float64
}

// resetCliContext restores the flag defaults, so that Run can be invoked
// more than once in a process.
func resetCliContext() {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	reset(colqCmd.PersistentFlags())
	for _, cmd := range colqCmd.Commands() {
		reset(cmd.Flags())
	}
}

func stringFlag(fs *pflag.FlagSet, p *string, info flagInfo, def string) {
	fs.StringVarP(p, info.Name, info.Shorthand, def, info.Description)
}

func boolFlag(fs *pflag.FlagSet, p *bool, info flagInfo) {
	fs.BoolVarP(p, info.Name, info.Shorthand, false, info.Description)
}

func intFlag(fs *pflag.FlagSet, p *int, info flagInfo, def int) {
	fs.IntVarP(p, info.Name, info.Shorthand, def, info.Description)
}

func stringSliceFlag(fs *pflag.FlagSet, p *[]string, info flagInfo) {
	fs.StringSliceVarP(p, info.Name, info.Shorthand, nil, info.Description)
}

func addRootFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	stringFlag(f, &cliCtx.configPath, configFlag, "")
	intFlag(f, &cliCtx.workers, workersFlag, 0)
	intFlag(f, &cliCtx.joinPartitions, joinPartitionsFlag, 0)
	f.Int32VarP(&cliCtx.verbosity, verbosityFlag.Name, verbosityFlag.Shorthand, 0, verbosityFlag.Description)
	boolFlag(f, &cliCtx.explain, explainFlag)
	boolFlag(f, &cliCtx.printMetrics, metricsFlag)
	stringFlag(f, &cliCtx.format, formatFlag, "table")
	stringFlag(f, &cliCtx.output, outputFlag, "")
	stringFlag(f, &cliCtx.sort, sortFlag, "")
	intFlag(f, &cliCtx.limit, limitFlag, 0)
	intFlag(f, &cliCtx.fetch, fetchFlag, 0)
	boolFlag(f, &cliCtx.header, headerFlag)
	stringFlag(f, &cliCtx.delimiter, delimiterFlag, ",")
}
