// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package cli implements the colq command, which runs joins and group-bys
// over CSV and Parquet files.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var colqCmd = &cobra.Command{
	Use:   "colq [command] (flags)",
	Short: "columnar queries over CSV and Parquet files",
	Long: `
Run hash joins and group-by aggregations over CSV and Parquet files with the
multi-threaded columnar engine.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.EnableCommandSorting = false

	colqCmd.AddCommand(
		joinCmd,
		groupByCmd,
	)
	addRootFlags(colqCmd)
}

// Main is the entry point of the colq binary.
func Main() {
	if err := Run(os.Args[1:]); err != nil {
		os.Exit(exitCode(err))
	}
}

// Run executes the command line args, printing errors to stderr.
func Run(args []string) error {
	return runWithOutput(context.Background(), args, os.Stdout, os.Stderr)
}

func runWithOutput(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	resetCliContext()
	colqCmd.SetArgs(args)
	colqCmd.SetOut(stdout)
	colqCmd.SetErr(stderr)
	err := colqCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		if colexecerror.IsInternal(err) {
			fmt.Fprintf(stderr, "%+v\n", err)
		}
	}
	return err
}

// exitCode maps error kinds to distinct process exit codes.
func exitCode(err error) int {
	switch colexecerror.Kind(err) {
	case "ok":
		return 0
	case "internal":
		return 3
	case "io", "parse":
		return 4
	default:
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
}

var errUsage = errors.New("invalid usage")

func usageErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), errUsage)
}
