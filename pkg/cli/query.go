// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/colserde"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexec"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/colquery/pkg/util/log"
	"github.com/cockroachdb/colquery/pkg/util/parallel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const (
	poolCloseTimeout    = 5 * time.Second
	parquetRowGroupSize = 64 << 10
)

// execConfig builds the execution settings: the defaults from the
// environment, then the --config file, then the flags set explicitly.
func execConfig(cmd *cobra.Command) (execinfra.Config, error) {
	cfg := execinfra.DefaultConfig()
	if cliCtx.configPath != "" {
		var err error
		if cfg, err = execinfra.LoadConfig(cliCtx.configPath); err != nil {
			return execinfra.Config{}, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed(workersFlag.Name) {
		cfg.NumWorkers = cliCtx.workers
		if !flags.Changed(joinPartitionsFlag.Name) {
			cfg.NumJoinPartitions = cliCtx.workers
		}
	}
	if flags.Changed(joinPartitionsFlag.Name) {
		cfg.NumJoinPartitions = cliCtx.joinPartitions
	}
	if flags.Changed(thresholdFlag.Name) {
		cfg.PartitionedGroupByThreshold = cliCtx.threshold
	}
	if flags.Changed(sequentialFlag.Name) {
		cfg.ParallelJoin = !cliCtx.sequential
	}
	if cliCtx.verbosity > 0 {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return execinfra.Config{}, usageErrorf("%v", err)
	}
	return cfg, nil
}

// newScan returns a scan of path. Files ending in .parquet are read as
// Parquet, anything else as CSV with the given schema.
func newScan(path, schema string, schemaFlag flagInfo) (colexecop.Operator, error) {
	if path == "" {
		return nil, usageErrorf("an input file is required")
	}
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return colexec.NewParquetScan(path, nil /* columns */, nil /* predicate */, nil /* aggregate */, 0 /* maxRows */), nil
	}
	if schema == "" {
		return nil, usageErrorf("--%s is required for CSV input %s", schemaFlag.Name, path)
	}
	fields, err := coltypes.ParseSchema(schema)
	if err != nil {
		return nil, usageErrorf("--%s: %v", schemaFlag.Name, err)
	}
	opts := colserde.CSVOptions{
		Schema:    fields,
		HasHeader: cliCtx.header,
	}
	if cliCtx.delimiter != "" {
		r, size := utf8.DecodeRuneInString(cliCtx.delimiter)
		if size != len(cliCtx.delimiter) {
			return nil, usageErrorf("--%s must be a single character", delimiterFlag.Name)
		}
		opts.Delimiter = r
	}
	scan := colexec.NewCSVScan(path, opts, nil /* columns */, nil /* predicate */, nil /* aggregate */)
	scan.Cache = true
	return scan, nil
}

// wrapOutput adds the result ordering and limit requested by the flags.
func wrapOutput(root colexecop.Operator) colexecop.Operator {
	if cliCtx.sort != "" {
		by, reverse := strings.CutPrefix(cliCtx.sort, "-")
		root = colexec.NewSort(root, by, reverse)
	}
	if cliCtx.limit > 0 {
		root = colexec.NewSlice(root, 0, cliCtx.limit)
	}
	return root
}

// runQuery executes root and writes the result.
func runQuery(cmd *cobra.Command, root colexecop.Operator) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	format, err := parseDisplayFormat(cliCtx.format)
	if err != nil {
		return err
	}
	cfg, err := execConfig(cmd)
	if err != nil {
		return err
	}
	defer log.SetVerbosity(cliCtx.verbosity)()

	pool, err := parallel.NewPool(cfg.NumWorkers)
	if err != nil {
		return err
	}
	defer func() {
		if err := pool.Close(poolCloseTimeout); err != nil {
			log.Warningf(ctx, "closing worker pool: %v", err)
		}
	}()

	registry := prometheus.NewRegistry()
	ec := execinfra.NewExecutionContext(cfg, pool, execinfra.NewMetrics(registry))
	root = wrapOutput(root)
	if cliCtx.fetch > 0 {
		ec = ec.WithFetchRows(cliCtx.fetch)
	}

	if cliCtx.explain {
		fmt.Fprint(out, colexec.Explain(root))
	}
	start := time.Now()
	res, err := colexec.Run(ctx, root, ec)
	if err != nil {
		return err
	}
	if cliCtx.output != "" {
		if err := writeParquetFile(cliCtx.output, res); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s to %s\n", pluralRows(res.Height()), cliCtx.output)
	} else if err := printTable(out, res, format); err != nil {
		return err
	}
	if cliCtx.printMetrics {
		return printMetrics(out, registry, time.Since(start))
	}
	return nil
}

func writeParquetFile(path string, t *coldata.Table) (retErr error) {
	f, err := os.Create(path)
	if err != nil {
		return colexecerror.WrapIO(err, "creating %s", path)
	}
	defer closeFile(f, &retErr)
	return colserde.WriteParquet(f, t, parquetRowGroupSize)
}

func closeFile(f io.Closer, retErr *error) {
	if err := f.Close(); err != nil && *retErr == nil {
		*retErr = colexecerror.WrapIO(err, "closing output")
	}
}
