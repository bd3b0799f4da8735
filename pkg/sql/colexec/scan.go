// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/colserde"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecexpr"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/sql/colexecop"
	"github.com/cockroachdb/colquery/pkg/sql/execinfra"
	"github.com/cockroachdb/colquery/pkg/util/humanizeutil"
	"github.com/cockroachdb/redact"
)

// scanOps are the operations pushed down into a scan, applied to the rows
// read from the source in this order: predicate, projection, aggregation.
type scanOps struct {
	// Columns projects the output. Empty keeps every column.
	Columns []string
	// Predicate, if set, selects the rows to keep.
	Predicate colexecexpr.Expr
	// Aggregate, if set, reduces the output to a single row.
	Aggregate []colexecexpr.ScanAggregation
}

func (s scanOps) finish(ec *execinfra.ExecutionContext, t *coldata.Table) (*coldata.Table, error) {
	if s.Predicate != nil {
		mask, err := s.Predicate.Eval(ec, t)
		if err != nil {
			return nil, err
		}
		if t, err = t.Filter(mask); err != nil {
			return nil, err
		}
	}
	if len(s.Columns) > 0 {
		var err error
		if t, err = t.Select(s.Columns...); err != nil {
			return nil, err
		}
	}
	if len(s.Aggregate) > 0 {
		return colexecexpr.ApplyScanAggregations(t, s.Aggregate)
	}
	return t, nil
}

func (s scanOps) format(b *strings.Builder) {
	if len(s.Columns) > 0 {
		fmt.Fprintf(b, " columns=%v", s.Columns)
	}
	if s.Predicate != nil {
		fmt.Fprintf(b, " predicate=%s", s.Predicate)
	}
	if len(s.Aggregate) > 0 {
		fmt.Fprintf(b, " aggregate=%s", exprsString(s.Aggregate))
	}
}

// scanCacheKey identifies the result of scanning path with predicate. The
// same source read with different predicates is cached independently.
func scanCacheKey(path string, predicate colexecexpr.Expr) string {
	if predicate == nil {
		return path
	}
	return path + predicate.String()
}

// CSVScan reads a CSV file.
type CSVScan struct {
	colexecop.ZeroInputNode
	scanOps

	Path    string
	Options colserde.CSVOptions
	// Cache stores the result in the result cache and serves later
	// executions of a scan of the same path and predicate from it.
	Cache bool
	// Rechunk compacts the columns of the result.
	Rechunk bool
}

var _ colexecop.Operator = &CSVScan{}

// NewCSVScan returns a scan of the CSV file at path.
func NewCSVScan(
	path string,
	opts colserde.CSVOptions,
	columns []string,
	predicate colexecexpr.Expr,
	aggregate []colexecexpr.ScanAggregation,
) *CSVScan {
	return &CSVScan{
		scanOps: scanOps{Columns: columns, Predicate: predicate, Aggregate: aggregate},
		Path:    path,
		Options: opts,
	}
}

// Execute implements the colexecop.Operator interface.
func (s *CSVScan) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	ctx = opContext(ctx, "csv scan")
	key := scanCacheKey(s.Path, s.Predicate)
	if s.Cache {
		if t, ok := ec.CacheLookup(ctx, key); ok {
			return t, nil
		}
	}
	opts := s.Options
	opts.MaxRows = ec.EffectiveRowLimit(opts.MaxRows)

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, colexecerror.WrapIO(err, "opening csv file")
	}
	defer f.Close()
	size := fileSize(f)
	t, err := colserde.ReadCSV(ctx, f, opts)
	if err != nil {
		return nil, wrapOpError(err, "csv scan")
	}
	ec.Metrics.RowsScanned.Add(float64(t.Height()))
	if t, err = s.finish(ec, t); err != nil {
		return nil, wrapOpError(err, "csv scan")
	}
	if s.Rechunk {
		t = t.Rechunk()
	}
	if s.Cache {
		ec.CacheStore(ctx, key, t)
	}
	ec.Eventf(ctx, "csv %s read (%s), %s rows", s.Path,
		redact.SafeString(size), redact.SafeString(humanizeutil.Count(t.Height())))
	return t, nil
}

func (s *CSVScan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "csv scan %s", s.Path)
	s.format(&b)
	return b.String()
}

// ParquetScan reads a Parquet file.
type ParquetScan struct {
	colexecop.ZeroInputNode
	scanOps

	Path string
	// MaxRows limits the number of rows read. Zero means no limit.
	MaxRows int
	// Cache stores the result in the result cache. A cached result of a scan
	// of the same path and predicate is used whether or not Cache is set.
	Cache bool
}

var _ colexecop.Operator = &ParquetScan{}

// NewParquetScan returns a scan of the Parquet file at path.
func NewParquetScan(
	path string,
	columns []string,
	predicate colexecexpr.Expr,
	aggregate []colexecexpr.ScanAggregation,
	maxRows int,
) *ParquetScan {
	return &ParquetScan{
		scanOps: scanOps{Columns: columns, Predicate: predicate, Aggregate: aggregate},
		Path:    path,
		MaxRows: maxRows,
	}
}

// Execute implements the colexecop.Operator interface.
func (s *ParquetScan) Execute(ctx context.Context, ec *execinfra.ExecutionContext) (*coldata.Table, error) {
	ctx = opContext(ctx, "parquet scan")
	key := scanCacheKey(s.Path, s.Predicate)
	if t, ok := ec.CacheLookup(ctx, key); ok {
		return t, nil
	}
	opts := colserde.ParquetOptions{MaxRows: ec.EffectiveRowLimit(s.MaxRows)}
	if s.Predicate == nil {
		// The predicate may reference columns outside of the projection, so
		// the reader only projects when there is none.
		opts.Columns = s.Columns
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, colexecerror.WrapIO(err, "opening parquet file")
	}
	defer f.Close()
	size := fileSize(f)
	t, err := colserde.ReadParquet(ctx, f, opts)
	if err != nil {
		return nil, wrapOpError(err, "parquet scan")
	}
	ec.Metrics.RowsScanned.Add(float64(t.Height()))
	if t, err = s.finish(ec, t); err != nil {
		return nil, wrapOpError(err, "parquet scan")
	}
	if s.Cache {
		ec.CacheStore(ctx, key, t)
	}
	ec.Eventf(ctx, "parquet %s read (%s), %s rows", s.Path,
		redact.SafeString(size), redact.SafeString(humanizeutil.Count(t.Height())))
	return t, nil
}

func (s *ParquetScan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parquet scan %s", s.Path)
	s.format(&b)
	return b.String()
}

// fileSize returns the humanized size of f, or "?" if it cannot be stat'ed.
func fileSize(f *os.File) string {
	info, err := f.Stat()
	if err != nil {
		return "?"
	}
	return humanizeutil.IBytes(info.Size())
}
