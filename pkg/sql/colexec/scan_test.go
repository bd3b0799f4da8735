// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/colserde"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecagg"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexecexpr"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/util/leaktest"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestCSVScan(t *testing.T) {
	defer leaktest.AfterTest(t)()
	path := filepath.Join(t.TempDir(), "t.csv")
	writeFile(t, path, "skipped line\na|b|c\n1|x|0.5\n2|y|1.5\n3||2.5\n")
	opts := colserde.CSVOptions{
		Schema: []coltypes.Field{
			{Name: "a", Type: coltypes.Int64}, {Name: "b", Type: coltypes.Categorical}, {Name: "c", Type: coltypes.Float64},
		},
		HasHeader: true,
		Delimiter: '|',
		SkipRows:  1,
	}
	ec := newTestContext(t, 2)

	res := run(t, ec, NewCSVScan(path, opts, nil, nil, nil))
	require.Equal(t, []coltypes.T{coltypes.Int64, coltypes.Categorical, coltypes.Float64}, res.Types())
	require.Equal(t, []string{"1 x 0.5", "2 y 1.5", "3 NULL 2.5"}, coldata.RowStrings(res))
	require.Equal(t, 3.0, testutil.ToFloat64(ec.Metrics.RowsScanned))

	// The predicate may refer to a column outside of the projection.
	scan := NewCSVScan(path, opts, []string{"c"}, colexecexpr.Cmp(colexecexpr.GE, colexecexpr.Col("a"), colexecexpr.Lit(2)), nil)
	scan.Rechunk = true
	require.Equal(t, []string{"1.5", "2.5"}, coldata.RowStrings(run(t, ec, scan)))

	scan = NewCSVScan(path, opts, nil, nil, []colexecexpr.ScanAggregation{
		{Fn: colexecagg.Sum, Column: "a", Alias: "total"},
		{Fn: colexecagg.Max, Column: "c"},
	})
	res = run(t, ec, scan)
	require.Equal(t, []string{"total", "c"}, res.Names())
	require.Equal(t, []string{"6 2.5"}, coldata.RowStrings(res))

	scan = NewCSVScan(path, opts, nil, nil, nil)
	scan.Options.MaxRows = 2
	require.Equal(t, 2, run(t, ec, scan).Height())
	require.Equal(t, 1, run(t, ec.WithFetchRows(1), scan).Height())
}

func TestCSVScanErrors(t *testing.T) {
	defer leaktest.AfterTest(t)()
	dir := t.TempDir()
	ec := newTestContext(t, 1)
	opts := colserde.CSVOptions{Schema: []coltypes.Field{{Name: "a", Type: coltypes.Int64}}}

	_, err := Run(context.Background(), NewCSVScan(filepath.Join(dir, "missing.csv"), opts, nil, nil, nil), ec)
	require.True(t, errors.Is(err, colexecerror.ErrIO), "%v", err)

	path := filepath.Join(dir, "bad.csv")
	writeFile(t, path, "1\nnot a number\n3\n")
	_, err = Run(context.Background(), NewCSVScan(path, opts, nil, nil, nil), ec)
	require.True(t, errors.Is(err, colexecerror.ErrParse), "%v", err)

	opts.IgnoreErrors = true
	res := run(t, ec, NewCSVScan(path, opts, nil, nil, nil))
	require.Equal(t, []string{"1", "3"}, coldata.RowStrings(res))
}

func TestCSVScanCache(t *testing.T) {
	defer leaktest.AfterTest(t)()
	path := filepath.Join(t.TempDir(), "t.csv")
	writeFile(t, path, "1\n2\n3\n")
	opts := colserde.CSVOptions{Schema: []coltypes.Field{{Name: "a", Type: coltypes.Int64}}}
	pred := colexecexpr.Cmp(colexecexpr.GT, colexecexpr.Col("a"), colexecexpr.Lit(1))
	ec := newTestContext(t, 1)

	cached := NewCSVScan(path, opts, nil, pred, nil)
	cached.Cache = true
	require.Equal(t, []string{"2", "3"}, coldata.RowStrings(run(t, ec, cached)))

	writeFile(t, path, "4\n5\n")
	// Same path and predicate: served from the cache.
	require.Equal(t, []string{"2", "3"}, coldata.RowStrings(run(t, ec, cached)))
	// Another predicate is another cache entry.
	other := NewCSVScan(path, opts, nil, colexecexpr.Cmp(colexecexpr.GT, colexecexpr.Col("a"), colexecexpr.Lit(4)), nil)
	other.Cache = true
	require.Equal(t, []string{"5"}, coldata.RowStrings(run(t, ec, other)))
	// Without the flag the cache is not consulted.
	require.Equal(t, []string{"4", "5"}, coldata.RowStrings(run(t, ec, NewCSVScan(path, opts, nil, pred, nil))))
}

func TestParquetScan(t *testing.T) {
	defer leaktest.AfterTest(t)()
	path := filepath.Join(t.TempDir(), "t.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, colserde.WriteParquet(f, makeTable(t, "a:int,b:string,c:float", "1,x,0.5\n2,y,1.5\n3,,2.5\n4,w,3.5"), 2))
	require.NoError(t, f.Close())
	ec := newTestContext(t, 2)

	res := run(t, ec, NewParquetScan(path, []string{"c", "a"}, nil, nil, 0))
	require.Equal(t, []string{"c", "a"}, res.Names())
	require.Equal(t, []string{"0.5 1", "1.5 2", "2.5 3", "3.5 4"}, coldata.RowStrings(res))

	pred := colexecexpr.IsNull(colexecexpr.Col("b"))
	res = run(t, ec, NewParquetScan(path, []string{"a"}, pred, nil, 0))
	require.Equal(t, []string{"3"}, coldata.RowStrings(res))

	res = run(t, ec, NewParquetScan(path, nil, nil, []colexecexpr.ScanAggregation{{Fn: colexecagg.Min, Column: "b"}}, 0))
	require.Equal(t, []string{"w"}, coldata.RowStrings(res))

	require.Equal(t, 3, run(t, ec, NewParquetScan(path, nil, nil, nil, 3)).Height())
	require.Equal(t, 1, run(t, ec.WithFetchRows(1), NewParquetScan(path, nil, nil, nil, 3)).Height())
}

func TestParquetScanCache(t *testing.T) {
	defer leaktest.AfterTest(t)()
	path := filepath.Join(t.TempDir(), "t.parquet")
	write := func(rows string) {
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, colserde.WriteParquet(f, makeTable(t, "a:int", rows), 64))
		require.NoError(t, f.Close())
	}
	write("1\n2")
	ec := newTestContext(t, 1)

	uncached := NewParquetScan(path, nil, nil, nil, 0)
	cached := NewParquetScan(path, nil, nil, nil, 0)
	cached.Cache = true
	require.Equal(t, []string{"1", "2"}, coldata.RowStrings(run(t, ec, uncached)))
	write("3")
	// Nothing was stored by the uncached scan.
	require.Equal(t, []string{"3"}, coldata.RowStrings(run(t, ec, cached)))
	write("4")
	// Every parquet scan consults the cache.
	require.Equal(t, []string{"3"}, coldata.RowStrings(run(t, ec, uncached)))
}
