// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colserde

import (
	"context"
	"io"
	"slices"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/apache/arrow/go/v11/parquet"
	"github.com/apache/arrow/go/v11/parquet/file"
	"github.com/apache/arrow/go/v11/parquet/pqarrow"
	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/errors"
)

// ParquetOptions configures ReadParquet.
type ParquetOptions struct {
	// Columns restricts the read to the named columns, in that order. Nil
	// reads every column.
	Columns []string
	// MaxRows stops the read after that many rows. Zero means no limit.
	MaxRows int
}

// ReadParquet reads a parquet file into a table, one row group at a time.
// Only the row groups needed to satisfy MaxRows are decoded.
func ReadParquet(
	ctx context.Context, r parquet.ReaderAtSeeker, opts ParquetOptions,
) (*coldata.Table, error) {
	pf, err := file.NewParquetReader(r)
	if err != nil {
		return nil, colexecerror.WrapIO(err, "opening parquet file")
	}
	defer pf.Close()
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: 1 << 16}, memory.DefaultAllocator)
	if err != nil {
		return nil, colexecerror.WrapParse(err, "reading parquet schema")
	}

	leaves, err := projectLeaves(pf, opts.Columns)
	if err != nil {
		return nil, err
	}

	var parts []*coldata.Table
	rows := 0
	for rg := 0; rg < pf.NumRowGroups(); rg++ {
		if opts.MaxRows > 0 && rows >= opts.MaxRows {
			break
		}
		tbl, err := fr.ReadRowGroups(ctx, leaves, []int{rg})
		if err != nil {
			return nil, colexecerror.WrapParse(err, "reading parquet row group %d", rg)
		}
		t, err := arrowTableToTable(tbl)
		tbl.Release()
		if err != nil {
			return nil, err
		}
		parts = append(parts, t)
		rows += t.Height()
	}

	var res *coldata.Table
	if len(parts) == 0 {
		tbl, err := fr.ReadRowGroups(ctx, leaves, nil /* rowGroups */)
		if err != nil {
			return nil, colexecerror.WrapParse(err, "reading parquet file")
		}
		res, err = arrowTableToTable(tbl)
		tbl.Release()
		if err != nil {
			return nil, err
		}
	} else if res, err = coldata.ConcatTables(parts...); err != nil {
		return nil, err
	}
	if opts.MaxRows > 0 {
		res = res.Head(opts.MaxRows)
	}
	if opts.Columns != nil {
		return res.Select(opts.Columns...)
	}
	return res, nil
}

// projectLeaves returns the indices of the leaf columns that belong to the
// named top-level columns, or of every leaf if columns is nil.
func projectLeaves(pf *file.Reader, columns []string) ([]int, error) {
	sc := pf.MetaData().Schema
	var leaves []int
	found := make(map[string]bool, len(columns))
	for i := 0; i < sc.NumColumns(); i++ {
		top := sc.Column(i).ColumnPath()[0]
		if columns == nil || slices.Contains(columns, top) {
			leaves = append(leaves, i)
			found[top] = true
		}
	}
	for _, c := range columns {
		if !found[c] {
			return nil, errors.Mark(
				errors.Newf("column %q not found in parquet file", c), colexecerror.ErrSchema)
		}
	}
	return leaves, nil
}

func arrowTableToTable(tbl arrow.Table) (*coldata.Table, error) {
	cols := make([]*coldata.Vec, tbl.NumCols())
	for i := range cols {
		col := tbl.Column(i)
		chunks := col.Data().Chunks()
		vecs := make([]*coldata.Vec, 0, len(chunks))
		for _, chunk := range chunks {
			v, err := ArrayToVec(col.Name(), chunk)
			if err != nil {
				return nil, err
			}
			vecs = append(vecs, v)
		}
		if len(vecs) == 0 {
			// An empty chunked column still needs a typed, zero-length vector.
			b := array.NewBuilder(memory.DefaultAllocator, col.DataType())
			empty := b.NewArray()
			v, err := ArrayToVec(col.Name(), empty)
			empty.Release()
			b.Release()
			if err != nil {
				return nil, err
			}
			vecs = append(vecs, v)
		}
		var err error
		if cols[i], err = coldata.ConcatVecs(vecs...); err != nil {
			return nil, err
		}
	}
	return coldata.NewTable(cols...)
}

// WriteParquet writes the table to w as a single parquet file. Categorical
// columns are written as plain strings.
func WriteParquet(w io.Writer, t *coldata.Table, rowGroupSize int64) error {
	rec, err := tableToRecord(memory.DefaultAllocator, t, true /* plainStrings */)
	if err != nil {
		return err
	}
	defer rec.Release()
	props := parquet.NewWriterProperties(parquet.WithMaxRowGroupLength(rowGroupSize))
	fw, err := pqarrow.NewFileWriter(rec.Schema(), w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return colexecerror.WrapIO(err, "creating parquet writer")
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return colexecerror.WrapIO(err, "writing parquet file")
	}
	return colexecerror.WrapIO(fw.Close(), "closing parquet writer")
}
