// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colserde

import (
	"bufio"
	"context"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/csv"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/col/typeconv"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/util/log"
	"github.com/cockroachdb/errors"
)

// CSVOptions configures ReadCSV.
type CSVOptions struct {
	// Schema lists the columns of the file in order. Categorical columns are
	// read as strings and dictionary-encoded afterwards.
	Schema []coltypes.Field
	// HasHeader is set if the first (non-skipped) line holds column names.
	// The names in the header replace the names in Schema.
	HasHeader bool
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// SkipRows is the number of lines skipped before the header or the data.
	SkipRows int
	// IgnoreErrors drops rows with values that cannot be parsed instead of
	// failing the read.
	IgnoreErrors bool
	// MaxRows stops the read after that many rows. Zero means no limit.
	MaxRows int
}

const csvChunkSize = 1 << 14

// ReadCSV reads a CSV file into a table. Empty fields are null.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) (*coldata.Table, error) {
	if len(opts.Schema) == 0 {
		return nil, errors.Mark(errors.New("csv read requires a schema"), colexecerror.ErrSchema)
	}
	br := bufio.NewReader(r)
	for i := 0; i < opts.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				break
			}
			return nil, colexecerror.WrapIO(err, "skipping csv rows")
		}
	}
	fields := make([]arrow.Field, len(opts.Schema))
	for i, f := range opts.Schema {
		dt := arrow.DataType(arrow.BinaryTypes.String)
		if !opts.IgnoreErrors {
			switch f.Type {
			case coltypes.Bool, coltypes.Int64, coltypes.Float64:
				var err error
				if dt, err = typeconv.ToArrowType(f.Type); err != nil {
					return nil, err
				}
			case coltypes.Bytes, coltypes.Categorical:
			default:
				return nil, errors.Mark(
					errors.Newf("csv column %q cannot have type %s", f.Name, f.Type),
					colexecerror.ErrTypeMismatch,
				)
			}
		}
		fields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: true}
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	rdr := csv.NewReader(br, arrow.NewSchema(fields, nil),
		csv.WithAllocator(memory.DefaultAllocator),
		csv.WithComma(delim),
		csv.WithHeader(opts.HasHeader),
		csv.WithChunk(csvChunkSize),
		csv.WithNullReader(true, ""),
	)
	defer rdr.Release()

	var parts []*coldata.Table
	rows := 0
	for rdr.Next() {
		if err := rdr.Err(); err != nil {
			return nil, colexecerror.WrapParse(err, "reading csv")
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := RecordToTable(rdr.Record())
		if err != nil {
			return nil, err
		}
		if opts.IgnoreErrors {
			if t, err = parseLenient(ctx, t, opts.Schema); err != nil {
				return nil, err
			}
		}
		parts = append(parts, t)
		rows += t.Height()
		if opts.MaxRows > 0 && rows >= opts.MaxRows {
			break
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, colexecerror.WrapParse(err, "reading csv")
	}
	var res *coldata.Table
	if len(parts) == 0 {
		res = emptyTable(rdr.Schema(), opts.Schema)
	} else {
		var err error
		if res, err = coldata.ConcatTables(parts...); err != nil {
			return nil, err
		}
	}
	if opts.MaxRows > 0 {
		res = res.Head(opts.MaxRows)
	}
	return toCategorical(res, opts.Schema)
}

// emptyTable returns a table without rows. The names come from the reader
// schema, which reflects the header if there was one.
func emptyTable(schema *arrow.Schema, fields []coltypes.Field) *coldata.Table {
	cols := make([]*coldata.Vec, len(fields))
	for i, f := range fields {
		typ := f.Type
		if typ == coltypes.Categorical {
			typ = coltypes.Bytes
		}
		cols[i] = coldata.NewBuilder(schema.Field(i).Name, typ).Finish()
	}
	t, err := coldata.NewTable(cols...)
	if err != nil {
		// Header names were validated by the reader.
		panic(err)
	}
	return t
}

// parseLenient converts the all-string table t into the schema types,
// dropping every row where a non-null field fails to parse.
func parseLenient(
	ctx context.Context, t *coldata.Table, schema []coltypes.Field,
) (*coldata.Table, error) {
	bad := make([]bool, t.Height())
	dropped := 0
	for i, f := range schema {
		col := t.ColVec(i)
		for row := 0; row < t.Height(); row++ {
			if bad[row] || col.NullAt(row) {
				continue
			}
			s := col.Bytes()[row]
			var err error
			switch f.Type {
			case coltypes.Bool:
				_, err = strconv.ParseBool(s)
			case coltypes.Int64:
				_, err = strconv.ParseInt(s, 10, 64)
			case coltypes.Float64:
				_, err = strconv.ParseFloat(s, 64)
			}
			if err != nil {
				bad[row] = true
				dropped++
			}
		}
	}
	if dropped > 0 {
		log.VEventf(ctx, 2, "csv: dropped %d unparsable rows", dropped)
		mask := make([]bool, len(bad))
		for i, b := range bad {
			mask[i] = !b
		}
		var err error
		if t, err = t.Filter(coldata.NewBoolVec("mask", mask)); err != nil {
			return nil, err
		}
	}
	cols := make([]*coldata.Vec, t.Width())
	for i, f := range schema {
		typ := f.Type
		if typ == coltypes.Categorical {
			typ = coltypes.Bytes
		}
		var err error
		if cols[i], err = t.ColVec(i).Cast(typ); err != nil {
			return nil, colexecerror.InternalError(err)
		}
	}
	return coldata.NewTable(cols...)
}

func toCategorical(t *coldata.Table, schema []coltypes.Field) (*coldata.Table, error) {
	res := t
	for i, f := range schema {
		if f.Type != coltypes.Categorical {
			continue
		}
		c, err := t.ColVec(i).Cast(coltypes.Categorical)
		if err != nil {
			return nil, err
		}
		if res, err = res.ReplaceOrAppend(c); err != nil {
			return nil, err
		}
	}
	return res, nil
}
