// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package colserde converts between coldata tables and the arrow columnar
// format, and reads and writes the file formats built on top of it.
package colserde

import (
	"strings"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/col/typeconv"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/errors"
)

// RecordToTable copies the arrow record into a new table. The record may be
// released afterwards.
func RecordToTable(rec arrow.Record) (*coldata.Table, error) {
	cols := make([]*coldata.Vec, rec.NumCols())
	for i := range cols {
		var err error
		if cols[i], err = ArrayToVec(rec.ColumnName(i), rec.Column(i)); err != nil {
			return nil, err
		}
	}
	return coldata.NewTable(cols...)
}

// ArrayToVec copies an arrow array into a new column.
func ArrayToVec(name string, arr arrow.Array) (*coldata.Vec, error) {
	n := arr.Len()
	var v *coldata.Vec
	switch a := arr.(type) {
	case *array.Boolean:
		vals := make([]bool, n)
		for i := range vals {
			vals[i] = a.Value(i)
		}
		v = coldata.NewBoolVec(name, vals)
	case *array.Int64:
		v = coldata.NewInt64Vec(name, append([]int64(nil), a.Int64Values()...))
	case *array.Int32:
		v = intVec(name, n, func(i int) int64 { return int64(a.Value(i)) })
	case *array.Int16:
		v = intVec(name, n, func(i int) int64 { return int64(a.Value(i)) })
	case *array.Int8:
		v = intVec(name, n, func(i int) int64 { return int64(a.Value(i)) })
	case *array.Uint32:
		v = intVec(name, n, func(i int) int64 { return int64(a.Value(i)) })
	case *array.Uint16:
		v = intVec(name, n, func(i int) int64 { return int64(a.Value(i)) })
	case *array.Uint8:
		v = intVec(name, n, func(i int) int64 { return int64(a.Value(i)) })
	case *array.Float64:
		v = coldata.NewFloat64Vec(name, append([]float64(nil), a.Float64Values()...))
	case *array.Float32:
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = float64(a.Value(i))
		}
		v = coldata.NewFloat64Vec(name, vals)
	case *array.String:
		v = coldata.NewBytesVec(name, stringValues(n, a.IsNull, a.Value))
	case *array.LargeString:
		v = coldata.NewBytesVec(name, stringValues(n, a.IsNull, a.Value))
	case *array.Binary:
		v = coldata.NewBytesVec(name, stringValues(n, a.IsNull, a.ValueString))
	case *array.Dictionary:
		dict, err := ArrayToVec(name, a.Dictionary())
		if err != nil {
			return nil, err
		}
		if dict.Type() != coltypes.Bytes {
			return nil, unsupported(name, arr.DataType())
		}
		vals := make([]string, n)
		for i := range vals {
			if !a.IsNull(i) {
				vals[i] = dict.Bytes()[a.GetValueIndex(i)]
			}
		}
		v = coldata.NewCategoricalVec(name, vals)
	case *array.List:
		off := a.Data().Offset()
		offsets := a.Offsets()[off : off+n+1]
		child, err := ArrayToVec(name, a.ListValues())
		if err != nil {
			return nil, err
		}
		base := offsets[0]
		child = child.Window(int(base), int(offsets[n]))
		rebased := make([]int32, n+1)
		for i := range rebased {
			rebased[i] = offsets[i] - base
		}
		v = coldata.NewListVec(name, rebased, child)
	default:
		return nil, unsupported(name, arr.DataType())
	}
	if arr.NullN() > 0 {
		nulls := make([]int, 0, arr.NullN())
		for i := 0; i < n; i++ {
			if arr.IsNull(i) {
				nulls = append(nulls, i)
			}
		}
		v = v.WithNulls(nulls...)
	}
	return v, nil
}

func unsupported(name string, dt arrow.DataType) error {
	return errors.Mark(
		errors.Newf("column %q has unsupported arrow type %s", name, dt),
		colexecerror.ErrTypeMismatch,
	)
}

func intVec(name string, n int, get func(int) int64) *coldata.Vec {
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = get(i)
	}
	return coldata.NewInt64Vec(name, vals)
}

// stringValues copies the strings out of the arrow buffers, which may be
// reused once the record is released.
func stringValues(n int, isNull func(int) bool, get func(int) string) []string {
	vals := make([]string, n)
	for i := range vals {
		if !isNull(i) {
			vals[i] = strings.Clone(get(i))
		}
	}
	return vals
}

// ArrowSchema returns the arrow schema of the table. Every field is nullable.
func ArrowSchema(t *coldata.Table) (*arrow.Schema, error) {
	return arrowSchema(t, false /* plainStrings */)
}

func arrowSchema(t *coldata.Table, plainStrings bool) (*arrow.Schema, error) {
	fields := make([]arrow.Field, t.Width())
	for i, c := range t.ColVecs() {
		dt, err := vecArrowType(c, plainStrings)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: c.Name(), Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

func vecArrowType(v *coldata.Vec, plainStrings bool) (arrow.DataType, error) {
	switch v.Type() {
	case coltypes.List:
		elem, err := vecArrowType(v.ListCol().Child, true /* plainStrings */)
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(elem), nil
	case coltypes.Categorical:
		if plainStrings {
			return arrow.BinaryTypes.String, nil
		}
	}
	return typeconv.ToArrowType(v.Type())
}

// TableToRecord converts the table into an arrow record allocated from mem.
// The caller must release the record.
func TableToRecord(mem memory.Allocator, t *coldata.Table) (arrow.Record, error) {
	return tableToRecord(mem, t, false /* plainStrings */)
}

// tableToRecord converts t into a record. If plainStrings is set,
// Categorical columns are written as plain strings instead of dictionaries.
func tableToRecord(mem memory.Allocator, t *coldata.Table, plainStrings bool) (arrow.Record, error) {
	schema, err := arrowSchema(t, plainStrings)
	if err != nil {
		return nil, err
	}
	cols := make([]arrow.Array, t.Width())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	for i, v := range t.ColVecs() {
		if v.Type() == coltypes.Categorical && !plainStrings {
			cols[i] = categoricalToArray(mem, schema.Field(i).Type, v)
			continue
		}
		b := array.NewBuilder(mem, schema.Field(i).Type)
		for j := 0; j < v.Len(); j++ {
			if err := appendValue(b, v.Get(j)); err != nil {
				b.Release()
				return nil, errors.Wrapf(err, "converting column %q", v.Name())
			}
		}
		cols[i] = b.NewArray()
		b.Release()
	}
	return array.NewRecord(schema, cols, int64(t.Height())), nil
}

func categoricalToArray(mem memory.Allocator, dt arrow.DataType, v *coldata.Vec) arrow.Array {
	cats := v.Categories()
	ib := array.NewUint32Builder(mem)
	defer ib.Release()
	for i, code := range cats.Codes {
		if v.NullAt(i) {
			ib.AppendNull()
		} else {
			ib.Append(code)
		}
	}
	db := array.NewStringBuilder(mem)
	defer db.Release()
	for code := 0; code < cats.Dict.Len(); code++ {
		db.Append(cats.Dict.Value(uint32(code)))
	}
	indices, dict := ib.NewArray(), db.NewArray()
	defer indices.Release()
	defer dict.Release()
	return array.NewDictionaryArray(dt, indices, dict)
}

func appendValue(b array.Builder, val interface{}) error {
	if val == nil {
		b.AppendNull()
		return nil
	}
	switch tb := b.(type) {
	case *array.BooleanBuilder:
		tb.Append(val.(bool))
	case *array.Int64Builder:
		tb.Append(val.(int64))
	case *array.Float64Builder:
		tb.Append(val.(float64))
	case *array.StringBuilder:
		tb.Append(val.(string))
	case *array.ListBuilder:
		tb.Append(true)
		for _, e := range val.([]interface{}) {
			if err := appendValue(tb.ValueBuilder(), e); err != nil {
				return err
			}
		}
	default:
		return errors.AssertionFailedf("unhandled arrow builder %T", b)
	}
	return nil
}
