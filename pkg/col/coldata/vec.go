// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package coldata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/errors"
)

// Column is an interface that represents a raw array of a Go native type.
// It is one of []bool, []int64, []float64, []string, Categories or ListCol.
type Column interface{}

// Vec is a named, typed column of values with a null bitmap. A Vec is
// immutable once it has been constructed: every operation returns a new Vec
// that may share memory with the receiver.
type Vec struct {
	name   string
	typ    coltypes.T
	col    Column
	nulls  Nulls
	length int
}

// Categories is the physical representation of a Categorical column.
type Categories struct {
	Codes []uint32
	Dict  *Dictionary
}

// ListCol is the physical representation of a List column. Row i holds the
// child values in [Offsets[i], Offsets[i+1]).
type ListCol struct {
	Offsets []int32
	Child   *Vec
}

// Dictionary maps categorical codes to strings. It is append-only while a
// column is being built and read-only afterwards.
type Dictionary struct {
	values []string
	index  map[string]uint32
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{index: make(map[string]uint32)}
}

// GetOrInsert returns the code for s, adding s to the dictionary if needed.
func (d *Dictionary) GetOrInsert(s string) uint32 {
	if code, ok := d.index[s]; ok {
		return code
	}
	code := uint32(len(d.values))
	d.values = append(d.values, s)
	d.index[s] = code
	return code
}

// Value returns the string for the given code.
func (d *Dictionary) Value(code uint32) string {
	return d.values[code]
}

// Len returns the number of distinct strings in the dictionary.
func (d *Dictionary) Len() int {
	return len(d.values)
}

func newVec(name string, typ coltypes.T, col Column, length int) *Vec {
	return &Vec{name: name, typ: typ, col: col, nulls: NewNulls(length), length: length}
}

// NewBoolVec returns a Bool column over vals.
func NewBoolVec(name string, vals []bool) *Vec {
	return newVec(name, coltypes.Bool, vals, len(vals))
}

// NewInt64Vec returns an Int64 column over vals.
func NewInt64Vec(name string, vals []int64) *Vec {
	return newVec(name, coltypes.Int64, vals, len(vals))
}

// NewFloat64Vec returns a Float64 column over vals.
func NewFloat64Vec(name string, vals []float64) *Vec {
	return newVec(name, coltypes.Float64, vals, len(vals))
}

// NewBytesVec returns a string column over vals.
func NewBytesVec(name string, vals []string) *Vec {
	return newVec(name, coltypes.Bytes, vals, len(vals))
}

// NewCategoricalVec dictionary-encodes vals into a new Categorical column.
func NewCategoricalVec(name string, vals []string) *Vec {
	dict := NewDictionary()
	codes := make([]uint32, len(vals))
	for i, s := range vals {
		codes[i] = dict.GetOrInsert(s)
	}
	return newVec(name, coltypes.Categorical, Categories{Codes: codes, Dict: dict}, len(vals))
}

// NewListVec returns a List column. offsets must have one more element than
// the number of rows.
func NewListVec(name string, offsets []int32, child *Vec) *Vec {
	return newVec(name, coltypes.List, ListCol{Offsets: offsets, Child: child}, len(offsets)-1)
}

// WithNulls returns a copy of v where the given positions are null.
func (v *Vec) WithNulls(idxs ...int) *Vec {
	res := *v
	res.nulls = v.nulls.compact()
	for _, i := range idxs {
		res.nulls.SetNull(i)
	}
	return &res
}

// Name returns the name of the column.
func (v *Vec) Name() string { return v.name }

// Type returns the physical type of the column.
func (v *Vec) Type() coltypes.T { return v.typ }

// Len returns the number of values in the column.
func (v *Vec) Len() int { return v.length }

// Nulls returns the null bitmap of the column.
func (v *Vec) Nulls() *Nulls { return &v.nulls }

// MaybeHasNulls returns true if the column possibly contains nulls.
func (v *Vec) MaybeHasNulls() bool { return v.nulls.MaybeHasNulls() }

// NullAt returns whether the ith value is null.
func (v *Vec) NullAt(i int) bool { return v.nulls.NullAt(i) }

// Col returns the raw Go column.
func (v *Vec) Col() Column { return v.col }

// Bool returns the values of a Bool column.
func (v *Vec) Bool() []bool { return v.col.([]bool) }

// Int64 returns the values of an Int64 column.
func (v *Vec) Int64() []int64 { return v.col.([]int64) }

// Float64 returns the values of a Float64 column.
func (v *Vec) Float64() []float64 { return v.col.([]float64) }

// Bytes returns the values of a string column.
func (v *Vec) Bytes() []string { return v.col.([]string) }

// Categories returns the codes and dictionary of a Categorical column.
func (v *Vec) Categories() Categories { return v.col.(Categories) }

// ListCol returns the offsets and child of a List column.
func (v *Vec) ListCol() ListCol { return v.col.(ListCol) }

// DistinctCount returns the size of the dictionary of a Categorical column.
// The second return value is false for every other type.
func (v *Vec) DistinctCount() (int, bool) {
	if v.typ != coltypes.Categorical {
		return 0, false
	}
	return v.Categories().Dict.Len(), true
}

// Rename returns a copy of the column with a different name. The values are
// shared.
func (v *Vec) Rename(name string) *Vec {
	res := *v
	res.name = name
	return &res
}

// Window returns a window [start, end) into the column. It shares memory with
// the receiver.
func (v *Vec) Window(start, end int) *Vec {
	if start < 0 || end > v.length || start > end {
		panic(errors.AssertionFailedf("window [%d, %d) out of bounds for length %d", start, end, v.length))
	}
	res := &Vec{name: v.name, typ: v.typ, nulls: v.nulls.Slice(start, end), length: end - start}
	switch col := v.col.(type) {
	case []bool:
		res.col = col[start:end]
	case []int64:
		res.col = col[start:end]
	case []float64:
		res.col = col[start:end]
	case []string:
		res.col = col[start:end]
	case Categories:
		res.col = Categories{Codes: col.Codes[start:end], Dict: col.Dict}
	case ListCol:
		res.col = ListCol{Offsets: col.Offsets[start : end+1], Child: col.Child}
	default:
		panic(errors.AssertionFailedf("unhandled column %T", col))
	}
	return res
}

// Get returns the ith value as a Go value: bool, int64, float64, string or
// []interface{} for lists. Null values are returned as nil.
func (v *Vec) Get(i int) interface{} {
	if v.nulls.NullAt(i) {
		return nil
	}
	switch col := v.col.(type) {
	case []bool:
		return col[i]
	case []int64:
		return col[i]
	case []float64:
		return col[i]
	case []string:
		return col[i]
	case Categories:
		return col.Dict.Value(col.Codes[i])
	case ListCol:
		start, end := int(col.Offsets[i]), int(col.Offsets[i+1])
		res := make([]interface{}, 0, end-start)
		for j := start; j < end; j++ {
			res = append(res, col.Child.Get(j))
		}
		return res
	default:
		panic(errors.AssertionFailedf("unhandled column %T", col))
	}
}

// PrettyValueAt returns a string representation of the ith value.
func (v *Vec) PrettyValueAt(i int) string {
	return formatValue(v.Get(i))
}

func formatValue(val interface{}) string {
	switch t := val.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []interface{}:
		parts := make([]string, len(t))
		for i := range t {
			parts[i] = formatValue(t[i])
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprint(t)
	}
}

// String implements the fmt.Stringer interface.
func (v *Vec) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s)[", v.name, v.typ)
	for i := 0; i < v.length; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v.PrettyValueAt(i))
	}
	b.WriteByte(']')
	return b.String()
}
