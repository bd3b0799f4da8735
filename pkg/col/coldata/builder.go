// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package coldata

import (
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/errors"
)

// Builder accumulates Go values into a new Vec. It is used by sources that
// produce values one at a time, like the arrow converter and the tests.
type Builder struct {
	name  string
	typ   coltypes.T
	nulls []int
	n     int

	bools   []bool
	ints    []int64
	floats  []float64
	strs    []string
	codes   []uint32
	dict    *Dictionary
	offsets []int32
	child   *Builder
}

// NewBuilder returns a Builder for a scalar column of the given type.
func NewBuilder(name string, typ coltypes.T) *Builder {
	b := &Builder{name: name, typ: typ}
	if typ == coltypes.Categorical {
		b.dict = NewDictionary()
	}
	return b
}

// NewListBuilder returns a Builder for a List column whose elements have the
// given type.
func NewListBuilder(name string, elemType coltypes.T) *Builder {
	return &Builder{
		name:    name,
		typ:     coltypes.List,
		offsets: []int32{0},
		child:   NewBuilder(name, elemType),
	}
}

// AppendNull appends a null value.
func (b *Builder) AppendNull() {
	b.nulls = append(b.nulls, b.n)
	switch b.typ {
	case coltypes.Bool:
		b.bools = append(b.bools, false)
	case coltypes.Int64:
		b.ints = append(b.ints, 0)
	case coltypes.Float64:
		b.floats = append(b.floats, 0)
	case coltypes.Bytes:
		b.strs = append(b.strs, "")
	case coltypes.Categorical:
		b.codes = append(b.codes, b.dict.GetOrInsert(""))
	case coltypes.List:
		b.offsets = append(b.offsets, b.offsets[len(b.offsets)-1])
	}
	b.n++
}

// Append appends a Go value. nil appends a null. Integers are accepted for
// Float64 columns; everything else must match the column type exactly.
func (b *Builder) Append(val interface{}) error {
	if val == nil {
		b.AppendNull()
		return nil
	}
	ok := true
	switch b.typ {
	case coltypes.Bool:
		var v bool
		if v, ok = val.(bool); ok {
			b.bools = append(b.bools, v)
		}
	case coltypes.Int64:
		switch v := val.(type) {
		case int64:
			b.ints = append(b.ints, v)
		case int:
			b.ints = append(b.ints, int64(v))
		case int32:
			b.ints = append(b.ints, int64(v))
		default:
			ok = false
		}
	case coltypes.Float64:
		switch v := val.(type) {
		case float64:
			b.floats = append(b.floats, v)
		case float32:
			b.floats = append(b.floats, float64(v))
		case int64:
			b.floats = append(b.floats, float64(v))
		case int:
			b.floats = append(b.floats, float64(v))
		default:
			ok = false
		}
	case coltypes.Bytes:
		var v string
		if v, ok = val.(string); ok {
			b.strs = append(b.strs, v)
		}
	case coltypes.Categorical:
		var v string
		if v, ok = val.(string); ok {
			b.codes = append(b.codes, b.dict.GetOrInsert(v))
		}
	case coltypes.List:
		var elems []interface{}
		if elems, ok = val.([]interface{}); ok {
			for _, e := range elems {
				if err := b.child.Append(e); err != nil {
					return err
				}
			}
			b.offsets = append(b.offsets, int32(b.child.n))
		}
	default:
		return errors.AssertionFailedf("unhandled type %s", b.typ)
	}
	if !ok {
		return errors.Mark(
			errors.Newf("cannot append %T to column %q of type %s", val, b.name, b.typ),
			colexecerror.ErrTypeMismatch,
		)
	}
	b.n++
	return nil
}

// Len returns the number of values appended so far.
func (b *Builder) Len() int {
	return b.n
}

// Finish returns the built column. The Builder must not be used afterwards.
func (b *Builder) Finish() *Vec {
	var v *Vec
	switch b.typ {
	case coltypes.Bool:
		v = NewBoolVec(b.name, b.bools)
	case coltypes.Int64:
		v = NewInt64Vec(b.name, b.ints)
	case coltypes.Float64:
		v = NewFloat64Vec(b.name, b.floats)
	case coltypes.Bytes:
		v = NewBytesVec(b.name, b.strs)
	case coltypes.Categorical:
		v = newVec(b.name, coltypes.Categorical, Categories{Codes: b.codes, Dict: b.dict}, len(b.codes))
	case coltypes.List:
		v = NewListVec(b.name, b.offsets, b.child.Finish())
	default:
		panic(errors.AssertionFailedf("unhandled type %s", b.typ))
	}
	for _, i := range b.nulls {
		v.nulls.SetNull(i)
	}
	return v
}

// NewVecFromValues builds a column from Go values; nil values become nulls.
func NewVecFromValues(name string, typ coltypes.T, vals ...interface{}) (*Vec, error) {
	b := NewBuilder(name, typ)
	for _, val := range vals {
		if err := b.Append(val); err != nil {
			return nil, err
		}
	}
	return b.Finish(), nil
}
