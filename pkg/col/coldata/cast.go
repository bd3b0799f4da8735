// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package coldata

import (
	"strconv"

	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/errors"
)

// Cast converts the column to typ. Supported conversions are between the
// numeric types, from Bool to the numeric types, between Bytes and
// Categorical, from any scalar type to Bytes or Categorical, and parsing
// Bytes or Categorical into Bool, Int64 and Float64. Values that cannot be
// parsed fail the cast with a parse error. Nulls are preserved.
func (v *Vec) Cast(typ coltypes.T) (*Vec, error) {
	if v.typ == typ {
		return v, nil
	}
	if v.typ == coltypes.List || typ == coltypes.List || typ == coltypes.Unhandled {
		return nil, errors.Mark(
			errors.Newf("cannot cast column %q from %s to %s", v.name, v.typ, typ),
			colexecerror.ErrTypeMismatch,
		)
	}
	switch typ {
	case coltypes.Bytes, coltypes.Categorical:
		strs := make([]string, v.length)
		for i := range strs {
			if !v.nulls.NullAt(i) {
				strs[i] = formatValue(v.Get(i))
			}
		}
		var res *Vec
		if typ == coltypes.Bytes {
			res = NewBytesVec(v.name, strs)
		} else {
			res = NewCategoricalVec(v.name, strs)
		}
		res.nulls = v.nulls.compact()
		return res, nil
	}

	b := NewBuilder(v.name, typ)
	for i := 0; i < v.length; i++ {
		val := v.Get(i)
		if val == nil {
			b.AppendNull()
			continue
		}
		converted, err := castValue(val, typ)
		if err != nil {
			return nil, errors.Wrapf(err, "casting column %q to %s", v.name, typ)
		}
		if err := b.Append(converted); err != nil {
			return nil, err
		}
	}
	return b.Finish(), nil
}

func castValue(val interface{}, typ coltypes.T) (interface{}, error) {
	switch t := val.(type) {
	case bool:
		var n int64
		if t {
			n = 1
		}
		switch typ {
		case coltypes.Int64:
			return n, nil
		case coltypes.Float64:
			return float64(n), nil
		}
	case int64:
		switch typ {
		case coltypes.Float64:
			return float64(t), nil
		case coltypes.Bool:
			return t != 0, nil
		}
	case float64:
		switch typ {
		case coltypes.Int64:
			return int64(t), nil
		case coltypes.Bool:
			return t != 0, nil
		}
	case string:
		var res interface{}
		var err error
		switch typ {
		case coltypes.Bool:
			res, err = strconv.ParseBool(t)
		case coltypes.Int64:
			res, err = strconv.ParseInt(t, 10, 64)
		case coltypes.Float64:
			res, err = strconv.ParseFloat(t, 64)
		}
		if err != nil {
			return nil, errors.Mark(err, colexecerror.ErrParse)
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, errors.Mark(
		errors.Newf("cannot cast %T to %s", val, typ), colexecerror.ErrTypeMismatch)
}
