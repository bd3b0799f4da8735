// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package coldata

import (
	"cmp"
	"math"

	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/errors"
)

// Gather returns a new column containing the values at the given indices. A
// negative index produces a null.
func (v *Vec) Gather(idxs []int) *Vec {
	n := len(idxs)
	res := &Vec{name: v.name, typ: v.typ, nulls: NewNulls(n), length: n}
	setNulls := func() {
		for i, idx := range idxs {
			if idx < 0 || v.nulls.NullAt(idx) {
				res.nulls.SetNull(i)
			}
		}
	}
	switch col := v.col.(type) {
	case []bool:
		out := make([]bool, n)
		for i, idx := range idxs {
			if idx >= 0 {
				out[i] = col[idx]
			}
		}
		res.col = out
	case []int64:
		out := make([]int64, n)
		for i, idx := range idxs {
			if idx >= 0 {
				out[i] = col[idx]
			}
		}
		res.col = out
	case []float64:
		out := make([]float64, n)
		for i, idx := range idxs {
			if idx >= 0 {
				out[i] = col[idx]
			}
		}
		res.col = out
	case []string:
		out := make([]string, n)
		for i, idx := range idxs {
			if idx >= 0 {
				out[i] = col[idx]
			}
		}
		res.col = out
	case Categories:
		out := make([]uint32, n)
		for i, idx := range idxs {
			if idx >= 0 {
				out[i] = col.Codes[idx]
			}
		}
		res.col = Categories{Codes: out, Dict: col.Dict}
	case ListCol:
		offsets := make([]int32, 1, n+1)
		var childIdxs []int
		for _, idx := range idxs {
			if idx >= 0 {
				for j := col.Offsets[idx]; j < col.Offsets[idx+1]; j++ {
					childIdxs = append(childIdxs, int(j))
				}
			}
			offsets = append(offsets, int32(len(childIdxs)))
		}
		res.col = ListCol{Offsets: offsets, Child: col.Child.Gather(childIdxs)}
	default:
		panic(errors.AssertionFailedf("unhandled column %T", col))
	}
	setNulls()
	return res
}

// MaskToSelection converts a Bool column into the list of positions that are
// true. Null positions are treated as false.
func MaskToSelection(mask *Vec) ([]int, error) {
	if mask.typ != coltypes.Bool {
		return nil, errors.Mark(
			errors.Newf("filter predicate was not of type boolean, got %s", mask.typ),
			colexecerror.ErrTypeMismatch,
		)
	}
	vals := mask.Bool()
	sel := make([]int, 0, len(vals))
	for i, b := range vals {
		if b && !mask.nulls.NullAt(i) {
			sel = append(sel, i)
		}
	}
	return sel, nil
}

// Broadcast expands a length-1 column to n rows, all equal to the single
// value.
func (v *Vec) Broadcast(n int) (*Vec, error) {
	if v.length != 1 {
		return nil, colexecerror.NewInternalErrorf(
			"cannot broadcast column %q of length %d", v.name, v.length)
	}
	idxs := make([]int, n)
	if v.nulls.NullAt(0) {
		for i := range idxs {
			idxs[i] = -1
		}
	}
	return v.Gather(idxs), nil
}

// ConcatVecs returns the vertical concatenation of the given columns, which
// must all have the same type. The name of the first column is used.
// Categorical columns with different dictionaries are re-encoded into a new
// dictionary.
func ConcatVecs(vecs ...*Vec) (*Vec, error) {
	if len(vecs) == 0 {
		return nil, errors.AssertionFailedf("no columns to concatenate")
	}
	first := vecs[0]
	if len(vecs) == 1 {
		return first, nil
	}
	total := 0
	for _, v := range vecs {
		if v.typ != first.typ {
			return nil, errors.Mark(
				errors.Newf("cannot concatenate column %q of type %s with type %s", v.name, v.typ, first.typ),
				colexecerror.ErrTypeMismatch,
			)
		}
		total += v.length
	}
	res := &Vec{name: first.name, typ: first.typ, nulls: NewNulls(total), length: total}
	switch first.typ {
	case coltypes.Bool:
		out := make([]bool, 0, total)
		for _, v := range vecs {
			out = append(out, v.Bool()...)
		}
		res.col = out
	case coltypes.Int64:
		out := make([]int64, 0, total)
		for _, v := range vecs {
			out = append(out, v.Int64()...)
		}
		res.col = out
	case coltypes.Float64:
		out := make([]float64, 0, total)
		for _, v := range vecs {
			out = append(out, v.Float64()...)
		}
		res.col = out
	case coltypes.Bytes:
		out := make([]string, 0, total)
		for _, v := range vecs {
			out = append(out, v.Bytes()...)
		}
		res.col = out
	case coltypes.Categorical:
		dict := first.Categories().Dict
		sameDict := true
		for _, v := range vecs {
			if v.Categories().Dict != dict {
				sameDict = false
				break
			}
		}
		out := make([]uint32, 0, total)
		if sameDict {
			for _, v := range vecs {
				out = append(out, v.Categories().Codes...)
			}
		} else {
			dict = NewDictionary()
			for _, v := range vecs {
				cats := v.Categories()
				for _, code := range cats.Codes {
					out = append(out, dict.GetOrInsert(cats.Dict.Value(code)))
				}
			}
		}
		res.col = Categories{Codes: out, Dict: dict}
	case coltypes.List:
		offsets := make([]int32, 1, total+1)
		children := make([]*Vec, 0, len(vecs))
		var base int32
		for _, v := range vecs {
			lc := v.ListCol()
			start, end := lc.Offsets[0], lc.Offsets[len(lc.Offsets)-1]
			for _, off := range lc.Offsets[1:] {
				offsets = append(offsets, base+off-start)
			}
			base += end - start
			children = append(children, lc.Child.Window(int(start), int(end)))
		}
		child, err := ConcatVecs(children...)
		if err != nil {
			return nil, err
		}
		res.col = ListCol{Offsets: offsets, Child: child}
	default:
		return nil, errors.AssertionFailedf("unhandled type %s", first.typ)
	}
	pos := 0
	for _, v := range vecs {
		if v.MaybeHasNulls() {
			for i := 0; i < v.length; i++ {
				if v.nulls.NullAt(i) {
					res.nulls.SetNull(pos + i)
				}
			}
		}
		pos += v.length
	}
	return res, nil
}

// ValuesEqual compares the ith value of v with the jth value of other. If
// nullsEqual is false a null never equals anything, including another null,
// which is the semantics of an equality join. Values of different types are
// never equal.
func (v *Vec) ValuesEqual(i int, other *Vec, j int, nullsEqual bool) bool {
	aNull, bNull := v.nulls.NullAt(i), other.nulls.NullAt(j)
	if aNull || bNull {
		return nullsEqual && aNull && bNull
	}
	switch a := v.col.(type) {
	case []int64:
		switch b := other.col.(type) {
		case []int64:
			return a[i] == b[j]
		case []float64:
			return float64(a[i]) == b[j]
		}
	case []float64:
		switch b := other.col.(type) {
		case []float64:
			return a[i] == b[j] || (math.IsNaN(a[i]) && math.IsNaN(b[j]))
		case []int64:
			return a[i] == float64(b[j])
		}
	case []bool:
		if b, ok := other.col.([]bool); ok {
			return a[i] == b[j]
		}
	case []string:
		switch b := other.col.(type) {
		case []string:
			return a[i] == b[j]
		case Categories:
			return a[i] == b.Dict.Value(b.Codes[j])
		}
	case Categories:
		switch b := other.col.(type) {
		case Categories:
			if a.Dict == b.Dict {
				return a.Codes[i] == b.Codes[j]
			}
			return a.Dict.Value(a.Codes[i]) == b.Dict.Value(b.Codes[j])
		case []string:
			return a.Dict.Value(a.Codes[i]) == b[j]
		}
	case ListCol:
		b, ok := other.col.(ListCol)
		if !ok {
			return false
		}
		aStart, aEnd := a.Offsets[i], a.Offsets[i+1]
		bStart, bEnd := b.Offsets[j], b.Offsets[j+1]
		if aEnd-aStart != bEnd-bStart {
			return false
		}
		for k := int32(0); k < aEnd-aStart; k++ {
			if !a.Child.ValuesEqual(int(aStart+k), b.Child, int(bStart+k), true) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare compares the ith and jth values of the column. Nulls sort first.
func (v *Vec) Compare(i, j int) int {
	aNull, bNull := v.nulls.NullAt(i), v.nulls.NullAt(j)
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return -1
	case bNull:
		return 1
	}
	switch col := v.col.(type) {
	case []bool:
		if col[i] == col[j] {
			return 0
		} else if !col[i] {
			return -1
		}
		return 1
	case []int64:
		return cmp.Compare(col[i], col[j])
	case []float64:
		return cmp.Compare(col[i], col[j])
	case []string:
		return cmp.Compare(col[i], col[j])
	case Categories:
		return cmp.Compare(col.Dict.Value(col.Codes[i]), col.Dict.Value(col.Codes[j]))
	default:
		panic(errors.AssertionFailedf("cannot compare values of type %s", v.typ))
	}
}

// Compact returns a copy of the column that does not share memory with any
// other column, with capacity trimmed to its length.
func (v *Vec) Compact() *Vec {
	res := &Vec{name: v.name, typ: v.typ, nulls: v.nulls.compact(), length: v.length}
	switch col := v.col.(type) {
	case []bool:
		res.col = append([]bool(nil), col...)
	case []int64:
		res.col = append([]int64(nil), col...)
	case []float64:
		res.col = append([]float64(nil), col...)
	case []string:
		res.col = append([]string(nil), col...)
	case Categories:
		res.col = Categories{Codes: append([]uint32(nil), col.Codes...), Dict: col.Dict}
	case ListCol:
		start, end := col.Offsets[0], col.Offsets[len(col.Offsets)-1]
		offsets := make([]int32, len(col.Offsets))
		for i, off := range col.Offsets {
			offsets[i] = off - start
		}
		res.col = ListCol{Offsets: offsets, Child: col.Child.Window(int(start), int(end)).Compact()}
	default:
		panic(errors.AssertionFailedf("unhandled column %T", col))
	}
	return res
}
