// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package coldata

import (
	"slices"

	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/errors"
)

// Sort returns the table sorted by the named column. The sort is stable and
// nulls sort first (last when reverse is set).
func (t *Table) Sort(by string, reverse bool) (*Table, error) {
	col, err := t.ColumnByName(by)
	if err != nil {
		return nil, err
	}
	if col.Type() == coltypes.List {
		return nil, errors.Mark(
			errors.Newf("cannot sort by column %q of type %s", by, col.Type()),
			colexecerror.ErrTypeMismatch,
		)
	}
	perm := make([]int, t.height)
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		if reverse {
			return col.Compare(b, a)
		}
		return col.Compare(a, b)
	})
	return t.Gather(perm), nil
}

// Explode unnests the named List columns: every element of the lists in a row
// becomes its own row, and the other columns are repeated. An empty or null
// list produces a single row with a null value. All exploded columns must
// have lists of equal length in every row.
func (t *Table) Explode(columns ...string) (*Table, error) {
	if len(columns) == 0 {
		return t, nil
	}
	lists := make([]*Vec, len(columns))
	for i, name := range columns {
		c, err := t.ColumnByName(name)
		if err != nil {
			return nil, err
		}
		if c.Type() != coltypes.List {
			return nil, errors.Mark(
				errors.Newf("cannot explode column %q of type %s", name, c.Type()),
				colexecerror.ErrTypeMismatch,
			)
		}
		lists[i] = c
	}
	var rowIdxs []int
	childIdxs := make([][]int, len(lists))
	for row := 0; row < t.height; row++ {
		first := lists[0].ListCol()
		n := int(first.Offsets[row+1] - first.Offsets[row])
		if lists[0].NullAt(row) {
			n = 0
		}
		for i, l := range lists[1:] {
			lc := l.ListCol()
			m := int(lc.Offsets[row+1] - lc.Offsets[row])
			if l.NullAt(row) {
				m = 0
			}
			if m != n {
				return nil, errors.Mark(
					errors.Newf("exploded columns %q and %q have different list lengths in row %d",
						columns[0], columns[i+1], row),
					colexecerror.ErrSchema,
				)
			}
		}
		if n == 0 {
			rowIdxs = append(rowIdxs, row)
			for i := range lists {
				childIdxs[i] = append(childIdxs[i], -1)
			}
			continue
		}
		for k := 0; k < n; k++ {
			rowIdxs = append(rowIdxs, row)
			for i, l := range lists {
				childIdxs[i] = append(childIdxs[i], int(l.ListCol().Offsets[row])+k)
			}
		}
	}
	res := &Table{cols: make([]*Vec, len(t.cols)), height: len(rowIdxs)}
	for i, c := range t.cols {
		if j := slices.Index(columns, c.Name()); j >= 0 {
			res.cols[i] = lists[j].ListCol().Child.Gather(childIdxs[j]).Rename(c.Name())
		} else {
			res.cols[i] = c.Gather(rowIdxs)
		}
	}
	return res, nil
}

// Melt unpivots the table from wide to long format. The id columns are
// repeated for every value column, a "variable" column holds the name of the
// value column and a "value" column holds its value. If valueVars is empty,
// every column not in idVars is used.
func (t *Table) Melt(idVars, valueVars []string) (*Table, error) {
	if len(valueVars) == 0 {
		for _, name := range t.Names() {
			if !slices.Contains(idVars, name) {
				valueVars = append(valueVars, name)
			}
		}
	}
	if len(valueVars) == 0 {
		return nil, errors.Mark(errors.New("melt requires at least one value column"), colexecerror.ErrSchema)
	}
	ids, err := t.Select(idVars...)
	if err != nil {
		return nil, err
	}
	idParts := make([]*Table, len(valueVars))
	valueParts := make([]*Vec, len(valueVars))
	variables := make([]string, 0, len(valueVars)*t.height)
	for i, name := range valueVars {
		c, err := t.ColumnByName(name)
		if err != nil {
			return nil, err
		}
		if i > 0 && c.Type() != valueParts[0].Type() {
			return nil, errors.Mark(
				errors.Newf("melt value columns must share a type: %q is %s, %q is %s",
					valueVars[0], valueParts[0].Type(), name, c.Type()),
				colexecerror.ErrTypeMismatch,
			)
		}
		valueParts[i] = c.Rename("value")
		idParts[i] = ids
		for j := 0; j < t.height; j++ {
			variables = append(variables, name)
		}
	}
	res, err := ConcatTables(idParts...)
	if err != nil {
		return nil, err
	}
	value, err := ConcatVecs(valueParts...)
	if err != nil {
		return nil, err
	}
	if res.Width() == 0 {
		res.height = value.Len()
	}
	if res, err = res.ReplaceOrAppend(NewBytesVec("variable", variables)); err != nil {
		return nil, err
	}
	return res.ReplaceOrAppend(value)
}
