// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package coldata

import (
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/errors"
)

// Table is an ordered collection of equal-length, uniquely named columns.
// Tables are values: operations return new tables and never modify the
// columns of the receiver, so tables may share columns freely.
type Table struct {
	cols   []*Vec
	height int
	// id is assigned on the first call to ID.
	id atomic.Uint64
}

var lastTableID atomic.Uint64

// ID returns an identifier that no other table in the process shares, even
// after t is garbage collected. Derived tables, including clones, get their
// own ID.
func (t *Table) ID() uint64 {
	if id := t.id.Load(); id != 0 {
		return id
	}
	t.id.CompareAndSwap(0, lastTableID.Add(1))
	return t.id.Load()
}

// NewTable returns a table over the given columns. It fails with a schema
// error if two columns share a name, and with an internal error if the
// columns differ in length.
func NewTable(cols ...*Vec) (*Table, error) {
	t := &Table{cols: cols}
	if len(cols) > 0 {
		t.height = cols[0].Len()
	}
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if c.Len() != t.height {
			return nil, colexecerror.NewInternalErrorf(
				"column %q has length %d, expected %d", c.Name(), c.Len(), t.height)
		}
		if _, ok := seen[c.Name()]; ok {
			return nil, errors.Mark(
				errors.Newf("duplicate column name %q", c.Name()), colexecerror.ErrSchema)
		}
		seen[c.Name()] = struct{}{}
	}
	return t, nil
}

// Height returns the number of rows in the table.
func (t *Table) Height() int { return t.height }

// Width returns the number of columns in the table.
func (t *Table) Width() int { return len(t.cols) }

// ColVec returns the ith column.
func (t *Table) ColVec(i int) *Vec { return t.cols[i] }

// ColVecs returns the columns of the table. The slice must not be modified.
func (t *Table) ColVecs() []*Vec { return t.cols }

// Names returns the column names in schema order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name()
	}
	return names
}

// Types returns the column types in schema order.
func (t *Table) Types() []coltypes.T {
	typs := make([]coltypes.T, len(t.cols))
	for i, c := range t.cols {
		typs[i] = c.Type()
	}
	return typs
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.cols {
		if c.Name() == name {
			return i
		}
	}
	return -1
}

// ColumnByName returns the named column, failing with a schema error if it
// does not exist.
func (t *Table) ColumnByName(name string) (*Vec, error) {
	if i := t.ColumnIndex(name); i >= 0 {
		return t.cols[i], nil
	}
	return nil, errors.Mark(
		errors.Newf("column %q not found; available columns: %s", name, strings.Join(t.Names(), ", ")),
		colexecerror.ErrSchema,
	)
}

// Clone returns a table that shares the columns of t but can be modified
// (columns added, replaced or dropped) independently of t.
func (t *Table) Clone() *Table {
	return &Table{cols: append([]*Vec(nil), t.cols...), height: t.height}
}

// ReplaceOrAppend returns a table where the column with the same name as v is
// replaced by v, or where v is appended if there is no such column.
func (t *Table) ReplaceOrAppend(v *Vec) (*Table, error) {
	if len(t.cols) > 0 && v.Len() != t.height {
		return nil, colexecerror.NewInternalErrorf(
			"column %q has length %d, expected %d", v.Name(), v.Len(), t.height)
	}
	res := t.Clone()
	if len(t.cols) == 0 {
		res.height = v.Len()
	}
	if i := t.ColumnIndex(v.Name()); i >= 0 {
		res.cols[i] = v
	} else {
		res.cols = append(res.cols, v)
	}
	return res, nil
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Vec, len(names))
	for i, name := range names {
		c, err := t.ColumnByName(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	res, err := NewTable(cols...)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		res.height = t.height
	}
	return res, nil
}

// Drop returns a table without the named column.
func (t *Table) Drop(name string) *Table {
	res := &Table{height: t.height}
	for _, c := range t.cols {
		if c.Name() != name {
			res.cols = append(res.cols, c)
		}
	}
	return res
}

// Gather returns a table with the rows at the given positions. A negative
// position produces a row of nulls.
func (t *Table) Gather(idxs []int) *Table {
	res := &Table{cols: make([]*Vec, len(t.cols)), height: len(idxs)}
	for i, c := range t.cols {
		res.cols[i] = c.Gather(idxs)
	}
	return res
}

// Filter returns the rows for which mask is true. The mask must be a Bool
// column of the same height; nulls count as false.
func (t *Table) Filter(mask *Vec) (*Table, error) {
	if mask.Len() != t.height {
		if mask.Len() == 1 && mask.Type() == coltypes.Bool {
			var err error
			if mask, err = mask.Broadcast(t.height); err != nil {
				return nil, err
			}
		} else {
			return nil, colexecerror.NewInternalErrorf(
				"filter mask has length %d, expected %d", mask.Len(), t.height)
		}
	}
	sel, err := MaskToSelection(mask)
	if err != nil {
		return nil, err
	}
	if len(sel) == t.height {
		return t, nil
	}
	return t.Gather(sel), nil
}

// Window returns the rows in [start, end) without copying.
func (t *Table) Window(start, end int) *Table {
	res := &Table{cols: make([]*Vec, len(t.cols)), height: end - start}
	for i, c := range t.cols {
		res.cols[i] = c.Window(start, end)
	}
	return res
}

// Slice returns length rows starting at offset. A negative offset counts
// from the end of the table. The range is clamped to the table bounds.
func (t *Table) Slice(offset int64, length int) *Table {
	start := offset
	if start < 0 {
		start += int64(t.height)
		if start < 0 {
			start = 0
		}
	}
	if start > int64(t.height) {
		start = int64(t.height)
	}
	end := start + int64(length)
	if end > int64(t.height) || end < start {
		end = int64(t.height)
	}
	return t.Window(int(start), int(end))
}

// Head returns the first n rows of the table.
func (t *Table) Head(n int) *Table {
	if n >= t.height {
		return t
	}
	return t.Window(0, n)
}

// Rechunk returns a table whose columns own tightly sized, contiguous
// storage, dropping any reference to larger shared buffers.
func (t *Table) Rechunk() *Table {
	res := &Table{cols: make([]*Vec, len(t.cols)), height: t.height}
	for i, c := range t.cols {
		res.cols[i] = c.Compact()
	}
	return res
}

// ConcatTables stacks tables with the same schema vertically.
func ConcatTables(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return &Table{}, nil
	}
	first := tables[0]
	if len(tables) == 1 {
		return first, nil
	}
	cols := make([]*Vec, first.Width())
	for i := range cols {
		vecs := make([]*Vec, len(tables))
		for j, t := range tables {
			if t.Width() != first.Width() {
				return nil, errors.Mark(
					errors.Newf("cannot concatenate tables of width %d and %d", first.Width(), t.Width()),
					colexecerror.ErrSchema,
				)
			}
			if t.cols[i].Name() != first.cols[i].Name() {
				return nil, errors.Mark(
					errors.Newf("cannot concatenate column %q with column %q", t.cols[i].Name(), first.cols[i].Name()),
					colexecerror.ErrSchema,
				)
			}
			vecs[j] = t.cols[i]
		}
		var err error
		if cols[i], err = ConcatVecs(vecs...); err != nil {
			return nil, err
		}
	}
	return NewTable(cols...)
}

// SplitTable splits t into at most n row-contiguous partitions whose heights
// differ by at most one. Empty partitions are omitted, but at least one
// partition is always returned.
func SplitTable(t *Table, n int) []*Table {
	if n <= 1 || t.height <= 1 {
		return []*Table{t}
	}
	if n > t.height {
		n = t.height
	}
	parts := make([]*Table, 0, n)
	chunk, rem := t.height/n, t.height%n
	start := 0
	for i := 0; i < n; i++ {
		size := chunk
		if i < rem {
			size++
		}
		parts = append(parts, t.Window(start, start+size))
		start += size
	}
	return parts
}

// String renders the table as a header line followed by one line per row.
func (t *Table) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Names(), " "))
	for i := 0; i < t.height; i++ {
		b.WriteByte('\n')
		for j, c := range t.cols {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(c.PrettyValueAt(i))
		}
	}
	return b.String()
}
