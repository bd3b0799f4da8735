// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package coldata

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/util/buildutil"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *Table {
	tab, err := NewTable(
		NewInt64Vec("id", []int64{3, 1, 2, 4}).WithNulls(3),
		NewBytesVec("name", []string{"c", "a", "b", "d"}),
		NewFloat64Vec("score", []float64{0.5, 1, 1.5, 2}),
	)
	require.NoError(t, err)
	return tab
}

func TestNewTable(t *testing.T) {
	_, err := NewTable(NewInt64Vec("a", []int64{1}), NewBytesVec("a", []string{"x"}))
	require.True(t, errors.Is(err, colexecerror.ErrSchema), "%v", err)

	mismatched := func() error {
		_, err := NewTable(NewInt64Vec("a", []int64{1}), NewInt64Vec("b", []int64{1, 2}))
		return err
	}
	if buildutil.CrdbTestBuild {
		require.Panics(t, func() { _ = mismatched() })
	} else {
		require.True(t, colexecerror.IsInternal(mismatched()))
	}

	empty, err := NewTable()
	require.NoError(t, err)
	require.Zero(t, empty.Height())
	require.Zero(t, empty.Width())
}

func TestTableColumns(t *testing.T) {
	tab := testTable(t)
	require.Equal(t, []string{"id", "name", "score"}, tab.Names())
	require.Equal(t, 1, tab.ColumnIndex("name"))
	require.Equal(t, -1, tab.ColumnIndex("nope"))

	_, err := tab.ColumnByName("nope")
	require.True(t, errors.Is(err, colexecerror.ErrSchema), "%v", err)
	require.Contains(t, err.Error(), "available columns: id, name, score")

	sel, err := tab.Select("score", "id")
	require.NoError(t, err)
	require.Equal(t, "score id\n0.5 3\n1 1\n1.5 2\n2 NULL", sel.String())

	none, err := tab.Select()
	require.NoError(t, err)
	require.Equal(t, 4, none.Height())

	require.Equal(t, []string{"id", "score"}, tab.Drop("name").Names())

	replaced, err := tab.ReplaceOrAppend(NewBoolVec("name", []bool{true, false, true, false}))
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "score"}, replaced.Names())
	appended, err := replaced.ReplaceOrAppend(NewBoolVec("flag", make([]bool, 4)))
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "score", "flag"}, appended.Names())
	// The receiver is unchanged.
	require.Equal(t, "c", tab.ColVec(1).Get(0))
	require.Equal(t, 3, replaced.Width())
}

func TestTableFilter(t *testing.T) {
	tab := testTable(t)
	res, err := tab.Filter(NewBoolVec("m", []bool{true, false, false, true}).WithNulls(3))
	require.NoError(t, err)
	require.Equal(t, []string{"3 c 0.5"}, RowStrings(res))

	res, err = tab.Filter(NewBoolVec("m", []bool{true}))
	require.NoError(t, err)
	require.Same(t, tab, res)

	res, err = tab.Filter(NewBoolVec("m", []bool{false}))
	require.NoError(t, err)
	require.Zero(t, res.Height())
	require.Equal(t, 3, res.Width())

	_, err = tab.Filter(NewInt64Vec("m", []int64{1, 1, 1, 1}))
	require.True(t, errors.Is(err, colexecerror.ErrTypeMismatch), "%v", err)
}

func TestTableSlice(t *testing.T) {
	tab := testTable(t)
	for _, tc := range []struct {
		offset   int64
		length   int
		expected []string
	}{
		{0, 2, []string{"3 c 0.5", "1 a 1"}},
		{-1, 5, []string{"NULL d 2"}},
		{-10, 1, []string{"3 c 0.5"}},
		{3, 10, []string{"NULL d 2"}},
		{7, 1, []string{}},
	} {
		t.Run(fmt.Sprintf("%d/%d", tc.offset, tc.length), func(t *testing.T) {
			require.Equal(t, tc.expected, RowStrings(tab.Slice(tc.offset, tc.length)))
		})
	}
	require.Same(t, tab, tab.Head(10))
	require.Equal(t, 1, tab.Head(1).Height())
}

func TestTableSort(t *testing.T) {
	tab := testTable(t)
	res, err := tab.Sort("id", false)
	require.NoError(t, err)
	require.Equal(t, []string{"NULL d 2", "1 a 1", "2 b 1.5", "3 c 0.5"}, RowStrings(res))

	res, err = tab.Sort("id", true)
	require.NoError(t, err)
	require.Equal(t, []string{"3 c 0.5", "2 b 1.5", "1 a 1", "NULL d 2"}, RowStrings(res))

	_, err = tab.Sort("nope", false)
	require.True(t, errors.Is(err, colexecerror.ErrSchema), "%v", err)
}

func TestTableExplode(t *testing.T) {
	list := NewListVec("l", []int32{0, 2, 2, 3, 3}, NewInt64Vec("l", []int64{1, 2, 3})).WithNulls(3)
	tab, err := NewTable(NewBytesVec("k", []string{"a", "b", "c", "d"}), list)
	require.NoError(t, err)

	res, err := tab.Explode("l")
	require.NoError(t, err)
	require.Equal(t, "k l\na 1\na 2\nb NULL\nc 3\nd NULL", res.String())
	require.Equal(t, "int", res.ColVec(1).Type().String())

	_, err = tab.Explode("k")
	require.True(t, errors.Is(err, colexecerror.ErrTypeMismatch), "%v", err)

	other := NewListVec("m", []int32{0, 1, 2, 3, 3}, NewInt64Vec("m", []int64{1, 2, 3}))
	wide, err := tab.ReplaceOrAppend(other)
	require.NoError(t, err)
	_, err = wide.Explode("l", "m")
	require.True(t, errors.Is(err, colexecerror.ErrSchema), "%v", err)
}

func TestTableMelt(t *testing.T) {
	tab, err := NewTable(
		NewBytesVec("id", []string{"x", "y"}),
		NewInt64Vec("a", []int64{1, 2}),
		NewInt64Vec("b", []int64{3, 4}).WithNulls(0),
	)
	require.NoError(t, err)

	res, err := tab.Melt([]string{"id"}, nil)
	require.NoError(t, err)
	require.Equal(t, "id variable value\nx a 1\ny a 2\nx b NULL\ny b 4", res.String())

	res, err = tab.Melt(nil, []string{"b"})
	require.NoError(t, err)
	require.Equal(t, "variable value\nb NULL\nb 4", res.String())

	mixed, err := tab.ReplaceOrAppend(NewBytesVec("c", []string{"p", "q"}))
	require.NoError(t, err)
	_, err = mixed.Melt([]string{"id"}, nil)
	require.True(t, errors.Is(err, colexecerror.ErrTypeMismatch), "%v", err)

	_, err = tab.Melt([]string{"id", "a", "b"}, nil)
	require.True(t, errors.Is(err, colexecerror.ErrSchema), "%v", err)
}

func TestSplitAndConcatTables(t *testing.T) {
	tab := testTable(t)
	for n := 1; n <= 6; n++ {
		parts := SplitTable(tab, n)
		expectedParts := n
		if expectedParts > tab.Height() {
			expectedParts = tab.Height()
		}
		require.Len(t, parts, expectedParts)
		for _, p := range parts {
			require.LessOrEqual(t, p.Height(), (tab.Height()+n-1)/n)
		}
		res, err := ConcatTables(parts...)
		require.NoError(t, err)
		AssertEqualTables(t, tab, res)
	}

	_, err := ConcatTables(tab, tab.Drop("name"))
	require.True(t, errors.Is(err, colexecerror.ErrSchema), "%v", err)

	renamed, err := NewTable(tab.ColVec(0), tab.ColVec(1).Rename("other"), tab.ColVec(2))
	require.NoError(t, err)
	_, err = ConcatTables(tab, renamed)
	require.True(t, errors.Is(err, colexecerror.ErrSchema), "%v", err)
}

func TestTableRechunk(t *testing.T) {
	tab := testTable(t).Window(1, 3)
	res := tab.Rechunk()
	AssertEqualTables(t, tab, res)
	require.Len(t, res.ColVec(0).Int64(), 2)
}

func TestTableID(t *testing.T) {
	tab := testTable(t)
	id := tab.ID()
	require.NotZero(t, id)
	require.Equal(t, id, tab.ID())

	seen := map[uint64]struct{}{id: {}}
	for _, derived := range []*Table{tab.Clone(), tab.Head(2), tab.Window(0, 4), tab.Drop("name"), testTable(t)} {
		_, dup := seen[derived.ID()]
		require.False(t, dup, "table %d shares an ID", derived.ID())
		seen[derived.ID()] = struct{}{}
	}
}
