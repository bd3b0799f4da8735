// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package coldata

import (
	"slices"
	"strings"

	"github.com/stretchr/testify/require"
)

// testingT is the subset of testing.TB needed by the assertions below.
type testingT interface {
	require.TestingT
	Helper()
}

// RowStrings renders every row of the table as a single string with values
// separated by spaces.
func RowStrings(t *Table) []string {
	rows := make([]string, t.Height())
	var b strings.Builder
	for i := range rows {
		b.Reset()
		for j, c := range t.ColVecs() {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(c.PrettyValueAt(i))
		}
		rows[i] = b.String()
	}
	return rows
}

// AssertEquivalentTables asserts that the tables have the same schema and the
// same multiset of rows, ignoring row order.
func AssertEquivalentTables(t testingT, expected, actual *Table) {
	t.Helper()
	require.Equal(t, expected.Names(), actual.Names())
	require.Equal(t, expected.Types(), actual.Types())
	require.Equal(t, expected.Height(), actual.Height())
	e, a := RowStrings(expected), RowStrings(actual)
	slices.Sort(e)
	slices.Sort(a)
	require.Equal(t, e, a)
}

// AssertEqualTables asserts that the tables have the same schema and the same
// rows in the same order.
func AssertEqualTables(t testingT, expected, actual *Table) {
	t.Helper()
	require.Equal(t, expected.Names(), actual.Names())
	require.Equal(t, expected.Types(), actual.Types())
	require.Equal(t, RowStrings(expected), RowStrings(actual))
}
