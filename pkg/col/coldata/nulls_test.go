// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package coldata

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// nullsLen spans more than two words of the bitmap.
const nullsLen = 200

// pos is a collection of interesting boundary indices to use in tests.
var pos = []int{0, 1, 63, 64, 65, nullsLen - 1, nullsLen}

// everyNth returns a bitmap of length n with every nth value set to null.
func everyNth(length, n int) Nulls {
	res := NewNulls(length)
	for i := 0; i < length; i += n {
		res.SetNull(i)
	}
	return res
}

func TestNullAt(t *testing.T) {
	nulls3 := everyNth(nullsLen, 3)
	for i := 0; i < nullsLen; i++ {
		require.Equal(t, i%3 == 0, nulls3.NullAt(i), "NullAt(%d)", i)
	}
	require.Equal(t, (nullsLen+2)/3, nulls3.NullCount())

	none := NewNulls(nullsLen)
	require.False(t, none.MaybeHasNulls())
	require.Zero(t, none.NullCount())
}

func TestSetNullRange(t *testing.T) {
	for _, start := range pos {
		for _, end := range pos {
			n := NewNulls(nullsLen)
			n.SetNullRange(start, end)
			for i := 0; i < nullsLen; i++ {
				expected := i >= start && i < end
				require.Equal(t, expected, n.NullAt(i),
					"NullAt(%d) should be %t after SetNullRange(%d, %d)", i, expected, start, end)
			}
		}
	}
}

func TestNullsSlice(t *testing.T) {
	nulls5 := everyNth(nullsLen, 5)
	for _, start := range pos {
		for _, end := range pos {
			if start > end {
				continue
			}
			t.Run(fmt.Sprintf("%d-%d", start, end), func(t *testing.T) {
				s := nulls5.Slice(start, end)
				require.Equal(t, end-start, s.Len())
				count := 0
				for i := 0; i < s.Len(); i++ {
					expected := (start+i)%5 == 0
					require.Equal(t, expected, s.NullAt(i), "NullAt(%d)", i)
					if expected {
						count++
					}
				}
				require.Equal(t, count, s.NullCount())

				// A compacted slice no longer shares words with the original.
				c := s.compact()
				for i := 0; i < c.Len(); i++ {
					require.Equal(t, s.NullAt(i), c.NullAt(i))
				}
			})
		}
	}
}

func TestNullsAppend(t *testing.T) {
	nulls3 := everyNth(nullsLen, 3)
	nulls10 := everyNth(nullsLen*2, 10)
	for _, split := range pos {
		a, b := nulls3.Slice(0, split), nulls10.Slice(split, nullsLen*2)
		res := a.Append(&b)
		require.Equal(t, a.Len()+b.Len(), res.Len())
		for i := 0; i < res.Len(); i++ {
			var expected bool
			if i < split {
				expected = i%3 == 0
			} else {
				expected = i%10 == 0
			}
			require.Equal(t, expected, res.NullAt(i), "split %d, NullAt(%d)", split, i)
		}
	}

	a, b := NewNulls(3), NewNulls(4)
	res := a.Append(&b)
	require.Equal(t, 7, res.Len())
	require.False(t, res.MaybeHasNulls())
}
