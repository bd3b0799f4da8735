// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package colexecagg contains the grouping of rows by key and the aggregate
// functions evaluated over the groups.
package colexecagg

import (
	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexechash"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
)

// Groups partitions the rows of a table by the values of its key columns.
// Nulls are equal to each other for grouping purposes. Groups are numbered in
// order of first appearance, and the rows of a group are in input order.
type Groups struct {
	ht      *colexechash.Table
	numRows int
}

// GroupBy groups the rows by the key tuple formed by keys, which must all
// have the same length.
func GroupBy(keys []*coldata.Vec) (*Groups, error) {
	if len(keys) == 0 {
		return nil, colexecerror.NewInternalErrorf("group by without keys")
	}
	n := keys[0].Len()
	for _, k := range keys[1:] {
		if k.Len() != n {
			return nil, colexecerror.NewInternalErrorf(
				"group key %q has length %d, expected %d", k.Name(), k.Len(), n)
		}
	}
	hashes := colexechash.HashRows(keys, colexechash.DefaultSeed)
	ht := colexechash.NewTable(n / 4)
	for row, h := range hashes {
		row := row
		ht.InsertOrMerge(h, uint32(row), func(keyRow uint32) bool {
			for _, k := range keys {
				if !k.ValuesEqual(int(keyRow), k, row, true /* nullsEqual */) {
					return false
				}
			}
			return true
		})
	}
	return &Groups{ht: ht, numRows: n}, nil
}

// Len returns the number of groups.
func (g *Groups) Len() int {
	return g.ht.Len()
}

// NumRows returns the number of grouped rows.
func (g *Groups) NumRows() int {
	return g.numRows
}

// Rows returns the rows of the ith group.
func (g *Groups) Rows(i int) []uint32 {
	return g.ht.Rows(i)
}

// FirstRows returns the first row of every group.
func (g *Groups) FirstRows() []int {
	return g.ht.FirstRows()
}

// Keys returns the key columns restricted to one row per group.
func (g *Groups) Keys(keys []*coldata.Vec) []*coldata.Vec {
	first := g.FirstRows()
	res := make([]*coldata.Vec, len(keys))
	for i, k := range keys {
		res[i] = k.Gather(first)
	}
	return res
}
