// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexecagg

import (
	"context"
	"sort"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexechash"
	"github.com/cockroachdb/colquery/pkg/util/parallel"
)

// Distinct returns the rows of t whose values on the subset columns (all
// columns when subset is empty) differ from every earlier row. Nulls are
// equal to each other.
//
// With maintainOrder the distinct rows are returned in input order.
// Otherwise rows are routed by hash to one hash table per pool worker and the
// output is ordered by worker, then by input order.
func Distinct(
	ctx context.Context, pool *parallel.Pool, t *coldata.Table, subset []string, maintainOrder bool,
) (*coldata.Table, error) {
	keys := t.ColVecs()
	if len(subset) > 0 {
		sub, err := t.Select(subset...)
		if err != nil {
			return nil, err
		}
		keys = sub.ColVecs()
	}
	if len(keys) == 0 || t.Height() == 0 {
		return t, nil
	}
	if maintainOrder {
		groups, err := GroupBy(keys)
		if err != nil {
			return nil, err
		}
		first := groups.FirstRows()
		if len(first) == t.Height() {
			return t, nil
		}
		return t.Gather(first), nil
	}

	hashes := colexechash.HashRows(keys, colexechash.DefaultSeed)
	n := pool.Size()
	heads := make([][]int, n)
	if err := pool.Run(ctx, n, func(ctx context.Context, worker int) error {
		ht := colexechash.NewTable(len(hashes) / n)
		for row, h := range hashes {
			if int(h%uint64(n)) != worker {
				continue
			}
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
		heads[worker] = ht.FirstRows()
		return nil
	}); err != nil {
		return nil, err
	}
	var sel []int
	for _, h := range heads {
		sel = append(sel, h...)
	}
	if len(sel) == t.Height() && sort.IntsAreSorted(sel) {
		return t, nil
	}
	return t.Gather(sel), nil
}
