// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexecjoin

import (
	"context"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/errors"
)

// JoinType is the kind of an equi-join.
type JoinType int

const (
	// InnerJoin keeps the pairs of rows with equal keys.
	InnerJoin JoinType = iota
	// LeftJoin additionally keeps the left rows without a match.
	LeftJoin
	// OuterJoin additionally keeps the rows of either side without a match.
	OuterJoin
)

// RightSuffix is appended to the name of a right column that clashes with a
// left column.
const RightSuffix = "_right"

func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "inner"
	case LeftJoin:
		return "left"
	case OuterJoin:
		return "outer"
	default:
		return "unknown"
	}
}

// ParseJoinType parses the name of a join type as returned by String.
func ParseJoinType(s string) (JoinType, error) {
	for _, t := range []JoinType{InnerJoin, LeftJoin, OuterJoin} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, errors.Newf("unknown join type %q", s)
}

func keysComparable(a, b coltypes.T) bool {
	switch {
	case a == b:
		return a != coltypes.Unhandled
	case a.IsNumeric() && b.IsNumeric():
		return true
	case a.IsStringLike() && b.IsStringLike():
		return true
	}
	return false
}

func keyColumns(t *coldata.Table, names []string) ([]*coldata.Vec, error) {
	keys := make([]*coldata.Vec, len(names))
	for i, name := range names {
		var err error
		if keys[i], err = t.ColumnByName(name); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// JoinTables joins left and right on the named key columns. The output holds
// the left columns followed by the right columns other than the right keys;
// a right column whose name clashes with a left column gets RightSuffix. For
// outer joins the left key columns take the right key value on rows without
// a left match. Output row order is unspecified.
func (hj *HashJoiner) JoinTables(
	ctx context.Context, left, right *coldata.Table, leftOn, rightOn []string, how JoinType,
) (*coldata.Table, error) {
	if len(leftOn) == 0 || len(leftOn) != len(rightOn) {
		return nil, errors.Mark(
			errors.Newf("join needs the same non-zero number of left and right keys, got %d and %d",
				len(leftOn), len(rightOn)),
			colexecerror.ErrSchema,
		)
	}
	leftKeys, err := keyColumns(left, leftOn)
	if err != nil {
		return nil, err
	}
	rightKeys, err := keyColumns(right, rightOn)
	if err != nil {
		return nil, err
	}
	for i := range leftKeys {
		if !keysComparable(leftKeys[i].Type(), rightKeys[i].Type()) {
			return nil, errors.Mark(
				errors.Newf("cannot join %s key %q with %s key %q",
					leftKeys[i].Type(), leftOn[i], rightKeys[i].Type(), rightOn[i]),
				colexecerror.ErrTypeMismatch,
			)
		}
	}

	var pairs Pairs
	switch how {
	case InnerJoin:
		// Build on the smaller relation.
		if right.Height() <= left.Height() {
			pairs, err = hj.InnerJoinTuples(ctx, leftKeys, rightKeys, false /* swap */)
		} else {
			pairs, err = hj.InnerJoinTuples(ctx, rightKeys, leftKeys, true /* swap */)
		}
	case LeftJoin:
		pairs, err = hj.LeftJoinTuples(ctx, leftKeys, rightKeys)
	case OuterJoin:
		pairs, err = hj.OuterJoinTuples(ctx, leftKeys, rightKeys)
	default:
		return nil, errors.AssertionFailedf("unsupported join type %d", how)
	}
	if err != nil {
		return nil, err
	}
	return materialize(left, right, leftOn, rightOn, pairs, how == OuterJoin)
}

func toGatherIdxs(idxs []uint32) []int {
	res := make([]int, len(idxs))
	for i, idx := range idxs {
		if idx == NoMatch {
			res[i] = -1
		} else {
			res[i] = int(idx)
		}
	}
	return res
}

func materialize(
	left, right *coldata.Table, leftOn, rightOn []string, pairs Pairs, coalesceKeys bool,
) (*coldata.Table, error) {
	leftIdxs, rightIdxs := toGatherIdxs(pairs.Left), toGatherIdxs(pairs.Right)
	rightKeyOf := make(map[string]string, len(leftOn))
	isRightKey := make(map[string]bool, len(rightOn))
	for i := range leftOn {
		rightKeyOf[leftOn[i]] = rightOn[i]
		isRightKey[rightOn[i]] = true
	}

	cols := make([]*coldata.Vec, 0, left.Width()+right.Width())
	for _, c := range left.ColVecs() {
		rk, isKey := rightKeyOf[c.Name()]
		if !coalesceKeys || !isKey {
			cols = append(cols, c.Gather(leftIdxs))
			continue
		}
		v, err := coalesceKey(c, right, rk, leftIdxs, rightIdxs)
		if err != nil {
			return nil, err
		}
		cols = append(cols, v)
	}
	for _, c := range right.ColVecs() {
		if isRightKey[c.Name()] {
			continue
		}
		v := c.Gather(rightIdxs)
		if left.ColumnIndex(c.Name()) >= 0 {
			v = v.Rename(c.Name() + RightSuffix)
		}
		cols = append(cols, v)
	}
	return coldata.NewTable(cols...)
}

// coalesceKey gathers the left key column, taking the value of the right key
// column on rows without a left match.
func coalesceKey(
	leftKey *coldata.Vec, right *coldata.Table, rightName string, leftIdxs, rightIdxs []int,
) (*coldata.Vec, error) {
	rightKey, err := right.ColumnByName(rightName)
	if err != nil {
		return nil, err
	}
	if rightKey, err = rightKey.Cast(leftKey.Type()); err != nil {
		return nil, err
	}
	both, err := coldata.ConcatVecs(leftKey, rightKey.Rename(leftKey.Name()))
	if err != nil {
		return nil, err
	}
	idxs := make([]int, len(leftIdxs))
	for i := range idxs {
		switch {
		case leftIdxs[i] >= 0:
			idxs[i] = leftIdxs[i]
		case rightIdxs[i] >= 0:
			idxs[i] = leftKey.Len() + rightIdxs[i]
		default:
			idxs[i] = -1
		}
	}
	return both.Gather(idxs), nil
}
