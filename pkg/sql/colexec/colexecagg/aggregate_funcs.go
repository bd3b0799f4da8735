// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexecagg

import (
	"strings"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/col/coltypes"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/errors"
)

// AggFn identifies an aggregate function.
type AggFn int

const (
	// Sum adds the non-null values. Booleans count as 0 or 1.
	Sum AggFn = iota
	// Min returns the smallest non-null value.
	Min
	// Max returns the largest non-null value.
	Max
	// Count returns the number of non-null values.
	Count
	// Mean returns the average of the non-null values as a float.
	Mean
	// First returns the value of the first row of the group.
	First
	// Last returns the value of the last row of the group.
	Last
)

var aggFnNames = [...]string{
	Sum:   "sum",
	Min:   "min",
	Max:   "max",
	Count: "count",
	Mean:  "mean",
	First: "first",
	Last:  "last",
}

func (f AggFn) String() string {
	if int(f) < len(aggFnNames) {
		return aggFnNames[f]
	}
	return "unknown"
}

// ParseAggFn parses an aggregate function name as returned by String.
func ParseAggFn(s string) (AggFn, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "avg" {
		return Mean, nil
	}
	for f, name := range aggFnNames {
		if name == s {
			return AggFn(f), nil
		}
	}
	return 0, errors.Newf("unknown aggregate function %q", s)
}

// ErrIneligibleMerge is returned by FinalAggregate when the partial results
// of an aggregate cannot be merged, because the aggregate has no partial
// form for its input type.
var ErrIneligibleMerge = errors.New("aggregate cannot be merged across partitions")

// supports returns whether f can be computed over values of type t.
func (f AggFn) supports(t coltypes.T) bool {
	switch f {
	case Sum, Mean:
		return t.IsNumeric() || t == coltypes.Bool
	case Min, Max:
		return t != coltypes.List && t != coltypes.Unhandled
	default:
		return true
	}
}

func typeMismatch(f AggFn, input *coldata.Vec) error {
	return errors.Mark(
		errors.Newf("cannot compute %s over column %q of type %s", f, input.Name(), input.Type()),
		colexecerror.ErrTypeMismatch,
	)
}

// Aggregate computes f over every group of input. The result has one value
// per group and carries the name of input.
func Aggregate(f AggFn, input *coldata.Vec, groups *Groups) (*coldata.Vec, error) {
	if input.Len() != groups.NumRows() {
		return nil, colexecerror.NewInternalErrorf(
			"aggregate input %q has length %d, expected %d", input.Name(), input.Len(), groups.NumRows())
	}
	if !f.supports(input.Type()) {
		return nil, typeMismatch(f, input)
	}
	switch f {
	case Sum:
		return sum(input, groups), nil
	case Min:
		return minMax(input, groups, -1), nil
	case Max:
		return minMax(input, groups, 1), nil
	case Count:
		return count(input, groups), nil
	case Mean:
		s, c := sumFloat(input, groups)
		return divide(s, c), nil
	case First:
		return firstLast(input, groups, false), nil
	case Last:
		return firstLast(input, groups, true), nil
	}
	return nil, errors.AssertionFailedf("unknown aggregate function %d", f)
}

// PartialAggregate computes the partition-local form of f. It returns no
// column, and no error, when f cannot be computed over the input type, in
// which case FinalAggregate of the partial results fails with
// ErrIneligibleMerge.
func PartialAggregate(f AggFn, input *coldata.Vec, groups *Groups) ([]*coldata.Vec, error) {
	if !f.supports(input.Type()) {
		return nil, nil
	}
	if f == Mean {
		s, c := sumFloat(input, groups)
		return []*coldata.Vec{s, c}, nil
	}
	res, err := Aggregate(f, input, groups)
	if err != nil {
		return nil, err
	}
	return []*coldata.Vec{res}, nil
}

// FinalAggregate merges the concatenated partial results of f, as produced
// by PartialAggregate, over the groups of the concatenation.
func FinalAggregate(f AggFn, partials []*coldata.Vec, groups *Groups) (*coldata.Vec, error) {
	want := 1
	if f == Mean {
		want = 2
	}
	if len(partials) != want {
		return nil, errors.Wrapf(ErrIneligibleMerge, "%s", f)
	}
	switch f {
	case Count:
		// Counts never contain nulls and add up to a count.
		return sum(partials[0], groups), nil
	case Mean:
		s, _ := sumFloat(partials[0], groups)
		c := sum(partials[1], groups)
		return divide(s, c), nil
	default:
		return Aggregate(f, partials[0], groups)
	}
}

func sum(input *coldata.Vec, groups *Groups) *coldata.Vec {
	if input.Type() == coltypes.Float64 {
		s, _ := sumFloat(input, groups)
		return s
	}
	out := make([]int64, groups.Len())
	var nulls []int
	for g := range out {
		seen := false
		for _, row := range groups.Rows(g) {
			if input.NullAt(int(row)) {
				continue
			}
			seen = true
			switch col := input.Col().(type) {
			case []int64:
				out[g] += col[row]
			case []bool:
				if col[row] {
					out[g]++
				}
			}
		}
		if !seen {
			nulls = append(nulls, g)
		}
	}
	return coldata.NewInt64Vec(input.Name(), out).WithNulls(nulls...)
}

// sumFloat returns the float sum and the non-null count of every group. The
// sum is null for groups without non-null values.
func sumFloat(input *coldata.Vec, groups *Groups) (*coldata.Vec, *coldata.Vec) {
	sums := make([]float64, groups.Len())
	counts := make([]int64, groups.Len())
	var nulls []int
	for g := range sums {
		for _, row := range groups.Rows(g) {
			if input.NullAt(int(row)) {
				continue
			}
			counts[g]++
			switch col := input.Col().(type) {
			case []float64:
				sums[g] += col[row]
			case []int64:
				sums[g] += float64(col[row])
			case []bool:
				if col[row] {
					sums[g]++
				}
			}
		}
		if counts[g] == 0 {
			nulls = append(nulls, g)
		}
	}
	return coldata.NewFloat64Vec(input.Name(), sums).WithNulls(nulls...),
		coldata.NewInt64Vec(input.Name(), counts)
}

func divide(sums, counts *coldata.Vec) *coldata.Vec {
	s, c := sums.Float64(), counts.Int64()
	out := make([]float64, len(s))
	var nulls []int
	for i := range out {
		if c[i] == 0 || sums.NullAt(i) {
			nulls = append(nulls, i)
			continue
		}
		out[i] = s[i] / float64(c[i])
	}
	return coldata.NewFloat64Vec(sums.Name(), out).WithNulls(nulls...)
}

// minMax selects, per group, the non-null row that compares lowest (dir -1)
// or highest (dir 1). Ties keep the earliest row.
func minMax(input *coldata.Vec, groups *Groups, dir int) *coldata.Vec {
	idxs := make([]int, groups.Len())
	for g := range idxs {
		best := -1
		for _, row := range groups.Rows(g) {
			r := int(row)
			if input.NullAt(r) {
				continue
			}
			if best < 0 || input.Compare(r, best)*dir > 0 {
				best = r
			}
		}
		idxs[g] = best
	}
	return input.Gather(idxs)
}

func count(input *coldata.Vec, groups *Groups) *coldata.Vec {
	out := make([]int64, groups.Len())
	for g := range out {
		rows := groups.Rows(g)
		if !input.MaybeHasNulls() {
			out[g] = int64(len(rows))
			continue
		}
		for _, row := range rows {
			if !input.NullAt(int(row)) {
				out[g]++
			}
		}
	}
	return coldata.NewInt64Vec(input.Name(), out)
}

func firstLast(input *coldata.Vec, groups *Groups, last bool) *coldata.Vec {
	idxs := make([]int, groups.Len())
	for g := range idxs {
		rows := groups.Rows(g)
		if last {
			idxs[g] = int(rows[len(rows)-1])
		} else {
			idxs[g] = int(rows[0])
		}
	}
	return input.Gather(idxs)
}
