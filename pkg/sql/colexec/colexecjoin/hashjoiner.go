// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package colexecjoin contains the partitioned hash-join kernel and the
// materialization of joined tables.
package colexecjoin

import (
	"context"
	"math"

	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/colquery/pkg/sql/colexec/colexechash"
	"github.com/cockroachdb/colquery/pkg/sql/colexecerror"
	"github.com/cockroachdb/colquery/pkg/util/log"
	"github.com/cockroachdb/colquery/pkg/util/parallel"
	"github.com/cockroachdb/errors"
)

// NoMatch is the row index reported for the absent side of an outer join
// pair.
const NoMatch = ^uint32(0)

// maxJoinRows bounds the rows of either join input so that row indices fit
// in a uint32 without colliding with NoMatch.
var maxJoinRows = math.MaxUint32 - 1

// Hasher computes one hash per row of the key columns. Both relations of a
// join are hashed with the same Hasher and seed.
type Hasher func(keys []*coldata.Vec, seed uint64) []uint64

// Pairs holds the matching row indices of a join: Left[i] matches Right[i].
// Either side may be NoMatch for outer joins.
type Pairs struct {
	Left  []uint32
	Right []uint32
}

// Len returns the number of pairs.
func (p Pairs) Len() int {
	return len(p.Left)
}

// HashJoiner computes the row pairs of an equi-join. The build relation is
// routed to NumWorkers hash tables by hash, each table being built by one
// worker scanning every build hash. The probe relation is split into
// NumPartitions row-contiguous partitions probed concurrently; pairs of a
// partition are emitted in probe row order and partitions are concatenated
// in order.
type HashJoiner struct {
	// Pool runs the build and probe tasks. A nil Pool runs them sequentially.
	Pool *parallel.Pool
	// NumWorkers is the number of build hash tables. Zero uses the pool size.
	NumWorkers int
	// NumPartitions is the number of probe partitions. Zero uses NumWorkers.
	NumPartitions int
	// Hasher defaults to colexechash.HashRows.
	Hasher Hasher
	// Seed is passed to the Hasher.
	Seed uint64
}

// NewHashJoiner returns a HashJoiner with the default hasher and seed.
func NewHashJoiner(pool *parallel.Pool, numWorkers, numPartitions int) *HashJoiner {
	return &HashJoiner{
		Pool:          pool,
		NumWorkers:    numWorkers,
		NumPartitions: numPartitions,
		Hasher:        colexechash.HashRows,
		Seed:          colexechash.DefaultSeed,
	}
}

func (hj *HashJoiner) numWorkers() int {
	if hj.NumWorkers > 0 {
		return hj.NumWorkers
	}
	return hj.Pool.Size()
}

func (hj *HashJoiner) numPartitions(numRows int) int {
	n := hj.NumPartitions
	if n <= 0 {
		n = hj.numWorkers()
	}
	if n > numRows {
		n = numRows
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (hj *HashJoiner) hash(keys []*coldata.Vec) []uint64 {
	if hj.Hasher == nil {
		return colexechash.HashRows(keys, hj.Seed)
	}
	return hj.Hasher(keys, hj.Seed)
}

// assigned returns the worker whose hash table owns rows with the given
// hash.
func assigned(hash uint64, numWorkers int) int {
	return int(hash % uint64(numWorkers))
}

// keysEqual compares the key tuple of row i of a with row j of b. Nulls never
// compare equal.
func keysEqual(a []*coldata.Vec, i int, b []*coldata.Vec, j int) bool {
	for k := range a {
		if !a[k].ValuesEqual(i, b[k], j, false /* nullsEqual */) {
			return false
		}
	}
	return true
}

func anyNull(keys []*coldata.Vec, row int) bool {
	for _, k := range keys {
		if k.NullAt(row) {
			return true
		}
	}
	return false
}

func checkKeys(keys []*coldata.Vec, side string) (int, error) {
	if len(keys) == 0 {
		return 0, errors.AssertionFailedf("no %s join keys", side)
	}
	n := keys[0].Len()
	if n > maxJoinRows {
		return 0, errors.Mark(
			errors.Newf("%s relation has %d rows, more than a join supports", side, n),
			colexecerror.ErrSchema,
		)
	}
	for _, k := range keys[1:] {
		if k.Len() != n {
			return 0, errors.AssertionFailedf(
				"%s join key %q has length %d, expected %d", side, k.Name(), k.Len(), n)
		}
	}
	return n, nil
}

// build constructs the per-worker hash tables over the build keys. Rows with
// a null key are left out since they cannot match.
func (hj *HashJoiner) build(
	ctx context.Context, buildKeys []*coldata.Vec,
) ([]*colexechash.Table, error) {
	hashes := hj.hash(buildKeys)
	n := hj.numWorkers()
	tables := make([]*colexechash.Table, n)
	err := hj.Pool.Run(ctx, n, func(ctx context.Context, worker int) error {
		ht := colexechash.NewTable(len(hashes) / n)
		for row, h := range hashes {
			if assigned(h, n) != worker || anyNull(buildKeys, row) {
				continue
			}
			row := row
			ht.InsertOrMerge(h, uint32(row), func(keyRow uint32) bool {
				return keysEqual(buildKeys, int(keyRow), buildKeys, row)
			})
		}
		tables[worker] = ht
		return nil
	})
	return tables, err
}

// probe looks up every probe row in the hash tables. emitUnmatched controls
// whether a probe row without a match yields one pair with a NoMatch build
// index. When swap is true the pairs report the build row on the left.
func (hj *HashJoiner) probe(
	ctx context.Context,
	tables []*colexechash.Table,
	probeKeys, buildKeys []*coldata.Vec,
	numProbeRows int,
	emitUnmatched, swap bool,
) (Pairs, error) {
	hashes := hj.hash(probeKeys)
	numTables := len(tables)
	numParts := hj.numPartitions(numProbeRows)
	// offsets[p] is the global index of the first probe row of partition p.
	offsets := make([]int, numParts+1)
	chunk, rem := numProbeRows/numParts, numProbeRows%numParts
	for p := 0; p < numParts; p++ {
		size := chunk
		if p < rem {
			size++
		}
		offsets[p+1] = offsets[p] + size
	}

	type result struct{ probeIdx, buildIdx []uint32 }
	results := make([]result, numParts)
	err := hj.Pool.Run(ctx, numParts, func(ctx context.Context, part int) error {
		var res result
		for row := offsets[part]; row < offsets[part+1]; row++ {
			var matches []uint32
			if !anyNull(probeKeys, row) {
				h := hashes[row]
				row := row
				matches = tables[assigned(h, numTables)].Lookup(h, func(keyRow uint32) bool {
					return keysEqual(buildKeys, int(keyRow), probeKeys, row)
				})
			}
			for _, b := range matches {
				res.probeIdx = append(res.probeIdx, uint32(row))
				res.buildIdx = append(res.buildIdx, b)
			}
			if emitUnmatched && len(matches) == 0 {
				res.probeIdx = append(res.probeIdx, uint32(row))
				res.buildIdx = append(res.buildIdx, NoMatch)
			}
		}
		results[part] = res
		return nil
	})
	if err != nil {
		return Pairs{}, err
	}

	total := 0
	for _, r := range results {
		total += len(r.probeIdx)
	}
	probeIdx := make([]uint32, 0, total)
	buildIdx := make([]uint32, 0, total)
	for _, r := range results {
		probeIdx = append(probeIdx, r.probeIdx...)
		buildIdx = append(buildIdx, r.buildIdx...)
	}
	if swap {
		return Pairs{Left: buildIdx, Right: probeIdx}, nil
	}
	return Pairs{Left: probeIdx, Right: buildIdx}, nil
}

func (hj *HashJoiner) joinTuples(
	ctx context.Context, probeKeys, buildKeys []*coldata.Vec, emitUnmatched, swap bool,
) (Pairs, error) {
	numProbeRows, err := checkKeys(probeKeys, "probe")
	if err != nil {
		return Pairs{}, err
	}
	if _, err := checkKeys(buildKeys, "build"); err != nil {
		return Pairs{}, err
	}
	if len(probeKeys) != len(buildKeys) {
		return Pairs{}, errors.AssertionFailedf(
			"probe has %d join keys, build has %d", len(probeKeys), len(buildKeys))
	}
	tables, err := hj.build(ctx, buildKeys)
	if err != nil {
		return Pairs{}, err
	}
	pairs, err := hj.probe(ctx, tables, probeKeys, buildKeys, numProbeRows, emitUnmatched, swap)
	if err != nil {
		return Pairs{}, err
	}
	log.VEventf(ctx, 2, "hash join produced %d pairs over %d probe rows", pairs.Len(), numProbeRows)
	return pairs, nil
}

// InnerJoinTuples returns the pairs of probe and build rows with equal keys.
// Pairs report (probe, build) row indices, or (build, probe) when swap is
// true.
func (hj *HashJoiner) InnerJoinTuples(
	ctx context.Context, probeKeys, buildKeys []*coldata.Vec, swap bool,
) (Pairs, error) {
	return hj.joinTuples(ctx, probeKeys, buildKeys, false /* emitUnmatched */, swap)
}

// LeftJoinTuples returns the pairs of a left outer join with the probe
// relation on the left. Every probe row appears at least once; a probe row
// without a match appears exactly once with a NoMatch right index.
func (hj *HashJoiner) LeftJoinTuples(
	ctx context.Context, probeKeys, buildKeys []*coldata.Vec,
) (Pairs, error) {
	return hj.joinTuples(ctx, probeKeys, buildKeys, true /* emitUnmatched */, false /* swap */)
}

// OuterJoinTuples returns the pairs of a full outer join with the probe
// relation on the left: the pairs of the left join followed by one pair with
// a NoMatch left index for every build row that matched nothing, in build row
// order.
func (hj *HashJoiner) OuterJoinTuples(
	ctx context.Context, probeKeys, buildKeys []*coldata.Vec,
) (Pairs, error) {
	pairs, err := hj.LeftJoinTuples(ctx, probeKeys, buildKeys)
	if err != nil {
		return Pairs{}, err
	}
	matched := make([]bool, buildKeys[0].Len())
	for _, b := range pairs.Right {
		if b != NoMatch {
			matched[b] = true
		}
	}
	for b, ok := range matched {
		if !ok {
			pairs.Left = append(pairs.Left, NoMatch)
			pairs.Right = append(pairs.Right, uint32(b))
		}
	}
	return pairs, nil
}
