// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package colexechash contains the row hashing and the hash table shared by
// the hash joiner and the hash-based group-by and distinct.
package colexechash

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/colquery/pkg/col/coldata"
	"github.com/cockroachdb/errors"
)

// DefaultSeed is the seed used when the caller has no reason to pick one.
const DefaultSeed uint64 = 0x7e3c_1b2d_5f4a_9c01

// HashRows returns one hash per row of the key columns, which must all have
// the same length. Rows whose key tuples are equal under
// coldata.Vec.ValuesEqual get equal hashes as long as both sides are hashed
// with the same seed: integers hash like the equal float, and categorical
// values hash like the equal string. Nulls hash to a fixed value.
func HashRows(keys []*coldata.Vec, seed uint64) []uint64 {
	if len(keys) == 0 {
		return nil
	}
	hashes := make([]uint64, keys[0].Len())
	h := newValueHasher(seed)
	for i := range hashes {
		hashes[i] = h.init
	}
	for _, key := range keys {
		h.combineColumn(hashes, key)
	}
	return hashes
}

// valueHasher hashes single values with xxhash, writing the seed before the
// value so that different seeds produce unrelated hashes.
type valueHasher struct {
	d       *xxhash.Digest
	seed    [8]byte
	scratch [8]byte
	init    uint64
	null    uint64
}

func newValueHasher(seed uint64) *valueHasher {
	h := &valueHasher{d: xxhash.New()}
	binary.LittleEndian.PutUint64(h.seed[:], seed)
	h.init = h.hashBytes(nil)
	h.null = h.hashBytes([]byte{0xff, 'n', 'u', 'l', 'l'})
	return h
}

func (h *valueHasher) hashBytes(b []byte) uint64 {
	h.d.Reset()
	_, _ = h.d.Write(h.seed[:])
	_, _ = h.d.Write(b)
	return h.d.Sum64()
}

func (h *valueHasher) hashString(s string) uint64 {
	h.d.Reset()
	_, _ = h.d.Write(h.seed[:])
	_, _ = h.d.WriteString(s)
	return h.d.Sum64()
}

func (h *valueHasher) hashFloat(f float64) uint64 {
	switch {
	case f == 0:
		// +0 and -0 are equal.
		f = 0
	case math.IsNaN(f):
		f = math.NaN()
	}
	binary.LittleEndian.PutUint64(h.scratch[:], math.Float64bits(f))
	return h.hashBytes(h.scratch[:])
}

// combine mixes a value hash into a running row hash.
func combine(l, r uint64) uint64 {
	return l ^ (r + 0x9e3779b97f4a7c15 + (l << 6) + (l >> 2))
}

func (h *valueHasher) combineColumn(hashes []uint64, v *coldata.Vec) {
	vals := h.hashColumn(v)
	if v.MaybeHasNulls() {
		// The value stored under a null is arbitrary.
		for i := range vals {
			if v.NullAt(i) {
				vals[i] = h.null
			}
		}
	}
	for i, vh := range vals {
		hashes[i] = combine(hashes[i], vh)
	}
}

// hashColumn returns the hash of every value of v, ignoring nulls.
func (h *valueHasher) hashColumn(v *coldata.Vec) []uint64 {
	vals := make([]uint64, v.Len())
	switch col := v.Col().(type) {
	case []bool:
		t, f := h.hashBytes([]byte{1}), h.hashBytes([]byte{0})
		for i, b := range col {
			vals[i] = f
			if b {
				vals[i] = t
			}
		}
	case []int64:
		for i, n := range col {
			vals[i] = h.hashFloat(float64(n))
		}
	case []float64:
		for i, f := range col {
			vals[i] = h.hashFloat(f)
		}
	case []string:
		for i, s := range col {
			vals[i] = h.hashString(s)
		}
	case coldata.Categories:
		codeHashes := make([]uint64, col.Dict.Len())
		for code := range codeHashes {
			codeHashes[code] = h.hashString(col.Dict.Value(uint32(code)))
		}
		for i, code := range col.Codes {
			vals[i] = codeHashes[code]
		}
	case coldata.ListCol:
		child := h.hashColumn(col.Child)
		if col.Child.MaybeHasNulls() {
			for i := range child {
				if col.Child.NullAt(i) {
					child[i] = h.null
				}
			}
		}
		for i := range vals {
			start, end := col.Offsets[i], col.Offsets[i+1]
			binary.LittleEndian.PutUint64(h.scratch[:], uint64(end-start))
			lh := h.hashBytes(h.scratch[:])
			for _, ch := range child[start:end] {
				lh = combine(lh, ch)
			}
			vals[i] = lh
		}
	default:
		panic(errors.AssertionFailedf("unhandled column %T", col))
	}
	return vals
}
