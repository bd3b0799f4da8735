// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package colexechash

import "math/bits"

const minBuckets = 1 << 4

// Table is a chained hash table from key tuples to the rows that carry them.
// The table does not store key values: callers provide the row hash together
// with an equality callback that compares the probed key against the first
// row of a candidate key, which lets one Table serve any key layout.
//
// Keys are identified by a keyID in [0, Len()), assigned in insertion order.
// A Table is not safe for concurrent use.
type Table struct {
	// first stores keyID+1 of the first key in each bucket, or 0 when the
	// bucket is empty.
	first []uint32
	// next stores keyID+1 of the next key in the bucket chain of each key, 0
	// marking the end of the chain.
	next []uint32
	// hashes stores the full hash of each key.
	hashes []uint64
	// rows stores the rows of each key in insertion order.
	rows  [][]uint32
	shift uint8
}

// NewTable returns a Table sized for roughly sizeHint distinct keys.
func NewTable(sizeHint int) *Table {
	n := minBuckets
	for n < sizeHint {
		n <<= 1
	}
	t := &Table{}
	t.resize(n)
	t.next = make([]uint32, 0, sizeHint)
	t.hashes = make([]uint64, 0, sizeHint)
	t.rows = make([][]uint32, 0, sizeHint)
	return t
}

// bucket maps a hash to a bucket with Fibonacci hashing. The high bits are
// used since callers partition work on the low bits of the same hash.
func (t *Table) bucket(hash uint64) uint64 {
	return (hash * 0x9E3779B97F4A7C15) >> t.shift
}

func (t *Table) resize(numBuckets int) {
	t.first = make([]uint32, numBuckets)
	t.shift = uint8(64 - bits.TrailingZeros(uint(numBuckets)))
	for i := range t.next {
		t.next[i] = 0
	}
	for keyID, h := range t.hashes {
		b := t.bucket(h)
		t.next[keyID] = t.first[b]
		t.first[b] = uint32(keyID + 1)
	}
}

// find returns the keyID of the key with the given hash for which eq returns
// true, or -1.
func (t *Table) find(hash uint64, eq func(keyRow uint32) bool) int {
	for id := t.first[t.bucket(hash)]; id != 0; id = t.next[id-1] {
		keyID := id - 1
		if t.hashes[keyID] == hash && eq(t.rows[keyID][0]) {
			return int(keyID)
		}
	}
	return -1
}

// InsertOrMerge adds row under the key it carries. If a key with the same
// hash for which eq returns true is present, row is appended to its rows;
// otherwise a new key is created. It returns the keyID and whether the key
// is new.
func (t *Table) InsertOrMerge(hash uint64, row uint32, eq func(keyRow uint32) bool) (int, bool) {
	if keyID := t.find(hash, eq); keyID >= 0 {
		t.rows[keyID] = append(t.rows[keyID], row)
		return keyID, false
	}
	keyID := len(t.hashes)
	t.hashes = append(t.hashes, hash)
	t.rows = append(t.rows, []uint32{row})
	t.next = append(t.next, 0)
	if len(t.hashes) > len(t.first) {
		t.resize(len(t.first) * 2)
	} else {
		b := t.bucket(hash)
		t.next[keyID] = t.first[b]
		t.first[b] = uint32(keyID + 1)
	}
	return keyID, true
}

// Lookup returns the rows of the key with the given hash for which eq
// returns true, or nil when there is no such key. The returned slice must
// not be modified.
func (t *Table) Lookup(hash uint64, eq func(keyRow uint32) bool) []uint32 {
	if keyID := t.find(hash, eq); keyID >= 0 {
		return t.rows[keyID]
	}
	return nil
}

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	return len(t.hashes)
}

// Rows returns the rows of the given key in insertion order.
func (t *Table) Rows(keyID int) []uint32 {
	return t.rows[keyID]
}

// FirstRows returns the first row of every key, ordered by keyID.
func (t *Table) FirstRows() []int {
	res := make([]int, len(t.rows))
	for i, r := range t.rows {
		res[i] = int(r[0])
	}
	return res
}
