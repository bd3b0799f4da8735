// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package coldata

import "math/bits"

// Nulls represents a list of potentially nullable values using a bitmap. A
// set bit means that the value at that position is NULL. Nulls are never
// modified once the owning Vec has been published, so windows may share the
// underlying words.
type Nulls struct {
	// nulls is the bitmap. It is nil if no value has ever been set to null.
	nulls []uint64
	// offset is the bit position of index 0 within nulls, which lets Slice
	// avoid a copy.
	offset int
	length int
}

// NewNulls returns a new nulls vector of the given length with no nulls set.
func NewNulls(length int) Nulls {
	return Nulls{length: length}
}

// Len returns the number of positions tracked by the bitmap.
func (n *Nulls) Len() int {
	return n.length
}

// MaybeHasNulls returns true if the vector possibly contains any nulls.
func (n *Nulls) MaybeHasNulls() bool {
	return n.nulls != nil
}

// NullAt returns true if the ith value of the column is null.
func (n *Nulls) NullAt(i int) bool {
	if n.nulls == nil {
		return false
	}
	pos := i + n.offset
	return n.nulls[pos>>6]&(1<<uint(pos&63)) != 0
}

// SetNull sets the ith value of the column to null. It must only be called
// while the vector is being built.
func (n *Nulls) SetNull(i int) {
	if n.nulls == nil {
		n.nulls = make([]uint64, (n.offset+n.length+63)>>6)
	}
	pos := i + n.offset
	n.nulls[pos>>6] |= 1 << uint(pos&63)
}

// SetNullRange sets all the values in [start, end) to null.
func (n *Nulls) SetNullRange(start, end int) {
	for i := start; i < end; i++ {
		n.SetNull(i)
	}
}

// NullCount returns the number of nulls in the vector.
func (n *Nulls) NullCount() int {
	if n.nulls == nil {
		return 0
	}
	if n.offset == 0 && n.length%64 == 0 {
		c := 0
		for _, w := range n.nulls[:n.length>>6] {
			c += bits.OnesCount64(w)
		}
		return c
	}
	c := 0
	for i := 0; i < n.length; i++ {
		if n.NullAt(i) {
			c++
		}
	}
	return c
}

// Slice returns a new Nulls representing a window into the current Nulls.
// The window shares memory with the receiver.
func (n *Nulls) Slice(start, end int) Nulls {
	if n.nulls == nil {
		return NewNulls(end - start)
	}
	return Nulls{nulls: n.nulls, offset: n.offset + start, length: end - start}
}

// Append returns a new bitmap that is the concatenation of n and other.
func (n *Nulls) Append(other *Nulls) Nulls {
	res := NewNulls(n.length + other.length)
	if !n.MaybeHasNulls() && !other.MaybeHasNulls() {
		return res
	}
	for i := 0; i < n.length; i++ {
		if n.NullAt(i) {
			res.SetNull(i)
		}
	}
	for i := 0; i < other.length; i++ {
		if other.NullAt(i) {
			res.SetNull(n.length + i)
		}
	}
	return res
}

// compact returns a copy of the bitmap that does not share memory with the
// receiver and has a zero offset.
func (n *Nulls) compact() Nulls {
	res := NewNulls(n.length)
	if !n.MaybeHasNulls() {
		return res
	}
	for i := 0; i < n.length; i++ {
		if n.NullAt(i) {
			res.SetNull(i)
		}
	}
	return res
}
