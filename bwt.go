// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import "github.com/dsnet/bwtc/internal/sais"

// doTransform implements the BWT facade (spec section 4.7): it produces the
// permuted bytes of buf plus the LF powers needed to reconstruct it.
//
// Rather than literally appending a sentinel byte -- which would require
// reserving a byte value that can never legitimately occur in buf -- this
// doubles the input string and reads back the BWT permutation from the
// suffix array of the doubled string, exactly as a cyclic rotation of buf
// would produce. This sidesteps the sentinel/real-byte collision problem
// entirely.
//
// The current design always produces a single LF power; the LFpowers slice
// exists to let a future encoder split a slice into independently invertible
// segments without changing the wire format.
func doTransform(buf []byte) (permuted []byte, lfPowers []int) {
	if len(buf) == 0 {
		return nil, []int{0}
	}
	t := make([]byte, 2*len(buf))
	sa := make([]int, 2*len(buf))
	copy(t, buf)
	copy(t[len(buf):], buf)

	sais.ComputeSA(t, sa)

	out := make([]byte, len(buf))
	var ptr int
	for i, j := 0, 0; i < len(sa); i++ {
		idx := sa[i]
		if idx < len(buf) {
			if idx == 0 {
				ptr = j
				idx = len(buf)
			}
			out[j] = t[idx-1]
			j++
		}
	}
	return out, []int{ptr}
}

// inverseTransform reconstructs the original block from its BWT permutation
// and LF powers, using an LF-mapping walk driven by a byte histogram.
func inverseTransform(permuted []byte, lfPowers []int) []byte {
	if len(permuted) == 0 {
		return nil
	}
	if len(lfPowers) == 0 {
		panic("bwtc: inverse transform requires at least one LF power")
	}
	ptr := lfPowers[0]

	var c [256]int
	for _, v := range permuted {
		c[v]++
	}
	var sum int
	for i, v := range c {
		sum += v
		c[i] = sum - v
	}

	next := make([]int, len(permuted))
	for i, b := range permuted {
		next[c[b]] = i
		c[b]++
	}

	out := make([]byte, len(permuted))
	pos := next[ptr]
	for i := range out {
		out[i] = permuted[pos]
		pos = next[pos]
	}
	return out
}
