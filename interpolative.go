// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import "github.com/dsnet/bwtc/internal/bitio"

// writeInterpolative encodes the sorted, distinct values in syms (each in
// [lo, hi]) using binary interpolative coding: the median value's offset
// from lo+mid is written with ceil(log2(span)) bits, where span is the size
// of the narrowed range [lo+mid, hi-(len(syms)-1-mid)] the median can occupy,
// then the two halves recurse against the ranges the median implies.
func writeInterpolative(bw *bitio.BitWriter, syms []int, lo, hi int) error {
	if len(syms) == 0 {
		return nil
	}
	mid := len(syms) / 2
	// The median must land within [lo+mid, hi-(len(syms)-1-mid)] since that
	// many smaller/larger distinct values must still fit on either side.
	loBound := lo + mid
	hiBound := hi - (len(syms) - 1 - mid)
	span := hiBound - loBound + 1
	nb := bitsFor(span)
	if err := bw.WriteBits(uint64(syms[mid]-loBound), nb); err != nil {
		return err
	}
	if mid > 0 {
		if err := writeInterpolative(bw, syms[:mid], lo, syms[mid]-1); err != nil {
			return err
		}
	}
	if mid+1 < len(syms) {
		if err := writeInterpolative(bw, syms[mid+1:], syms[mid]+1, hi); err != nil {
			return err
		}
	}
	return nil
}

// readInterpolative decodes n distinct sorted values in [lo, hi] previously
// written by writeInterpolative, appending them to out.
func readInterpolative(br *bitio.BitReader, n, lo, hi int, out []int) ([]int, error) {
	if n == 0 {
		return out, nil
	}
	mid := n / 2
	loBound := lo + mid
	hiBound := hi - (n - 1 - mid)
	span := hiBound - loBound + 1
	nb := bitsFor(span)
	v, err := br.ReadBits(nb)
	if err != nil {
		return nil, err
	}
	medVal := loBound + int(v)

	if mid > 0 {
		out, err = readInterpolative(br, mid, lo, medVal-1, out)
		if err != nil {
			return nil, err
		}
	}
	out = append(out, medVal)
	if n-1-mid > 0 {
		out, err = readInterpolative(br, n-1-mid, medVal+1, hi, out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// bitsFor returns ceil(log2(n)) for n >= 1, treating n == 1 as needing zero
// bits (a singleton range carries no information).
func bitsFor(n int) uint {
	if n <= 1 {
		return 0
	}
	nb := uint(0)
	for (1 << nb) < n {
		nb++
	}
	return nb
}
