// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import "github.com/dsnet/bwtc/internal/bitio"

// canonicalDecodeTable holds, per code length, the first canonical code of
// that length and the ordered list of symbols sharing it -- the standard
// "first code per length" canonical-Huffman decode structure. Decoding
// walks one bit at a time, which sidesteps building the flat lookup table
// the encoder's maxHuffmanLen (47) would otherwise require to be
// impractically large.
type canonicalDecodeTable struct {
	firstCode [maxHuffmanLen + 2]uint64
	firstSym  [maxHuffmanLen + 2]int // index into symsByLen where this length's symbols start
	countLen  [maxHuffmanLen + 2]int
	symsByLen []int
	maxLen    int

	// soleSym holds the alphabet's only symbol when it needs zero code
	// bits (a single-symbol alphabet has canonical length 0), so decode
	// can resolve it without reading from br at all.
	soleSym int
	hasSole bool
}

func buildDecodeTable(lengths [256]int, used []int) *canonicalDecodeTable {
	t := &canonicalDecodeTable{}
	if len(used) == 1 {
		t.soleSym, t.hasSole = used[0], true
		return t
	}
	order := append([]int(nil), used...)
	sortBySymbolThenLength(order, lengths)
	for _, s := range order {
		l := lengths[s]
		if l > t.maxLen {
			t.maxLen = l
		}
	}
	for _, s := range order {
		t.countLen[lengths[s]]++
	}
	t.symsByLen = make([]int, 0, len(order))
	for l := 1; l <= t.maxLen; l++ {
		t.firstSym[l] = len(t.symsByLen)
		for _, s := range order {
			if lengths[s] == l {
				t.symsByLen = append(t.symsByLen, s)
			}
		}
	}
	var code uint64
	for l := 1; l <= t.maxLen; l++ {
		t.firstCode[l] = code
		code = (code + uint64(t.countLen[l])) << 1
	}
	return t
}

func sortBySymbolThenLength(order []int, lengths [256]int) {
	// insertion sort: used-symbol sets are at most 256 long.
	for i := 1; i < len(order); i++ {
		v := order[i]
		j := i - 1
		for j >= 0 && order[j] > v {
			order[j+1] = order[j]
			j--
		}
		order[j+1] = v
	}
	_ = lengths
}

// decode reads one canonical Huffman symbol from br.
func (t *canonicalDecodeTable) decode(br *bitio.BitReader) (int, error) {
	if t.hasSole {
		return t.soleSym, nil
	}
	var code uint64
	for l := 1; l <= t.maxLen; l++ {
		b, err := br.ReadBit()
		if err != nil {
			return 0, err
		}
		code = (code << 1) | uint64(b)
		if code-t.firstCode[l] < uint64(t.countLen[l]) {
			idx := t.firstSym[l] + int(code-t.firstCode[l])
			return t.symsByLen[idx], nil
		}
	}
	return 0, ErrCorrupt
}

// readHuffmanShape reverses writeHuffmanShape.
func readHuffmanShape(br *bitio.BitReader, r *bitio.Reader) (lengths [256]int, used []int, err error) {
	largestB, err := r.ReadByte()
	if err != nil {
		return lengths, nil, err
	}
	largest := int(largestB)
	n64, err := bitio.ReadPacked(r)
	if err != nil {
		return lengths, nil, err
	}
	n := int(n64) - 1
	maxLen64, err := bitio.ReadPacked(r)
	if err != nil {
		return lengths, nil, err
	}
	maxLen := int(maxLen64)

	syms, err := readInterpolative(br, n, 0, largest, nil)
	if err != nil {
		return lengths, nil, err
	}
	for _, s := range syms {
		z, err := br.ReadUnary()
		if err != nil {
			return lengths, nil, err
		}
		lengths[s] = maxLen - int(z)
	}
	return lengths, syms, nil
}

// readHuffmanPayload reverses writeHuffmanPayload, reconstructing the
// original byte sequence.
func readHuffmanPayload(r *bitio.Reader) ([]byte, error) {
	nRuns64, err := bitio.ReadPacked(r)
	if err != nil {
		return nil, err
	}
	nRuns := int(nRuns64)

	br := bitio.NewBitReader(r)
	lengths, used, err := readHuffmanShape(br, r)
	if err != nil {
		return nil, err
	}
	dt := buildDecodeTable(lengths, used)

	runSyms := make([]byte, nRuns)
	for i := 0; i < nRuns; i++ {
		s, err := dt.decode(br)
		if err != nil {
			return nil, err
		}
		runSyms[i] = byte(s)
	}
	br.FlushBuffer()

	var out []byte
	for i := 0; i < nRuns; i++ {
		l, err := br.ReadGamma()
		if err != nil {
			return nil, err
		}
		for k := uint64(0); k < l; k++ {
			out = append(out, runSyms[i])
		}
	}
	return out, nil
}
