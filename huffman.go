// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"container/heap"
	"sort"

	"github.com/dsnet/bwtc/internal/bitio"
)

// maxHuffmanLen is the maximum canonical code length this coder supports
// (spec section 3): the buffered bit writer relies on codes never exceeding
// 47 bits so that a single 64-bit accumulator flush is always sufficient.
const maxHuffmanLen = 47

// huffNode is a node of the length-construction heap: either a leaf (sym
// valid) or an internal node combining two children.
type huffNode struct {
	freq        int64
	sym         int // -1 for internal nodes
	left, right *huffNode
	order       int // insertion order, for stable tie-breaking
}

type huffHeap []*huffNode

func (h huffHeap) Len() int { return len(h) }
func (h huffHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].order < h[j].order
}
func (h huffHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *huffHeap) Push(x any)        { *h = append(*h, x.(*huffNode)) }
func (h *huffHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// buildCodeLengths computes classical Huffman code lengths for the given
// per-symbol frequencies (256-entry, zero meaning absent), capping the
// result at maxHuffmanLen via a length-limiting rebalance if necessary.
func buildCodeLengths(freq *[256]int64) (lengths [256]int, used []int) {
	h := &huffHeap{}
	order := 0
	for s := 0; s < 256; s++ {
		if freq[s] > 0 {
			heap.Push(h, &huffNode{freq: freq[s], sym: s, order: order})
			order++
			used = append(used, s)
		}
	}
	if len(used) == 0 {
		return lengths, used
	}
	if len(used) == 1 {
		// A single-symbol alphabet needs no code bits at all: every run
		// resolves to the sole symbol, so its canonical length is 0.
		lengths[used[0]] = 0
		return lengths, used
	}
	for h.Len() > 1 {
		a := heap.Pop(h).(*huffNode)
		b := heap.Pop(h).(*huffNode)
		n := &huffNode{freq: a.freq + b.freq, sym: -1, left: a, right: b, order: order}
		order++
		heap.Push(h, n)
	}
	root := (*h)[0]
	var walk func(n *huffNode, depth int)
	walk = func(n *huffNode, depth int) {
		if n.sym >= 0 {
			lengths[n.sym] = depth
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(root, 0)

	limitLengths(lengths[:], used, maxHuffmanLen)
	return lengths, used
}

// limitLengths clamps any code length exceeding max via the standard
// package-merge-adjacent technique: overflow bits are trimmed from the
// longest codes and donated to the shortest until the Kraft sum no longer
// exceeds 1; the resulting sum may be below 1.
func limitLengths(lengths []int, used []int, max int) {
	overflow := false
	for _, s := range used {
		if lengths[s] > max {
			overflow = true
			break
		}
	}
	if !overflow {
		return
	}
	for _, s := range used {
		if lengths[s] > max {
			lengths[s] = max
		}
	}
	// Rebalance the Kraft inequality by nudging lengths until the sum of
	// 2^-len over all used symbols no longer exceeds 1.
	kraftExceeds := func() bool {
		var sum float64
		for _, s := range used {
			sum += 1.0 / float64(int64(1)<<uint(lengths[s]))
		}
		return sum > 1.0
	}
	sortedByLen := append([]int(nil), used...)
	for kraftExceeds() {
		sort.Slice(sortedByLen, func(i, j int) bool { return lengths[sortedByLen[i]] < lengths[sortedByLen[j]] })
		shortest := sortedByLen[0]
		longest := sortedByLen[len(sortedByLen)-1]
		lengths[shortest]++
		if lengths[longest] > 1 {
			lengths[longest]--
		}
	}
}

// canonicalCodes assigns canonical codes to the used symbols from their
// lengths: symbols are ordered first by length, then by symbol value, and
// consecutive codes are assigned starting from zero, left-shifted whenever
// the length increases.
func canonicalCodes(lengths [256]int, used []int) (codes [256]uint64) {
	order := append([]int(nil), used...)
	sort.Slice(order, func(i, j int) bool {
		if lengths[order[i]] != lengths[order[j]] {
			return lengths[order[i]] < lengths[order[j]]
		}
		return order[i] < order[j]
	})
	var code uint64
	prevLen := 0
	for _, s := range order {
		if prevLen != 0 {
			code <<= uint(lengths[s] - prevLen)
		}
		codes[s] = code
		code++
		prevLen = lengths[s]
	}
	return codes
}

// writeHuffmanShape serializes the code-length table (spec section 4.8):
// largest symbol, symbol count, maxLen, the used-symbol subset via binary
// interpolative coding, then a unary length delta per symbol in that order.
func writeHuffmanShape(bw *bitio.BitWriter, w *bitio.Writer, lengths [256]int, used []int) error {
	largest := 0
	maxLen := 0
	for _, s := range used {
		if s > largest {
			largest = s
		}
		if lengths[s] > maxLen {
			maxLen = lengths[s]
		}
	}
	if err := w.WriteByte(byte(largest)); err != nil {
		return err
	}
	// len(used) ranges over [0, 256], so unlike the byte-count fields used
	// elsewhere (which never need to represent zero), it's carried as a
	// packed integer with the usual +1 offset rather than a "0 codes 256"
	// byte.
	if err := bitio.WritePacked(w, uint64(len(used))+1); err != nil {
		return err
	}
	if err := bitio.WritePacked(w, uint64(maxLen)); err != nil {
		return err
	}
	sortedUsed := append([]int(nil), used...)
	sort.Ints(sortedUsed)
	if err := writeInterpolative(bw, sortedUsed, 0, largest); err != nil {
		return err
	}
	for _, s := range sortedUsed {
		if err := bw.WriteUnary(uint(maxLen - lengths[s])); err != nil {
			return err
		}
	}
	return nil
}

// runFactor collapses consecutive equal bytes in src into parallel run
// symbol / run length arrays, and returns the byte frequencies of the run
// symbols (i.e. one count per run, not per source byte).
func runFactor(src []byte) (runSeq []byte, runLen []int, freq [256]int64) {
	i := 0
	for i < len(src) {
		j := i + 1
		for j < len(src) && src[j] == src[i] {
			j++
		}
		runSeq = append(runSeq, src[i])
		runLen = append(runLen, j-i)
		freq[src[i]]++
		i = j
	}
	return runSeq, runLen, freq
}

// writeHuffmanPayload implements the Huffman payload encoder (spec section
// 4.8): run-factor the block, write the run count, the shape, then the
// per-run symbol code and gamma-coded run length.
func writeHuffmanPayload(w *bitio.Writer, src []byte) error {
	runSeq, runLen, freq := runFactor(src)
	if err := bitio.WritePacked(w, uint64(len(runSeq))); err != nil {
		return err
	}
	lengths, used := buildCodeLengths(&freq)
	bw := bitio.NewBitWriter(w)
	if err := writeHuffmanShape(bw, w, lengths, used); err != nil {
		return err
	}
	codes := canonicalCodes(lengths, used)
	for _, s := range runSeq {
		if err := bw.WriteBits(codes[s], uint(lengths[s])); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	for _, l := range runLen {
		if err := bw.WriteGamma(uint64(l)); err != nil {
			return err
		}
	}
	return bw.Flush()
}
