// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"github.com/dsnet/bwtc/internal/bitio"
)

// waveletNode is one node of the wavelet tree, held in an arena (a plain
// slice) rather than a pointer graph: children are referenced by index,
// -1 meaning "no child" (a leaf).
type waveletNode struct {
	left, right int  // child indices into the tree's node arena, -1 if none
	leaf        bool
	sym         byte
}

// waveletTree is the Huffman-shaped binary tree over the byte alphabet used
// by the wavelet-tree entropy path (spec section 4.10): each internal node
// carries one bit per symbol reaching it, arithmetically coded against a
// byteModel that resets at every context-block boundary.
type waveletTree struct {
	nodes []waveletNode
	root  int
}

// buildWaveletTree constructs the Huffman-shaped tree over freq (256-entry,
// zero meaning absent). A single-symbol alphabet produces a one-leaf tree,
// consistent with the degenerate case in spec section 3.
func buildWaveletTree(freq *[256]int64) *waveletTree {
	lengths, used := buildCodeLengths(freq)
	t := &waveletTree{}
	if len(used) == 0 {
		return t
	}
	if len(used) == 1 {
		t.nodes = append(t.nodes, waveletNode{left: -1, right: -1, leaf: true, sym: byte(used[0])})
		t.root = 0
		return t
	}

	// Reconstruct the same shape buildCodeLengths derived, using a
	// min-heap over (freq, node) exactly like the length construction, so
	// that the arena mirrors the code-length assignment bit for bit.
	h := &huffHeap{}
	order := 0
	nodeOf := make(map[*huffNode]int)
	for _, s := range used {
		hn := &huffNode{freq: freq[s], sym: s, order: order}
		order++
		idx := len(t.nodes)
		t.nodes = append(t.nodes, waveletNode{left: -1, right: -1, leaf: true, sym: byte(s)})
		nodeOf[hn] = idx
		pushHuffHeap(h, hn)
	}
	_ = lengths
	for h.Len() > 1 {
		a := popHuffHeap(h)
		b := popHuffHeap(h)
		n := &huffNode{freq: a.freq + b.freq, sym: -1, order: order}
		order++
		idx := len(t.nodes)
		t.nodes = append(t.nodes, waveletNode{left: nodeOf[a], right: nodeOf[b]})
		nodeOf[n] = idx
		pushHuffHeap(h, n)
	}
	t.root = nodeOf[(*h)[0]]
	return t
}

func pushHuffHeap(h *huffHeap, n *huffNode) { *h = append(*h, n); huffHeapUp(h, len(*h)-1) }
func popHuffHeap(h *huffHeap) *huffNode {
	old := *h
	n := len(old)
	old[0], old[n-1] = old[n-1], old[0]
	v := old[n-1]
	*h = old[:n-1]
	huffHeapDown(h, 0)
	return v
}
func huffHeapUp(h *huffHeap, i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !(*h).Less(i, p) {
			break
		}
		(*h).Swap(i, p)
		i = p
	}
}
func huffHeapDown(h *huffHeap, i int) {
	n := len(*h)
	for {
		l, r, small := 2*i+1, 2*i+2, i
		if l < n && (*h).Less(l, small) {
			small = l
		}
		if r < n && (*h).Less(r, small) {
			small = r
		}
		if small == i {
			break
		}
		(*h).Swap(i, small)
		i = small
	}
}

// writeWaveletShape serializes tree's exact structure via a preorder walk:
// a 1 bit marks an internal node (its left subtree follows, then its right),
// a 0 bit marks a leaf and is followed by its 8-bit symbol. Because the tree
// buildWaveletTree constructs is shaped by the section's actual byte
// frequencies (not just which bytes occur), the decoder must recover this
// exact topology -- rebuilding a tree from the alphabet alone with uniform
// weights produces a different shape whenever the true frequencies aren't
// uniform, and the recursive bit-vectors below would then be decoded against
// the wrong tree. Grounded on original_source/WaveletCoders.cpp's
// treeShape/readShape pair, generalized to also carry each leaf's symbol
// since this tree's leaves aren't visited in a canonical byte-value order.
func writeWaveletShape(w *bitio.Writer, t *waveletTree) error {
	bw := bitio.NewBitWriter(w)
	if err := writeWaveletShapeNode(bw, t, t.root); err != nil {
		return err
	}
	return bw.Flush()
}

func writeWaveletShapeNode(bw *bitio.BitWriter, t *waveletTree, idx int) error {
	n := t.nodes[idx]
	if n.leaf {
		if err := bw.WriteBits(0, 1); err != nil {
			return err
		}
		return bw.WriteBits(uint64(n.sym), 8)
	}
	if err := bw.WriteBits(1, 1); err != nil {
		return err
	}
	if err := writeWaveletShapeNode(bw, t, n.left); err != nil {
		return err
	}
	return writeWaveletShapeNode(bw, t, n.right)
}

// readWaveletShape reverses writeWaveletShape, rebuilding the identical tree
// topology the encoder walked.
func readWaveletShape(r *bitio.Reader) (*waveletTree, error) {
	br := bitio.NewBitReader(r)
	t := &waveletTree{}
	root, err := readWaveletShapeNode(br, t)
	if err != nil {
		return nil, err
	}
	t.root = root
	br.FlushBuffer()
	return t, nil
}

func readWaveletShapeNode(br *bitio.BitReader, t *waveletTree) (int, error) {
	bit, err := br.ReadBit()
	if err != nil {
		return 0, err
	}
	if bit == 0 {
		sym, err := br.ReadBits(8)
		if err != nil {
			return 0, err
		}
		idx := len(t.nodes)
		t.nodes = append(t.nodes, waveletNode{left: -1, right: -1, leaf: true, sym: byte(sym)})
		return idx, nil
	}
	idx := len(t.nodes)
	t.nodes = append(t.nodes, waveletNode{})
	left, err := readWaveletShapeNode(br, t)
	if err != nil {
		return 0, err
	}
	right, err := readWaveletShapeNode(br, t)
	if err != nil {
		return 0, err
	}
	t.nodes[idx].left = left
	t.nodes[idx].right = right
	return idx, nil
}

// encodeWavelet writes src's wavelet-tree encoding: the tree shape, then for
// each internal node (in a fixed pre-order walk) the bitvector of left/right
// choices for the symbols reaching that node, arithmetically coded against
// the byte-coding model. The model is reset between nodes, not just once per
// section (spec section 4.10 step 4: "between nodes, reset all three models
// (context-block boundary)") -- each node's bitvector starts from the same
// blank statistics rather than carrying over adaptation from its parent or
// sibling. An empty section writes nothing; decodeWavelet's caller already
// knows the section length is zero and reads nothing back.
func encodeWavelet(w *bitio.Writer, src []byte, model probModel) error {
	if len(src) == 0 {
		return nil
	}
	var freq [256]int64
	for _, b := range src {
		freq[b]++
	}
	tree := buildWaveletTree(&freq)
	if err := writeWaveletShape(w, tree); err != nil {
		return err
	}
	if len(tree.nodes) <= 1 {
		// Nothing to arithmetically code: every byte in the section is the
		// same value, so decodeWavelet reconstructs it from the shape alone
		// without touching the range coder.
		return nil
	}

	enc := newRangeEncoder(w)
	if err := encodeWaveletNode(enc, tree, tree.root, src, model); err != nil {
		return err
	}
	return enc.finish()
}

// encodeWaveletNode recursively encodes the bit sequence directing each
// element of seq at node idx to its left or right child, then recurses on
// each side's sub-sequence. model is reset immediately before this node's
// bitvector so each node's statistics start fresh.
func encodeWaveletNode(enc *rangeEncoder, t *waveletTree, idx int, seq []byte, model probModel) error {
	n := t.nodes[idx]
	if n.leaf {
		return nil
	}
	model.resetModel()
	leftSyms := leafSymbolSet(t, n.left)
	var left, right []byte
	for _, b := range seq {
		bit := 0
		if !leftSyms[b] {
			bit = 1
		}
		if err := enc.encodeBit(model, bit); err != nil {
			return err
		}
		if bit == 0 {
			left = append(left, b)
		} else {
			right = append(right, b)
		}
	}
	if err := encodeWaveletNode(enc, t, n.left, left, model); err != nil {
		return err
	}
	return encodeWaveletNode(enc, t, n.right, right, model)
}

func leafSymbolSet(t *waveletTree, idx int) map[byte]bool {
	set := make(map[byte]bool)
	var walk func(i int)
	walk = func(i int) {
		n := t.nodes[i]
		if n.leaf {
			set[n.sym] = true
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(idx)
	return set
}

// decodeWavelet reverses encodeWavelet, reconstructing n bytes.
func decodeWavelet(r *bitio.Reader, n int, model probModel) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	tree, err := readWaveletShape(r)
	if err != nil {
		return nil, err
	}
	if len(tree.nodes) == 1 {
		out := make([]byte, n)
		for i := range out {
			out[i] = tree.nodes[0].sym
		}
		return out, nil
	}

	dec, err := newRangeDecoder(r)
	if err != nil {
		return nil, err
	}
	return decodeWaveletNode(dec, tree, tree.root, n, model)
}

// decodeWaveletNode mirrors encodeWaveletNode, resetting model before
// consuming this node's bitvector so both sides of the coder reset in
// lockstep.
func decodeWaveletNode(dec *rangeDecoder, t *waveletTree, idx int, n int, model probModel) ([]byte, error) {
	node := t.nodes[idx]
	if node.leaf {
		out := make([]byte, n)
		for i := range out {
			out[i] = node.sym
		}
		return out, nil
	}
	model.resetModel()
	bits := make([]int, n)
	nLeft := 0
	for i := 0; i < n; i++ {
		b, err := dec.decodeBit(model)
		if err != nil {
			return nil, err
		}
		bits[i] = b
		if b == 0 {
			nLeft++
		}
	}
	left, err := decodeWaveletNode(dec, t, node.left, nLeft, model)
	if err != nil {
		return nil, err
	}
	right, err := decodeWaveletNode(dec, t, node.right, n-nLeft, model)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	li, ri := 0, 0
	for i, b := range bits {
		if b == 0 {
			out[i] = left[li]
			li++
		} else {
			out[i] = right[ri]
			ri++
		}
	}
	return out, nil
}
