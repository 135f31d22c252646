// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

// maxSliceLen bounds how much of a precompressor block a single BWT slice
// covers. Slicing keeps the suffix-array construction and the LF-power
// trailer's per-slice bookkeeping bounded even for a large --block setting.
const maxSliceLen = 1 << 20

// blockPool hands out reusable byte buffers sized bufSize, recycling them
// across precompressor blocks instead of allocating fresh ones each time
// (spec section 5: "the block manager owns byte buffers ... and recycles
// them across blocks").
type blockPool struct {
	bufSize int
	free    [][]byte
}

func newBlockPool(bufSize int) *blockPool {
	return &blockPool{bufSize: bufSize}
}

// Get returns a buffer of at least bufSize+headroom capacity, reusing a
// freed one if available.
func (p *blockPool) Get() []byte {
	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free = p.free[:n-1]
		return b[:cap(b)]
	}
	return make([]byte, p.bufSize+preprocessorHeadroom)
}

// Put returns a buffer to the pool for reuse by a later block.
func (p *blockPool) Put(b []byte) {
	p.free = append(p.free, b)
}

// preprocessorHeadroom is the 3-byte overhead budget the common-pair and
// long-run preprocessors require beyond the source length (spec sections
// 4.5, 4.6). applyPreprocessors sizes its destination buffers with it, and
// every pooled buffer carries the same extra capacity.
const preprocessorHeadroom = 3

// bwtSlice is a window of a precompressor block that was BWT-transformed
// independently, holding its permuted bytes and the LF powers needed to
// invert it.
type bwtSlice struct {
	permuted []byte
	lfPowers []int
}

// splitIntoSlices partitions data into slices of at most maxSliceLen bytes
// each and BWT-transforms every one independently.
func splitIntoSlices(data []byte) []bwtSlice {
	if len(data) == 0 {
		return []bwtSlice{{permuted: nil, lfPowers: []int{0}}}
	}
	var slices []bwtSlice
	for off := 0; off < len(data); off += maxSliceLen {
		end := off + maxSliceLen
		if end > len(data) {
			end = len(data)
		}
		permuted, lf := doTransform(data[off:end])
		slices = append(slices, bwtSlice{permuted: permuted, lfPowers: lf})
	}
	return slices
}

// precompBlock is one precompressor block: the (possibly shrunk) data that
// survived the preprocessor pipeline, the grammar recording how it was
// shrunk, and its BWT slices.
type precompBlock struct {
	data         []byte
	originalSize int64
	grammar      *grammar
	slices       []bwtSlice
}

// buildPrecompBlock runs the preprocessor pipeline and the BWT transform
// over data, assembling the precompBlock a Writer serializes.
func buildPrecompBlock(data []byte, preprocessors string, allowEscape bool) (*precompBlock, error) {
	shrunk, g, err := applyPreprocessors(data, preprocessors, allowEscape)
	if err != nil {
		return nil, err
	}
	return &precompBlock{
		data:         shrunk,
		originalSize: int64(len(data)),
		grammar:      g,
		slices:       splitIntoSlices(shrunk),
	}, nil
}
