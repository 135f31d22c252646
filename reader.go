// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"io"

	"github.com/dsnet/bwtc/internal/bitio"
)

// Reader implements io.ReadCloser, decompressing the framed stream produced
// by a Writer.
type Reader struct {
	r     io.Reader
	coder byte
	model probModel

	headerDone bool
	pending    []byte // decoded bytes not yet returned by Read
	eof        bool
	err        error
}

// NewReader returns a Reader pulling a compressed stream from r.
func NewReader(r io.Reader) (*Reader, error) {
	return &Reader{r: r}, nil
}

// Read implements io.Reader. It decodes precompressor blocks on demand and
// serves bytes from the most recently decoded one.
func (zr *Reader) Read(p []byte) (int, error) {
	if zr.err != nil {
		return 0, zr.err
	}
	for len(zr.pending) == 0 {
		if zr.eof {
			return 0, io.EOF
		}
		if err := zr.readBlock(); err != nil {
			zr.err = err
			return 0, err
		}
	}
	n := copy(p, zr.pending)
	zr.pending = zr.pending[n:]
	return n, nil
}

func (zr *Reader) readGlobalHeaderOnce() error {
	if zr.headerDone {
		return nil
	}
	var buf [1]byte
	if _, err := io.ReadFull(zr.r, buf[:]); err != nil {
		return err
	}
	coder := buf[0]
	if !isKnownCoder(coder) {
		return ErrCorrupt
	}
	if !usesHuffman(coder) {
		var buf2 [1]byte
		if _, err := io.ReadFull(zr.r, buf2[:]); err != nil {
			return err
		}
		if buf2[0] != coder {
			return ErrCorrupt
		}
	}
	zr.coder = coder
	zr.model = newModelFor(coder)
	zr.headerDone = true
	return nil
}

// readBlock reads one 48-bit-length-prefixed precompressor block, buffers
// its body, and either decodes it into zr.pending or, if it is the
// end-of-stream terminator (originalSize field == 0), sets zr.eof.
func (zr *Reader) readBlock() error {
	if err := zr.readGlobalHeaderOnce(); err != nil {
		return err
	}

	var lenBuf [6]byte
	if _, err := io.ReadFull(zr.r, lenBuf[:]); err != nil {
		return err
	}
	var length uint64
	for _, b := range lenBuf {
		length = (length << 8) | uint64(b)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(zr.r, body); err != nil {
		return err
	}

	br := bitio.NewReader(body)
	sizeField, err := bitio.ReadPacked(br)
	if err != nil {
		return err
	}
	if sizeField == 1 { // originalSize == 0: end-of-stream terminator
		zr.eof = true
		return nil
	}
	originalSize := sizeField - 1

	g, err := readGrammar(br)
	if err != nil {
		return err
	}

	nSlicesB, err := br.ReadByte()
	if err != nil {
		return err
	}
	nSlices := int(nSlicesB)
	if nSlices == 0 {
		nSlices = 256
	}
	sliceLens := make([]int64, nSlices)
	for i := range sliceLens {
		l, err := bitio.ReadPacked(br)
		if err != nil {
			return err
		}
		sliceLens[i] = int64(l) - 1
	}

	shrunk := make([]byte, 0, originalSize)
	for range sliceLens {
		s, err := readSliceBlock(br, zr.coder, zr.model)
		if err != nil {
			return err
		}
		shrunk = append(shrunk, inverseTransform(s.permuted, s.lfPowers)...)
	}

	data := reversePreprocessors(shrunk, g)
	zr.pending = append(zr.pending[:0], data...)
	return nil
}

// Close closes the underlying reader if it implements io.Closer.
func (zr *Reader) Close() error {
	if c, ok := zr.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Reset discards decode state and reconfigures the Reader to read from r.
func (zr *Reader) Reset(r io.Reader) {
	zr.r = r
	zr.headerDone = false
	zr.pending = zr.pending[:0]
	zr.eof = false
	zr.err = nil
}
