// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/dsnet/bwtc/internal/bitio"
)

// defaultBlockSize matches the CLI's default --block value (spec section 6):
// 100,000 bytes per precompressor block.
const defaultBlockSize = 100000

// WriterConfig configures a Writer.
type WriterConfig struct {
	// BlockSize is the number of source bytes accumulated into each
	// precompressor block before it is preprocessed, transformed, and
	// encoded. Zero selects defaultBlockSize.
	BlockSize int

	// Preprocessors is the ordered pipeline of preprocessor selectors, each
	// one of 'c', 'p', 'r', 's' (spec section 6). Empty runs no
	// preprocessing pass.
	Preprocessors string

	// EntropyCoder selects the entropy coder: one of 'n', 'b', 'B', 'u',
	// 'm', 'M' (spec section 6). Zero value selects the Huffman coder 'B'.
	EntropyCoder byte

	// Threads bounds the encoder's concurrency. Only single-threaded
	// operation is implemented (spec section 5), so the only accepted
	// values are 0 (the default) and 1.
	Threads int

	// NoEscape disables the escape-byte freeing extension of the common-pair
	// and long-run preprocessors (spec sections 4.5-4.6). It mirrors the CLI's
	// --escape flag, inverted so the zero value matches that flag's default
	// of enabled.
	NoEscape bool
}

// Validate reports every configuration problem found, aggregated with
// go-multierror so a caller sees every mistake in one report rather than
// just the first.
func (c *WriterConfig) Validate() error {
	var errs *multierror.Error
	if c.BlockSize < 0 {
		errs = multierror.Append(errs, Error("block size must be non-negative"))
	}
	if !isValidPreprocessorSpec(c.Preprocessors) {
		errs = multierror.Append(errs, Error("preprocessor spec contains an unrecognized selector"))
	}
	coder := c.EntropyCoder
	if coder == 0 {
		coder = coderHuffman
	}
	if !isKnownCoder(coder) {
		errs = multierror.Append(errs, Error("unrecognized entropy coder selector"))
	}
	if c.Threads != 0 && c.Threads != 1 {
		errs = multierror.Append(errs, Error("only single-threaded operation is supported"))
	}
	return errs.ErrorOrNil()
}

// Writer implements io.WriteCloser, compressing bytes written to it and
// emitting the compressed stream to the wrapped io.Writer once Close is
// called (or once BlockSize bytes have accumulated).
type Writer struct {
	w      io.Writer
	config WriterConfig
	coder  byte
	model  probModel
	pool   *blockPool

	buf        []byte
	headerDone bool
	closed     bool
	err        error
}

// NewWriter returns a Writer with default configuration.
func NewWriter(w io.Writer) *Writer {
	zw, _ := NewWriterConfig(w, WriterConfig{})
	return zw
}

// NewWriterConfig returns a Writer using the given configuration.
func NewWriterConfig(w io.Writer, conf WriterConfig) (*Writer, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.BlockSize == 0 {
		conf.BlockSize = defaultBlockSize
	}
	if conf.EntropyCoder == 0 {
		conf.EntropyCoder = coderHuffman
	}
	zw := &Writer{w: w, config: conf, coder: conf.EntropyCoder}
	zw.model = newModelFor(zw.coder)
	zw.pool = newBlockPool(conf.BlockSize)
	zw.buf = zw.pool.Get()[:0]
	return zw, nil
}

func newModelFor(coder byte) probModel {
	switch coder {
	case coderMarkovA, coderMarkovB:
		return newByteModel(true)
	default:
		return newByteModel(false)
	}
}

// Write buffers p, flushing full precompressor blocks to the underlying
// stream as they fill.
func (zw *Writer) Write(p []byte) (int, error) {
	if zw.err != nil {
		return 0, zw.err
	}
	n := len(p)
	for len(p) > 0 {
		room := zw.config.BlockSize - len(zw.buf)
		if room <= 0 {
			if err := zw.flushBlock(); err != nil {
				zw.err = err
				return n - len(p), err
			}
			room = zw.config.BlockSize
		}
		take := room
		if take > len(p) {
			take = len(p)
		}
		zw.buf = append(zw.buf, p[:take]...)
		p = p[take:]
	}
	return n, nil
}

// flushBlock writes the global header if not yet written, then encodes and
// emits the currently buffered precompressor block. The accumulation buffer
// is then returned to zw.pool and replaced with a (possibly recycled) one,
// so a long-running Writer's buffer allocations are bounded by the pool's
// free list rather than growing once per block (spec section 5: "the block
// manager owns byte buffers ... and recycles them across blocks").
func (zw *Writer) flushBlock() error {
	if err := zw.writeGlobalHeaderOnce(); err != nil {
		return err
	}
	if len(zw.buf) == 0 {
		return nil
	}
	if err := zw.encodePrecompBlock(zw.buf); err != nil {
		return err
	}
	zw.pool.Put(zw.buf)
	zw.buf = zw.pool.Get()[:0]
	return nil
}

func (zw *Writer) writeGlobalHeaderOnce() error {
	if zw.headerDone {
		return nil
	}
	bw := bitio.NewWriter(2)
	if err := bw.WriteByte(zw.coder); err != nil {
		return err
	}
	if !usesHuffman(zw.coder) {
		if err := bw.WriteByte(zw.coder); err != nil {
			return err
		}
	}
	if _, err := zw.w.Write(bw.Bytes()); err != nil {
		return err
	}
	zw.headerDone = true
	return nil
}

// encodePrecompBlock runs the preprocessor pipeline, BWT, and entropy
// coder over data, writing the resulting precompressor-block record. Every
// block (including the empty end-of-stream terminator written by Close) is
// wrapped in an outer 48-bit length so the Reader knows exactly how many
// bytes to buffer before decoding it, mirroring writeSliceBlock's framing.
func (zw *Writer) encodePrecompBlock(data []byte) error {
	pb, err := buildPrecompBlock(data, zw.config.Preprocessors, !zw.config.NoEscape)
	if err != nil {
		return err
	}

	bw := bitio.NewWriter(len(pb.data) + len(pb.data)/4 + 64)
	lenPos, err := bw.WritePlaceholder48()
	if err != nil {
		return err
	}
	startPos := bw.Pos()
	if err := bitio.WritePacked(bw, uint64(pb.originalSize)+1); err != nil {
		return err
	}
	if err := writeGrammar(bw, pb.grammar); err != nil {
		return err
	}
	if err := bw.WriteByte(byte(len(pb.slices) % 256)); err != nil { // 0 codes 256
		return err
	}
	for _, s := range pb.slices {
		if err := bitio.WritePacked(bw, uint64(len(s.permuted))+1); err != nil {
			return err
		}
	}
	for _, s := range pb.slices {
		if err := writeSliceBlock(bw, s, zw.coder, zw.model); err != nil {
			return err
		}
	}
	endPos := bw.Pos()
	if err := bw.Patch48(lenPos, uint64(endPos-startPos)); err != nil {
		return err
	}
	_, err = zw.w.Write(bw.Bytes())
	return err
}

// writeEndMarker writes the end-of-stream terminator: a 48-bit length
// wrapping nothing but a packed originalSize field of 0.
func (zw *Writer) writeEndMarker() error {
	bw := bitio.NewWriter(8)
	lenPos, err := bw.WritePlaceholder48()
	if err != nil {
		return err
	}
	startPos := bw.Pos()
	if err := bitio.WritePacked(bw, 1); err != nil { // originalSize+1 == 1 => originalSize == 0
		return err
	}
	endPos := bw.Pos()
	if err := bw.Patch48(lenPos, uint64(endPos-startPos)); err != nil {
		return err
	}
	_, err = zw.w.Write(bw.Bytes())
	return err
}

// Close flushes any buffered data, writes the end-of-stream terminator
// (a precompressor block with originalSize == 0), and closes the
// underlying writer if it implements io.Closer.
func (zw *Writer) Close() error {
	if zw.closed {
		return zw.err
	}
	zw.closed = true
	if zw.err != nil {
		return zw.err
	}
	if err := zw.flushBlock(); err != nil {
		zw.err = err
		return err
	}
	if err := zw.writeGlobalHeaderOnce(); err != nil {
		zw.err = err
		return err
	}
	if err := zw.writeEndMarker(); err != nil {
		zw.err = err
		return err
	}
	if c, ok := zw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Reset discards any buffered state and reconfigures the Writer to write
// to w, reusing its allocations.
func (zw *Writer) Reset(w io.Writer) {
	zw.w = w
	zw.buf = zw.buf[:0]
	zw.headerDone = false
	zw.closed = false
	zw.err = nil
	zw.model.resetModel()
}
