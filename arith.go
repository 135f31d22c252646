// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import "github.com/dsnet/bwtc/internal/bitio"

// probOneBits is the number of bits of precision a probability-of-one value
// carries; probabilities are scaled into [1, 1<<probOneBits - 1].
const probOneBits = 16

const (
	rangeTop = uint32(1) << 24
)

// probModel is the contract every probability model (spec section 4.3)
// implements: a prediction, a bit-driven update, and a reset to the
// model's initial state.
type probModel interface {
	probabilityOfOne() uint32 // in [1, 1<<probOneBits - 1]
	update(bit int)
	resetModel()
}

// rangeEncoder is a binary range coder: encode splits [low, low+rng) by the
// supplied probability of a one bit, renormalizing by emitting whole bytes
// once the range narrows below rangeTop. Carry propagation follows the
// classic cached-0xFF-run technique: the most recently shifted-out byte is
// held back until it's known whether a subsequent carry must increment it.
type rangeEncoder struct {
	out       *bitio.Writer
	low       uint64
	rng       uint32
	cache     byte
	cacheSize int64
	nbytes    int64
}

func newRangeEncoder(out *bitio.Writer) *rangeEncoder {
	return &rangeEncoder{out: out, rng: 0xFFFFFFFF, cacheSize: 1}
}

// encodeBit encodes one bit under the model's current prediction and
// updates the model.
func (e *rangeEncoder) encodeBit(m probModel, bit int) error {
	p1 := e.rng / (1 << probOneBits) * m.probabilityOfOne()
	if bit == 1 {
		e.rng = p1
	} else {
		e.low += uint64(p1)
		e.rng -= p1
	}
	m.update(bit)
	for e.rng < rangeTop {
		if err := e.shiftLow(); err != nil {
			return err
		}
		e.rng <<= 8
	}
	return nil
}

func (e *rangeEncoder) shiftLow() error {
	if e.low < 0xFF000000 || e.low > 0xFFFFFFFF {
		carry := byte(e.low >> 32)
		b := e.cache
		for {
			if err := e.out.WriteByte(b + carry); err != nil {
				return err
			}
			e.nbytes++
			b = 0xFF
			e.cacheSize--
			if e.cacheSize == 0 {
				break
			}
		}
		e.cache = byte(e.low >> 24)
	}
	e.cacheSize++
	e.low = (e.low << 8) & 0xFFFFFFFF
	return nil
}

// finish flushes the remaining state, emitting five bytes so the decoder's
// initial fill always succeeds.
func (e *rangeEncoder) finish() error {
	for i := 0; i < 5; i++ {
		if err := e.shiftLow(); err != nil {
			return err
		}
	}
	return nil
}

// resetCounter zeros the emitted-byte counter used for block-length
// bookkeeping.
func (e *rangeEncoder) resetCounter() { e.nbytes = 0 }

// bytesWritten reports the number of bytes emitted since the last reset.
func (e *rangeEncoder) bytesWritten() int64 { return e.nbytes }

// rangeDecoder mirrors rangeEncoder for decoding.
type rangeDecoder struct {
	in     *bitio.Reader
	code   uint32
	rng    uint32
	nbytes int64
}

// newRangeDecoder primes the decoder's 32-bit value with five bytes from
// the stream. The first byte the encoder ever emits is always zero (the
// initial cache value), so it's read and discarded here.
func newRangeDecoder(in *bitio.Reader) (*rangeDecoder, error) {
	d := &rangeDecoder{in: in, rng: 0xFFFFFFFF}
	for i := 0; i < 5; i++ {
		b, err := in.ReadByte()
		if err != nil {
			return nil, err
		}
		if i == 0 {
			continue
		}
		d.code = d.code<<8 | uint32(b)
	}
	return d, nil
}

// decodeBit decodes one bit under the model's current prediction and
// updates the model.
func (d *rangeDecoder) decodeBit(m probModel) (int, error) {
	p1 := d.rng / (1 << probOneBits) * m.probabilityOfOne()
	var bit int
	if d.code < p1 {
		d.rng = p1
		bit = 1
	} else {
		d.code -= p1
		d.rng -= p1
		bit = 0
	}
	m.update(bit)
	for d.rng < rangeTop {
		b, err := d.in.ReadByte()
		if err != nil {
			return 0, err
		}
		d.code = d.code<<8 | uint32(b)
		d.rng <<= 8
		d.nbytes++
	}
	return bit, nil
}

// resetCounter zeros the consumed-byte counter used for block-length
// bookkeeping.
func (d *rangeDecoder) resetCounter() { d.nbytes = 0 }

// bytesRead reports the number of bytes consumed since the last reset.
func (d *rangeDecoder) bytesRead() int64 { return d.nbytes }
