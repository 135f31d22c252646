// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package bwtc implements a block-oriented, Burrows-Wheeler-Transform-based
// lossless compressor. A byte stream is split into fixed-size precompressor
// blocks, redundancy is reduced with dictionary-style preprocessors, each
// block is permuted with the BWT, and the result is entropy-coded with
// either a canonical-Huffman run-length scheme or a wavelet-tree arithmetic
// scheme.
package bwtc

import "runtime"

// Error is the wrapper type for errors specific to this library.
type Error string

func (e Error) Error() string { return "bwtc: " + string(e) }

var (
	// ErrCorrupt is returned when the compressed stream fails to parse:
	// an unknown or inconsistent entropy-coder byte in the global header,
	// an unknown grammar rule tag, a BWT-slice block whose 48-bit length
	// disagrees with the bytes its contents took, or a Huffman code that
	// matches no symbol. A malformed packed integer is reported as
	// bitio.ErrMalformed instead.
	ErrCorrupt error = Error("stream is corrupted")

	// ErrUsage is returned by the preprocessor pipeline for an unrecognized
	// preprocessor selector. WriterConfig.Validate reports configuration
	// problems as its own aggregated error, which does not wrap ErrUsage.
	ErrUsage error = Error("invalid usage")

	// ErrInsufficientHeadroom is returned by a preprocessor when its
	// destination buffer lacks the overhead bytes it needs to guarantee
	// the output never exceeds its worst-case bound.
	ErrInsufficientHeadroom error = Error("preprocessor destination lacks headroom")
)

// entropy coder selectors, spec section 6. Only coderHuffman ('B') names
// the canonical-Huffman run-length path (spec sections 4.8-4.9); the other
// five select the wavelet-tree arithmetic path (spec section 4.10) and
// double as the ProbabilityModel selector char of spec section 4.3. Only
// two models back them (see newModelFor): 'n', 'b' and 'u' all use the
// default last-bit byteModel, and 'm' and 'M' both use the same Markov
// byteModel.
const (
	coderNull    = 'n' // wavelet path, default last-bit predictor
	coderFSM     = 'b' // wavelet path, default last-bit predictor
	coderHuffman = 'B' // canonical Huffman run-length coder (default)
	coderSimple  = 'u' // wavelet path, default last-bit predictor
	coderMarkovA = 'm' // wavelet path, Markov-state predictor
	coderMarkovB = 'M' // wavelet path, same Markov-state predictor as 'm'
)

// isKnownCoder reports whether c is one of the entropy-coder selectors the
// global header may name.
func isKnownCoder(c byte) bool {
	switch c {
	case coderNull, coderFSM, coderHuffman, coderSimple, coderMarkovA, coderMarkovB:
		return true
	}
	return false
}

// usesHuffman reports whether the selector names the Huffman run-length
// path rather than the wavelet-tree arithmetic path.
func usesHuffman(c byte) bool { return c == coderHuffman }

func errRecover(err *error) {
	switch ex := recover().(type) {
	case nil:
		// Do nothing.
	case runtime.Error:
		panic(ex)
	case error:
		*err = ex
	default:
		panic(ex)
	}
}

// isValidPreprocessorSpec reports whether every rune in s is one of the
// known preprocessor selectors.
func isValidPreprocessorSpec(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'c', 'p', 'r', 's':
		default:
			return false
		}
	}
	return true
}
