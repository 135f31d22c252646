// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"bytes"
	"strings"
	"testing"
)

func roundTripCommonPairs(g *grammar, out []byte) []byte {
	escByte, hasEsc := g.PairEscapeByte()
	return expandCommonPairs(out, g.Rules(), escByte, hasEsc)
}

func TestCompressCommonPairsRoundTrip(t *testing.T) {
	vectors := []string{
		"",
		"a",
		strings.Repeat("ab", 500),
		"the cat sat on the mat with the hat",
		strings.Repeat("xy", 10) + strings.Repeat("yz", 10) + strings.Repeat("zx", 10),
	}
	for _, in := range vectors {
		src := []byte(in)
		dst := make([]byte, len(src)+preprocessorHeadroom)
		g := newGrammar()
		out, err := compressCommonPairs(src, dst, g, true)
		if err != nil {
			t.Fatalf("compressCommonPairs(%q): %v", in, err)
		}
		back := roundTripCommonPairs(g, out)
		if !bytes.Equal(back, src) {
			t.Errorf("round trip mismatch for %q: got %q via %d rules", in, back, len(g.Rules()))
		}
	}
}

func TestCompressCommonPairsNoFreeSymbolsEscapeDisabled(t *testing.T) {
	// A source touching every one of the 256 byte values leaves no freed
	// symbol for the preprocessor to introduce; with escaping disabled it
	// must pass through unchanged with an empty grammar.
	src := make([]byte, 256*4)
	for i := range src {
		src[i] = byte(i / 4)
	}
	dst := make([]byte, len(src)+preprocessorHeadroom)
	g := newGrammar()
	out, err := compressCommonPairs(src, dst, g, false)
	if err != nil {
		t.Fatalf("compressCommonPairs: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Errorf("expected passthrough, got a %d-byte result from a %d-byte input", len(out), len(src))
	}
	if len(g.Rules()) != 0 {
		t.Errorf("expected no rules, got %d", len(g.Rules()))
	}
}

func TestCompressCommonPairsEscapeFreeing(t *testing.T) {
	// Every one of the 256 byte values occurs, so the free-symbol pool is
	// empty; with escaping enabled the preprocessor must still find and
	// realize profitable pairs by reclaiming occupied bytes (spec section
	// 8 scenario 5).
	src := make([]byte, 0, 256*256)
	for r := 0; r < 256; r++ {
		for b := 0; b < 256; b++ {
			src = append(src, byte(b))
		}
	}
	dst := make([]byte, len(src)+preprocessorHeadroom)
	g := newGrammar()
	out, err := compressCommonPairs(src, dst, g, true)
	if err != nil {
		t.Fatalf("compressCommonPairs: %v", err)
	}
	if len(g.Rules()) == 0 {
		t.Fatalf("expected escape-freeing to realize at least one pair rule")
	}
	if len(g.Rules()) > 254 {
		t.Errorf("selected %d pairs, want at most 254", len(g.Rules()))
	}
	back := roundTripCommonPairs(g, out)
	if !bytes.Equal(back, src) {
		t.Errorf("round trip mismatch for escape-freed grammar with %d rules", len(g.Rules()))
	}
}

func TestCompressCommonPairsInsufficientHeadroom(t *testing.T) {
	src := []byte("abc")
	dst := make([]byte, len(src)) // no headroom
	g := newGrammar()
	if _, err := compressCommonPairs(src, dst, g, true); err != ErrInsufficientHeadroom {
		t.Errorf("got %v, want ErrInsufficientHeadroom", err)
	}
}
