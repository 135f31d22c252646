// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"bytes"
	"strings"
	"testing"
)

func roundTripLongRuns(g *grammar, out []byte) []byte {
	escByte, hasEsc := g.RunEscapeByte()
	return expandLongRuns(out, g.Rules(), escByte, hasEsc)
}

func TestCompressLongRunsRoundTrip(t *testing.T) {
	vectors := []string{
		"",
		"a",
		strings.Repeat("a", 4),
		strings.Repeat("a", 1000) + strings.Repeat("b", 1000) + "the quick fox",
		strings.Repeat("x", 3) + strings.Repeat("y", 5) + strings.Repeat("z", 9),
	}
	for _, in := range vectors {
		src := []byte(in)
		dst := make([]byte, len(src)+preprocessorHeadroom)
		g := newGrammar()
		out, err := compressLongRuns(src, dst, g, true)
		if err != nil {
			t.Fatalf("compressLongRuns(%q): %v", in, err)
		}
		back := roundTripLongRuns(g, out)
		if !bytes.Equal(back, src) {
			t.Errorf("round trip mismatch for %q: got %q via %d rules", in, back, len(g.Rules()))
		}
	}
}

func TestCompressLongRunsEscapeFreeing(t *testing.T) {
	// Every byte value 1-255 occurs exactly once (leaving no free symbol),
	// while byte 0 forms fifty separate 4-byte runs -- profitable enough
	// that escape-freeing should realize a run rule for it by reclaiming
	// one of the singly-occurring bytes.
	var src []byte
	for i := 1; i <= 255; i++ {
		src = append(src, byte(i))
	}
	for k := 0; k < 50; k++ {
		src = append(src, 0, 0, 0, 0, 255)
	}

	dst := make([]byte, len(src)+preprocessorHeadroom)
	g := newGrammar()
	out, err := compressLongRuns(src, dst, g, true)
	if err != nil {
		t.Fatalf("compressLongRuns: %v", err)
	}
	if len(g.Rules()) == 0 {
		t.Fatalf("expected escape-freeing to realize at least one run rule")
	}
	back := roundTripLongRuns(g, out)
	if !bytes.Equal(back, src) {
		t.Errorf("round trip mismatch for escape-freed grammar with %d rules", len(g.Rules()))
	}
}

func TestCompressLongRunsNoFreeSymbolsEscapeDisabled(t *testing.T) {
	var src []byte
	for i := 1; i <= 255; i++ {
		src = append(src, byte(i))
	}
	for k := 0; k < 50; k++ {
		src = append(src, 0, 0, 0, 0, 255)
	}

	dst := make([]byte, len(src)+preprocessorHeadroom)
	g := newGrammar()
	out, err := compressLongRuns(src, dst, g, false)
	if err != nil {
		t.Fatalf("compressLongRuns: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Errorf("expected passthrough with escaping disabled, got a %d-byte result from a %d-byte input", len(out), len(src))
	}
	if len(g.Rules()) != 0 {
		t.Errorf("expected no rules, got %d", len(g.Rules()))
	}
}

func TestDecomposeRun(t *testing.T) {
	cases := map[int][]int{
		1:    {1},
		2:    {2},
		3:    {2, 1},
		7:    {4, 2, 1},
		1000: {512, 256, 128, 64, 32, 8},
	}
	for n, want := range cases {
		got := decomposeRun(n)
		sum := 0
		for _, l := range got {
			sum += l
		}
		if sum != n {
			t.Errorf("decomposeRun(%d) = %v, sums to %d not %d", n, got, sum, n)
		}
		if len(got) != len(want) {
			t.Errorf("decomposeRun(%d) = %v, want length matching %v", n, got, want)
		}
	}
}
