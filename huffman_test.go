// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"bytes"
	"testing"

	"github.com/dsnet/bwtc/internal/bitio"
)

func TestBuildCodeLengthsRespectsMax(t *testing.T) {
	// A heavily skewed Fibonacci-like frequency distribution is the classic
	// way to force an unconstrained Huffman tree past any fixed length cap.
	var freq [256]int64
	a, b := int64(1), int64(1)
	for i := 0; i < 50; i++ {
		freq[i] = a
		a, b = b, a+b
	}
	lengths, used := buildCodeLengths(&freq)
	if len(used) == 0 {
		t.Fatal("expected a non-empty used-symbol set")
	}
	for _, s := range used {
		if lengths[s] < 1 || lengths[s] > maxHuffmanLen {
			t.Errorf("symbol %d has length %d, want in [1, %d]", s, lengths[s], maxHuffmanLen)
		}
	}
	assertKraftValid(t, lengths, used)
}

func TestBuildCodeLengthsSingleSymbol(t *testing.T) {
	var freq [256]int64
	freq['a'] = 100
	lengths, used := buildCodeLengths(&freq)
	if len(used) != 1 || used[0] != 'a' {
		t.Fatalf("used = %v, want [%d]", used, 'a')
	}
	if lengths['a'] != 0 {
		t.Errorf("lengths['a'] = %d, want 0 (a single-symbol alphabet needs no code bits)", lengths['a'])
	}
}

func TestCanonicalCodesArePrefixFree(t *testing.T) {
	var freq [256]int64
	for i, c := range []byte("mississippi river") {
		_ = i
		freq[c]++
	}
	lengths, used := buildCodeLengths(&freq)
	codes := canonicalCodes(lengths, used)

	for i, a := range used {
		for _, b := range used[i+1:] {
			la, lb := lengths[a], lengths[b]
			ca, cb := codes[a], codes[b]
			short, long, shortLen, longLen := ca, cb, la, lb
			if la > lb {
				short, long, shortLen, longLen = cb, ca, lb, la
			}
			if long>>uint(longLen-shortLen) == short {
				t.Fatalf("codes for %q and %q are not prefix-free", a, b)
			}
		}
	}
}

func assertKraftValid(t *testing.T, lengths [256]int, used []int) {
	t.Helper()
	var sum float64
	for _, s := range used {
		sum += 1.0 / float64(int64(1)<<uint(lengths[s]))
	}
	if sum > 1.0+1e-9 {
		t.Errorf("Kraft sum %v exceeds 1", sum)
	}
}

func TestHuffmanPayloadRoundTrip(t *testing.T) {
	vectors := [][]byte{
		nil,
		[]byte("a"),
		[]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaabbbbbbbbbbbbbbccccc"),
		[]byte("the quick brown fox jumps over the lazy dog"),
		bytes.Repeat([]byte{0x00, 0x01, 0x02, 0x03}, 500),
	}
	for _, in := range vectors {
		w := bitio.NewWriter(64)
		if err := writeHuffmanPayload(w, in); err != nil {
			t.Fatalf("writeHuffmanPayload(%q): %v", in, err)
		}
		r := bitio.NewReader(w.Bytes())
		out, err := readHuffmanPayload(r)
		if err != nil {
			t.Fatalf("readHuffmanPayload(%q): %v", in, err)
		}
		if !bytes.Equal(out, in) {
			t.Errorf("round trip mismatch: got %q, want %q", out, in)
		}
	}
}
