// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"bytes"
	"strings"
	"testing"
)

func TestBWTRoundTrip(t *testing.T) {
	vectors := []string{
		"",
		"a",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"Hello, world!",
		"SIX.MIXED.PIXIES.SIFT.SIXTY.PIXIE.DUST.BOXES",
		"0123456789",
		"9876543210",
		"The quick brown fox jumped over the lazy dog.",
		strings.Repeat("banana", 50),
		string(bytes.Repeat([]byte{0x00, 0xff}, 100)),
	}
	for _, in := range vectors {
		permuted, lf := doTransform([]byte(in))
		out := inverseTransform(permuted, lf)
		if string(out) != in {
			t.Errorf("round trip mismatch for %q: got %q", in, out)
		}
	}
}

func TestBWTGroupsEqualBytesTogether(t *testing.T) {
	// The permutation of a string with many repeated characters should be
	// highly run-heavy: this is the entire point of BWT preceding an
	// entropy coder tuned for runs.
	in := strings.Repeat("abc", 200)
	permuted, _ := doTransform([]byte(in))
	runs := 1
	for i := 1; i < len(permuted); i++ {
		if permuted[i] != permuted[i-1] {
			runs++
		}
	}
	if runs > len(permuted)/10 {
		t.Errorf("expected a run-heavy permutation, got %d runs over %d bytes", runs, len(permuted))
	}
}
