// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"bytes"
	"testing"
)

func TestBlockPoolReusesBuffers(t *testing.T) {
	p := newBlockPool(1024)
	b1 := p.Get()
	if len(b1) < 1024 {
		t.Fatalf("Get() returned a %d-byte buffer, want at least 1024", len(b1))
	}
	p.Put(b1)
	b2 := p.Get()
	if &b1[0] != &b2[0] {
		t.Errorf("expected Put/Get to recycle the same backing array")
	}
}

func TestSplitIntoSlicesRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), maxSliceLen/5)
	slices := splitIntoSlices(data)
	if len(slices) < 2 {
		t.Fatalf("expected data larger than maxSliceLen to split into multiple slices, got %d", len(slices))
	}

	var out []byte
	for _, s := range slices {
		out = append(out, inverseTransform(s.permuted, s.lfPowers)...)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("round trip mismatch across slices")
	}
}

func TestSplitIntoSlicesEmpty(t *testing.T) {
	slices := splitIntoSlices(nil)
	if len(slices) != 1 || len(slices[0].permuted) != 0 {
		t.Fatalf("splitIntoSlices(nil) = %v, want a single empty slice", slices)
	}
}
