// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dsnet/bwtc/internal/bitio"
)

func TestGrammarRoundTrip(t *testing.T) {
	g := newGrammar()
	g.AddPairRule(200, 'a', 'b')
	g.MarkSpecial(200)
	g.AddRunRule(201, 'c', 8)
	g.MarkSpecial(201)

	w := bitio.NewWriter(32)
	if err := writeGrammar(w, g); err != nil {
		t.Fatalf("writeGrammar: %v", err)
	}
	r := bitio.NewReader(w.Bytes())
	got, err := readGrammar(r)
	if err != nil {
		t.Fatalf("readGrammar: %v", err)
	}
	if len(got.Rules()) != 2 {
		t.Fatalf("got %d rules, want 2", len(got.Rules()))
	}
	if !got.IsSpecial(200) || !got.IsSpecial(201) {
		t.Errorf("expected both introduced symbols marked special")
	}
	if !got.IsVariable(200) || !got.IsVariable(201) {
		t.Errorf("expected both introduced symbols marked variable")
	}

	// A serialized grammar carries the ordered rule list plus each pass's
	// optional escape byte; the two bitmaps are rebuilt from those on read,
	// so a structural diff of the rules alone (ignoring the unexported
	// bitmap fields) is the right equivalence check here.
	if diff := cmp.Diff(g.Rules(), got.Rules(), cmp.AllowUnexported(rule{})); diff != "" {
		t.Errorf("rule list mismatch after round trip (-want +got):\n%s", diff)
	}
	if _, ok := got.PairEscapeByte(); ok {
		t.Errorf("expected no pair escape byte")
	}
	if _, ok := got.RunEscapeByte(); ok {
		t.Errorf("expected no run escape byte")
	}
}

func TestGrammarRoundTripWithEscape(t *testing.T) {
	g := newGrammar()
	g.AddPairRule(200, 'a', 'b')
	g.MarkSpecial(200)
	g.SetPairEscapeByte('x')
	g.MarkSpecial('x')
	g.AddRunRule(201, 'c', 8)
	g.MarkSpecial(201)
	g.SetRunEscapeByte('y')
	g.MarkSpecial('y')

	w := bitio.NewWriter(32)
	if err := writeGrammar(w, g); err != nil {
		t.Fatalf("writeGrammar: %v", err)
	}
	r := bitio.NewReader(w.Bytes())
	got, err := readGrammar(r)
	if err != nil {
		t.Fatalf("readGrammar: %v", err)
	}
	if b, ok := got.PairEscapeByte(); !ok || b != 'x' {
		t.Errorf("PairEscapeByte() = (%q, %v), want ('x', true)", b, ok)
	}
	if b, ok := got.RunEscapeByte(); !ok || b != 'y' {
		t.Errorf("RunEscapeByte() = (%q, %v), want ('y', true)", b, ok)
	}
	if !got.IsSpecial('x') || !got.IsSpecial('y') {
		t.Errorf("expected both escape bytes marked special")
	}
}

func TestSplitSectionsCapsAt256(t *testing.T) {
	data := make([]byte, sectionThreshold*300)
	sections := splitSections(data)
	if len(sections) > 256 {
		t.Fatalf("splitSections produced %d sections, want at most 256", len(sections))
	}
	var total int
	for _, s := range sections {
		total += len(s)
	}
	if total != len(data) {
		t.Errorf("sections cover %d bytes, want %d", total, len(data))
	}
}

func TestSplitSectionsEmpty(t *testing.T) {
	sections := splitSections(nil)
	if len(sections) != 1 || len(sections[0]) != 0 {
		t.Fatalf("splitSections(nil) = %v, want a single empty section", sections)
	}
}

func TestSliceBlockRoundTrip(t *testing.T) {
	permuted := bytes.Repeat([]byte("abracadabra"), 100)
	s := bwtSlice{permuted: permuted, lfPowers: []int{7}}

	w := bitio.NewWriter(64)
	model := newByteModel(false)
	if err := writeSliceBlock(w, s, coderHuffman, model); err != nil {
		t.Fatalf("writeSliceBlock: %v", err)
	}
	r := bitio.NewReader(w.Bytes())
	model2 := newByteModel(false)
	got, err := readSliceBlock(r, coderHuffman, model2)
	if err != nil {
		t.Fatalf("readSliceBlock: %v", err)
	}
	if !bytes.Equal(got.permuted, permuted) {
		t.Errorf("permuted mismatch: got %q", got.permuted)
	}
	if len(got.lfPowers) != 1 || got.lfPowers[0] != 7 {
		t.Errorf("lfPowers = %v, want [7]", got.lfPowers)
	}
}

func TestSliceBlockRoundTripWavelet(t *testing.T) {
	permuted := bytes.Repeat([]byte("abracadabra"), 100)
	s := bwtSlice{permuted: permuted, lfPowers: []int{3, 11}}

	w := bitio.NewWriter(64)
	model := newByteModel(false)
	if err := writeSliceBlock(w, s, coderNull, model); err != nil {
		t.Fatalf("writeSliceBlock: %v", err)
	}
	r := bitio.NewReader(w.Bytes())
	model2 := newByteModel(false)
	got, err := readSliceBlock(r, coderNull, model2)
	if err != nil {
		t.Fatalf("readSliceBlock: %v", err)
	}
	if !bytes.Equal(got.permuted, permuted) {
		t.Errorf("permuted mismatch: got %q", got.permuted)
	}
	if len(got.lfPowers) != 2 || got.lfPowers[0] != 3 || got.lfPowers[1] != 11 {
		t.Errorf("lfPowers = %v, want [3 11]", got.lfPowers)
	}
}
