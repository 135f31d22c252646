// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"math/rand"
	"testing"

	"github.com/dsnet/bwtc/internal/bitio"
)

func TestRangeCoderRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bits := make([]int, 5000)
	for i := range bits {
		if rng.Intn(4) == 0 {
			bits[i] = 1
		}
	}

	w := bitio.NewWriter(64)
	enc := newRangeEncoder(w)
	em := newByteModel(true)
	for _, b := range bits {
		if err := enc.encodeBit(em, b); err != nil {
			t.Fatalf("encodeBit: %v", err)
		}
	}
	if err := enc.finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	r := bitio.NewReader(w.Bytes())
	dec, err := newRangeDecoder(r)
	if err != nil {
		t.Fatalf("newRangeDecoder: %v", err)
	}
	dm := newByteModel(true)
	for i, want := range bits {
		got, err := dec.decodeBit(dm)
		if err != nil {
			t.Fatalf("decodeBit at %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("bit %d: got %d, want %d", i, got, want)
		}
	}
}

func TestByteModelDefaultPredictsRepeat(t *testing.T) {
	m := newByteModel(false)
	m.update(1)
	if p := m.probabilityOfOne(); p < probScale/2 {
		t.Errorf("after observing a 1 bit, probabilityOfOne() = %d, want a high value", p)
	}
	m.update(0)
	if p := m.probabilityOfOne(); p > probScale/2 {
		t.Errorf("after observing a 0 bit, probabilityOfOne() = %d, want a low value", p)
	}
}

func TestIntModelAdaptsPerPosition(t *testing.T) {
	m := newIntModel()
	for i := 0; i < 50; i++ {
		m.updateAt(3, 1)
	}
	if p := m.probabilityOfOneAt(3); p < probScale/2 {
		t.Errorf("probabilityOfOneAt(3) = %d after repeated 1 bits, want a high value", p)
	}
	if p := m.probabilityOfOneAt(7); p != probScale/2 {
		t.Errorf("probabilityOfOneAt(7) = %d, want unchanged default", p)
	}
}

func TestGapModelResetIsIdempotent(t *testing.T) {
	m := newGapModel()
	m.update(1)
	m.update(1)
	m.resetModel()
	if p := m.probabilityOfOne(); p != probScale/2 {
		t.Errorf("probabilityOfOne() after reset = %d, want %d", p, probScale/2)
	}
}
