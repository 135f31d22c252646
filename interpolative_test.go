// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"reflect"
	"testing"

	"github.com/dsnet/bwtc/internal/bitio"
)

func TestInterpolativeRoundTrip(t *testing.T) {
	vectors := []struct {
		syms   []int
		lo, hi int
	}{
		{nil, 0, 255},
		{[]int{5}, 0, 255},
		{[]int{0, 255}, 0, 255},
		{[]int{1, 2, 3, 4, 5}, 0, 10},
		{[]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0, 10},
		{[]int{3, 17, 42, 100, 200, 255}, 0, 255},
	}
	for _, v := range vectors {
		w := bitio.NewWriter(16)
		bw := bitio.NewBitWriter(w)
		if err := writeInterpolative(bw, v.syms, v.lo, v.hi); err != nil {
			t.Fatalf("writeInterpolative(%v): %v", v.syms, err)
		}
		if err := bw.Flush(); err != nil {
			t.Fatal(err)
		}
		r := bitio.NewReader(w.Bytes())
		br := bitio.NewBitReader(r)
		got, err := readInterpolative(br, len(v.syms), v.lo, v.hi, nil)
		if err != nil {
			t.Fatalf("readInterpolative: %v", err)
		}
		if len(v.syms) == 0 {
			got = nil
		}
		if !reflect.DeepEqual(got, v.syms) {
			t.Errorf("round trip mismatch: got %v, want %v", got, v.syms)
		}
	}
}

func TestBitsFor(t *testing.T) {
	cases := map[int]uint{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 256: 8, 257: 9}
	for n, want := range cases {
		if got := bitsFor(n); got != want {
			t.Errorf("bitsFor(%d) = %d, want %d", n, got, want)
		}
	}
}
