// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"container/heap"
	"math/bits"

	"github.com/noxer/bytewriter"
)

// runTriple is one (symbol, log2Length, frequency) candidate tracked by the
// long-run preprocessor's selection heap.
type runTriple struct {
	b     byte
	log2L uint // run length is 1<<log2L, log2L in [1,15]
	freq  int64
	index int // heap.Interface bookkeeping
}

// runHeap orders runTriples by (length-1)*freq descending.
type runHeap []*runTriple

func (h runHeap) Len() int { return len(h) }
func (h runHeap) Less(i, j int) bool {
	pi := (int64(1)<<h[i].log2L - 1) * h[i].freq
	pj := (int64(1)<<h[j].log2L - 1) * h[j].freq
	return pi > pj
}
func (h runHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *runHeap) Push(x any) {
	t := x.(*runTriple)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *runHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// decomposeRun splits a run length n into a greedy sequence of power-of-two
// lengths (most-significant bit first), each at most 1<<15.
func decomposeRun(n int) []int {
	var out []int
	for n > 0 {
		l := 1 << uint(bits.Len(uint(n))-1)
		if l > 1<<15 {
			l = 1 << 15
		}
		out = append(out, l)
		n -= l
	}
	return out
}

// runChoice is one candidate (byte, log2 run length) replacement selected
// by the greedy pass in compressLongRuns.
type runChoice struct {
	b      byte
	log2L  uint
	profit int64
}

// compressLongRuns implements the long-run preprocessor (spec section 4.6):
// it replaces power-of-two-length runs of a repeated byte with new symbols,
// chosen by marginal profit via a frequency-ordered max-heap.
//
// As with compressCommonPairs, once the free-symbol pool runs dry and
// allowEscape is set, escapeCharIndex decides how many further candidates
// are still worth realizing by reclaiming an occupied byte and escaping
// its remaining literal occurrences ("escape-index computation mirrors
// section 4.5", spec section 4.6).
func compressLongRuns(src []byte, dst []byte, g *grammar, allowEscape bool) ([]byte, error) {
	if len(dst) < len(src)+3 {
		return nil, ErrInsufficientHeadroom
	}

	var counts [256]int64
	runFreq := make(map[byte]map[uint]int64)
	i := 0
	for i < len(src) {
		j := i + 1
		for j < len(src) && src[j] == src[i] {
			j++
		}
		runLen := j - i
		counts[src[i]] += int64(runLen)
		for _, l := range decomposeRun(runLen) {
			if l < 2 {
				continue
			}
			log2L := uint(bits.Len(uint(l)) - 1)
			m := runFreq[src[i]]
			if m == nil {
				m = make(map[uint]int64)
				runFreq[src[i]] = m
			}
			m[log2L]++
		}
		i = j
	}

	ft := newFreqTable(&counts)
	free := ft.FreeSymbols()

	h := &runHeap{}
	byIndex := make(map[[2]byte]*runTriple)
	for b, lengths := range runFreq {
		for l, f := range lengths {
			t := &runTriple{b: b, log2L: l, freq: f}
			byIndex[[2]byte{b, byte(l)}] = t
			heap.Push(h, t)
		}
	}

	var choices []runChoice

	for h.Len() > 0 {
		if !allowEscape && len(choices) >= len(free) {
			break
		}
		top := (*h)[0]
		profit := (int64(1)<<top.log2L - 1) * top.freq
		if profit <= rarestNonzero(ft)+3 {
			break
		}
		heap.Pop(h)
		delete(byIndex, [2]byte{top.b, byte(top.log2L)})

		for l := uint(1); l < top.log2L; l++ {
			if t, ok := byIndex[[2]byte{top.b, byte(l)}]; ok {
				heap.Remove(h, t.index)
				delete(byIndex, [2]byte{top.b, byte(l)})
			}
		}
		for l := top.log2L + 1; l <= 15; l++ {
			if t, ok := byIndex[[2]byte{top.b, byte(l)}]; ok {
				ratio := int64(1) << (l - top.log2L)
				t.freq -= ratio * top.freq
				if t.freq <= 0 {
					heap.Remove(h, t.index)
					delete(byIndex, [2]byte{top.b, byte(l)})
				} else {
					heap.Fix(h, t.index)
				}
			}
		}

		choices = append(choices, runChoice{b: top.b, log2L: top.log2L, profit: profit})
	}

	if len(choices) == 0 {
		n := copy(dst, src)
		return dst[:n], nil
	}

	profits := make([]int64, len(choices))
	for i, c := range choices {
		profits[i] = c.profit
	}
	alloc := allocateSymbols(ft, g, free, profits)
	choices = choices[:len(alloc.symbols)]
	if len(choices) == 0 {
		n := copy(dst, src)
		return dst[:n], nil
	}

	type repl struct {
		sym  byte
		runL int
	}
	symOf := make(map[[2]byte]repl, len(choices))
	for idx, c := range choices {
		sym := alloc.symbols[idx]
		runL := 1 << c.log2L
		symOf[[2]byte{c.b, byte(c.log2L)}] = repl{sym: sym, runL: runL}
		g.AddRunRule(sym, c.b, runL)
		g.MarkSpecial(sym)
	}
	if alloc.hasEscape {
		g.SetRunEscapeByte(alloc.escapeByte)
		g.MarkSpecial(alloc.escapeByte)
	}

	out := bytewriter.New(dst)
	n := 0
	put := func(b byte) { out.Write([]byte{b}); n++ }
	emit := func(b byte) {
		if alloc.hasEscape && g.IsSpecial(b) {
			put(alloc.escapeByte)
		}
		put(b)
	}

	i = 0
	for i < len(src) {
		j := i + 1
		for j < len(src) && src[j] == src[i] {
			j++
		}
		remaining := j - i
		b := src[i]
		for remaining > 0 {
			l := 1 << uint(bits.Len(uint(remaining))-1)
			if l > 1<<15 {
				l = 1 << 15
			}
			log2L := uint(bits.Len(uint(l)) - 1)
			if r, ok := symOf[[2]byte{b, byte(log2L)}]; ok && r.runL == l {
				put(r.sym)
				remaining -= l
				continue
			}
			emit(b)
			remaining--
		}
		i = j
	}
	return dst[:n], nil
}

// expandLongRuns reverses compressLongRuns: every occurrence of a run
// rule's introduced symbol expands back into its repeated byte. When
// hasEscape is set, an occurrence of escapeByte marks the following byte
// as a literal, bypassing rule expansion.
func expandLongRuns(data []byte, rules []rule, escapeByte byte, hasEscape bool) []byte {
	expand := make(map[byte][2]int, len(rules)) // symbol -> (byte, length)
	for _, r := range rules {
		if r.kind == ruleRun {
			expand[r.symbol] = [2]int{int(r.first), r.length}
		}
	}
	if len(expand) == 0 && !hasEscape {
		return append([]byte(nil), data...)
	}
	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); i++ {
		b := data[i]
		if hasEscape && b == escapeByte {
			i++
			out = append(out, data[i])
			continue
		}
		if br, ok := expand[b]; ok {
			for k := 0; k < br[1]; k++ {
				out = append(out, byte(br[0]))
			}
		} else {
			out = append(out, b)
		}
	}
	return out
}
