// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import "github.com/noxer/bytewriter"

// maxPairChoices caps the number of pair replacements a single common-pair
// pass will select (spec section 8 scenario 5: "selects at most 254
// pairs"), leaving at least two byte values free for the pass's own
// bookkeeping even on a full 256-value alphabet.
const maxPairChoices = 254

// pairChoice is one candidate replacement selected by the greedy pass in
// compressCommonPairs.
type pairChoice struct {
	first, second byte
	freq          int64
}

// compressCommonPairs implements the common-pair preprocessor (spec section
// 4.5): it replaces the most frequent ordered byte pairs in src with new
// symbols, recording every substitution in g, and writes the rewritten
// block to dst. dst must have at least len(src)+3 bytes of capacity; on
// success it returns the slice of dst actually written.
//
// Selection first tries to satisfy every profitable pair from the
// free-symbol pool (bytes with zero occurrence count, so introducing them
// as a new symbol can never collide with a literal). If more profitable
// pairs remain once the pool is exhausted and allowEscape is set,
// escapeCharIndex decides how many are still worth realizing by reclaiming
// an occupied byte instead: doing so requires escaping that byte's own
// literal occurrences so the decoder can tell a reclaimed literal from a
// rule expansion (step 5 of spec section 4.5, gated by the CLI's --escape
// flag).
func compressCommonPairs(src []byte, dst []byte, g *grammar, allowEscape bool) ([]byte, error) {
	if len(dst) < len(src)+3 {
		return nil, ErrInsufficientHeadroom
	}

	var counts [256]int64
	var pairCounts [65536]int64
	for i, b := range src {
		counts[b]++
		if i+1 < len(src) {
			pairCounts[int(b)<<8|int(src[i+1])]++
		}
	}

	ft := newFreqTable(&counts)
	free := ft.FreeSymbols()

	limit := maxPairChoices
	if !allowEscape && len(free) < limit {
		limit = len(free)
	}

	usedFirst := make(map[byte]bool)
	usedSecond := make(map[byte]bool)
	var choices []pairChoice

	for len(choices) < limit {
		bestFreq := int64(0)
		bestF, bestS := byte(0), byte(0)
		found := false
		for p, freq := range pairCounts {
			if freq == 0 {
				continue
			}
			f, s := byte(p>>8), byte(p)
			if f == s || usedFirst[f] || usedSecond[s] {
				// An equal-byte pair's adjacent-window count overcounts
				// the non-overlapping replacements actually applicable
				// (three "aa" windows in "aaaa" but only two
				// replacements), so it is left to the run preprocessor.
				continue
			}
			if freq > bestFreq {
				bestFreq, bestF, bestS, found = freq, f, s, true
			}
		}
		if !found {
			break
		}
		if ft.Count(bestF) < bestFreq || ft.Count(bestS) < bestFreq {
			// Selecting this pair would underflow either byte's count;
			// drop it atomically and keep searching remaining pairs.
			pairCounts[int(bestF)<<8|int(bestS)] = 0
			continue
		}

		// Tentatively commit the pair, then judge profitability against
		// the table as it would stand with the pair accepted -- matching
		// the reference selection order, under which a pair can look
		// unprofitable against the stale table yet clearly worthwhile
		// once its own bytes are counted as spent.
		ft.Decrease(bestF, bestFreq)
		ft.Decrease(bestS, bestFreq)
		if rarestNonzero(ft)+3 >= bestFreq {
			ft.Increase(bestF, bestFreq)
			ft.Increase(bestS, bestFreq)
			break
		}

		usedFirst[bestF] = true
		usedSecond[bestS] = true
		choices = append(choices, pairChoice{first: bestF, second: bestS, freq: bestFreq})
		pairCounts[int(bestF)<<8|int(bestS)] = 0
	}

	if len(choices) == 0 {
		n := copy(dst, src)
		return dst[:n], nil
	}

	profits := make([]int64, len(choices))
	for i, c := range choices {
		profits[i] = c.freq
	}
	alloc := allocateSymbols(ft, g, free, profits)
	choices = choices[:len(alloc.symbols)]
	if len(choices) == 0 {
		n := copy(dst, src)
		return dst[:n], nil
	}

	kind := make([]bool, 65536) // true where a replacement applies
	newSym := make([]byte, 65536)
	for i, c := range choices {
		sym := alloc.symbols[i]
		g.AddPairRule(sym, c.first, c.second)
		g.MarkSpecial(sym)
		idx := int(c.first)<<8 | int(c.second)
		kind[idx] = true
		newSym[idx] = sym
	}
	if alloc.hasEscape {
		g.SetPairEscapeByte(alloc.escapeByte)
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
	i := 0
	for i < len(src) {
		if i+1 < len(src) {
			idx := int(src[i])<<8 | int(src[i+1])
			if kind[idx] {
				put(newSym[idx])
				i += 2
				continue
			}
		}
		emit(src[i])
		i++
	}
	return dst[:n], nil
}

// rarestNonzero returns the smallest nonzero count still present in ft, or
// 0 if every byte has been driven to zero.
func rarestNonzero(ft *freqTable) int64 {
	for i := 0; i < ft.Len(); i++ {
		_, c := ft.At(i)
		if c > 0 {
			return c
		}
	}
	return 0
}

// expandCommonPairs reverses compressCommonPairs: it walks data, expanding
// every occurrence of a rule's introduced symbol back into its byte pair.
// Rule order does not matter here since compressCommonPairs never chains
// rules (no introduced symbol is itself used as another rule's operand).
// When hasEscape is set, an occurrence of escapeByte marks the following
// byte as a literal, bypassing rule expansion even if it happens to equal
// some rule's symbol or the escape byte itself.
func expandCommonPairs(data []byte, rules []rule, escapeByte byte, hasEscape bool) []byte {
	expand := make(map[byte][2]byte, len(rules))
	for _, r := range rules {
		if r.kind == rulePair {
			expand[r.symbol] = [2]byte{r.first, r.second}
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
		if pair, ok := expand[b]; ok {
			out = append(out, pair[0], pair[1])
		} else {
			out = append(out, b)
		}
	}
	return out
}
