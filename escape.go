// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

// escapeAllocation is the result of deciding how many of a preprocessor's
// candidate replacements beyond the naturally free symbols are worth
// realizing via the escape-byte mechanism (spec section 4.5 step 5,
// mirrored for runs by section 4.6).
type escapeAllocation struct {
	symbols    []byte // one per realized choice, in selection order
	escapeByte byte
	hasEscape  bool
}

// allocateSymbols assigns a byte to each of the first len(profits) choices.
// It prefers free bytes (zero count, so no literal occurrence ever needs
// disambiguating) and, once those run out, reclaims already-occupied bytes
// by escaping their remaining literal occurrences -- but only while the
// marginal savings are still worth that cost. profits holds each choice's
// projected byte savings, in the same descending-profitability order the
// choices were selected in.
func allocateSymbols(ft *freqTable, g *grammar, free []byte, profits []int64) escapeAllocation {
	nFree := len(free)
	if nFree > len(profits) {
		nFree = len(profits)
	}
	alloc := escapeAllocation{symbols: append([]byte(nil), free[:nFree]...)}
	if len(profits) <= nFree {
		return alloc
	}

	candidates := nonVariableCandidates(ft, g, nFree)
	extra := escapeCharIndex(ft, candidates, profits, nFree)
	if extra == 0 {
		return alloc
	}
	alloc.symbols = append(alloc.symbols, candidates[:extra]...)
	alloc.escapeByte = candidates[extra]
	alloc.hasEscape = true
	return alloc
}

// nonVariableCandidates returns ft's occupied bytes beyond the first nFree
// (free) slots, ascending by count, skipping any byte already claimed as
// another pass's rule symbol in g -- reclaiming one would only add escaping
// overhead for no benefit, since its count already reflects that pass's own
// substitution.
func nonVariableCandidates(ft *freqTable, g *grammar, nFree int) []byte {
	var out []byte
	for i := nFree; i < ft.Len(); i++ {
		if b := ft.Key(i); !g.IsVariable(b) {
			out = append(out, b)
		}
	}
	return out
}

// escapeCharIndex implements the escape-index computation of spec section
// 4.5 step 5: start with every remaining choice (capped by the candidate
// count) in the escaped range, sum its cumulative utility (savings minus
// the escaped byte's own occupancy cost minus 3), then shrink from the
// least profitable end until that utility exceeds the frontier candidate's
// count. The frontier candidate is reserved
// as the escape byte itself, so at most len(candidates)-1 further symbols
// can be realized this way.
func escapeCharIndex(ft *freqTable, candidates []byte, profits []int64, nFree int) int {
	extra := len(profits) - nFree
	if extra <= 0 {
		return 0
	}
	if extra > len(candidates)-1 {
		extra = len(candidates) - 1
	}
	if extra <= 0 {
		return 0
	}
	cost := func(i int) int64 { return ft.Count(candidates[i]) }

	var utility int64
	for k := 0; k < extra; k++ {
		utility += profits[nFree+k] - cost(k) - 3
	}
	i := extra
	for i > 0 && utility <= cost(i) {
		i--
		utility -= profits[nFree+i] - cost(i) - 3
	}
	return i
}
