// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

// freqEntry is one (byte, count) pair held in ascending-count order.
type freqEntry struct {
	key   byte
	count int64
}

// freqTable is a 256-entry table of byte counts kept sorted ascending by
// count, with an auxiliary index mapping each byte to its current slot.
// It backs both dictionary preprocessors: slot 0 always holds the rarest
// byte, and entries with count == 0 occupy the earliest slots.
type freqTable struct {
	entries  [256]freqEntry
	location [256]int // location[b] is the slot currently holding byte b
}

// newFreqTable builds a table from per-byte counts, in ascending order
// with ties broken by byte value (the initial "prior ordering").
func newFreqTable(counts *[256]int64) *freqTable {
	t := &freqTable{}
	for b := 0; b < 256; b++ {
		t.entries[b] = freqEntry{key: byte(b), count: counts[b]}
	}
	sortFreqEntries(t.entries[:])
	for i, e := range t.entries {
		t.location[e.key] = i
	}
	return t
}

// sortFreqEntries performs a stable ascending sort by count. It is a plain
// insertion sort: precompressor blocks are bounded (spec section 3), so the
// table never has to sort more than a few hundred adjustments worth of
// disorder, and insertion sort keeps the tie-breaking rule (stability)
// trivially correct.
func sortFreqEntries(e []freqEntry) {
	for i := 1; i < len(e); i++ {
		v := e[i]
		j := i - 1
		for j >= 0 && e[j].count > v.count {
			e[j+1] = e[j]
			j--
		}
		e[j+1] = v
	}
}

// At returns the i-th smallest (key, count) pair.
func (t *freqTable) At(i int) (key byte, count int64) {
	e := t.entries[i]
	return e.key, e.count
}

// Key returns the byte occupying slot i.
func (t *freqTable) Key(i int) byte { return t.entries[i].key }

// Count returns the current count for key.
func (t *freqTable) Count(key byte) int64 { return t.entries[t.location[key]].count }

// Location returns the slot currently holding key.
func (t *freqTable) Location(key byte) int { return t.location[key] }

// Len returns the number of entries (always 256).
func (t *freqTable) Len() int { return len(t.entries) }

// Increase adds delta to key's count and bubbles the entry up until sorted
// order is restored. delta must be >= 0.
func (t *freqTable) Increase(key byte, delta int64) {
	i := t.location[key]
	t.entries[i].count += delta
	for i+1 < len(t.entries) && t.entries[i].count > t.entries[i+1].count {
		t.swap(i, i+1)
		i++
	}
}

// Decrease subtracts delta from key's count and bubbles the entry down. It
// returns false and leaves the table unmodified if delta exceeds the
// current count.
func (t *freqTable) Decrease(key byte, delta int64) bool {
	i := t.location[key]
	if delta > t.entries[i].count {
		return false
	}
	t.entries[i].count -= delta
	for i > 0 && t.entries[i-1].count > t.entries[i].count {
		t.swap(i, i-1)
		i--
	}
	return true
}

func (t *freqTable) swap(i, j int) {
	t.entries[i], t.entries[j] = t.entries[j], t.entries[i]
	t.location[t.entries[i].key] = i
	t.location[t.entries[j].key] = j
}

// FreeSymbols returns the bytes with a zero count, in ascending slot order
// (i.e. from the rarest end of the table).
func (t *freqTable) FreeSymbols() []byte {
	var free []byte
	for _, e := range t.entries {
		if e.count != 0 {
			break
		}
		free = append(free, e.key)
	}
	return free
}
