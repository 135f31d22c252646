// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import (
	"github.com/dsnet/bwtc/internal/bitio"
)

// sectionThreshold is the minimum aggregate byte count (spec section 4.8,
// "Block framing" step 2 and the GLOSSARY's "Section" entry) at which the
// framer starts a new context section rather than folding more data into
// the current one.
const sectionThreshold = 10000

// applyPreprocessors runs the configured preprocessor pipeline over a copy
// of src (src itself is left unchanged), returning the (possibly shrunk)
// result and the grammar recording
// every substitution. 'p' and 's' are accepted selectors (spec section 6)
// but perform no transformation in this implementation -- the distilled
// specification only fully describes the pair ('c') and run ('r')
// replacers, and the original giveTransformer('s') callsite indicates 's'
// named a BWT strategy choice rather than a distinct preprocessor in the
// source this was distilled from. allowEscape gates the escape-byte
// freeing extension of spec sections 4.5-4.6 (the CLI's --escape flag);
// when false, each pass stops selecting once its free-symbol pool runs
// dry, exactly as if no occupied byte were ever worth reclaiming.
func applyPreprocessors(src []byte, spec string, allowEscape bool) ([]byte, *grammar, error) {
	g := newGrammar()
	cur := append([]byte(nil), src...)
	dst := make([]byte, len(cur)+preprocessorHeadroom)
	for i := 0; i < len(spec); i++ {
		var out []byte
		var err error
		switch spec[i] {
		case 'c':
			out, err = compressCommonPairs(cur, dst, g, allowEscape)
		case 'r':
			out, err = compressLongRuns(cur, dst, g, allowEscape)
		case 'p', 's':
			continue
		default:
			return nil, nil, ErrUsage
		}
		if err != nil {
			return nil, nil, err
		}
		cur = append([]byte(nil), out...)
		if len(cur)+preprocessorHeadroom > len(dst) {
			dst = make([]byte, len(cur)+preprocessorHeadroom)
		}
	}
	return cur, g, nil
}

// reversePreprocessors expands data back through the grammar's rules in
// reverse pipeline order.
func reversePreprocessors(data []byte, g *grammar) []byte {
	rules := g.Rules()
	// Rules were appended in forward pipeline order (all of one pass's
	// rules before the next pass's); undo passes in reverse by kind.
	var runRules, pairRules []rule
	for _, r := range rules {
		if r.kind == ruleRun {
			runRules = append(runRules, r)
		} else {
			pairRules = append(pairRules, r)
		}
	}
	out := data
	if len(runRules) > 0 {
		escByte, hasEsc := g.RunEscapeByte()
		out = expandLongRuns(out, runRules, escByte, hasEsc)
	}
	if len(pairRules) > 0 {
		escByte, hasEsc := g.PairEscapeByte()
		out = expandCommonPairs(out, pairRules, escByte, hasEsc)
	}
	return out
}

// writeGrammar serializes g: a packed count of rules, then per rule a tag
// byte ('p' or 'r'), the introduced symbol, and the rule's operands,
// followed by each pass's optional escape byte (spec section 4.5 step 5).
func writeGrammar(w *bitio.Writer, g *grammar) error {
	rules := g.Rules()
	if err := bitio.WritePacked(w, uint64(len(rules))+1); err != nil {
		return err
	}
	for _, r := range rules {
		switch r.kind {
		case rulePair:
			if err := w.WriteByte('p'); err != nil {
				return err
			}
			if _, err := w.Write([]byte{r.symbol, r.first, r.second}); err != nil {
				return err
			}
		case ruleRun:
			if err := w.WriteByte('r'); err != nil {
				return err
			}
			if _, err := w.Write([]byte{r.symbol, r.first}); err != nil {
				return err
			}
			if err := bitio.WritePacked(w, uint64(r.length)); err != nil {
				return err
			}
		}
	}
	pairEsc, hasPairEsc := g.PairEscapeByte()
	if err := writeOptionalByte(w, pairEsc, hasPairEsc); err != nil {
		return err
	}
	runEsc, hasRunEsc := g.RunEscapeByte()
	return writeOptionalByte(w, runEsc, hasRunEsc)
}

// writeOptionalByte writes a presence flag followed by b when present.
func writeOptionalByte(w *bitio.Writer, b byte, present bool) error {
	if !present {
		return w.WriteByte(0)
	}
	if err := w.WriteByte(1); err != nil {
		return err
	}
	return w.WriteByte(b)
}

// readOptionalByte reverses writeOptionalByte.
func readOptionalByte(r *bitio.Reader) (byte, bool, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return 0, false, err
	}
	if flag == 0 {
		return 0, false, nil
	}
	b, err := r.ReadByte()
	if err != nil {
		return 0, false, err
	}
	return b, true, nil
}

// readGrammar reverses writeGrammar.
func readGrammar(r *bitio.Reader) (*grammar, error) {
	g := newGrammar()
	n64, err := bitio.ReadPacked(r)
	if err != nil {
		return nil, err
	}
	n := int(n64) - 1
	for i := 0; i < n; i++ {
		tag, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch tag {
		case 'p':
			var buf [3]byte
			if _, err := r.Read(buf[:]); err != nil {
				return nil, err
			}
			g.AddPairRule(buf[0], buf[1], buf[2])
			g.MarkSpecial(buf[0])
		case 'r':
			var buf [2]byte
			if _, err := r.Read(buf[:]); err != nil {
				return nil, err
			}
			length64, err := bitio.ReadPacked(r)
			if err != nil {
				return nil, err
			}
			g.AddRunRule(buf[0], buf[1], int(length64))
			g.MarkSpecial(buf[0])
		default:
			return nil, ErrCorrupt
		}
	}
	if pairEsc, ok, err := readOptionalByte(r); err != nil {
		return nil, err
	} else if ok {
		g.SetPairEscapeByte(pairEsc)
		g.MarkSpecial(pairEsc)
	}
	if runEsc, ok, err := readOptionalByte(r); err != nil {
		return nil, err
	} else if ok {
		g.SetRunEscapeByte(runEsc)
		g.MarkSpecial(runEsc)
	}
	return g, nil
}

// section is one context group of a BWT slice's payload: a contiguous
// run of the permuted bytes large enough (or the final remainder) to code
// with its own Huffman shape or wavelet-tree instance.
func splitSections(permuted []byte) [][]byte {
	if len(permuted) == 0 {
		return [][]byte{permuted}
	}
	var sections [][]byte
	start := 0
	for start < len(permuted) {
		end := start + sectionThreshold
		if end >= len(permuted) || len(sections) == 255 {
			end = len(permuted)
		}
		sections = append(sections, permuted[start:end])
		start = end
	}
	return sections
}

// writeSliceBlock writes one BWT slice as a length-prefixed block record
// (spec section 4.8 "Block framing" / section 6 "Each BWT-slice block"):
// 48-bit placeholder, section count and lengths, per-section payload, then
// the LF-power trailer, finally back-patching the length field.
func writeSliceBlock(w *bitio.Writer, s bwtSlice, coder byte, model probModel) error {
	lenPos, err := w.WritePlaceholder48()
	if err != nil {
		return err
	}
	startPos := w.Pos()

	sections := splitSections(s.permuted)
	nSections := len(sections)
	if nSections == 0 {
		nSections = 1
	}
	if err := w.WriteByte(byte(nSections % 256)); err != nil { // 0 codes 256
		return err
	}
	for _, sec := range sections {
		if err := bitio.WritePacked(w, uint64(len(sec))+1); err != nil {
			return err
		}
	}
	for _, sec := range sections {
		if usesHuffman(coder) {
			if err := writeHuffmanPayload(w, sec); err != nil {
				return err
			}
		} else {
			if err := encodeWavelet(w, sec, model); err != nil {
				return err
			}
		}
	}

	if err := writeLFTrailer(w, s.lfPowers); err != nil {
		return err
	}

	endPos := w.Pos()
	return w.Patch48(lenPos, uint64(endPos-startPos))
}

// writeLFTrailer writes the LF-power trailer: count-minus-one byte, then
// each 31-bit power packed MSB-first with byte alignment at the end.
func writeLFTrailer(w *bitio.Writer, powers []int) error {
	n := len(powers)
	if n == 0 {
		n = 1
	}
	if err := w.WriteByte(byte((n - 1) % 256)); err != nil {
		return err
	}
	bw := bitio.NewBitWriter(w)
	for _, p := range powers {
		if err := bw.WriteBits(uint64(p), 31); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readSliceBlock reverses writeSliceBlock, reconstructing the permuted
// bytes and LF powers of one BWT slice.
func readSliceBlock(r *bitio.Reader, coder byte, model probModel) (bwtSlice, error) {
	length, err := r.Read48Bits()
	if err != nil {
		return bwtSlice{}, err
	}
	startPos := r.Pos()

	nSectionsB, err := r.ReadByte()
	if err != nil {
		return bwtSlice{}, err
	}
	nSections := int(nSectionsB)
	if nSections == 0 {
		nSections = 256
	}
	secLens := make([]int, nSections)
	for i := range secLens {
		l, err := bitio.ReadPacked(r)
		if err != nil {
			return bwtSlice{}, err
		}
		secLens[i] = int(l) - 1
	}

	var permuted []byte
	for _, secLen := range secLens {
		var sec []byte
		var err error
		if usesHuffman(coder) {
			sec, err = readHuffmanPayload(r)
		} else {
			sec, err = decodeWavelet(r, secLen, model)
		}
		if err != nil {
			return bwtSlice{}, err
		}
		permuted = append(permuted, sec...)
	}

	powers, err := readLFTrailer(r)
	if err != nil {
		return bwtSlice{}, err
	}

	if endPos := r.Pos(); uint64(endPos-startPos) != length {
		return bwtSlice{}, ErrCorrupt
	}
	return bwtSlice{permuted: permuted, lfPowers: powers}, nil
}

// readLFTrailer reverses writeLFTrailer.
func readLFTrailer(r *bitio.Reader) ([]int, error) {
	nB, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	n := int(nB) + 1
	br := bitio.NewBitReader(r)
	powers := make([]int, n)
	for i := range powers {
		v, err := br.ReadBits(31)
		if err != nil {
			return nil, err
		}
		powers[i] = int(v)
	}
	br.FlushBuffer()
	return powers, nil
}
