// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

import "github.com/boljen/go-bitmap"

// ruleKind distinguishes a pair-replacement rule from a run-replacement
// rule within a single ordered grammar.
type ruleKind int

const (
	rulePair ruleKind = iota
	ruleRun
)

// rule is one replacement recorded by a preprocessor pass. For a pair rule,
// first/second are the two source bytes; for a run rule, first is the
// repeated byte and length is its power-of-two run length.
type rule struct {
	kind    ruleKind
	symbol  byte // the byte introduced by this rule
	first   byte
	second  byte // pair rules only
	length  int  // run rules only, power of two in [2, 1<<15]
}

// grammar records, for one precompressor block, every replacement rule
// applied by the common-pair and long-run preprocessors, plus which bytes
// were freed to make room for new symbols (isSpecial) and which bytes are
// the left-hand side of some rule (isVariable).
//
// Invariant: by the time a grammar is serialized, every rule.symbol has
// isVariable[rule.symbol] == true.
//
// A preprocessor pass that runs out of free symbols may reclaim already-
// occupied bytes for new rule symbols instead, escaping their remaining
// literal occurrences with a designated escape byte (spec section 4.5 step
// 5, mirrored for runs by section 4.6). Each pass tracks its own escape
// byte independently, since the common-pair and long-run passes run over
// different data (one is applied to the other's output) and so may pick
// different frontiers.
type grammar struct {
	rules      []rule
	isSpecial  bitmap.Bitmap // freed/escape bytes
	isVariable bitmap.Bitmap // bytes appearing as a rule's introduced symbol

	pairEscapeByte byte
	hasPairEscape  bool
	runEscapeByte  byte
	hasRunEscape   bool
}

// newGrammar returns an empty grammar.
func newGrammar() *grammar {
	return &grammar{
		isSpecial:  bitmap.New(256),
		isVariable: bitmap.New(256),
	}
}

// AddPairRule records that symbol now stands for the byte pair (f, s).
func (g *grammar) AddPairRule(symbol, f, s byte) {
	g.rules = append(g.rules, rule{kind: rulePair, symbol: symbol, first: f, second: s})
	g.isVariable.Set(int(symbol), true)
}

// AddRunRule records that symbol now stands for a run of length runs of b.
func (g *grammar) AddRunRule(symbol, b byte, length int) {
	g.rules = append(g.rules, rule{kind: ruleRun, symbol: symbol, first: b, length: length})
	g.isVariable.Set(int(symbol), true)
}

// MarkSpecial records that b has been freed (repurposed) by this block's
// preprocessing pass, e.g. as a common byte, escape byte, or new symbol.
func (g *grammar) MarkSpecial(b byte) { g.isSpecial.Set(int(b), true) }

// IsSpecial reports whether b was freed by this grammar's preprocessing pass.
func (g *grammar) IsSpecial(b byte) bool { return g.isSpecial.Get(int(b)) }

// IsVariable reports whether b is the introduced symbol of some rule.
func (g *grammar) IsVariable(b byte) bool { return g.isVariable.Get(int(b)) }

// SetPairEscapeByte records the byte the common-pair pass uses to prefix a
// literal occurrence of a byte it reclaimed for a new symbol.
func (g *grammar) SetPairEscapeByte(b byte) { g.pairEscapeByte, g.hasPairEscape = b, true }

// PairEscapeByte returns the common-pair pass's escape byte, if it used one.
func (g *grammar) PairEscapeByte() (byte, bool) { return g.pairEscapeByte, g.hasPairEscape }

// SetRunEscapeByte records the byte the long-run pass uses to prefix a
// literal occurrence of a byte it reclaimed for a new symbol.
func (g *grammar) SetRunEscapeByte(b byte) { g.runEscapeByte, g.hasRunEscape = b, true }

// RunEscapeByte returns the long-run pass's escape byte, if it used one.
func (g *grammar) RunEscapeByte() (byte, bool) { return g.runEscapeByte, g.hasRunEscape }

// Rules returns the ordered rule list, most-recently-added last. Expansion
// during decoding must walk rules in this order so that a rule referencing
// a symbol introduced by an earlier rule expands correctly.
func (g *grammar) Rules() []rule { return g.rules }
