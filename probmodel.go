// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwtc

// scaleShift and probScale set the fixed-point resolution shared by every
// probability model: probabilities are integers in [1, probScale-1].
const (
	scaleShift = probOneBits
	probScale  = uint32(1) << scaleShift
)

// byteModel predicts the next bit of a raw byte. The default variant just
// repeats its previous bit with near-certainty; the Markov variant keeps a
// small per-context state table and adapts.
type byteModel struct {
	prev    bool
	markov  bool
	state   [4]uint32 // small Markov state, indexed by 2 bits of history
	history uint32
}

// newByteModel returns a byte-coding model. markov chooses between the
// default last-bit predictor (false; newModelFor uses it for 'n', 'b' and
// 'u') and the richer Markov variant (true; used for 'm' and 'M').
func newByteModel(markov bool) *byteModel {
	m := &byteModel{prev: true, markov: markov}
	m.resetModel()
	return m
}

func (m *byteModel) probabilityOfOne() uint32 {
	if !m.markov {
		if m.prev {
			return probScale - 1
		}
		return 1
	}
	p := m.state[m.history]
	if p < 1 {
		p = 1
	}
	if p > probScale-1 {
		p = probScale - 1
	}
	return p
}

func (m *byteModel) update(bit int) {
	m.prev = bit == 1
	if !m.markov {
		return
	}
	target := uint32(0)
	if bit == 1 {
		target = probScale - 1
	} else {
		target = 1
	}
	p := m.state[m.history]
	// Exponential move toward the observed bit, matching the "small Markov
	// state" bookkeeping the original SimpleMarkov model describes without
	// specifying exact arithmetic. The delta must be signed: target can be
	// smaller than p, and an unsigned subtraction would wrap.
	p = uint32(int32(p) + (int32(target)-int32(p))>>5)
	m.state[m.history] = p
	m.history = ((m.history << 1) | uint32(bit)) & 0x3
}

func (m *byteModel) resetModel() {
	m.prev = true
	m.history = 0
	for i := range m.state {
		m.state[i] = probScale / 2
	}
}

// intModel predicts the bits of a bitvector-length field in the
// wavelet-tree payload: one adaptive probability per bit position, since
// high-order bits of a length are far more often zero than low-order bits.
type intModel struct {
	probs [32]uint32
}

func newIntModel() *intModel {
	m := &intModel{}
	m.resetModel()
	return m
}

// probabilityOfOneAt reports the prediction for the bit at the given
// position; callers walk positions from most to least significant.
func (m *intModel) probabilityOfOneAt(pos int) uint32 { return m.probs[pos] }
func (m *intModel) probabilityOfOne() uint32           { return m.probs[0] }

func (m *intModel) updateAt(pos, bit int) {
	target := uint32(1)
	if bit == 1 {
		target = probScale - 1
	}
	p := m.probs[pos]
	p = uint32(int32(p) + (int32(target)-int32(p))>>5)
	m.probs[pos] = p
}
func (m *intModel) update(bit int) { m.updateAt(0, bit) }

func (m *intModel) resetModel() {
	for i := range m.probs {
		m.probs[i] = probScale / 2
	}
}

// gapModel predicts run-length-style gap fields: it adapts toward whichever
// bit value has recently dominated, similarly to byteModel but tuned with a
// slower adaptation rate suited to the longer runs gap fields encode.
type gapModel struct {
	p uint32
}

func newGapModel() *gapModel {
	m := &gapModel{}
	m.resetModel()
	return m
}

func (m *gapModel) probabilityOfOne() uint32 { return m.p }

func (m *gapModel) update(bit int) {
	target := uint32(1)
	if bit == 1 {
		target = probScale - 1
	}
	m.p = uint32(int32(m.p) + (int32(target)-int32(m.p))>>6)
}

func (m *gapModel) resetModel() { m.p = probScale / 2 }
