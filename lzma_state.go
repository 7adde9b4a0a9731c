// SPDX-License-Identifier: GPL-2.0-only
// Source: shape grounded in _examples/other_examples/ab37e7f1_ulikunitz-xz__lzma-raw_reader.go.go
// (state.isMatch[state2], state.rep, state.litCodec/lenCodec/distCodec
// field layout) and eb3257d4_ulikunitz-xz__lzma-encoder.go.go
// (e.State.isRepG0/isRepG1/isRepG2/isRep0Long usage), reworked around this
// package's prob/rangeEncoder/rangeDecoder types.

package lzma2

// lzmaState holds everything that must stay bit-for-bit synchronized
// between encoder and decoder across the whole stream: the 12-value state
// machine, the 4 MRU rep distances, and every adaptive probability table
// (spec.md §3 "Probability tables").
type lzmaState struct {
	lc, lp, pb uint32

	state uint32     // current state in [0,11]
	reps  [4]uint32  // rep0..rep3, 0-based distances

	isMatch     [numStates][1 << maxPosStateBits]prob
	isRep       [numStates]prob
	isRepG0     [numStates]prob
	isRepG1     [numStates]prob
	isRepG2     [numStates]prob
	isRep0Long  [numStates][1 << maxPosStateBits]prob

	litCodec    *literalCodec
	lenCodec    *lengthCodec
	repLenCodec *lengthCodec
	distCodec   *distCodec
}

func newLzmaState(lc, lp, pb uint32) *lzmaState {
	s := &lzmaState{
		lc: lc, lp: lp, pb: pb,
		litCodec:    newLiteralCodec(lc, lp),
		lenCodec:    newLengthCodec(),
		repLenCodec: newLengthCodec(),
		distCodec:   newDistCodec(),
	}
	s.resetProbs()
	return s
}

// reset restores initial state, reps, and every probability to equiprobable
// — used by LZMA2's state-reset chunk control bits (spec.md §4.8).
func (s *lzmaState) reset() {
	s.state = 0
	s.reps = [4]uint32{}
	s.resetProbs()
}

func (s *lzmaState) resetProbs() {
	for i := range s.isMatch {
		for j := range s.isMatch[i] {
			s.isMatch[i][j] = probInit
		}
	}
	for i := range s.isRep0Long {
		for j := range s.isRep0Long[i] {
			s.isRep0Long[i][j] = probInit
		}
	}
	for i := range s.isRep {
		s.isRep[i] = probInit
		s.isRepG0[i] = probInit
		s.isRepG1[i] = probInit
		s.isRepG2[i] = probInit
	}
	s.litCodec.reset()
	s.lenCodec.reset()
	s.repLenCodec.reset()
	s.distCodec.reset()
}

// setProps rebuilds the literal codec for new lc/lp values (LZMA2 props
// reset, spec.md §4.8) without disturbing lenCodec/distCodec/reps/state.
func (s *lzmaState) setProps(lc, lp, pb uint32) {
	s.lc, s.lp, s.pb = lc, lp, pb
	s.litCodec = newLiteralCodec(lc, lp)
}

func propsByte(lc, lp, pb uint32) byte {
	return byte((pb*5+lp)*9 + lc)
}

func propsFromByte(b byte) (lc, lp, pb uint32, err error) {
	v := uint32(b)
	lc = v % 9
	v /= 9
	lp = v % 5
	v /= 5
	pb = v
	if pb > maxPB {
		return 0, 0, 0, ErrCorrupt
	}
	return lc, lp, pb, nil
}
