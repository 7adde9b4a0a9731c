// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §4.2 "Symbol encoding" / §4.6 "Termination"; driving
// loop and rep-reordering shape grounded in
// eb3257d4_ulikunitz-xz__lzma-encoder.go.go's Encoder.encodeLiteral/
// encodeMatch/encodeRep methods, adapted onto this package's
// optimalParser/lzmaState/rangeEncoder types; writeProperties mirrors the
// 5-byte .lzma header (propsByte + 4-byte little-endian dictSize) that
// format uses.

package lzma2

import "io"

// lzmaEncoder drives a match finder and optimal parser through a
// lzmaState, emitting range-coded symbols for whatever bytes are
// currently buffered in its window.
type lzmaEncoder struct {
	w      *window
	mf     matchFinder
	parser *optimalParser
	st     *lzmaState
	cfg    EncoderConfig
	mt     *mtMatchFinder // non-nil when cfg.MultiThreaded with MatchFinderBT4; same value as mf

	// needsStateReset is set whenever a chunk fell back to uncompressed
	// storage after a trial LZMA encode already mutated st; the next
	// chunk must reset state before it can safely resume adaptive coding.
	needsStateReset bool
}

func newLzmaEncoder(cfg EncoderConfig) (*lzmaEncoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	w := newWindow(cfg.DictSize, maxMatchLen, 4)
	var mf matchFinder
	var mt *mtMatchFinder
	switch cfg.MatchFinder {
	case MatchFinderBT4:
		bt := newBt4Finder(w, cfg.CutValue, cfg.NiceLen)
		if cfg.MultiThreaded {
			mt = newMTMatchFinder(w, bt)
			mf = mt
		} else {
			mf = bt
		}
	default:
		mf = newHC4Finder(w, cfg.CutValue, cfg.NiceLen)
	}
	st := newLzmaState(cfg.LC, cfg.LP, cfg.PB)
	parser := newOptimalParser(mf, st, cfg.NiceLen, cfg.Fast)
	return &lzmaEncoder{w: w, mf: mf, parser: parser, st: st, cfg: cfg, mt: mt}, nil
}

// feed appends uncompressed bytes to the encoder's window without encoding
// them yet (spec.md §4.4 streaming: callers may feed in small increments).
func (e *lzmaEncoder) feed(src []byte) { e.w.append(src) }

// finish tells the window no further bytes will ever be fed, letting a
// multithreaded match finder drain its last partial block.
func (e *lzmaEncoder) finish() { e.w.close() }

// closeMT joins the match-finder pipeline goroutines, a no-op for the
// single-threaded finders.
func (e *lzmaEncoder) closeMT() error {
	if e.mt == nil {
		return nil
	}
	return e.mt.Close()
}

// writeProperties writes the 5-byte raw-LZMA header: one props byte
// encoding lc/lp/pb followed by a little-endian 32-bit dictionary size.
func writeProperties(w io.Writer, cfg EncoderConfig) error {
	buf := [5]byte{propsByte(cfg.LC, cfg.LP, cfg.PB)}
	d := cfg.DictSize
	buf[1] = byte(d)
	buf[2] = byte(d >> 8)
	buf[3] = byte(d >> 16)
	buf[4] = byte(d >> 24)
	_, err := w.Write(buf[:])
	return err
}

// encodeAvailable drains every byte currently available in the window
// (i.e. fed but not yet encoded), emitting symbols through enc. If final
// is true it also emits the end-of-stream pseudo-match once the window is
// drained, per spec.md §4.6.
func (e *lzmaEncoder) encodeAvailable(enc *rangeEncoder, final bool) error {
	for e.parser.hasMore() {
		d := e.parser.next(e.st.reps)
		if err := e.emit(enc, d); err != nil {
			return err
		}
	}
	if final {
		return e.emitEOS(enc)
	}
	return nil
}

// emit range-codes one decision and advances lzmaState accordingly. d.pos
// records the position the decision was made at (before any of its bytes
// were consumed by the match finder).
func (e *lzmaEncoder) emit(enc *rangeEncoder, d decision) error {
	posState := posStateOf(d.pos, e.st.pb)
	st := e.st

	switch d.class {
	case classLiteral:
		if err := enc.encodeBit(&st.isMatch[st.state][posState], 0); err != nil {
			return err
		}
		var prevByte byte
		if d.pos > 0 {
			prevByte = e.w.byteAt(d.pos - 1)
		}
		litState := litStateOf(prevByte, d.pos, st.lc, st.lp)
		if isLiteralState(st.state) {
			if err := st.litCodec.encode(enc, d.literal, st.state, 0, litState); err != nil {
				return err
			}
		} else {
			matchByte := e.w.byteAt(d.pos - uint64(st.reps[0]) - 1)
			if err := st.litCodec.encode(enc, d.literal, st.state, matchByte, litState); err != nil {
				return err
			}
		}
		st.state = updateStateLiteral(st.state)

	case classMatch:
		if err := enc.encodeBit(&st.isMatch[st.state][posState], 1); err != nil {
			return err
		}
		if err := enc.encodeBit(&st.isRep[st.state], 0); err != nil {
			return err
		}
		st.reps[3], st.reps[2], st.reps[1], st.reps[0] = st.reps[2], st.reps[1], st.reps[0], d.dist
		if err := st.lenCodec.encode(enc, d.length-minMatchLen, posState); err != nil {
			return err
		}
		if err := st.distCodec.encode(enc, d.dist, lenToPosState(d.length)); err != nil {
			return err
		}
		st.state = updateStateMatch(st.state)

	case classRep:
		if err := enc.encodeBit(&st.isMatch[st.state][posState], 1); err != nil {
			return err
		}
		if err := enc.encodeBit(&st.isRep[st.state], 1); err != nil {
			return err
		}
		if err := encodeRepSelector(enc, st, d.repIdx, posState); err != nil {
			return err
		}
		promoteRep(&st.reps, d.repIdx)
		if err := st.repLenCodec.encode(enc, d.length-minMatchLen, posState); err != nil {
			return err
		}
		st.state = updateStateRep(st.state)

	case classShortRep:
		if err := enc.encodeBit(&st.isMatch[st.state][posState], 1); err != nil {
			return err
		}
		if err := enc.encodeBit(&st.isRep[st.state], 1); err != nil {
			return err
		}
		if err := enc.encodeBit(&st.isRepG0[st.state], 0); err != nil {
			return err
		}
		if err := enc.encodeBit(&st.isRep0Long[st.state][posState], 0); err != nil {
			return err
		}
		st.state = updateStateShortRep(st.state)
	}
	return nil
}

// encodeRepSelector encodes the IsRepG0/IsRepG1/IsRepG2 bits (and, for
// rep0, the IsRep0Long "length>1" bit) that identify which of the four MRU
// distances a rep-match decision reuses.
func encodeRepSelector(enc *rangeEncoder, st *lzmaState, repIdx int, posState uint32) error {
	switch repIdx {
	case 0:
		if err := enc.encodeBit(&st.isRepG0[st.state], 0); err != nil {
			return err
		}
		return enc.encodeBit(&st.isRep0Long[st.state][posState], 1)
	case 1:
		if err := enc.encodeBit(&st.isRepG0[st.state], 1); err != nil {
			return err
		}
		return enc.encodeBit(&st.isRepG1[st.state], 0)
	case 2:
		if err := enc.encodeBit(&st.isRepG0[st.state], 1); err != nil {
			return err
		}
		if err := enc.encodeBit(&st.isRepG1[st.state], 1); err != nil {
			return err
		}
		return enc.encodeBit(&st.isRepG2[st.state], 0)
	default:
		if err := enc.encodeBit(&st.isRepG0[st.state], 1); err != nil {
			return err
		}
		if err := enc.encodeBit(&st.isRepG1[st.state], 1); err != nil {
			return err
		}
		return enc.encodeBit(&st.isRepG2[st.state], 1)
	}
}

// promoteRep moves reps[idx] to the front, shifting the displaced
// distances back by one slot (spec.md §3 "rep0..rep3 MRU ordering").
func promoteRep(reps *[4]uint32, idx int) {
	d := reps[idx]
	for i := idx; i > 0; i-- {
		reps[i] = reps[i-1]
	}
	reps[0] = d
}

// emitEOS writes the raw-LZMA end-of-stream pseudo-match: IsMatch=1,
// IsRep=0, length=minMatchLen, distance=eosDist (spec.md §4.6).
func (e *lzmaEncoder) emitEOS(enc *rangeEncoder) error {
	pos := e.mf.curPos()
	posState := posStateOf(pos, e.st.pb)
	st := e.st
	if err := enc.encodeBit(&st.isMatch[st.state][posState], 1); err != nil {
		return err
	}
	if err := enc.encodeBit(&st.isRep[st.state], 0); err != nil {
		return err
	}
	if err := st.lenCodec.encode(enc, matchMinLenEOS-minMatchLen, posState); err != nil {
		return err
	}
	return st.distCodec.encode(enc, eosDist, lenToPosState(matchMinLenEOS))
}
