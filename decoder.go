// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §4.7 "Decoding" / §8 "Corruption detection"; structured
// as the mirror image of encoder.go, following the same
// state/reps/probability bookkeeping the ulikunitz-xz decoder files
// (ab37e7f1_ulikunitz-xz__lzma-raw_reader.go.go) use, re-expressed against
// this package's window/rangeDecoder/lzmaState types. Validation checks
// not present in that reference (distance-exceeds-output-so-far, a
// distance beyond dictSize) are grounded directly in spec.md §8's listed
// corruption scenarios.

package lzma2

// lzmaDecoder decodes a single raw-LZMA symbol stream into an output
// window. Unlike the encoder's window (which exists to drive match
// finding), the decoder's window exists purely to serve back-references,
// so it reuses the same struct with hashing left unused.
type lzmaDecoder struct {
	w    *window
	st   *lzmaState
	cfg  DecoderConfig
	out  uint64 // total bytes produced so far, for MaxOutputSize enforcement
}

func newLzmaDecoder(lc, lp, pb uint32, dictSize uint32, cfg DecoderConfig) *lzmaDecoder {
	w := newWindow(dictSize, 0, 4)
	return &lzmaDecoder{w: w, st: newLzmaState(lc, lp, pb), cfg: cfg}
}

// decodeInto decodes symbols from d until either maxOut bytes have been
// produced or the end-of-stream pseudo-match is seen, appending output
// bytes to dst and returning the extended slice.
func (d *lzmaDecoder) decodeInto(dec *rangeDecoder, dst []byte, maxOut uint64) ([]byte, Status, error) {
	st := d.st
	for maxOut == 0 || uint64(len(dst)) < maxOut {
		if d.cfg.MaxOutputSize != 0 && d.out >= d.cfg.MaxOutputSize {
			return dst, StatusReachedOutputLimit, ErrOutputLimit
		}
		pos := d.w.pos
		posState := posStateOf(pos, st.pb)

		isMatch, err := dec.decodeBit(&st.isMatch[st.state][posState])
		if err != nil {
			return dst, StatusCorrupt, ErrUnexpectedEOF
		}
		if isMatch == 0 {
			var matchByte byte
			if !isLiteralState(st.state) {
				if uint64(st.reps[0])+1 > pos {
					return dst, StatusCorrupt, ErrCorrupt
				}
				matchByte = d.w.byteAt(pos - uint64(st.reps[0]) - 1)
			}
			var prevByte byte
			if pos > 0 {
				prevByte = d.w.byteAt(pos - 1)
			}
			litState := litStateOf(prevByte, pos, st.lc, st.lp)
			b, err := st.litCodec.decode(dec, st.state, matchByte, litState)
			if err != nil {
				return dst, StatusCorrupt, ErrUnexpectedEOF
			}
			d.w.append([]byte{b})
			d.w.pos++
			dst = append(dst, b)
			d.out++
			st.state = updateStateLiteral(st.state)
			continue
		}

		isRep, err := dec.decodeBit(&st.isRep[st.state])
		if err != nil {
			return dst, StatusCorrupt, ErrUnexpectedEOF
		}
		var length uint32
		if isRep == 0 {
			st.reps[3], st.reps[2], st.reps[1] = st.reps[2], st.reps[1], st.reps[0]
			l, err := st.lenCodec.decode(dec, posState)
			if err != nil {
				return dst, StatusCorrupt, ErrUnexpectedEOF
			}
			length = l + minMatchLen
			dist, err := st.distCodec.decode(dec, lenToPosState(length))
			if err != nil {
				return dst, StatusCorrupt, ErrUnexpectedEOF
			}
			st.reps[0] = dist
			if dist == eosDist {
				return dst, StatusReachedEndMarker, nil
			}
			st.state = updateStateMatch(st.state)
		} else {
			repIdx, err := decodeRepSelector(dec, st, posState)
			if err != nil {
				return dst, StatusCorrupt, ErrUnexpectedEOF
			}
			if repIdx == shortRepSentinel {
				if uint64(st.reps[0])+1 > pos {
					return dst, StatusCorrupt, ErrCorrupt
				}
				b := d.w.byteAt(pos - uint64(st.reps[0]) - 1)
				d.w.append([]byte{b})
				d.w.pos++
				dst = append(dst, b)
				d.out++
				st.state = updateStateShortRep(st.state)
				continue
			}
			promoteRep(&st.reps, repIdx)
			l, err := st.repLenCodec.decode(dec, posState)
			if err != nil {
				return dst, StatusCorrupt, ErrUnexpectedEOF
			}
			length = l + minMatchLen
			st.state = updateStateRep(st.state)
		}

		dist := uint64(st.reps[0]) + 1
		if dist > pos {
			return dst, StatusCorrupt, ErrCorrupt
		}
		if dist > uint64(d.w.dictSize) {
			return dst, StatusCorrupt, ErrCorrupt
		}
		for i := uint32(0); i < length; i++ {
			b := d.w.byteAt(d.w.pos - dist)
			d.w.append([]byte{b})
			d.w.pos++
			dst = append(dst, b)
			d.out++
		}
	}
	return dst, StatusOK, nil
}

// shortRepSentinel is returned by decodeRepSelector to signal the
// IsRep0Long=0 "short rep" case rather than a concrete rep index.
const shortRepSentinel = -1

func decodeRepSelector(dec *rangeDecoder, st *lzmaState, posState uint32) (int, error) {
	g0, err := dec.decodeBit(&st.isRepG0[st.state])
	if err != nil {
		return 0, err
	}
	if g0 == 0 {
		long, err := dec.decodeBit(&st.isRep0Long[st.state][posState])
		if err != nil {
			return 0, err
		}
		if long == 0 {
			return shortRepSentinel, nil
		}
		return 0, nil
	}
	g1, err := dec.decodeBit(&st.isRepG1[st.state])
	if err != nil {
		return 0, err
	}
	if g1 == 0 {
		return 1, nil
	}
	g2, err := dec.decodeBit(&st.isRepG2[st.state])
	if err != nil {
		return 0, err
	}
	if g2 == 0 {
		return 2, nil
	}
	return 3, nil
}
