// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §4.3 "hc4 algorithm"; chain-walk and expiry shape
// grounded in _examples/WoozyMasta-lzo/sliding_window.go
// (searchBestMatch's chainNext walk, NiceLength/MaxChain early-exit) ported
// from LZO's fixed-width matches onto LZMA's (len,dist) pairs and dictSize
// expiry rule.

package lzma2

// match is a single candidate back-reference returned by a match finder.
type match struct {
	length uint32
	dist   uint32 // 0-based distance (distance-1 in spec.md terms is handled by caller)
}

// matchFinder is the common interface both hc4Finder and bt4Finder satisfy,
// used by the encoder/optimal parser and by MatchFinderMT's pipeline stage.
type matchFinder interface {
	// skip advances n positions without returning matches, still updating
	// internal hash structures (spec.md §4.3 "skip(n)").
	skip(n uint32)
	// getMatches returns candidate matches at the current position sorted
	// ascending by length, capped at maxMatchLen (spec.md §4.3
	// "getMatches(out) -> count").
	getMatches() []match
	// curPos returns the match finder's current absolute position.
	curPos() uint64
	// available reports how many unconsumed source bytes remain ahead of
	// curPos. Not always w.available(): a multithreaded finder's notion
	// of "current position" lags the window's own pos field.
	available() uint32
	// byteAt returns a byte relative to the current position (0 = current).
	byteAt(offset int) byte
	// window exposes the underlying window for callers that need raw bytes
	// (e.g. the optimal parser's literal-cost lookups).
	windowRef() *window
}

// cutValueDefault is used when a caller does not specify EncoderConfig.CutValue.
const cutValueDefault = 32

// hc4Finder implements the hash-chain 4-byte match finder.
type hc4Finder struct {
	w                *window
	chain            []uint32 // previous position in the hash-4 chain, indexed by pos % cyclicBufferSize
	cyclicBufferSize uint32
	cutValue         uint32
	niceLen          uint32
}

func newHC4Finder(w *window, cutValue, niceLen uint32) *hc4Finder {
	if cutValue == 0 {
		cutValue = cutValueDefault
	}
	cyclicSize := w.dictSize
	return &hc4Finder{
		w:                w,
		chain:            make([]uint32, cyclicSize),
		cyclicBufferSize: cyclicSize,
		cutValue:         cutValue,
		niceLen:          niceLen,
	}
}

func (f *hc4Finder) curPos() uint64     { return f.w.pos }
func (f *hc4Finder) windowRef() *window { return f.w }
func (f *hc4Finder) available() uint32  { return f.w.available() }

func (f *hc4Finder) byteAt(offset int) byte {
	return f.w.byteAt(f.w.pos + uint64(offset))
}

func (f *hc4Finder) insertAt(pos uint64) {
	f.w.insertHashes(pos)
	idx := f.w.bufIndex(pos)
	if idx+4 > len(f.w.buf) {
		return
	}
	key := hash4Of(f.w.buf[idx:], f.w.hash4Mask())
	slot := uint32(pos) % f.cyclicBufferSize
	f.chain[slot] = f.w.hash4[key]
	f.w.hash4[key] = uint32(pos)
}

func (f *hc4Finder) skip(n uint32) {
	f.w.advance(n, f.insertAt)
}

func (w *window) hash4Mask() uint32 { return uint32(len(w.hash4) - 1) }

// getMatches walks hash2/hash3 for short candidates and the hash4 chain for
// longer ones, returning matches in ascending length order (spec.md §4.3).
// Like skip, it always advances the current position by one; the returned
// matches describe the position as it stood before the call.
func (f *hc4Finder) getMatches() []match {
	pos := f.w.pos
	defer func() { f.w.pos = pos + 1 }()

	var out []match
	avail := f.w.available()
	if avail < 2 {
		f.insertAt(pos)
		return nil
	}
	limit := avail
	if limit > maxMatchLen {
		limit = maxMatchLen
	}

	idx := f.w.bufIndex(pos)
	cur := f.w.buf[idx:]

	bestLen := uint32(1)

	if avail >= 2 {
		if h2 := f.w.hash2[hash2Of(cur)]; h2 != emptyHashSlot && uint64(h2) < pos {
			if l := f.w.matchLenAt(pos, uint64(h2), limit); l >= 2 && l > bestLen {
				bestLen = l
				out = append(out, match{length: l, dist: uint32(pos-uint64(h2)) - 1})
			}
		}
	}
	if avail >= 3 {
		if h3 := f.w.hash3[hash3Of(cur)]; h3 != emptyHashSlot && uint64(h3) < pos {
			if l := f.w.matchLenAt(pos, uint64(h3), limit); l >= 3 && l > bestLen {
				bestLen = l
				out = append(out, match{length: l, dist: uint32(pos-uint64(h3)) - 1})
			}
		}
	}

	if avail >= 4 {
		key := hash4Of(cur, f.w.hash4Mask())
		node := f.w.hash4[key]
		minPos := uint64(0)
		if pos > uint64(f.cyclicBufferSize) {
			minPos = pos - uint64(f.cyclicBufferSize)
		}
		for steps := uint32(0); steps < f.cutValue && node != emptyHashSlot && uint64(node) >= minPos && uint64(node) < pos; steps++ {
			l := f.w.matchLenAt(pos, uint64(node), limit)
			if l > bestLen {
				bestLen = l
				out = append(out, match{length: l, dist: uint32(pos-uint64(node)) - 1})
				if l >= f.niceLen || l >= limit {
					break
				}
			}
			slot := uint32(node) % f.cyclicBufferSize
			node = f.chain[slot]
		}
	}

	f.insertAt(pos)
	return out
}
