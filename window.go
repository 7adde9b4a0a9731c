// SPDX-License-Identifier: GPL-2.0-only
// Source: sliding-window mechanics (ring bookkeeping, hash-chain heads,
// incremental insert-on-advance) grounded in
// _examples/WoozyMasta-lzo/sliding_window.go (slidingWindowDict: insertPos/
// scanPos/removePos cycle, hashHead2/hashHead3/chainNext); compaction
// instead of true modulo wraparound is grounded in the lz.Buffer shape used
// by _examples/other_examples/ab37e7f1_ulikunitz-xz__lzma-raw_reader.go.go
// (`r.buf lz.Buffer`, `r.buf.Init(dictSize, 2*dictSize)`).

package lzma2

const (
	hash2Size = 1 << 16
	hash3Size = 1 << 16

	emptyHashSlot uint32 = 0xFFFFFFFF
)

// window is the shared sliding-window buffer used by the encoder's match
// finder. Bytes are appended at the tail; once the valid history exceeds
// dictSize+keepAfter, a compaction pass shifts the live region back to the
// start of buf and rebases pos accordingly (spec.md §3 "Normalization
// event" — this module resolves that event as a compaction rather than a
// stored-position renumbering pass; see DESIGN.md).
type window struct {
	buf  []byte
	base uint64 // pos value corresponding to buf[0]
	pos  uint64 // logical position of the next byte the match finder or decoder processes (monotonic)
	end  uint64 // logical position one past the last byte written into buf

	dictSize   uint32
	keepBefore uint32
	keepAfter  uint32
	closed     bool // true once the caller has signaled no further bytes will be appended

	hash2 [hash2Size]uint32
	hash3 [hash3Size]uint32
	hash4 []uint32 // size = max(64Ki, dictSize/2) rounded to a power of two

	numHashBytes int // 2, 3, or 4: which prefix hashes feed the chain/tree
}

func newWindow(dictSize uint32, keepAfter uint32, numHashBytes int) *window {
	keepBefore := dictSize
	bufCap := dictSize + keepBefore + keepAfter
	hash4Size := uint32(1 << 16)
	for hash4Size < dictSize/2 {
		hash4Size <<= 1
	}
	w := &window{
		buf:          make([]byte, 0, bufCap),
		dictSize:     dictSize,
		keepBefore:   keepBefore,
		keepAfter:    keepAfter,
		hash4:        make([]uint32, hash4Size),
		numHashBytes: numHashBytes,
	}
	w.resetHashes()
	return w
}

func (w *window) resetHashes() {
	for i := range w.hash2 {
		w.hash2[i] = emptyHashSlot
	}
	for i := range w.hash3 {
		w.hash3[i] = emptyHashSlot
	}
	for i := range w.hash4 {
		w.hash4[i] = emptyHashSlot
	}
}

// bufIndex maps an absolute logical position to an index into buf.
func (w *window) bufIndex(p uint64) int { return int(p - w.base) }

// byteAt returns the byte at absolute position p (must be in [base, end)).
func (w *window) byteAt(p uint64) byte { return w.buf[w.bufIndex(p)] }

// available reports how many unread source bytes are buffered past pos.
func (w *window) available() uint32 { return uint32(w.end - w.pos) }

// close marks that no further bytes will ever be appended, letting the
// MatchFinderMT hash stage exit once every appended byte has been hashed
// instead of waiting for more.
func (w *window) close() { w.closed = true }

// append adds src to the tail of the window, compacting first if needed.
func (w *window) append(src []byte) {
	if uint64(cap(w.buf)) < uint64(len(w.buf))+uint64(len(src)) {
		w.compact()
	}
	w.buf = append(w.buf, src...)
	w.end += uint64(len(src))
}

// compact drops history more than keepBefore bytes behind pos, shifting the
// live window to the start of buf; when nothing can be dropped yet it grows
// buf instead. Hash entries hold absolute positions and need no rebasing:
// hash2/hash3 entries that now point below base are cleared, and older
// hash4 chain/tree candidates are rejected by the match finders' dictSize
// expiry check.
func (w *window) compact() {
	keep := uint64(w.keepBefore)
	if w.pos-w.base <= keep {
		// Nothing useful to drop yet; just grow the backing array.
		grown := make([]byte, len(w.buf), cap(w.buf)*2+1024)
		copy(grown, w.buf)
		w.buf = grown
		return
	}
	drop := (w.pos - w.base) - keep
	w.buf = append(w.buf[:0], w.buf[drop:]...)
	w.base += drop
	for i := range w.hash2 {
		if p := w.hash2[i]; p != emptyHashSlot && uint64(p) < w.base {
			w.hash2[i] = emptyHashSlot
		}
	}
	for i := range w.hash3 {
		if p := w.hash3[i]; p != emptyHashSlot && uint64(p) < w.base {
			w.hash3[i] = emptyHashSlot
		}
	}
}

// advance marks n bytes at the current position as consumed by the match
// finder (literal or part of a match), inserting their hashes along the
// way. Mirrors slidingWindowDict.accept/getByte's incremental insert.
func (w *window) advance(n uint32, insert func(pos uint64)) {
	for i := uint32(0); i < n; i++ {
		if w.pos+uint64(w.minInsertLookahead()) <= w.end {
			insert(w.pos)
		}
		w.pos++
	}
}

func (w *window) minInsertLookahead() int { return w.numHashBytes }

func hash2Of(b []byte) uint32 { return uint32(b[0]) | uint32(b[1])<<8 }

func hash3Of(b []byte) uint32 {
	h := uint32(b[0])
	h = (h ^ (uint32(b[1]) << 8)) * 506832829
	h = (h ^ (uint32(b[2]) << 16)) * 2654435761
	return (h >> 16) & (hash3Size - 1)
}

func hash4Of(b []byte, mask uint32) uint32 {
	h := uint32(b[0])
	h = (h ^ (uint32(b[1]) << 8)) * 506832829
	h = (h ^ (uint32(b[2]) << 16)) * 2654435761
	h = (h ^ (uint32(b[3]) << 24)) * 2246822519
	return (h >> 8) & mask
}

// insertHashes records pos in the 2/3-byte hash heads. 4-byte insertion is
// handled separately by each match-finder variant (hc4 head + chain vs bt4
// tree), since they need different auxiliary structures.
func (w *window) insertHashes(pos uint64) {
	idx := w.bufIndex(pos)
	if idx+4 > len(w.buf) {
		return
	}
	b := w.buf[idx:]
	w.hash2[hash2Of(b)] = uint32(pos)
	w.hash3[hash3Of(b)] = uint32(pos)
}

// matchLenAt returns the length of the common prefix between the bytes at
// a and b (both absolute positions), capped at limit.
func (w *window) matchLenAt(a, b uint64, limit uint32) uint32 {
	ai, bi := w.bufIndex(a), w.bufIndex(b)
	var n uint32
	bufLen := len(w.buf)
	for n < limit && ai+int(n) < bufLen && bi+int(n) < bufLen {
		if w.buf[ai+int(n)] != w.buf[bi+int(n)] {
			break
		}
		n++
	}
	return n
}
