// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §4.8 "LZMA2 framing"; chunk-header bit layout and the
// four reset levels (none/state/state+props/state+props+dict) are fixed
// by the LZMA2 format itself, not implementation-defined — transcribed
// the way _examples/WoozyMasta-lzo/compress9x.go structures its own
// length-prefixed block framing (control byte, big-endian size fields,
// per-block dictionary carry-over) generalized to LZMA2's control-byte
// bit layout.

package lzma2

import (
	"bytes"
	"encoding/binary"
	"sync"
)

// chunkPayloadPool reuses the scratch buffer each chunk's trial LZMA encode
// is written into, the same acquire/reset/release discipline the teacher
// uses for its sliding-window dictionaries (sliding_window_pool.go)  applied
// here to the per-chunk payload buffer instead, since every chunk up to
// lzma2MaxChunkUncompressed bytes would otherwise allocate and discard one.
var chunkPayloadPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func acquirePayloadBuffer() *bytes.Buffer {
	buf := chunkPayloadPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func releasePayloadBuffer(buf *bytes.Buffer) {
	chunkPayloadPool.Put(buf)
}

const (
	lzma2Terminator = 0x00

	// Control byte high bit set => LZMA chunk; clear (and nonzero) =>
	// uncompressed chunk. Bits 5-6 of an LZMA control byte select the
	// reset level.
	lzma2CtrlLZMABit    = 0x80
	lzma2CtrlUncompReset = 0x01 // uncompressed chunk, dictionary reset
	lzma2CtrlUncompNoReset = 0x02

	lzma2ResetNone           = 0 // continue previous state, no props change
	lzma2ResetState          = 1 // reset state, keep props
	lzma2ResetStateNewProps  = 2 // reset state, new props
	lzma2ResetStateNewPropsDict = 3 // reset state, new props, reset dictionary

	lzma2MaxChunkUncompressed = 1 << 21 // 2 MiB, the format's per-chunk cap
	lzma2MaxChunkCompressed   = 1 << 16 // 64 KiB
)

// lzma2Chunk describes one parsed chunk header plus its payload boundaries.
// The encoder and decoder in this file read and write header bytes directly
// and do not use it.
type lzma2Chunk struct {
	uncompressed bool
	resetLevel   int
	uncompLen    int // uncompressed size (both kinds)
	compLen      int // compressed size (LZMA chunks only)
}

// encodeLZMA2Stream frames src as a sequence of LZMA2 chunks into a single
// buffer, starting a fresh dictionary/state/props on the first chunk and
// otherwise continuing state across chunks. cfg.DictSize bounds how much
// history a chunk may reference; NiceLen/MatchFinder/etc. are unchanged
// across chunks within one call (ParallelEncoder is what resets dict
// state at block boundaries, see parallel.go).
func encodeLZMA2Stream(src []byte, cfg EncoderConfig) ([]byte, error) {
	var out bytes.Buffer
	if len(src) < mtMinInput {
		cfg.MultiThreaded = false
	}
	enc, err := newLzmaEncoder(cfg)
	if err != nil {
		return nil, err
	}
	first := true
	for off := 0; off < len(src) || first; {
		end := off + lzma2MaxChunkUncompressed
		if end > len(src) {
			end = len(src)
		}
		chunk := src[off:end]
		if len(chunk) == 0 && !first {
			break
		}
		last := end >= len(src)
		if last {
			enc.finish() // no further bytes will ever be fed to this window
		}
		if err := writeLZMA2Chunk(&out, enc, chunk, first); err != nil {
			return nil, err
		}
		first = false
		off = end
		if off >= len(src) {
			break
		}
	}
	if err := enc.closeMT(); err != nil {
		return nil, err
	}
	out.WriteByte(lzma2Terminator)
	return out.Bytes(), nil
}

// writeLZMA2Chunk encodes one chunk's worth of input (<= 2 MiB) and
// appends its framed bytes to out. When the LZMA-compressed payload would
// not beat storing the bytes uncompressed, it falls back to an
// uncompressed chunk instead (spec.md §4.8 "uncompressed-chunk fallback").
func writeLZMA2Chunk(out *bytes.Buffer, enc *lzmaEncoder, chunk []byte, first bool) error {
	if len(chunk) == 0 {
		return nil
	}
	// A prior uncompressed-chunk fallback left st mutated by a trial
	// encode whose output was discarded, so this chunk must reset state
	// even if it isn't the very first one (spec.md §4.8 "a stored chunk
	// carries no adaptive state of its own").
	needsReset := first || enc.needsStateReset
	if needsReset {
		enc.st.reset()
	}
	enc.feed(chunk)

	payload := acquirePayloadBuffer()
	defer releasePayloadBuffer(payload)
	rc := newRangeEncoder(payload)
	if err := enc.encodeAvailable(rc, false); err != nil {
		return err
	}
	if err := rc.flush(); err != nil {
		return err
	}

	if payload.Len() >= len(chunk) {
		enc.needsStateReset = true
		return writeUncompressedChunks(out, chunk, first)
	}
	enc.needsStateReset = false

	// A fresh window per encodeLZMA2Stream call means the first chunk of
	// each call must reset the decoder's dictionary too, not just its
	// state/props — otherwise a decoder persisting one window across a
	// block-parallel stream's concatenated output would read stale bytes
	// left over from the previous block.
	resetLevel := lzma2ResetNone
	switch {
	case first:
		resetLevel = lzma2ResetStateNewPropsDict
	case needsReset:
		resetLevel = lzma2ResetStateNewProps
	}
	ctrl := byte(lzma2CtrlLZMABit) | byte(resetLevel<<5) | byte((len(chunk)-1)>>16)
	out.WriteByte(ctrl)
	writeUint16BE(out, uint16(len(chunk)-1))
	writeUint16BE(out, uint16(payload.Len()-1))
	if resetLevel >= lzma2ResetStateNewProps {
		out.WriteByte(propsByte(enc.cfg.LC, enc.cfg.LP, enc.cfg.PB))
	}
	out.Write(payload.Bytes())
	return nil
}

// lzma2MaxChunkStored is the largest payload a single uncompressed chunk
// header can describe: its size field is the same 16 bits as an LZMA
// chunk's compressed-length field, so it shares lzma2MaxChunkCompressed's
// value but is named separately since the two fields mean different things.
const lzma2MaxChunkStored = lzma2MaxChunkCompressed

// writeUncompressedChunks splits chunk into pieces no larger than
// lzma2MaxChunkStored before framing each as its own uncompressed chunk:
// the outer loop in encodeLZMA2Stream slices input up to 2 MiB at a time
// for the LZMA-compressed path, which would silently truncate an
// uncompressed chunk's 16-bit size field if written directly.
func writeUncompressedChunks(out *bytes.Buffer, chunk []byte, first bool) error {
	for off := 0; off < len(chunk); {
		end := off + lzma2MaxChunkStored
		if end > len(chunk) {
			end = len(chunk)
		}
		if err := writeUncompressedChunk(out, chunk[off:end], first && off == 0); err != nil {
			return err
		}
		off = end
	}
	return nil
}

func writeUncompressedChunk(out *bytes.Buffer, chunk []byte, reset bool) error {
	ctrl := byte(lzma2CtrlUncompNoReset)
	if reset {
		ctrl = lzma2CtrlUncompReset
	}
	out.WriteByte(ctrl)
	writeUint16BE(out, uint16(len(chunk)-1))
	out.Write(chunk)
	return nil
}

func writeUint16BE(out *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	out.Write(b[:])
}

// decodeLZMA2Stream parses and decodes a full LZMA2 stream, honoring each
// chunk's reset level and the uncompressed-chunk fallback.
func decodeLZMA2Stream(src []byte, cfg DecoderConfig) ([]byte, error) {
	var out []byte
	var dec *lzmaDecoder
	lc, lp, pb := uint32(3), uint32(0), uint32(2)
	dictSize := uint32(1 << 24)

	i := 0
	for i < len(src) {
		ctrl := src[i]
		if ctrl == lzma2Terminator {
			return out, nil
		}
		if ctrl&lzma2CtrlLZMABit == 0 {
			if ctrl != lzma2CtrlUncompReset && ctrl != lzma2CtrlUncompNoReset {
				return out, ErrCorrupt
			}
			if i+3 > len(src) {
				return out, ErrUnexpectedEOF
			}
			size := int(binary.BigEndian.Uint16(src[i+1:i+3])) + 1
			i += 3
			if i+size > len(src) {
				return out, ErrUnexpectedEOF
			}
			if cfg.MaxOutputSize != 0 && uint64(len(out)+size) > cfg.MaxOutputSize {
				return out, ErrOutputLimit
			}
			if ctrl == lzma2CtrlUncompReset {
				dec = newLzmaDecoder(lc, lp, pb, dictSize, cfg)
			}
			out = append(out, src[i:i+size]...)
			if dec != nil {
				dec.w.append(src[i : i+size])
				dec.w.pos = dec.w.end
			}
			i += size
			continue
		}

		resetLevel := int((ctrl >> 5) & 0x3)
		if i+5 > len(src) {
			return out, ErrUnexpectedEOF
		}
		uncompLen := (int(ctrl&0x1f)<<16 | int(src[i+1])<<8 | int(src[i+2])) + 1
		compLen := int(binary.BigEndian.Uint16(src[i+3:i+5])) + 1
		i += 5

		if resetLevel >= lzma2ResetStateNewProps {
			if i >= len(src) {
				return out, ErrUnexpectedEOF
			}
			var err error
			lc, lp, pb, err = propsFromByte(src[i])
			if err != nil {
				return out, err
			}
			i++
		}
		if dec == nil || resetLevel == lzma2ResetStateNewPropsDict {
			dec = newLzmaDecoder(lc, lp, pb, dictSize, cfg)
		} else if resetLevel >= lzma2ResetState {
			dec.st.reset()
			if resetLevel >= lzma2ResetStateNewProps {
				dec.st.setProps(lc, lp, pb)
			}
		}

		if i+compLen > len(src) {
			return out, ErrUnexpectedEOF
		}
		payload := src[i : i+compLen]
		i += compLen

		rc, err := newRangeDecoder(&byteSliceSource{b: payload})
		if err != nil {
			return out, ErrUnexpectedEOF
		}
		if rc.corrupt {
			return out, ErrCorrupt
		}
		dst, _, err := dec.decodeInto(rc, nil, uint64(uncompLen))
		if err != nil && err != ErrCorrupt {
			return out, err
		}
		if !rc.isFinished() || len(dst) != uncompLen {
			return out, ErrCorrupt
		}
		if cfg.MaxOutputSize != 0 && uint64(len(out)+len(dst)) > cfg.MaxOutputSize {
			return out, ErrOutputLimit
		}
		out = append(out, dst...)
	}
	return out, nil
}

// byteSliceSource adapts a byte slice to the byteSource interface the
// range decoder expects.
type byteSliceSource struct {
	b   []byte
	pos int
}

func (s *byteSliceSource) ReadByte() (byte, error) {
	if s.pos >= len(s.b) {
		return 0, ErrUnexpectedEOF
	}
	b := s.b[s.pos]
	s.pos++
	return b, nil
}
