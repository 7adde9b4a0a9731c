// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (format_constants.go shape);
// literal/length/distance tree layout grounded in
// _examples/other_examples/26e617ec_ulikunitz-xz__lzma-literal_codec.go.go

package lzma2

// Core LZMA format constants (spec.md §4.2).
const (
	numStates       = 12 // kNumStates
	numLenToPosStates = 4 // kNumLenToPosStates
	numAlignBits    = 4  // kNumAlignBits
	alignTableSize  = 1 << numAlignBits
	endPosModelIndex = 14 // kEndPosModelIndex
	numFullDistances = 1 << (endPosModelIndex / 2)
	numPosSlotBits  = 6
	numPosSlots     = 1 << numPosSlotBits

	minMatchLen = 2   // shortest encodable match
	maxMatchLen = 273 // longest encodable match (minMatchLen + 271)

	minLC = 0
	maxLC = 8
	minLP = 0
	maxLP = 4
	minPB = 0
	maxPB = 4

	// matchMinLenEOS is used by the raw-LZMA end-of-stream pseudo match: a
	// match of this length at the sentinel distance terminates the stream
	// (spec.md §4.6 Termination).
	matchMinLenEOS = minMatchLen
	eosDist        = 1<<32 - 1

	minDictSize = 1 << 12        // 4 KiB
	maxDictSize = 1<<32 - 1      // 4 GiB - 1
)

// symbolClass identifies the kind of symbol just emitted/decoded, used to
// index the state transition table.
type symbolClass int

const (
	classLiteral symbolClass = iota
	classMatch
	classRep
	classShortRep
)

// updateStateLiteral/Match/Rep/ShortRep each advance a state value to its
// successor under the LZMA state machine fixed by the format (spec.md §4.2
// "State transition table") — the transitions are not implementation
// defined, they are part of the bitstream contract, since encoder and
// decoder must track identical state.
func updateStateLiteral(state uint32) uint32 {
	switch {
	case state < 4:
		return 0
	case state < 10:
		return state - 3
	default:
		return state - 6
	}
}

func updateStateMatch(state uint32) uint32 {
	if state < 7 {
		return 7
	}
	return 10
}

func updateStateRep(state uint32) uint32 {
	if state < 7 {
		return 8
	}
	return 11
}

func updateStateShortRep(state uint32) uint32 {
	if state < 7 {
		return 9
	}
	return 11
}

// isLiteralState reports whether state represents "after a literal" (used
// to choose between the plain and the matched-literal XOR coder).
func isLiteralState(state uint32) bool { return state < 7 }

// posState returns pos masked to the pb window (spec.md §3 Glossary).
func posStateOf(pos uint64, pb uint32) uint32 {
	return uint32(pos) & ((1 << pb) - 1)
}

// litStateOf computes the literal coder context from the high lc bits of the
// previous byte and the low lp bits of pos, per spec.md §4.2/§4.6.
func litStateOf(prevByte byte, pos uint64, lc, lp uint32) uint32 {
	lpMask := uint32(1)<<lp - 1
	return ((uint32(pos) & lpMask) << lc) | (uint32(prevByte) >> (8 - lc))
}

// lenToPosState clamps a match length to the 4 length-dependent distance
// slot contexts (spec.md §4.2 "Distance encoding").
func lenToPosState(length uint32) uint32 {
	length -= uint32(minMatchLen)
	if length < numLenToPosStates {
		return length
	}
	return numLenToPosStates - 1
}
