// SPDX-License-Identifier: GPL-2.0-only

package lzma2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLzmaDecoder_CorruptBitstreamNeverPanics is spec.md §8 scenario S6 at
// the raw-decoder layer: a truncated/garbled symbol stream must surface
// Corrupt or an unexpected-EOF error, never a panic or out-of-bounds read.
func TestLzmaDecoder_CorruptBitstreamNeverPanics(t *testing.T) {
	cfg := EncoderConfig{LC: 3, LP: 0, PB: 2, DictSize: 1 << 16, NiceLen: 32, MatchFinder: MatchFinderHC4, CutValue: 16}
	src := bytes.Repeat([]byte("corruption probe payload bytes"), 300)

	enc, err := newLzmaEncoder(cfg)
	require.NoError(t, err)
	enc.feed(src)
	enc.finish()
	var payload bytes.Buffer
	rc := newRangeEncoder(&payload)
	require.NoError(t, enc.encodeAvailable(rc, true))
	require.NoError(t, rc.flush())
	require.NoError(t, enc.closeMT())

	raw := payload.Bytes()
	for _, cut := range []int{len(raw) / 4, len(raw) / 2, len(raw) - 1} {
		require.NotPanics(t, func() {
			dec := newLzmaDecoder(cfg.LC, cfg.LP, cfg.PB, cfg.DictSize, DecoderConfig{})
			rd, err := newRangeDecoder(bytes.NewReader(raw[:cut]))
			if err != nil {
				return
			}
			_, status, err := dec.decodeInto(rd, nil, 0)
			require.True(t, err != nil || status != StatusReachedEndMarker)
		})
	}
}

// TestLzmaDecoder_RepDistanceBeyondOutputIsCorrupt covers spec.md §8's
// "distance exceeds output produced so far" corruption scenario directly: a
// hand-built one-bit stream (isMatch=0) is decoded against a decoder whose
// state/reps were forced into "just came off a match referencing 6 bytes
// back, but nothing has ever been produced" — decodeInto must hit the
// matchByte guard and return Corrupt before it ever calls w.byteAt.
func TestLzmaDecoder_RepDistanceBeyondOutputIsCorrupt(t *testing.T) {
	var payload bytes.Buffer
	rc := newRangeEncoder(&payload)
	isMatchProb := prob(probInit)
	require.NoError(t, rc.encodeBit(&isMatchProb, 0)) // isMatch=0: literal-shaped bit
	require.NoError(t, rc.flush())

	dec := newLzmaDecoder(3, 0, 2, 1<<16, DecoderConfig{})
	dec.st.reps[0] = 5 // pretend a previous rep pointed 6 bytes back
	dec.st.state = 7   // non-literal state, so decodeInto must derive matchByte

	rd, err := newRangeDecoder(bytes.NewReader(payload.Bytes()))
	require.NoError(t, err)

	// pos is still 0 (nothing decoded yet): reps[0]+1 = 6 > 0, so the guard
	// at decodeInto's isMatch==0 branch must fire before any byteAt call.
	_, status, err := dec.decodeInto(rd, nil, 0)
	require.ErrorIs(t, err, ErrCorrupt)
	require.Equal(t, StatusCorrupt, status)
}

// TestLzmaDecoder_DistanceBeyondDictSizeIsCorrupt covers spec.md §8's
// "distance beyond dictSize" corruption scenario: a hand-built fresh-match
// symbol (isMatch=1, isRep=0, length=minMatchLen, 0-based distance 99) is
// decoded against a decoder whose window position was forced far enough
// ahead that the distance-exceeds-output guard does not fire first, so the
// distance-exceeds-dictSize guard is the one that must trip.
func TestLzmaDecoder_DistanceBeyondDictSizeIsCorrupt(t *testing.T) {
	var payload bytes.Buffer
	rc := newRangeEncoder(&payload)
	isMatchProb := prob(probInit)
	isRepProb := prob(probInit)
	lenCodec := newLengthCodec()
	distCodec := newDistCodec()

	require.NoError(t, rc.encodeBit(&isMatchProb, 1)) // isMatch=1: match/rep branch
	require.NoError(t, rc.encodeBit(&isRepProb, 0))    // isRep=0: fresh match, not a rep
	require.NoError(t, lenCodec.encode(rc, 0, 0))      // 0-based length offset 0 => length 2
	require.NoError(t, distCodec.encode(rc, 99, 0))    // 0-based distance 99 => actual distance 100
	require.NoError(t, rc.flush())

	dec := newLzmaDecoder(3, 0, 0, 64, DecoderConfig{}) // dictSize 64, pb 0
	dec.w.pos = 1000                                    // far enough that dist(100) <= pos

	rd, err := newRangeDecoder(bytes.NewReader(payload.Bytes()))
	require.NoError(t, err)

	_, status, err := dec.decodeInto(rd, nil, 0)
	require.ErrorIs(t, err, ErrCorrupt)
	require.Equal(t, StatusCorrupt, status)
}

// TestLzmaDecoder_MaxOutputSizeStopsDecoding exercises the output-limit
// guard independent of any specific bitstream content.
func TestLzmaDecoder_MaxOutputSizeStopsDecoding(t *testing.T) {
	cfg := EncoderConfig{LC: 3, LP: 0, PB: 2, DictSize: 1 << 16, NiceLen: 32, MatchFinder: MatchFinderHC4, CutValue: 16}
	src := bytes.Repeat([]byte{0x41}, 8192)

	enc, err := newLzmaEncoder(cfg)
	require.NoError(t, err)
	enc.feed(src)
	enc.finish()
	var payload bytes.Buffer
	rc := newRangeEncoder(&payload)
	require.NoError(t, enc.encodeAvailable(rc, true))
	require.NoError(t, rc.flush())
	require.NoError(t, enc.closeMT())

	dec := newLzmaDecoder(cfg.LC, cfg.LP, cfg.PB, cfg.DictSize, DecoderConfig{MaxOutputSize: 100})
	rd, err := newRangeDecoder(bytes.NewReader(payload.Bytes()))
	require.NoError(t, err)
	out, status, err := dec.decodeInto(rd, nil, 0)
	require.ErrorIs(t, err, ErrOutputLimit)
	require.Equal(t, StatusReachedOutputLimit, status)
	require.Less(t, len(out), len(src))
}
