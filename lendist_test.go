// SPDX-License-Identifier: GPL-2.0-only

package lzma2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLengthCodec_RoundTrip(t *testing.T) {
	lengths := []uint32{0, 1, 7, 8, 9, 15, 16, 17, lenLowSymbols + lenMidSymbols + lenHighSymbols - 1}
	for _, posState := range []uint32{0, 1, 2, 3} {
		var buf bytes.Buffer
		enc := newRangeEncoder(&buf)
		c := newLengthCodec()
		for _, l := range lengths {
			require.NoError(t, c.encode(enc, l, posState))
		}
		require.NoError(t, enc.flush())

		dec, err := newRangeDecoder(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		dc := newLengthCodec()
		for _, want := range lengths {
			got, err := dc.decode(dec, posState)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}
}

func TestLengthCodec_PriceIsPositive(t *testing.T) {
	c := newLengthCodec()
	for _, l := range []uint32{0, 5, 10, 100} {
		p := c.price(l, 0)
		require.Greater(t, p, uint32(0))
	}
}

func TestDistCodec_RoundTrip(t *testing.T) {
	dists := []uint32{0, 1, 2, 3, 4, 5, 127, 128, 1000, 1 << 16, 1<<24 - 1, 0xFFFFFFFE}
	for _, lenState := range []uint32{0, 1, 2, 3} {
		var buf bytes.Buffer
		enc := newRangeEncoder(&buf)
		c := newDistCodec()
		for _, d := range dists {
			require.NoError(t, c.encode(enc, d, lenState))
		}
		require.NoError(t, enc.flush())

		dec, err := newRangeDecoder(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		dc := newDistCodec()
		for _, want := range dists {
			got, err := dc.decode(dec, lenState)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}
}

func TestGetPosSlot_SmallDistancesAreIdentity(t *testing.T) {
	require.Equal(t, uint32(0), getPosSlot(0))
	require.Equal(t, uint32(1), getPosSlot(1))
	require.Equal(t, uint32(2), getPosSlot(2))
	require.Equal(t, uint32(3), getPosSlot(3))
}

func TestGetPosSlot_Monotonic(t *testing.T) {
	prev := uint32(0)
	for d := uint32(0); d < 1<<20; d += 997 {
		slot := getPosSlot(d)
		require.GreaterOrEqual(t, slot, prev)
		prev = slot
	}
}
