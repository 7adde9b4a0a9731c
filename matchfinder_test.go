// SPDX-License-Identifier: GPL-2.0-only

package lzma2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestWindow(data []byte) *window {
	w := newWindow(1<<16, maxMatchLen, 4)
	w.append(data)
	return w
}

func drainMatches(t *testing.T, mf matchFinder, n int) [][]match {
	t.Helper()
	out := make([][]match, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, mf.getMatches())
	}
	return out
}

func TestHC4Finder_FindsRepeatedPattern(t *testing.T) {
	data := []byte("abcdefgh" + "abcdefgh" + "xyz")
	w := newTestWindow(data)
	f := newHC4Finder(w, 32, 64)

	all := drainMatches(t, f, len(data))
	// At position 8 ("abcdefgh" repeats), a match of length >= 4 at
	// distance 7 (0-based, i.e. 8 bytes back) must be found.
	found := false
	for _, m := range all[8] {
		if m.dist == 7 && m.length >= 4 {
			found = true
		}
	}
	require.True(t, found, "expected a match at pos 8 referencing the first repeat")
}

func TestBT4Finder_FindsRepeatedPattern(t *testing.T) {
	data := []byte("abcdefgh" + "abcdefgh" + "xyz")
	w := newTestWindow(data)
	f := newBt4Finder(w, 32, 64)

	all := drainMatches(t, f, len(data))
	found := false
	for _, m := range all[8] {
		if m.dist == 7 && m.length >= 4 {
			found = true
		}
	}
	require.True(t, found, "expected a match at pos 8 referencing the first repeat")
}

func TestHC4Finder_NoMatchOnAllUniqueBytes(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	w := newTestWindow(data)
	f := newHC4Finder(w, 32, 64)
	all := drainMatches(t, f, len(data))
	for _, ms := range all {
		require.Empty(t, ms)
	}
}

func TestBT4Finder_SkipAdvancesPositionWithoutMatches(t *testing.T) {
	data := []byte("aaaaaaaaaaaaaaaaaaaa")
	w := newTestWindow(data)
	f := newBt4Finder(w, 32, 64)
	startPos := f.curPos()
	f.skip(5)
	require.Equal(t, startPos+5, f.curPos())
}

func TestHC4Finder_LongRunFindsMaximalMatch(t *testing.T) {
	data := make([]byte, 500)
	for i := range data {
		data[i] = 'A'
	}
	w := newTestWindow(data)
	f := newHC4Finder(w, 64, 273)
	all := drainMatches(t, f, len(data))
	// At pos 400 only 100 bytes remain, so the best match spans most of them.
	lastMatches := all[400]
	var best uint32
	for _, m := range lastMatches {
		if m.length > best {
			best = m.length
		}
	}
	require.Greater(t, best, uint32(50))
}

func TestBT4AndHC4_AgreeOnBestMatchLength(t *testing.T) {
	data := []byte("the quick brown fox the quick brown fox the quick brown fox")
	wHC := newTestWindow(data)
	wBT := newTestWindow(data)
	hc := newHC4Finder(wHC, 64, 273)
	bt := newBt4Finder(wBT, 64, 273)

	hcAll := drainMatches(t, hc, len(data))
	btAll := drainMatches(t, bt, len(data))

	for pos := range data {
		var hcBest, btBest uint32
		for _, m := range hcAll[pos] {
			if m.length > hcBest {
				hcBest = m.length
			}
		}
		for _, m := range btAll[pos] {
			if m.length > btBest {
				btBest = m.length
			}
		}
		// bt4 does a fuller search than hc4 with the same cutValue, so it
		// should never find a strictly worse best match.
		require.GreaterOrEqual(t, btBest, hcBest, "pos %d", pos)
	}
}
