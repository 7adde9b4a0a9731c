// SPDX-License-Identifier: GPL-2.0-only

package lzma2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindow_AppendAndByteAt(t *testing.T) {
	w := newWindow(1<<16, maxMatchLen, 4)
	w.append([]byte("hello"))
	require.Equal(t, byte('h'), w.byteAt(0))
	require.Equal(t, byte('o'), w.byteAt(4))
	require.Equal(t, uint32(5), w.available())
}

func TestWindow_MatchLenAt(t *testing.T) {
	w := newWindow(1<<16, maxMatchLen, 4)
	w.append([]byte("abcabcabc"))
	l := w.matchLenAt(3, 0, 100)
	require.Equal(t, uint32(6), l) // "abcabc" common prefix from pos 3 and pos 0
}

func TestWindow_HashesInsertedAndLookupable(t *testing.T) {
	w := newWindow(1<<16, maxMatchLen, 4)
	w.append([]byte("abcdabcd"))
	w.insertHashes(0)
	h2 := w.hash2[hash2Of(w.buf[0:])]
	require.Equal(t, uint32(0), h2)
	h3 := w.hash3[hash3Of(w.buf[0:])]
	require.Equal(t, uint32(0), h3)
}

// TestWindow_CompactPreservesRecentHistory exercises the compaction path
// (spec.md §3 "Normalization event") by driving pos forward (via a match
// finder's skip, which is what actually triggers the drop branch of
// compact()) well past dictSize and checking that the still-valid history
// window continues to read back correctly.
func TestWindow_CompactPreservesRecentHistory(t *testing.T) {
	const dictSize = 4096
	w := newWindow(dictSize, maxMatchLen, 4)
	f := newHC4Finder(w, 0, 0)

	chunk := make([]byte, 1024)
	for i := range chunk {
		chunk[i] = byte(i)
	}
	for i := 0; i < 64; i++ {
		w.append(chunk)
		f.skip(uint32(len(chunk)))
	}
	// The most recent dictSize bytes must still be valid history.
	recentStart := w.pos - dictSize
	for p := recentStart; p < w.pos; p += 997 {
		require.Equal(t, chunk[p%uint64(len(chunk))], w.byteAt(p))
	}
}

func TestHash2Of_DeterministicOnSameBytes(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	b := []byte{1, 2, 9, 9}
	require.Equal(t, hash2Of(a), hash2Of(b))
}

func TestHash3Of_DiffersOnDifferentBytes(t *testing.T) {
	a := hash3Of([]byte{1, 2, 3, 4})
	b := hash3Of([]byte{9, 8, 7, 6})
	require.NotEqual(t, a, b)
}
