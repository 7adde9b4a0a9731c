// SPDX-License-Identifier: GPL-2.0-only

package lzma2

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeParallel_SplitsAndReassemblesInOrder(t *testing.T) {
	cfg := EncoderConfig{LC: 3, LP: 0, PB: 2, DictSize: 1 << 16, NiceLen: 32,
		MatchFinder: MatchFinderHC4, CutValue: 16, MultiThreaded: true}

	block := parallelBlockSize(cfg.DictSize)
	require.Greater(t, block, 0)

	// One full block of a repeated section followed by a 4 KiB random tail,
	// so the split spans two blocks and reassembly order can be verified by
	// content, not just length.
	rng := rand.New(rand.NewSource(99))
	tail := make([]byte, 4096)
	rng.Read(tail)
	src := make([]byte, 0, block+len(tail))
	src = append(src, bytes.Repeat([]byte("AAA-section-one-"), block/16+1)[:block]...)
	src = append(src, tail...)

	cmp, err := encodeParallel(src, cfg)
	require.NoError(t, err)

	out, err := decodeLZMA2Stream(cmp, DecoderConfig{})
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestEncodeParallel_FallsBackBelowBlockSize(t *testing.T) {
	cfg := EncoderConfig{LC: 3, LP: 0, PB: 2, DictSize: 1 << 16, NiceLen: 32,
		MatchFinder: MatchFinderHC4, CutValue: 16, MultiThreaded: true}
	src := []byte("short input well under one parallel block")

	cmp, err := encodeParallel(src, cfg)
	require.NoError(t, err)
	out, err := decodeLZMA2Stream(cmp, DecoderConfig{})
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestEncodeParallel_SingleSharedTerminator(t *testing.T) {
	cfg := EncoderConfig{LC: 3, LP: 0, PB: 2, DictSize: 1 << 16, NiceLen: 32,
		MatchFinder: MatchFinderHC4, CutValue: 16, MultiThreaded: true}
	block := parallelBlockSize(cfg.DictSize)
	src := bytes.Repeat([]byte{0x7A}, block*2+10)

	cmp, err := encodeParallel(src, cfg)
	require.NoError(t, err)
	require.Equal(t, byte(lzma2Terminator), cmp[len(cmp)-1])

	out, err := decodeLZMA2Stream(cmp, DecoderConfig{})
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestParallelBlockSize_ScalesWithDictSizeButHasFloor(t *testing.T) {
	require.Equal(t, 1<<20, parallelBlockSize(1<<10))
	require.Equal(t, int(1<<18)*4, parallelBlockSize(1<<18))
}
