// SPDX-License-Identifier: GPL-2.0-only

package lzma2

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestWriterReader_RoundTripAcrossMultipleChunks is grounded in the
// teacher's TestCompressDecompress_RoundTrip (compress_test.go) shape,
// adapted to this package's io.Writer/io.Reader streaming wrappers.
func TestWriterReader_RoundTripAcrossMultipleChunks(t *testing.T) {
	cfg := EncoderConfig{LC: 3, LP: 0, PB: 2, DictSize: 1 << 16, NiceLen: 32,
		MatchFinder: MatchFinderHC4, CutValue: 16}
	src := bytes.Repeat([]byte("streamed writer/reader round trip content "), 10000)

	var compressed bytes.Buffer
	w, err := NewWriter(&compressed, cfg)
	require.NoError(t, err)

	// Feed in several irregularly sized writes to exercise the internal
	// chunk-accumulation buffering.
	chunks := [][]byte{src[:1000], src[1000:50000], src[50000:]}
	for _, c := range chunks {
		n, err := w.Write(c)
		require.NoError(t, err)
		require.Equal(t, len(c), n)
	}
	require.NoError(t, w.Close())

	r := NewReader(&compressed, DecoderConfig{})
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestWriter_WriteAfterCloseFails(t *testing.T) {
	cfg := Preset(1)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, cfg)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("too late"))
	require.ErrorIs(t, err, ErrInternal)
}

func TestWriter_CloseIsIdempotent(t *testing.T) {
	cfg := Preset(1)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, cfg)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestNewWriter_RejectsInvalidConfig(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, EncoderConfig{DictSize: 1})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWriter_ProgressCallbackReportsIncreasingPositions(t *testing.T) {
	var positions []uint64
	cfg := Preset(1)
	cfg.Progress = func(bytesIn uint64) { positions = append(positions, bytesIn) }

	var buf bytes.Buffer
	w, err := NewWriter(&buf, cfg)
	require.NoError(t, err)

	src := bytes.Repeat([]byte("progress tracking payload content here "), 20000)
	_, err = w.Write(src)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NotEmpty(t, positions)
	for i := 1; i < len(positions); i++ {
		require.GreaterOrEqual(t, positions[i], positions[i-1])
	}
}

func TestDecompressWithConfig_EnforcesMaxOutputSize(t *testing.T) {
	src := bytes.Repeat([]byte("bounded output size check payload"), 5000)
	cmp, err := Compress(src, Preset(1))
	require.NoError(t, err)

	_, err = DecompressWithConfig(cmp, DecoderConfig{MaxOutputSize: 10})
	require.ErrorIs(t, err, ErrOutputLimit)
}

func TestCompress_RejectsInvalidConfig(t *testing.T) {
	_, err := Compress([]byte("x"), EncoderConfig{LC: 10, DictSize: 1 << 16})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
