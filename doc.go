// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (package shape), generalized for LZMA/LZMA2

/*
Package lzma2 implements the LZMA and LZMA2 compression engine used by the 7z
archiver: an adaptive binary range coder, a sliding-window match finder
(hash-chain hc4 and binary-tree bt4 variants, optionally pipelined across
goroutines), a cost-driven optimal parser, and the paired LZMA
encoder/decoder. LZMA2 adds a thin chunked framing layer on top that permits
uncompressed-chunk fallback and mid-stream dictionary/state resets.

# Compress

	cfg := lzma2.Preset(6)
	out, err := lzma2.Compress(data, cfg)

Or stream through io.Writer:

	w, err := lzma2.NewWriter(dst, cfg)
	_, err = io.Copy(w, src)
	err = w.Close()

# Decompress

	out, err := lzma2.Decompress(compressed)

Or stream through io.Reader:

	r := lzma2.NewReader(src, lzma2.DecoderConfig{})
	_, err = io.Copy(dst, r)

LZMA2's chunk header carries the uncompressed length directly, so
lzma2.Reader never needs a caller-supplied output size the way raw LZMA
decoding conceptually does; DecoderConfig.MaxOutputSize remains available as
an optional safety bound for callers embedding the decoder in a larger
container format.
*/
package lzma2
