// SPDX-License-Identifier: GPL-2.0-only
// Source: _examples/WoozyMasta-lzo/compress.go and decompress_reader.go
// (Compress/Decompress free functions, NewReader wrapping io.Reader),
// generalized to LZMA2 framing and ParallelEncoder dispatch (spec.md §4.4
// Supplemented Features "one-shot and streaming convenience API").

package lzma2

import (
	"bytes"
	"io"
)

// Compress encodes src as a complete LZMA2 stream using cfg (see Preset).
// Large inputs are automatically split across goroutines per
// cfg.MultiThreaded / cfg.Workers via ParallelEncoder.
func Compress(src []byte, cfg EncoderConfig) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrEmptyInput
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MultiThreaded {
		return encodeParallel(src, cfg)
	}
	return encodeLZMA2Stream(src, cfg)
}

// Decompress decodes a complete LZMA2 stream produced by Compress or any
// conforming LZMA2 encoder.
func Decompress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrEmptyInput
	}
	return decodeLZMA2Stream(src, DecoderConfig{})
}

// DecompressWithConfig is Decompress with caller-supplied output bounds.
func DecompressWithConfig(src []byte, cfg DecoderConfig) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrEmptyInput
	}
	return decodeLZMA2Stream(src, cfg)
}

// Writer streams uncompressed bytes into an LZMA2 stream written to an
// underlying io.Writer. Callers must call Close to flush the final chunk
// and terminator.
type Writer struct {
	dst    io.Writer
	cfg    EncoderConfig
	enc     *lzmaEncoder
	pending []byte
	first   bool
	closed  bool
}

// NewWriter constructs a Writer. Bytes passed to Write are buffered until
// a full chunk's worth (lzma2MaxChunkUncompressed) accumulates, or until
// Close flushes whatever remains as the final chunk.
func NewWriter(dst io.Writer, cfg EncoderConfig) (*Writer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	enc, err := newLzmaEncoder(cfg)
	if err != nil {
		return nil, err
	}
	return &Writer{dst: dst, cfg: cfg, enc: enc, first: true}, nil
}

// Write buffers p, flushing one or more complete chunks through
// writeLZMA2Chunk as soon as enough bytes have accumulated.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrInternal
	}
	w.pending = append(w.pending, p...)
	for len(w.pending) >= lzma2MaxChunkUncompressed {
		if err := w.flushChunk(w.pending[:lzma2MaxChunkUncompressed]); err != nil {
			return 0, err
		}
		w.pending = w.pending[lzma2MaxChunkUncompressed:]
	}
	return len(p), nil
}

func (w *Writer) flushChunk(chunk []byte) error {
	var out bytes.Buffer
	if err := writeLZMA2Chunk(&out, w.enc, chunk, w.first); err != nil {
		return err
	}
	w.first = false
	if _, err := w.dst.Write(out.Bytes()); err != nil {
		return err
	}
	if w.cfg.Progress != nil {
		w.cfg.Progress(w.enc.mf.curPos())
	}
	return nil
}

// Close flushes any buffered bytes as the final chunk, writes the LZMA2
// terminator, and joins the match-finder pipeline if one is running.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.enc.finish()
	if len(w.pending) > 0 || w.first {
		if err := w.flushChunk(w.pending); err != nil {
			return err
		}
	}
	if err := w.enc.closeMT(); err != nil {
		return err
	}
	_, err := w.dst.Write([]byte{lzma2Terminator})
	return err
}

// Reader decodes an LZMA2 stream read from an underlying io.Reader.
type Reader struct {
	src  io.Reader
	cfg  DecoderConfig
	buf  bytes.Buffer
	err  error
	read bool
}

// NewReader constructs a Reader. Because LZMA2 chunk headers carry the
// uncompressed length in-band, decoding happens eagerly on the first Read
// call rather than truly incrementally (spec.md §4.4 notes this as an
// accepted simplification for the streaming wrapper).
func NewReader(src io.Reader, cfg DecoderConfig) *Reader {
	return &Reader{src: src, cfg: cfg}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil && r.buf.Len() == 0 {
		return 0, r.err
	}
	if !r.read {
		r.read = true
		raw, err := io.ReadAll(r.src)
		if err != nil {
			r.err = err
			return 0, err
		}
		out, err := decodeLZMA2Stream(raw, r.cfg)
		if err != nil {
			r.err = err
		}
		r.buf.Write(out)
	}
	n, err := r.buf.Read(p)
	if err == io.EOF && r.err != nil {
		return n, r.err
	}
	return n, err
}
