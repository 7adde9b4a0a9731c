// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo (errors.go)

package lzma2

import "errors"

// Sentinel errors for compression and decompression. Mirrors the teacher's
// flat sentinel-error catalog: callers compare with errors.Is rather than
// type-asserting a custom error type.
var (
	// ErrEmptyInput is returned when Compress/Decompress is called with no input.
	ErrEmptyInput = errors.New("lzma2: empty input")
	// ErrCorrupt is returned when the decoder detects a malformed bitstream:
	// an out-of-range distance, a bad LZMA2 control byte, a range-coder
	// underflow, or a size mismatch between a declared and actual chunk.
	ErrCorrupt = errors.New("lzma2: corrupt stream")
	// ErrUnexpectedEOF is returned when input ends before a symbol, chunk
	// header, or range-coder flush completes.
	ErrUnexpectedEOF = errors.New("lzma2: unexpected end of input")
	// ErrOutputLimit is returned when a decode call is bounded by
	// DecoderConfig.MaxOutputSize and that bound would be exceeded.
	ErrOutputLimit = errors.New("lzma2: output size limit reached")
	// ErrCanceled names cancellation at a block or chunk boundary. No entry
	// point in this package accepts a cancellation signal, so none of them
	// returns it.
	ErrCanceled = errors.New("lzma2: canceled")
	// ErrInvalidConfig is returned synchronously from encoder/writer
	// construction when lc+lp > 4, pb > 4, or dictSize is out of range.
	ErrInvalidConfig = errors.New("lzma2: invalid configuration")
	// ErrInternal is returned when an invariant the encoder or match finder
	// relies on is violated; this indicates a bug rather than bad input.
	// Writer.Write also returns it when called after Close.
	ErrInternal = errors.New("lzma2: internal invariant violation")
)

// Status reports the outcome of the raw LZMA decode loop
// (lzmaDecoder.decodeInto), matching spec.md §6/§7's status taxonomy; the
// public entry points return an error built from one of the sentinels above
// instead.
type Status int

// Status values returned by decode operations.
const (
	// StatusOK indicates the call produced output and may be called again.
	StatusOK Status = iota
	// StatusNeedMoreInput indicates the decoder consumed all available
	// input but has not reached a chunk/stream boundary. The decoder in this
	// package reports running out of input as ErrUnexpectedEOF with
	// StatusCorrupt and does not produce this value.
	StatusNeedMoreInput
	// StatusReachedOutputLimit indicates the caller-supplied output buffer
	// or MaxOutputSize bound was filled before the stream ended.
	StatusReachedOutputLimit
	// StatusReachedEndMarker indicates the raw LZMA end-of-stream marker
	// (distance sentinel, length kMatchMinLen) was decoded.
	StatusReachedEndMarker
	// StatusCorrupt indicates the stream failed validation; see ErrCorrupt.
	StatusCorrupt
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNeedMoreInput:
		return "need-more-input"
	case StatusReachedOutputLimit:
		return "reached-output-limit"
	case StatusReachedEndMarker:
		return "reached-end-marker"
	case StatusCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}
