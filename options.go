// SPDX-License-Identifier: GPL-2.0-only
// Source: _examples/WoozyMasta-lzo/level_params.go (fixedLevels preset
// table keyed by a 0-9 compression level) and options.go
// (CompressionOptions / validation style), generalized to LZMA's
// lc/lp/pb/dictSize/niceLen/matchFinder/depth knob set (spec.md §3
// "Encoder parameters").

package lzma2

import "runtime"

// MatchFinderKind selects between the two match-finder algorithms
// (spec.md §4.3).
type MatchFinderKind int

const (
	// MatchFinderHC4 is the hash-chain finder: cheaper per position, used
	// by fast presets.
	MatchFinderHC4 MatchFinderKind = iota
	// MatchFinderBT4 is the binary-tree finder: more thorough, used by
	// default and high-ratio presets.
	MatchFinderBT4
)

// ProgressFunc is invoked periodically during Writer/ParallelEncoder
// operation with the number of uncompressed bytes consumed so far
// (spec.md §4.4 Supplemented Features "progress reporting").
type ProgressFunc func(bytesIn uint64)

// EncoderConfig holds every tunable of the LZMA/LZMA2 encoder. Use Preset
// to obtain a sane starting point, then override individual fields.
type EncoderConfig struct {
	LC, LP, PB uint32
	DictSize   uint32
	NiceLen    uint32
	MatchFinder MatchFinderKind
	CutValue   uint32 // match-finder search depth; 0 selects cutValueDefault
	Fast       bool   // greedy parsing instead of the bounded dynamic-programming parse

	// MultiThreaded enables MatchFinderMT when MatchFinder is MatchFinderBT4.
	// Compress and each ParallelEncoder block ignore it for inputs shorter
	// than mtMinInput; Writer does not (spec.md §9 "fall back ... below a
	// reasonable threshold").
	MultiThreaded bool

	// Workers bounds ParallelEncoder's concurrency; 0 selects
	// runtime.GOMAXPROCS(0).
	Workers int

	// Progress, if set, is called after each block/chunk is encoded.
	Progress ProgressFunc
}

// DecoderConfig holds decoder-side tunables.
type DecoderConfig struct {
	// MaxOutputSize bounds the number of bytes a decode call may produce;
	// 0 means unbounded. Exceeding it returns ErrOutputLimit.
	MaxOutputSize uint64
}

func (c EncoderConfig) validate() error {
	if c.LC+c.LP > 4 {
		return ErrInvalidConfig
	}
	if c.PB > maxPB {
		return ErrInvalidConfig
	}
	if c.DictSize < minDictSize {
		return ErrInvalidConfig
	}
	return nil
}

// Preset mirrors the teacher's level_params.go fixedLevels table: a single
// integer in [0,9] selects a bundle of dictSize/niceLen/matchFinder/depth
// values trading speed for ratio, the same shape 7-Zip's -mx switch uses.
func Preset(level int) EncoderConfig {
	if level < 0 {
		level = 0
	}
	if level > 9 {
		level = 9
	}
	return presetTable[level]
}

var presetTable = [10]EncoderConfig{
	0: {LC: 3, LP: 0, PB: 2, DictSize: 1 << 16, NiceLen: 32, MatchFinder: MatchFinderHC4, Fast: true, CutValue: 4},
	1: {LC: 3, LP: 0, PB: 2, DictSize: 1 << 20, NiceLen: 32, MatchFinder: MatchFinderHC4, Fast: true, CutValue: 8},
	2: {LC: 3, LP: 0, PB: 2, DictSize: 1 << 21, NiceLen: 32, MatchFinder: MatchFinderHC4, Fast: true, CutValue: 16},
	3: {LC: 3, LP: 0, PB: 2, DictSize: 1 << 22, NiceLen: 32, MatchFinder: MatchFinderHC4, CutValue: 32},
	4: {LC: 3, LP: 0, PB: 2, DictSize: 1 << 22, NiceLen: 48, MatchFinder: MatchFinderBT4, CutValue: 32},
	5: {LC: 3, LP: 0, PB: 2, DictSize: 1 << 23, NiceLen: 64, MatchFinder: MatchFinderBT4, CutValue: 32, MultiThreaded: true},
	6: {LC: 3, LP: 0, PB: 2, DictSize: 1 << 23, NiceLen: 64, MatchFinder: MatchFinderBT4, CutValue: 48, MultiThreaded: true},
	7: {LC: 3, LP: 0, PB: 2, DictSize: 1 << 24, NiceLen: 96, MatchFinder: MatchFinderBT4, CutValue: 64, MultiThreaded: true},
	8: {LC: 3, LP: 0, PB: 2, DictSize: 1 << 25, NiceLen: 128, MatchFinder: MatchFinderBT4, CutValue: 96, MultiThreaded: true},
	9: {LC: 3, LP: 0, PB: 2, DictSize: 1 << 26, NiceLen: 273, MatchFinder: MatchFinderBT4, CutValue: 128, MultiThreaded: true},
}

func (c EncoderConfig) workerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
