// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §4.9 "Block-parallel encoding"; worker-pool/reassembly
// shape grounded in the same errgroup.Group idiom as mtfinder.go
// (_examples/ethereum-go-ethereum's go.mod pulls in golang.org/x/sync;
// cmd/geth/lag_between_tx_inclusion_test.go's errgroup.WithContext +
// indexed-slice-of-results pattern is the model for collecting
// in-order results from unordered completion).

package lzma2

import (
	"golang.org/x/sync/errgroup"
)

// parallelBlockSize is the default block granularity: each worker gets an
// independent dictionary, so blocks must be at least a few multiples of
// dictSize for the ratio loss at each boundary to stay negligible
// (spec.md §4.9 "block size must be >= dictSize").
func parallelBlockSize(dictSize uint32) int {
	size := int(dictSize) * 4
	if size < 1<<20 {
		size = 1 << 20
	}
	return size
}

// encodeParallel splits src into independent blocks and encodes them
// concurrently, each block starting a fresh LZMA2 dictionary/state/props
// reset, then concatenates the per-block LZMA2 streams (minus their
// individual terminators, replaced by one shared terminator at the very
// end) in original order regardless of completion order.
func encodeParallel(src []byte, cfg EncoderConfig) ([]byte, error) {
	blockSize := parallelBlockSize(cfg.DictSize)
	if len(src) <= blockSize {
		return encodeLZMA2Stream(src, cfg)
	}

	var blocks [][]byte
	for off := 0; off < len(src); off += blockSize {
		end := off + blockSize
		if end > len(src) {
			end = len(src)
		}
		blocks = append(blocks, src[off:end])
	}

	results := make([][]byte, len(blocks))
	g := new(errgroup.Group)
	g.SetLimit(cfg.workerCount())
	for i, block := range blocks {
		i, block := i, block
		g.Go(func() error {
			out, err := encodeLZMA2Stream(block, cfg)
			if err != nil {
				return err
			}
			// Strip this block's own terminator; only the final
			// concatenated stream carries one.
			if len(out) > 0 && out[len(out)-1] == lzma2Terminator {
				out = out[:len(out)-1]
			}
			results[i] = out
			if cfg.Progress != nil {
				cfg.Progress(uint64(end(blocks, i)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	out := make([]byte, 0, total+1)
	for _, r := range results {
		out = append(out, r...)
	}
	out = append(out, lzma2Terminator)
	return out, nil
}

// end returns the cumulative uncompressed byte count through block i,
// used only for progress reporting.
func end(blocks [][]byte, i int) int {
	n := 0
	for j := 0; j <= i; j++ {
		n += len(blocks[j])
	}
	return n
}
