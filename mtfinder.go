// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §4.4 (three-stage hash/btree/encoder pipeline) and §5
// (acquire/release ring handoffs, cooperative cancellation). Worker
// lifecycle and first-error propagation grounded in
// _examples/ethereum-go-ethereum/go.mod (requires golang.org/x/sync) and
// cmd/geth/lag_between_tx_inclusion_test.go's errgroup.WithContext +
// worker-pool idiom; ring head/tail bookkeeping uses sync/atomic per
// spec.md §5 ("minimum atomic primitive required is a single-word
// fetch-add with release semantics").

package lzma2

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// mtBlockSize is the granularity at which the hash and btree stages hand
// off work; spec.md §4.4 calls this "a few KiB of positions" to amortize
// synchronization overhead.
const mtBlockSize = 4096

// mtMinInput is the input size below which encodeLZMA2Stream (Compress and
// each ParallelEncoder block) drops MatchFinderMT for single-threaded
// operation; Writer does not apply it. Per spec.md §9 Open Questions ("implementers
// should fall back to single-threaded operation below a reasonable
// threshold (e.g., input < 128 KiB)").
const mtMinInput = 128 * 1024

// hashPosBatch is one handoff unit from the hash stage to the btree stage:
// a run of positions whose hash2/hash3 entries have already been written,
// plus the table value each position's write replaced (emptyHashSlot if
// none), so the btree stage can build the same length-2/3 candidates
// bt4Finder.getMatches does without re-reading a table the hash stage has
// since overwritten for later positions.
type hashPosBatch struct {
	start uint64
	count uint32
	h2old []uint32
	h3old []uint32
}

// matchBatch is one handoff unit from the btree stage to the encoder: the
// match lists for a run of positions, packed as counted runs (spec.md
// §4.4 "variable-length match lists packed as counted runs").
type matchBatch struct {
	start   uint64
	results [][]match
}

// mtMatchFinder pipelines a bt4Finder across two worker goroutines plus the
// calling (encoder) goroutine, per spec.md §4.4.
type mtMatchFinder struct {
	w  *window
	bt *bt4Finder

	hashRing chan hashPosBatch
	matchRing chan matchBatch

	produced atomic.Uint64 // positions whose hashes have been inserted (release point)
	consumed atomic.Uint64 // positions whose matches have been consumed by the encoder (acquire point)

	g      *errgroup.Group
	cancel context.CancelFunc

	curBatch matchBatch // most recently received batch
	curIdx   int        // index into curBatch.results not yet delivered
}

// newMTMatchFinder starts the hash and btree goroutines; callers must call
// Close when done.
func newMTMatchFinder(w *window, bt *bt4Finder) *mtMatchFinder {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	f := &mtMatchFinder{
		w:         w,
		bt:        bt,
		hashRing:  make(chan hashPosBatch, 4),
		matchRing: make(chan matchBatch, 4),
		g:         g,
		cancel:    cancel,
	}
	g.Go(func() error { return f.hashStage(ctx) })
	g.Go(func() error { return f.btreeStage(ctx) })
	return f
}

// hashStage computes hash2/hash3 entries for newly available positions and
// publishes them with release semantics via produced.Add (spec.md §5
// "Atomics"). It never touches hash4/son, honoring the single-writer rule.
//
// It also captures, per position, the table value its own write is about
// to replace (h2old/h3old). The btree stage runs behind this one, so by
// the time it would reach a position the live hash2/hash3 table may
// already have been overwritten by this stage processing later positions
// in the same or a subsequent batch — reading the table live from
// btreeStage would see the wrong "most recent older position" and silently
// drop or mis-distance the length-2/3 candidates bt4Finder.getMatches
// finds single-threaded. Capturing the pre-overwrite value here, while
// this stage still visits positions in strict increasing order exactly
// like the single-threaded finder does, preserves that ordering.
//
// mtBlockSize is a maximum batch size, not a minimum: once any bytes are
// available the stage processes them immediately rather than waiting for a
// full block, so a chunk boundary (a short tail of fewer than mtBlockSize
// bytes, with more chunks still to be fed) never looks different from a
// true end of stream. Only window.close (called once by the caller after
// the very last byte of the whole stream has been fed) causes this loop to
// exit for good; otherwise it parks with runtime.Gosched until more bytes
// land.
func (f *mtMatchFinder) hashStage(ctx context.Context) error {
	defer close(f.hashRing)
	for {
		start := f.produced.Load()
		avail := f.w.end - start
		if avail == 0 {
			if f.w.closed {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				runtime.Gosched()
				continue
			}
		}
		n := uint32(avail)
		if n > mtBlockSize {
			n = mtBlockSize
		}
		h2old := make([]uint32, n)
		h3old := make([]uint32, n)
		for i := uint32(0); i < n; i++ {
			pos := start + uint64(i)
			h2old[i] = emptyHashSlot
			h3old[i] = emptyHashSlot
			idx := f.w.bufIndex(pos)
			if idx+2 <= len(f.w.buf) {
				key := hash2Of(f.w.buf[idx:])
				h2old[i] = f.w.hash2[key]
				f.w.hash2[key] = uint32(pos)
			}
			if idx+3 <= len(f.w.buf) {
				key := hash3Of(f.w.buf[idx:])
				h3old[i] = f.w.hash3[key]
				f.w.hash3[key] = uint32(pos)
			}
		}
		f.produced.Add(uint64(n)) // release: btree stage may now see [start, start+n)
		select {
		case f.hashRing <- hashPosBatch{start: start, count: n, h2old: h2old, h3old: h3old}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// btreeStage consumes hash-position batches (acquiring the hash-stage's
// release) and performs the binary-tree descent/insert for each position,
// publishing match lists for the encoder to consume. Before descending the
// tree it builds the same length-2/3 candidates bt4Finder.getMatches does
// from hash2/hash3, using the pre-overwrite values the hash stage captured
// rather than re-reading the (by now stale-for-this-position) live table.
func (f *mtMatchFinder) btreeStage(ctx context.Context) error {
	defer close(f.matchRing)
	for batch := range f.hashRing {
		results := make([][]match, batch.count)
		for i := uint32(0); i < batch.count; i++ {
			pos := batch.start + uint64(i)
			idx := f.w.bufIndex(pos)
			if idx+4 > len(f.w.buf) {
				continue
			}
			cur := f.w.buf[idx:]
			limit64 := f.w.end - pos
			if limit64 > maxMatchLen {
				limit64 = maxMatchLen
			}
			limit := uint32(limit64)

			var out []match
			bestLen := uint32(1)
			if h2 := batch.h2old[i]; h2 != emptyHashSlot && uint64(h2) < pos {
				if l := f.w.matchLenAt(pos, uint64(h2), limit); l >= 2 && l > bestLen {
					bestLen = l
					out = append(out, match{length: l, dist: uint32(pos-uint64(h2)) - 1})
				}
			}
			if h3 := batch.h3old[i]; h3 != emptyHashSlot && uint64(h3) < pos {
				if l := f.w.matchLenAt(pos, uint64(h3), limit); l >= 3 && l > bestLen {
					bestLen = l
					out = append(out, match{length: l, dist: uint32(pos-uint64(h3)) - 1})
				}
			}

			key := hash4Of(cur, f.w.hash4Mask())
			node := f.w.hash4[key]
			f.w.hash4[key] = uint32(pos)
			results[i] = f.bt.descendAndInsert(pos, node, limit, out)
		}
		select {
		case f.matchRing <- matchBatch{start: batch.start, results: results}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// getMatches returns the match list for the current consumed position,
// blocking on the pipeline if necessary (spec.md §5 "matches consumed at
// position p reflect the window contents at position p"), then advances
// the consumer's logical position by one.
func (f *mtMatchFinder) getMatches() []match {
	for f.curIdx >= len(f.curBatch.results) {
		batch, ok := <-f.matchRing
		if !ok {
			return nil
		}
		f.curBatch = batch
		f.curIdx = 0
	}
	out := f.curBatch.results[f.curIdx]
	f.curIdx++
	f.consumed.Add(1)
	return out
}

func (f *mtMatchFinder) curPos() uint64     { return f.consumed.Load() }
func (f *mtMatchFinder) windowRef() *window { return f.w }
func (f *mtMatchFinder) available() uint32  { return uint32(f.w.end - f.consumed.Load()) }
func (f *mtMatchFinder) byteAt(offset int) byte {
	return f.w.byteAt(f.curPos() + uint64(offset))
}

// skip advances the consumer position by n without returning matches. The
// pipeline still computed and discards them, since the hash/btree stages
// run unconditionally ahead of the consumer (spec.md §4.4 "the pipeline
// does not distinguish skip from getMatches upstream of the encoder").
func (f *mtMatchFinder) skip(n uint32) {
	for i := uint32(0); i < n; i++ {
		f.getMatches()
	}
}

// Close signals both pipeline goroutines to exit and waits for them
// (spec.md §5 "Cancellation: ... both threads drain and exit without
// producing further output").
func (f *mtMatchFinder) Close() error {
	f.cancel()
	return f.g.Wait()
}
