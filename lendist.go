// SPDX-License-Identifier: GPL-2.0-only
// Source: spec.md §4.2 "Length encoding" / "Distance encoding"; tree-walk
// shape grounded in _examples/other_examples/26e617ec_ulikunitz-xz__lzma-literal_codec.go.go
// (encodeBitTree-style loops) generalized to the three-tier length coder and
// six-bit position-slot coder.

package lzma2

import "math/bits"

const (
	lenLowBits  = 3
	lenMidBits  = 3
	lenHighBits = 8
	lenLowSymbols  = 1 << lenLowBits
	lenMidSymbols  = 1 << lenMidBits
	lenHighSymbols = 1 << lenHighBits
)

// lengthCodec implements the two-choice-bit, three-tier length tree shared
// by match lengths and rep lengths (spec.md §4.2).
type lengthCodec struct {
	choice  prob
	choice2 prob
	low     [1 << maxPosStateBits][]prob // indexed by posState, 8 leaves each
	mid     [1 << maxPosStateBits][]prob
	high    []prob
}

const maxPosStateBits = 4 // pb in [0,4]

func newLengthCodec() *lengthCodec {
	c := &lengthCodec{high: newProbs(lenHighSymbols)}
	for i := range c.low {
		c.low[i] = newProbs(lenLowSymbols)
		c.mid[i] = newProbs(lenMidSymbols)
	}
	c.choice = probInit
	c.choice2 = probInit
	return c
}

func (c *lengthCodec) reset() {
	c.choice = probInit
	c.choice2 = probInit
	for i := range c.low {
		resetProbs(c.low[i])
		resetProbs(c.mid[i])
	}
	resetProbs(c.high)
}

// encode encodes len = actualLen - minMatchLen (0-based length offset).
func (c *lengthCodec) encode(e *rangeEncoder, length uint32, posState uint32) error {
	if length < lenLowSymbols {
		if err := e.encodeBit(&c.choice, 0); err != nil {
			return err
		}
		return e.encodeBitTree(c.low[posState], lenLowBits, length)
	}
	if err := e.encodeBit(&c.choice, 1); err != nil {
		return err
	}
	length -= lenLowSymbols
	if length < lenMidSymbols {
		if err := e.encodeBit(&c.choice2, 0); err != nil {
			return err
		}
		return e.encodeBitTree(c.mid[posState], lenMidBits, length)
	}
	if err := e.encodeBit(&c.choice2, 1); err != nil {
		return err
	}
	length -= lenMidSymbols
	return e.encodeBitTree(c.high, lenHighBits, length)
}

func (c *lengthCodec) decode(d *rangeDecoder, posState uint32) (uint32, error) {
	bit, err := d.decodeBit(&c.choice)
	if err != nil {
		return 0, err
	}
	if bit == 0 {
		return d.decodeBitTree(c.low[posState], lenLowBits)
	}
	bit2, err := d.decodeBit(&c.choice2)
	if err != nil {
		return 0, err
	}
	if bit2 == 0 {
		v, err := d.decodeBitTree(c.mid[posState], lenMidBits)
		if err != nil {
			return 0, err
		}
		return lenLowSymbols + v, nil
	}
	v, err := d.decodeBitTree(c.high, lenHighBits)
	if err != nil {
		return 0, err
	}
	return lenLowSymbols + lenMidSymbols + v, nil
}

// price returns the cost in 1/16-bit units of encoding length with this
// codec's current probabilities (used by the optimal parser, spec.md §4.5).
func (c *lengthCodec) price(length uint32, posState uint32) uint32 {
	if length < lenLowSymbols {
		return probPrice(c.choice, 0) + treePrice(c.low[posState], lenLowBits, length)
	}
	length -= lenLowSymbols
	cost := probPrice(c.choice, 1)
	if length < lenMidSymbols {
		return cost + probPrice(c.choice2, 0) + treePrice(c.mid[posState], lenMidBits, length)
	}
	length -= lenMidSymbols
	return cost + probPrice(c.choice2, 1) + treePrice(c.high, lenHighBits, length)
}

// distCodec implements the 6-bit position-slot tree plus the
// direct/aligned tail bits described in spec.md §4.2 "Distance encoding".
type distCodec struct {
	posSlot  [numLenToPosStates][]prob // 64 leaves each
	specPos  []prob                    // numFullDistances - endPosModelIndex
	align    []prob                    // 16 leaves
}

func newDistCodec() *distCodec {
	c := &distCodec{
		specPos: newProbs(numFullDistances - endPosModelIndex),
		align:   newProbs(alignTableSize),
	}
	for i := range c.posSlot {
		c.posSlot[i] = newProbs(numPosSlots)
	}
	return c
}

func (c *distCodec) reset() {
	for i := range c.posSlot {
		resetProbs(c.posSlot[i])
	}
	resetProbs(c.specPos)
	resetProbs(c.align)
}

// getPosSlot returns the 6-bit slot for a given 0-based distance.
func getPosSlot(dist uint32) uint32 {
	if dist < 4 {
		return dist
	}
	n := uint32(31 - bits.LeadingZeros32(dist))
	return (n << 1) | ((dist >> (n - 1)) & 1)
}

// encode encodes dist (0-based distance) using lenState (clamped length
// context from lenToPosState).
func (c *distCodec) encode(e *rangeEncoder, dist uint32, lenState uint32) error {
	slot := getPosSlot(dist)
	if err := e.encodeBitTree(c.posSlot[lenState], numPosSlotBits, slot); err != nil {
		return err
	}
	if slot < 4 {
		return nil
	}
	footerBits := int(slot>>1) - 1
	base := (2 | (slot & 1)) << uint(footerBits)
	reduced := dist - base
	if slot < endPosModelIndex {
		return e.encodeBitTreeReverse(c.specPos[base-slot-1:], footerBits, reduced)
	}
	if err := e.encodeDirectBits(reduced>>numAlignBits, footerBits-numAlignBits); err != nil {
		return err
	}
	return e.encodeBitTreeReverse(c.align, numAlignBits, reduced&(alignTableSize-1))
}

func (c *distCodec) decode(d *rangeDecoder, lenState uint32) (uint32, error) {
	slot, err := d.decodeBitTree(c.posSlot[lenState], numPosSlotBits)
	if err != nil {
		return 0, err
	}
	if slot < 4 {
		return slot, nil
	}
	footerBits := int(slot>>1) - 1
	base := (2 | (slot & 1)) << uint(footerBits)
	if slot < endPosModelIndex {
		reduced, err := d.decodeBitTreeReverse(c.specPos[base-slot-1:], footerBits)
		if err != nil {
			return 0, err
		}
		return base + reduced, nil
	}
	hi, err := d.decodeDirectBits(footerBits - numAlignBits)
	if err != nil {
		return 0, err
	}
	lo, err := d.decodeBitTreeReverse(c.align, numAlignBits)
	if err != nil {
		return 0, err
	}
	return base + (hi << numAlignBits) + lo, nil
}
