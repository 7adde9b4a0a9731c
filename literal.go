// SPDX-License-Identifier: GPL-2.0-only
// Source: _examples/other_examples/26e617ec_ulikunitz-xz__lzma-literal_codec.go.go
// (literalCodec.Encode/Decode), adapted to this package's rangeEncoder/
// rangeDecoder and prob types.

package lzma2

// literalCodec implements the bitwise-tree literal coder (spec.md §3
// "Literal[numLiteralContexts][768]"). Contexts 0..0xFF are the plain tree
// (no XOR trick), used after a literal and for the bits that remain once a
// matched literal diverges from the match byte; contexts 0x100..0x2FF encode the
// "matched literal" variant that mixes in the byte at the current rep0
// distance, used whenever state >= 7 (i.e. the previous symbol was a
// match or rep, per isLiteralState).
type literalCodec struct {
	probs []prob
	lc    uint32
	lp    uint32
}

func newLiteralCodec(lc, lp uint32) *literalCodec {
	c := &literalCodec{
		probs: newProbs(0x300 << (lc + lp)),
		lc:    lc,
		lp:    lp,
	}
	return c
}

func (c *literalCodec) reset() { resetProbs(c.probs) }

// encode encodes byte s. state is the encoder's current state (>=7 selects
// the matched-literal path); match is the byte at the current rep0
// distance; litState is the context index computed by litStateOf.
func (c *literalCodec) encode(e *rangeEncoder, s byte, state uint32, match byte, litState uint32) error {
	k := litState * 0x300
	probs := c.probs[k : k+0x300]
	symbol := uint32(1)
	r := uint32(s)
	if !isLiteralState(state) {
		m := uint32(match)
		for {
			matchBit := (m >> 7) & 1
			m <<= 1
			bit := (r >> 7) & 1
			r <<= 1
			i := ((1 + matchBit) << 8) | symbol
			if err := e.encodeBit(&probs[i], bit); err != nil {
				return err
			}
			symbol = (symbol << 1) | bit
			if matchBit != bit {
				break
			}
			if symbol >= 0x100 {
				break
			}
		}
	}
	for symbol < 0x100 {
		bit := (r >> 7) & 1
		r <<= 1
		if err := e.encodeBit(&probs[symbol], bit); err != nil {
			return err
		}
		symbol = (symbol << 1) | bit
	}
	return nil
}

func (c *literalCodec) decode(d *rangeDecoder, state uint32, match byte, litState uint32) (byte, error) {
	k := litState * 0x300
	probs := c.probs[k : k+0x300]
	symbol := uint32(1)
	if !isLiteralState(state) {
		m := uint32(match)
		for {
			matchBit := (m >> 7) & 1
			m <<= 1
			i := ((1 + matchBit) << 8) | symbol
			bit, err := d.decodeBit(&probs[i])
			if err != nil {
				return 0, err
			}
			symbol = (symbol << 1) | bit
			if matchBit != bit {
				break
			}
			if symbol >= 0x100 {
				break
			}
		}
	}
	for symbol < 0x100 {
		bit, err := d.decodeBit(&probs[symbol])
		if err != nil {
			return 0, err
		}
		symbol = (symbol << 1) | bit
	}
	return byte(symbol - 0x100), nil
}
