// SPDX-License-Identifier: MIT

package lzma

import (
	"fmt"
	"io"
)

// Decoder is the LZMA decode engine (C7, spec.md §4.6): the probability
// model, state machine, and sliding window driven by range-coded bits read
// from rc. One Decoder is reused across an LZMA2 stream's chunks (lzma2
// framing resets pieces of it per chunk-header flags); raw LZMA1 streams
// and lzip members each use exactly one for their whole body.
type Decoder struct {
	rc    *rangeDecoder
	win   *windowDecoder
	coder *lzmaCoder
	lits  literalCoder

	litProbs []literalSubCoder
	matchLen lengthCoder
	repLen   lengthCoder
}

// NewDecoder builds a decoder over an already-open window, ready to read
// range-coded bits from rc. Callers own resetting coder/window state
// between LZMA2 chunks via Reset/ResetState.
func NewDecoder(rc *rangeDecoder, win *windowDecoder, props Properties) (*Decoder, error) {
	if err := props.validate(); err != nil {
		return nil, err
	}
	d := &Decoder{
		rc:    rc,
		win:   win,
		coder: newLZMACoder(props.PB),
		lits:  newLiteralCoder(props.LC, props.LP),
	}
	d.litProbs = make([]literalSubCoder, 1<<(props.LC+props.LP))
	d.ResetState()
	return d, nil
}

// SetRangeDecoder swaps in a fresh range coder, used by LZMA2 at each new
// chunk.
func (d *Decoder) SetRangeDecoder(rc *rangeDecoder) { d.rc = rc }

// ResetState reinitialises the probability tables, rep-distance history,
// and coder-state automaton, but leaves the sliding window untouched
// (spec.md §4.6's "state reset" vs "dictionary reset" distinction).
func (d *Decoder) ResetState() {
	d.coder.reset()
	for i := range d.litProbs {
		d.litProbs[i].reset()
	}
	d.matchLen.reset()
	d.repLen.reset()
}

// DecodeChunk decodes symbols until exactly unpackSize bytes have been
// produced into the window, or returns an error if the stream runs out
// first. Used by both raw LZMA1 (one "chunk" the size of the whole
// message) and LZMA2 (one call per framing chunk).
func (d *Decoder) DecodeChunk(unpackSize int64) error {
	target := d.win.total + uint64(unpackSize)
	for d.win.total < target {
		if err := d.decodeSymbol(target - d.win.total); err != nil {
			return err
		}
	}
	d.rc.normalize()
	return nil
}

// decodeSymbol decodes exactly one literal or match/rep event. remaining is
// the number of output bytes still wanted in the current chunk, used only
// to reject a match that would overrun it.
func (d *Decoder) decodeSymbol(remaining uint64) error {
	c := d.coder
	posState := int(uint32(d.win.total) & c.posMask)
	state := int(c.state.s)

	if d.rc.decodeBit(&c.isMatch[state][posState]) == 0 {
		return d.decodeLiteral(posState)
	}

	var length int
	if d.rc.decodeBit(&c.isRep[state]) == 0 {
		c.reps[3], c.reps[2], c.reps[1] = c.reps[2], c.reps[1], c.reps[0]
		length, _ = decodeLength(d.rc, &d.matchLen, posState)
		dslot := d.rc.decodeBitTree(c.distSlots[coderDictSizeIndex(length)][:])
		dist, err := d.decodeDistance(dslot)
		if err != nil {
			return err
		}
		if dist == 0xFFFFFFFF {
			return io.EOF // end-of-stream marker (spec.md §4.6)
		}
		c.reps[0] = int32(dist)
		c.state.updateMatch()
	} else {
		if d.rc.decodeBit(&c.isRep0[state]) == 0 {
			if d.rc.decodeBit(&c.isRep0Long[state][posState]) == 0 {
				c.state.updateShortRep()
				if uint64(1) > remaining {
					return fmt.Errorf("%w: chunk overrun on short rep", ErrInvalidData)
				}
				return d.win.repeat(uint32(c.reps[0]), 1)
			}
		} else {
			var dist int32
			if d.rc.decodeBit(&c.isRep1[state]) == 0 {
				dist = c.reps[1]
			} else if d.rc.decodeBit(&c.isRep2[state]) == 0 {
				dist = c.reps[2]
				c.reps[2] = c.reps[1]
			} else {
				dist = c.reps[3]
				c.reps[3] = c.reps[2]
				c.reps[2] = c.reps[1]
			}
			c.reps[1] = c.reps[0]
			c.reps[0] = dist
		}
		length, _ = decodeLength(d.rc, &d.repLen, posState)
		c.state.updateLongRep()
	}

	if uint64(length) > remaining {
		return fmt.Errorf("%w: match of length %d overruns chunk", ErrInvalidData, length)
	}
	return d.win.repeat(uint32(c.reps[0]), length)
}

func (d *Decoder) decodeLiteral(posState int) error {
	c := d.coder
	var prevByte byte
	if d.win.total > 0 {
		prevByte = d.win.getByte(0)
	}
	idx := d.lits.subCoderIndex(uint32(prevByte), uint32(d.win.total))
	sub := &d.litProbs[idx]

	symbol := uint32(1)
	if c.state.isLiteral() {
		for symbol < 0x100 {
			symbol = (symbol << 1) | uint32(d.rc.decodeBit(&sub.probs[symbol]))
		}
	} else {
		matchByte := uint32(d.win.getByte(uint32(c.reps[0])))
		for symbol < 0x100 {
			matchBit := (matchByte >> 7) & 1
			matchByte <<= 1
			bit := uint32(d.rc.decodeBit(&sub.probs[((1+matchBit)<<8)+symbol]))
			symbol = (symbol << 1) | bit
			if matchBit != bit {
				for symbol < 0x100 {
					symbol = (symbol << 1) | uint32(d.rc.decodeBit(&sub.probs[symbol]))
				}
				break
			}
		}
	}
	c.state.updateLiteral()
	d.win.putByte(byte(symbol))
	return nil
}

func decodeLength(rc *rangeDecoder, lc *lengthCoder, posState int) (int, error) {
	if rc.decodeBit(&lc.choice[0]) == 0 {
		return MatchLenMin + rc.decodeBitTree(lc.low[posState][:]), nil
	}
	if rc.decodeBit(&lc.choice[1]) == 0 {
		return MatchLenMin + lowSymbols + rc.decodeBitTree(lc.mid[posState][:]), nil
	}
	return MatchLenMin + lowSymbols + midSymbols + rc.decodeBitTree(lc.high[:]), nil
}

func (d *Decoder) decodeDistance(distSlot int) (uint32, error) {
	if distSlot < distModelStart {
		return uint32(distSlot), nil
	}
	numDirectBits := uint32(distSlot>>1) - 1
	dist := (2 | uint32(distSlot&1)) << numDirectBits
	if distSlot < distModelEnd {
		dist += uint32(d.rc.decodeReverseBitTree(d.coder.distSpecialSlice(distSlot - distModelStart)))
		return dist, nil
	}
	dist += uint32(d.rc.decodeDirectBits(numDirectBits-alignBits)) << alignBits
	dist += uint32(d.rc.decodeReverseBitTree(d.coder.distAlign[:]))
	return dist, nil
}
