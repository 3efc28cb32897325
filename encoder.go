// SPDX-License-Identifier: MIT

package lzma

import "fmt"

// Encoder is the LZMA encode engine shared by the Fast (C9, greedy) and
// Normal (C10, optimal-parse) modes: the probability model, state machine,
// and match finder driven into a rangeEncoder. Grounded on lzma-rust2's
// LZMAEncoder (encoder/mod.rs) split the same way the reference splits
// fast vs normal, spec.md §4.7/§4.8.
type Encoder struct {
	rc    *rangeEncoder
	win   *windowEncoder
	mf    matchFinder
	coder *lzmaCoder
	lits  literalCoder

	litProbs []literalSubCoder
	matchLen lengthCoder
	repLen   lengthCoder

	matchLenPrices lengthPriceCache
	repLenPrices   lengthPriceCache
	distPrices     distPriceCache
	alignPrices    alignPriceCache

	niceLen int

	// budget bounds how many more input bytes Fast/Normal may consume
	// before returning control to the caller; negative means unbounded.
	// Only EncodeSegment sets it; Finish runs unbounded.
	budget int
}

// EncoderMode selects the Fast greedy parser or the Normal optimal parser
// (spec.md §4.7/§4.8).
type EncoderMode int

const (
	ModeFast EncoderMode = iota
	ModeNormal
)

// EncoderOptions configures a new Encoder. DefaultEncoderOptions follows
// this package's ambient-stack convention of an Options struct with a
// matching constructor (mirrored from the teacher's level-parameter
// tables).
type EncoderOptions struct {
	Props      Properties
	Mode       EncoderMode
	NiceLen    int
	DepthLimit int
	UseBt4     bool

	// PresetDict seeds the window and match finder with data the decoder is
	// assumed to already hold, so encoding can reference it from the very
	// first byte (spec.md §4.5's set_preset_dict). Only its trailing
	// DictSize bytes matter.
	PresetDict []byte
}

func DefaultEncoderOptions(dictSize uint32) EncoderOptions {
	return EncoderOptions{
		Props:   DefaultProperties(dictSize),
		Mode:    ModeNormal,
		NiceLen: 64,
		UseBt4:  true,
	}
}

func NewEncoder(rc *rangeEncoder, opts EncoderOptions) (*Encoder, error) {
	if err := opts.Props.validate(); err != nil {
		return nil, err
	}
	win := newWindowEncoder(opts.Props.DictSize, opts.NiceLen)
	var mf matchFinder
	if opts.UseBt4 {
		mf = newBt4Finder(opts.Props.DictSize, opts.NiceLen, opts.DepthLimit)
	} else {
		mf = newHc4Finder(opts.Props.DictSize, opts.NiceLen, opts.DepthLimit)
	}
	e := &Encoder{
		rc:      rc,
		win:     win,
		mf:      mf,
		coder:   newLZMACoder(opts.Props.PB),
		lits:    newLiteralCoder(opts.Props.LC, opts.Props.LP),
		niceLen: niceLenOrMax(opts.NiceLen),
	}
	e.litProbs = make([]literalSubCoder, 1<<(opts.Props.LC+opts.Props.LP))
	e.budget = -1
	e.ResetState()
	if n := win.loadPresetDict(opts.PresetDict); n > 0 {
		mf.skip(win, n)
	}
	return e, nil
}

func (e *Encoder) ResetState() {
	e.coder.reset()
	for i := range e.litProbs {
		e.litProbs[i].reset()
	}
	e.matchLen.reset()
	e.repLen.reset()
	e.matchLenPrices.invalidate()
	e.repLenPrices.invalidate()
	e.distPrices.invalidate()
	e.alignPrices.invalidate()
}

// Write queues data for compression, compacting the window as needed.
func (e *Encoder) Write(data []byte) (int, error) {
	total := 0
	for len(data) > 0 {
		n := e.win.fillWindow(data)
		if n == 0 {
			return total, fmt.Errorf("%w: encoder window full", ErrOutOfMemory)
		}
		data = data[n:]
		total += n
	}
	return total, nil
}

// Finish marks the remaining buffered input as the end of the stream and
// drives the parser (Fast or Normal, chosen by the caller) until it's
// fully consumed.
func (e *Encoder) Finish(mode EncoderMode) {
	e.win.setFinishing()
	e.budget = -1
	if mode == ModeFast {
		e.encodeFast()
	} else {
		e.encodeNormal()
	}
}

// EncodeSegment drives the parser until exactly n input bytes have been
// consumed (or the window runs dry, e.g. because finishing was set and
// input ran out first). The LZMA2 writers do not call it: they encode each
// chunk with Write followed by Finish.
func (e *Encoder) EncodeSegment(mode EncoderMode, n int) {
	e.budget = n
	if mode == ModeFast {
		e.encodeFast()
	} else {
		e.encodeNormal()
	}
	e.budget = -1
}

func (e *Encoder) posState() int { return int(uint32(e.win.getPos()) & e.coder.posMask) }

// encodeLiteral, encodeMatch, encodeShortRep, and encodeRepMatch emit bits
// and update the probability model/state/reps only — they never move the
// window themselves. Fast/Normal parsers (encoder_fast.go, encoder_normal.go)
// already advance the window and match finder exactly once per input byte
// via their own movePos/skip calls; an encode* call doing it too would
// double-advance past real input without ever coding it.
func (e *Encoder) encodeLiteral(b byte) {
	c := e.coder
	state := int(c.state.s)
	posState := e.posState()
	e.rc.encodeBit(&c.isMatch[state][posState], 0)

	var prevByte byte
	if e.win.isStarted() {
		prevByte = e.win.getByte(0)
	}
	idx := e.lits.subCoderIndex(uint32(prevByte), uint32(e.win.getPos()))
	sub := &e.litProbs[idx]

	if c.state.isLiteral() {
		symbol := uint32(1)
		for i := 7; i >= 0; i-- {
			bit := int((uint32(b) >> uint(i)) & 1)
			e.rc.encodeBit(&sub.probs[symbol], bit)
			symbol = (symbol << 1) | uint32(bit)
		}
	} else {
		matchByte := uint32(e.win.getByte(uint32(c.reps[0])))
		symbol := uint32(1)
		for i := 7; i >= 0; i-- {
			matchBit := (matchByte >> uint(i)) & 1
			bit := (uint32(b) >> uint(i)) & 1
			probIdx := ((1 + matchBit) << 8) + symbol
			e.rc.encodeBit(&sub.probs[probIdx], int(bit))
			symbol = (symbol << 1) | bit
			if matchBit != bit {
				for i--; i >= 0; i-- {
					bit = (uint32(b) >> uint(i)) & 1
					e.rc.encodeBit(&sub.probs[symbol], int(bit))
					symbol = (symbol << 1) | bit
				}
				break
			}
		}
	}
	c.state.updateLiteral()
}

func (e *Encoder) encodeMatch(dist uint32, length int) {
	c := e.coder
	state := int(c.state.s)
	posState := e.posState()
	e.rc.encodeBit(&c.isMatch[state][posState], 1)
	e.rc.encodeBit(&c.isRep[state], 0)

	c.reps[3], c.reps[2], c.reps[1], c.reps[0] = c.reps[2], c.reps[1], c.reps[0], int32(dist)
	c.state.updateMatch()

	encodeLength(e.rc, &e.matchLen, posState, length)
	distSlot := getDistSlot(dist)
	e.rc.encodeBitTree(c.distSlots[coderDictSizeIndex(length)][:], distSlot)
	if distSlot >= distModelStart {
		numDirectBits := uint32(distSlot>>1) - 1
		base := (2 | uint32(distSlot&1)) << numDirectBits
		footer := dist - base
		if distSlot < distModelEnd {
			e.rc.encodeReverseBitTree(c.distSpecialSlice(distSlot-distModelStart), int(footer))
		} else {
			e.rc.encodeDirectBits(int32(footer>>alignBits), numDirectBits-alignBits)
			e.rc.encodeReverseBitTree(c.distAlign[:], int(footer&alignMask))
		}
	}

	e.matchLenPrices.decrement(posState)
	e.distPrices.count--
	if dist >= fullDistances {
		e.alignPrices.count--
	}
}

func (e *Encoder) encodeShortRep() {
	c := e.coder
	state := int(c.state.s)
	posState := e.posState()
	e.rc.encodeBit(&c.isMatch[state][posState], 1)
	e.rc.encodeBit(&c.isRep[state], 1)
	e.rc.encodeBit(&c.isRep0[state], 0)
	e.rc.encodeBit(&c.isRep0Long[state][posState], 0)
	c.state.updateShortRep()
}

func (e *Encoder) encodeRepMatch(repIndex int, length int) {
	c := e.coder
	state := int(c.state.s)
	posState := e.posState()
	e.rc.encodeBit(&c.isMatch[state][posState], 1)
	e.rc.encodeBit(&c.isRep[state], 1)

	switch repIndex {
	case 0:
		e.rc.encodeBit(&c.isRep0[state], 0)
		e.rc.encodeBit(&c.isRep0Long[state][posState], 1)
	case 1:
		e.rc.encodeBit(&c.isRep0[state], 1)
		e.rc.encodeBit(&c.isRep1[state], 0)
		c.reps[1], c.reps[0] = c.reps[0], c.reps[1]
	case 2:
		e.rc.encodeBit(&c.isRep0[state], 1)
		e.rc.encodeBit(&c.isRep1[state], 1)
		e.rc.encodeBit(&c.isRep2[state], 0)
		c.reps[2], c.reps[1], c.reps[0] = c.reps[1], c.reps[0], c.reps[2]
	default:
		e.rc.encodeBit(&c.isRep0[state], 1)
		e.rc.encodeBit(&c.isRep1[state], 1)
		e.rc.encodeBit(&c.isRep2[state], 1)
		c.reps[3], c.reps[2], c.reps[1], c.reps[0] = c.reps[2], c.reps[1], c.reps[0], c.reps[3]
	}
	c.state.updateLongRep()
	encodeLength(e.rc, &e.repLen, posState, length)
	e.repLenPrices.decrement(posState)
}

func encodeLength(rc *rangeEncoder, lc *lengthCoder, posState, length int) {
	length -= MatchLenMin
	if length < lowSymbols {
		rc.encodeBit(&lc.choice[0], 0)
		rc.encodeBitTree(lc.low[posState][:], length)
		return
	}
	rc.encodeBit(&lc.choice[0], 1)
	length -= lowSymbols
	if length < midSymbols {
		rc.encodeBit(&lc.choice[1], 0)
		rc.encodeBitTree(lc.mid[posState][:], length)
		return
	}
	rc.encodeBit(&lc.choice[1], 1)
	rc.encodeBitTree(lc.high[:], length-midSymbols)
}

// getDistSlot maps a 0-based match distance to its 6-bit slot, the inverse
// of the decoder's decodeDistance.
func getDistSlot(dist uint32) int {
	if dist < 4 {
		return int(dist)
	}
	n := 31 - leadingZeros32(dist)
	return (n << 1) | int((dist>>(uint(n)-1))&1)
}

func leadingZeros32(v uint32) int {
	n := 0
	for v&0x80000000 == 0 {
		v <<= 1
		n++
	}
	return n
}
