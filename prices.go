// SPDX-License-Identifier: MIT

package lzma

// Price table for the Normal-mode optimal parser (C10, spec.md §4.3): an
// approximation of -log2(p) in the range coder's own fixed-point units,
// precomputed once per process (global state is otherwise avoided, spec.md
// §9, but this table is an immutable constant derived purely from the
// format's fixed probability width — not mutable codec state).
const (
	moveReducingBits = 4
	priceShiftBits   = 4
	priceTableSize   = bitModelTotal >> moveReducingBits
)

var priceTable [priceTableSize]int32

func init() {
	const cyclesBits = priceShiftBits
	for i := prob(1 << (moveReducingBits - 1)); i < bitModelTotal; i += 1 << moveReducingBits {
		w := uint32(i)
		bitCount := uint32(0)
		for j := 0; j < cyclesBits; j++ {
			w = w * w
			bitCount <<= 1
			for w >= 1<<16 {
				w >>= 1
				bitCount++
			}
		}
		priceTable[i>>moveReducingBits] = int32((bitModelTotalBits<<cyclesBits)-15) - int32(bitCount)
	}
}

func priceIndex(v uint32) uint32 { return v >> moveReducingBits }

// Price-update cadence (spec.md §4.3): the Normal-mode optimal parser queries
// dist/align/length prices many times per encoded symbol while pricing DAG
// edges, so recomputing them from live probabilities on every query (as a
// single price lookup would) is wasted work once the underlying probs have
// barely moved. Instead each price table is cached and only rebuilt once its
// counter drops to zero, grounded on lzma-rust2's `enc/encoder.rs`
// (`DIST_PRICE_UPDATE_INTERVAL`, `ALIGN_PRICE_UPDATE_INTERVAL`,
// `PRICE_UPDATE_INTERVAL`) — counters are decremented once per real match/
// rep-match the encoder commits to, not per speculative price query, exactly
// as `enc/encoder.rs` ties them to `LZMAEncoder::update_*_prices`.
const (
	distPriceUpdateInterval  = fullDistances
	alignPriceUpdateInterval = alignSize
	lengthPriceUpdateInterval = 32
)

// lengthPriceCache holds the match/rep-length price table for one of the two
// length coders (matchLen, repLen), one row per posState.
type lengthPriceCache struct {
	prices   [posStatesMax][MatchLenMax - MatchLenMin + 1]int32
	counters [posStatesMax]int32
}

func (lp *lengthPriceCache) invalidate() {
	for i := range lp.counters {
		lp.counters[i] = 0
	}
}

func (lp *lengthPriceCache) price(lc *lengthCoder, posState, length int) int32 {
	if lp.counters[posState] <= 0 {
		lp.update(lc, posState)
	}
	return lp.prices[posState][length-MatchLenMin]
}

func (lp *lengthPriceCache) update(lc *lengthCoder, posState int) {
	for l := MatchLenMin; l <= MatchLenMax; l++ {
		lp.prices[posState][l-MatchLenMin] = lengthPrice(lc, posState, l)
	}
	lp.counters[posState] = lengthPriceUpdateInterval
}

func (lp *lengthPriceCache) decrement(posState int) {
	lp.counters[posState]--
}

// distPriceCache caches the distance-slot price and, for the fullDistances
// (128) nearest distances, the whole slot+footer price in one lookup — the
// same split lzma-rust2's `update_dist_prices` makes, since the reverse bit
// tree for slots beyond fullDistances would need one entry per representable
// distance (billions) rather than per slot.
type distPriceCache struct {
	slotPrices [distStates][distSlots]int32
	fullPrices [distStates][fullDistances]int32
	count      int32
}

func (dp *distPriceCache) invalidate() { dp.count = 0 }

func (dp *distPriceCache) update(c *lzmaCoder) {
	for ds := 0; ds < distStates; ds++ {
		for slot := 0; slot < distSlots; slot++ {
			dp.slotPrices[ds][slot] = getBitTreePrice(c.distSlots[ds][:], slot)
		}
		for dist := uint32(0); dist < fullDistances; dist++ {
			slot := getDistSlot(dist)
			price := dp.slotPrices[ds][slot]
			if slot >= distModelStart && slot < distModelEnd {
				numDirectBits := uint32(slot>>1) - 1
				base := (2 | uint32(slot&1)) << numDirectBits
				price += getReverseBitTreePrice(c.distSpecialSlice(slot-distModelStart), int(dist-base))
			}
			dp.fullPrices[ds][dist] = price
		}
	}
	dp.count = distPriceUpdateInterval
}

// alignPriceCache caches the 4-bit distance-alignment reverse-bit-tree price,
// the same table for every distance state.
type alignPriceCache struct {
	prices [alignSize]int32
	count  int32
}

func (ap *alignPriceCache) invalidate() { ap.count = 0 }

func (ap *alignPriceCache) update(c *lzmaCoder) {
	for i := 0; i < alignSize; i++ {
		ap.prices[i] = getReverseBitTreePrice(c.distAlign[:], i)
	}
	ap.count = alignPriceUpdateInterval
}

// getBitTreePrice sums the per-bit cost of encoding symbol through an
// MSB-first bit tree of len(probs) probabilities.
func getBitTreePrice(probs []prob, symbol int) int32 {
	var price int32
	n := len(probs)
	m := 1
	for bit := bitLength(n) - 1; bit >= 0; bit-- {
		b := (symbol >> uint(bit)) & 1
		price += getBitPrice(probs[m], b)
		m = (m << 1) | b
	}
	return price
}

// getReverseBitTreePrice is the LSB-first counterpart used for distance
// footer bits.
func getReverseBitTreePrice(probs []prob, symbol int) int32 {
	var price int32
	m := 1
	s := symbol
	n := len(probs)
	for m < n {
		b := s & 1
		s >>= 1
		price += getBitPrice(probs[m], b)
		m = (m << 1) | b
	}
	return price
}

// directBitsPrice is the fixed cost of count unbiased direct bits.
func directBitsPrice(count uint32) int32 {
	return int32(count) << priceShiftBits
}
