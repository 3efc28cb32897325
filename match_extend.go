// SPDX-License-Identifier: MIT

package lzma

import (
	"encoding/binary"
	"math/bits"
)

// extendMatchLen grows a candidate match from an already-confirmed prefix
// length, comparing 8 bytes at a time via math/bits.TrailingZeros64 instead
// of a byte loop. Grounded on the word-at-a-time extension technique used
// throughout the lz crate family (lz/mod.rs "extend_match"); cur and cand
// are absolute offsets into the same backing buffer, limit is the last
// index (exclusive) either side may read.
func extendMatchLen(buf []byte, cur, cand, limit int) int {
	n := 0
	for cur+n+8 <= limit && cand+n+8 <= limit {
		a := binary.LittleEndian.Uint64(buf[cur+n:])
		b := binary.LittleEndian.Uint64(buf[cand+n:])
		if x := a ^ b; x != 0 {
			return n + bits.TrailingZeros64(x)/8
		}
		n += 8
	}
	for cur+n < limit && cand+n < limit && buf[cur+n] == buf[cand+n] {
		n++
	}
	return n
}
