// SPDX-License-Identifier: MIT

package lzma

// hc4Finder is the hash-chain match finder (Hc4, spec.md §4.5): one-slot
// hash tables for 2- and 3-byte prefixes plus a hash-chained table for
// 4-byte prefixes, walked up to depthLimit candidates per position. Faster
// and lower-ratio than Bt4; grounded on the classic LZMA SDK hash-chain
// design (the bundled lzma-rust2 crate's own hc4.rs was not part of the
// retrieved sources, so this follows the well-documented public algorithm
// rather than any proprietary source, same as the BCJ x86 filter).
type hc4Finder struct {
	hash2 []int32
	hash3 []int32
	hash4 []int32
	chain []int32

	dictSize   uint32
	depthLimit int
	niceLen    int
	pos        int64
}

func newHc4Finder(dictSize uint32, niceLen, depthLimit int) *hc4Finder {
	if depthLimit <= 0 {
		depthLimit = 4 + niceLen/4
	}
	return &hc4Finder{
		hash2:      newFilledInt32(hash2Size, -1),
		hash3:      newFilledInt32(hash3Size, -1),
		hash4:      newFilledInt32(hash4Size, -1),
		chain:      newFilledInt32(int(dictSize), -1),
		dictSize:   dictSize,
		niceLen:    niceLenOrMax(niceLen),
		depthLimit: depthLimit,
	}
}

func newFilledInt32(n int, v int32) []int32 {
	s := make([]int32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func (f *hc4Finder) byteAt(w *windowEncoder, back int) byte {
	return w.buf[w.readPos+back]
}

func (f *hc4Finder) insert(w *windowEncoder) {
	if !w.hasEnoughData(4) {
		if w.avail() < 1 {
			return
		}
	}
	avail := w.avail()
	if avail < 2 {
		f.pos++
		return
	}
	b0, b1 := f.byteAt(w, 0), f.byteAt(w, 1)
	h2 := hashValue2(b0, b1) & (hash2Size - 1)
	f.hash2[h2] = int32(f.pos)

	if avail >= 3 {
		h3 := hashValue3(b0, b1, f.byteAt(w, 2))
		f.hash3[h3] = int32(f.pos)
	}

	slot := uint32(f.pos) % f.dictSize
	if avail >= 4 {
		h4 := hashValue4(b0, b1, f.byteAt(w, 2), f.byteAt(w, 3))
		f.chain[slot] = f.hash4[h4]
		f.hash4[h4] = int32(f.pos)
	} else {
		f.chain[slot] = -1
	}
	f.pos++
}

func (f *hc4Finder) findMatches(w *windowEncoder, matches []matchPair) []matchPair {
	avail := w.avail()
	if avail < 2 {
		f.insert(w)
		return matches
	}

	bestLen := 1
	b0, b1 := f.byteAt(w, 0), f.byteAt(w, 1)

	if avail >= 3 {
		if cand := f.hash3[hashValue3(b0, b1, f.byteAt(w, 2))]; cand >= 0 {
			dist := int64(f.pos) - int64(cand) - 1
			if dist >= 0 && uint32(dist) < f.dictSize {
				l := f.matchLenAt(w, int(dist), avail)
				if l >= 3 && l > bestLen {
					bestLen = l
					matches = append(matches, matchPair{dist: uint32(dist), len: l})
				}
			}
		}
	} else if cand := f.hash2[hashValue2(b0, b1)&(hash2Size-1)]; cand >= 0 {
		dist := int64(f.pos) - int64(cand) - 1
		if dist >= 0 && uint32(dist) < f.dictSize {
			if l := f.matchLenAt(w, int(dist), avail); l >= 2 {
				matches = append(matches, matchPair{dist: uint32(dist), len: l})
			}
		}
	}

	if avail >= 4 {
		h4 := hashValue4(b0, b1, f.byteAt(w, 2), f.byteAt(w, 3))
		cand := f.hash4[h4]
		tries := f.depthLimit
		for cand >= 0 && tries > 0 {
			dist := int64(f.pos) - int64(cand) - 1
			if dist < 0 || uint32(dist) >= f.dictSize {
				break
			}
			l := f.matchLenAt(w, int(dist), avail)
			if l > bestLen {
				bestLen = l
				matches = append(matches, matchPair{dist: uint32(dist), len: l})
				if l >= f.niceLen {
					break
				}
			}
			cand = f.chain[uint32(cand)%f.dictSize]
			tries--
		}
	}

	f.insert(w)
	return matches
}

func (f *hc4Finder) matchLenAt(w *windowEncoder, dist, avail int) int {
	limit := avail
	if limit > MatchLenMax {
		limit = MatchLenMax
	}
	candStart := w.readPos - dist - 1
	if candStart < 0 {
		return 0
	}
	n := 0
	for n < limit && w.buf[w.readPos+n] == w.buf[candStart+n] {
		n++
	}
	return n
}

func (f *hc4Finder) skip(w *windowEncoder, n int) {
	for i := 0; i < n; i++ {
		f.insert(w)
		w.movePos()
	}
}
