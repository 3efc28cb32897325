// SPDX-License-Identifier: MIT

package lzma

// bt4Finder is the binary-tree match finder (Bt4, spec.md §4.5): every
// distinct 4-byte prefix roots a binary search tree of all earlier
// positions sharing that prefix, ordered by how far their suffixes diverge
// from the current one. Slower to insert than Hc4 but finds the true
// longest match at each position, which the Normal/optimal encoder (C10)
// needs to price alternatives accurately. Grounded on the classic LZMA SDK
// BT4 "tree cut" algorithm (the bundled lzma-rust2 crate's bt4.rs was
// filtered out of the retrieved sources, so — as with Hc4 and the BCJ x86
// filter — this follows the long-public reference algorithm).
type bt4Finder struct {
	hash2 []int32
	hash3 []int32
	hash4 []int32
	son   []int32 // son[2*slot], son[2*slot+1]: left/right child of the tree node at logical position (slot's owner)

	dictSize   uint32
	niceLen    int
	depthLimit int
	pos        int64
}

func newBt4Finder(dictSize uint32, niceLen, depthLimit int) *bt4Finder {
	if depthLimit <= 0 {
		depthLimit = 16 + niceLen/2
	}
	return &bt4Finder{
		hash2:      newFilledInt32(hash2Size, -1),
		hash3:      newFilledInt32(hash3Size, -1),
		hash4:      newFilledInt32(hash4Size, -1),
		son:        newFilledInt32(int(dictSize)*2, -1),
		dictSize:   dictSize,
		niceLen:    niceLenOrMax(niceLen),
		depthLimit: depthLimit,
	}
}

func (f *bt4Finder) byteAt(w *windowEncoder, back int) byte { return w.buf[w.readPos+back] }

func (f *bt4Finder) matchLen(w *windowEncoder, candIdx, start, limit int) int {
	n := start
	for n < limit && w.buf[w.readPos+n] == w.buf[candIdx+n] {
		n++
	}
	return n
}

func (f *bt4Finder) findMatches(w *windowEncoder, matches []matchPair) []matchPair {
	avail := w.avail()
	if avail < 4 {
		f.skipOne(w)
		return matches
	}

	b0, b1, b2, b3 := f.byteAt(w, 0), f.byteAt(w, 1), f.byteAt(w, 2), f.byteAt(w, 3)
	bestLen := 0
	if cand := f.hash3[hashValue3(b0, b1, b2)]; cand >= 0 {
		dist := f.pos - int64(cand) - 1
		if dist >= 0 && uint32(dist) < f.dictSize {
			if l := f.matchLen(w, w.readPos-int(dist)-1, 0, limitFor(avail)); l >= 3 {
				bestLen = l
				matches = append(matches, matchPair{dist: uint32(dist), len: l})
			}
		}
	}
	f.hash3[hashValue3(b0, b1, b2)] = int32(f.pos)
	f.hash2[hashValue2(b0, b1)&(hash2Size-1)] = int32(f.pos)

	h4 := hashValue4(b0, b1, b2, b3)
	root := f.hash4[h4]
	f.hash4[h4] = int32(f.pos)

	slot := uint32(f.pos) % f.dictSize
	leftPtr := slot*2 + 1
	rightPtr := slot * 2

	limit := limitFor(avail)
	len0, len1 := 0, 0
	cand := root
	depth := f.depthLimit

	for depth > 0 {
		depth--
		if cand < 0 {
			break
		}
		dist := f.pos - int64(cand) - 1
		if dist < 0 || uint32(dist) >= f.dictSize {
			break
		}
		candIdx := w.readPos - int(dist) - 1
		minLen := len0
		if len1 < minLen {
			minLen = len1
		}
		l := f.matchLen(w, candIdx, minLen, limit)

		if l > bestLen {
			bestLen = l
			matches = append(matches, matchPair{dist: uint32(dist), len: l})
			if l >= f.niceLen || l >= limit {
				f.son[rightPtr] = f.son[uint32(cand)%f.dictSize*2]
				f.son[leftPtr] = f.son[uint32(cand)%f.dictSize*2+1]
				f.son[slot*2] = root
				f.son[slot*2+1] = -1
				goto inserted
			}
		}

		if l < limit && w.buf[candIdx+l] < w.buf[w.readPos+l] {
			f.son[rightPtr] = cand
			rightPtr = uint32(cand)%f.dictSize*2 + 1
			cand = f.son[rightPtr]
			len1 = l
		} else {
			f.son[leftPtr] = cand
			leftPtr = uint32(cand) % f.dictSize * 2
			cand = f.son[leftPtr]
			len0 = l
		}
	}
	f.son[leftPtr] = -1
	f.son[rightPtr] = -1

inserted:
	f.pos++
	return matches
}

func limitFor(avail int) int {
	if avail > MatchLenMax {
		return MatchLenMax
	}
	return avail
}

func (f *bt4Finder) skipOne(w *windowEncoder) {
	avail := w.avail()
	if avail >= 4 {
		b0, b1, b2, b3 := f.byteAt(w, 0), f.byteAt(w, 1), f.byteAt(w, 2), f.byteAt(w, 3)
		f.hash2[hashValue2(b0, b1)&(hash2Size-1)] = int32(f.pos)
		f.hash3[hashValue3(b0, b1, b2)] = int32(f.pos)
		h4 := hashValue4(b0, b1, b2, b3)
		root := f.hash4[h4]
		f.hash4[h4] = int32(f.pos)
		slot := uint32(f.pos) % f.dictSize
		f.son[slot*2] = root
		f.son[slot*2+1] = -1
	}
	f.pos++
}

func (f *bt4Finder) skip(w *windowEncoder, n int) {
	for i := 0; i < n; i++ {
		f.skipOne(w)
		w.movePos()
	}
}
