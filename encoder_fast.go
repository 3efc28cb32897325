// SPDX-License-Identifier: MIT

package lzma

// encodeFast is the greedy parser (C9, spec.md §4.7): at each position it
// takes the match finder's single longest match if it clears a minimum
// usefulness bar, otherwise a rep match, otherwise a literal. No lookahead
// beyond the match finder's own. Grounded on lzma-rust2's FastEncoder
// (encoder/fast.rs).
func (e *Encoder) encodeFast() {
	var matches []matchPair
	for e.win.hasEnoughData(1) && e.budget != 0 {
		matches = matches[:0]
		matches = e.mf.findMatches(e.win, matches)

		repLen, repIndex := e.bestRepMatch()
		consumed := 1

		// Each branch encodes before moving the window: posState is read
		// from the window's current (not-yet-advanced) position, which must
		// match decodeSymbol's posState - computed from d.win.total before
		// that symbol's bytes are produced (decoder.go).
		switch {
		case len(matches) > 0 && best(matches).len >= e.niceLen:
			m := best(matches)
			e.encodeMatch(m.dist, m.len)
			e.win.movePos()
			e.mf.skip(e.win, m.len-1)
			consumed = m.len

		case repLen >= 2 && (repLen+1 >= best(matches).len || len(matches) == 0):
			e.encodeRepMatch(repIndex, repLen)
			e.win.movePos()
			e.mf.skip(e.win, repLen-1)
			consumed = repLen

		case len(matches) > 0 && best(matches).len >= MatchLenMin+1:
			m := best(matches)
			e.encodeMatch(m.dist, m.len)
			e.win.movePos()
			e.mf.skip(e.win, m.len-1)
			consumed = m.len

		default:
			lit := e.win.buf[e.win.readPos]
			e.encodeLiteral(lit)
			e.win.movePos()
		}

		if e.budget > 0 {
			e.budget -= consumed
		}
	}
}

func best(matches []matchPair) matchPair {
	if len(matches) == 0 {
		return matchPair{}
	}
	return matches[len(matches)-1]
}

// bestRepMatch reports the longest match achievable against one of the four
// most-recent distances, and which of them.
func (e *Encoder) bestRepMatch() (length, index int) {
	avail := e.win.avail()
	if avail < 2 {
		return 0, 0
	}
	limit := avail
	if limit > MatchLenMax {
		limit = MatchLenMax
	}
	for i, dist := range e.coder.reps {
		candStart := e.win.readPos - int(dist) - 1
		if candStart < 0 {
			continue
		}
		n := 0
		for n < limit && e.win.buf[candStart+n] == e.win.buf[e.win.readPos+n] {
			n++
		}
		if n > length {
			length = n
			index = i
		}
	}
	return length, index
}
