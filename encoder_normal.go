// SPDX-License-Identifier: MIT

package lzma

// encodeNormal is the Normal-mode optimal parser (C10, spec.md §4.3.2): a
// forward dynamic program over the positions spanned by the longest
// candidate found at the current position (bounded by niceLen/MatchLenMax),
// pricing every literal/rep/match edge between those positions against the
// current probability model, then tracing back from the cheapest endpoint to
// pick the actual symbol sequence. Grounded on the classic LZMA SDK/xz-java
// optimal-parse shape (`encoder_normal.rs` itself was filtered out of the
// retrieval pack — only the shared `enc/encoder.rs` infrastructure survived
// — so the DAG/backtrace algorithm follows the long-public reference design
// rather than a ported file; see DESIGN.md).
func (e *Encoder) encodeNormal() {
	for e.win.hasEnoughData(1) && e.budget != 0 {
		e.optimalParse()
	}
}

// edgeKind is how a DAG node was reached from its predecessor.
type edgeKind uint8

const (
	edgeLiteral edgeKind = iota
	edgeShortRep
	edgeRep
	edgeMatch
)

// optNode is one position in the forward DAG: the cheapest known price to
// reach it, the edge that achieved that price, and the state/reps that edge
// leaves behind (needed to price edges leaving this node, since literal and
// rep pricing both depend on state/reps).
type optNode struct {
	reached  bool
	price    int32
	posPrev  int
	kind     edgeKind
	dist     uint32
	repIndex int
	state    coderState
	reps     [reps]int32
}

// matchLenAt reports how many bytes starting at the absolute window buffer
// index at match the bytes dist+1 positions before it, up to limit. Unlike
// bestRepMatch (encoder_fast.go), this takes an explicit dist and buffer
// index rather than reading e.coder.reps/e.win.readPos, so it can measure a
// hypothetical rep distance at a position other than the window's current
// read cursor - exactly what pricing DAG edges at positions ahead of the
// committed cursor needs.
func (e *Encoder) matchLenAt(at, dist, limit int) int {
	buf := e.win.buf
	candStart := at - dist - 1
	if candStart < 0 {
		return 0
	}
	n := 0
	for n < limit && at+n < len(buf) && buf[candStart+n] == buf[at+n] {
		n++
	}
	return n
}

func reposAfterMatch(r [reps]int32, dist uint32) [reps]int32 {
	return [reps]int32{int32(dist), r[0], r[1], r[2]}
}

func reposAfterRep(r [reps]int32, idx int) [reps]int32 {
	switch idx {
	case 0:
		return r
	case 1:
		return [reps]int32{r[1], r[0], r[2], r[3]}
	case 2:
		return [reps]int32{r[2], r[0], r[1], r[3]}
	default:
		return [reps]int32{r[3], r[0], r[1], r[2]}
	}
}

// stateAfter applies the state transition an edge of kind would cause,
// mirroring encodeLiteral/encodeMatch/encodeShortRep/encodeRepMatch's own
// c.state.update* calls without touching the encoder's real state.
func stateAfter(kind edgeKind, s coderState) coderState {
	switch kind {
	case edgeLiteral:
		s.updateLiteral()
	case edgeShortRep:
		s.updateShortRep()
	case edgeRep:
		s.updateLongRep()
	case edgeMatch:
		s.updateMatch()
	}
	return s
}

// optimalParse prices and encodes one DAG batch: the positions from the
// window's current read cursor up to the longest candidate found there
// (clamped to niceLen/budget/available data).
func (e *Encoder) optimalParse() {
	base := e.win.readPos
	basePos := e.win.getPos()
	startState := e.coder.state
	startReps := e.coder.reps

	matches0 := e.mf.findMatches(e.win, nil)
	mainLen0 := 0
	if len(matches0) > 0 {
		mainLen0 = best(matches0).len
	}

	limit0 := e.win.avail()
	if limit0 > MatchLenMax {
		limit0 = MatchLenMax
	}
	if e.budget > 0 && e.budget < limit0 {
		limit0 = e.budget
	}

	repLen0 := 0
	for _, d := range startReps {
		if l := e.matchLenAt(base, int(d), limit0); l > repLen0 {
			repLen0 = l
		}
	}

	// Nothing worth pricing: a lone literal is the only option.
	if mainLen0 < MatchLenMin && repLen0 < 2 {
		lit := e.win.buf[base]
		e.encodeLiteral(lit)
		e.win.movePos()
		if e.budget > 0 {
			e.budget--
		}
		return
	}

	// A match at least niceLen long is as good as the parser will find
	// looking further ahead; take it immediately rather than pricing a
	// whole DAG batch around it.
	if mainLen0 >= e.niceLen {
		m := best(matches0)
		e.encodeMatch(m.dist, m.len)
		e.win.movePos()
		e.mf.skip(e.win, m.len-1)
		if e.budget > 0 {
			e.budget -= m.len
		}
		return
	}

	lenEnd := mainLen0
	if repLen0 > lenEnd {
		lenEnd = repLen0
	}
	if lenEnd < 2 {
		lenEnd = 2
	}
	if lenEnd > limit0 {
		lenEnd = limit0
	}

	nodes := make([]optNode, lenEnd+1)
	nodes[0] = optNode{reached: true, state: startState, reps: startReps, posPrev: -1}

	matchesAt := make([][]matchPair, lenEnd)
	matchesAt[0] = matches0

	// Forward pass: price every edge out of every reachable node, advancing
	// the window and match finder exactly once per scanned position (the
	// one and only findMatches/movePos pairing for that position - the
	// replay pass below re-walks the same positions without touching the
	// finder again).
	for j := 0; j < lenEnd; j++ {
		if nodes[j].reached {
			e.extendNode(nodes, matchesAt[j], j, lenEnd, base, basePos)
		}
		e.win.movePos()
		if j+1 < lenEnd {
			matchesAt[j+1] = e.mf.findMatches(e.win, nil)
		}
	}

	type replayEdge struct {
		kind     edgeKind
		length   int
		dist     uint32
		repIndex int
	}
	edges := make([]replayEdge, 0, lenEnd)
	for i := lenEnd; i > 0; {
		n := nodes[i]
		edges = append(edges, replayEdge{kind: n.kind, length: i - n.posPrev, dist: n.dist, repIndex: n.repIndex})
		i = n.posPrev
	}

	// The window and finder already advanced to base+lenEnd above; rewind
	// just the window's own cursor (readPos/totalPos are plain counters
	// over an already-buffered region, not destructive) so the replay below
	// can emit bits in forward order with the window "at" each edge's own
	// position, matching encodeLiteral/encodeMatch's context lookups.
	e.win.readPos = base
	e.win.totalPos = basePos

	for k := len(edges) - 1; k >= 0; k-- {
		ed := edges[k]
		switch ed.kind {
		case edgeLiteral:
			lit := e.win.buf[e.win.readPos]
			e.encodeLiteral(lit)
			e.win.movePos()
		case edgeShortRep:
			e.encodeShortRep()
			e.win.movePos()
		case edgeRep:
			e.encodeRepMatch(ed.repIndex, ed.length)
			e.win.skip(ed.length)
		case edgeMatch:
			e.encodeMatch(ed.dist, ed.length)
			e.win.skip(ed.length)
		}
	}

	if e.budget > 0 {
		e.budget -= lenEnd
	}
}

// extendNode relaxes every edge leaving the DAG node at offset j (literal,
// short rep, each of the four rep distances at every length up to their
// match length, and every match finder candidate at every length up to its
// own), updating nodes[j+length] whenever a cheaper price is found.
func (e *Encoder) extendNode(nodes []optNode, matches []matchPair, j, lenEnd, base int, basePos int64) {
	cur := &nodes[j]
	pos := basePos + int64(j)
	at := base + j
	remaining := lenEnd - j
	limit := remaining
	if limit > MatchLenMax {
		limit = MatchLenMax
	}

	lit := e.win.buf[at]
	var prevByte byte
	havePrev := pos > 0
	if havePrev {
		prevByte = e.win.buf[at-1]
	}
	var matchByte byte
	if !cur.state.isLiteral() {
		matchByte = e.win.buf[at-int(cur.reps[0])-1]
	}
	litPrice := cur.price + e.priceLiteral(cur.state, pos, prevByte, havePrev, matchByte, lit)
	e.relax(nodes, j+1, litPrice, j, edgeLiteral, 0, 0, stateAfter(edgeLiteral, cur.state), cur.reps)

	if e.matchLenAt(at, int(cur.reps[0]), 1) == 1 {
		srPrice := cur.price + e.priceShortRep(cur.state, pos)
		e.relax(nodes, j+1, srPrice, j, edgeShortRep, 0, 0, stateAfter(edgeShortRep, cur.state), cur.reps)
	}

	for ri := 0; ri < reps; ri++ {
		rl := e.matchLenAt(at, int(cur.reps[ri]), limit)
		if rl < 2 {
			continue
		}
		newReps := reposAfterRep(cur.reps, ri)
		newState := stateAfter(edgeRep, cur.state)
		for l := 2; l <= rl; l++ {
			price := cur.price + e.priceRepMatch(cur.state, pos, ri, l)
			e.relax(nodes, j+l, price, j, edgeRep, 0, ri, newState, newReps)
		}
	}

	for _, m := range matches {
		if m.len < MatchLenMin {
			continue
		}
		maxl := m.len
		if maxl > limit {
			maxl = limit
		}
		newReps := reposAfterMatch(cur.reps, m.dist)
		newState := stateAfter(edgeMatch, cur.state)
		for l := MatchLenMin; l <= maxl; l++ {
			price := cur.price + e.priceMatch(cur.state, pos, m.dist, l)
			e.relax(nodes, j+l, price, j, edgeMatch, m.dist, 0, newState, newReps)
		}
	}
}

func (e *Encoder) relax(nodes []optNode, to int, price int32, from int, kind edgeKind, dist uint32, repIndex int, state coderState, reps [reps]int32) {
	if to >= len(nodes) {
		return
	}
	n := &nodes[to]
	if n.reached && n.price <= price {
		return
	}
	n.reached = true
	n.price = price
	n.posPrev = from
	n.kind = kind
	n.dist = dist
	n.repIndex = repIndex
	n.state = state
	n.reps = reps
}

// priceLiteral, priceMatch, priceRepMatch, and priceShortRep are the DAG's
// pricing primitives: unlike encodeLiteral/encodeMatch/encodeRepMatch, they
// take the hypothetical state/reps/position of the DAG node they're pricing
// from rather than reading the encoder's actual committed e.coder.state/
// e.coder.reps, since a DAG node's path-dependent state can differ from
// whatever the encoder is actually in while the forward pass is still
// running. The probability tables themselves (e.coder.isMatch, e.litProbs,
// ...) are read, never written, by these functions - safe to share across
// every hypothetical path since no real encode call (and so no probability
// update) happens until the backtrace replay at the end of optimalParse.
func (e *Encoder) priceLiteral(state coderState, pos int64, prevByte byte, havePrev bool, matchByte, b byte) int32 {
	c := e.coder
	posState := e.posStateAt(pos)
	price := getBitPrice(c.isMatch[state.s][posState], 0)

	var pb uint32
	if havePrev {
		pb = uint32(prevByte)
	}
	idx := e.lits.subCoderIndex(pb, uint32(pos))
	sub := &e.litProbs[idx]

	if state.isLiteral() {
		symbol := uint32(1)
		for i := 7; i >= 0; i-- {
			bit := int((uint32(b) >> uint(i)) & 1)
			price += getBitPrice(sub.probs[symbol], bit)
			symbol = (symbol << 1) | uint32(bit)
		}
		return price
	}

	mb := uint32(matchByte)
	symbol := uint32(1)
	for i := 7; i >= 0; i-- {
		matchBit := (mb >> uint(i)) & 1
		bit := (uint32(b) >> uint(i)) & 1
		price += getBitPrice(sub.probs[((1+matchBit)<<8)+symbol], int(bit))
		symbol = (symbol << 1) | bit
		if matchBit != bit {
			for i--; i >= 0; i-- {
				bit = (uint32(b) >> uint(i)) & 1
				price += getBitPrice(sub.probs[symbol], int(bit))
				symbol = (symbol << 1) | bit
			}
			break
		}
	}
	return price
}

func (e *Encoder) priceMatch(state coderState, pos int64, dist uint32, length int) int32 {
	c := e.coder
	posState := e.posStateAt(pos)
	price := getBitPrice(c.isMatch[state.s][posState], 1) + getBitPrice(c.isRep[state.s], 0)
	price += e.matchLenPrices.price(&e.matchLen, posState, length)

	distState := coderDictSizeIndex(length)
	if e.distPrices.count <= 0 {
		e.distPrices.update(c)
	}
	if dist < fullDistances {
		price += e.distPrices.fullPrices[distState][dist]
		return price
	}

	slot := getDistSlot(dist)
	price += e.distPrices.slotPrices[distState][slot]
	numDirectBits := uint32(slot>>1) - 1
	price += directBitsPrice(numDirectBits - alignBits)
	if e.alignPrices.count <= 0 {
		e.alignPrices.update(c)
	}
	price += e.alignPrices.prices[dist&alignMask]
	return price
}

func (e *Encoder) priceRepMatch(state coderState, pos int64, repIndex, length int) int32 {
	c := e.coder
	posState := e.posStateAt(pos)
	price := getBitPrice(c.isMatch[state.s][posState], 1) + getBitPrice(c.isRep[state.s], 1)

	if repIndex == 0 {
		price += getBitPrice(c.isRep0[state.s], 0) + getBitPrice(c.isRep0Long[state.s][posState], 1)
	} else {
		price += getBitPrice(c.isRep0[state.s], 1)
		switch repIndex {
		case 1:
			price += getBitPrice(c.isRep1[state.s], 0)
		case 2:
			price += getBitPrice(c.isRep1[state.s], 1) + getBitPrice(c.isRep2[state.s], 0)
		default:
			price += getBitPrice(c.isRep1[state.s], 1) + getBitPrice(c.isRep2[state.s], 1)
		}
	}
	price += e.repLenPrices.price(&e.repLen, posState, length)
	return price
}

func (e *Encoder) priceShortRep(state coderState, pos int64) int32 {
	c := e.coder
	posState := e.posStateAt(pos)
	return getBitPrice(c.isMatch[state.s][posState], 1) + getBitPrice(c.isRep[state.s], 1) +
		getBitPrice(c.isRep0[state.s], 0) + getBitPrice(c.isRep0Long[state.s][posState], 0)
}

func (e *Encoder) posStateAt(pos int64) int { return int(uint32(pos) & e.coder.posMask) }

func lengthPrice(lc *lengthCoder, posState, length int) int32 {
	length -= MatchLenMin
	if length < lowSymbols {
		return getBitPrice(lc.choice[0], 0) + getBitTreePrice(lc.low[posState][:], length)
	}
	price := getBitPrice(lc.choice[0], 1)
	length -= lowSymbols
	if length < midSymbols {
		return price + getBitPrice(lc.choice[1], 0) + getBitTreePrice(lc.mid[posState][:], length)
	}
	return price + getBitPrice(lc.choice[1], 1) + getBitTreePrice(lc.high[:], length-midSymbols)
}
