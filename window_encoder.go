// SPDX-License-Identifier: MIT

package lzma

// windowEncoder is the encode-side sliding window (C5, spec.md §4.5): unlike
// the decoder's ring buffer, the encoder needs a forward lookahead beyond
// the current read position for match finding, so it keeps a linear buffer
// that periodically compacts (moveWindow) instead of wrapping. Grounded on
// the classic LZMA SDK / xz-java LZEncoder buffer shape, translated into a
// plain Go struct the hash-chain and binary-tree match finders operate on
// directly (matchfinder_hc4.go, matchfinder_bt4.go).
type windowEncoder struct {
	buf []byte

	keepSizeBefore uint32 // dictionary size: bytes kept behind readPos
	keepSizeAfter  uint32 // niceLen + MatchLenMax: lookahead a match finder may need

	readPos   int
	readLimit int
	writePos  int

	totalPos int64

	isFinishing bool
	isFlushing  bool
}

func newWindowEncoder(dictSize uint32, niceLen int) *windowEncoder {
	keepAfter := uint32(niceLen + MatchLenMax)
	bufSize := keepAfter + dictSize + keepAfter
	return &windowEncoder{
		buf:            make([]byte, bufSize),
		keepSizeBefore: dictSize,
		keepSizeAfter:  keepAfter,
		readLimit:      -1,
	}
}

// loadPresetDict copies dict's trailing keepSizeBefore bytes to the front
// of the buffer and leaves readPos at 0, writePos just past them, so the
// caller can walk a match finder's skip over the loaded range before real
// input arrives - that is what actually seeds the finder's hash chains with
// the dictionary's contents, not just the raw bytes. Returns how many bytes
// were loaded.
func (w *windowEncoder) loadPresetDict(dict []byte) int {
	if len(dict) == 0 {
		return 0
	}
	if uint32(len(dict)) > w.keepSizeBefore {
		dict = dict[uint32(len(dict))-w.keepSizeBefore:]
	}
	n := copy(w.buf, dict)
	w.writePos = n
	w.readPos = 0
	return n
}

// isStarted reports whether any byte - preset dictionary or real input -
// has ever been positioned through the window, mirroring windowDecoder's
// total>0 check that gates the same literal prevByte lookup.
func (w *windowEncoder) isStarted() bool {
	return w.totalPos > 0
}

func (w *windowEncoder) setFinishing() { w.isFinishing = true }
func (w *windowEncoder) setFlushing()  { w.isFlushing = true }

// avail is the number of unread bytes currently buffered ahead of readPos.
func (w *windowEncoder) avail() int { return w.writePos - w.readPos }

// moveWindow compacts the buffer, discarding everything more than
// keepSizeBefore behind readPos, so fillWindow always has room to append.
func (w *windowEncoder) moveWindow() {
	moveOffset := (w.readPos - int(w.keepSizeBefore) + 1) &^ 0
	if moveOffset <= 0 {
		return
	}
	copy(w.buf, w.buf[moveOffset:w.writePos])
	w.readPos -= moveOffset
	w.writePos -= moveOffset
	if w.readLimit >= 0 {
		w.readLimit -= moveOffset
	}
}

// fillWindow appends as much of data as fits after compacting, and returns
// how many bytes were consumed. The caller loops until all input is queued.
func (w *windowEncoder) fillWindow(data []byte) int {
	if w.writePos+len(data) > len(w.buf) {
		w.moveWindow()
	}
	room := len(w.buf) - w.writePos
	n := len(data)
	if n > room {
		n = room
	}
	copy(w.buf[w.writePos:], data[:n])
	w.writePos += n

	if w.writePos >= int(w.keepSizeAfter) || w.isFinishing || w.isFlushing {
		w.readLimit = w.writePos - int(w.keepSizeAfter)
		if w.readLimit < 0 {
			w.readLimit = 0
		}
	}
	return n
}

// hasEnoughData reports whether the match finder may still look forward by
// forwardBytes more positions, i.e. there is either a full lookahead window
// left or the stream is finishing and what remains is all there is.
func (w *windowEncoder) hasEnoughData(forwardBytes int) bool {
	return w.readPos+forwardBytes <= w.writePos
}

// getByte reads the byte dist positions behind readPos (dist==0 is the byte
// just read).
func (w *windowEncoder) getByte(dist uint32) byte {
	return w.buf[w.readPos-1-int(dist)]
}

// getByteBackward is an alias kept for symmetry with the decoder-side
// naming used throughout spec.md §4.4/§4.5.
func (w *windowEncoder) getByteBackward(dist uint32) byte { return w.getByte(dist) }

// getPos returns the encoder's logical absolute position in the input
// stream, used for literal-position-bit context selection.
func (w *windowEncoder) getPos() int64 { return w.totalPos }

func (w *windowEncoder) movePos() {
	w.readPos++
	w.totalPos++
}

// skip advances the read cursor without producing symbols, used by the
// Normal encoder (encoder_normal.go) when it replays its chosen decisions.
func (w *windowEncoder) skip(n int) {
	for i := 0; i < n; i++ {
		w.movePos()
	}
}
