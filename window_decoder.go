// SPDX-License-Identifier: MIT

package lzma

import "fmt"

// windowDecoder is the decode-side sliding dictionary (C4, spec.md §4.4): a
// circular buffer of dictSize bytes that doubles as the source of truth for
// back-reference copies and the staging area for produced output. Grounded
// on the LZ window's three primitive operations named in spec.md
// ("put_byte", "get_byte(dist)", "repeat(dist,len)") plus a drain step that
// lets decoder.go pull out newly produced bytes without caring whether the
// ring wrapped.
type windowDecoder struct {
	buf     []byte
	size    uint32
	pos     uint32
	total   uint64
	drained uint64
	full    bool
}

func newWindowDecoder(dictSize uint32) *windowDecoder {
	return &windowDecoder{buf: make([]byte, dictSize), size: dictSize}
}

// setPresetDict seeds the window with dict, as if dict had just been
// decoded. Only the trailing dictSize bytes of dict matter; anything before
// that falls outside the addressable history anyway.
func (w *windowDecoder) setPresetDict(dict []byte) {
	if len(dict) == 0 {
		return
	}
	if uint32(len(dict)) > w.size {
		dict = dict[uint32(len(dict))-w.size:]
	}
	n := copy(w.buf, dict)
	w.pos = uint32(n) % w.size
	w.total = uint64(n)
	w.drained = uint64(n)
	if uint32(n) >= w.size {
		w.full = true
	}
}

// reset clears the window back to its freshly constructed state, used at an
// LZMA2 dictionary-reset chunk boundary (spec.md §4.6).
func (w *windowDecoder) reset() {
	w.pos = 0
	w.total = 0
	w.drained = 0
	w.full = false
}

func (w *windowDecoder) putByte(b byte) {
	w.buf[w.pos] = b
	w.pos++
	w.total++
	if w.pos == w.size {
		w.pos = 0
		w.full = true
	}
}

// getByte returns the byte dist positions behind the most recently written
// one (dist==0 is the last byte written).
func (w *windowDecoder) getByte(dist uint32) byte {
	d := int64(w.pos) - 1 - int64(dist)
	size := int64(w.size)
	d %= size
	if d < 0 {
		d += size
	}
	return w.buf[d]
}

// hasEnoughData reports whether a back-reference dist positions behind the
// current write cursor stays inside both the data this window has actually
// produced and its dictionary-size budget (spec.md §4.4: repeat(d,L) fails
// if d exceeds the written prefix or exceeds dict_size).
func (w *windowDecoder) hasEnoughData(dist uint32) bool {
	return uint64(dist) < w.total && dist < w.size
}

// repeat copies a length-byte match at the given backward distance, byte by
// byte so overlapping matches (dist < length) replicate correctly.
func (w *windowDecoder) repeat(dist uint32, length int) error {
	if !w.hasEnoughData(dist) {
		return fmt.Errorf("%w: match distance %d exceeds %d bytes of history or %d-byte dictionary", ErrInvalidData, dist, w.total, w.size)
	}
	for i := 0; i < length; i++ {
		w.putByte(w.getByte(dist))
	}
	return nil
}

// drain appends newly produced bytes (since the last drain call) to dst and
// returns the extended slice, handling ring-buffer wraparound.
func (w *windowDecoder) drain(dst []byte) []byte {
	pending := w.total - w.drained
	if pending == 0 {
		return dst
	}
	size := int64(w.size)
	start := int64(w.pos) - int64(pending)
	start %= size
	if start < 0 {
		start += size
	}
	if start+int64(pending) <= size {
		dst = append(dst, w.buf[start:start+int64(pending)]...)
	} else {
		firstLen := size - start
		dst = append(dst, w.buf[start:]...)
		dst = append(dst, w.buf[:int64(pending)-firstLen]...)
	}
	w.drained = w.total
	return dst
}
