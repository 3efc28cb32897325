// SPDX-License-Identifier: MIT

package lzma

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// rawHeaderLen is the fixed 13-byte .lzma-style header: 1 props byte, 4
// little-endian dict-size bytes, 8 little-endian expected-size bytes
// (spec.md §6).
const rawHeaderLen = 13

// noEndSize is the header's sentinel for "size unknown, rely on the
// in-stream end-of-stream marker instead" (spec.md §6: "u64::MAX").
const noEndSize = math.MaxUint64

// RawWriter streams the raw LZMA1 container (spec.md §6): a
// 13-byte header followed by one uninterrupted range-coded payload, no
// chunking. Everything is buffered and encoded once at Close, since a
// single LZMA1 stream shares one probability model and window from first
// byte to last — there is no natural flush point before the end, unlike
// LZMA2's independent chunks.
type RawWriter struct {
	dst    io.Writer
	opts   EncoderOptions
	buf    []byte
	closed bool
}

func NewRawWriter(dst io.Writer, opts EncoderOptions) *RawWriter {
	return &RawWriter{dst: dst, opts: opts}
}

func (w *RawWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Close encodes the buffered payload and writes the header plus compressed
// body. The header always carries the exact uncompressed size; raw writes
// never need the end-marker form since the size is already known here.
//
// Unlike LZMA2, raw LZMA1 has no chunk boundary to flush at, so the whole
// payload must fit in the encoder's window buffer (dict size plus two
// lookahead margins) before Finish can run the parser over it. Streams
// larger than that belong in LZMA2 or one of the container formats built
// on it, which split input into independently-sized chunks.
func (w *RawWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.opts.Props.validate(); err != nil {
		return err
	}
	niceLen := niceLenOrMax(w.opts.NiceLen)
	capacity := uint64(niceLen+MatchLenMax)*2 + uint64(w.opts.Props.DictSize)
	presetDictLen := uint64(len(w.opts.PresetDict))
	if presetDictLen > uint64(w.opts.Props.DictSize) {
		presetDictLen = uint64(w.opts.Props.DictSize)
	}
	if uint64(len(w.buf)) > capacity-presetDictLen {
		return fmt.Errorf("%w: raw LZMA payload of %d bytes exceeds the %d-byte encoder window (use LZMA2 for larger streams)", ErrInvalidInput, len(w.buf), capacity-presetDictLen)
	}

	var hdr [rawHeaderLen]byte
	hdr[0] = w.opts.Props.PropsByte()
	binary.LittleEndian.PutUint32(hdr[1:5], w.opts.Props.DictSize)
	binary.LittleEndian.PutUint64(hdr[5:13], uint64(len(w.buf)))
	if _, err := w.dst.Write(hdr[:]); err != nil {
		return err
	}

	rc := newRangeEncoder()
	enc, err := NewEncoder(rc, w.opts)
	if err != nil {
		return err
	}
	if _, err := enc.Write(w.buf); err != nil {
		return err
	}
	enc.Finish(w.opts.Mode)
	rc.finish()
	_, err = w.dst.Write(rc.out)
	return err
}

// RawReader decodes a raw LZMA1 stream produced by RawWriter (or any
// compliant .lzma-style encoder, including the end-marker form where the
// header's size field is noEndSize).
type RawReader struct {
	src        io.Reader
	dec        *Decoder
	win        *windowDecoder
	presetDict []byte
	size       uint64
	read       uint64
	open       bool
	eof        bool

	pending    []byte
	pendingOff int
}

func NewRawReader(src io.Reader) *RawReader {
	return &RawReader{src: src}
}

// NewRawReaderPresetDict is NewRawReader for a stream whose encoder was
// given the matching EncoderOptions.PresetDict: the same bytes must be
// supplied here, or decoding will diverge on the first back-reference into
// the dictionary.
func NewRawReaderPresetDict(src io.Reader, dict []byte) *RawReader {
	return &RawReader{src: src, presetDict: dict}
}

func (r *RawReader) open1() error {
	var hdr [rawHeaderLen]byte
	if _, err := io.ReadFull(r.src, hdr[:]); err != nil {
		return err
	}
	dictSize := binary.LittleEndian.Uint32(hdr[1:5])
	props, err := PropertiesFromByte(hdr[0], dictSize)
	if err != nil {
		return err
	}
	r.size = binary.LittleEndian.Uint64(hdr[5:13])

	rc, err := newRangeDecoderStream(r.src)
	if err != nil {
		return err
	}
	r.win = newWindowDecoder(dictSize)
	r.win.setPresetDict(r.presetDict)
	r.dec, err = NewDecoder(rc, r.win, props)
	if err != nil {
		return err
	}
	r.open = true
	return nil
}

// decodeStep advances the decoder by at most a 64 KiB step (or to the
// declared size, whichever is sooner) and refills r.pending with whatever
// new bytes that produced.
func (r *RawReader) decodeStep() error {
	if r.size != noEndSize && r.read >= r.size {
		r.eof = true
		return nil
	}
	step := int64(1 << 16)
	if r.size != noEndSize {
		if remaining := int64(r.size - r.read); remaining < step {
			step = remaining
		}
	}
	before := r.win.total
	err := r.dec.DecodeChunk(step)
	r.read += r.win.total - before
	r.pending = r.win.drain(r.pending[:0])
	r.pendingOff = 0
	if err == io.EOF {
		if r.size != noEndSize && r.read != r.size {
			return fmt.Errorf("%w: end marker before declared size", ErrInvalidData)
		}
		r.size = r.read
		r.eof = true
		return nil
	}
	return err
}

func (r *RawReader) Read(p []byte) (int, error) {
	if !r.open {
		if err := r.open1(); err != nil {
			return 0, err
		}
	}
	total := 0
	for total < len(p) {
		if r.pendingOff < len(r.pending) {
			n := copy(p[total:], r.pending[r.pendingOff:])
			r.pendingOff += n
			total += n
			continue
		}
		if r.eof {
			if total > 0 {
				return total, nil
			}
			return 0, io.EOF
		}
		if err := r.decodeStep(); err != nil {
			if total > 0 {
				return total, nil
			}
			return 0, err
		}
	}
	return total, nil
}
