// SPDX-License-Identifier: MIT

package lzma

import (
	"fmt"
	"io"
)

// Reader decodes an LZMA2 stream (C11, spec.md §4.6) produced by Writer or
// any compliant encoder, routing each chunk's header flags to a lazily
// (re)built Decoder.
type Reader struct {
	src      io.Reader
	dictSize uint32

	win     *windowDecoder
	dec     *Decoder
	props   Properties
	havePro bool

	pending    []byte
	pendingOff int
	eof        bool
}

func NewReader(src io.Reader, dictSize uint32) *Reader {
	return &Reader{src: src, dictSize: dictSize, win: newWindowDecoder(dictSize)}
}

func (r *Reader) Read(p []byte) (int, error) {
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
		if err := r.decodeNextChunk(); err != nil {
			if total > 0 {
				return total, nil
			}
			return 0, err
		}
	}
	return total, nil
}

func (r *Reader) decodeNextChunk() error {
	var ctl [1]byte
	if _, err := io.ReadFull(r.src, ctl[:]); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF // stream ended without its 0x00 terminator
		}
		return err
	}
	control := ctl[0]

	switch {
	case control == 0x00:
		r.eof = true
		return nil

	case control == 0x01 || control == 0x02:
		var szb [2]byte
		if _, err := io.ReadFull(r.src, szb[:]); err != nil {
			return err
		}
		size := int(szb[0])<<8 | int(szb[1]) + 1
		if control == 0x01 {
			r.win.reset()
		}
		raw := make([]byte, size)
		if _, err := io.ReadFull(r.src, raw); err != nil {
			return err
		}
		for _, b := range raw {
			r.win.putByte(b)
		}
		r.pending = r.win.drain(r.pending[:0])
		r.pendingOff = 0
		return nil

	case control&0x80 != 0:
		resetMode := (control >> 5) & 0x3
		sizeHigh := control & 0x1F
		var hdr [4]byte
		if _, err := io.ReadFull(r.src, hdr[:]); err != nil {
			return err
		}
		uSize := (int(sizeHigh)<<16 | int(hdr[0])<<8 | int(hdr[1])) + 1
		cSize := (int(hdr[2])<<8 | int(hdr[3])) + 1

		if resetMode >= 2 {
			var pb [1]byte
			if _, err := io.ReadFull(r.src, pb[:]); err != nil {
				return err
			}
			props, err := PropertiesFromByte(pb[0], r.dictSize)
			if err != nil {
				return err
			}
			r.props = props
			r.havePro = true
		}
		if !r.havePro {
			return fmt.Errorf("%w: LZMA chunk before properties were ever set", ErrInvalidData)
		}
		if resetMode == 3 {
			r.win.reset()
		}

		payload := make([]byte, cSize)
		if _, err := io.ReadFull(r.src, payload); err != nil {
			return err
		}
		rc, err := newRangeDecoderBuffer(payload)
		if err != nil {
			return err
		}

		if r.dec == nil || resetMode >= 2 {
			r.dec, err = NewDecoder(rc, r.win, r.props)
			if err != nil {
				return err
			}
		} else {
			r.dec.SetRangeDecoder(rc)
			if resetMode >= 1 {
				r.dec.ResetState()
			}
		}

		if err := r.dec.DecodeChunk(int64(uSize)); err != nil {
			return err
		}
		if !rc.isFinished() {
			return fmt.Errorf("%w: LZMA2 chunk left %d undrained compressed bytes", ErrInvalidData, len(rc.buf)-rc.pos)
		}
		r.pending = r.win.drain(r.pending[:0])
		r.pendingOff = 0
		return nil

	default:
		return fmt.Errorf("%w: invalid LZMA2 control byte 0x%02x", ErrInvalidData, control)
	}
}
