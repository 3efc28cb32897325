// SPDX-License-Identifier: MIT

package lzma

import (
	"fmt"
	"io"

	"github.com/arkiv-go/lzma/workpool"
)

// scannedChunk is one LZMA2 chunk's framing, discovered by a cheap
// sequential pass over the stream that reads headers and copies payload
// bytes without touching the range coder.
type scannedChunk struct {
	raw     bool // true: control 0x01/0x02, stored bytes in payload verbatim
	props   Properties
	uSize   int
	payload []byte
}

// ReaderMT is the parallel counterpart of Reader. It only accepts streams
// whose every LZMA chunk carries a full reset (control bits resetMode==3,
// the form Writer/WriterMT always emit): that is what makes each chunk's
// decode fully independent of every other, so a workpool.Pool can decode
// them on separate goroutines while ReaderMT serves bytes out through Read
// in original order. A stream with any lighter-weight reset (state-only or
// no reset, meaning a chunk's probabilities or dictionary depend on the
// chunk before it) cannot be decoded out of sequence; build a plain Reader
// for those instead.
type ReaderMT struct {
	src      io.Reader
	dictSize uint32
	workers  int

	started bool
	pool    *workpool.Pool
	njobs   int

	pending    []byte
	pendingOff int
}

func NewReaderMT(src io.Reader, dictSize uint32, workers int) *ReaderMT {
	return &ReaderMT{src: src, dictSize: dictSize, workers: workers}
}

func (r *ReaderMT) Read(p []byte) (int, error) {
	if !r.started {
		if err := r.start(); err != nil {
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
		if r.njobs == 0 {
			if total > 0 {
				return total, nil
			}
			return 0, io.EOF
		}
		val, ok, err := r.pool.GetResult()
		if err != nil {
			return total, err
		}
		if !ok {
			if total > 0 {
				return total, nil
			}
			return 0, io.EOF
		}
		r.pending = val.([]byte)
		r.pendingOff = 0
		r.njobs--
	}
	return total, nil
}

// start scans the whole stream up front (headers only; chunk payloads are
// copied but not decoded) and dispatches one decode job per chunk.
func (r *ReaderMT) start() error {
	r.started = true
	chunks, err := scanLZMA2Chunks(r.src, r.dictSize)
	if err != nil {
		return err
	}
	r.njobs = len(chunks)
	r.pool = workpool.New(r.workers)
	dictSize := r.dictSize
	for _, c := range chunks {
		r.pool.Dispatch(func(seq int) (any, error) {
			return decodeOneChunk(c, dictSize)
		})
	}
	r.pool.Finish()
	return nil
}

func scanLZMA2Chunks(src io.Reader, dictSize uint32) ([]scannedChunk, error) {
	var chunks []scannedChunk
	var curProps Properties
	for {
		var ctl [1]byte
		if _, err := io.ReadFull(src, ctl[:]); err != nil {
			return nil, err
		}
		control := ctl[0]
		switch {
		case control == 0x00:
			return chunks, nil

		case control == 0x01 || control == 0x02:
			var szb [2]byte
			if _, err := io.ReadFull(src, szb[:]); err != nil {
				return nil, err
			}
			size := int(szb[0])<<8 | int(szb[1]) + 1
			raw := make([]byte, size)
			if _, err := io.ReadFull(src, raw); err != nil {
				return nil, err
			}
			chunks = append(chunks, scannedChunk{raw: true, payload: raw})

		case control&0x80 != 0:
			resetMode := (control >> 5) & 0x3
			if resetMode != 3 {
				return nil, fmt.Errorf("%w: ReaderMT requires every LZMA chunk to carry a full reset", ErrUnsupported)
			}
			sizeHigh := control & 0x1F
			var hdr [4]byte
			if _, err := io.ReadFull(src, hdr[:]); err != nil {
				return nil, err
			}
			uSize := (int(sizeHigh)<<16 | int(hdr[0])<<8 | int(hdr[1])) + 1
			cSize := (int(hdr[2])<<8 | int(hdr[3])) + 1

			var pb [1]byte
			if _, err := io.ReadFull(src, pb[:]); err != nil {
				return nil, err
			}
			props, err := PropertiesFromByte(pb[0], dictSize)
			if err != nil {
				return nil, err
			}
			curProps = props

			payload := make([]byte, cSize)
			if _, err := io.ReadFull(src, payload); err != nil {
				return nil, err
			}
			chunks = append(chunks, scannedChunk{props: curProps, uSize: uSize, payload: payload})

		default:
			return nil, fmt.Errorf("%w: invalid LZMA2 control byte 0x%02x", ErrInvalidData, control)
		}
	}
}

func decodeOneChunk(c scannedChunk, dictSize uint32) ([]byte, error) {
	win := newWindowDecoder(dictSize)
	if c.raw {
		for _, b := range c.payload {
			win.putByte(b)
		}
		return win.drain(nil), nil
	}
	rc, err := newRangeDecoderBuffer(c.payload)
	if err != nil {
		return nil, err
	}
	dec, err := NewDecoder(rc, win, c.props)
	if err != nil {
		return nil, err
	}
	if err := dec.DecodeChunk(int64(c.uSize)); err != nil {
		return nil, err
	}
	if !rc.isFinished() {
		return nil, fmt.Errorf("%w: LZMA2 chunk left undrained compressed bytes", ErrInvalidData)
	}
	return win.drain(nil), nil
}
