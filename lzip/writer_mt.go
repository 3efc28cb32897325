// SPDX-License-Identifier: MIT

package lzip

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"

	"github.com/arkiv-go/lzma"
)

// WriterMT is Writer's parallel counterpart: each member's single LZMA2
// stream is compressed with lzma.WriterMT, so its independent chunks run on
// a workpool.Pool instead of one goroutine, while member framing (header,
// CRC32/size trailer, member-size splitting) is identical to Writer's.
type WriterMT struct {
	dst        io.Writer
	dictSize   uint32
	memberSize uint64
	workers    int

	cur    *lzipMemberMT
	closed bool
}

type lzipMemberMT struct {
	cw        *countingWriter
	lzw       *lzma.WriterMT
	crc       hash.Hash32
	uncompLen uint64
	headerLen int
}

func NewWriterMT(dst io.Writer, dictSize uint32, workers int) (*WriterMT, error) {
	return NewWriterMTSize(dst, dictSize, workers, 0)
}

func NewWriterMTSize(dst io.Writer, dictSize uint32, workers int, memberSize uint64) (*WriterMT, error) {
	w := &WriterMT{dst: dst, dictSize: dictSize, workers: workers, memberSize: memberSize}
	if err := w.startMember(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *WriterMT) startMember() error {
	dictByte := encodeDictSizeByte(w.dictSize)
	header := []byte{'L', 'Z', 'I', 'P', 0x01, dictByte}
	if _, err := w.dst.Write(header); err != nil {
		return err
	}
	cw := &countingWriter{w: w.dst}
	opts := lzma.EncoderOptions{
		Props:   lzma.Properties{LC: 3, LP: 0, PB: 2, DictSize: decodeDictSizeByte(dictByte)},
		Mode:    lzma.ModeNormal,
		NiceLen: 64,
		UseBt4:  true,
	}
	w.cur = &lzipMemberMT{
		cw:        cw,
		lzw:       lzma.NewWriterMT(cw, opts, w.workers),
		crc:       crc32.NewIEEE(),
		headerLen: len(header),
	}
	return nil
}

func (w *WriterMT) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := len(p)
		if w.memberSize > 0 {
			room := w.memberSize - w.cur.uncompLen
			if room == 0 {
				if err := w.finishMember(); err != nil {
					return total - len(p), err
				}
				if err := w.startMember(); err != nil {
					return total - len(p), err
				}
				room = w.memberSize
			}
			if uint64(n) > room {
				n = int(room)
			}
		}
		w.cur.crc.Write(p[:n])
		w.cur.uncompLen += uint64(n)
		if _, err := w.cur.lzw.Write(p[:n]); err != nil {
			return total - len(p), err
		}
		p = p[n:]
	}
	return total, nil
}

func (w *WriterMT) finishMember() error {
	if err := w.cur.lzw.Close(); err != nil {
		return err
	}
	memberSize := uint64(w.cur.headerLen) + w.cur.cw.n + 20
	var trailer [20]byte
	binary.LittleEndian.PutUint32(trailer[0:4], w.cur.crc.Sum32())
	binary.LittleEndian.PutUint64(trailer[4:12], w.cur.uncompLen)
	binary.LittleEndian.PutUint64(trailer[12:20], memberSize)
	_, err := w.dst.Write(trailer[:])
	return err
}

func (w *WriterMT) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.finishMember()
}
