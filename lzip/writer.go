// SPDX-License-Identifier: MIT

package lzip

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"

	"github.com/arkiv-go/lzma"
)

// Writer produces an lzip stream: one member (header, an LZMA2 stream at
// lzip's fixed parameters lc=3/lp=0/pb=2, and a CRC32/size trailer, spec.md
// §6) per MemberSize uncompressed bytes, concatenated the same way
// xz-utils' own lzip encoder splits large inputs across members. A zero
// MemberSize (the NewWriter default) means "one member for the whole
// stream".
type Writer struct {
	dst        io.Writer
	dictSize   uint32
	memberSize uint64

	cur    *lzipMember
	closed bool
}

type lzipMember struct {
	cw        *countingWriter
	lzw       *lzma.Writer
	crc       hash.Hash32
	uncompLen uint64
	headerLen int
}

func NewWriter(dst io.Writer, dictSize uint32) (*Writer, error) {
	return NewWriterSize(dst, dictSize, 0)
}

// NewWriterSize is NewWriter with an explicit member-size cap: once a
// member has absorbed memberSize uncompressed bytes, Write closes it and
// opens a fresh one, so a stream larger than memberSize becomes several
// concatenated members (spec.md §6: "Files may concatenate multiple
// members"; scenario 5 exercises this with memberSize == dict size).
func NewWriterSize(dst io.Writer, dictSize uint32, memberSize uint64) (*Writer, error) {
	w := &Writer{dst: dst, dictSize: dictSize, memberSize: memberSize}
	if err := w.startMember(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) startMember() error {
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
	w.cur = &lzipMember{
		cw:        cw,
		lzw:       lzma.NewWriter(cw, opts),
		crc:       crc32.NewIEEE(),
		headerLen: len(header),
	}
	return nil
}

func (w *Writer) Write(p []byte) (int, error) {
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

func (w *Writer) finishMember() error {
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

func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.finishMember()
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}
