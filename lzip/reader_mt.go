// SPDX-License-Identifier: MIT

package lzip

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/arkiv-go/lzma"
)

// ReaderMT is Reader's parallel counterpart, decoding each member's LZMA2
// chunks with lzma.ReaderMT and advancing across concatenated members the
// same way Reader does. As with lzma.ReaderMT itself, this only works for
// members whose every chunk carries a full reset; Writer/WriterMT (and any
// xz-utils-compatible encoder using independent chunking) always produce
// that shape.
type ReaderMT struct {
	src      io.Reader
	workers  int
	dictSize uint32 // of the member currently open

	lzr         *lzma.ReaderMT
	crc         hash.Hash32
	uncompLen   uint64
	trailerDone bool
	memberCount int
}

func NewReaderMT(src io.Reader, workers int) (*ReaderMT, error) {
	r := &ReaderMT{src: src, workers: workers}
	if err := r.openMember(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ReaderMT) openMember() error {
	var hdr [6]byte
	if _, err := io.ReadFull(r.src, hdr[:]); err != nil {
		return err
	}
	if string(hdr[0:4]) != "LZIP" {
		return ErrBadMagic
	}
	if hdr[4] != 0x01 {
		return ErrBadVersion
	}
	r.dictSize = decodeDictSizeByte(hdr[5])
	r.lzr = lzma.NewReaderMT(r.src, r.dictSize, r.workers)
	r.crc = crc32.NewIEEE()
	r.uncompLen = 0
	r.trailerDone = false
	r.memberCount++
	return nil
}

func (r *ReaderMT) openNextMember() error {
	var hdr [6]byte
	n, err := io.ReadFull(r.src, hdr[:])
	if err == io.EOF && n == 0 {
		r.lzr = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if string(hdr[0:4]) != "LZIP" {
		return ErrBadMagic
	}
	if hdr[4] != 0x01 {
		return ErrBadVersion
	}
	r.dictSize = decodeDictSizeByte(hdr[5])
	r.lzr = lzma.NewReaderMT(r.src, r.dictSize, r.workers)
	r.crc = crc32.NewIEEE()
	r.uncompLen = 0
	r.trailerDone = false
	r.memberCount++
	return nil
}

func (r *ReaderMT) DictSize() uint32 { return r.dictSize }

// MemberCount reports how many members have been opened so far.
func (r *ReaderMT) MemberCount() int { return r.memberCount }

func (r *ReaderMT) Read(p []byte) (int, error) {
	for {
		if r.lzr == nil {
			return 0, io.EOF
		}
		n, err := r.lzr.Read(p)
		if n > 0 {
			r.crc.Write(p[:n])
			r.uncompLen += uint64(n)
			return n, nil
		}
		if err == io.EOF {
			if terr := r.readTrailer(); terr != nil {
				return 0, terr
			}
			if nerr := r.openNextMember(); nerr != nil {
				return 0, nerr
			}
			continue
		}
		return 0, err
	}
}

func (r *ReaderMT) readTrailer() error {
	if r.trailerDone {
		return nil
	}
	r.trailerDone = true
	var trailer [20]byte
	if _, err := io.ReadFull(r.src, trailer[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	crc := binary.LittleEndian.Uint32(trailer[0:4])
	dataSize := binary.LittleEndian.Uint64(trailer[4:12])
	if crc != r.crc.Sum32() {
		return ErrTrailerCRC
	}
	if dataSize != r.uncompLen {
		return ErrTrailerSize
	}
	return nil
}
