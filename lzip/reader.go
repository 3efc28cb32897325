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

// Reader decodes an lzip stream, transparently advancing across
// concatenated members (spec.md §6: "Files may concatenate multiple
// members") so callers see one continuous decompressed byte stream.
// MemberCount reports how many members have been opened so far.
type Reader struct {
	src      io.Reader
	dictSize uint32 // of the member currently open

	lzr         *lzma.Reader
	crc         hash.Hash32
	uncompLen   uint64
	trailerDone bool
	memberCount int
}

func NewReader(src io.Reader) (*Reader, error) {
	r := &Reader{src: src}
	if err := r.openMember(); err != nil {
		return nil, err
	}
	return r, nil
}

// openMember reads one member's header and starts a fresh inner LZMA2
// reader for it. Call only when positioned at a header (or, for the very
// first member, at the start of the stream).
func (r *Reader) openMember() error {
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
	r.lzr = lzma.NewReader(r.src, r.dictSize)
	r.crc = crc32.NewIEEE()
	r.uncompLen = 0
	r.trailerDone = false
	r.memberCount++
	return nil
}

// openNextMember peeks for another member's header after the current
// member's trailer. Reaching the underlying src's genuine EOF here (zero
// bytes available) means the stream is over; r.lzr is set to nil to record
// that.
func (r *Reader) openNextMember() error {
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
	r.lzr = lzma.NewReader(r.src, r.dictSize)
	r.crc = crc32.NewIEEE()
	r.uncompLen = 0
	r.trailerDone = false
	r.memberCount++
	return nil
}

// DictSize reports the dictionary size of the member currently open.
func (r *Reader) DictSize() uint32 { return r.dictSize }

// MemberCount reports how many members have been opened so far (spec.md §8
// scenario 5: a multi-member stream reports MemberCount() > 1 once fully
// read).
func (r *Reader) MemberCount() int { return r.memberCount }

func (r *Reader) Read(p []byte) (int, error) {
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

func (r *Reader) readTrailer() error {
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
