// SPDX-License-Identifier: MIT

package xz

import (
	"bytes"
	"fmt"
	"hash"
	"io"

	"github.com/arkiv-go/lzma"
	"github.com/arkiv-go/lzma/filter"
)

// Reader decodes a single-member XZ stream (C12, spec.md §4.9.3), walking
// blocks in order and auto-detecting each block's filter chain from its own
// header. Every block must declare its compressed-data size (Writer and
// WriterMT always set it): that is what lets both this Reader and ReaderMT
// know exactly how many bytes to read for a block, and where its padding
// and check bytes start, without running the decoder as a side channel for
// framing.
type Reader struct {
	src      io.Reader
	check    CheckType
	dictSize uint32

	cur       io.Reader
	curHash   hash.Hash
	streamEOF bool
}

func NewReader(src io.Reader, dictSize uint32) (*Reader, error) {
	check, err := readStreamHeader(src)
	if err != nil {
		return nil, err
	}
	return &Reader{src: src, check: check, dictSize: dictSize}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	for {
		if r.cur == nil {
			if r.streamEOF {
				return 0, io.EOF
			}
			if err := r.openNextBlock(); err != nil {
				return 0, err
			}
			if r.cur == nil { // index indicator reached, stream consumed
				r.streamEOF = true
				return 0, io.EOF
			}
		}
		n, err := r.cur.Read(p)
		if n > 0 {
			r.curHash.Write(p[:n])
			return n, nil
		}
		if err == io.EOF {
			if err := r.finishBlock(); err != nil {
				return 0, err
			}
			r.cur = nil
			continue
		}
		if err != nil {
			return 0, err
		}
	}
}

func (r *Reader) openNextBlock() error {
	hdr, err := readBlockHeader(r.src)
	if err != nil {
		return err
	}
	if hdr == nil {
		return nil
	}
	body, err := readBlockBody(r.src, *hdr)
	if err != nil {
		return err
	}

	var head io.Reader = lzma.NewReader(bytes.NewReader(body), r.dictSize)
	for i := len(hdr.filters) - 2; i >= 0; i-- {
		t, err := newTransformer(hdr.filters[i])
		if err != nil {
			return err
		}
		head = filter.NewDecodeReader(head, t)
	}
	r.cur = head
	if r.check == CheckNone {
		r.curHash = noopHash{}
	} else {
		r.curHash = r.check.NewHash()
	}
	return nil
}

// readBlockBody reads a block's compressed payload, skips its padding to
// the next 4-byte boundary, and leaves the trailing check bytes for
// finishBlock (they are validated against the hash accumulated while
// decoding, not read here).
func readBlockBody(src io.Reader, hdr blockHeader) ([]byte, error) {
	if hdr.compressedSize < 0 {
		return nil, fmt.Errorf("%w: block is missing its compressed-size field", ErrUnsupported)
	}
	body := make([]byte, hdr.compressedSize)
	if _, err := io.ReadFull(src, body); err != nil {
		return nil, err
	}
	if pad := (4 - len(body)%4) % 4; pad > 0 {
		if _, err := io.CopyN(io.Discard, src, int64(pad)); err != nil {
			return nil, err
		}
	}
	return body, nil
}

func (r *Reader) finishBlock() error {
	size := r.check.Size()
	if size == 0 {
		return nil
	}
	got := make([]byte, size)
	if _, err := io.ReadFull(r.src, got); err != nil {
		return err
	}
	want := r.curHash.Sum(nil)
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("%w", ErrCheckMismatch)
		}
	}
	return nil
}
