// SPDX-License-Identifier: MIT

package xz

import (
	"bytes"
	"io"

	"github.com/arkiv-go/lzma"
	"github.com/arkiv-go/lzma/filter"
	"github.com/arkiv-go/lzma/workpool"
)

// scannedBlock holds one block's header and its still-compressed body plus
// trailing check bytes, gathered by a sequential pass that reads framing
// only — it never runs the decoder.
type scannedBlock struct {
	hdr   blockHeader
	body  []byte
	check []byte
}

// ReaderMT is Reader's parallel counterpart: it first walks every block's
// header and body sequentially (cheap — only copying already-compressed
// bytes), then decodes all of them concurrently on a workpool.Pool, since
// distinct XZ blocks never share state (spec.md §4.9.3 calls the block the
// format's grain of parallelism, same role LZMA2's chunk and lzip's member
// play for their containers).
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

func (r *ReaderMT) start() error {
	r.started = true
	check, err := readStreamHeader(r.src)
	if err != nil {
		return err
	}

	var blocks []scannedBlock
	for {
		hdr, err := readBlockHeader(r.src)
		if err != nil {
			return err
		}
		if hdr == nil {
			break
		}
		body, err := readBlockBody(r.src, *hdr)
		if err != nil {
			return err
		}
		checkBytes := make([]byte, check.Size())
		if len(checkBytes) > 0 {
			if _, err := io.ReadFull(r.src, checkBytes); err != nil {
				return err
			}
		}
		blocks = append(blocks, scannedBlock{hdr: *hdr, body: body, check: checkBytes})
	}

	r.njobs = len(blocks)
	r.pool = workpool.New(r.workers)
	for _, b := range blocks {
		r.pool.Dispatch(func(seq int) (any, error) {
			return decodeOneBlock(b, check, r.dictSize)
		})
	}
	r.pool.Finish()
	return nil
}

func decodeOneBlock(b scannedBlock, check CheckType, dictSize uint32) ([]byte, error) {
	var head io.Reader = lzma.NewReader(bytes.NewReader(b.body), dictSize)
	for i := len(b.hdr.filters) - 2; i >= 0; i-- {
		t, err := newTransformer(b.hdr.filters[i])
		if err != nil {
			return nil, err
		}
		head = filter.NewDecodeReader(head, t)
	}
	data, err := io.ReadAll(head)
	if err != nil {
		return nil, err
	}
	if hh := check.NewHash(); hh != nil {
		hh.Write(data)
		want := hh.Sum(nil)
		for i := range want {
			if i >= len(b.check) || want[i] != b.check[i] {
				return nil, ErrCheckMismatch
			}
		}
	}
	return data, nil
}
