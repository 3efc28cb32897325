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

// Options configures an XZ stream Writer or WriterMT (C12,
// spec.md §4.9.3). Filters names the pre-filter chain applied before LZMA2
// (e.g. {filter.IDBCJX86} for an x86 executable); LZMA2 is appended
// automatically and must not be listed.
type Options struct {
	Check     CheckType
	LZMA      lzma.EncoderOptions
	Filters   []filter.ID
	DeltaDist int // only consulted when Filters contains filter.IDDelta
	BlockSize int64
}

func DefaultOptions(dictSize uint32) Options {
	return Options{
		Check: CheckCRC32,
		LZMA:  lzma.DefaultEncoderOptions(dictSize),
	}
}

func (o Options) filterChain() ([]filterSpec, error) {
	specs := make([]filterSpec, 0, len(o.Filters)+1)
	for _, id := range o.Filters {
		switch id {
		case filter.IDBCJX86:
			specs = append(specs, filterSpec{id: id})
		case filter.IDDelta:
			d := o.DeltaDist
			if d <= 0 {
				d = 1
			}
			specs = append(specs, filterSpec{id: id, props: deltaProps(d)})
		default:
			return nil, fmt.Errorf("%w: unsupported pre-filter id 0x%x", ErrUnsupported, uint64(id))
		}
	}
	if len(specs) >= 4 {
		return nil, fmt.Errorf("%w: at most 3 pre-filters plus LZMA2", ErrInvalidData)
	}
	specs = append(specs, filterSpec{id: filter.IDLZMA2})
	return specs, nil
}

// countingWriter tallies bytes written, for block-size bookkeeping.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Writer streams one XZ member: a stream header, a sequence of blocks each
// holding at most Options.BlockSize uncompressed bytes, an index, and a
// footer.
type Writer struct {
	dst     io.Writer
	opts    Options
	specs   []filterSpec
	records []indexRecord

	blockBuf  bytes.Buffer
	blockHash hash.Hash
	blockUn   int64
	chain     *chainState
	started   bool
	closed    bool
}

func NewWriter(dst io.Writer, opts Options) (*Writer, error) {
	specs, err := opts.filterChain()
	if err != nil {
		return nil, err
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = 1 << 62 // effectively one block per stream
	}
	return &Writer{dst: dst, opts: opts, specs: specs}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	if !w.started {
		if err := writeStreamHeader(w.dst, w.opts.Check); err != nil {
			return 0, err
		}
		w.started = true
		w.startBlock()
	}
	total := len(p)
	for len(p) > 0 {
		room := w.opts.BlockSize - w.blockUn
		if room <= 0 {
			if err := w.finishBlock(); err != nil {
				return total - len(p), err
			}
			w.startBlock()
			room = w.opts.BlockSize
		}
		n := int64(len(p))
		if n > room {
			n = room
		}
		w.blockHash.Write(p[:n])
		if err := w.writeToChain(p[:n]); err != nil {
			return total - len(p), err
		}
		w.blockUn += n
		p = p[n:]
	}
	return total, nil
}

// chain holds the live encoder pipeline for the block currently open:
// lzma2Writer is innermost, wrapped by zero or more filter.EncodeWriters.
type chainState struct {
	lzma2 *lzma.Writer
	head  io.Writer
	wraps []*filter.EncodeWriter
}

func (w *Writer) startBlock() {
	w.blockBuf.Reset()
	w.blockUn = 0
	if w.opts.Check == CheckNone {
		w.blockHash = noopHash{}
	} else {
		w.blockHash = w.opts.Check.NewHash()
	}
	w.chain = nil
}

func (w *Writer) writeToChain(p []byte) error {
	if w.chain == nil {
		lz := lzma.NewWriter(&w.blockBuf, w.opts.LZMA)
		var head io.Writer = lz
		var wraps []*filter.EncodeWriter
		for i := len(w.specs) - 2; i >= 0; i-- {
			t, err := newTransformer(w.specs[i])
			if err != nil {
				return err
			}
			ew := filter.NewEncodeWriter(head, t)
			wraps = append(wraps, ew)
			head = ew
		}
		w.chain = &chainState{lzma2: lz, head: head, wraps: wraps}
	}
	_, err := w.chain.head.Write(p)
	return err
}

func (w *Writer) finishBlock() error {
	if w.chain == nil {
		// No data reached this block, so no block is written; Close also
		// skips finishBlock for a block with zero bytes.
		return nil
	}
	for _, ew := range w.chain.wraps {
		if err := ew.Close(); err != nil {
			return err
		}
	}
	if err := w.chain.lzma2.Close(); err != nil {
		return err
	}

	var headerBuf bytes.Buffer
	if err := writeBlockHeader(&headerBuf, blockHeader{
		compressedSize:   int64(w.blockBuf.Len()),
		uncompressedSize: w.blockUn,
		filters:          w.specs,
	}); err != nil {
		return err
	}
	checkBytes := w.blockHash.Sum(nil)
	unpaddedSize := headerBuf.Len() + w.blockBuf.Len() + len(checkBytes)

	cw := &countingWriter{w: w.dst}
	if _, err := cw.Write(headerBuf.Bytes()); err != nil {
		return err
	}
	if _, err := cw.Write(w.blockBuf.Bytes()); err != nil {
		return err
	}
	padded := w.blockBuf.Len()
	for padded%4 != 0 {
		if _, err := cw.Write([]byte{0}); err != nil {
			return err
		}
		padded++
	}
	if _, err := cw.Write(checkBytes); err != nil {
		return err
	}

	w.records = append(w.records, indexRecord{
		unpaddedSize:     uint64(unpaddedSize),
		uncompressedSize: uint64(w.blockUn),
	})
	return nil
}

func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if !w.started {
		if err := writeStreamHeader(w.dst, w.opts.Check); err != nil {
			return err
		}
		w.started = true
	} else if w.blockUn > 0 || w.chain != nil {
		if err := w.finishBlock(); err != nil {
			return err
		}
	}
	indexSize, err := writeIndex(w.dst, w.records)
	if err != nil {
		return err
	}
	return writeStreamFooter(w.dst, w.opts.Check, indexSize)
}

// noopHash is used when Options.Check is CheckNone: a CheckType.Size() of 0
// means Sum(nil) must return a zero-length slice.
type noopHash struct{}

func (noopHash) Write(p []byte) (int, error) { return len(p), nil }
func (noopHash) Sum(b []byte) []byte         { return b }
func (noopHash) Reset()                      {}
func (noopHash) Size() int                   { return 0 }
func (noopHash) BlockSize() int              { return 1 }
