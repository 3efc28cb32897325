// SPDX-License-Identifier: MIT

package xz

import (
	"bytes"
	"io"

	"github.com/arkiv-go/lzma"
	"github.com/arkiv-go/lzma/filter"
	"github.com/arkiv-go/lzma/workpool"
)

// WriterMT is Writer's parallel counterpart: input is buffered whole, split
// into Options.BlockSize-sized blocks, and each block's filter-chain+LZMA2
// compression runs as an independent workpool.Pool job (blocks never share
// probability state or a dictionary, so this is safe the same way
// lzma.WriterMT's per-chunk parallelism is). Blocks are written out to dst
// in original order once every job completes.
type WriterMT struct {
	dst     io.Writer
	opts    Options
	specs   []filterSpec
	workers int
	buf     []byte
	closed  bool
}

func NewWriterMT(dst io.Writer, opts Options, workers int) (*WriterMT, error) {
	specs, err := opts.filterChain()
	if err != nil {
		return nil, err
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = 1 << 24
	}
	return &WriterMT{dst: dst, opts: opts, specs: specs, workers: workers}, nil
}

func (w *WriterMT) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

type blockResult struct {
	headerBuf bytes.Buffer
	body      []byte
	check     []byte
	unSize    int64
}

func (w *WriterMT) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := writeStreamHeader(w.dst, w.opts.Check); err != nil {
		return err
	}

	pool := workpool.New(w.workers)
	njobs := 0
	for off := int64(0); off < int64(len(w.buf)); off += w.opts.BlockSize {
		end := off + w.opts.BlockSize
		if end > int64(len(w.buf)) {
			end = int64(len(w.buf))
		}
		data := w.buf[off:end]
		specs := w.specs
		opts := w.opts
		pool.Dispatch(func(seq int) (any, error) {
			return compileBlock(data, specs, opts)
		})
		njobs++
	}
	pool.Finish()

	var records []indexRecord
	for i := 0; i < njobs; i++ {
		val, ok, err := pool.GetResult()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		br := val.(blockResult)

		cw := &countingWriter{w: w.dst}
		if _, err := cw.Write(br.headerBuf.Bytes()); err != nil {
			return err
		}
		if _, err := cw.Write(br.body); err != nil {
			return err
		}
		padded := len(br.body)
		for padded%4 != 0 {
			if _, err := cw.Write([]byte{0}); err != nil {
				return err
			}
			padded++
		}
		if _, err := cw.Write(br.check); err != nil {
			return err
		}
		records = append(records, indexRecord{
			unpaddedSize:     uint64(br.headerBuf.Len() + len(br.body) + len(br.check)),
			uncompressedSize: uint64(br.unSize),
		})
	}

	indexSize, err := writeIndex(w.dst, records)
	if err != nil {
		return err
	}
	return writeStreamFooter(w.dst, w.opts.Check, indexSize)
}

// compileBlock runs one block's filter chain + LZMA2 compression and its
// integrity check entirely in memory, independent of any other block.
func compileBlock(data []byte, specs []filterSpec, opts Options) (blockResult, error) {
	var body bytes.Buffer
	lz := lzma.NewWriter(&body, opts.LZMA)
	var head io.Writer = lz
	var wraps []*filter.EncodeWriter
	for i := len(specs) - 2; i >= 0; i-- {
		t, err := newTransformer(specs[i])
		if err != nil {
			return blockResult{}, err
		}
		ew := filter.NewEncodeWriter(head, t)
		wraps = append(wraps, ew)
		head = ew
	}
	if _, err := head.Write(data); err != nil {
		return blockResult{}, err
	}
	for _, ew := range wraps {
		if err := ew.Close(); err != nil {
			return blockResult{}, err
		}
	}
	if err := lz.Close(); err != nil {
		return blockResult{}, err
	}

	var checkBytes []byte
	if hh := opts.Check.NewHash(); hh != nil {
		hh.Write(data)
		checkBytes = hh.Sum(nil)
	}

	var headerBuf bytes.Buffer
	if err := writeBlockHeader(&headerBuf, blockHeader{
		compressedSize:   int64(body.Len()),
		uncompressedSize: int64(len(data)),
		filters:          specs,
	}); err != nil {
		return blockResult{}, err
	}

	return blockResult{headerBuf: headerBuf, body: body.Bytes(), check: checkBytes, unSize: int64(len(data))}, nil
}
