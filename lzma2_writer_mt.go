// SPDX-License-Identifier: MIT

package lzma

import (
	"bytes"
	"io"

	"github.com/arkiv-go/lzma/workpool"
)

// WriterMT is the parallel counterpart of Writer: because every LZMA2 chunk
// already carries a full props+state+dictionary reset (spec.md §4.6's
// independent-chunk design this package chose for Writer), chunks can be
// compressed by different goroutines with no shared state at all. Input is
// buffered whole, split into chunk-sized jobs dispatched to a workpool.Pool,
// and the pool's sequence-ordered results are written out in input order at
// Close, so the wire bytes are byte-for-byte what Writer would have produced
// for the same input (just computed concurrently).
type WriterMT struct {
	dst     io.Writer
	opts    EncoderOptions
	chunk   int
	workers int
	buf     []byte
	closed  bool
}

// NewWriterMT defaults the per-job chunk size the same way NewWriter does:
// clamped to opts.Props.DictSize so a chunk never outruns the per-job
// encoder window (window_encoder.go) for the small dictionary presets.
func NewWriterMT(dst io.Writer, opts EncoderOptions, workers int) *WriterMT {
	chunkSize := lzma2ChunkUncompressedMax
	if d := int(opts.Props.DictSize); d > 0 && d < chunkSize {
		chunkSize = d
	}
	return NewWriterMTChunkSize(dst, opts, workers, chunkSize)
}

// NewWriterMTChunkSize is NewWriterMT with an explicit per-job chunk size,
// same constraint as NewWriterChunkSize (each chunk's encoder window must
// hold the whole chunk).
func NewWriterMTChunkSize(dst io.Writer, opts EncoderOptions, workers int, chunkSize int) *WriterMT {
	if chunkSize <= 0 || chunkSize > lzma2ChunkUncompressedMax {
		chunkSize = lzma2ChunkUncompressedMax
	}
	return &WriterMT{dst: dst, opts: opts, chunk: chunkSize, workers: workers}
}

func (w *WriterMT) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *WriterMT) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	pool := workpool.New(w.workers)
	njobs := 0
	for off := 0; off < len(w.buf); off += w.chunk {
		end := off + w.chunk
		if end > len(w.buf) {
			end = len(w.buf)
		}
		chunkData := w.buf[off:end]
		opts := w.opts
		pool.Dispatch(func(seq int) (any, error) {
			var out bytes.Buffer
			if err := encodeOneChunk(&out, chunkData, opts); err != nil {
				return nil, err
			}
			return out.Bytes(), nil
		})
		njobs++
	}
	pool.Finish()

	for i := 0; i < njobs; i++ {
		val, ok, err := pool.GetResult()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if _, err := w.dst.Write(val.([]byte)); err != nil {
			return err
		}
	}

	_, err := w.dst.Write([]byte{0x00})
	return err
}

// encodeOneChunk is flushChunk's logic factored out so Writer (sequential)
// and WriterMT (parallel) share the exact same per-chunk framing.
func encodeOneChunk(dst io.Writer, data []byte, opts EncoderOptions) error {
	if len(data) == 0 {
		return nil
	}
	rc := newRangeEncoder()
	enc, err := NewEncoder(rc, opts)
	if err != nil {
		return err
	}
	if _, err := enc.Write(data); err != nil {
		return err
	}
	enc.Finish(opts.Mode)
	rc.finish()

	if len(rc.out)+2 < len(data) && len(rc.out) <= 1<<16 {
		return writeLZMAChunk(dst, data, rc.out, opts.Props)
	}
	return writeRawChunks(dst, data)
}
