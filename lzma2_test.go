// SPDX-License-Identifier: MIT

package lzma

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

func lzma2RoundTrip(t *testing.T, data []byte, opts EncoderOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, opts)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()), opts.Props.DictSize)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
	return buf.Bytes()
}

// TestLZMA2_RoundTripAcrossPresets is spec.md §8's round-trip property for
// the LZMA2 container: decompress(compress(data, L)) == data for every
// preset level.
func TestLZMA2_RoundTripAcrossPresets(t *testing.T) {
	inputs := map[string][]byte{
		"empty":    {},
		"single":   {0x42},
		"aaaa":     []byte("aaaaaaaaaa"),
		"text":     bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 50),
		"zeros-1k": make([]byte, 1024),
	}
	for name, data := range inputs {
		for preset := 0; preset <= 9; preset++ {
			t.Run(name, func(t *testing.T) {
				opts := PresetOptions(preset, 0)
				lzma2RoundTrip(t, data, opts)
			})
		}
	}
}

// TestLZMA2_Determinism covers spec.md §8: compressing the same input twice
// at the same settings produces byte-identical output.
func TestLZMA2_Determinism(t *testing.T) {
	data := bytes.Repeat([]byte("determinism check payload "), 200)
	opts := PresetOptions(6, 0)

	out1 := lzma2RoundTrip(t, data, opts)
	out2 := lzma2RoundTrip(t, data, opts)
	if !bytes.Equal(out1, out2) {
		t.Fatalf("encoding the same input twice produced different output")
	}
}

// TestLZMA2_Scenario2_ShortLiteralChunk is spec.md §8 scenario 2: a 10-byte
// "aaaaaaaaaa" payload at level 0 produces exactly one LZMA chunk, framed as
// control byte + 2-byte size + 2-byte compressed size + props byte +
// payload + the 0x00 terminator.
func TestLZMA2_Scenario2_ShortLiteralChunk(t *testing.T) {
	data := []byte("aaaaaaaaaa")
	opts := PresetOptions(0, 0)

	var buf bytes.Buffer
	w := NewWriter(&buf, opts)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := buf.Bytes()
	if len(out) < 1+2+2+1+1 {
		t.Fatalf("stream too short for one LZMA chunk: %d bytes", len(out))
	}
	if out[len(out)-1] != 0x00 {
		t.Fatalf("missing end-of-stream terminator, last byte = %#x", out[len(out)-1])
	}
	control := out[0]
	if control&0x80 == 0 {
		t.Fatalf("expected an LZMA chunk control byte, got %#x", control)
	}
	uSize := (int(control&0x1F)<<16 | int(out[1])<<8 | int(out[2])) + 1
	if uSize != len(data) {
		t.Fatalf("declared uncompressed size %d, want %d", uSize, len(data))
	}
	cSize := int(out[3])<<8 | int(out[4])
	cSize++
	propsByte := out[5]
	payloadEnd := 6 + cSize
	if payloadEnd+1 != len(out) {
		t.Fatalf("framing mismatch: header+payload ends at %d, stream is %d bytes (terminator expected right after)", payloadEnd, len(out))
	}
	_ = propsByte

	r := NewReader(bytes.NewReader(out), opts.Props.DictSize)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch: got %q want %q", got, data)
	}
}

// TestLZMA2_Scenario3_MTMatchesSequentialDecode is spec.md §8 scenario 3
// plus the single-/multi-threaded decode equivalence property: a
// multi-threaded encode, chunked at the dictionary size, decodes (both
// single- and multi-threaded) to the original random payload.
func TestLZMA2_Scenario3_MTMatchesSequentialDecode(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, 1<<20)
	rng.Read(data)

	opts := PresetOptions(3, 0)
	opts.Props.DictSize = 1 << 18 // small enough that 1 MiB spans several chunks

	var buf bytes.Buffer
	w := NewWriterMTChunkSize(&buf, opts, 4, int(opts.Props.DictSize))
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	seq := NewReader(bytes.NewReader(buf.Bytes()), opts.Props.DictSize)
	gotSeq, err := io.ReadAll(seq)
	if err != nil {
		t.Fatalf("sequential ReadAll: %v", err)
	}
	if !bytes.Equal(gotSeq, data) {
		t.Fatalf("sequential decode mismatch: got %d bytes, want %d", len(gotSeq), len(data))
	}

	mt := NewReaderMT(bytes.NewReader(buf.Bytes()), opts.Props.DictSize, 4)
	gotMT, err := io.ReadAll(mt)
	if err != nil {
		t.Fatalf("MT ReadAll: %v", err)
	}
	if !bytes.Equal(gotMT, data) {
		t.Fatalf("MT decode mismatch: got %d bytes, want %d", len(gotMT), len(data))
	}
}

// TestLZMA2_TruncatedStream is one of spec.md §8's negative scenarios:
// truncating the stream by one byte before the terminator must fail rather
// than silently succeed or crash.
func TestLZMA2_TruncatedStream(t *testing.T) {
	data := []byte("aaaaaaaaaa")
	opts := PresetOptions(0, 0)

	var buf bytes.Buffer
	w := NewWriter(&buf, opts)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	truncated := buf.Bytes()[:len(buf.Bytes())-1]
	r := NewReader(bytes.NewReader(truncated), opts.Props.DictSize)
	_, err := io.ReadAll(r)
	if err == nil {
		t.Fatalf("expected an error decoding a truncated stream, got nil")
	}
}

// TestLZMA2_ChunkBoundaryRespect is spec.md §8's chunk-boundary-respect
// property: with a chunk size configured through NewWriterChunkSize, every
// chunk carries at most that many uncompressed bytes.
func TestLZMA2_ChunkBoundaryRespect(t *testing.T) {
	opts := PresetOptions(1, 0)
	chunkSize := int(opts.Props.DictSize)
	data := make([]byte, chunkSize*2+100)
	rng := rand.New(rand.NewSource(7))
	rng.Read(data)

	var buf bytes.Buffer
	w := NewWriterChunkSize(&buf, opts, chunkSize)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	src := buf.Bytes()
	pos := 0
	chunks := 0
	for pos < len(src) {
		control := src[pos]
		if control == 0x00 {
			break
		}
		chunks++
		if control&0x80 != 0 {
			uSize := (int(control&0x1F)<<16 | int(src[pos+1])<<8 | int(src[pos+2])) + 1
			if uSize > chunkSize {
				t.Fatalf("chunk %d declares %d uncompressed bytes, exceeds configured max %d", chunks, uSize, chunkSize)
			}
			cSize := (int(src[pos+3])<<8 | int(src[pos+4])) + 1
			pos += 1 + 2 + 2 + 1 + cSize
		} else {
			size := (int(src[pos+1])<<8 | int(src[pos+2])) + 1
			if size > chunkSize {
				t.Fatalf("raw chunk %d declares %d bytes, exceeds configured max %d", chunks, size, chunkSize)
			}
			pos += 1 + 2 + size
		}
	}
	if chunks < 2 {
		t.Fatalf("expected at least 2 chunks for a payload twice the configured chunk size, got %d", chunks)
	}

	r := NewReader(bytes.NewReader(src), opts.Props.DictSize)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch after chunked encode")
	}
}
