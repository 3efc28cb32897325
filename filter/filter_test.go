// SPDX-License-Identifier: MIT

package filter

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

func roundTripViaWriterReader(t *testing.T, t1, t2 Transformer, data []byte) []byte {
	t.Helper()
	var encoded bytes.Buffer
	w := NewEncodeWriter(&encoded, t1)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r := NewDecodeReader(bytes.NewReader(encoded.Bytes()), t2)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return got
}

func TestBCJX86_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	data := make([]byte, 8192)
	rng.Read(data)
	// Sprinkle plausible CALL/JMP opcodes so the transform has real work to
	// do, not just pass bytes through untouched.
	for i := 0; i+5 < len(data); i += 37 {
		data[i] = 0xE8
	}

	got := roundTripViaWriterReader(t, NewBCJX86(), NewBCJX86(), data)
	if !bytes.Equal(got, data) {
		t.Fatalf("BCJ x86 round-trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
}

func TestBCJX86_SmallInputPassesThroughUnchanged(t *testing.T) {
	data := []byte{0xE8, 0x01, 0x02}
	got := roundTripViaWriterReader(t, NewBCJX86(), NewBCJX86(), data)
	if !bytes.Equal(got, data) {
		t.Fatalf("short input should pass through unchanged: got % x want % x", got, data)
	}
}

func TestDeltaFilter_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	for _, distance := range []int{1, 2, 4, 16, 256} {
		data := make([]byte, 4096)
		rng.Read(data)
		got := roundTripViaWriterReader(t, NewDeltaFilter(distance), NewDeltaFilter(distance), data)
		if !bytes.Equal(got, data) {
			t.Fatalf("delta(%d) round-trip mismatch: got %d bytes, want %d", distance, len(got), len(data))
		}
	}
}

func TestDeltaFilter_ExposesStridedPatterns(t *testing.T) {
	// 4-byte sample frames repeated verbatim: delta(4) should turn this
	// into a run of zero bytes after the first frame.
	frame := []byte{0x10, 0x20, 0x30, 0x40}
	data := bytes.Repeat(frame, 100)

	f := NewDeltaFilter(4)
	buf := append([]byte(nil), data...)
	n := f.Encode(buf)
	if n != len(buf) {
		t.Fatalf("Encode transformed %d of %d bytes", n, len(buf))
	}
	for i := 4; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d: got %#x, want 0 for a repeated stride", i, buf[i])
		}
	}
}
