// SPDX-License-Identifier: MIT

package lzip

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestRoundTrip_SingleMember(t *testing.T) {
	inputs := map[string][]byte{
		"empty":  {},
		"short":  []byte("lzip round trip"),
		"medium": bytes.Repeat([]byte("the quick brown fox "), 500),
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, DictSizeMin)
			if err != nil {
				t.Fatalf("NewWriter: %v", err)
			}
			if _, err := w.Write(data); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			r, err := NewReader(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(got), len(data))
			}
			if r.MemberCount() != 1 {
				t.Fatalf("MemberCount() = %d, want 1", r.MemberCount())
			}
		})
	}
}

// TestScenario5_MultiMemberMT is spec.md §8 scenario 5: a repeating
// 0x00..0xFF payload, lzip-encoded with member size equal to the dictionary
// size, decodes (multi-threaded) back to the original bytes across more
// than one member.
func TestScenario5_MultiMemberMT(t *testing.T) {
	var frame [256]byte
	for i := range frame {
		frame[i] = byte(i)
	}
	data := bytes.Repeat(frame[:], 2000) // 512000 bytes, several members at dict-size boundaries

	dictSize := uint32(DictSizeMin)
	var buf bytes.Buffer
	w, err := NewWriterMTSize(&buf, dictSize, 4, uint64(dictSize))
	if err != nil {
		t.Fatalf("NewWriterMTSize: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReaderMT(bytes.NewReader(buf.Bytes()), 4)
	if err != nil {
		t.Fatalf("NewReaderMT: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
	if r.MemberCount() <= 1 {
		t.Fatalf("MemberCount() = %d, want > 1", r.MemberCount())
	}
}

func TestTrailerCRCMismatch(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, DictSizeMin)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Write([]byte("corrupt me")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw := buf.Bytes()
	// Flip all bits of one byte inside the trailer's CRC32 field (last 20
	// bytes, first 4).
	raw[len(raw)-20] ^= 0xFF

	r, err := NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	_, err = io.ReadAll(r)
	if !errors.Is(err, ErrTrailerCRC) {
		t.Fatalf("ReadAll: got %v, want ErrTrailerCRC", err)
	}
}
