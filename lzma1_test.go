// SPDX-License-Identifier: MIT

package lzma

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// TestRawLZMA_Scenario4_ZerosUnderOneKiB is spec.md §8 scenario 4: 1 MiB of
// zeros, raw-LZMA-encoded at level 6, decodes back to exactly the input and
// compresses to well under 1 KiB.
func TestRawLZMA_Scenario4_ZerosUnderOneKiB(t *testing.T) {
	data := make([]byte, 1<<20)
	opts := PresetOptions(6, 0)

	var buf bytes.Buffer
	w := NewRawWriter(&buf, opts)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if buf.Len() >= 1024 {
		t.Fatalf("compressed size %d, want under 1024 bytes for an all-zero payload", buf.Len())
	}

	r := NewRawReader(bytes.NewReader(buf.Bytes()))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
}

func TestRawLZMA_RoundTripAcrossPresets(t *testing.T) {
	inputs := map[string][]byte{
		"empty":  {},
		"small":  []byte("a short raw LZMA1 payload"),
		"binary": bytes.Repeat([]byte{0x00, 0x01, 0xFF, 0x7E}, 5000),
	}
	for name, data := range inputs {
		for preset := 0; preset <= 9; preset++ {
			t.Run(name, func(t *testing.T) {
				opts := PresetOptions(preset, 0)
				var buf bytes.Buffer
				w := NewRawWriter(&buf, opts)
				if _, err := w.Write(data); err != nil {
					t.Fatalf("Write: %v", err)
				}
				if err := w.Close(); err != nil {
					t.Fatalf("Close: %v", err)
				}
				r := NewRawReader(bytes.NewReader(buf.Bytes()))
				got, err := io.ReadAll(r)
				if err != nil {
					t.Fatalf("ReadAll: %v", err)
				}
				if !bytes.Equal(got, data) {
					t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(got), len(data))
				}
			})
		}
	}
}

// TestRawLZMA_PayloadExceedsWindow covers RawWriter.Close's explicit
// capacity check: a payload larger than the fixed encoder window must fail
// with ErrInvalidInput rather than silently truncate or corrupt.
func TestRawLZMA_PayloadExceedsWindow(t *testing.T) {
	opts := DefaultEncoderOptions(DictSizeMin)
	capacity := uint64(niceLenOrMax(opts.NiceLen)+MatchLenMax)*2 + uint64(opts.Props.DictSize)

	w := NewRawWriter(io.Discard, opts)
	if _, err := w.Write(make([]byte, capacity+1)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Close: got %v, want ErrInvalidInput", err)
	}
}

// TestProperties_RejectsOutOfRangeLCLP is one of spec.md §8's negative
// scenarios: lc=5, lp=4 (lc+lp=9 > 4) must be rejected at construction.
func TestProperties_RejectsOutOfRangeLCLP(t *testing.T) {
	p := Properties{LC: 5, LP: 4, PB: 2, DictSize: DictSizeMin}
	if err := p.validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("validate: got %v, want ErrInvalidInput", err)
	}

	opts := EncoderOptions{Props: p, Mode: ModeNormal, NiceLen: 32}
	if _, err := NewEncoder(newRangeEncoder(), opts); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("NewEncoder: got %v, want ErrInvalidInput", err)
	}
}
