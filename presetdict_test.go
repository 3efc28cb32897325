// SPDX-License-Identifier: MIT

package lzma

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

// TestPresetDictionary_RoundTripAndRatio is spec.md §8's preset-dictionary
// property: compressing D||data without a preset dictionary and compressing
// data alone with preset dictionary D both decompress back to the original
// payloads, and the preset-dictionary form produces strictly smaller output
// when data reuses bytes from D. data here is built entirely from slices of
// D with no internal repetition of its own, so the size gap can only come
// from the encoder actually matching into the preset dictionary, not from
// incidental redundancy within data itself.
func TestPresetDictionary_RoundTripAndRatio(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	dict := make([]byte, 300)
	rng.Read(dict)

	var data []byte
	for i := 0; i < 600; i++ {
		length := 20 + rng.Intn(40)
		off := rng.Intn(len(dict) - length)
		data = append(data, dict[off:off+length]...)
	}

	dictSize := uint32(1 << 16)
	opts := PresetOptions(6, dictSize)

	// Scenario A: compress D||data with no preset dictionary.
	withoutDict := append(append([]byte(nil), dict...), data...)
	var bufA bytes.Buffer
	wA := NewRawWriter(&bufA, opts)
	if _, err := wA.Write(withoutDict); err != nil {
		t.Fatalf("scenario A Write: %v", err)
	}
	if err := wA.Close(); err != nil {
		t.Fatalf("scenario A Close: %v", err)
	}
	gotA, err := io.ReadAll(NewRawReader(bytes.NewReader(bufA.Bytes())))
	if err != nil {
		t.Fatalf("scenario A ReadAll: %v", err)
	}
	if !bytes.Equal(gotA, withoutDict) {
		t.Fatalf("scenario A round-trip mismatch: got %d bytes, want %d", len(gotA), len(withoutDict))
	}

	// Scenario B: compress data alone with dict as a preset dictionary.
	optsB := opts
	optsB.PresetDict = dict
	var bufB bytes.Buffer
	wB := NewRawWriter(&bufB, optsB)
	if _, err := wB.Write(data); err != nil {
		t.Fatalf("scenario B Write: %v", err)
	}
	if err := wB.Close(); err != nil {
		t.Fatalf("scenario B Close: %v", err)
	}
	gotB, err := io.ReadAll(NewRawReaderPresetDict(bytes.NewReader(bufB.Bytes()), dict))
	if err != nil {
		t.Fatalf("scenario B ReadAll: %v", err)
	}
	if !bytes.Equal(gotB, data) {
		t.Fatalf("scenario B round-trip mismatch: got %d bytes, want %d", len(gotB), len(data))
	}

	if bufB.Len() >= bufA.Len() {
		t.Fatalf("preset-dictionary compression (%d bytes) not smaller than encoding the dictionary inline (%d bytes)", bufB.Len(), bufA.Len())
	}
}

// TestPresetDictionary_WrongDictFailsOrDiverges confirms a decoder given the
// wrong preset dictionary does not silently reproduce the original payload
// byte-for-byte (it either errors or decodes to something else, since every
// back-reference into the dictionary now resolves against different bytes).
func TestPresetDictionary_WrongDictFailsOrDiverges(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	dict := make([]byte, 300)
	rng.Read(dict)
	wrongDict := make([]byte, 300)
	rng.Read(wrongDict)

	var data []byte
	for i := 0; i < 300; i++ {
		length := 20 + rng.Intn(40)
		off := rng.Intn(len(dict) - length)
		data = append(data, dict[off:off+length]...)
	}

	opts := PresetOptions(6, 1<<16)
	opts.PresetDict = dict
	var buf bytes.Buffer
	w := NewRawWriter(&buf, opts)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := io.ReadAll(NewRawReaderPresetDict(bytes.NewReader(buf.Bytes()), wrongDict))
	if err == nil && bytes.Equal(got, data) {
		t.Fatalf("decoding with the wrong preset dictionary reproduced the original payload")
	}
}
