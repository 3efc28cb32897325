// SPDX-License-Identifier: MIT

// Package lzip implements the lzip container format (C12, spec.md §4.9.2):
// a magic/version/dict-size header wrapping a single fixed-parameter LZMA2
// stream, closed by a CRC32/size trailer.
package lzip

const (
	DictSizeMin = 1 << 12
	DictSizeMax = 512 << 20
)

// encodeDictSizeByte packs dictSize into lzip's single dictionary-size
// byte: low 5 bits are a base-2 log in [12,29], high 3 bits are a fraction
// subtracted from that power of two (spec.md §6). Encoding always picks
// frac=0 and rounds dictSize up to the next power of two, which is lossy
// but round-trips through decodeDictSizeByte at or above the requested
// size, same as lzip's own reference encoder at its default presets.
func encodeDictSizeByte(dictSize uint32) byte {
	if dictSize < DictSizeMin {
		dictSize = DictSizeMin
	}
	if dictSize > DictSizeMax {
		dictSize = DictSizeMax
	}
	base := uint32(12)
	for base < 29 && (uint32(1)<<base) < dictSize {
		base++
	}
	return byte(base)
}

func decodeDictSizeByte(b byte) uint32 {
	base := uint32(b & 0x1F)
	frac := uint32(b >> 5)
	if base < 12 {
		base = 12
	}
	if base > 29 {
		base = 29
	}
	size := (uint32(1) << base)
	if frac > 0 {
		size -= frac * (uint32(1) << (base - 4))
	}
	if size < DictSizeMin {
		size = DictSizeMin
	}
	if size > DictSizeMax {
		size = DictSizeMax
	}
	return size
}
