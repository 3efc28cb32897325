// SPDX-License-Identifier: MIT

package lzma

// GetMemoryUsage estimates the bytes an Encoder built from opts will hold,
// in KiB, the same units and rough breakdown as lzma-rust2's
// LZMAEncoder::get_mem_usage (enc/encoder.rs): a small fixed overhead for
// the coder/probability tables plus the match finder's hash chains/tree and
// the window buffer, which dominate for any realistic dictionary size.
func GetMemoryUsage(opts EncoderOptions) uint32 {
	return memoryUsageKiB(opts.Props.DictSize, opts.NiceLen, opts.UseBt4)
}

// GetMemoryUsageByProps is GetMemoryUsage for callers that only have the
// wire Properties (e.g. deciding whether to allocate a Decoder before
// reading the rest of a header) and use the package's own encoder defaults
// for the match-finder parameters.
func GetMemoryUsageByProps(props Properties) uint32 {
	return memoryUsageKiB(props.DictSize, 64, true)
}

const kib = 1024

func memoryUsageKiB(dictSize uint32, niceLen int, useBt4 bool) uint32 {
	const fixedOverheadKiB = 80

	keepAfter := uint32(niceLenOrMax(niceLen) + MatchLenMax)
	winBytes := uint64(keepAfter)*2 + uint64(dictSize)

	hashBytes := uint64(hash2Size+hash3Size+hash4Size) * 4
	var treeOrChainBytes uint64
	if useBt4 {
		treeOrChainBytes = uint64(dictSize) * 2 * 4 // son[]: two int32 per dictionary position
	} else {
		treeOrChainBytes = uint64(dictSize) * 4 // chain[]: one int32 per dictionary position
	}

	total := winBytes + hashBytes + treeOrChainBytes
	return fixedOverheadKiB + uint32(total/kib)
}
