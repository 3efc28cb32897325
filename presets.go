// SPDX-License-Identifier: MIT

package lzma

// presetToDictSize and presetToDepthLimit are lzma-rust2's LzmaOptions
// preset table (enc/lzma2_writer.rs's with_preset/set_preset), ported
// verbatim: presets 0-3 are Hc4/Fast, 4-9 are Bt4/Normal, with the same
// nice_len steps (128/273 for Fast, 16/32/64 for Normal).
var presetToDictSize = [10]uint32{
	1 << 18, 1 << 20, 1 << 21, 1 << 22, 1 << 22,
	1 << 23, 1 << 23, 1 << 24, 1 << 25, 1 << 26,
}

var presetToDepthLimit = [4]int{4, 8, 24, 48}

// PresetOptions builds EncoderOptions for xz-utils-style compression level
// preset (0-9 inclusive, clamped), spec.md §8's "preset level L ∈ 0..=9"
// round-trip parameter. dictSize, when non-zero, overrides the preset's
// table dictionary size (used when a container format imposes its own
// dictionary-size convention, e.g. lzip's power-of-two byte).
func PresetOptions(preset int, dictSize uint32) EncoderOptions {
	if preset < 0 {
		preset = 0
	}
	if preset > 9 {
		preset = 9
	}
	opts := EncoderOptions{Props: Properties{LC: 3, LP: 0, PB: 2, DictSize: presetToDictSize[preset]}}
	if preset <= 3 {
		opts.Mode = ModeFast
		opts.UseBt4 = false
		if preset <= 1 {
			opts.NiceLen = 128
		} else {
			opts.NiceLen = 273
		}
		opts.DepthLimit = presetToDepthLimit[preset]
	} else {
		opts.Mode = ModeNormal
		opts.UseBt4 = true
		switch preset {
		case 4:
			opts.NiceLen = 16
		case 5:
			opts.NiceLen = 32
		default:
			opts.NiceLen = 64
		}
	}
	if dictSize != 0 {
		opts.Props.DictSize = dictSize
	}
	return opts
}
