// SPDX-License-Identifier: MIT

package lzma

import "fmt"

// Properties are the three literal/position bit-width parameters plus the
// dictionary size that together fix an LZMA stream's probability-model
// shape (spec.md §3). The single "props byte" encoding, (pb*5+lp)*9+lc, is
// the format lzip and raw .lzma headers both use to carry lc/lp/pb in one
// byte.
type Properties struct {
	LC       uint32
	LP       uint32
	PB       uint32
	DictSize uint32
}

// DefaultProperties matches xz-utils' default preset: lc=3, lp=0, pb=2.
func DefaultProperties(dictSize uint32) Properties {
	return Properties{LC: 3, LP: 0, PB: 2, DictSize: dictSize}
}

func (p Properties) validate() error {
	if p.LC > 8 {
		return fmt.Errorf("%w: lc %d out of range", ErrInvalidInput, p.LC)
	}
	if p.LP > 4 {
		return fmt.Errorf("%w: lp %d out of range", ErrInvalidInput, p.LP)
	}
	if p.PB > 4 {
		return fmt.Errorf("%w: pb %d out of range", ErrInvalidInput, p.PB)
	}
	if p.LC+p.LP > 4 {
		return fmt.Errorf("%w: lc+lp %d exceeds 4", ErrInvalidInput, p.LC+p.LP)
	}
	if p.DictSize < DictSizeMin || p.DictSize > DictSizeMax {
		return fmt.Errorf("%w: dict size %d out of range", ErrInvalidInput, p.DictSize)
	}
	return nil
}

// PropsByte packs lc/lp/pb into the single byte raw LZMA and lzip headers
// store.
func (p Properties) PropsByte() byte {
	return byte((p.PB*5+p.LP)*9 + p.LC)
}

// PropertiesFromByte unpacks a props byte plus an externally-carried
// dictionary size into Properties, validating both.
func PropertiesFromByte(b byte, dictSize uint32) (Properties, error) {
	d := uint32(b)
	if d >= 9*5*9 {
		return Properties{}, fmt.Errorf("%w: props byte %d out of range", ErrInvalidData, b)
	}
	lc := d % 9
	d /= 9
	lp := d % 5
	pb := d / 5
	p := Properties{LC: lc, LP: lp, PB: pb, DictSize: dictSize}
	if err := p.validate(); err != nil {
		return Properties{}, err
	}
	return p, nil
}
