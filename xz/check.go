// SPDX-License-Identifier: MIT

package xz

import (
	"crypto/sha256"
	"hash"
	"hash/crc32"
	"hash/crc64"
)

// CheckType is the integrity check algorithm named in a stream's flags
// byte (spec.md §6).
type CheckType byte

const (
	CheckNone   CheckType = 0x00
	CheckCRC32  CheckType = 0x01
	CheckCRC64  CheckType = 0x04
	CheckSHA256 CheckType = 0x0A
)

// Size returns how many bytes the selected check's digest occupies.
func (c CheckType) Size() int {
	switch c {
	case CheckCRC32:
		return 4
	case CheckCRC64:
		return 8
	case CheckSHA256:
		return 32
	default:
		return 0
	}
}

// crc64Table uses the CRC-64/XZ (ECMA-182) polynomial, exactly the one XZ's
// check field specifies; crc32 uses the ISO-HDLC polynomial both XZ and
// lzip specify. Both are stdlib-backed (no ecosystem CRC library in the
// retrieval pack computes these specific polynomials any more directly).
var crc64Table = crc64.MakeTable(crc64.ECMA)

// NewHash builds the hash.Hash for c, or nil for CheckNone.
func (c CheckType) NewHash() hash.Hash {
	switch c {
	case CheckCRC32:
		return crc32.NewIEEE()
	case CheckCRC64:
		return crc64.New(crc64Table)
	case CheckSHA256:
		return sha256.New()
	default:
		return nil
	}
}
