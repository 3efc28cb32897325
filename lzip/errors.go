// SPDX-License-Identifier: MIT

package lzip

import "errors"

var (
	ErrBadMagic    = errors.New("lzip: bad magic")
	ErrBadVersion  = errors.New("lzip: unsupported version")
	ErrTrailerCRC  = errors.New("lzip: trailer CRC32 mismatch")
	ErrTrailerSize = errors.New("lzip: trailer data_size mismatch")
	ErrTruncated   = errors.New("lzip: truncated member")
)
