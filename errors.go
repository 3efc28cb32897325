// SPDX-License-Identifier: MIT

package lzma

import "errors"

// Sentinel errors for the failure classes in spec.md §7. Callers compare
// with errors.Is; internal code wraps these with context via fmt.Errorf's
// %w verb so the sentinel survives wrapping.
var (
	// ErrInvalidData is returned for malformed headers/footers, checksum
	// mismatches, out-of-range properties, distances exceeding the
	// dictionary, incomplete range-coder streams, or unexpected control
	// bytes.
	ErrInvalidData = errors.New("lzma: invalid data")

	// ErrInvalidInput is returned for caller-supplied misconfiguration such
	// as lc+lp > 4, an out-of-range dictionary size, or an expected-size
	// mismatch on finish.
	ErrInvalidInput = errors.New("lzma: invalid input")

	// ErrUnsupported is returned for unknown filter IDs or unknown XZ check
	// types.
	ErrUnsupported = errors.New("lzma: unsupported")

	// ErrOutOfMemory is returned by Encoder.Write when the encoder's window
	// has no room left for more input.
	ErrOutOfMemory = errors.New("lzma: out of memory")

	// ErrClosed names the closed-stream condition. No reader or writer in
	// this module returns it: a second Close returns nil.
	ErrClosed = errors.New("lzma: stream closed")
)
