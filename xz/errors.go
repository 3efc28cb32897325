// SPDX-License-Identifier: MIT

package xz

import "errors"

var (
	ErrInvalidData   = errors.New("xz: invalid data")
	ErrUnsupported   = errors.New("xz: unsupported")
	ErrCheckMismatch = errors.New("xz: integrity check mismatch")
)
