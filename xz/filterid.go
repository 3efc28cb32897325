// SPDX-License-Identifier: MIT

package xz

import (
	"fmt"

	"github.com/arkiv-go/lzma/filter"
)

// newTransformer builds the Transformer a pre-filter spec names. LZMA2 never
// reaches here: it is handled directly by the block reader/writer since it
// is the actual compressor, not a byte-rewriting pre-filter.
func newTransformer(spec filterSpec) (filter.Transformer, error) {
	switch spec.id {
	case filter.IDBCJX86:
		return filter.NewBCJX86(), nil
	case filter.IDDelta:
		if len(spec.props) != 1 {
			return nil, fmt.Errorf("%w: delta filter needs a 1-byte properties field", ErrInvalidData)
		}
		return filter.NewDeltaFilter(int(spec.props[0]) + 1), nil
	default:
		return nil, fmt.Errorf("%w: unknown filter id 0x%x", ErrUnsupported, uint64(spec.id))
	}
}

// deltaProps encodes a Delta filter's single property byte (distance-1).
func deltaProps(distance int) []byte {
	return []byte{byte(distance - 1)}
}
