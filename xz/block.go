// SPDX-License-Identifier: MIT

package xz

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/arkiv-go/lzma/filter"
)

// filterSpec is one entry of a block's filter chain: an ID plus whatever
// property bytes that filter needs (only Delta carries one: distance-1).
type filterSpec struct {
	id    filter.ID
	props []byte
}

// blockHeader holds the fields parsed from a block's header, before its
// payload is read.
type blockHeader struct {
	compressedSize   int64 // -1 if absent
	uncompressedSize int64 // -1 if absent
	filters          []filterSpec
}

const blockFlagCompressedSizePresent = 1 << 6
const blockFlagUncompressedSizePresent = 1 << 7
const blockFlagNumFiltersMask = 0x03

// writeBlockHeader serialises a block header padded to a multiple of 4
// bytes, with its trailing CRC32, per spec.md §6.
func writeBlockHeader(w io.Writer, h blockHeader) error {
	if len(h.filters) == 0 || len(h.filters) > 4 {
		return fmt.Errorf("%w: block filter chain must have 1..4 filters", ErrInvalidData)
	}
	var body bytes.Buffer
	flags := byte(len(h.filters) - 1)
	if h.compressedSize >= 0 {
		flags |= blockFlagCompressedSizePresent
	}
	if h.uncompressedSize >= 0 {
		flags |= blockFlagUncompressedSizePresent
	}
	body.WriteByte(flags)
	if h.compressedSize >= 0 {
		body.Write(PutVLI(nil, uint64(h.compressedSize)))
	}
	if h.uncompressedSize >= 0 {
		body.Write(PutVLI(nil, uint64(h.uncompressedSize)))
	}
	for _, f := range h.filters {
		body.Write(PutVLI(nil, uint64(f.id)))
		body.Write(PutVLI(nil, uint64(len(f.props))))
		body.Write(f.props)
	}
	for (1+body.Len())%4 != 0 {
		body.WriteByte(0)
	}

	headerSize := 1 + body.Len() + 4
	if headerSize%4 != 0 || headerSize > 1020 {
		return fmt.Errorf("%w: block header size out of range", ErrInvalidData)
	}
	full := make([]byte, 1, 1+body.Len()+4)
	full[0] = byte(headerSize / 4)
	full = append(full, body.Bytes()...)
	sum := crc32.ChecksumIEEE(full)
	full = binary.LittleEndian.AppendUint32(full, sum)
	_, err := w.Write(full)
	return err
}

// readBlockHeader reads a block header, or reports (nil, nil) if the leading
// byte is the index indicator (0x00), meaning "no more blocks".
func readBlockHeader(r io.Reader) (*blockHeader, error) {
	var sizeByte [1]byte
	if _, err := io.ReadFull(r, sizeByte[:]); err != nil {
		return nil, err
	}
	if sizeByte[0] == 0x00 {
		return nil, nil
	}
	headerSize := int(sizeByte[0]) * 4
	rest := make([]byte, headerSize-1)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	full := append(sizeByte[:], rest...)
	body, crcField := full[:headerSize-4], full[headerSize-4:]
	if binary.LittleEndian.Uint32(crcField) != crc32.ChecksumIEEE(full[:headerSize-4]) {
		return nil, fmt.Errorf("%w: block header CRC mismatch", ErrInvalidData)
	}

	br := bytes.NewReader(body[2:])
	flags := body[1]
	h := &blockHeader{compressedSize: -1, uncompressedSize: -1}
	if flags&blockFlagCompressedSizePresent != 0 {
		v, err := ReadVLI(br)
		if err != nil {
			return nil, err
		}
		h.compressedSize = int64(v)
	}
	if flags&blockFlagUncompressedSizePresent != 0 {
		v, err := ReadVLI(br)
		if err != nil {
			return nil, err
		}
		h.uncompressedSize = int64(v)
	}
	numFilters := int(flags&blockFlagNumFiltersMask) + 1
	for i := 0; i < numFilters; i++ {
		id, err := ReadVLI(br)
		if err != nil {
			return nil, err
		}
		propLen, err := ReadVLI(br)
		if err != nil {
			return nil, err
		}
		props := make([]byte, propLen)
		if _, err := io.ReadFull(br, props); err != nil {
			return nil, err
		}
		h.filters = append(h.filters, filterSpec{id: filter.ID(id), props: props})
	}
	if len(h.filters) == 0 || h.filters[len(h.filters)-1].id != filter.IDLZMA2 {
		return nil, fmt.Errorf("%w: block filter chain must end in LZMA2", ErrInvalidData)
	}
	return h, nil
}
