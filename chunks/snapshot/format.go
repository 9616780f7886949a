// Package snapshot encodes chunk indexes into a compact, versioned binary
// format and restores them with every index invariant re-checked.
//
// # Layout
//
// All integers are big-endian.
//
//	header (32 bytes)
//	   0  magic "CHK4"
//	   4  version (1)
//	   5  compression (0 none, 1 snappy, 2 zstd)
//	   6  reserved (2 bytes, zero)
//	   8  root chunk id
//	  12  chunk count
//	  16  free id count
//	  20  payload length (bytes after the header, as stored)
//	  24  CRC-32 (IEEE) of the uncompressed body
//	  28  reserved (4 bytes, zero)
//	body
//	  chunk count × 16 packed links (4 bytes each)
//	  free id count × free ids, ascending
//
// The body is the packed arena exactly as it would be uploaded to a device,
// followed by the free pool.
package snapshot

import (
	"encoding/binary"
)

const (
	// Magic identifies snapshot files.
	Magic = "CHK4"

	// Version is the only format version written and read.
	Version = 1

	// HeaderBytes is the fixed header size.
	HeaderBytes = 32

	linkBytes = 4
	idBytes   = 4
)

// header is the decoded fixed-size header.
type header struct {
	Compression Compression
	Root        uint32
	ChunkCount  uint32
	FreeCount   uint32
	PayloadLen  uint32
	Checksum    uint32
}

func (h header) bodyLen() uint64 {
	return uint64(h.ChunkCount)*16*linkBytes + uint64(h.FreeCount)*idBytes
}

func putHeader(dst []byte, h header) {
	copy(dst[0:4], Magic)
	dst[4] = Version
	dst[5] = byte(h.Compression)
	dst[6] = 0
	dst[7] = 0
	binary.BigEndian.PutUint32(dst[8:12], h.Root)
	binary.BigEndian.PutUint32(dst[12:16], h.ChunkCount)
	binary.BigEndian.PutUint32(dst[16:20], h.FreeCount)
	binary.BigEndian.PutUint32(dst[20:24], h.PayloadLen)
	binary.BigEndian.PutUint32(dst[24:28], h.Checksum)
	binary.BigEndian.PutUint32(dst[28:32], 0)
}

func readHeader(src []byte) (header, error) {
	if len(src) < HeaderBytes {
		return header{}, ErrTruncated
	}
	if string(src[0:4]) != Magic {
		return header{}, ErrBadMagic
	}
	if src[4] != Version {
		return header{}, ErrUnsupportedVersion
	}
	h := header{
		Compression: Compression(src[5]),
		Root:        binary.BigEndian.Uint32(src[8:12]),
		ChunkCount:  binary.BigEndian.Uint32(src[12:16]),
		FreeCount:   binary.BigEndian.Uint32(src[16:20]),
		PayloadLen:  binary.BigEndian.Uint32(src[20:24]),
		Checksum:    binary.BigEndian.Uint32(src[24:28]),
	}
	if !h.Compression.valid() {
		return header{}, ErrUnknownCompression
	}
	return h, nil
}
