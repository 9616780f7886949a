package snapshot

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/hyperchunks/chunks"
	"github.com/joshuapare/hyperchunks/chunks/verify"
)

var log = logrus.WithField("component", "snapshot")

// Options controls encoding.
type Options struct {
	Compression Compression
}

// Encode serializes ix.
func Encode(ix *chunks.Index, opts Options) ([]byte, error) {
	if !opts.Compression.valid() {
		return nil, ErrUnknownCompression
	}

	free := ix.FreeIDs()
	h := header{
		Compression: opts.Compression,
		Root:        ix.Root(),
		ChunkCount:  uint32(ix.Len()),
		FreeCount:   uint32(len(free)),
	}

	body := make([]byte, h.bodyLen())
	off := 0
	for id := uint32(0); id < h.ChunkCount; id++ {
		c := ix.Chunk(id)
		for _, l := range c.Links {
			binary.BigEndian.PutUint32(body[off:], uint32(l))
			off += linkBytes
		}
	}
	for _, id := range free {
		binary.BigEndian.PutUint32(body[off:], id)
		off += idBytes
	}
	h.Checksum = crc32.ChecksumIEEE(body)

	payload, err := compress(opts.Compression, body)
	if err != nil {
		return nil, err
	}
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("snapshot: payload of %d bytes does not fit the header", len(payload))
	}
	h.PayloadLen = uint32(len(payload))

	out := make([]byte, HeaderBytes+len(payload))
	putHeader(out, h)
	copy(out[HeaderBytes:], payload)

	log.WithFields(logrus.Fields{
		"chunks":      h.ChunkCount,
		"free":        h.FreeCount,
		"body":        len(body),
		"stored":      len(payload),
		"compression": opts.Compression,
	}).Debug("encoded snapshot")
	return out, nil
}

// Decode restores an index from data. data is not retained.
//
// The restored index is checked with verify.All; a snapshot that decodes but
// violates an invariant fails with an error wrapping ErrCorrupt and the
// *verify.ValidationError.
func Decode(data []byte, opts ...chunks.Option) (*chunks.Index, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if h.ChunkCount == 0 || h.ChunkCount > chunks.MaxChunks {
		return nil, fmt.Errorf("%w: chunk count %d", ErrCorrupt, h.ChunkCount)
	}
	if uint64(len(data)-HeaderBytes) < uint64(h.PayloadLen) {
		return nil, ErrTruncated
	}
	payload := data[HeaderBytes : HeaderBytes+int(h.PayloadLen)]

	body, err := decompress(h.Compression, payload, h.bodyLen())
	if err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(body) != h.Checksum {
		return nil, ErrChecksum
	}

	cs := make([]chunks.Chunk, h.ChunkCount)
	off := 0
	for i := range cs {
		for j := range cs[i].Links {
			cs[i].Links[j] = chunks.Link(binary.BigEndian.Uint32(body[off:]))
			off += linkBytes
		}
	}
	free := make([]uint32, h.FreeCount)
	for i := range free {
		free[i] = binary.BigEndian.Uint32(body[off:])
		off += idBytes
	}

	// The free pool is a set; duplicates would silently vanish in it.
	for i := 1; i < len(free); i++ {
		if free[i-1] >= free[i] {
			return nil, fmt.Errorf("%w: free ids not strictly ascending at %d", ErrCorrupt, free[i])
		}
	}

	ix := chunks.FromParts(cs, h.Root, free, opts...)
	if err := verify.All(ix); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return ix, nil
}
