package snapshot

import "errors"

var (
	// ErrBadMagic indicates data that does not start with the snapshot magic.
	ErrBadMagic = errors.New("snapshot: bad magic")

	// ErrUnsupportedVersion indicates a format version this package cannot read.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")

	// ErrTruncated indicates a header or payload shorter than announced.
	ErrTruncated = errors.New("snapshot: truncated")

	// ErrUnknownCompression indicates an unknown compression tag.
	ErrUnknownCompression = errors.New("snapshot: unknown compression")

	// ErrChecksum indicates a body whose CRC does not match the header.
	ErrChecksum = errors.New("snapshot: checksum mismatch")

	// ErrCorrupt indicates a well-formed snapshot describing a broken index.
	ErrCorrupt = errors.New("snapshot: index invariants violated")
)
