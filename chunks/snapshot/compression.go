package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Compression selects how the snapshot body is stored.
type Compression uint8

const (
	CompressionNone   Compression = 0
	CompressionSnappy Compression = 1
	CompressionZstd   Compression = 2
)

func (c Compression) valid() bool {
	return c <= CompressionZstd
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "snappy" or "zstd" (case-insensitive).
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

// maxPrealloc bounds the buffer reserved up front from an untrusted header.
const maxPrealloc = 64 << 20

// The zstd encoder is safe for concurrent EncodeAll and expensive to build,
// so one is shared.
var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdErr  error
)

func zstdEncoder() (*zstd.Encoder, error) {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if zstdErr != nil {
			zstdErr = fmt.Errorf("create zstd encoder: %w", zstdErr)
		}
	})
	return zstdEnc, zstdErr
}

func compress(c Compression, body []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return body, nil
	case CompressionSnappy:
		return snappy.Encode(nil, body), nil
	case CompressionZstd:
		enc, err := zstdEncoder()
		if err != nil {
			return nil, err
		}
		return enc.EncodeAll(body, make([]byte, 0, len(body)/4)), nil
	default:
		return nil, ErrUnknownCompression
	}
}

// decompress restores a body of exactly want bytes.
func decompress(c Compression, payload []byte, want uint64) ([]byte, error) {
	switch c {
	case CompressionNone:
		if uint64(len(payload)) != want {
			return nil, ErrTruncated
		}
		return payload, nil
	case CompressionSnappy:
		n, err := snappy.DecodedLen(payload)
		if err != nil {
			return nil, fmt.Errorf("snapshot: snappy: %w", err)
		}
		if uint64(n) != want {
			return nil, ErrTruncated
		}
		body, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("snapshot: snappy: %w", err)
		}
		return body, nil
	case CompressionZstd:
		return unzstd(payload, want)
	default:
		return nil, ErrUnknownCompression
	}
}

// unzstd streams payload through a decoder and stops one byte past want, so
// a payload inflating beyond its header is rejected without being expanded.
func unzstd(payload []byte, want uint64) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(payload),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true))
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd: %w", err)
	}
	defer dec.Close()

	var buf bytes.Buffer
	buf.Grow(int(min(want, maxPrealloc)))
	n, err := buf.ReadFrom(io.LimitReader(dec, int64(want)+1))
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd: %w", err)
	}
	if uint64(n) != want {
		return nil, ErrTruncated
	}
	return buf.Bytes(), nil
}
