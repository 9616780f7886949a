package snapshot

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hyperchunks/chunks"
	"github.com/joshuapare/hyperchunks/chunks/verify"
	"github.com/joshuapare/hyperchunks/internal/mmfile"
)

// populated returns an index with live chunks and a non-empty free pool.
func populated(t *testing.T) *chunks.Index {
	t.Helper()
	ix := chunks.New()
	rng := rand.New(rand.NewSource(5))
	for range 200 {
		x, y := uint32(rng.Intn(1<<12)), uint32(rng.Intn(1<<12))
		require.NoError(t, ix.Set(x, y, 7, 1<<31, chunks.BlockID(1+rng.Intn(6))))
	}
	require.NoError(t, ix.Set(0, 0, 0, 0, 3))
	require.NoError(t, ix.Set(1<<31, 1, 2, 3, 4))
	// Frees the first point's private chunks; later chunks keep them from being trimmed.
	require.NoError(t, ix.Set(0, 0, 0, 0, 0))
	require.NotEmpty(t, ix.FreeIDs())
	return ix
}

func requireSameIndex(t *testing.T, want, got *chunks.Index) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	require.Equal(t, want.Root(), got.Root())
	require.Equal(t, want.FreeIDs(), got.FreeIDs())
	for id := 0; id < want.Len(); id++ {
		require.Equal(t, want.Chunk(uint32(id)), got.Chunk(uint32(id)), "chunk %d", id)
	}
}

func TestEncodeDecodeAllCompressions(t *testing.T) {
	ix := populated(t)

	for _, c := range []Compression{CompressionNone, CompressionSnappy, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			data, err := Encode(ix, Options{Compression: c})
			require.NoError(t, err)
			require.Equal(t, Magic, string(data[:4]))
			require.Equal(t, byte(c), data[5])

			got, err := Decode(data)
			require.NoError(t, err)
			requireSameIndex(t, ix, got)
			require.NoError(t, verify.All(got))

			// The restored index keeps working, including free id reuse.
			require.NoError(t, got.Set(0, 0, 0, 0, 9))
			require.Equal(t, chunks.BlockID(9), got.Get(0, 0, 0, 0))
			require.NoError(t, verify.All(got))
		})
	}
}

func TestEncodeFreshIndex(t *testing.T) {
	data, err := Encode(chunks.New(), Options{})
	require.NoError(t, err)
	require.Len(t, data, HeaderBytes+chunks.ChunkBytes)

	got, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	require.Equal(t, chunks.BlockID(0), got.Get(5, 6, 7, 8))
}

func TestCompressionShrinksSparseArena(t *testing.T) {
	ix := populated(t)

	raw, err := Encode(ix, Options{})
	require.NoError(t, err)
	for _, c := range []Compression{CompressionSnappy, CompressionZstd} {
		packed, err := Encode(ix, Options{Compression: c})
		require.NoError(t, err)
		require.Less(t, len(packed), len(raw), c.String())
	}
}

func TestDecodeRejectsBadHeaders(t *testing.T) {
	good, err := Encode(populated(t), Options{})
	require.NoError(t, err)

	clone := func() []byte { return append([]byte(nil), good...) }

	_, err = Decode(good[:10])
	require.ErrorIs(t, err, ErrTruncated)

	bad := clone()
	copy(bad, "NOPE")
	_, err = Decode(bad)
	require.ErrorIs(t, err, ErrBadMagic)

	bad = clone()
	bad[4] = 2
	_, err = Decode(bad)
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	bad = clone()
	bad[5] = 9
	_, err = Decode(bad)
	require.ErrorIs(t, err, ErrUnknownCompression)

	_, err = Decode(good[:len(good)-4])
	require.ErrorIs(t, err, ErrTruncated)

	bad = clone()
	bad[HeaderBytes+3] ^= 0x01
	_, err = Decode(bad)
	require.ErrorIs(t, err, ErrChecksum)
}

func TestDecodeRejectsInflatedZstdBody(t *testing.T) {
	// A one-chunk header in front of a payload that inflates to 128 MiB.
	const inflated = 128 << 20
	payload, err := compress(CompressionZstd, make([]byte, inflated))
	require.NoError(t, err)

	h := header{Compression: CompressionZstd, ChunkCount: 1, PayloadLen: uint32(len(payload))}
	data := make([]byte, HeaderBytes+len(payload))
	putHeader(data, h)
	copy(data[HeaderBytes:], payload)

	runtime.GC()
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err = Decode(data)
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, ErrTruncated)
	require.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(inflated/4),
		"decode must stop shortly after the announced body length")
}

func TestDecodeRejectsShortZstdBody(t *testing.T) {
	ix := populated(t)
	data, err := Encode(ix, Options{Compression: CompressionZstd})
	require.NoError(t, err)

	// Claim one more free id than the body holds.
	bad := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(bad[16:20], binary.BigEndian.Uint32(bad[16:20])+1)
	_, err = Decode(bad)
	require.ErrorIs(t, err, ErrTruncated)
}

// reencode rewrites the checksum after tampering with an uncompressed body.
func reencode(data []byte) []byte {
	sum := crc32.ChecksumIEEE(data[HeaderBytes:])
	binary.BigEndian.PutUint32(data[24:28], sum)
	return data
}

func TestDecodeRejectsBrokenIndex(t *testing.T) {
	ix := chunks.New()
	require.NoError(t, ix.Set(1, 1, 1, 1, 1))
	good, err := Encode(ix, Options{})
	require.NoError(t, err)

	// Point the root's first link at a chunk past the arena.
	bad := append([]byte(nil), good...)
	binary.BigEndian.PutUint32(bad[HeaderBytes:], 1000)
	_, err = Decode(reencode(bad))
	require.ErrorIs(t, err, ErrCorrupt)
	var verr *verify.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "Tree", verr.Type)

	// Root id out of range.
	bad = append([]byte(nil), good...)
	binary.BigEndian.PutUint32(bad[8:12], 500)
	_, err = Decode(bad)
	require.ErrorIs(t, err, ErrCorrupt)

	// Zero chunks.
	bad = append([]byte(nil), good...)
	binary.BigEndian.PutUint32(bad[12:16], 0)
	_, err = Decode(bad)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"":       CompressionNone,
		"none":   CompressionNone,
		"Snappy": CompressionSnappy,
		" zstd ": CompressionZstd,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseCompression("lz4")
	require.ErrorIs(t, err, ErrUnknownCompression)
	require.Equal(t, "Compression(7)", Compression(7).String())
}

func TestSaveLoad(t *testing.T) {
	ix := populated(t)
	path := filepath.Join(t.TempDir(), "world.chk")

	require.NoError(t, Save(path, ix, Options{Compression: CompressionZstd}))
	got, err := Load(path)
	require.NoError(t, err)
	requireSameIndex(t, ix, got)

	// Overwrite in place; no temp files are left behind.
	require.NoError(t, got.Set(3, 3, 3, 3, 3))
	require.NoError(t, Save(path, got, Options{Compression: CompressionSnappy}))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, chunks.BlockID(3), again.Get(3, 3, 3, 3))
}

func TestLoadMissingAndCorruptFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.chk"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "junk.chk")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a snapshot at all!"), 0o644))
	_, err = Load(path)
	require.ErrorIs(t, err, ErrBadMagic)
	require.Contains(t, err.Error(), path)
	_, err = Load(dir)
	require.ErrorIs(t, err, mmfile.ErrNotRegular)
}
