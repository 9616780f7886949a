//go:build unix

// Package mmfile maps snapshot files read-only for a single decode pass.
//
// Snapshots are read front to back exactly once, so the mapping is advised
// sequential. Only regular files are mapped: directories, pipes and devices
// fail with ErrNotRegular instead of an opaque mmap error. The cleanup
// function is idempotent because decoders release the mapping on every exit
// path.
package mmfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Map maps the file at path read-only and returns its contents together with
// a cleanup function that unmaps it. The slice must not be used after cleanup.
func Map(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close() // safe before return; mapping keeps pages alive

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	size := info.Size()
	if size == 0 {
		return []byte{}, func() error { return nil }, nil
	}
	if size > int64(^uint(0)>>1) {
		return nil, nil, fmt.Errorf("mmfile: file too large to map (%d bytes)", size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: mmap %s: %w", path, err)
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	cleanup := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		data = nil
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return data, cleanup, nil
}
