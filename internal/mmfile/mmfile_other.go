//go:build !unix

// Package mmfile maps snapshot files read-only for a single decode pass.
package mmfile

import (
	"fmt"
	"os"
)

// Map reads the entire file when mmap is not available.
func Map(path string) ([]byte, func() error, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	if !info.Mode().IsRegular() {
		return nil, func() error { return nil }, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return data, func() error { return nil }, nil
}
