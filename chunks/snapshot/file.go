package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/hyperchunks/chunks"
	"github.com/joshuapare/hyperchunks/internal/mmfile"
)

// Save writes ix to path atomically: the snapshot goes to a temporary file
// in the same directory, is synced, and then renamed over path.
func Save(path string, ix *chunks.Index, opts Options) error {
	data, err := Encode(ix, opts)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write %s: %w", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("snapshot: rename to %s: %w", path, err)
	}

	log.WithFields(logrus.Fields{
		"path":  path,
		"bytes": len(data),
	}).Debug("saved snapshot")
	return nil
}

// Load maps the snapshot at path and decodes it.
func Load(path string, opts ...chunks.Option) (*chunks.Index, error) {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := cleanup(); cerr != nil {
			log.WithError(cerr).WithField("path", path).Warn("failed to unmap snapshot")
		}
	}()

	ix, err := Decode(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithFields(logrus.Fields{
		"path":   path,
		"chunks": ix.Len(),
	}).Debug("loaded snapshot")
	return ix, nil
}
